package app

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/handler"
	"github.com/noah-isme/sma-habit-api/internal/middleware"
	"github.com/noah-isme/sma-habit-api/pkg/config"
	"github.com/noah-isme/sma-habit-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-habit-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-habit-api/pkg/middleware/requestid"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter builds the gin engine with every route mounted under the API prefix.
func NewRouter(cfg *config.Config, svcs *Services, db pinger, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.Metrics))

	metricsHandler := handler.NewMetricsHandler(svcs.Metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	imports := handler.NewImportHandler(svcs.Imports, svcs.Templates, cfg.Imports.MaxUploadBytes)
	submissions := handler.NewSubmissionHandler(svcs.Submissions)
	reports := handler.NewReportHandler(svcs.Exports)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/imports/:kind", imports.Import)
		api.GET("/imports/:kind/template", imports.Template)

		api.POST("/submissions", submissions.Submit)
		api.GET("/submissions/:id", submissions.Get)
		api.POST("/submissions/:id/approve", submissions.Approve)
		api.POST("/submissions/:id/reject", submissions.Reject)

		api.GET("/reports/activities", reports.Activities)
		api.POST("/reports/activities/archive", reports.Archive)
		api.GET("/reports/download/:token", reports.Download)
	}
	return r
}
