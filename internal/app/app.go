package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/repository"
	"github.com/noah-isme/sma-habit-api/internal/service"
	"github.com/noah-isme/sma-habit-api/pkg/config"
	"github.com/noah-isme/sma-habit-api/pkg/jobs"
	"github.com/noah-isme/sma-habit-api/pkg/lock"
	"github.com/noah-isme/sma-habit-api/pkg/storage"
	"github.com/noah-isme/sma-habit-api/pkg/validation"
)

// Services holds every wired domain service.
type Services struct {
	Metrics     *service.MetricsService
	Imports     *service.ImportService
	Templates   *service.TemplateService
	Submissions *service.SubmissionService
	Reports     *service.ActivityReportService
	Exports     *service.ReportExportService
}

// NewLocker returns a Redis-backed lock when Redis is enabled and an
// in-process one otherwise. The returned close func is never nil.
func NewLocker(cfg config.RedisConfig, logger *zap.Logger) (lock.Locker, func(), error) {
	if !cfg.Enabled {
		return lock.NewLocalLocker(), func() {}, nil
	}
	client, err := lock.NewRedisClient(cfg)
	if err != nil {
		return nil, func() {}, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("import lock backed by redis", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return lock.NewRedisLocker(client), func() { _ = client.Close() }, nil
}

// NewServices wires repositories into services.
func NewServices(cfg *config.Config, db *sqlx.DB, locker lock.Locker, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	classes := repository.NewClassRepository(db)
	onboarding := repository.NewOnboardingRepository(db)
	activityTypes := repository.NewActivityTypeRepository(db)
	submissions := repository.NewSubmissionRepository(db)

	archive, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	v := validation.New()
	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	classifier := service.NewRowClassifier(students, teachers, users, v)
	imports := service.NewImportService(classifier, onboarding, users, locker, metrics, service.ImportOptions{
		LockKey:      cfg.Imports.LockKey,
		LockTTL:      cfg.Imports.LockTTL,
		BcryptCost:   cfg.Imports.BcryptCost,
		LoginRetries: cfg.Imports.LoginRetries,
	}, logger.Named("import"))

	reports := service.NewActivityReportService(classes, students, submissions, activityTypes, cfg.Reports.SchoolName, logger.Named("report"))
	exports := service.NewReportExportService(reports, archive, signer, metrics, service.ReportExportConfig{
		APIPrefix:  cfg.APIPrefix,
		ArchiveTTL: cfg.Reports.SignedURLTTL,
	}, logger.Named("export"))

	return &Services{
		Metrics:     metrics,
		Imports:     imports,
		Templates:   service.NewTemplateService(nil),
		Submissions: service.NewSubmissionService(submissions, activityTypes, v, metrics, logger.Named("submission")),
		Reports:     reports,
		Exports:     exports,
	}, nil
}

type archiveCleaner interface {
	Cleanup() ([]string, error)
}

// RunCleanup removes expired report archives every interval until ctx ends.
// Failed sweeps are retried by the cleanup queue.
func RunCleanup(ctx context.Context, cleaner archiveCleaner, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	queue := jobs.NewQueue("archive-cleanup", func(_ context.Context, _ jobs.Task) error {
		removed, err := cleaner.Cleanup()
		if err != nil {
			return err
		}
		if len(removed) > 0 {
			logger.Info("report archives removed", zap.Int("count", len(removed)))
		}
		return nil
	}, jobs.Options{Workers: 1, Buffer: 1, Backoff: interval / 4, Logger: logger})
	queue.Start(ctx)
	defer queue.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := queue.Submit(jobs.Task{Name: "sweep"}); err != nil {
				logger.Warn("report archive cleanup not queued", zap.Error(err))
			}
		}
	}
}
