package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-habit-api/internal/app"
	"github.com/noah-isme/sma-habit-api/internal/models"
	"github.com/noah-isme/sma-habit-api/internal/service"
	"github.com/noah-isme/sma-habit-api/pkg/config"
	"github.com/noah-isme/sma-habit-api/pkg/database"
	"github.com/noah-isme/sma-habit-api/pkg/logger"
)

const usage = `usage: admin <command> [flags]

commands:
  migrate                                   apply database migrations
  import   -kind K -file F [-class ID]      import an onboarding sheet
  template -kind K [-out DIR]               write the blank template of a kind
  report   -class ID -start D -end D [-format F] [-out DIR]
                                            render an activity report`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "migrate":
		err = runMigrate(cfg, logr)
	case "import":
		err = runImport(ctx, cfg, logr, args)
	case "template":
		err = runTemplate(args)
	case "report":
		err = runReport(ctx, cfg, logr, args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal(cmd+" failed", zap.Error(err))
	}
}

func runMigrate(cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db.DB); err != nil {
		return err
	}
	version, err := database.MigrationVersion(db.DB)
	if err != nil {
		return err
	}
	logr.Info("database migrated", zap.Int64("version", version))
	return nil
}

func openServices(cfg *config.Config, logr *zap.Logger) (*app.Services, func(), error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	locker, closeLocker, err := app.NewLocker(cfg.Redis, logr)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	svcs, err := app.NewServices(cfg, db, locker, logr)
	if err != nil {
		closeLocker()
		db.Close()
		return nil, nil, err
	}
	return svcs, func() {
		closeLocker()
		db.Close()
	}, nil
}

func runImport(ctx context.Context, cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	kind := fs.String("kind", "", "students, teachers or guardians")
	path := fs.String("file", "", "xlsx or csv file")
	classID := fs.String("class", "", "class ID (students only)")
	_ = fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("-file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	svcs, closeAll, err := openServices(cfg, logr)
	if err != nil {
		return err
	}
	defer closeAll()

	result, err := svcs.Imports.ImportFile(ctx, filepath.Base(*path), f, models.ImportKind(*kind), models.ImportContext{ClassID: *classID})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runTemplate(args []string) error {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	kind := fs.String("kind", "", "students, teachers or guardians")
	out := fs.String("out", ".", "output directory")
	_ = fs.Parse(args)

	name, body, err := service.NewTemplateService(nil).Render(models.ImportKind(*kind))
	if err != nil {
		return err
	}
	target := filepath.Join(*out, name)
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return err
	}
	fmt.Println(target)
	return nil
}

func runReport(ctx context.Context, cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	classID := fs.String("class", "", "class ID")
	start := fs.String("start", "", "first day, YYYY-MM-DD")
	end := fs.String("end", time.Now().Format("2006-01-02"), "last day, YYYY-MM-DD")
	format := fs.String("format", string(models.ReportFormatXLSX), "xlsx, pdf or csv")
	out := fs.String("out", ".", "output directory")
	_ = fs.Parse(args)

	svcs, closeAll, err := openServices(cfg, logr)
	if err != nil {
		return err
	}
	defer closeAll()

	file, err := svcs.Exports.Generate(ctx, service.ReportRequest{
		ClassID:   *classID,
		StartDate: *start,
		EndDate:   *end,
		Format:    *format,
	})
	if err != nil {
		return err
	}
	target := filepath.Join(*out, file.Filename)
	if err := os.WriteFile(target, file.Body, 0o644); err != nil {
		return err
	}
	fmt.Println(target)
	return nil
}
