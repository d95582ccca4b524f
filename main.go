package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"churn-etl/config"
	"churn-etl/services"
	"churn-etl/storage"
	"churn-etl/utils"
)

const usage = `usage: churn-etl <command>

commands:
  extract     copy the source dataset into the raw stage
  transform   clean the raw stage and derive the feature columns
  load        append the staged rows to the remote table and validate
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]
	switch command {
	case "extract", "transform", "load":
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireStore()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	level, err := utils.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	runID := uuid.NewString()
	logger := utils.NewLogger(level).WithField("run", runID)

	logger.Info("=== Churn ETL: %s ===", command)
	logger.Debug("Config: %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "extract":
		err = runExtract(cfg, logger)
	case "transform":
		err = runTransform(cfg, logger)
	case "load":
		err = runLoad(ctx, cfg, logger, runID)
	}
	if err != nil {
		logger.Error("%s failed: %v", command, err)
		if errors.Is(err, services.ErrSourceNotFound) {
			logger.Error("Run the previous stage first.")
		}
		stop()
		os.Exit(1)
	}
	logger.Info("=== %s completed ===", command)
}

func runExtract(cfg *config.Config, logger *utils.Logger) error {
	_, err := services.NewExtractor(logger).Extract(cfg.SourcePath, cfg.RawPath)
	return err
}

func runTransform(cfg *config.Config, logger *utils.Logger) error {
	_, err := services.NewTransformer(logger).Run(cfg.RawPath, cfg.StagedPath)
	return err
}

// runLoad loads the staged file and then validates all three copies. Failed
// checks are reported but do not fail the command.
func runLoad(ctx context.Context, cfg *config.Config, logger *utils.Logger, runID string) error {
	store, err := storage.Open(ctx, cfg.StoreURL, cfg.StoreKey)
	if err != nil {
		return err
	}
	defer store.Close()

	retry := &utils.RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		Backoff:     utils.LinearBackoff(cfg.RetryUnit),
		Logger:      logger,
	}
	loader := services.NewLoader(store, cfg.BatchSize, retry, logger)
	result, err := loader.LoadFile(ctx, cfg.StoreTable, cfg.StagedPath)
	if err != nil {
		return err
	}
	if failed := result.FailedBatches(); len(failed) > 0 {
		logger.Warn("%d batch(es) were skipped; the remote count check will fail", len(failed))
	}

	validator := services.NewValidator(store, logger)
	report, err := validator.ValidateFiles(ctx, cfg.StoreTable, cfg.RawPath, cfg.StagedPath)
	if err != nil {
		return err
	}
	report.RunID = runID

	validator.Print(os.Stdout, report)
	if err := services.WriteReport(cfg.ReportPath, report); err != nil {
		logger.Error("Could not write validation report: %v", err)
	} else {
		logger.Info("Validation report saved to %s", cfg.ReportPath)
	}

	if !report.Passed {
		logger.Warn("%s", report.Summary())
	}
	return nil
}
