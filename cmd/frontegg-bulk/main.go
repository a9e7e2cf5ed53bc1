// Package main provides the entry point for the Frontegg bulk user action tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/client"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/config"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/frontegg"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/metrics"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/model"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/report"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/service"
)

// usageText is printed when no valid action was given. Usage mistakes
// exit with code 2, runtime failures with code 1.
const usageText = `
⚠️  Missing or invalid action.

You need to tell the tool what to do before running it.
Specify an action either via CLI or environment:

  • CLI:
      frontegg-bulk --action lock
      frontegg-bulk --action delete

  • Environment:
      USER_ACTION=lock   # or delete

Tip: run a dry-run first (no changes):
      frontegg-bulk --action lock
Then execute for real:
      frontegg-bulk --action lock --execute
`

func main() {
	actionFlag := flag.String("action", "", "action to perform: lock or delete (can also be set via USER_ACTION env)")
	execute := flag.Bool("execute", false, "actually perform the action (default: dry-run)")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// The CLI flag takes priority over the environment.
	raw := *actionFlag
	if raw == "" {
		raw = os.Getenv("USER_ACTION")
	}
	action, ok := model.ParseAction(raw)
	if !ok {
		fmt.Print(usageText, "\n")
		os.Exit(2)
	}

	dryRun := !*execute

	logger := initLogger()
	defer logger.Sync()

	logger.Info("starting bulk user action run",
		zap.String("action", string(action)),
		zap.Bool("dry_run", dryRun),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	identifiers, err := cfg.IdentifierList()
	if err != nil {
		logger.Fatal("failed to load identifier list", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("region", cfg.Frontegg.Region),
		zap.Int("max_retries", cfg.HTTP.MaxRetries),
		zap.Duration("rate_limit_delay", cfg.HTTP.RateLimitDelay),
		zap.Int("identifiers", len(identifiers)),
	)

	m := metrics.NewMetrics()

	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
		logger.Info("metrics server started",
			zap.Int("port", cfg.Metrics.Port),
			zap.String("path", cfg.Metrics.Path),
		)
	}

	apiClient := client.New(cfg.HTTP, m, logger)
	fronteggClient := frontegg.NewClient(cfg.Region(), cfg.Credentials(), apiClient, logger)
	runner := service.NewBatchRunner(fronteggClient, identifiers, m, logger)

	result, err := runner.Run(context.Background(), action, dryRun)
	if err != nil {
		logger.Fatal("batch run failed", zap.Error(err))
	}

	if err := report.Render(os.Stdout, result); err != nil {
		logger.Fatal("failed to render report", zap.Error(err))
	}
	fmt.Println()
	fmt.Println(report.Summary(result))

	if cfg.Report.XLSXPath != "" {
		if err := report.WriteXLSX(cfg.Report.XLSXPath, result); err != nil {
			logger.Error("failed to write XLSX report", zap.Error(err))
		} else {
			logger.Info("XLSX report written", zap.String("path", cfg.Report.XLSXPath))
		}
	}

	if metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}
}

// initLogger initializes the zap logger.
func initLogger() *zap.Logger {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var level zapcore.Level
	switch logLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	logFormat := os.Getenv("LOG_FORMAT")

	var config zap.Config
	if logFormat == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		// Fallback to basic logger
		logger, _ = zap.NewProduction()
	}

	return logger
}
