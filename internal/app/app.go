package app

import (
	"context"
	"log/slog"
	"time"

	"ReportScanner/internal/config"
	"ReportScanner/internal/infrastructure/content"
	"ReportScanner/internal/infrastructure/ledger"
	"ReportScanner/internal/infrastructure/listing"
	"ReportScanner/internal/infrastructure/llm"
	"ReportScanner/internal/infrastructure/scheduler"
	"ReportScanner/internal/infrastructure/telegram"
	"ReportScanner/internal/logging"
	"ReportScanner/internal/scanner"
	"ReportScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := scanner.NewRegistry()
	registry.Register(listing.NewConsensusScanner(cfg.Site, baseLogger.With("component", "scanner.consensus")))

	source := listing.NewSource(registry, cfg.Site, baseLogger.With("component", "source"))
	seenLedger := ledger.NewFileLedger(cfg.Ledger.Path, baseLogger.With("component", "ledger"))
	extractor := content.NewExtractor(cfg.Extractor, baseLogger.With("component", "extractor"))
	summarizer := llm.NewGeminiClient(cfg.Gemini, baseLogger.With("component", "summarizer"))
	notifier := telegram.NewNotifier(cfg.Notifications.Telegram, baseLogger.With("component", "notifier"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Ledger:      seenLedger,
		Extractor:   extractor,
		Summarizer:  summarizer,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
		CutoffHour:  cfg.Pipeline.CutoffHour,
		Location:    cfg.Pipeline.Location(),
		NotifyDelay: cfg.Pipeline.NotifyDelay(),
		TwoPhase:    cfg.Pipeline.TwoPhaseEnabled(),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}
}

// Run executes a single pipeline pass, or blocks on the cron schedule when
// daemon mode is enabled.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if !a.cfg.Scheduler.Enabled {
		return a.pipeline.ProcessDay(ctx, time.Now())
	}

	driver := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Pipeline.Location())
	recurring := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := recurring.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return recurring.Stop(stopCtx)
}
