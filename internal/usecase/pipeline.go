package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReportScanner/internal/domain"
	"ReportScanner/internal/ports"
)

// summaryPlaceholder is sent in phase one of two-phase delivery, then edited
// away once the summary is ready.
const summaryPlaceholder = "⏳ Summary in progress…"

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.ReportSource
	Ledger     ports.Ledger
	Extractor  ports.ContentExtractor
	Summarizer ports.Summarizer
	Notifier   ports.Notifier
	Logger     *slog.Logger

	CutoffHour  int
	Location    *time.Location
	NotifyDelay time.Duration
	TwoPhase    bool
}

// Pipeline implements the discovery-and-notify workflow. Records are strictly
// sequential: each ledger commit happens before the next candidate is
// considered, so a mid-run failure never double-notifies on restart.
type Pipeline struct {
	source     ports.ReportSource
	ledger     ports.Ledger
	extractor  ports.ContentExtractor
	summarizer ports.Summarizer
	notifier   ports.Notifier
	logger     *slog.Logger

	cutoffHour  int
	location    *time.Location
	notifyDelay time.Duration
	twoPhase    bool
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	location := deps.Location
	if location == nil {
		location = time.Local
	}

	return &Pipeline{
		source:      deps.Source,
		ledger:      deps.Ledger,
		extractor:   deps.Extractor,
		summarizer:  deps.Summarizer,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		cutoffHour:  deps.CutoffHour,
		location:    location,
		notifyDelay: deps.NotifyDelay,
		twoPhase:    deps.TwoPhase,
	}
}

// ProcessDay performs one full discovery pass for the given instant.
func (p *Pipeline) ProcessDay(ctx context.Context, now time.Time) error {
	if p.source == nil {
		return nil
	}

	local := now.In(p.location)
	if p.cutoffHour > 0 && local.Hour() >= p.cutoffHour {
		p.info("past cutoff hour, skipping run", "hour", local.Hour(), "cutoff", p.cutoffHour)
		return nil
	}

	seen := domain.NewSeenSet()
	if p.ledger != nil {
		loaded, err := p.ledger.Load(ctx)
		if err != nil {
			p.warn("ledger load failed, starting empty", "error", err)
		} else {
			seen = loaded
		}
	}

	reports, err := p.source.FetchDaily(ctx, local)
	if err != nil {
		return fmt.Errorf("fetch daily: %w", err)
	}

	processed := 0
	for _, report := range reports {
		if seen.Contains(report.ID) {
			continue
		}

		// Mandatory pause between notifications; the outbound channel
		// rate-limits bursts.
		if processed > 0 {
			if err := p.pause(ctx); err != nil {
				return err
			}
		}

		p.processReport(ctx, report)

		seen.Add(report.ID)
		if p.ledger != nil {
			if err := p.ledger.Append(ctx, report.ID); err != nil {
				p.warn("ledger append failed", "report", report.ID, "error", err)
			}
		}
		processed++
	}

	p.info("scan complete", "candidates", len(reports), "new_reports", processed)
	return nil
}

// processReport runs one record to completion. All per-record failures are
// converted to sentinels or logged; nothing here aborts the run.
func (p *Pipeline) processReport(ctx context.Context, report domain.Report) {
	if p.twoPhase {
		p.deliverTwoPhase(ctx, report)
		return
	}

	summary := p.summarize(ctx, report)
	if p.notifier != nil {
		if _, err := p.notifier.Send(ctx, report, summary); err != nil {
			p.warn("notification failed", "report", report.ID, "error", err)
		}
	}
}

// deliverTwoPhase sends a placeholder immediately, then patches in the
// summary once the slower extract/generate steps complete. A failed edit is
// swallowed: the placeholder message is still a valid notification.
func (p *Pipeline) deliverTwoPhase(ctx context.Context, report domain.Report) {
	var handle domain.MessageID
	if p.notifier != nil {
		sent, err := p.notifier.Send(ctx, report, summaryPlaceholder)
		if err != nil {
			p.warn("notification failed", "report", report.ID, "error", err)
		} else {
			handle = sent
		}
	}

	summary := p.summarize(ctx, report)

	if p.notifier != nil && handle != 0 {
		if err := p.notifier.Update(ctx, handle, report, summary); err != nil {
			p.warn("summary edit failed", "report", report.ID, "error", err)
		}
	}
}

func (p *Pipeline) summarize(ctx context.Context, report domain.Report) string {
	content := domain.UnavailableContent()
	if p.extractor != nil {
		content = p.extractor.Extract(ctx, report)
	}

	if p.summarizer == nil {
		return summaryPlaceholder
	}
	return p.summarizer.Summarize(ctx, report, content)
}

func (p *Pipeline) pause(ctx context.Context) error {
	if p.notifyDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.notifyDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
