package ports

import (
	"context"
	"time"

	"ReportScanner/internal/domain"
)

// ReportSource pulls the day's candidate reports from the listing site.
type ReportSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Report, error)
}

// Ledger persists notified report ids for deduplication across runs.
// Load fails soft: a missing or unreadable backing store yields an empty set.
type Ledger interface {
	Load(ctx context.Context) (domain.SeenSet, error)
	Append(ctx context.Context, id string) error
}

// ContentExtractor obtains analyzable content for a report document. Failures
// surface as the Unavailable variant, never as an error.
type ContentExtractor interface {
	Extract(ctx context.Context, report domain.Report) domain.ExtractedContent
}

// Summarizer produces a short investor-oriented summary of extracted content.
// It never fails: exhausted or unusable inputs yield a fixed sentinel string.
type Summarizer interface {
	Summarize(ctx context.Context, report domain.Report, content domain.ExtractedContent) string
}

// Notifier delivers report notifications to the outbound channel. Send returns
// a handle usable for a later best-effort Update (two-phase delivery).
type Notifier interface {
	Send(ctx context.Context, report domain.Report, summary string) (domain.MessageID, error)
	Update(ctx context.Context, id domain.MessageID, report domain.Report, summary string) error
}

// Scheduler controls when pipeline runs execute in daemon mode.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
