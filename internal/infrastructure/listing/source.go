package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ReportScanner/internal/config"
	"ReportScanner/internal/domain"
	"ReportScanner/internal/ports"
	"ReportScanner/internal/scanner"
)

// Source implements ReportSource via registered scanner strategies. Categories
// are scanned in configured order; a failed category is logged and skipped so
// one bad section never aborts the whole run.
type Source struct {
	registry *scanner.Registry
	site     config.SiteConfig
	logger   *slog.Logger
}

var _ ports.ReportSource = (*Source)(nil)

// NewSource wires the scanner registry with config-defined categories.
func NewSource(reg *scanner.Registry, site config.SiteConfig, log *slog.Logger) *Source {
	return &Source{
		registry: reg,
		site:     site,
		logger:   log,
	}
}

// FetchDaily scans every configured category for the requested day.
func (s *Source) FetchDaily(ctx context.Context, day time.Time) ([]domain.Report, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site scanner: %w", err)
	}

	s.debug("fetch daily", "categories", len(s.site.Categories), "day", day.Format("2006-01-02"))

	var aggregated []domain.Report
	for _, name := range s.site.Categories {
		category, err := domain.ParseCategory(name)
		if err != nil {
			s.warn("skipping category", "category", name, "error", err)
			continue
		}

		req := scanner.Request{
			Day:      day,
			Category: category,
			Pages:    s.site.Pages,
		}

		results, err := strategy.Scan(ctx, req)
		if err != nil {
			s.warn("category scan failed", "category", name, "error", err)
			continue
		}

		s.debug("category produced reports", "category", name, "count", len(results))
		aggregated = append(aggregated, results...)
	}

	s.debug("source done", "total_reports", len(aggregated))
	return aggregated, nil
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Source) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
