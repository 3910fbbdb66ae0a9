package ledger

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"ReportScanner/internal/domain"
	"ReportScanner/internal/ports"
)

// FileLedger persists notified report ids as an append-only text file, one
// UTF-8 id per line. There is no deletion or compaction; the file grows
// monotonically.
type FileLedger struct {
	path   string
	logger *slog.Logger
}

var _ ports.Ledger = (*FileLedger)(nil)

// NewFileLedger wires the backing file path.
func NewFileLedger(path string, logger *slog.Logger) *FileLedger {
	return &FileLedger{path: path, logger: logger}
}

// Load reads all persisted ids. A missing or unreadable file is not an error:
// it yields an empty set so a first run starts clean. Blank lines are skipped.
func (l *FileLedger) Load(ctx context.Context) (domain.SeenSet, error) {
	seen := domain.NewSeenSet()

	file, err := os.Open(l.path)
	if err != nil {
		if !os.IsNotExist(err) && l.logger != nil {
			l.logger.Warn("ledger unreadable, starting empty", "path", l.path, "error", err)
		}
		return seen, nil
	}
	defer file.Close()

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		id := strings.TrimSpace(sc.Text())
		if id == "" {
			continue
		}
		seen.Add(id)
	}
	if err := sc.Err(); err != nil {
		if l.logger != nil {
			l.logger.Warn("ledger partially read", "path", l.path, "error", err)
		}
	}

	return seen, nil
}

// Append durably records one id. Duplicate appends are harmless since loading
// checks membership, not count. Each id is flushed before the next candidate
// is considered, so a crash mid-run loses at most the in-flight record.
func (l *FileLedger) Append(ctx context.Context, id string) error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	if _, err := fmt.Fprintln(file, id); err != nil {
		_ = file.Close()
		return fmt.Errorf("append id: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}

	return nil
}
