package content

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"ReportScanner/internal/config"
	"ReportScanner/internal/domain"
	"ReportScanner/internal/ports"
)

// Extractor obtains analyzable content for a report document. It fetches the
// PDF, tries text extraction over the leading pages, and falls back to a
// first-page image when the document is image-only (scanned). Every failure
// collapses into the Unavailable variant; retries belong to the caller.
type Extractor struct {
	client  *resty.Client
	cfg     config.ExtractorConfig
	logger  *slog.Logger
	tempDir string
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client and a scratch directory for pdfcpu, which
// operates on files rather than byte slices.
func NewExtractor(cfg config.ExtractorConfig, logger *slog.Logger) *Extractor {
	client := resty.New().SetTimeout(cfg.Timeout())
	if cfg.LegacyTLS {
		// Some legacy report endpoints only negotiate old TLS ciphers.
		client.SetTransport(legacyTLSTransport())
	}

	tempDir := filepath.Join(os.TempDir(), "reportscanner-pdf")
	_ = os.MkdirAll(tempDir, 0o755)

	return &Extractor{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		tempDir: tempDir,
	}
}

// Extract fetches the report document and produces exactly one representation.
func (e *Extractor) Extract(ctx context.Context, report domain.Report) domain.ExtractedContent {
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Referer", e.cfg.Referer).
		Get(report.Link)
	if err != nil {
		e.warn("document fetch failed", "report", report.ID, "error", err)
		return domain.UnavailableContent()
	}
	if resp.StatusCode() != 200 {
		e.warn("document fetch rejected", "report", report.ID, "status", resp.Status())
		return domain.UnavailableContent()
	}

	tempFile, err := e.writeTemp(resp.Body())
	if err != nil {
		e.warn("cannot stage document", "report", report.ID, "error", err)
		return domain.UnavailableContent()
	}
	defer os.Remove(tempFile)

	text, err := e.extractText(tempFile)
	if err == nil && meetsTextThreshold(text, e.minTextChars()) {
		return domain.TextContent(text)
	}
	if err != nil {
		e.warn("text extraction failed", "report", report.ID, "error", err)
	}

	image, err := e.firstPageImage(tempFile)
	if err != nil {
		e.warn("image extraction failed", "report", report.ID, "error", err)
		return domain.UnavailableContent()
	}

	return domain.ImageContent(image, "image/png")
}

func (e *Extractor) writeTemp(body []byte) (string, error) {
	file, err := os.CreateTemp(e.tempDir, "report_*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := file.Write(body); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return file.Name(), nil
}

// extractText pulls text from the leading pages via pdfcpu content extraction.
func (e *Extractor) extractText(tempFile string) (string, error) {
	conf := model.NewDefaultConfiguration()

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	pages := e.maxPages()
	if pdfCtx.PageCount < pages {
		pages = pdfCtx.PageCount
	}
	if pages < 1 {
		return "", fmt.Errorf("pdf has no pages")
	}

	outDir, err := os.MkdirTemp(e.tempDir, "content_")
	if err != nil {
		return "", fmt.Errorf("create content dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	selection := []string{fmt.Sprintf("1-%d", pages)}
	if err := api.ExtractContentFile(tempFile, outDir, selection, conf); err != nil {
		return "", fmt.Errorf("extract content: %w", err)
	}

	raw, err := readAllFiles(outDir)
	if err != nil {
		return "", err
	}

	return textFromContentStream(raw), nil
}

// meetsTextThreshold decides between the text and image representations.
// Sub-threshold text indicates an image-only (scanned) document, which must
// fall through to the image path rather than ship as near-empty text.
func meetsTextThreshold(text string, minChars int) bool {
	return len([]rune(strings.TrimSpace(text))) >= minChars
}

func (e *Extractor) maxPages() int {
	if e.cfg.MaxPages <= 0 {
		return 4
	}
	return e.cfg.MaxPages
}

func (e *Extractor) minTextChars() int {
	if e.cfg.MinTextChars <= 0 {
		return 100
	}
	return e.cfg.MinTextChars
}

// readAllFiles concatenates every regular file pdfcpu wrote, in name order.
func readAllFiles(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read content dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		builder.Write(data)
		builder.WriteByte('\n')
	}

	return builder.String(), nil
}

func (e *Extractor) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
