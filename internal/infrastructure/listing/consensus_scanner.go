package listing

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"ReportScanner/internal/config"
	"ReportScanner/internal/domain"
	"ReportScanner/internal/scanner"
)

const rowSelector = "div.table_style01 table tbody tr"

var reportIdxExpr = regexp.MustCompile(`report_idx=(\d+)`)

// ConsensusScanner crawls the consensus listing table and extracts reports for
// the requested day. The table layout is [date, category, title+link, ...,
// provider-ish columns]; rows that do not fit the schema are skipped.
type ConsensusScanner struct {
	client      *resty.Client
	site        config.SiteConfig
	logger      *slog.Logger
	providerIdx []int
}

var _ scanner.Scanner = (*ConsensusScanner)(nil)

// NewConsensusScanner wires an HTTP client from site configuration.
func NewConsensusScanner(site config.SiteConfig, logger *slog.Logger) *ConsensusScanner {
	client := resty.New().
		SetTimeout(site.Timeout()).
		SetHeader("User-Agent", site.UserAgent)

	return &ConsensusScanner{
		client:      client,
		site:        site,
		logger:      logger,
		providerIdx: []int{5, 4, 3},
	}
}

// Name identifies the strategy inside the registry.
func (c *ConsensusScanner) Name() string {
	return "consensus"
}

// Scan walks the category's pages and returns rows published on the requested
// day. A failed page fetch is logged and skipped; scanning continues.
func (c *ConsensusScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Report, error) {
	accepted := acceptedDates(req, c.site.DateLayouts)
	if len(accepted) == 0 {
		return nil, fmt.Errorf("no date layouts configured")
	}

	pages := req.Pages
	if pages <= 0 {
		pages = 1
	}

	var results []domain.Report
	for page := 1; page <= pages; page++ {
		pageURL, err := c.buildPageURL(req.Category, page)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", req.Category, err)
		}

		doc, err := c.fetchDocument(ctx, pageURL)
		if err != nil {
			c.warn("page fetch failed", "category", req.Category.String(), "page", page, "error", err)
			continue
		}

		results = append(results, c.extractReports(doc, req.Category, accepted)...)
	}

	return results, nil
}

func (c *ConsensusScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := c.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("listing returned %s", resp.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	return doc, nil
}

func (c *ConsensusScanner) extractReports(doc *goquery.Document, category domain.Category, accepted map[string]struct{}) []domain.Report {
	var collected []domain.Report

	doc.Find(rowSelector).Each(func(i int, row *goquery.Selection) {
		cols := row.Find("td")
		if cols.Length() < 5 {
			return
		}

		date := strings.TrimSpace(cols.Eq(0).Text())
		if _, ok := accepted[date]; !ok {
			return
		}

		token := strings.TrimSpace(cols.Eq(1).Text())
		if token != category.RowToken() {
			return
		}

		anchor := cols.Eq(2).Find("a").First()
		if anchor.Length() == 0 {
			return
		}
		href, ok := anchor.Attr("href")
		if !ok || href == "" {
			return
		}

		title := strings.TrimSpace(anchor.Text())
		id := title
		if match := reportIdxExpr.FindStringSubmatch(href); match != nil {
			id = match[1]
		}

		collected = append(collected, domain.Report{
			ID:       id,
			Title:    title,
			Provider: probeProvider(cols, c.providerIdx),
			Date:     date,
			Link:     c.absoluteLink(href),
			Category: category,
		})
	})

	return collected
}

func (c *ConsensusScanner) buildPageURL(category domain.Category, page int) (string, error) {
	parsed, err := url.Parse(c.site.BaseURL + c.site.ListingPath)
	if err != nil {
		return "", fmt.Errorf("invalid listing url: %w", err)
	}

	query := parsed.Query()
	query.Set(c.site.CategoryParam, category.QueryParam())
	query.Set(c.site.PageParam, strconv.Itoa(page))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *ConsensusScanner) absoluteLink(href string) string {
	base, err := url.Parse(c.site.BaseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// acceptedDates renders the target day in every configured layout; the site
// has been observed to switch layouts between views.
func acceptedDates(req scanner.Request, layouts []string) map[string]struct{} {
	accepted := make(map[string]struct{}, len(layouts))
	for _, layout := range layouts {
		accepted[req.Day.Format(layout)] = struct{}{}
	}
	return accepted
}

func (c *ConsensusScanner) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
