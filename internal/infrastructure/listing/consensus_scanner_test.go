package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReportScanner/internal/config"
	"ReportScanner/internal/domain"
	"ReportScanner/internal/scanner"
)

var testDay = time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)

func testSite(baseURL string) config.SiteConfig {
	return config.SiteConfig{
		BaseURL:       baseURL,
		ListingPath:   "/analysis/list",
		Scanner:       "consensus",
		UserAgent:     "Mozilla/5.0 (test)",
		Categories:    []string{"industry", "market"},
		Pages:         1,
		DateLayouts:   []string{"2006.01.02", "2006-01-02", "06-01-02"},
		CategoryParam: "category",
		PageParam:     "page",
	}
}

func row(cols ...string) string {
	out := "<tr>"
	for _, c := range cols {
		out += "<td>" + c + "</td>"
	}
	return out + "</tr>"
}

func listingPage(rows ...string) string {
	body := `<div class="table_style01"><table><tbody>`
	for _, r := range rows {
		body += r
	}
	return body + "</tbody></table></div>"
}

func TestScanFiltersAndExtractsRows(t *testing.T) {
	t.Parallel()

	page := listingPage(
		// Today, industry, numeric report index, provider in last column.
		row("2026.09.01", "산업", `<a href="/analysis/view?report_idx=12345">Sector Outlook</a>`, "12", "1,024", "ABC Securities"),
		// Provider column holds a date, the next one a number; probing
		// falls back to the third candidate.
		row("2026.09.01", "산업", `<a href="/analysis/view?report_idx=222">Chip Cycle</a>`, "DEF Securities", "1,234", "2026-09-01"),
		// Yesterday's report is ignored.
		row("2026.08.31", "산업", `<a href="/analysis/view?report_idx=333">Stale</a>`, "12", "55", "GHI Securities"),
		// Wrong category token.
		row("2026.09.01", "시장", `<a href="/analysis/view?report_idx=444">Macro Note</a>`, "12", "55", "JKL Securities"),
		// Too few columns.
		row("2026.09.01", "산업", "broken"),
		// Missing title anchor.
		row("2026.09.01", "산업", "no link here", "12", "55", "MNO Securities"),
		// No numeric index in the link: id falls back to the title.
		row("2026.09.01", "산업", `<a href="/analysis/view?file=x.pdf">Untagged Report</a>`, "", "", "PQR Securities"),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "industry", r.URL.Query().Get("category"))
		assert.Equal(t, "Mozilla/5.0 (test)", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	sc := NewConsensusScanner(testSite(server.URL), slog.Default())
	reports, err := sc.Scan(context.Background(), scanner.Request{
		Day:      testDay,
		Category: domain.CategoryIndustry,
		Pages:    1,
	})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	first := reports[0]
	assert.Equal(t, "12345", first.ID)
	assert.Equal(t, "Sector Outlook", first.Title)
	assert.Equal(t, "ABC Securities", first.Provider)
	assert.Equal(t, "2026.09.01", first.Date)
	assert.Equal(t, server.URL+"/analysis/view?report_idx=12345", first.Link)
	assert.Equal(t, domain.CategoryIndustry, first.Category)

	assert.Equal(t, "222", reports[1].ID)
	assert.Equal(t, "DEF Securities", reports[1].Provider)

	// Title fallback when the link carries no report index.
	assert.Equal(t, "Untagged Report", reports[2].ID)
	assert.Equal(t, "PQR Securities", reports[2].Provider)
}

func TestScanAcceptsAlternateDateLayouts(t *testing.T) {
	t.Parallel()

	page := listingPage(
		row("2026-09-01", "산업", `<a href="/analysis/view?report_idx=1">Dash Layout</a>`, "", "", "A"),
		row("26-09-01", "산업", `<a href="/analysis/view?report_idx=2">Short Layout</a>`, "", "", "B"),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	sc := NewConsensusScanner(testSite(server.URL), slog.Default())
	reports, err := sc.Scan(context.Background(), scanner.Request{
		Day:      testDay,
		Category: domain.CategoryIndustry,
		Pages:    1,
	})
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestScanContinuesPastFailedPage(t *testing.T) {
	t.Parallel()

	page := listingPage(
		row("2026.09.01", "산업", `<a href="/analysis/view?report_idx=777">Survivor</a>`, "", "", "XYZ Securities"),
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	sc := NewConsensusScanner(testSite(server.URL), slog.Default())
	reports, err := sc.Scan(context.Background(), scanner.Request{
		Day:      testDay,
		Category: domain.CategoryIndustry,
		Pages:    2,
	})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "777", reports[0].ID)
}

func TestAbsoluteLink(t *testing.T) {
	t.Parallel()

	sc := NewConsensusScanner(testSite("https://consensus.example.com"), nil)

	tests := []struct {
		name string
		href string
		want string
	}{
		{
			name: "site-relative path",
			href: "/analysis/view?report_idx=12345",
			want: "https://consensus.example.com/analysis/view?report_idx=12345",
		},
		{
			name: "relative path without leading slash",
			href: "analysis/view?report_idx=12345",
			want: "https://consensus.example.com/analysis/view?report_idx=12345",
		},
		{
			name: "already absolute",
			href: "https://files.example.com/report.pdf",
			want: "https://files.example.com/report.pdf",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, sc.absoluteLink(tc.href))
		})
	}
}

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	sc := NewConsensusScanner(testSite("https://consensus.example.com"), nil)
	u, err := sc.buildPageURL(domain.CategoryMarket, 3)
	require.NoError(t, err)
	assert.Equal(t, "https://consensus.example.com/analysis/list?category=market&page=3", u)
}

func TestSourceAggregatesCategoriesInOrder(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{
		byCategory: map[domain.Category][]domain.Report{
			domain.CategoryIndustry: {{ID: "1", Category: domain.CategoryIndustry}},
			domain.CategoryMarket:   {{ID: "2", Category: domain.CategoryMarket}},
		},
	}

	reg := scanner.NewRegistry()
	reg.Register(stub)

	src := NewSource(reg, testSite("https://consensus.example.com"), slog.Default())
	reports, err := src.FetchDaily(context.Background(), testDay)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "1", reports[0].ID)
	assert.Equal(t, "2", reports[1].ID)
}

func TestSourceSkipsFailingCategory(t *testing.T) {
	t.Parallel()

	stub := &stubScanner{
		byCategory: map[domain.Category][]domain.Report{
			domain.CategoryMarket: {{ID: "2", Category: domain.CategoryMarket}},
		},
		failFor: map[domain.Category]bool{domain.CategoryIndustry: true},
	}

	reg := scanner.NewRegistry()
	reg.Register(stub)

	src := NewSource(reg, testSite("https://consensus.example.com"), slog.Default())
	reports, err := src.FetchDaily(context.Background(), testDay)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2", reports[0].ID)
}

type stubScanner struct {
	byCategory map[domain.Category][]domain.Report
	failFor    map[domain.Category]bool
}

func (s *stubScanner) Name() string { return "consensus" }

func (s *stubScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Report, error) {
	if s.failFor[req.Category] {
		return nil, fmt.Errorf("category down")
	}
	return s.byCategory[req.Category], nil
}
