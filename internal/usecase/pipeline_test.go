package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReportScanner/internal/domain"
)

var runTime = time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)

type fakeSource struct {
	reports []domain.Report
	calls   int
}

func (f *fakeSource) FetchDaily(ctx context.Context, day time.Time) ([]domain.Report, error) {
	f.calls++
	return f.reports, nil
}

type memLedger struct {
	appended []string
	set      domain.SeenSet
}

func newMemLedger(ids ...string) *memLedger {
	set := domain.NewSeenSet()
	for _, id := range ids {
		set.Add(id)
	}
	return &memLedger{set: set}
}

func (m *memLedger) Load(ctx context.Context) (domain.SeenSet, error) {
	loaded := domain.NewSeenSet()
	for id := range m.set {
		loaded.Add(id)
	}
	return loaded, nil
}

func (m *memLedger) Append(ctx context.Context, id string) error {
	m.appended = append(m.appended, id)
	m.set.Add(id)
	return nil
}

type fakeExtractor struct {
	content domain.ExtractedContent
	calls   int
}

func (f *fakeExtractor) Extract(ctx context.Context, report domain.Report) domain.ExtractedContent {
	f.calls++
	return f.content
}

type fakeSummarizer struct {
	summary string
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, report domain.Report, content domain.ExtractedContent) string {
	f.calls++
	return f.summary
}

type sentMessage struct {
	reportID string
	summary  string
}

type fakeNotifier struct {
	sends   []sentMessage
	updates []sentMessage
	sendErr error
	nextID  domain.MessageID
}

func (f *fakeNotifier) Send(ctx context.Context, report domain.Report, summary string) (domain.MessageID, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sends = append(f.sends, sentMessage{reportID: report.ID, summary: summary})
	f.nextID++
	return f.nextID, nil
}

func (f *fakeNotifier) Update(ctx context.Context, id domain.MessageID, report domain.Report, summary string) error {
	f.updates = append(f.updates, sentMessage{reportID: report.ID, summary: summary})
	return nil
}

func testReports(ids ...string) []domain.Report {
	reports := make([]domain.Report, 0, len(ids))
	for _, id := range ids {
		reports = append(reports, domain.Report{
			ID:       id,
			Title:    "Report " + id,
			Provider: "ABC Securities",
			Category: domain.CategoryIndustry,
		})
	}
	return reports
}

type pipelineFixture struct {
	source     *fakeSource
	ledger     *memLedger
	extractor  *fakeExtractor
	summarizer *fakeSummarizer
	notifier   *fakeNotifier
	pipeline   *Pipeline
}

func newFixture(twoPhase bool, ledger *memLedger, reports ...domain.Report) *pipelineFixture {
	f := &pipelineFixture{
		source:     &fakeSource{reports: reports},
		ledger:     ledger,
		extractor:  &fakeExtractor{content: domain.TextContent("plenty of extracted report text")},
		summarizer: &fakeSummarizer{summary: "Demand stays strong."},
		notifier:   &fakeNotifier{},
	}

	f.pipeline = NewPipeline(PipelineDeps{
		Source:     f.source,
		Ledger:     f.ledger,
		Extractor:  f.extractor,
		Summarizer: f.summarizer,
		Notifier:   f.notifier,
		CutoffHour: 17,
		Location:   time.UTC,
		TwoPhase:   twoPhase,
	})
	return f
}

func TestRunNotifiesAndCommitsNewReport(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger(), testReports("12345")...)
	require.NoError(t, f.pipeline.ProcessDay(context.Background(), runTime))

	require.Len(t, f.notifier.sends, 1)
	assert.Equal(t, "12345", f.notifier.sends[0].reportID)
	assert.Equal(t, "Demand stays strong.", f.notifier.sends[0].summary)
	assert.Equal(t, []string{"12345"}, f.ledger.appended)
}

func TestSecondRunIsIdempotent(t *testing.T) {
	t.Parallel()

	ledger := newMemLedger()
	first := newFixture(false, ledger, testReports("12345", "67890")...)
	require.NoError(t, first.pipeline.ProcessDay(context.Background(), runTime))
	require.Len(t, first.notifier.sends, 2)

	second := newFixture(false, ledger, testReports("12345", "67890")...)
	require.NoError(t, second.pipeline.ProcessDay(context.Background(), runTime))
	assert.Empty(t, second.notifier.sends)
	assert.Len(t, ledger.appended, 2)
}

func TestCutoffGuardSkipsAllWork(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger(), testReports("12345")...)
	late := time.Date(2026, time.September, 1, 17, 0, 0, 0, time.UTC)
	require.NoError(t, f.pipeline.ProcessDay(context.Background(), late))

	assert.Zero(t, f.source.calls)
	assert.Empty(t, f.notifier.sends)
	assert.Empty(t, f.ledger.appended)
}

func TestSeenReportsAreSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger("12345"), testReports("12345", "67890")...)
	require.NoError(t, f.pipeline.ProcessDay(context.Background(), runTime))

	require.Len(t, f.notifier.sends, 1)
	assert.Equal(t, "67890", f.notifier.sends[0].reportID)
	assert.Equal(t, []string{"67890"}, f.ledger.appended)
}

func TestTwoPhaseDeliveryEditsPlaceholder(t *testing.T) {
	t.Parallel()

	f := newFixture(true, newMemLedger(), testReports("12345")...)
	require.NoError(t, f.pipeline.ProcessDay(context.Background(), runTime))

	require.Len(t, f.notifier.sends, 1)
	assert.Equal(t, summaryPlaceholder, f.notifier.sends[0].summary)

	require.Len(t, f.notifier.updates, 1)
	assert.Equal(t, "12345", f.notifier.updates[0].reportID)
	assert.Equal(t, "Demand stays strong.", f.notifier.updates[0].summary)

	assert.Equal(t, []string{"12345"}, f.ledger.appended)
}

func TestDeliveryFailureStillCommitsLedger(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger(), testReports("12345")...)
	f.notifier.sendErr = fmt.Errorf("channel unreachable")

	require.NoError(t, f.pipeline.ProcessDay(context.Background(), runTime))
	assert.Equal(t, []string{"12345"}, f.ledger.appended)
}

func TestUnavailableContentStillNotifies(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger(), testReports("12345")...)
	f.extractor.content = domain.UnavailableContent()
	f.summarizer.summary = "⚠️ Summary unavailable: the report document could not be read."

	require.NoError(t, f.pipeline.ProcessDay(context.Background(), runTime))

	require.Len(t, f.notifier.sends, 1)
	assert.Equal(t, f.summarizer.summary, f.notifier.sends[0].summary)
	assert.Equal(t, []string{"12345"}, f.ledger.appended)
}

func TestRecordsProcessedInListingOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger(), testReports("1", "2", "3")...)
	require.NoError(t, f.pipeline.ProcessDay(context.Background(), runTime))

	require.Len(t, f.notifier.sends, 3)
	assert.Equal(t, "1", f.notifier.sends[0].reportID)
	assert.Equal(t, "2", f.notifier.sends[1].reportID)
	assert.Equal(t, "3", f.notifier.sends[2].reportID)
	assert.Equal(t, []string{"1", "2", "3"}, f.ledger.appended)
}

func TestNotifyDelayHonorsCancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(false, newMemLedger(), testReports("1", "2")...)
	f.pipeline.notifyDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := f.pipeline.ProcessDay(ctx, runTime)
	require.ErrorIs(t, err, context.Canceled)

	// The first record completed before the pause; the second never ran.
	require.Len(t, f.notifier.sends, 1)
	assert.Equal(t, []string{"1"}, f.ledger.appended)
}
