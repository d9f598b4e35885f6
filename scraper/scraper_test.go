package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-orders/config"
	"github.com/aluiziolira/go-scrape-orders/parser"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listURL = "http://example.test/sh/ord/all"

type fakeSource struct {
	pages   map[string]string
	errs    map[string]error
	panics  map[string]bool
	fetched []string
	shots   []string
	onFetch func(ctx context.Context, pageURL string)
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		pages:  make(map[string]string),
		errs:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (f *fakeSource) Fetch(ctx context.Context, pageURL string) (*parser.Document, error) {
	f.fetched = append(f.fetched, pageURL)
	if f.onFetch != nil {
		f.onFetch(ctx, pageURL)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.panics[pageURL] {
		panic("unexpected page layout")
	}
	if err, ok := f.errs[pageURL]; ok {
		return nil, err
	}
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, ErrNotFound{Err: fmt.Errorf("no fixture for %s", pageURL)}
	}
	return parser.NewDocumentFromString(body)
}

func (f *fakeSource) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.shots = append(f.shots, path)
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.OrdersURL = listURL
	cfg.Source = "http"
	cfg.SessionCookie = "s=abc"
	cfg.MinDelay = 0
	cfg.MaxDelay = 0
	cfg.Location = time.UTC
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config, src PageSource) *Scraper {
	t.Helper()
	s, err := NewScraper(cfg, src)
	require.NoError(t, err)
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func orderURL(id string) string {
	return "http://example.test/mesh/ord/details?orderid=" + id
}

func orderPage(id, date, subtotal string) string {
	return fmt.Sprintf(`<html><body>
<div><span>Order number</span> <span>%s</span></div>
<div><span>Paid on</span> <span>%s</span></div>
<a href="/itm/1">Widget %s</a>
<div><span>Item subtotal</span><span>%s</span></div>
<div><span>Order total</span><span>%s</span></div>
</body></html>`, id, date, id, subtotal, subtotal)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "unauthorized", err: nil, statusCode: http.StatusUnauthorized, expected: "forbidden"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "login", err: fmt.Errorf("%w: element not visible", ErrLoginFailed), statusCode: 0, expected: "login"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, errorTypeLabel(classifyError(tt.err, tt.statusCode)))
		})
	}
}

func TestRunExtractsOrdersInOrder(t *testing.T) {
	src := newFakeSource()
	urls := []string{orderURL("11-11111-11111"), orderURL("22-22222-22222"), orderURL("33-33333-33333")}
	src.pages[urls[0]] = orderPage("11-11111-11111", "Nov 2, 2025", "$5.00")
	src.pages[urls[1]] = orderPage("22-22222-22222", "Dec 13, 2025", "$7.50")
	src.pages[urls[2]] = orderPage("33-33333-33333", "Oct 12, 2025", "$9.99")

	s := newTestScraper(t, testConfig(), src)
	result, err := s.Run(context.Background(), urls)
	require.NoError(t, err)

	assert.Equal(t, 3, result.OrderCount)
	require.Len(t, result.Records, 3)
	for i, want := range []string{"11-11111-11111", "22-22222-22222", "33-33333-33333"} {
		assert.Equal(t, want, result.Records[i].OrderID)
		assert.Nil(t, result.Records[i].SortTimestamp, "record %d kept its sort key", i)
	}
	assert.Equal(t, "$7.50", result.Records[1].SoldPriceSubtotal)

	assert.Len(t, result.SaleDates, 3)
	assert.True(t, result.Summary.Start.Equal(time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)), "start = %v", result.Summary.Start)
	assert.True(t, result.Summary.End.Equal(time.Date(2025, 12, 13, 0, 0, 0, 0, time.UTC)), "end = %v", result.Summary.End)
	assert.Equal(t, 3, result.RequestCount)
}

func TestRunIsolatesFailures(t *testing.T) {
	src := newFakeSource()
	good1 := orderURL("11-11111-11111")
	broken := orderURL("22-22222-22222")
	panicky := orderURL("33-33333-33333")
	good2 := orderURL("44-44444-44444")
	src.pages[good1] = orderPage("11-11111-11111", "Oct 12, 2025", "$5.00")
	src.errs[broken] = ErrRateLimited{Err: errors.New("http status 429")}
	src.panics[panicky] = true
	src.pages[good2] = orderPage("44-44444-44444", "Oct 13, 2025", "$6.00")

	s := newTestScraper(t, testConfig(), src)
	result, err := s.Run(context.Background(), []string{good1, broken, panicky, good2})
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "44-44444-44444", result.Records[1].OrderID)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, []string{broken, panicky}, result.FailedURLs)
	assert.Equal(t, 1, result.ErrorsByType["rate_limited"])
	assert.Equal(t, 1, result.ErrorsByType["other"])
}

func TestRunPacesRequests(t *testing.T) {
	src := newFakeSource()
	urls := []string{orderURL("11-11111-11111"), orderURL("22-22222-22222"), orderURL("33-33333-33333")}
	for _, u := range urls {
		src.pages[u] = orderPage("11-11111-11111", "Oct 12, 2025", "$1.00")
	}

	cfg := testConfig()
	cfg.MinDelay = 2 * time.Second
	cfg.MaxDelay = 5 * time.Second

	s := newTestScraper(t, cfg, src)
	var waits []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := s.Run(context.Background(), urls)
	require.NoError(t, err)
	require.Len(t, waits, len(urls)-1)
	for _, d := range waits {
		assert.GreaterOrEqual(t, d, cfg.MinDelay)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
	}
}

func TestRunStopsWhenInterrupted(t *testing.T) {
	src := newFakeSource()
	urls := []string{orderURL("11-11111-11111"), orderURL("22-22222-22222")}
	src.pages[urls[0]] = orderPage("11-11111-11111", "Oct 12, 2025", "$1.00")
	src.pages[urls[1]] = orderPage("22-22222-22222", "Oct 12, 2025", "$1.00")

	s := newTestScraper(t, testConfig(), src)
	s.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	result, err := s.Run(context.Background(), urls)
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Len(t, src.fetched, 1)
}

// A signal arriving while an order is loading must not abort that order.
func TestRunFinishesOrderInFlight(t *testing.T) {
	src := newFakeSource()
	urls := []string{orderURL("11-11111-11111"), orderURL("22-22222-22222")}
	src.pages[urls[0]] = orderPage("11-11111-11111", "Oct 12, 2025", "$1.00")
	src.pages[urls[1]] = orderPage("22-22222-22222", "Oct 13, 2025", "$2.00")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src.onFetch = func(context.Context, string) { cancel() }

	cfg := testConfig()
	cfg.Screenshots = true
	cfg.ScreenshotDir = "shots"
	s := newTestScraper(t, cfg, src)

	result, err := s.Run(ctx, urls)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "11-11111-11111", result.Records[0].OrderID)
	assert.Len(t, src.shots, 1, "screenshot of the in-flight order was aborted")
	assert.Equal(t, []string{urls[0]}, src.fetched, "no order is started after the signal")
	assert.Zero(t, result.ErrorCount)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
}

func TestRunScreenshots(t *testing.T) {
	src := newFakeSource()
	withID := orderURL("11-11111-11111")
	withoutID := "http://example.test/mesh/ord/details?ref=2"
	src.pages[withID] = orderPage("11-11111-11111", "Oct 12, 2025", "$1.00")
	src.pages[withoutID] = `<html><body><div><span>Item subtotal</span><span>$1.00</span></div></body></html>`

	cfg := testConfig()
	cfg.Screenshots = true
	cfg.ScreenshotDir = "shots"

	s := newTestScraper(t, cfg, src)
	_, err := s.Run(context.Background(), []string{withID, withoutID})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("shots", "order_11-11111-11111.png"),
		filepath.Join("shots", "order_2.png"),
	}, src.shots)
}

func TestScreenshotPath(t *testing.T) {
	tests := []struct {
		orderID string
		index   int
		want    string
	}{
		{orderID: "12-34567-89012", index: 0, want: filepath.Join("out", "order_12-34567-89012.png")},
		{orderID: "N/A", index: 4, want: filepath.Join("out", "order_5.png")},
		{orderID: "../../etc", index: 1, want: filepath.Join("out", "order_etc.png")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScreenshotPath("out", tt.orderID, tt.index))
	}
}

func TestHTTPSourceFetchSendsSessionCookie(t *testing.T) {
	cfg := testConfig()
	pageURL := orderURL("12-34567-89012")

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", pageURL, func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Cookie"); got != cfg.SessionCookie {
			return httpmock.NewStringResponse(http.StatusForbidden, ""), nil
		}
		resp := httpmock.NewStringResponse(200, orderPage("12-34567-89012", "Oct 12, 2025", "$3.00"))
		resp.Header.Set("Content-Type", "text/html")
		return resp, nil
	})

	src, err := NewHTTPSource(cfg)
	require.NoError(t, err)
	src.collector.WithTransport(transport)

	doc, err := src.Fetch(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "12-34567-89012")

	// the same page can be fetched again
	_, err = src.Fetch(context.Background(), pageURL)
	assert.NoError(t, err)
}

func TestHTTPSourceStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{status: http.StatusTooManyRequests, expected: "rate_limited"},
		{status: http.StatusForbidden, expected: "forbidden"},
		{status: http.StatusNotFound, expected: "not_found"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			pageURL := orderURL("12-34567-89012")
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", pageURL, httpmock.NewStringResponder(tt.status, ""))

			src, err := NewHTTPSource(testConfig())
			require.NoError(t, err)
			src.collector.WithTransport(transport)

			s := newTestScraper(t, testConfig(), src)
			result, err := s.Run(context.Background(), []string{pageURL})
			require.NoError(t, err)
			assert.Equal(t, 1, result.ErrorsByType[tt.expected], "errors by type: %v", result.ErrorsByType)
		})
	}
}

func TestHTTPSourceRequiresCookie(t *testing.T) {
	cfg := testConfig()
	cfg.SessionCookie = ""
	_, err := NewHTTPSource(cfg)
	assert.Error(t, err)
}

func TestNewScraperRequiresSource(t *testing.T) {
	_, err := NewScraper(testConfig(), nil)
	assert.Error(t, err)
}
