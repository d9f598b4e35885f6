package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"time"

	"github.com/aluiziolira/go-scrape-orders/config"
	"github.com/aluiziolira/go-scrape-orders/models"
	"github.com/aluiziolira/go-scrape-orders/parser"
	"github.com/aluiziolira/go-scrape-orders/pipeline"
)

// Scraper visits order detail pages one at a time and folds the extracted
// records into a run.
type Scraper struct {
	cfg       *config.Config
	source    PageSource
	extractor *parser.Extractor
	links     *LinkSet
	Metrics   *Metrics

	// sleep waits between page fetches. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	requestCount int
	pageCount    int
	errorCount   int
	failedURLs   []string
	errorsByType map[string]int
}

// NewScraper builds a scraper reading pages from source.
func NewScraper(cfg *config.Config, source PageSource) (*Scraper, error) {
	if source == nil {
		return nil, fmt.Errorf("page source cannot be nil")
	}
	links, err := NewLinkSet(cfg.DedupeMaxSize)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		cfg:          cfg,
		source:       source,
		extractor:    parser.NewExtractor(cfg.Location),
		links:        links,
		Metrics:      NewMetrics(),
		sleep:        sleepContext,
		errorsByType: make(map[string]int),
	}, nil
}

// Run extracts every order in urls. A failing order is logged, counted and
// skipped. Cancelling ctx stops the run after the current order; the records
// gathered so far are still returned.
func (s *Scraper) Run(ctx context.Context, urls []string) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	var acc pipeline.Accumulator

	for i, pageURL := range urls {
		if i > 0 {
			if err := s.sleep(ctx, s.delay()); err != nil {
				slog.Info("run interrupted", slog.Int("remaining", len(urls)-i))
				break
			}
		}
		if ctx.Err() != nil {
			slog.Info("run interrupted", slog.Int("remaining", len(urls)-i))
			break
		}

		// An interrupt stops the run between orders, never inside one.
		rec, err := s.scrapeOrder(context.WithoutCancel(ctx), i, pageURL)
		if err != nil {
			s.recordFailure(pageURL, err)
			continue
		}
		acc = acc.Add(rec)
		s.Metrics.IncExtracted()

		slog.Info("order extracted",
			slog.Int("index", i+1),
			slog.Int("total", len(urls)),
			slog.String("order_id", rec.OrderID),
			slog.String("date_sold", rec.DateSold),
		)
	}

	return &models.ScraperResult{
		Records:      acc.Records(),
		SaleDates:    acc.Dates(s.cfg.Location),
		Summary:      acc.Summary(s.cfg.Location),
		StartTime:    start,
		EndTime:      time.Now(),
		OrderCount:   acc.Len(),
		ErrorCount:   s.errorCount,
		FailedURLs:   append([]string(nil), s.failedURLs...),
		ErrorsByType: s.snapshotErrors(),
		RequestCount: s.requestCount,
		PageCount:    s.pageCount,
	}, nil
}

func (s *Scraper) scrapeOrder(ctx context.Context, index int, pageURL string) (rec models.OrderRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting order: %v", r)
		}
	}()

	doc, err := s.fetch(ctx, "order", pageURL)
	if err != nil {
		return models.OrderRecord{}, err
	}
	rec = s.extractor.Extract(doc, pageURL)

	for _, field := range parser.DefaultedFields(rec) {
		s.Metrics.IncFieldDefault(field)
		slog.Debug("field defaulted",
			slog.String("field", field),
			slog.String("url", pageURL),
		)
	}

	if s.cfg.Screenshots {
		if shooter, ok := s.source.(Screenshotter); ok {
			path := ScreenshotPath(s.cfg.ScreenshotDir, rec.OrderID, index)
			if err := shooter.Screenshot(ctx, path); err != nil {
				slog.Warn("screenshot failed", slog.String("path", path), slog.Any("error", err))
			}
		}
	}
	return rec, nil
}

func (s *Scraper) fetch(ctx context.Context, phase, pageURL string) (*parser.Document, error) {
	s.requestCount++
	s.Metrics.IncRequest(phase)
	started := time.Now()
	doc, err := s.source.Fetch(ctx, pageURL)
	s.Metrics.ObserveDuration(time.Since(started))
	return doc, err
}

func (s *Scraper) recordFailure(pageURL string, err error) {
	category := errorTypeLabel(err)
	s.errorCount++
	s.errorsByType[category]++
	s.failedURLs = append(s.failedURLs, pageURL)
	s.Metrics.IncError(category)
	s.Metrics.IncFailed()

	slog.Error("order failed",
		slog.String("url", pageURL),
		slog.String("category", category),
		slog.Any("error", err),
	)
}

func (s *Scraper) snapshotErrors() map[string]int {
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

// delay returns a pause drawn uniformly from [MinDelay, MaxDelay].
func (s *Scraper) delay() time.Duration {
	span := s.cfg.MaxDelay - s.cfg.MinDelay
	if span <= 0 {
		return s.cfg.MinDelay
	}
	return s.cfg.MinDelay + time.Duration(rand.Int64N(int64(span)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ScreenshotPath names the capture of an order page. Orders without an id are
// named by their position in the run.
func ScreenshotPath(dir, orderID string, index int) string {
	name := unsafeFileChars.ReplaceAllString(orderID, "")
	if orderID == models.NotAvailable || name == "" {
		name = fmt.Sprintf("%d", index+1)
	}
	return filepath.Join(dir, "order_"+name+".png")
}
