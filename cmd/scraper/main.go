package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-orders/config"
	"github.com/aluiziolira/go-scrape-orders/models"
	"github.com/aluiziolira/go-scrape-orders/pipeline"
	"github.com/aluiziolira/go-scrape-orders/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if _, err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	defaults, err := envDefaults(config.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	flag.StringVar(&cfg.OrdersURL, "orders-url", defaults.OrdersURL, "Order list URL to start from")
	flag.StringVar(&cfg.LoginURL, "login-url", defaults.LoginURL, "Sign-in page URL")
	flag.StringVar(&cfg.Source, "source", defaults.Source, "Page source: browser or http")
	flag.BoolVar(&cfg.Headless, "headless", defaults.Headless, "Run the browser without a window")
	flag.IntVar(&cfg.MaxListPages, "pages", defaults.MaxListPages, "Maximum order list pages to walk")
	flag.IntVar(&cfg.MaxOrders, "max-orders", defaults.MaxOrders, "Stop after this many orders (0 = no limit)")
	flag.DurationVar(&cfg.MinDelay, "min-delay", defaults.MinDelay, "Minimum pause between page loads")
	flag.DurationVar(&cfg.MaxDelay, "max-delay", defaults.MaxDelay, "Maximum pause between page loads")
	flag.DurationVar(&cfg.Timeout, "timeout", defaults.Timeout, "Per-page load timeout")
	flag.StringVar(&cfg.OutputDir, "output-dir", defaults.OutputDir, "Directory for the output file")
	flag.StringVar(&cfg.OutputFormat, "format", defaults.OutputFormat, "Output format: xlsx, csv, json, or dual")
	flag.StringVar(&cfg.SheetName, "sheet", defaults.SheetName, "Worksheet name for xlsx output")
	flag.BoolVar(&cfg.Screenshots, "screenshots", defaults.Screenshots, "Save a full-page screenshot of every order (browser source)")
	flag.StringVar(&cfg.ScreenshotDir, "screenshot-dir", defaults.ScreenshotDir, "Directory for order screenshots")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flag.BoolVar(&cfg.Verbose, "v", false, "Enable verbose logging")

	flag.Parse()

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	cfg.ApplyCredentials()

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("scrape failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing the current order")
	}()

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	s, err := scraper.NewScraper(cfg, source)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	if cfg.MetricsAddr != "" {
		metricsServer := &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("starting scrape",
		slog.String("orders_url", cfg.OrdersURL),
		slog.String("source", cfg.Source),
		slog.Int("pages", cfg.MaxListPages),
	)

	links, err := s.Harvest(ctx)
	if err != nil {
		return fmt.Errorf("harvesting order links: %w", err)
	}
	slog.Info("order links harvested", slog.Int("orders", len(links)))

	result, err := s.Run(ctx, links)
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("all %d orders failed: %w", len(links), pipeline.ErrNoRecords)
	}

	name := pipeline.ArtifactName(result.SaleDates, time.Now())
	writer, path, err := pipeline.NewWriter(cfg.OutputFormat, cfg.OutputDir, name, cfg.SheetName)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	if err := pipeline.Flush(writer, result.Records); err != nil {
		return err
	}

	printSummary(result, path)
	return nil
}

// openSource builds the configured page source and signs it in.
func openSource(ctx context.Context, cfg *config.Config) (scraper.PageSource, func(), error) {
	if cfg.Source == "http" {
		src, err := scraper.NewHTTPSource(cfg)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	}

	// The browser must outlive the signal context so an interrupted run can
	// finish the order in flight. Close stops it.
	browser, err := scraper.NewBrowserSource(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.SessionCookie != "" {
		err = browser.UseSessionCookie(ctx, cfg.SessionCookie, cookieDomain(cfg.OrdersURL))
	} else {
		err = browser.Login(ctx, cfg.Email, cfg.Password)
	}
	if err != nil {
		browser.Close()
		return nil, nil, err
	}
	return browser, browser.Close, nil
}

// cookieDomain returns the parent domain of rawURL for cookie scoping,
// "www.ebay.com" becoming ".ebay.com".
func cookieDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return "." + strings.Join(parts, ".")
}

// envDefaults overlays SCRAPER_* variables on the built-in defaults. Flags
// override both.
func envDefaults(cfg *config.Config) (*config.Config, error) {
	if value, ok := config.EnvString("SCRAPER_ORDERS_URL"); ok {
		cfg.OrdersURL = value
	}
	if value, ok := config.EnvString("SCRAPER_SOURCE"); ok {
		cfg.Source = value
	}
	if value, ok := config.EnvString("SCRAPER_OUTPUT_DIR"); ok {
		cfg.OutputDir = value
	}
	if value, ok := config.EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = value
	}
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_PAGES"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_PAGES: %w", err)
	} else if ok {
		cfg.MaxListPages = value
	}
	if value, ok, err := config.EnvInt("SCRAPER_MAX_ORDERS"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_MAX_ORDERS: %w", err)
	} else if ok {
		cfg.MaxOrders = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_HEADLESS"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_HEADLESS: %w", err)
	} else if ok {
		cfg.Headless = value
	}
	if value, ok, err := config.EnvBool("SCRAPER_SCREENSHOTS"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_SCREENSHOTS: %w", err)
	} else if ok {
		cfg.Screenshots = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_MIN_DELAY"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_MIN_DELAY: %w", err)
	} else if ok {
		cfg.MinDelay = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_MAX_DELAY"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_MAX_DELAY: %w", err)
	} else if ok {
		cfg.MaxDelay = value
	}
	if value, ok, err := config.EnvDuration("SCRAPER_TIMEOUT"); err != nil {
		return nil, fmt.Errorf("invalid SCRAPER_TIMEOUT: %w", err)
	} else if ok {
		cfg.Timeout = value
	}
	return cfg, nil
}

func printSummary(result *models.ScraperResult, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	fmt.Printf("  Orders:        %d\n", result.OrderCount)
	fmt.Printf("  Failed:        %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	for _, u := range result.FailedURLs {
		fmt.Printf("    %s\n", u)
	}
	if result.Summary.Count > 0 {
		fmt.Printf("  Date range:    %s to %s (%d dated)\n",
			result.Summary.Start.Format("01/02/2006"),
			result.Summary.End.Format("01/02/2006"),
			result.Summary.Count,
		)
	} else {
		fmt.Println("  Date range:    no sale dates resolved")
	}
	fmt.Printf("  List pages:    %d\n", result.PageCount)
	fmt.Printf("  Requests:      %d\n", result.RequestCount)
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Second))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
