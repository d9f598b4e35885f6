package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-scrape-orders/config"
	"github.com/aluiziolira/go-scrape-orders/parser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Sign-in page selectors and the header element present once signed in.
const (
	selectorUserID       = "#userid"
	selectorContinue     = "#signin-continue-btn"
	selectorPassword     = "#pass"
	selectorSignIn       = "#sgnBt"
	selectorSignedInMark = "#gh-ug"
)

// DefaultLoginTimeout bounds the whole sign-in flow.
const DefaultLoginTimeout = 2 * time.Minute

// Full quality makes the capture a PNG.
const screenshotQuality = 100

// BrowserSource drives a Chrome instance so pages render their scripts
// before the HTML is read.
type BrowserSource struct {
	ctx          context.Context
	cancel       context.CancelFunc
	allocCancel  context.CancelFunc
	loginURL     string
	timeout      time.Duration
	loginTimeout time.Duration
}

// NewBrowserSource starts a browser configured from cfg. The browser lives as
// long as parent; cancelling the context passed to a single call only aborts
// that call. Close releases it.
func NewBrowserSource(parent context.Context, cfg *config.Config) (*BrowserSource, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(1366, 900),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &BrowserSource{
		ctx:          browserCtx,
		cancel:       cancel,
		allocCancel:  allocCancel,
		loginURL:     cfg.LoginURL,
		timeout:      cfg.Timeout,
		loginTimeout: DefaultLoginTimeout,
	}, nil
}

// run executes actions in the browser tab, bounded by timeout and by ctx.
func (b *BrowserSource) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Fetch navigates to pageURL and returns the rendered document.
func (b *BrowserSource) Fetch(ctx context.Context, pageURL string) (*parser.Document, error) {
	var rendered string
	err := b.run(ctx, b.timeout,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		return nil, classifyError(fmt.Errorf("render %s: %w", pageURL, err), 0)
	}
	return parser.NewDocumentFromString(rendered)
}

// Screenshot captures the whole current page as an image at path.
func (b *BrowserSource) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := b.run(ctx, b.timeout, chromedp.FullScreenshot(&buf, screenshotQuality)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// Login walks the two-step sign-in form and waits for the signed-in header.
// In a headful browser the wait leaves room to solve a challenge by hand.
func (b *BrowserSource) Login(ctx context.Context, email, password string) error {
	slog.Info("signing in", slog.String("url", b.loginURL))
	err := b.run(ctx, b.loginTimeout,
		chromedp.Navigate(b.loginURL),
		chromedp.WaitVisible(selectorUserID, chromedp.ByQuery),
		chromedp.SendKeys(selectorUserID, email, chromedp.ByQuery),
		chromedp.Click(selectorContinue, chromedp.ByQuery),
		chromedp.WaitVisible(selectorPassword, chromedp.ByQuery),
		chromedp.SendKeys(selectorPassword, password, chromedp.ByQuery),
		chromedp.Click(selectorSignIn, chromedp.ByQuery),
		chromedp.WaitVisible(selectorSignedInMark, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	return nil
}

// UseSessionCookie installs the cookies of a "name=value; name2=value2"
// header on domain, skipping the sign-in form.
func (b *BrowserSource) UseSessionCookie(ctx context.Context, header, domain string) error {
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return fmt.Errorf("parse session cookie: %w", err)
	}
	return b.run(ctx, b.timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			if err := network.SetCookie(c.Name, c.Value).WithDomain(domain).WithPath("/").Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// Close shuts the browser down.
func (b *BrowserSource) Close() {
	b.cancel()
	b.allocCancel()
}
