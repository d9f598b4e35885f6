package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-scrape-orders/config"
	"github.com/aluiziolira/go-scrape-orders/parser"
	"github.com/gocolly/colly/v2"
)

// PageSource loads a page and returns its rendered content.
type PageSource interface {
	Fetch(ctx context.Context, pageURL string) (*parser.Document, error)
}

// Screenshotter is implemented by sources that can capture the current page.
type Screenshotter interface {
	Screenshot(ctx context.Context, path string) error
}

// HTTPSource fetches pages with a plain HTTP client, authenticated by a
// session cookie copied from a signed-in browser.
type HTTPSource struct {
	collector *colly.Collector
	cookie    string
}

// NewHTTPSource builds a synchronous collector configured from cfg.
func NewHTTPSource(cfg *config.Config) (*HTTPSource, error) {
	if cfg.SessionCookie == "" {
		return nil, fmt.Errorf("http source requires a session cookie")
	}

	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &HTTPSource{collector: collector, cookie: cfg.SessionCookie}, nil
}

// Fetch issues one GET and parses the response body.
func (h *HTTPSource) Fetch(ctx context.Context, pageURL string) (*parser.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := h.collector.Clone()
	var (
		body   []byte
		status int
	)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Cookie", h.cookie)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, classifyError(fmt.Errorf("get %s: %w", pageURL, err), status)
	}
	if status >= http.StatusBadRequest {
		return nil, classifyError(nil, status)
	}

	doc, err := parser.NewDocument(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return doc, nil
}
