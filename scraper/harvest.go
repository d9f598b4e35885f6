package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-orders/parser"
	lru "github.com/hashicorp/golang-lru/v2"
)

const orderIDParam = "orderid"

// LinkSet remembers which orders were already queued. It is bounded so a
// runaway pagination loop cannot grow memory without limit.
type LinkSet struct {
	seen *lru.Cache[string, struct{}]
}

// NewLinkSet returns a set holding at most size keys.
func NewLinkSet(size int) (*LinkSet, error) {
	cache, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("create link set: %w", err)
	}
	return &LinkSet{seen: cache}, nil
}

// Add records key and reports whether it was new.
func (s *LinkSet) Add(key string) bool {
	if s.seen.Contains(key) {
		return false
	}
	s.seen.Add(key, struct{}{})
	return true
}

// Len returns the number of remembered keys.
func (s *LinkSet) Len() int {
	return s.seen.Len()
}

// Harvest walks the order list from cfg.OrdersURL and returns the detail page
// links in list order, de-duplicated by order id.
func (s *Scraper) Harvest(ctx context.Context) ([]string, error) {
	pageURL := s.cfg.OrdersURL
	var links []string
	visited := make(map[string]bool)

	for page := 0; page < s.cfg.MaxListPages && pageURL != ""; page++ {
		if visited[pageURL] {
			break
		}
		visited[pageURL] = true

		if page > 0 {
			if err := s.sleep(ctx, s.delay()); err != nil {
				return nil, err
			}
		}

		doc, err := s.fetch(ctx, "list", pageURL)
		if err != nil {
			return nil, fmt.Errorf("fetch order list page %d: %w", page+1, err)
		}
		s.pageCount++

		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parse list url: %w", err)
		}

		found := 0
		for _, link := range OrderLinks(doc, base) {
			if !s.links.Add(orderKey(link)) {
				continue
			}
			links = append(links, link)
			found++
			if s.cfg.MaxOrders > 0 && len(links) >= s.cfg.MaxOrders {
				slog.Info("order cap reached", slog.Int("orders", len(links)))
				return links, nil
			}
		}
		slog.Debug("order list page harvested",
			slog.Int("page", page+1),
			slog.Int("new_orders", found),
			slog.String("url", pageURL),
		)

		pageURL = NextPage(doc, base)
	}

	if len(links) == 0 {
		return nil, ErrNoOrders
	}
	return links, nil
}

// OrderLinks returns the absolute URLs of anchors carrying an order id query
// parameter, in document order.
func OrderLinks(doc *parser.Document, base *url.URL) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := resolve(base, href)
		if abs == nil || orderParam(abs) == "" {
			return
		}
		links = append(links, abs.String())
	})
	return links
}

// NextPage returns the pagination target of the list page, or "" on the last page.
func NextPage(doc *parser.Document, base *url.URL) string {
	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if disabled, _ := a.Attr("aria-disabled"); disabled == "true" {
			return true
		}
		rel, _ := a.Attr("rel")
		label, _ := a.Attr("aria-label")
		class, _ := a.Attr("class")
		if !hasToken(rel, "next") &&
			!strings.Contains(strings.ToLower(label), "next") &&
			!strings.Contains(class, "pagination__next") {
			return true
		}
		href, _ := a.Attr("href")
		if abs := resolve(base, href); abs != nil {
			next = abs.String()
			return false
		}
		return true
	})
	return next
}

func resolve(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(ref)
}

func orderParam(u *url.URL) string {
	for key, values := range u.Query() {
		if strings.EqualFold(key, orderIDParam) && len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return ""
}

// orderKey identifies a link by its order id so the same order linked from
// several places on a page is queued once.
func orderKey(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if id := orderParam(u); id != "" {
		return id
	}
	return link
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
