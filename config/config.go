package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	OrdersURL     string
	LoginURL      string
	Email         string
	Password      string
	SessionCookie string
	Source        string // browser or http
	Headless      bool
	MaxListPages  int
	MaxOrders     int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	Timeout       time.Duration
	OutputDir     string
	OutputFormat  string // xlsx, csv, json, or dual
	SheetName     string
	Screenshots   bool
	ScreenshotDir string
	UserAgent     string
	DedupeMaxSize int
	Verbose       bool
	MetricsAddr   string
	Location      *time.Location
}

// DefaultConfig returns conservative defaults for the seller hub order pages.
func DefaultConfig() *Config {
	return &Config{
		OrdersURL:     "https://www.ebay.com/sh/ord/all",
		LoginURL:      "https://www.ebay.com/signin/",
		Source:        "browser",
		Headless:      false,
		MaxListPages:  10,
		MaxOrders:     0,
		MinDelay:      2 * time.Second,
		MaxDelay:      5 * time.Second,
		Timeout:       30 * time.Second,
		OutputDir:     "output",
		OutputFormat:  "xlsx",
		SheetName:     "eBay Orders",
		Screenshots:   false,
		ScreenshotDir: "output/screenshots",
		UserAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		DedupeMaxSize: 10000,
		Verbose:       false,
		Location:      time.Local,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.OrdersURL == "" {
		return fmt.Errorf("orders URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.OrdersURL)
	if err != nil {
		return fmt.Errorf("invalid orders URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("orders URL must include a host")
	}

	switch c.Source {
	case "browser":
		if c.LoginURL == "" {
			return fmt.Errorf("login URL cannot be empty for the browser source")
		}
		if c.SessionCookie == "" && (c.Email == "" || c.Password == "") {
			return fmt.Errorf("email and password are required for the browser source")
		}
	case "http":
		if c.SessionCookie == "" {
			return fmt.Errorf("session cookie is required for the http source")
		}
	default:
		return fmt.Errorf("source must be browser or http")
	}

	if c.MaxListPages <= 0 {
		return fmt.Errorf("max list pages must be positive")
	}
	if c.MaxOrders < 0 {
		return fmt.Errorf("max orders cannot be negative")
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("min delay cannot be negative")
	}
	if c.MaxDelay < c.MinDelay {
		return fmt.Errorf("max delay (%s) cannot be less than min delay (%s)", c.MaxDelay, c.MinDelay)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	switch c.OutputFormat {
	case "xlsx", "csv", "json", "dual":
	default:
		return fmt.Errorf("output format must be xlsx, csv, json, or dual")
	}
	if c.SheetName == "" {
		return fmt.Errorf("sheet name cannot be empty")
	}
	if c.Screenshots && c.ScreenshotDir == "" {
		return fmt.Errorf("screenshot directory cannot be empty when screenshots are enabled")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.Location == nil {
		return fmt.Errorf("location cannot be nil")
	}

	return nil
}
