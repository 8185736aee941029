// Package snapshot captures dashboard sections as PNG images with headless Chrome.
package snapshot

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"product-insights/utils"
)

// Options configures a Capturer.
type Options struct {
	ChromeBin   string
	Concurrency int
	RateLimitMs int
	MaxRetries  int
	// Timeout bounds a single section capture.
	Timeout time.Duration
}

// Capturer renders dashboard sections in browser tabs and saves screenshots.
type Capturer struct {
	opts   Options
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// New creates a Capturer.
func New(opts Options, logger *utils.Logger) *Capturer {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Capturer{
		opts:   opts,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

// CaptureAll saves one <section>.png per section into dir and returns the
// written paths in section order. Failed sections are reported in the error;
// the others are still written.
func (c *Capturer) CaptureAll(ctx context.Context, baseURL string, sections []string, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}

	chromeBin := c.opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	c.logger.Info("[snapshot] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1024, 900),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// Start the browser before tabs are opened concurrently.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("snapshot: start browser: %w", err)
	}

	pool := utils.NewWorkerPool(c.opts.Concurrency, c.opts.RateLimitMs)
	paths := make([]string, len(sections))
	var mu sync.Mutex

	for i, section := range sections {
		i, section := i, section
		pool.Submit(func() error {
			target, err := SectionURL(baseURL, section)
			if err != nil {
				return err
			}
			path := filepath.Join(dir, section+".png")

			err = c.retry.Do(ctx, "snapshot-"+section, func() error {
				return c.capture(browserCtx, target, section, path)
			})
			if err != nil {
				c.logger.Warn("[snapshot] Section %s failed: %v", section, err)
				return fmt.Errorf("snapshot: %s: %w", section, err)
			}

			mu.Lock()
			paths[i] = path
			mu.Unlock()
			c.logger.Info("[snapshot] Saved %s", path)
			return nil
		})
	}

	err := pool.Wait()

	written := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
		}
	}
	return written, err
}

func (c *Capturer) capture(browserCtx context.Context, target, section, path string) error {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.opts.Timeout)
	defer cancelTimeout()

	var buf []byte
	selector := "#" + section
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("chromedp capture: %w", err)
	}

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SectionURL returns the dashboard URL that renders only section, keeping any
// query parameters already on baseURL.
func SectionURL(baseURL, section string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("snapshot: parse base url: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set("section", section)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
