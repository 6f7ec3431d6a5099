package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

const (
	// Listing sites routinely block default Go user agents.
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	requestTimeout = 30 * time.Second

	renderTimeout   = 45 * time.Second
	renderExtraWait = 2 * time.Second
)

// Fetcher wraps the transports adapters fetch with: plain HTTP and a
// headless-browser path for JS-rendered listings.
type Fetcher struct {
	client *http.Client
	logger zerolog.Logger
}

func NewFetcher(logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// GetText performs an HTTP GET and returns the response body as a string.
// Non-2xx statuses are errors so the retry loop in the runner kicks in.
func (f *Fetcher) GetText(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("get %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return string(body), nil
}

// GetJSON performs an HTTP GET with query parameters and decodes the JSON
// response into out.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	target := rawURL
	if len(params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("parse url %s: %w", rawURL, err)
		}
		query := parsed.Query()
		for key, values := range params {
			for _, value := range values {
				query.Set(key, value)
			}
		}
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	body, err := f.GetText(ctx, target)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode JSON from %s: %w", rawURL, err)
	}
	return nil
}

// GetRendered loads a page in headless Chromium and returns the DOM after
// scripts have had a chance to run. Used for sources whose listings are
// entirely JS-rendered.
func (f *Fetcher) GetRendered(ctx context.Context, rawURL string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, renderTimeout)
	defer timeoutCancel()

	var html string
	tasks := chromedp.Tasks{
		chromedp.Navigate(rawURL),
		// Extra wait so late-running scripts finish painting the listing.
		chromedp.Sleep(renderExtraWait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return "", fmt.Errorf("render %s: %w", rawURL, err)
	}
	return html, nil
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
