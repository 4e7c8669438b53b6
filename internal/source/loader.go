// Package source reads run inputs from local files or http(s) URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"showlist/internal/config"
	"showlist/internal/diagnostics"
	"showlist/internal/logger"
	"showlist/pkg/metadata"
	"showlist/pkg/utils"
)

// Source errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrTooLarge             = errors.New("input exceeds size limit")
	ErrEmptyLocation        = errors.New("input location is empty")
)

// DefaultUserAgent identifies showlist to listing servers.
const DefaultUserAgent = "showlist/1.0"

// Document is one loaded input.
type Document struct {
	Text        string
	Fingerprint metadata.Fingerprint
	// Diagnostics holds problems with the content itself, such as invalid encoding.
	Diagnostics diagnostics.List
}

// Loader loads inputs with config-driven retry logic for URLs.
type Loader struct {
	client      *http.Client
	retryPolicy config.RetryPolicy
	userAgent   string
	log         *logger.Logger
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithUserAgent sets the User-Agent header for URL inputs.
func WithUserAgent(ua string) Option {
	return func(l *Loader) { l.userAgent = ua }
}

// WithClock replaces the clock used for fetch timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader creates a loader with the given retry policy.
func NewLoader(retryPolicy config.RetryPolicy, opts ...Option) *Loader {
	l := &Loader{
		client:      &http.Client{Timeout: retryPolicy.GetTimeout()},
		retryPolicy: retryPolicy,
		userAgent:   DefaultUserAgent,
		log:         logger.Discard(),
		now:         time.Now,
		sleep:       sleepContext,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.retryPolicy.MaxAttempts < 1 {
		l.retryPolicy.MaxAttempts = 1
	}

	return l
}

// Load reads location, a file path or an http(s) URL. Compressed content is
// decoded automatically. Invalid UTF-8 does not fail the load: offending
// bytes are replaced and a critical diagnostic is attached to the document.
func (l *Loader) Load(ctx context.Context, location string) (*Document, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocation
	}

	var (
		data []byte
		kind string
		err  error
	)

	start := l.now()

	if utils.IsURL(location) {
		data, kind, err = l.fetch(ctx, location)
	} else {
		data, kind, err = l.readFile(location)
	}

	if err != nil {
		return nil, err
	}

	doc := &Document{
		Fingerprint: metadata.NewFingerprint(location, kind, data, start),
	}

	if utf8.Valid(data) {
		doc.Text = string(data)
	} else {
		line := firstInvalidLine(data)
		doc.Diagnostics.Error(diagnostics.Critical, diagnostics.TypeInvalidEncoding, line, "",
			"%s is not valid UTF-8 (first bad byte on line %d); invalid bytes replaced", location, line)
		doc.Text = strings.ToValidUTF8(string(data), "�")
	}

	l.log.Debug("loaded input",
		"location", location,
		"bytes", len(data),
		"compression", describe(kind),
		"sha256", doc.Fingerprint.Short(),
		"duration", time.Since(start))

	return doc, nil
}

func (l *Loader) readFile(path string) ([]byte, string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input %s: %w", path, err)
	}
	defer f.Close()

	data, kind, err := decompress(f, 0)
	if err != nil {
		return nil, kind, fmt.Errorf("failed to read input %s: %w", path, err)
	}

	return data, kind, nil
}

// fetch GETs url, retrying transport errors and retryable status codes with
// exponential backoff.
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error

	maxAttempts := l.retryPolicy.MaxAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := l.retryPolicy.GetRetryDelay(attempt)
			l.log.Warn("retrying input fetch", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)

			if err := l.sleep(ctx, delay); err != nil {
				return nil, "", fmt.Errorf("fetch %s cancelled: %w", url, err)
			}
		}

		data, kind, retry, err := l.fetchOnce(ctx, url)
		if err == nil {
			return data, kind, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, maxAttempts, err)

		if !retry || ctx.Err() != nil {
			break
		}
	}

	return nil, "", lastErr
}

func (l *Loader) fetchOnce(ctx context.Context, url string) (data []byte, kind string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = utils.BuildHeaders(l.userAgent, nil)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	data, kind, err = decompress(resp.Body, l.retryPolicy.MaxBodyBytes())
	if err != nil {
		return nil, kind, !errors.Is(err, ErrTooLarge), err
	}

	return data, kind, false, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func firstInvalidLine(data []byte) int {
	line := 1

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			return line
		}

		if r == '\n' {
			line++
		}

		data = data[size:]
	}

	return line
}
