package collector

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"BullionSentinel/internal/metrics"
	"BullionSentinel/internal/model"
)

const maxBodyBytes = 4 << 20

var (
	errUnexpectedStatus = errors.New("unexpected status")
	errShutdown         = errors.New("shutting down")
)

// DefaultRetryStatuses are the server-side and CDN failures worth retrying.
var DefaultRetryStatuses = []int{500, 502, 503, 504, 522, 524}

// ClientConfig describes how the feed is reached. It is built once by the
// caller and owned by the FeedFetcher; there is no process-wide client.
type ClientConfig struct {
	URL    string
	Fields QuoteFields

	Timeout     time.Duration // per HTTP call
	MaxAttempts int
	BackoffBase time.Duration // doubled after every failed attempt

	RetryStatuses []int
	// InsecureFallback retries a failed attempt once with certificate
	// verification disabled before the attempt counts as failed.
	InsecureFallback bool

	UserAgent string
	Proxy     string
}

// FeedFetcher implements Fetcher against a JSON price feed.
type FeedFetcher struct {
	cfg      ClientConfig
	retry    map[int]bool
	secure   *http.Client
	insecure *http.Client
	logger   zerolog.Logger
}

// NewFeedFetcher creates a fetcher with a verified client and, when enabled,
// an unverified fallback client. Both honor the optional proxy.
func NewFeedFetcher(cfg ClientConfig, logger zerolog.Logger) *FeedFetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryStatuses == nil {
		cfg.RetryStatuses = DefaultRetryStatuses
	}
	retry := make(map[int]bool, len(cfg.RetryStatuses))
	for _, code := range cfg.RetryStatuses {
		retry[code] = true
	}

	f := &FeedFetcher{
		cfg:    cfg,
		retry:  retry,
		secure: &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.Proxy, false)},
		logger: logger.With().Str("component", "fetcher").Logger(),
	}
	if cfg.InsecureFallback {
		f.insecure = &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.Proxy, true)}
	}
	return f
}

func newTransport(proxyURL string, insecure bool) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, //nolint:gosec // explicit, logged fallback path
		}
	}
	return transport
}

func (f *FeedFetcher) Name() string {
	if u, err := url.Parse(f.cfg.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return "feed"
}

// Fetch reads one quote, retrying with exponential backoff. Each attempt tries
// the verified path first and then, if enabled, the unverified path.
func (f *FeedFetcher) Fetch(ctx context.Context) (model.Quote, error) {
	var last error
	attempts := 0

	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		attempts = attempt
		q, err := f.attempt(ctx, attempt)
		if err == nil {
			return q, nil
		}
		last = err
		if ctx.Err() != nil || attempt == f.cfg.MaxAttempts {
			break
		}

		backoff := f.cfg.BackoffBase << uint(attempt-1)
		f.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", f.cfg.MaxAttempts).
			Dur("backoff", backoff).
			Msg("fetch attempt failed, retrying")
		if !sleepCtx(ctx, backoff) {
			cause := ctx.Err()
			if cause == nil {
				cause = errShutdown
			}
			last = fmt.Errorf("%w (last error: %v)", cause, err)
			break
		}
	}

	metrics.FeedUnavailableTotal.Inc()
	return model.Quote{}, &UnavailableError{Attempts: attempts, Last: last}
}

func (f *FeedFetcher) attempt(ctx context.Context, attempt int) (model.Quote, error) {
	q, err := f.get(ctx, f.secure, PathVerified, attempt)
	if err == nil {
		return q, nil
	}
	f.logFailure(err)
	if f.insecure == nil || ctx.Err() != nil {
		return model.Quote{}, err
	}

	f.logger.Warn().Int("attempt", attempt).Msg("falling back to unverified TLS")
	q, err = f.get(ctx, f.insecure, PathUnverified, attempt)
	if err != nil {
		f.logFailure(err)
		return model.Quote{}, err
	}
	q.Insecure = true
	return q, nil
}

func (f *FeedFetcher) get(ctx context.Context, client *http.Client, path FetchPath, attempt int) (model.Quote, error) {
	fail := func(status int, retryable bool, err error) (model.Quote, error) {
		metrics.FetchAttemptsTotal.WithLabelValues(string(path), "error").Inc()
		return model.Quote{}, &FetchError{Attempt: attempt, Path: path, Status: status, Retryable: retryable, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return fail(0, false, err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fail(0, true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, true, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, f.retry[resp.StatusCode], errUnexpectedStatus)
	}

	q, err := ParseQuote(body, f.cfg.Fields)
	if err != nil {
		return fail(resp.StatusCode, false, err)
	}
	q.FetchedAt = time.Now()
	metrics.FetchAttemptsTotal.WithLabelValues(string(path), "ok").Inc()
	return q, nil
}

func (f *FeedFetcher) logFailure(err error) {
	evt := f.logger.Warn().Err(err)
	if fe, ok := err.(*FetchError); ok {
		evt = evt.Int("attempt", fe.Attempt).
			Str("path", string(fe.Path)).
			Int("status", fe.Status).
			Bool("retryable", fe.Retryable)
	}
	evt.Msg("feed request failed")
}

// sleepCtx waits for d or until ctx is done or shut down, reporting whether
// the full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-shutdownSignal(ctx):
		return false
	case <-timer.C:
		return true
	}
}
