package services

import (
	"context"
	"io"
	"net/http"
	"time"

	"team-rsvp/config"
	"team-rsvp/utils"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	calendarAccept   = "text/calendar,*/*"
)

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

type CalendarFetcher struct {
	client      *http.Client
	cache       *CalendarCache
	logger      *zap.Logger
	maxRetries  int
	backoffBase time.Duration
	timeout     time.Duration
}

func NewCalendarFetcher(cfg config.CalendarConfig, cache *CalendarCache, logger *zap.Logger) *CalendarFetcher {
	return &CalendarFetcher{
		client:      utils.NewHTTPClient(cfg.FetchTimeout),
		cache:       cache,
		logger:      logger,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		timeout:     cfg.FetchTimeout,
	}
}

// Fetch downloads the calendar document at url. Transport errors and throttling/5xx
// responses are retried with exponential backoff; other non-2xx statuses fail at once.
// The body of a successful fetch is written to the cache before it is returned.
func (f *CalendarFetcher) Fetch(ctx context.Context, url string) (string, error) {
	attempts := 0
	var body string

	operation := func() error {
		attempts++
		text, err := f.attempt(ctx, url)
		if err != nil {
			return err
		}
		body = text
		return nil
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Warn("calendar fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, f.policy(ctx), notify); err != nil {
		return "", &FetchError{URL: url, Attempts: attempts, Err: err}
	}

	if f.cache != nil {
		f.cache.Save(ctx, body)
	}

	return body, nil
}

func (f *CalendarFetcher) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.backoffBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 64 * f.backoffBase
	b.MaxElapsedTime = 0

	retries := f.maxRetries
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (f *CalendarFetcher) attempt(ctx context.Context, url string) (string, error) {
	reqCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", calendarAccept)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := errors.Errorf("unexpected status %d", resp.StatusCode)
		if retryableStatus[resp.StatusCode] {
			return "", statusErr
		}
		return "", backoff.Permanent(statusErr)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
