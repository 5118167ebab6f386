package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"team-rsvp/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFetcherConfig() config.CalendarConfig {
	return config.CalendarConfig{
		FetchTimeout: 2 * time.Second,
		MaxRetries:   5,
		BackoffBase:  time.Millisecond,
	}
}

func Test_Fetch_Sends_Headers_And_Saves_Cache(t *testing.T) {
	// Arrange
	var gotAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("BEGIN:VCALENDAR"))
	}))
	defer server.Close()

	cache := NewCalendarCache(filepath.Join(t.TempDir(), "cache.json"), zap.NewNop())
	fetcher := NewCalendarFetcher(testFetcherConfig(), cache, zap.NewNop())

	// Act
	body, err := fetcher.Fetch(context.Background(), server.URL)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "BEGIN:VCALENDAR", body)
	require.Contains(t, gotAgent, "Mozilla/5.0")
	require.Equal(t, "text/calendar,*/*", gotAccept)

	cached, ok := cache.Load(context.Background())
	require.True(t, ok)
	require.Equal(t, "BEGIN:VCALENDAR", cached)
}

func Test_Fetch_Retries_Transient_Statuses(t *testing.T) {
	// Arrange
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := NewCalendarFetcher(testFetcherConfig(), nil, zap.NewNop())

	// Act
	body, err := fetcher.Fetch(context.Background(), server.URL)

	// Assert
	require.NoError(t, err)
	require.Equal(t, "ok", body)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func Test_Fetch_Gives_Up_After_Max_Retries(t *testing.T) {
	// Arrange
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := NewCalendarFetcher(testFetcherConfig(), nil, zap.NewNop())

	// Act
	_, err := fetcher.Fetch(context.Background(), server.URL)

	// Assert
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 6, fetchErr.Attempts)
	require.Equal(t, int32(6), atomic.LoadInt32(&calls))
}

func Test_Fetch_Does_Not_Retry_Client_Errors(t *testing.T) {
	// Arrange
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewCalendarFetcher(testFetcherConfig(), nil, zap.NewNop())

	// Act
	_, err := fetcher.Fetch(context.Background(), server.URL)

	// Assert
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 1, fetchErr.Attempts)
	require.Contains(t, fetchErr.Error(), "404")
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func Test_Fetch_Stops_When_Context_Is_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cfg := testFetcherConfig()
	cfg.BackoffBase = time.Hour
	fetcher := NewCalendarFetcher(cfg, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fetcher.Fetch(ctx, server.URL)

	require.Error(t, err)
}
