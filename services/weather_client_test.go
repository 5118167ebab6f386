package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"team-rsvp/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newForecastServer(t *testing.T, start time.Time, calls *int32, gotQuery *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		*gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"list":[
			{"dt":%d,"main":{"temp":51.2,"feels_like":48.0,"humidity":70},"weather":[{"main":"Clouds","description":"broken clouds"}],"wind":{"speed":8.5},"pop":0.1},
			{"dt":%d,"main":{"temp":55.0,"feels_like":53.1,"humidity":60},"weather":[{"main":"Rain","description":"light rain"}],"wind":{"speed":12.0},"pop":0.8}
		]}`, start.Unix(), start.Add(3*time.Hour).Unix())
	}))
}

func Test_Forecast_Picks_Closest_Slot(t *testing.T) {
	// Arrange
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	slotStart := now.Add(24 * time.Hour)
	var calls int32
	var query string
	server := newForecastServer(t, slotStart, &calls, &query)
	defer server.Close()

	client := NewWeatherClient(config.WeatherConfig{APIURL: server.URL, APIKey: "k", DefaultCity: "St. Louis,US"}, zap.NewNop())
	client.now = func() time.Time { return now }

	// Act
	forecast, err := client.Forecast(context.Background(), slotStart.Add(2*time.Hour), "1 Soccer Park Rd Fenton MO 63026")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, forecast)
	require.Equal(t, "Rain", forecast.Conditions)
	require.Equal(t, 55.0, forecast.Temperature)
	require.Equal(t, 0.8, forecast.PrecipChance)
	require.Contains(t, query, "zip=63026%2Cus")
	require.Contains(t, query, "units=imperial")

	// a second lookup for the same place is served from cache
	_, err = client.Forecast(context.Background(), slotStart, "1 Soccer Park Rd Fenton MO 63026")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func Test_Forecast_Uses_Default_City_Without_Zip(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	var calls int32
	var query string
	server := newForecastServer(t, now.Add(time.Hour), &calls, &query)
	defer server.Close()

	client := NewWeatherClient(config.WeatherConfig{APIURL: server.URL, APIKey: "k", DefaultCity: "St. Louis,US"}, zap.NewNop())
	client.now = func() time.Time { return now }

	forecast, err := client.Forecast(context.Background(), now.Add(time.Hour), "")

	require.NoError(t, err)
	require.NotNil(t, forecast)
	require.Contains(t, query, "q=St.+Louis%2CUS")
}

func Test_Forecast_Outside_Window_Is_Nil(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	var calls int32
	var query string
	server := newForecastServer(t, now, &calls, &query)
	defer server.Close()

	client := NewWeatherClient(config.WeatherConfig{APIURL: server.URL, APIKey: "k"}, zap.NewNop())
	client.now = func() time.Time { return now }

	tooLate, err := client.Forecast(context.Background(), now.Add(6*24*time.Hour), "")
	require.NoError(t, err)
	require.Nil(t, tooLate)

	// inside the window but nowhere near a slot
	gap, err := client.Forecast(context.Background(), now.Add(2*24*time.Hour), "")
	require.NoError(t, err)
	require.Nil(t, gap)

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func Test_Forecast_Surfaces_API_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	now := time.Now()
	client := NewWeatherClient(config.WeatherConfig{APIURL: server.URL, APIKey: "bad"}, zap.NewNop())

	_, err := client.Forecast(context.Background(), now.Add(time.Hour), "")

	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}
