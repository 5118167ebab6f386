package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"team-rsvp/config"
	"team-rsvp/utils"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	forecastHorizon  = 5 * 24 * time.Hour
	forecastSlotSkew = 90 * time.Minute
	forecastCacheTTL = 30 * time.Minute
)

var zipPattern = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\s*$`)

// Forecast is the weather expected at kick-off.
type Forecast struct {
	At            time.Time `json:"at"`
	Temperature   float64   `json:"temperature_f"`
	FeelsLike     float64   `json:"feels_like_f"`
	Conditions    string    `json:"conditions"`
	Description   string    `json:"description"`
	WindSpeed     float64   `json:"wind_mph"`
	Humidity      int       `json:"humidity"`
	PrecipChance  float64   `json:"precip_chance"`
	LocationQuery string    `json:"location"`
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// WeatherClient reads 3-hourly forecasts from an OpenWeatherMap-compatible API.
type WeatherClient struct {
	cfg    config.WeatherConfig
	client *http.Client
	cache  *utils.TTLCache[*forecastResponse]
	logger *zap.Logger
	now    func() time.Time
}

func NewWeatherClient(cfg config.WeatherConfig, logger *zap.Logger) *WeatherClient {
	return &WeatherClient{
		cfg:    cfg,
		client: utils.NewHTTPClient(10 * time.Second),
		cache:  utils.NewTTLCache[*forecastResponse](64),
		logger: logger,
		now:    time.Now,
	}
}

// Enabled reports whether an API key is configured.
func (w *WeatherClient) Enabled() bool {
	return w.cfg.APIKey != ""
}

// Forecast returns the forecast slot closest to at, or nil when at is outside the
// provider's five-day window or no slot lies within 90 minutes of it.
func (w *WeatherClient) Forecast(ctx context.Context, at time.Time, address string) (*Forecast, error) {
	now := w.now()
	if at.Before(now.Add(-forecastSlotSkew)) || at.After(now.Add(forecastHorizon)) {
		return nil, nil
	}

	params := w.locationParams(address)
	data, err := w.fetch(ctx, params)
	if err != nil {
		return nil, err
	}

	best := -1
	var bestSkew time.Duration
	for i, slot := range data.List {
		skew := time.Unix(slot.Dt, 0).Sub(at)
		if skew < 0 {
			skew = -skew
		}
		if skew > forecastSlotSkew {
			continue
		}
		if best < 0 || skew < bestSkew {
			best, bestSkew = i, skew
		}
	}
	if best < 0 {
		return nil, nil
	}

	slot := data.List[best]
	forecast := &Forecast{
		At:            time.Unix(slot.Dt, 0).UTC(),
		Temperature:   slot.Main.Temp,
		FeelsLike:     slot.Main.FeelsLike,
		WindSpeed:     slot.Wind.Speed,
		Humidity:      slot.Main.Humidity,
		PrecipChance:  slot.Pop,
		LocationQuery: params.Encode(),
	}
	if len(slot.Weather) > 0 {
		forecast.Conditions = slot.Weather[0].Main
		forecast.Description = slot.Weather[0].Description
	}
	return forecast, nil
}

// locationParams prefers the ZIP code at the end of a street address and falls back
// to the configured city.
func (w *WeatherClient) locationParams(address string) url.Values {
	params := url.Values{}
	if m := zipPattern.FindStringSubmatch(strings.TrimSpace(address)); m != nil {
		params.Set("zip", m[1]+",us")
		return params
	}
	params.Set("q", w.cfg.DefaultCity)
	return params
}

func (w *WeatherClient) fetch(ctx context.Context, location url.Values) (*forecastResponse, error) {
	key := location.Encode()
	if cached, fresh := w.cache.Get(key); fresh && cached != nil {
		return cached, nil
	}

	query := url.Values{}
	for k, v := range location {
		query[k] = v
	}
	query.Set("appid", w.cfg.APIKey)
	query.Set("units", "imperial")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.APIURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build forecast request")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request forecast")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("forecast API returned status %d", resp.StatusCode)
	}

	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decode forecast")
	}

	w.cache.Put(key, &data, forecastCacheTTL)
	w.logger.Debug("forecast refreshed", zap.String("location", key), zap.Int("slots", len(data.List)))
	return &data, nil
}
