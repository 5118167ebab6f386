package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Calendar CalendarConfig
	Storage  StorageConfig
	Weather  WeatherConfig
	Venues   VenueRules
}

type ServerConfig struct {
	Port           int
	Env            string
	AllowedOrigins []string
	AdminToken     string // guards POST /calendar/refresh; empty leaves it open
}

type DatabaseConfig struct {
	URL string
}

type CalendarConfig struct {
	URL              string
	CacheFile        string
	RawTTL           time.Duration
	ParsedTTL        time.Duration
	SyncInterval     time.Duration
	BackfillInterval time.Duration
	FetchTimeout     time.Duration
	MaxRetries       int
	BackoffBase      time.Duration
	// Location is the team's home time zone; game dates and week boundaries are read in it.
	Location *time.Location
}

// StorageConfig points at an optional S3-compatible bucket (Cloudflare R2) used to
// mirror the calendar cache artifact. Empty Bucket disables the mirror.
type StorageConfig struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Endpoint        string
}

type WeatherConfig struct {
	APIURL      string
	APIKey      string
	DefaultCity string
}

// VenueRules drive the name/location cleanup of feed events.
type VenueRules struct {
	Prefix       string `yaml:"prefix"`
	StreetMarker string `yaml:"street_marker"`
	Lookback     int    `yaml:"lookback"`
}

func DefaultVenueRules() VenueRules {
	return VenueRules{
		Prefix:       "Soccerdome (Webster Groves) ",
		StreetMarker: "Soccer Park Rd",
		Lookback:     2,
	}
}

func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	calendarURL := os.Getenv("CALENDAR_URL")
	if calendarURL == "" {
		return nil, errors.New("missing env CALENDAR_URL")
	}

	venues := DefaultVenueRules()
	if path := os.Getenv("VENUES_FILE"); path != "" {
		loaded, err := LoadVenueRules(path)
		if err != nil {
			return nil, err
		}
		venues = loaded
	}

	tzName := GetEnv("TEAM_TIMEZONE", "America/Chicago").(string)
	location, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, errors.Wrapf(err, "load TEAM_TIMEZONE %q", tzName)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           GetEnv("PORT", 8080).(int),
			Env:            GetEnv("APP_ENV", "production").(string),
			AllowedOrigins: parseList(GetEnv("ALLOWED_ORIGINS", "http://localhost:3000").(string)),
			AdminToken:     GetEnv("ADMIN_TOKEN", "").(string),
		},
		Database: DatabaseConfig{
			URL: GetEnv("DATABASE_URL", "file:rsvp.db").(string),
		},
		Calendar: CalendarConfig{
			URL:              calendarURL,
			CacheFile:        GetEnv("CALENDAR_CACHE_FILE", "calendar_cache.json").(string),
			RawTTL:           GetEnv("CALENDAR_RAW_TTL", 12*time.Hour).(time.Duration),
			ParsedTTL:        GetEnv("CALENDAR_PARSED_TTL", 5*time.Minute).(time.Duration),
			SyncInterval:     GetEnv("CALENDAR_SYNC_INTERVAL", 12*time.Hour).(time.Duration),
			BackfillInterval: GetEnv("RESULT_BACKFILL_INTERVAL", 5*time.Minute).(time.Duration),
			FetchTimeout:     GetEnv("FETCH_TIMEOUT", 30*time.Second).(time.Duration),
			MaxRetries:       GetEnv("FETCH_MAX_RETRIES", 5).(int),
			BackoffBase:      GetEnv("FETCH_BACKOFF_BASE", time.Second).(time.Duration),
			Location:         location,
		},
		Storage: StorageConfig{
			AccountID:       GetEnv("R2_ACCOUNT_ID", "").(string),
			AccessKeyID:     GetEnv("R2_ACCESS_KEY_ID", "").(string),
			AccessKeySecret: GetEnv("R2_ACCESS_KEY_SECRET", "").(string),
			Bucket:          GetEnv("R2_BUCKET_NAME", "").(string),
			Endpoint:        GetEnv("R2_ENDPOINT", "").(string),
		},
		Weather: WeatherConfig{
			APIURL:      GetEnv("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5/forecast").(string),
			APIKey:      GetEnv("WEATHER_API_KEY", "").(string),
			DefaultCity: GetEnv("WEATHER_DEFAULT_CITY", "St. Louis,US").(string),
		},
		Venues: venues,
	}

	return cfg, nil
}

// LoadVenueRules reads cleanup rules from a YAML file; missing keys keep their defaults.
func LoadVenueRules(path string) (VenueRules, error) {
	rules := DefaultVenueRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, errors.Wrap(err, "read venues file")
	}

	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, errors.Wrapf(err, "parse venues file %s", path)
	}

	if rules.Lookback < 0 {
		rules.Lookback = 0
	}

	return rules, nil
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func GetEnv(key string, defaultValue any) any {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	switch def := defaultValue.(type) {
	case string:
		return value
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		return def
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		return def
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
		return def
	default:
		panic(fmt.Sprintf("unsupported type %T", defaultValue))
	}
}
