package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"team-rsvp/config"
	"team-rsvp/models"
	"team-rsvp/utils"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	warnFetchFailed = "Failed to fetch fresh calendar data"
	warnUsingCache  = "Using cached data while server is unavailable"
	warnNoData      = "No calendar data available"
	warnParseFailed = "Calendar data could not be read"
	warnStoreFailed = "Some games could not be saved"
)

// Snapshot is the current view of the calendar. Stale means it came from the cache
// file because the feed could not be reached.
type Snapshot struct {
	Games     []models.Game `json:"games"`
	Stale     bool          `json:"stale"`
	Warnings  []string      `json:"warnings"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// IngestService runs fetch -> parse -> store and keeps the results in memory:
// raw feed text for RawTTL and parsed snapshots for ParsedTTL.
type IngestService struct {
	cfg     config.CalendarConfig
	fetcher *CalendarFetcher
	cache   *CalendarCache
	parser  *CalendarParser
	games   *GameService
	logger  *zap.Logger

	raw    *utils.TTLCache[string]
	parsed *utils.TTLCache[Snapshot]
	mu     sync.Mutex
	now    func() time.Time
}

func NewIngestService(
	cfg config.CalendarConfig,
	fetcher *CalendarFetcher,
	cache *CalendarCache,
	parser *CalendarParser,
	games *GameService,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		cfg:     cfg,
		fetcher: fetcher,
		cache:   cache,
		parser:  parser,
		games:   games,
		logger:  logger,
		raw:     utils.NewTTLCache[string](16),
		parsed:  utils.NewTTLCache[Snapshot](16),
		now:     time.Now,
	}
}

func rawKey(url string) string    { return "raw:" + url }
func parsedKey(url string) string { return "parsed:" + url }

// Snapshot returns the calendar, reusing in-memory copies while they are fresh.
// It never fails: feed, cache and store problems become warnings on the result.
func (s *IngestService) Snapshot(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, fresh := s.parsed.Get(parsedKey(s.cfg.URL)); fresh {
		return snap
	}
	return s.load(ctx)
}

// Refresh drops the in-memory copies and re-reads the feed.
func (s *IngestService) Refresh(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw.Delete(rawKey(s.cfg.URL))
	s.parsed.Delete(parsedKey(s.cfg.URL))
	return s.load(ctx)
}

func (s *IngestService) load(ctx context.Context) Snapshot {
	snap := Snapshot{Games: []models.Game{}, Warnings: []string{}, FetchedAt: s.now()}

	raw, stale, ok := s.rawText(ctx, &snap)
	snap.Stale = stale
	if !ok {
		s.parsed.Put(parsedKey(s.cfg.URL), snap, s.cfg.ParsedTTL)
		return snap
	}

	parsed, err := s.parser.Parse(raw)
	if err != nil {
		s.logger.Warn("calendar parse failed", zap.Error(err))
		snap.Warnings = append(snap.Warnings, warnParseFailed)
		parsed = nil
	}

	snap.Games = s.store(ctx, parsed, &snap)
	s.parsed.Put(parsedKey(s.cfg.URL), snap, s.cfg.ParsedTTL)
	return snap
}

// rawText returns the feed text from memory, the network, or the cache file, in that order.
func (s *IngestService) rawText(ctx context.Context, snap *Snapshot) (text string, stale, ok bool) {
	key := rawKey(s.cfg.URL)
	if text, fresh := s.raw.Get(key); fresh {
		return text, false, true
	}

	text, err := s.fetcher.Fetch(ctx, s.cfg.URL)
	if err == nil {
		s.raw.Put(key, text, s.cfg.RawTTL)
		return text, false, true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		s.logger.Error("calendar fetch failed", zap.String("url", fetchErr.URL), zap.Int("attempts", fetchErr.Attempts), zap.Error(fetchErr.Err))
	} else {
		s.logger.Error("calendar fetch failed", zap.Error(err))
	}
	snap.Warnings = append(snap.Warnings, warnFetchFailed)

	cached, found := s.cache.Load(ctx)
	if !found || cached == "" {
		snap.Warnings = append(snap.Warnings, warnNoData)
		return "", false, false
	}

	snap.Warnings = append(snap.Warnings, warnUsingCache)
	// retry the feed when the parsed copy expires rather than holding stale text for RawTTL
	s.raw.Put(key, cached, s.cfg.ParsedTTL)
	return cached, true, true
}

// store upserts every parsed game and returns the stored rows, earliest first.
// A game that cannot be stored is still shown as parsed.
func (s *IngestService) store(ctx context.Context, parsed []models.Game, snap *Snapshot) []models.Game {
	games := make([]models.Game, 0, len(parsed))
	failed := 0
	for _, g := range parsed {
		g := g
		if err := s.games.Upsert(ctx, &g); err != nil {
			failed++
			s.logger.Warn("failed to store game", zap.String("event_uid", g.EventUID), zap.Error(err))
		}
		games = append(games, g)
	}
	if failed > 0 {
		snap.Warnings = append(snap.Warnings, warnStoreFailed)
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].StartTime.Before(games[j].StartTime)
	})
	return games
}

// FindGame looks a game up in the current snapshot, then in the store.
func (s *IngestService) FindGame(ctx context.Context, eventUID string) (*models.Game, error) {
	snap := s.Snapshot(ctx)
	for i := range snap.Games {
		if snap.Games[i].EventUID == eventUID {
			g := snap.Games[i]
			return &g, nil
		}
	}
	return s.games.GetByUID(ctx, eventUID)
}
