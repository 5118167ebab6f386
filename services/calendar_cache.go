package services

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"team-rsvp/utils"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ObjectMirror is remote object storage that keeps a second copy of the cache artifact.
type ObjectMirror interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
}

type cacheArtifact struct {
	Timestamp float64 `json:"timestamp"`
	Data      string  `json:"data"`
}

// CalendarCache persists the last successfully fetched feed text so a later fetch
// failure still has something to show. Every operation is best-effort: failures are
// logged as warnings and never returned.
type CalendarCache struct {
	path      string
	mirror    ObjectMirror
	mirrorKey string
	logger    *zap.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewCalendarCache(path string, logger *zap.Logger) *CalendarCache {
	return &CalendarCache{
		path:      path,
		mirrorKey: "calendar/calendar_cache.json",
		logger:    logger,
		now:       time.Now,
	}
}

// WithMirror enables uploading every saved artifact to object storage.
func (c *CalendarCache) WithMirror(mirror ObjectMirror, key string) *CalendarCache {
	c.mirror = mirror
	if key != "" {
		c.mirrorKey = key
	}
	return c
}

// Save stores data with the current timestamp.
func (c *CalendarCache) Save(ctx context.Context, data string) {
	payload, err := c.encode(data)
	if err != nil {
		c.warn(&CacheError{Op: "encode", Err: err})
		return
	}

	c.mu.Lock()
	err = utils.WriteFileAtomic(c.path, payload)
	c.mu.Unlock()
	if err != nil {
		c.warn(&CacheError{Op: "write", Err: err})
	}

	if c.mirror != nil {
		if err := c.mirror.PutObject(ctx, c.mirrorKey, payload, "application/json"); err != nil {
			c.warn(&CacheError{Op: "mirror write", Err: err})
		}
	}
}

// Load returns the cached feed text regardless of its age.
func (c *CalendarCache) Load(ctx context.Context) (string, bool) {
	entry, err := c.readLocal()
	if err == nil {
		return entry.Data, true
	}
	if !errors.Is(err, os.ErrNotExist) {
		c.warn(&CacheError{Op: "read", Err: err})
	}

	if c.mirror == nil {
		return "", false
	}

	body, err := c.mirror.GetObject(ctx, c.mirrorKey)
	if err != nil {
		c.warn(&CacheError{Op: "mirror read", Err: err})
		return "", false
	}

	var remote cacheArtifact
	if err := json.Unmarshal(body, &remote); err != nil {
		c.warn(&CacheError{Op: "mirror decode", Err: err})
		return "", false
	}

	return remote.Data, remote.Data != ""
}

// SavedAt returns when the local artifact was written, if there is one.
func (c *CalendarCache) SavedAt() (time.Time, bool) {
	entry, err := c.readLocal()
	if err != nil {
		return time.Time{}, false
	}
	sec := int64(entry.Timestamp)
	nsec := int64((entry.Timestamp - float64(sec)) * 1e9)
	return time.Unix(sec, nsec), true
}

func (c *CalendarCache) readLocal() (cacheArtifact, error) {
	c.mu.Lock()
	raw, err := os.ReadFile(c.path)
	c.mu.Unlock()
	if err != nil {
		return cacheArtifact{}, err
	}

	var entry cacheArtifact
	if err := json.Unmarshal(raw, &entry); err != nil {
		return cacheArtifact{}, errors.Wrap(err, "decode cache file")
	}
	return entry, nil
}

func (c *CalendarCache) encode(data string) ([]byte, error) {
	now := c.now()
	return json.Marshal(cacheArtifact{
		Timestamp: float64(now.UnixNano()) / 1e9,
		Data:      data,
	})
}

func (c *CalendarCache) warn(err error) {
	c.logger.Warn("calendar cache unavailable", zap.String("path", c.path), zap.Error(err))
}
