package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryMirror struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut bool
}

func newMemoryMirror() *memoryMirror {
	return &memoryMirror{objects: map[string][]byte{}}
}

func (m *memoryMirror) PutObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errors.New("bucket unavailable")
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memoryMirror) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return body, nil
}

func Test_CalendarCache_Save_Writes_Timestamped_Artifact(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "nested", "calendar_cache.json")
	cache := NewCalendarCache(path, zap.NewNop())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 500_000_000, time.UTC)
	cache.now = func() time.Time { return fixed }

	// Act
	cache.Save(context.Background(), "BEGIN:VCALENDAR")

	// Assert
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var artifact map[string]any
	require.NoError(t, json.Unmarshal(raw, &artifact))
	require.Equal(t, "BEGIN:VCALENDAR", artifact["data"])
	require.InDelta(t, float64(fixed.Unix())+0.5, artifact["timestamp"], 0.001)

	savedAt, ok := cache.SavedAt()
	require.True(t, ok)
	require.WithinDuration(t, fixed, savedAt, time.Millisecond)
}

func Test_CalendarCache_Load_Missing_File(t *testing.T) {
	cache := NewCalendarCache(filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())

	data, ok := cache.Load(context.Background())

	require.False(t, ok)
	require.Empty(t, data)
}

func Test_CalendarCache_Load_Corrupt_File_Is_Not_Fatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	cache := NewCalendarCache(path, zap.NewNop())

	data, ok := cache.Load(context.Background())

	require.False(t, ok)
	require.Empty(t, data)
}

func Test_CalendarCache_Falls_Back_To_Mirror(t *testing.T) {
	// Arrange
	mirror := newMemoryMirror()
	writer := NewCalendarCache(filepath.Join(t.TempDir(), "a.json"), zap.NewNop()).WithMirror(mirror, "team/cache.json")
	writer.Save(context.Background(), "from the bucket")

	reader := NewCalendarCache(filepath.Join(t.TempDir(), "b.json"), zap.NewNop()).WithMirror(mirror, "team/cache.json")

	// Act
	data, ok := reader.Load(context.Background())

	// Assert
	require.True(t, ok)
	require.Equal(t, "from the bucket", data)
}

func Test_CalendarCache_Mirror_Failure_Keeps_Local_Copy(t *testing.T) {
	mirror := newMemoryMirror()
	mirror.failPut = true
	cache := NewCalendarCache(filepath.Join(t.TempDir(), "cache.json"), zap.NewNop()).WithMirror(mirror, "")

	cache.Save(context.Background(), "local only")
	data, ok := cache.Load(context.Background())

	require.True(t, ok)
	require.Equal(t, "local only", data)
}
