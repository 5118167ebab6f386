package services

import (
	"testing"
	"time"

	"team-rsvp/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := OpenDatabase(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// stepClock returns a clock that advances by one second on every call.
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Second)
		return now
	}
}

func newGame(uid, name string, start time.Time) models.Game {
	result, score := ExtractResult(name)
	return models.Game{
		EventUID:  uid,
		Name:      name,
		StartTime: start,
		Opponent:  Opponent(name),
		Result:    result,
		Score:     score,
	}
}
