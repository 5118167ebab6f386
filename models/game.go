// models/game.go
package models

import (
	"strings"
	"time"
)

// GameResult is the outcome parsed out of a game's calendar name.
type GameResult string

const (
	GameResultWin  GameResult = "Win"
	GameResultLoss GameResult = "Loss"
)

// Game is one scheduled event from the team calendar feed.
// Rows are created/updated on every feed refresh and never deleted.
type Game struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	EventUID  string    `json:"event_uid" gorm:"column:event_uid;uniqueIndex;not null"` // stable id from the feed
	Name      string    `json:"name" gorm:"not null"`
	StartTime time.Time `json:"start_time" gorm:"index;not null"`
	Location  string    `json:"location"`
	Opponent  string    `json:"opponent"`
	Slug      string    `json:"slug" gorm:"index"`

	// Result/score stay nil until a result token shows up in Name
	Result *GameResult `json:"result,omitempty" gorm:"type:varchar(8)"`
	Score  *string     `json:"score,omitempty" gorm:"type:varchar(16)"`

	LastUpdated time.Time `json:"last_updated"`
}

func (Game) TableName() string {
	return "games"
}

// HasResult reports whether a win/loss has been recorded for the game.
func (g Game) HasResult() bool {
	return g.Result != nil
}

// ResultLabel renders the result the way it is shown to players, e.g. "Win 5-2".
func (g Game) ResultLabel() string {
	if g.Result == nil {
		return ""
	}
	if g.Score == nil || strings.TrimSpace(*g.Score) == "" {
		return string(*g.Result)
	}
	return string(*g.Result) + " " + *g.Score
}
