package models

import (
	"strings"
	"time"
)

// Participation is the two-valued attendance intent.
type Participation string

const (
	ParticipationIn  Participation = "In"
	ParticipationOut Participation = "Out"
)

func (p Participation) Valid() bool {
	return p == ParticipationIn || p == ParticipationOut
}

// ParseParticipation accepts "in"/"out" in any case.
func ParseParticipation(s string) (Participation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in":
		return ParticipationIn, true
	case "out":
		return ParticipationOut, true
	}
	return "", false
}

// RSVP is a user's vote for one game. There is at most one row per (user, event).
// EventUID is intentionally not a foreign key; games come and go with the feed.
type RSVP struct {
	ID            string        `gorm:"primaryKey" json:"id"`
	UserID        string        `gorm:"uniqueIndex:uniq_rsvp_user_event;not null" json:"user_id"`
	EventUID      string        `gorm:"column:event_uid;uniqueIndex:uniq_rsvp_user_event;index;not null" json:"event_uid"`
	Participation Participation `gorm:"type:varchar(8);not null" json:"participation"`
	Timestamp     time.Time     `gorm:"index;not null" json:"timestamp"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

// Attendee is one row of the "who's playing" list for a game.
type Attendee struct {
	Name          string        `json:"name" gorm:"column:name"`
	Participation Participation `json:"participation" gorm:"column:participation"`
	RSVPedAt      time.Time     `json:"rsvped_at" gorm:"column:rsvped_at"`
}
