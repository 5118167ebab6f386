package services

import (
	"context"
	"strings"
	"time"

	"team-rsvp/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RSVPService is the attendance ledger: users and their In/Out votes per game.
type RSVPService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	now func() time.Time
}

func NewRSVPService(db *gorm.DB, logger *zap.Logger) *RSVPService {
	return &RSVPService{DB: db, Logger: logger, now: time.Now}
}

// CanonicalName is the stored form of a display name.
func CanonicalName(name string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// GetOrCreateUser resolves name case-insensitively, creating the user on first sight.
func (s *RSVPService) GetOrCreateUser(ctx context.Context, name string) (string, error) {
	return s.getOrCreateUser(s.DB.WithContext(ctx), name)
}

func (s *RSVPService) getOrCreateUser(tx *gorm.DB, name string) (string, error) {
	canonical := CanonicalName(name)
	if canonical == "" {
		return "", errors.Wrap(ErrInvalidInput, "name is required")
	}

	user, err := findUser(tx, canonical)
	if err == nil {
		return user.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", storeErr("find user", err)
	}

	// a concurrent request may insert the same name; ignore the conflict and read the winner
	fresh := models.User{ID: uuid.NewString(), Name: canonical}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return "", storeErr("create user", err)
	}

	user, err = findUser(tx, canonical)
	if err != nil {
		return "", storeErr("find user", err)
	}
	return user.ID, nil
}

func findUser(tx *gorm.DB, canonical string) (*models.User, error) {
	var user models.User
	if err := tx.Where("LOWER(name) = ?", canonical).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SetRSVP records participation for (userID, eventUID), replacing any earlier vote.
func (s *RSVPService) SetRSVP(ctx context.Context, userID, eventUID string, p models.Participation) (*models.RSVP, error) {
	if !p.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "participation %q", p)
	}

	var rsvp *models.RSVP
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rsvp, err = s.replaceRSVP(tx, userID, eventUID, p)
		return err
	})
	if err != nil {
		return nil, storeErr("set rsvp", err)
	}
	return rsvp, nil
}

func (s *RSVPService) replaceRSVP(tx *gorm.DB, userID, eventUID string, p models.Participation) (*models.RSVP, error) {
	if err := tx.Where("user_id = ? AND event_uid = ?", userID, eventUID).Delete(&models.RSVP{}).Error; err != nil {
		return nil, err
	}

	rsvp := &models.RSVP{
		ID:            uuid.NewString(),
		UserID:        userID,
		EventUID:      eventUID,
		Participation: p,
		Timestamp:     s.now().UTC(),
	}
	// A concurrent first vote for the same pair may land between the delete and
	// the insert; the unique pair index turns that into an in-place update.
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "event_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "participation", "timestamp"}),
	}).Create(rsvp).Error
	if err != nil {
		return nil, err
	}
	return rsvp, nil
}

// ClearRSVP deletes one vote by id. Deleting a missing id is not an error.
func (s *RSVPService) ClearRSVP(ctx context.Context, rsvpID string) error {
	if err := s.DB.WithContext(ctx).Where("id = ?", rsvpID).Delete(&models.RSVP{}).Error; err != nil {
		return storeErr("clear rsvp", err)
	}
	return nil
}

// ClearOwnRSVP deletes one vote by id if it was cast under name. A missing id is not an
// error; a vote belonging to someone else yields ErrForbidden.
func (s *RSVPService) ClearOwnRSVP(ctx context.Context, name, rsvpID string) error {
	canonical := CanonicalName(name)
	if canonical == "" {
		return errors.Wrap(ErrInvalidInput, "name is required")
	}

	db := s.DB.WithContext(ctx)
	tx := db.
		Where("id = ? AND user_id IN (?)", rsvpID, db.Model(&models.User{}).Select("id").Where("LOWER(name) = ?", canonical)).
		Delete(&models.RSVP{})
	if tx.Error != nil {
		return storeErr("clear rsvp", tx.Error)
	}
	if tx.RowsAffected > 0 {
		return nil
	}

	var others int64
	if err := db.Model(&models.RSVP{}).Where("id = ?", rsvpID).Count(&others).Error; err != nil {
		return storeErr("clear rsvp", err)
	}
	if others > 0 {
		return errors.Wrapf(ErrForbidden, "rsvp %s belongs to another player", rsvpID)
	}
	return nil
}

// Counts returns how many players are In and Out for a game.
func (s *RSVPService) Counts(ctx context.Context, eventUID string) (in, out int64, err error) {
	var rows []struct {
		Participation models.Participation
		N             int64
	}

	err = s.DB.WithContext(ctx).Model(&models.RSVP{}).
		Select("participation, COUNT(*) AS n").
		Where("event_uid = ?", eventUID).
		Group("participation").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, storeErr("count rsvps", err)
	}

	for _, row := range rows {
		switch row.Participation {
		case models.ParticipationIn:
			in = row.N
		case models.ParticipationOut:
			out = row.N
		}
	}
	return in, out, nil
}

// ListForEvent returns who voted for a game, in the order they voted.
func (s *RSVPService) ListForEvent(ctx context.Context, eventUID string) ([]models.Attendee, error) {
	attendees := []models.Attendee{}
	err := s.DB.WithContext(ctx).Model(&models.RSVP{}).
		Select("users.name AS name, rsvps.participation AS participation, rsvps.timestamp AS rsvped_at").
		Joins("JOIN users ON users.id = rsvps.user_id").
		Where("rsvps.event_uid = ?", eventUID).
		Order("rsvps.timestamp ASC").
		Scan(&attendees).Error
	if err != nil {
		return nil, storeErr("list rsvps", err)
	}
	return attendees, nil
}

// ForUser returns every vote cast under name, matched case-insensitively.
func (s *RSVPService) ForUser(ctx context.Context, name string) ([]models.RSVP, error) {
	rsvps := []models.RSVP{}
	err := s.DB.WithContext(ctx).
		Select("rsvps.*").
		Joins("JOIN users ON users.id = rsvps.user_id").
		Where("LOWER(users.name) = ?", CanonicalName(name)).
		Order("rsvps.timestamp ASC").
		Find(&rsvps).Error
	if err != nil {
		return nil, storeErr("list user rsvps", err)
	}
	return rsvps, nil
}

// UserRSVPForEvent returns name's current vote for a game, or nil if there is none.
func (s *RSVPService) UserRSVPForEvent(ctx context.Context, name, eventUID string) (*models.RSVP, error) {
	return userRSVPForEvent(s.DB.WithContext(ctx), name, eventUID)
}

func userRSVPForEvent(tx *gorm.DB, name, eventUID string) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := tx.
		Select("rsvps.*").
		Joins("JOIN users ON users.id = rsvps.user_id").
		Where("LOWER(users.name) = ? AND rsvps.event_uid = ?", CanonicalName(name), eventUID).
		First(&rsvp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user rsvp", err)
	}
	return &rsvp, nil
}

// Toggle applies an In/Out button press: pressing the current status withdraws the
// vote, anything else replaces it. Returns the vote now on record (nil when withdrawn).
func (s *RSVPService) Toggle(ctx context.Context, session models.Session, eventUID string, p models.Participation) (*models.RSVP, error) {
	if !p.Valid() {
		return nil, errors.Wrapf(ErrInvalidInput, "participation %q", p)
	}
	if strings.TrimSpace(session.Name) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "session has no name")
	}

	var current *models.RSVP
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := userRSVPForEvent(tx, session.Name, eventUID)
		if err != nil {
			return err
		}

		if existing != nil && existing.Participation == p {
			return tx.Where("id = ?", existing.ID).Delete(&models.RSVP{}).Error
		}

		userID, err := s.getOrCreateUser(tx, session.Name)
		if err != nil {
			return err
		}
		current, err = s.replaceRSVP(tx, userID, eventUID, p)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, storeErr("toggle rsvp", err)
	}

	s.Logger.Debug("rsvp toggled",
		zap.String("user", CanonicalName(session.Name)),
		zap.String("event_uid", eventUID),
		zap.Bool("withdrawn", current == nil),
	)
	return current, nil
}

// ClearAllForUser withdraws every vote cast under name.
func (s *RSVPService) ClearAllForUser(ctx context.Context, name string) (int64, error) {
	canonical := CanonicalName(name)
	if canonical == "" {
		return 0, errors.Wrap(ErrInvalidInput, "name is required")
	}

	tx := s.DB.WithContext(ctx).
		Where("user_id IN (?)", s.DB.Model(&models.User{}).Select("id").Where("LOWER(name) = ?", canonical)).
		Delete(&models.RSVP{})
	if tx.Error != nil {
		return 0, storeErr("clear user rsvps", tx.Error)
	}
	return tx.RowsAffected, nil
}
