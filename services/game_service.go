package services

import (
	"context"
	"time"

	"team-rsvp/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameService is the persistent mirror of the calendar feed.
type GameService struct {
	DB     *gorm.DB
	Logger *zap.Logger

	now func() time.Time
}

func NewGameService(db *gorm.DB, logger *zap.Logger) *GameService {
	return &GameService{DB: db, Logger: logger, now: time.Now}
}

// Upsert inserts the game or updates the stored row with the same EventUID.
// A stored result and score survive together unless g carries a new result. On return g holds the stored row.
func (s *GameService) Upsert(ctx context.Context, g *models.Game) error {
	if g.EventUID == "" {
		return errors.Wrap(ErrInvalidInput, "event uid is required")
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.StartTime = g.StartTime.UTC()
	g.LastUpdated = s.now().UTC()

	updates := clause.AssignmentColumns([]string{
		"name", "start_time", "location", "opponent", "slug", "last_updated",
	})
	updates = append(updates,
		clause.Assignment{Column: clause.Column{Name: "result"}, Value: gorm.Expr("COALESCE(excluded.result, games.result)")},
		clause.Assignment{Column: clause.Column{Name: "score"}, Value: gorm.Expr("CASE WHEN excluded.result IS NOT NULL THEN excluded.score ELSE games.score END")},
	)

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_uid"}},
		DoUpdates: updates,
	}).Create(g).Error
	if err != nil {
		return storeErr("upsert game", err)
	}

	stored, err := s.GetByUID(ctx, g.EventUID)
	if err != nil {
		return err
	}
	*g = *stored
	return nil
}

// UpdateResult sets only the result and score of one game.
func (s *GameService) UpdateResult(ctx context.Context, eventUID string, result *models.GameResult, score *string) error {
	tx := s.DB.WithContext(ctx).Model(&models.Game{}).
		Where("event_uid = ?", eventUID).
		Updates(map[string]any{
			"result": result,
			"score":  score,
		})
	if tx.Error != nil {
		return storeErr("update result", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "game %s", eventUID)
	}
	return nil
}

// ListAll returns every stored game, earliest first.
func (s *GameService) ListAll(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := s.DB.WithContext(ctx).Order("start_time ASC").Find(&games).Error; err != nil {
		return nil, storeErr("list games", err)
	}
	return games, nil
}

func (s *GameService) GetByUID(ctx context.Context, eventUID string) (*models.Game, error) {
	var game models.Game
	err := s.DB.WithContext(ctx).Where("event_uid = ?", eventUID).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "game %s", eventUID)
	}
	if err != nil {
		return nil, storeErr("get game", err)
	}
	return &game, nil
}

// ListBetween returns games starting in [from, to).
func (s *GameService) ListBetween(ctx context.Context, from, to time.Time) ([]models.Game, error) {
	var games []models.Game
	err := s.DB.WithContext(ctx).
		Where("start_time >= ? AND start_time < ?", from.UTC(), to.UTC()).
		Order("start_time ASC").
		Find(&games).Error
	if err != nil {
		return nil, storeErr("list games between", err)
	}
	return games, nil
}

// BackfillResults re-parses the names of games that have no result yet and records
// any result found. Returns how many games were updated.
func (s *GameService) BackfillResults(ctx context.Context) (int, error) {
	var pending []models.Game
	if err := s.DB.WithContext(ctx).Where("result IS NULL").Find(&pending).Error; err != nil {
		return 0, storeErr("list games without result", err)
	}

	updated := 0
	for _, g := range pending {
		result, score := ExtractResult(g.Name)
		if result == nil {
			continue
		}
		if err := s.UpdateResult(ctx, g.EventUID, result, score); err != nil {
			s.Logger.Warn("failed to record game result", zap.String("event_uid", g.EventUID), zap.Error(err))
			continue
		}
		updated++
	}

	return updated, nil
}
