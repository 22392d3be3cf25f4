package repository

import (
	"context"
	"fmt"

	"commander-tracker/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore backs the Store contract with Postgres through GORM.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Migrate creates the tables and (re)creates the flattened history
// view. Safe to run on every startup.
func (s *GormStore) Migrate() error {
	if err := s.DB.AutoMigrate(
		&models.Player{},
		&models.Deck{},
		&models.Match{},
		&models.MatchParticipant{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	if err := s.DB.Exec(models.FullHistoryViewSQL).Error; err != nil {
		return fmt.Errorf("failed to create history view: %w", err)
	}
	return nil
}

func (s *GormStore) LoadPlayers(ctx context.Context) ([]models.Player, error) {
	players := []models.Player{}
	if err := s.DB.WithContext(ctx).Order("name").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	return players, nil
}

func (s *GormStore) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	decks := []models.Deck{}
	if err := s.DB.WithContext(ctx).Find(&decks).Error; err != nil {
		return nil, fmt.Errorf("failed to load decks: %w", err)
	}
	return decks, nil
}

func (s *GormStore) LoadHistory(ctx context.Context, limit int) ([]models.HistoryRow, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows := []models.HistoryRow{}
	err := s.DB.WithContext(ctx).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return rows, nil
}

func (s *GormStore) InsertMatch(ctx context.Context, match *models.Match) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if err := s.DB.WithContext(ctx).Create(match).Error; err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

func (s *GormStore) InsertParticipants(ctx context.Context, participants []models.MatchParticipant) error {
	if len(participants) == 0 {
		return fmt.Errorf("participant batch must not be empty")
	}
	for i := range participants {
		if participants[i].ID == "" {
			participants[i].ID = uuid.NewString()
		}
	}
	if err := s.DB.WithContext(ctx).Create(&participants).Error; err != nil {
		return fmt.Errorf("failed to insert participants: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteMatch(ctx context.Context, matchID string) error {
	if err := s.DB.WithContext(ctx).Delete(&models.Match{}, "match_id = ?", matchID).Error; err != nil {
		return fmt.Errorf("failed to delete match %s: %w", matchID, err)
	}
	return nil
}

// RecordMatch runs the match insert and the participant batch in one
// database transaction, so a failed batch never leaves an orphaned
// match row behind.
func (s *GormStore) RecordMatch(ctx context.Context, match *models.Match, participants []models.MatchParticipant) (string, error) {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	for i := range participants {
		participants[i].MatchID = match.ID
		if participants[i].ID == "" {
			participants[i].ID = uuid.NewString()
		}
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(match).Error; err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
		if err := tx.Create(&participants).Error; err != nil {
			return fmt.Errorf("failed to insert participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return match.ID, nil
}
