package repository

import (
	"context"

	"commander-tracker/models"
)

// DefaultHistoryLimit bounds how many history rows a single load pulls
// into memory. The view is ordered date descending, so the cap drops
// the oldest rows first.
const DefaultHistoryLimit = 10000

// Store is the read/write contract against the hosted database.
type Store interface {
	// LoadPlayers returns all players ordered by name. Empty table
	// yields an empty slice, never nil.
	LoadPlayers(ctx context.Context) ([]models.Player, error)

	// LoadDecks returns all decks, unordered and unenriched (owner
	// name and display name are filled by the snapshot cache).
	LoadDecks(ctx context.Context) ([]models.Deck, error)

	// LoadHistory returns up to limit rows of the flattened history
	// view, ordered by date descending. limit <= 0 falls back to
	// DefaultHistoryLimit.
	LoadHistory(ctx context.Context, limit int) ([]models.HistoryRow, error)

	// InsertMatch writes the match record and fills in the
	// store-assigned identifier.
	InsertMatch(ctx context.Context, match *models.Match) error

	// InsertParticipants writes one batch of participant rows, all
	// referencing an already inserted match.
	InsertParticipants(ctx context.Context, participants []models.MatchParticipant) error

	// DeleteMatch removes a match row. Only used to compensate a
	// failed participant insert on stores without transactions.
	DeleteMatch(ctx context.Context, matchID string) error
}

// TxStore is implemented by stores that can run the match insert and
// the participant batch as one transaction. When available it replaces
// the InsertMatch/InsertParticipants/DeleteMatch sequence and removes
// the orphaned-match window entirely.
type TxStore interface {
	Store

	// RecordMatch atomically inserts the match plus its participants
	// and returns the assigned match identifier.
	RecordMatch(ctx context.Context, match *models.Match, participants []models.MatchParticipant) (string, error)
}
