package models

import "time"

// DateLayout is the calendar-date format used for match dates and the
// history view. Matches are day-granular; time of day is not recorded.
const DateLayout = "2006-01-02"

// Match records one game. Insert-only: matches are never edited or
// deleted by the service (DeleteMatch exists solely as the compensation
// step for a failed participant batch).
type Match struct {
	ID    string `json:"match_id" gorm:"column:match_id;primaryKey;type:uuid;default:gen_random_uuid()"`
	Date  string `json:"date" gorm:"type:date;not null"`
	Notes string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
}

func (Match) TableName() string {
	return "matches"
}

// MatchParticipant is one seat of a recorded match, 2-4 per match.
// Rank is 1 for the winner and 0 for everyone else; it does not encode
// a finishing position for non-winners.
type MatchParticipant struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	MatchID        string `json:"match_id" gorm:"index;not null"`
	PlayerID       string `json:"player_id" gorm:"index;not null"`
	DeckID         string `json:"deck_id" gorm:"index;not null"`
	IsWinner       bool   `json:"is_winner"`
	TurnEliminated int    `json:"turn_eliminated" gorm:"check:turn_eliminated >= 0"`
	Rank           int    `json:"rank"`
}

func (MatchParticipant) TableName() string {
	return "match_participants"
}

// Table seat constraints: the form renders four seats, a valid match
// needs at least two of them filled.
const (
	MinParticipants = 2
	MaxParticipants = 4
)
