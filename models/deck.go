package models

import "time"

// UnknownOwner is substituted when a deck references a player that is
// missing from the current player snapshot. The load must not fail on a
// dangling owner reference.
const UnknownOwner = "unknown owner"

// Deck belongs to exactly one player. ColorIdentity is a free-form tag
// ("WUBRG", "Izzet", ...); empty means colorless.
type Deck struct {
	ID            string `json:"deck_id" gorm:"column:deck_id;primaryKey;type:uuid;default:gen_random_uuid()"`
	DeckName      string `json:"deck_name" gorm:"not null"`
	PlayerID      string `json:"player_id" gorm:"index;not null"`
	ColorIdentity string `json:"color_identity"`

	CreatedAt time.Time `json:"created_at"`

	// Filled during snapshot enrichment, never persisted.
	OwnerName   string `json:"owner_name" gorm:"-"`
	DisplayName string `json:"display_name" gorm:"-"`
}

func (Deck) TableName() string {
	return "decks"
}

// ComposeDisplayName builds the "Deck (Owner)" label shown in the
// recording form selection lists. Two decks may collide on this label
// when deck name and owner both match; resolution treats that as an
// integrity error rather than picking one.
func ComposeDisplayName(deckName, ownerName string) string {
	return deckName + " (" + ownerName + ")"
}
