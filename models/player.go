package models

import "time"

// Player is a member of the playgroup. Rows are seeded out-of-band
// (SQL console / admin script); this service only reads them.
type Player struct {
	ID   string `json:"player_id" gorm:"column:player_id;primaryKey;type:uuid;default:gen_random_uuid()"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (Player) TableName() string {
	return "players"
}
