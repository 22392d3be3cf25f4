package models

// HistoryRow is one (match, participant) pair from the denormalized
// view_full_history database view. Read-only: aggregation and the
// history table consume it, nothing writes it.
//
// Date stays a string on purpose: the aggregation layer parses it per
// row and drops rows it cannot parse instead of failing the whole load.
type HistoryRow struct {
	MatchID        string `json:"match_id" gorm:"column:match_id"`
	Date           string `json:"date"`
	PlayerName     string `json:"player_name"`
	DeckName       string `json:"deck_name"`
	ColorIdentity  string `json:"color_identity"`
	IsWinner       bool   `json:"is_winner"`
	TurnEliminated int    `json:"turn_eliminated"`
	EliminatedBy   string `json:"eliminated_by"`
}

func (HistoryRow) TableName() string {
	return "view_full_history"
}

// FullHistoryViewSQL (re)creates the view the history reads come from.
// The view must stay one row per (match, participant) pair, so the
// eliminated_by lookup is a correlated subquery picking a single winner
// (first by name) rather than a join: nothing stops a match from being
// recorded with two winner seats, and a plain join on the winner rows
// would fan every non-winner row out once per winner. A turn_eliminated
// of 0 means the participant was never knocked out.
const FullHistoryViewSQL = `
CREATE OR REPLACE VIEW view_full_history AS
SELECT
    m.match_id,
    to_char(m.date, 'YYYY-MM-DD') AS date,
    p.name                         AS player_name,
    d.deck_name,
    COALESCE(d.color_identity, '') AS color_identity,
    mp.is_winner,
    mp.turn_eliminated,
    COALESCE(elim.name, '')        AS eliminated_by
FROM match_participants mp
JOIN matches m  ON m.match_id  = mp.match_id
JOIN players p  ON p.player_id = mp.player_id
JOIN decks   d  ON d.deck_id   = mp.deck_id
LEFT JOIN LATERAL (
    SELECT w_p.name
    FROM match_participants w
    JOIN players w_p ON w_p.player_id = w.player_id
    WHERE w.match_id = mp.match_id AND w.is_winner
    ORDER BY w_p.name
    LIMIT 1
) elim ON NOT mp.is_winner
`
