package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The view must emit exactly one row per (match, participant) pair even
// when a match was recorded with more than one winner seat. A join
// against the winner rows would duplicate every non-winner row once per
// winner, so the eliminated_by lookup has to be a correlated single-row
// subquery.
func TestFullHistoryViewSingleWinnerLookup(t *testing.T) {
	sql := strings.ToLower(FullHistoryViewSQL)

	assert.Contains(t, sql, "left join lateral", "winner lookup must be a correlated subquery, not a row-multiplying join")
	assert.Contains(t, sql, "limit 1", "winner lookup must yield at most one row")
	assert.Contains(t, sql, "order by w_p.name", "multi-winner matches must resolve eliminated_by deterministically")
	assert.NotContains(t, sql, "join match_participants winner", "direct winner join fans out on multi-winner matches")
}

func TestFullHistoryViewColumns(t *testing.T) {
	sql := strings.ToLower(FullHistoryViewSQL)
	for _, col := range []string{
		"match_id", "date", "player_name", "deck_name",
		"color_identity", "is_winner", "turn_eliminated", "eliminated_by",
	} {
		assert.Contains(t, sql, col)
	}
}
