package workers

import (
	"strings"
	"testing"

	"commander-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCSV(t *testing.T) {
	rows := []models.HistoryRow{
		{
			MatchID:        "m1",
			Date:           "2026-08-30",
			PlayerName:     "Ana",
			DeckName:       "Atraxa, \"Praetors' Voice\"",
			ColorIdentity:  "WUBG",
			IsWinner:       true,
			TurnEliminated: 0,
		},
		{
			MatchID:        "m1",
			Date:           "2026-08-30",
			PlayerName:     "Bo",
			DeckName:       "Krenko",
			ColorIdentity:  "R",
			TurnEliminated: 9,
			EliminatedBy:   "Ana",
		},
	}

	data, err := HistoryCSV(rows)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "match_id,date,player_name,deck_name,color_identity,is_winner,turn_eliminated,eliminated_by", lines[0])
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "9")
	assert.Contains(t, lines[2], "Ana")
}

func TestHistoryCSVEmpty(t *testing.T) {
	data, err := HistoryCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "match_id,date,player_name,deck_name,color_identity,is_winner,turn_eliminated,eliminated_by\n", string(data))
}
