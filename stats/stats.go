// Package stats turns the flattened match history into the numbers the
// dashboard renders. Everything here is a pure function over history
// rows; nothing touches the database or the cache.
package stats

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"commander-tracker/models"
)

// PeriodAll selects the full history instead of a single calendar year.
const PeriodAll = "all"

// ColorlessLabel replaces an empty color identity during aggregation.
const ColorlessLabel = "Colorless"

// MinGamesForRanking is the minimum sample size for the win-rate
// ranking. A rate computed over fewer games is noise and is excluded
// rather than shown.
const MinGamesForRanking = 5

// TopN caps the ranking and color charts.
const TopN = 10

// Summary is the dashboard's top-line KPI block.
type Summary struct {
	TotalMatches  int `json:"total_matches"`
	ActivePlayers int `json:"active_players"`
	DistinctDecks int `json:"distinct_decks"`
}

// PlayerWinRate is one row of the win-rate ranking.
type PlayerWinRate struct {
	PlayerName string  `json:"player_name"`
	Games      int     `json:"games"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
}

// ColorCount is one slice of the color-identity chart.
type ColorCount struct {
	Identity string `json:"identity"`
	Count    int    `json:"count"`
}

// FilterByPeriod keeps rows whose date falls in the given calendar
// year, or all rows when period is PeriodAll. Rows with an unparseable
// date are dropped; a single bad row must not take down the whole
// aggregation.
func FilterByPeriod(rows []models.HistoryRow, period string) []models.HistoryRow {
	if period == "" || period == PeriodAll {
		return rows
	}
	year, err := strconv.Atoi(period)
	if err != nil {
		return []models.HistoryRow{}
	}

	filtered := []models.HistoryRow{}
	for _, row := range rows {
		d, err := time.Parse(models.DateLayout, row.Date)
		if err != nil {
			continue
		}
		if d.Year() == year {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// Summarize computes the KPI block over an already filtered row set.
func Summarize(rows []models.HistoryRow) Summary {
	matches := map[string]struct{}{}
	players := map[string]struct{}{}
	decks := map[string]struct{}{}
	for _, row := range rows {
		matches[row.MatchID] = struct{}{}
		players[row.PlayerName] = struct{}{}
		decks[row.DeckName] = struct{}{}
	}
	return Summary{
		TotalMatches:  len(matches),
		ActivePlayers: len(players),
		DistinctDecks: len(decks),
	}
}

// WinRates ranks players by win rate over the filtered rows. Players
// under MinGamesForRanking games are excluded. Ties break by games
// played, then by name, so the ordering is deterministic. Returns at
// most TopN entries.
func WinRates(rows []models.HistoryRow) []PlayerWinRate {
	type tally struct {
		matches map[string]struct{}
		wins    int
	}
	byPlayer := map[string]*tally{}
	for _, row := range rows {
		t, ok := byPlayer[row.PlayerName]
		if !ok {
			t = &tally{matches: map[string]struct{}{}}
			byPlayer[row.PlayerName] = t
		}
		t.matches[row.MatchID] = struct{}{}
		if row.IsWinner {
			t.wins++
		}
	}

	ranking := []PlayerWinRate{}
	for name, t := range byPlayer {
		games := len(t.matches)
		if games < MinGamesForRanking {
			continue
		}
		ranking = append(ranking, PlayerWinRate{
			PlayerName: name,
			Games:      games,
			Wins:       t.wins,
			WinRate:    float64(t.wins) / float64(games) * 100,
		})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].WinRate != ranking[j].WinRate {
			return ranking[i].WinRate > ranking[j].WinRate
		}
		if ranking[i].Games != ranking[j].Games {
			return ranking[i].Games > ranking[j].Games
		}
		return ranking[i].PlayerName < ranking[j].PlayerName
	})

	if len(ranking) > TopN {
		ranking = ranking[:TopN]
	}
	return ranking
}

// ColorBreakdown counts rows per color identity, folding the empty
// identity into ColorlessLabel. Sorted by count descending (name
// ascending on ties), capped at TopN.
func ColorBreakdown(rows []models.HistoryRow) []ColorCount {
	counts := map[string]int{}
	for _, row := range rows {
		identity := row.ColorIdentity
		if identity == "" {
			identity = ColorlessLabel
		}
		counts[identity]++
	}

	breakdown := []ColorCount{}
	for identity, count := range counts {
		breakdown = append(breakdown, ColorCount{Identity: identity, Count: count})
	}

	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Count != breakdown[j].Count {
			return breakdown[i].Count > breakdown[j].Count
		}
		return breakdown[i].Identity < breakdown[j].Identity
	})

	if len(breakdown) > TopN {
		breakdown = breakdown[:TopN]
	}
	return breakdown
}

// YearsOf lists the calendar years present in the history, newest
// first, for the dashboard's period filter. Unparseable dates are
// skipped.
func YearsOf(rows []models.HistoryRow) []int {
	seen := map[int]struct{}{}
	for _, row := range rows {
		d, err := time.Parse(models.DateLayout, row.Date)
		if err != nil {
			continue
		}
		seen[d.Year()] = struct{}{}
	}
	years := []int{}
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// SearchHistory keeps rows where any displayed column contains the
// query, case-insensitively. An empty query returns the input as-is.
func SearchHistory(rows []models.HistoryRow, query string) []models.HistoryRow {
	query = strings.TrimSpace(query)
	if query == "" {
		return rows
	}
	needle := strings.ToLower(query)

	filtered := []models.HistoryRow{}
	for _, row := range rows {
		haystack := strings.ToLower(strings.Join([]string{
			row.MatchID,
			row.Date,
			row.PlayerName,
			row.DeckName,
			row.ColorIdentity,
			strconv.FormatBool(row.IsWinner),
			strconv.Itoa(row.TurnEliminated),
			row.EliminatedBy,
		}, "\x00"))
		if strings.Contains(haystack, needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// PlayerSummary aggregates one player's record: games, wins, win rate
// and distinct decks piloted. found reports whether the player appears
// in the rows at all.
func PlayerSummary(rows []models.HistoryRow, playerName string) (summary PlayerWinRate, decksPiloted []string, found bool) {
	matches := map[string]struct{}{}
	decks := map[string]struct{}{}
	wins := 0
	for _, row := range rows {
		if row.PlayerName != playerName {
			continue
		}
		found = true
		matches[row.MatchID] = struct{}{}
		decks[row.DeckName] = struct{}{}
		if row.IsWinner {
			wins++
		}
	}
	if !found {
		return PlayerWinRate{}, []string{}, false
	}

	decksPiloted = make([]string, 0, len(decks))
	for d := range decks {
		decksPiloted = append(decksPiloted, d)
	}
	sort.Strings(decksPiloted)

	games := len(matches)
	return PlayerWinRate{
		PlayerName: playerName,
		Games:      games,
		Wins:       wins,
		WinRate:    float64(wins) / float64(games) * 100,
	}, decksPiloted, true
}
