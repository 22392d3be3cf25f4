package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commander-tracker/middleware"
	"commander-tracker/models"
	"commander-tracker/repository"
	"commander-tracker/services"
	"commander-tracker/stats"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	players []models.Player
	decks   []models.Deck
	history []models.HistoryRow

	down bool
}

func (s *stubStore) LoadPlayers(ctx context.Context) ([]models.Player, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.players, nil
}
func (s *stubStore) LoadDecks(ctx context.Context) ([]models.Deck, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return append([]models.Deck{}, s.decks...), nil
}
func (s *stubStore) LoadHistory(ctx context.Context, limit int) ([]models.HistoryRow, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.history, nil
}
func (s *stubStore) InsertMatch(ctx context.Context, match *models.Match) error {
	match.ID = "match-1"
	return nil
}
func (s *stubStore) InsertParticipants(ctx context.Context, participants []models.MatchParticipant) error {
	return nil
}
func (s *stubStore) DeleteMatch(ctx context.Context, matchID string) error { return nil }

func testApp() *fiber.App {
	app, _ := testAppWithStore()
	return app
}

func testAppWithStore() (*fiber.App, *stubStore) {
	store := &stubStore{
		players: []models.Player{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Bo"}},
		decks: []models.Deck{
			{ID: "d1", DeckName: "Atraxa", PlayerID: "p1", ColorIdentity: "WUBG"},
			{ID: "d2", DeckName: "Krenko", PlayerID: "p2", ColorIdentity: "R"},
		},
		history: []models.HistoryRow{
			{MatchID: "m1", Date: "2025-06-01", PlayerName: "Ana", DeckName: "Atraxa", ColorIdentity: "WUBG", IsWinner: true},
			{MatchID: "m1", Date: "2025-06-01", PlayerName: "Bo", DeckName: "Krenko", ColorIdentity: "R", TurnEliminated: 8},
		},
	}
	cache := repository.NewSnapshotCache(store, time.Minute, 0)
	svc := services.NewTrackerService(store, cache)

	app := fiber.New()
	SetupTrackerRoutes(app, svc, middleware.NewSharedSecretAuthorizer("mtg2026"))
	return app, store
}

func TestDashboardRoute(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/dashboard?year=2025", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Period  string `json:"period"`
		Years   []int  `json:"years"`
		Summary struct {
			TotalMatches int `json:"total_matches"`
		} `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2025", body.Period)
	assert.Equal(t, []int{2025}, body.Years)
	assert.Equal(t, 1, body.Summary.TotalMatches)
}

func TestHistoryRouteSearch(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/history?search=krenko", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Count   int                 `json:"count"`
		History []models.HistoryRow `json:"history"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Bo", body.History[0].PlayerName)
}

func TestDeckListIsEnriched(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/decks", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Decks []models.Deck `json:"decks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Decks, 2)
	assert.Equal(t, "Atraxa (Ana)", body.Decks[0].DisplayName)
}

func TestPlayerStatsRoute(t *testing.T) {
	app := testApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/players/ana/stats", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Player string `json:"player"`
		Stats  struct {
			Games int `json:"games"`
			Wins  int `json:"wins"`
		} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Ana", body.Player)
	assert.Equal(t, 1, body.Stats.Games)
	assert.Equal(t, 1, body.Stats.Wins)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/players/urza/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// An unreachable database must answer with the endpoint's usual keys
// holding empty (never null) collections, so clients render an empty
// page instead of special-casing the failure shape.
func TestUnreachableStoreReturnsEmptyCollections(t *testing.T) {
	app, store := testAppWithStore()
	store.down = true

	t.Run("history", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/history", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

		var body struct {
			Error   string               `json:"error"`
			Count   int                  `json:"count"`
			History *[]models.HistoryRow `json:"history"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Error)
		assert.Equal(t, 0, body.Count)
		require.NotNil(t, body.History, "history must be an empty array, not null")
		assert.Empty(t, *body.History)
	})

	t.Run("dashboard", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/dashboard", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

		var body struct {
			Years    *[]int                  `json:"years"`
			WinRates *[]stats.PlayerWinRate  `json:"win_rates"`
			Colors   *[]stats.ColorCount     `json:"colors"`
			Summary  *map[string]interface{} `json:"summary"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NotNil(t, body.Years)
		require.NotNil(t, body.WinRates)
		require.NotNil(t, body.Colors)
		require.NotNil(t, body.Summary)
		assert.Empty(t, *body.WinRates)
	})

	t.Run("players and decks", func(t *testing.T) {
		for _, path := range []string{"/api/players", "/api/decks"} {
			resp, err := app.Test(httptest.NewRequest("GET", path, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

			var body map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			key := strings.TrimPrefix(path, "/api/")
			assert.Equal(t, "[]", string(body[key]), "%s must be an empty array", key)
		}
	})
}

func TestPostMatchGate(t *testing.T) {
	app := testApp()
	payload := `{"date":"2026-08-30","seats":[` +
		`{"player_id":"p1","deck_id":"d1","is_winner":true},` +
		`{"player_id":"p2","deck_id":"d2","turn_eliminated":8}]}`

	t.Run("rejected without secret", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/matches", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("accepted with secret", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/matches", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Group-Secret", "mtg2026")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body struct {
			MatchID string `json:"match_id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "match-1", body.MatchID)
	})

	t.Run("one seat is a user error", func(t *testing.T) {
		single := `{"date":"2026-08-30","seats":[{"player_id":"p1","deck_id":"d1"}]}`
		req := httptest.NewRequest("POST", "/api/matches", strings.NewReader(single))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Group-Secret", "mtg2026")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
