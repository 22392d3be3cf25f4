package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"commander-tracker/models"
	"commander-tracker/repository"
	"commander-tracker/stats"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

// TrackerService serves the dashboard reads and the match-recording
// write. Reads go through the snapshot cache; the write goes straight
// to the store and invalidates the cache on success.
type TrackerService struct {
	Store repository.Store
	Cache *repository.SnapshotCache
}

func NewTrackerService(store repository.Store, cache *repository.SnapshotCache) *TrackerService {
	return &TrackerService{Store: store, Cache: cache}
}

// SeatInput is one of the four table seats of the recording form. The
// preferred path carries the opaque identifiers fetched with the
// selection lists; player/deck names are the compatibility shim for
// clients that can only post back display strings.
type SeatInput struct {
	PlayerID        string `json:"player_id"`
	DeckID          string `json:"deck_id"`
	PlayerName      string `json:"player_name"`
	DeckDisplayName string `json:"deck_display_name"`
	IsWinner        bool   `json:"is_winner"`
	TurnEliminated  int    `json:"turn_eliminated"`
}

// RecordMatchInput is the full recording form payload.
type RecordMatchInput struct {
	Date  string      `json:"date"`
	Notes string      `json:"notes"`
	Seats []SeatInput `json:"seats"`
}

func (in SeatInput) filled() bool {
	return (in.PlayerID != "" || in.PlayerName != "") &&
		(in.DeckID != "" || in.DeckDisplayName != "")
}

// RecordMatch validates and resolves the form seats against the current
// snapshot, writes the match plus its participants, and invalidates the
// cache. Returns the store-assigned match id.
func (s *TrackerService) RecordMatch(ctx context.Context, input RecordMatchInput) (string, error) {
	snap, err := s.Cache.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	seats := []SeatInput{}
	for _, seat := range input.Seats {
		if seat.filled() {
			seats = append(seats, seat)
		}
	}
	if len(seats) < models.MinParticipants {
		return "", ErrInsufficientParticipants
	}
	if len(seats) > models.MaxParticipants {
		return "", fmt.Errorf("a match seats at most %d participants", models.MaxParticipants)
	}

	participants := make([]models.MatchParticipant, 0, len(seats))
	for _, seat := range seats {
		if seat.TurnEliminated < 0 {
			return "", fmt.Errorf("turn_eliminated must be >= 0")
		}
		player, err := resolvePlayer(snap.Players, seat)
		if err != nil {
			return "", err
		}
		deck, err := resolveDeck(snap.Decks, seat)
		if err != nil {
			return "", err
		}
		if deck.PlayerID != player.ID {
			return "", fmt.Errorf("%w: deck %q does not belong to player %q",
				ErrUnresolvableReference, deck.DisplayName, player.Name)
		}

		rank := 0
		if seat.IsWinner {
			rank = 1 // winner marker, not a finishing position
		}
		participants = append(participants, models.MatchParticipant{
			PlayerID:       player.ID,
			DeckID:         deck.ID,
			IsWinner:       seat.IsWinner,
			TurnEliminated: seat.TurnEliminated,
			Rank:           rank,
		})
	}

	match := &models.Match{Date: input.Date, Notes: input.Notes}
	matchID, err := s.writeMatch(ctx, match, participants)
	if err != nil {
		return "", err
	}

	s.Cache.Invalidate()
	log.Printf("✅ [RECORD] match %s recorded with %d participants", matchID, len(participants))
	return matchID, nil
}

// writeMatch prefers the store's transactional path. Without it the two
// inserts run sequentially with a compensating delete; only when that
// delete fails too does an orphaned match escape, reported as
// ErrPartialWrite.
func (s *TrackerService) writeMatch(ctx context.Context, match *models.Match, participants []models.MatchParticipant) (string, error) {
	if tx, ok := s.Store.(repository.TxStore); ok {
		return tx.RecordMatch(ctx, match, participants)
	}

	if err := s.Store.InsertMatch(ctx, match); err != nil {
		return "", fmt.Errorf("failed to insert match: %w", err)
	}
	for i := range participants {
		participants[i].MatchID = match.ID
	}
	if err := s.Store.InsertParticipants(ctx, participants); err != nil {
		if delErr := s.Store.DeleteMatch(ctx, match.ID); delErr != nil {
			log.Printf("🚨 [RECORD] orphaned match %s: participants failed (%v), cleanup failed (%v) — manual cleanup needed", match.ID, err, delErr)
			return "", fmt.Errorf("%w: match %s", ErrPartialWrite, match.ID)
		}
		return "", fmt.Errorf("failed to insert participants: %w", err)
	}
	return match.ID, nil
}

func resolvePlayer(players []models.Player, seat SeatInput) (models.Player, error) {
	ref := seat.PlayerID
	if ref == "" {
		ref = seat.PlayerName
	}

	var hits []models.Player
	for _, p := range players {
		if seat.PlayerID != "" {
			if p.ID == seat.PlayerID {
				hits = append(hits, p)
			}
		} else if p.Name == seat.PlayerName {
			hits = append(hits, p)
		}
	}
	if len(hits) != 1 {
		return models.Player{}, fmt.Errorf("%w: player %q matched %d records",
			ErrUnresolvableReference, ref, len(hits))
	}
	return hits[0], nil
}

func resolveDeck(decks []models.Deck, seat SeatInput) (models.Deck, error) {
	ref := seat.DeckID
	if ref == "" {
		ref = seat.DeckDisplayName
	}

	var hits []models.Deck
	for _, d := range decks {
		if seat.DeckID != "" {
			if d.ID == seat.DeckID {
				hits = append(hits, d)
			}
		} else if d.DisplayName == seat.DeckDisplayName {
			hits = append(hits, d)
		}
	}
	if len(hits) != 1 {
		return models.Deck{}, fmt.Errorf("%w: deck %q matched %d records",
			ErrUnresolvableReference, ref, len(hits))
	}
	return hits[0], nil
}

// --- Fiber endpoints ---

// GetDashboard returns the period filter options, the KPI block, the
// win-rate ranking and the color breakdown for ?year= ("all" default).
func (s *TrackerService) GetDashboard(c *fiber.Ctx) error {
	period := c.Query("year", stats.PeriodAll)

	snap, err := s.Cache.Snapshot(c.Context())
	if err != nil {
		return connectivityResponse(c, err, fiber.Map{
			"period":    period,
			"years":     []int{},
			"summary":   stats.Summary{},
			"win_rates": []stats.PlayerWinRate{},
			"colors":    []stats.ColorCount{},
		})
	}

	filtered := stats.FilterByPeriod(snap.History, period)

	return c.JSON(fiber.Map{
		"period":    period,
		"years":     stats.YearsOf(snap.History),
		"summary":   stats.Summarize(filtered),
		"win_rates": stats.WinRates(filtered),
		"colors":    stats.ColorBreakdown(filtered),
	})
}

// GetHistory returns the raw history rows, newest first, optionally
// narrowed by a case-insensitive ?search= substring across all columns.
func (s *TrackerService) GetHistory(c *fiber.Ctx) error {
	snap, err := s.Cache.Snapshot(c.Context())
	if err != nil {
		return connectivityResponse(c, err, fiber.Map{
			"count":   0,
			"history": []models.HistoryRow{},
		})
	}

	rows := stats.SearchHistory(snap.History, c.Query("search"))
	return c.JSON(fiber.Map{
		"count":   len(rows),
		"history": rows,
	})
}

// GetPlayers returns the player selection list for the recording form.
func (s *TrackerService) GetPlayers(c *fiber.Ctx) error {
	snap, err := s.Cache.Snapshot(c.Context())
	if err != nil {
		return connectivityResponse(c, err, fiber.Map{"players": []models.Player{}})
	}
	return c.JSON(fiber.Map{"players": snap.Players})
}

// GetDecks returns the enriched deck selection list, sorted by display
// name.
func (s *TrackerService) GetDecks(c *fiber.Ctx) error {
	snap, err := s.Cache.Snapshot(c.Context())
	if err != nil {
		return connectivityResponse(c, err, fiber.Map{"decks": []models.Deck{}})
	}
	return c.JSON(fiber.Map{"decks": snap.Decks})
}

// GetPlayerStats serves /players/:slug/stats, matching the slug against
// the slugged player names in the snapshot.
func (s *TrackerService) GetPlayerStats(c *fiber.Ctx) error {
	snap, err := s.Cache.Snapshot(c.Context())
	if err != nil {
		return connectivityResponse(c, err, fiber.Map{
			"stats": stats.PlayerWinRate{},
			"decks": []string{},
		})
	}

	wanted := c.Params("slug")
	for _, p := range snap.Players {
		if slug.Make(p.Name) != wanted {
			continue
		}
		summary, decks, found := stats.PlayerSummary(snap.History, p.Name)
		if !found {
			// known player, no recorded games yet
			summary = stats.PlayerWinRate{PlayerName: p.Name}
			decks = []string{}
		}
		return c.JSON(fiber.Map{
			"player": p.Name,
			"slug":   wanted,
			"stats":  summary,
			"decks":  decks,
		})
	}
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
}

// PostMatch is the gated recording endpoint.
func (s *TrackerService) PostMatch(c *fiber.Ctx) error {
	var input RecordMatchInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if input.Date == "" {
		input.Date = time.Now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, input.Date); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date (use YYYY-MM-DD)"})
	}
	if len(input.Seats) > models.MaxParticipants {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at most 4 seats"})
	}
	for _, seat := range input.Seats {
		if seat.TurnEliminated < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "turn_eliminated must be >= 0"})
		}
	}

	matchID, err := s.RecordMatch(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientParticipants):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ErrUnresolvableReference):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrConnectivity):
			return connectivityResponse(c, err, nil)
		default:
			// ErrPartialWrite lands here too: already logged with the
			// orphaned match id, the user just sees a failure.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record match"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"match_id": matchID})
}

// connectivityResponse is the shared store-unreachable answer. The body
// carries the endpoint's usual keys with empty (never null) collections
// alongside the error, so clients render an empty page without
// synthesizing the shape themselves.
func connectivityResponse(c *fiber.Ctx, err error, empty fiber.Map) error {
	log.Printf("[TRACKER] store unreachable: %v", err)
	body := fiber.Map{"error": "database unreachable, showing empty data"}
	for k, v := range empty {
		body[k] = v
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(body)
}
