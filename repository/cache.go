package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"commander-tracker/models"
)

// ErrConnectivity marks a failure to reach the hosted database. Callers
// render an empty state instead of crashing the page.
var ErrConnectivity = errors.New("store unreachable")

// DefaultCacheTTL matches the original dashboard's 10 minute data cache.
const DefaultCacheTTL = 600 * time.Second

// Snapshot holds the three read sets the dashboard works from. They are
// loaded and expired together: a match write touches all three, so
// per-set expiry would only ever serve torn views.
type Snapshot struct {
	Players []models.Player
	Decks   []models.Deck
	History []models.HistoryRow
}

// EmptySnapshot returns a zero-data snapshot with non-nil slices, the
// shape downstream consumers expect when the store is unreachable.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Players: []models.Player{},
		Decks:   []models.Deck{},
		History: []models.HistoryRow{},
	}
}

// SnapshotCache is the get-or-refresh layer between the HTTP surface
// and the store. A single Invalidate clears everything at once; there
// is no per-key expiry.
type SnapshotCache struct {
	store        Store
	ttl          time.Duration
	historyLimit int

	// injectable for expiry tests
	now func() time.Time

	mu        sync.Mutex
	cached    *Snapshot
	expiresAt time.Time
}

func NewSnapshotCache(store Store, ttl time.Duration, historyLimit int) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &SnapshotCache{
		store:        store,
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Snapshot returns the cached data, refreshing from the store when the
// TTL has lapsed. On a refresh failure it returns an empty snapshot
// together with a connectivity error; the previous cache entry is kept
// expired so the next call retries.
func (c *SnapshotCache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Before(c.expiresAt) {
		return c.cached, nil
	}

	snap, err := c.refresh(ctx)
	if err != nil {
		log.Printf("[CACHE] refresh failed: %v", err)
		return EmptySnapshot(), fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	c.cached = snap
	c.expiresAt = c.now().Add(c.ttl)
	return snap, nil
}

// Invalidate drops the whole snapshot. Called after a successful match
// write so the next read sees the new data.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.expiresAt = time.Time{}
}

func (c *SnapshotCache) refresh(ctx context.Context) (*Snapshot, error) {
	players, err := c.store.LoadPlayers(ctx)
	if err != nil {
		return nil, err
	}
	decks, err := c.store.LoadDecks(ctx)
	if err != nil {
		return nil, err
	}
	history, err := c.store.LoadHistory(ctx, c.historyLimit)
	if err != nil {
		return nil, err
	}

	EnrichDecks(decks, players)

	return &Snapshot{Players: players, Decks: decks, History: history}, nil
}

// EnrichDecks resolves each deck's owner name from the player list and
// derives the "Deck (Owner)" display label, then sorts the decks by
// that label for the selection list. A deck whose owner is missing from
// the player list gets the UnknownOwner sentinel instead of failing the
// whole load.
func EnrichDecks(decks []models.Deck, players []models.Player) {
	ownerByID := make(map[string]string, len(players))
	for _, p := range players {
		ownerByID[p.ID] = p.Name
	}

	for i := range decks {
		owner, ok := ownerByID[decks[i].PlayerID]
		if !ok {
			owner = models.UnknownOwner
		}
		decks[i].OwnerName = owner
		decks[i].DisplayName = models.ComposeDisplayName(decks[i].DeckName, owner)
	}

	sort.Slice(decks, func(i, j int) bool {
		return decks[i].DisplayName < decks[j].DisplayName
	})
}
