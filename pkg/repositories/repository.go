// Package repositories implements the durable store beneath the persistence
// gateway. The schema is Games(1)—<Players(N)—<{Locations, Items, Dungeons,
// Bosses}, with cascading deletes at both levels.
package repositories

import (
	"context"
	"time"

	gametypes "multiworld/pkg/game/types"
)

type Repository interface {
	Close(ctx context.Context) error
	// UpsertGame writes a game's top-level fields and upserts its roster.
	// Tracked sub-collections are not written here; they flow through
	// SavePlayerWorld.
	UpsertGame(ctx context.Context, state *gametypes.GameState) error
	// UpsertPlayer writes a single player row.
	UpsertPlayer(ctx context.Context, gameID string, player *gametypes.PlayerState) error
	// SavePlayerWorld upserts the changed tracked entries of a player's
	// world. Applying the same diff twice converges to the same rows.
	SavePlayerWorld(ctx context.Context, gameID, playerID string, diff *gametypes.WorldDiff) error
	// DeletePlayer removes a player row and, by cascade, all of their
	// tracked entries.
	DeletePlayer(ctx context.Context, gameID, playerID string) error
	// LoadGame reconstructs a full game state, including every player's
	// tracked sub-collections. Returns ErrNotFound for unknown ids.
	LoadGame(ctx context.Context, gameID string) (*gametypes.GameState, error)
	// DeleteGamesOlderThan removes games whose last activity predates the
	// cutoff, cascading down to all player rows, and returns the removed ids.
	DeleteGamesOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}
