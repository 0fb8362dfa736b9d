package repositories

import (
	"context"
	"testing"
	"time"

	gametypes "multiworld/pkg/game/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	ctx := context.Background()
	repo, err := NewSQLiteRepository(ctx, ":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close(ctx) })
	return repo
}

func testGameState(lastActivity time.Time) *gametypes.GameState {
	player := gametypes.NewPlayerState("p1", "key", "Alice", "alees")
	worldID := 0
	player.WorldID = &worldID
	player.Config = "config"
	player.Status = gametypes.PlayerStatusReady
	player.IsAdmin = true
	return &gametypes.GameState{
		ID:             "g1",
		URL:            "ws://localhost:8080?game=g1",
		Version:        "5.1.0",
		Type:           gametypes.GameTypeMultiworld,
		Status:         gametypes.GameStatusCreated,
		CreatedAt:      lastActivity,
		LastActivityAt: lastActivity,
		Seed:           "12345",
		Persist:        true,
		Players:        []*gametypes.PlayerState{player},
	}
}

func TestSQLiteRepository_GameRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	state := testGameState(now)
	require.NoError(t, repo.UpsertGame(ctx, state))

	at := now.Add(time.Minute)
	require.NoError(t, repo.SavePlayerWorld(ctx, "g1", "p1", &gametypes.WorldDiff{
		Locations: []gametypes.LocationState{{LocationID: 42, Tracked: true, TrackedAt: &at}},
		Items:     []gametypes.ItemState{{Item: "Hookshot", TrackingValue: 1, TrackedAt: &at}},
		Dungeons:  []gametypes.DungeonState{{Dungeon: "EP", Tracked: true, TrackedAt: &at}},
		Bosses:    []gametypes.BossState{{Boss: "Kraid", Tracked: true, TrackedAt: &at}},
	}))

	loaded, err := repo.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, state.ID, loaded.ID)
	assert.Equal(t, state.Version, loaded.Version)
	assert.Equal(t, state.Status, loaded.Status)
	assert.True(t, loaded.Persist)

	require.Len(t, loaded.Players, 1)
	p := loaded.Players[0]
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "key", p.Key)
	assert.True(t, p.IsAdmin)
	require.NotNil(t, p.WorldID)
	assert.Equal(t, 0, *p.WorldID)

	require.Contains(t, p.Locations, int64(42))
	assert.True(t, p.Locations[42].Tracked)
	require.Contains(t, p.Items, "Hookshot")
	assert.Equal(t, 1, p.Items["Hookshot"].TrackingValue)
	require.Contains(t, p.Dungeons, "EP")
	require.Contains(t, p.Bosses, "Kraid")
}

func TestSQLiteRepository_UpsertIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	state := testGameState(now)
	require.NoError(t, repo.UpsertGame(ctx, state))

	state.Status = gametypes.GameStatusStarted
	state.ValidationHash = "hash"
	require.NoError(t, repo.UpsertGame(ctx, state))

	loaded, err := repo.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, gametypes.GameStatusStarted, loaded.Status)
	assert.Equal(t, "hash", loaded.ValidationHash)
	assert.Len(t, loaded.Players, 1)
}

func TestSQLiteRepository_ReplayedDiffConverges(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.UpsertGame(ctx, testGameState(now)))
	at := now.Add(time.Minute)
	diff := &gametypes.WorldDiff{
		Locations: []gametypes.LocationState{{LocationID: 42, Tracked: true, TrackedAt: &at}},
		Items:     []gametypes.ItemState{{Item: "Hookshot", TrackingValue: 1, TrackedAt: &at}},
		Dungeons:  []gametypes.DungeonState{{Dungeon: "EP", Tracked: true, TrackedAt: &at}},
		Bosses:    []gametypes.BossState{{Boss: "Kraid", Tracked: true, TrackedAt: &at}},
	}
	require.NoError(t, repo.SavePlayerWorld(ctx, "g1", "p1", diff))
	first, err := repo.LoadGame(ctx, "g1")
	require.NoError(t, err)

	// Writing the identical diff again must not change the stored rows.
	require.NoError(t, repo.SavePlayerWorld(ctx, "g1", "p1", diff))
	second, err := repo.LoadGame(ctx, "g1")
	require.NoError(t, err)

	require.Len(t, second.Players, 1)
	p := second.Players[0]
	assert.Len(t, p.Locations, 1)
	assert.Len(t, p.Items, 1)
	assert.Len(t, p.Dungeons, 1)
	assert.Len(t, p.Bosses, 1)
	assert.Equal(t, first.Players[0].Locations, p.Locations)
	assert.Equal(t, first.Players[0].Items, p.Items)
	assert.Equal(t, first.Players[0].Dungeons, p.Dungeons)
	assert.Equal(t, first.Players[0].Bosses, p.Bosses)
}

func TestSQLiteRepository_DeletePlayerCascades(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.UpsertGame(ctx, testGameState(now)))
	at := now
	require.NoError(t, repo.SavePlayerWorld(ctx, "g1", "p1", &gametypes.WorldDiff{
		Locations: []gametypes.LocationState{{LocationID: 1, Tracked: true, TrackedAt: &at}},
	}))

	require.NoError(t, repo.DeletePlayer(ctx, "g1", "p1"))

	loaded, err := repo.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Players)
}

func TestSQLiteRepository_LoadMissingGame(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.LoadGame(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestSQLiteRepository_DeleteGamesOlderThan(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	old := testGameState(now.Add(-48 * time.Hour))
	require.NoError(t, repo.UpsertGame(ctx, old))

	fresh := testGameState(now)
	fresh.ID = "g2"
	fresh.Players = nil
	require.NoError(t, repo.UpsertGame(ctx, fresh))

	removed, err := repo.DeleteGamesOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, removed)

	_, err = repo.LoadGame(ctx, "g1")
	assert.True(t, IsNotFound(err))
	_, err = repo.LoadGame(ctx, "g2")
	assert.NoError(t, err)
}
