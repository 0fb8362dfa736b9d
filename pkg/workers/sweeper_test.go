package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"multiworld/pkg/game"
	gametypes "multiworld/pkg/game/types"
	"multiworld/pkg/persistence"
	"multiworld/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	upserted chan string
	expired  []string
	pruneErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{upserted: make(chan string, 16)}
}

func (f *fakeRepository) Close(context.Context) error { return nil }

func (f *fakeRepository) UpsertGame(_ context.Context, state *gametypes.GameState) error {
	f.upserted <- state.ID
	return nil
}

func (f *fakeRepository) UpsertPlayer(context.Context, string, *gametypes.PlayerState) error {
	return nil
}

func (f *fakeRepository) SavePlayerWorld(context.Context, string, string, *gametypes.WorldDiff) error {
	return nil
}

func (f *fakeRepository) DeletePlayer(context.Context, string, string) error { return nil }

func (f *fakeRepository) LoadGame(context.Context, string) (*gametypes.GameState, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepository) DeleteGamesOlderThan(context.Context, time.Time) ([]string, error) {
	return f.expired, f.pruneErr
}

type fakeCloser struct {
	closed []string
}

func (f *fakeCloser) CloseConnections(connIDs []string) {
	f.closed = append(f.closed, connIDs...)
}

func newSweepFixture(t *testing.T, repo *fakeRepository) (*LifecycleSweeper, *registry.Registry, *fakeCloser) {
	t.Helper()
	r := registry.New()
	gateway := persistence.NewGateway(repo)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go gateway.Start(ctx)

	closer := &fakeCloser{}
	s := NewLifecycleSweeper(NewLifecycleSweeperOptions{
		Registry:    r,
		Gateway:     gateway,
		Closer:      closer,
		IdleTimeout: 10 * time.Minute,
	})
	return s, r, closer
}

func addGame(t *testing.T, r *registry.Registry, persist bool) *game.Game {
	t.Helper()
	g, err := r.CreateGame(func(id string) *game.Game {
		return game.New(game.NewGameOptions{
			ID:      id,
			Version: "5.1.0",
			Type:    gametypes.GameTypeMultiworld,
			Persist: persist,
		})
	})
	require.NoError(t, err)
	return g
}

func TestLifecycleSweeper_FlushesPersistentGames(t *testing.T) {
	repo := newFakeRepository()
	s, r, _ := newSweepFixture(t, repo)
	g := addGame(t, r, true)

	s.Sweep(context.Background())

	select {
	case id := <-repo.upserted:
		assert.Equal(t, g.ID(), id)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for flush")
	}
}

func TestLifecycleSweeper_EvictsIdleGames(t *testing.T) {
	repo := newFakeRepository()
	s, r, closer := newSweepFixture(t, repo)

	now := time.Now()
	idle, _ := r.GetOrInsert(game.FromState(&gametypes.GameState{
		ID:             "g-idle",
		LastActivityAt: now.Add(-20 * time.Minute),
	}))
	active, _ := r.GetOrInsert(game.FromState(&gametypes.GameState{
		ID:             "g-active",
		LastActivityAt: now,
	}))

	r.IndexConnection("c1", registry.Session{Game: idle, GameID: idle.ID(), PlayerID: "p1"})
	s.now = func() time.Time { return now }

	evicted := s.Sweep(context.Background())

	assert.Equal(t, []string{idle.ID()}, evicted)
	assert.Equal(t, []string{"c1"}, closer.closed)
	_, ok := r.Get(idle.ID())
	assert.False(t, ok)
	_, ok = r.Get(active.ID())
	assert.True(t, ok)
}

func TestLifecycleSweeper_ReportsExpiredGames(t *testing.T) {
	repo := newFakeRepository()
	repo.expired = []string{"g-old"}

	var reported []string
	r := registry.New()
	gateway := persistence.NewGateway(repo)
	s := NewLifecycleSweeper(NewLifecycleSweeperOptions{
		Registry: r,
		Gateway:  gateway,
		OnExpired: func(gameIDs []string) {
			reported = append(reported, gameIDs...)
		},
	})

	s.Sweep(context.Background())
	assert.Equal(t, []string{"g-old"}, reported)
}

func TestLifecycleSweeper_PruneErrorDoesNotAbortSweep(t *testing.T) {
	repo := newFakeRepository()
	repo.pruneErr = errors.New("database offline")
	s, r, _ := newSweepFixture(t, repo)
	addGame(t, r, false)

	assert.NotPanics(t, func() { s.Sweep(context.Background()) })
}
