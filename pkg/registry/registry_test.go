package registry

import (
	"sync"
	"testing"

	"multiworld/pkg/game"
	gametypes "multiworld/pkg/game/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame(id string) *game.Game {
	return game.New(game.NewGameOptions{
		ID:      id,
		Version: "5.1.0",
		Type:    gametypes.GameTypeMultiworld,
	})
}

func TestRegistry_CreateGame(t *testing.T) {
	r := New()

	g, err := r.CreateGame(func(id string) *game.Game { return newGame(id) })
	require.NoError(t, err)
	require.NotNil(t, g)

	got, ok := r.Get(g.ID())
	assert.True(t, ok)
	assert.Same(t, g, got)
}

func TestRegistry_CreateGame_Concurrent(t *testing.T) {
	r := New()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CreateGame(func(id string) *game.Game { return newGame(id) })
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, n, r.Len())
}

func TestRegistry_GetOrInsert(t *testing.T) {
	r := New()

	first := newGame("g1")
	got, loaded := r.GetOrInsert(first)
	assert.Same(t, first, got)
	assert.False(t, loaded)

	// A concurrent loader of the same game gets the existing aggregate.
	second := newGame("g1")
	got, loaded = r.GetOrInsert(second)
	assert.Same(t, first, got)
	assert.True(t, loaded)
}

func TestRegistry_Remove(t *testing.T) {
	r := New()
	g, err := r.CreateGame(func(id string) *game.Game { return newGame(id) })
	require.NoError(t, err)

	assert.True(t, r.Remove(g.ID()))
	assert.False(t, r.Remove(g.ID()))
	_, ok := r.Get(g.ID())
	assert.False(t, ok)
}

func TestRegistry_Connections(t *testing.T) {
	r := New()
	g := newGame("g1")
	r.GetOrInsert(g)

	r.IndexConnection("c1", Session{Game: g, GameID: "g1", PlayerID: "p1"})
	r.IndexConnection("c2", Session{Game: g, GameID: "g1", PlayerID: "p2"})

	s, ok := r.ResolveConnection("c1")
	require.True(t, ok)
	assert.Equal(t, "p1", s.PlayerID)

	assert.ElementsMatch(t, []string{"c1", "c2"}, r.GameConnections("g1"))

	connID, ok := r.PlayerConnection("g1", "p2")
	require.True(t, ok)
	assert.Equal(t, "c2", connID)

	removed := r.RemovePlayerConnections("g1", "p1")
	assert.Equal(t, []string{"c1"}, removed)
	_, ok = r.ResolveConnection("c1")
	assert.False(t, ok)

	removed = r.RemoveGameConnections("g1")
	assert.Equal(t, []string{"c2"}, removed)
	assert.Empty(t, r.GameConnections("g1"))
}

func TestRegistry_RemoveConnection(t *testing.T) {
	r := New()
	g := newGame("g1")
	r.GetOrInsert(g)
	r.IndexConnection("c1", Session{Game: g, GameID: "g1", PlayerID: "p1"})

	s, ok := r.RemoveConnection("c1")
	require.True(t, ok)
	assert.Equal(t, "p1", s.PlayerID)

	_, ok = r.RemoveConnection("c1")
	assert.False(t, ok)
}
