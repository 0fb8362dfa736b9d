// Package registry holds the process-wide set of active games and the
// ephemeral index from transport connection ids to player sessions. It does
// lookup, insert and remove only; game semantics live in the game aggregate.
package registry

import (
	"fmt"
	"sync"

	"multiworld/pkg/game"
	"multiworld/pkg/identity"
)

// Session binds a transport connection to a player within a game. The index
// is never persisted and is rebuilt on every (re)connect. GameID duplicates
// Game.ID() so index scans never reach into the game's own lock.
type Session struct {
	Game     *game.Game
	GameID   string
	PlayerID string
}

type Registry struct {
	mu    sync.RWMutex
	games map[string]*game.Game
	conns map[string]Session
}

func New() *Registry {
	return &Registry{
		games: make(map[string]*game.Game),
		conns: make(map[string]Session),
	}
}

// CreateGame allocates a collision-free game id and inserts the game built
// for it, as one atomic step. Insert success is the source of truth for id
// uniqueness, not a pre-check.
func (r *Registry) CreateGame(build func(id string) *game.Game) (*game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := identity.NotIn(func(id string) bool {
		_, taken := r.games[id]
		return taken
	})
	if err != nil {
		return nil, fmt.Errorf("failed to allocate game id: %v", err)
	}
	g := build(id)
	r.games[id] = g
	return g, nil
}

// GetOrInsert inserts a game under its own id if absent and returns the
// registered instance. The boolean reports whether an existing instance was
// found, as with sync.Map.LoadOrStore. Used when a game is rehydrated from
// the durable store and two loads race: the first insert wins.
func (r *Registry) GetOrInsert(g *game.Game) (*game.Game, bool) {
	id := g.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.games[id]; ok {
		return existing, true
	}
	r.games[id] = g
	return g, false
}

func (r *Registry) Get(gameID string) (*game.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[gameID]
	return g, ok
}

func (r *Registry) Remove(gameID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[gameID]; !ok {
		return false
	}
	delete(r.games, gameID)
	return true
}

// Games returns the currently registered games.
func (r *Registry) Games() []*game.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	games := make([]*game.Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	return games
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// IndexConnection maps a transport connection id to a player session.
func (r *Registry) IndexConnection(connID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = s
}

// ResolveConnection returns the session for a connection id, if any.
func (r *Registry) ResolveConnection(connID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.conns[connID]
	return s, ok
}

// RemoveConnection drops a connection id from the index and returns the
// session it mapped to.
func (r *Registry) RemoveConnection(connID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
	}
	return s, ok
}

// GameConnections returns the connection ids of every player currently
// connected to a game.
func (r *Registry) GameConnections(gameID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var connIDs []string
	for connID, s := range r.conns {
		if s.GameID == gameID {
			connIDs = append(connIDs, connID)
		}
	}
	return connIDs
}

// PlayerConnection returns the connection id a player is currently
// reachable on, if any.
func (r *Registry) PlayerConnection(gameID, playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for connID, s := range r.conns {
		if s.GameID == gameID && s.PlayerID == playerID {
			return connID, true
		}
	}
	return "", false
}

// RemovePlayerConnections drops any connection ids currently mapped to the
// given player, enforcing the one-connection-per-player invariant on rejoin.
// The removed connection ids are returned.
func (r *Registry) RemovePlayerConnections(gameID, playerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for connID, s := range r.conns {
		if s.PlayerID == playerID && s.GameID == gameID {
			delete(r.conns, connID)
			removed = append(removed, connID)
		}
	}
	return removed
}

// RemoveGameConnections drops every connection-index entry belonging to a
// game's players and returns the removed connection ids. Callers evicting a
// game must call this before removing the game itself.
func (r *Registry) RemoveGameConnections(gameID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for connID, s := range r.conns {
		if s.GameID == gameID {
			delete(r.conns, connID)
			removed = append(removed, connID)
		}
	}
	return removed
}
