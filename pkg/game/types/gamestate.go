package types

import "time"

// GameState holds everything the server knows about one multiplayer session.
// It is only ever mutated through the game aggregate, which guards it with the
// per-game lock; copies produced by Copy are safe to hand to other goroutines.
type GameState struct {
	ID                  string         `json:"gameId"`
	URL                 string         `json:"url"`
	Version             string         `json:"version"`
	Type                GameType       `json:"type"`
	Status              GameStatus     `json:"status"`
	CreatedAt           time.Time      `json:"createdAt"`
	LastActivityAt      time.Time      `json:"lastActivityAt"`
	Seed                string         `json:"seed"`
	ValidationHash      string         `json:"validationHash"`
	Persist             bool           `json:"persist"`
	SendItemsOnComplete bool           `json:"sendItemsOnComplete"`
	Players             []*PlayerState `json:"players,omitempty"`
}

// Touch refreshes the activity heartbeat. LastActivityAt only ever increases.
func (s *GameState) Touch(now time.Time) {
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
}

// Player returns the roster entry with the given id, or nil.
func (s *GameState) Player(playerID string) *PlayerState {
	for _, p := range s.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// RemovePlayer deletes the roster entry with the given id, preserving the
// order of the remaining players.
func (s *GameState) RemovePlayer(playerID string) bool {
	for i, p := range s.Players {
		if p.ID == playerID {
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Copy returns a deep copy of the game state, including every player and
// their tracked sub-collections.
func (s *GameState) Copy() *GameState {
	cp := *s
	cp.Players = make([]*PlayerState, 0, len(s.Players))
	for _, p := range s.Players {
		cp.Players = append(cp.Players, p.Copy())
	}
	return &cp
}
