// Package game implements the aggregate for one multiplayer session: the
// roster, admin election and the game/player lifecycle state machines. All
// mutation of a game's shared state goes through this aggregate, which
// serializes it behind a per-game lock. Operations on different games never
// contend.
package game

import (
	"fmt"
	"sync"
	"time"

	"multiworld/pkg/game/types"
	"multiworld/pkg/identity"
)

type Game struct {
	mu    sync.Mutex
	state *types.GameState
	now   func() time.Time
}

type NewGameOptions struct {
	ID                  string
	URL                 string
	Version             string
	Type                types.GameType
	Seed                string
	Persist             bool
	SendItemsOnComplete bool
}

// New creates a game in the Created state with an empty roster.
func New(opts NewGameOptions) *Game {
	now := time.Now()
	return &Game{
		state: &types.GameState{
			ID:                  opts.ID,
			URL:                 opts.URL,
			Version:             opts.Version,
			Type:                opts.Type,
			Status:              types.GameStatusCreated,
			CreatedAt:           now,
			LastActivityAt:      now,
			Seed:                opts.Seed,
			Persist:             opts.Persist,
			SendItemsOnComplete: opts.SendItemsOnComplete,
		},
		now: time.Now,
	}
}

// FromState rebuilds a game aggregate around state loaded from the durable
// store. Every player starts out disconnected.
func FromState(state *types.GameState) *Game {
	for _, p := range state.Players {
		p.IsConnected = false
	}
	return &Game{
		state: state,
		now:   time.Now,
	}
}

func (g *Game) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.ID
}

func (g *Game) Status() types.GameStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Status
}

func (g *Game) Persist() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Persist
}

// LastActivity returns the game's heartbeat timestamp.
func (g *Game) LastActivity() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.LastActivityAt
}

// StateSnapshot returns a deep copy of the game state, safe to serialize or
// persist without holding the game lock.
func (g *Game) StateSnapshot() *types.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Copy()
}

// PlayerSnapshot returns a deep copy of one player's state.
func (g *Game) PlayerSnapshot(playerID string) (*types.PlayerState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p.Copy(), nil
}

// GenerationSnapshot returns the generation payloads of every player that has
// submitted one, in roster order.
func (g *Game) GenerationSnapshot() []types.PlayerGenerationData {
	g.mu.Lock()
	defer g.mu.Unlock()
	data := make([]types.PlayerGenerationData, 0, len(g.state.Players))
	for _, p := range g.state.Players {
		if !p.HasGenerationData() {
			continue
		}
		data = append(data, types.PlayerGenerationData{
			PlayerID: p.ID,
			WorldID:  *p.WorldID,
			Data:     p.GenerationData,
		})
	}
	return data
}

// Authenticate reports whether the given secret key matches the player. A
// missing player and a wrong key are indistinguishable to the caller.
func (g *Game) Authenticate(playerID, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	return p != nil && key != "" && p.Key == key
}

// IsAdmin reports whether the player is the game's current admin.
func (g *Game) IsAdmin(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	return p != nil && p.IsAdmin
}

// Join adds a player to the roster and returns the new player's id and secret
// key. The first player to join becomes admin.
func (g *Game) Join(name, phoneticName, version string) (playerID, key string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Status != types.GameStatusCreated {
		return "", "", ErrGameStarted
	}
	if version != g.state.Version {
		return "", "", fmt.Errorf("%w: client version %q does not match game version %q", ErrVersionMismatch, version, g.state.Version)
	}

	name = SanitizeName(name)
	if name == "" {
		return "", "", ErrInvalidName
	}
	for _, p := range g.state.Players {
		if p.Name == name {
			return "", "", ErrNameInUse
		}
	}

	playerID, err = identity.NotIn(func(id string) bool {
		return g.state.Player(id) != nil
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to allocate player id: %v", err)
	}
	key = identity.New()

	player := types.NewPlayerState(playerID, key, name, phoneticName)
	player.IsConnected = true
	if g.currentAdmin() == nil {
		player.IsAdmin = true
	}
	g.state.Players = append(g.state.Players, player)
	g.touch()
	return playerID, key, nil
}

// Rejoin marks an existing player as connected again. Key verification has
// already happened at the boundary.
func (g *Game) Rejoin(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.IsConnected = true
	g.touch()
	return nil
}

// Disconnect marks a player as disconnected. The player stays on the roster.
func (g *Game) Disconnect(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.IsConnected = false
	g.touch()
	return nil
}

// SetPlayerConfig stores a player's serialized generation config. Before the
// game starts this flips the player between NotReady and Ready.
func (g *Game) SetPlayerConfig(playerID, config string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.Config = config
	if g.state.Status == types.GameStatusCreated && p.Status.CanTransition(types.PlayerStatusReady) {
		p.Status = types.PlayerStatusReady
	}
	g.touch()
	return nil
}

// SetPlayerGenerationData stores the serialized world layout the player needs
// to patch their rom, along with the world slot it occupies.
func (g *Game) SetPlayerGenerationData(playerID string, worldID int, data string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.WorldID = &worldID
	p.GenerationData = data
	g.touch()
	return nil
}

// UpdatePlayerState applies the client-controlled fields of an incoming player
// state. Identity, admin flag, connection flag and tracked collections are
// server-owned and never overwritten; an illegal status transition is ignored.
func (g *Game) UpdatePlayerState(playerID string, incoming types.PlayerState) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.PhoneticName = incoming.PhoneticName
	p.AdditionalData = incoming.AdditionalData
	if incoming.Config != "" {
		p.Config = incoming.Config
	}
	if incoming.WorldID != nil {
		worldID := *incoming.WorldID
		p.WorldID = &worldID
	}
	if p.Status.CanTransition(incoming.Status) {
		p.Status = incoming.Status
	}
	g.touch()
	return nil
}

// Start transitions the game from Created to Started. Every roster player
// must have submitted a config and generation data; the validation hash is
// assigned exactly once, here.
func (g *Game) Start(validationHash string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.Status != types.GameStatusCreated {
		return ErrGameStarted
	}
	for _, p := range g.state.Players {
		if p.Config == "" {
			return ErrMissingConfig
		}
	}
	for _, p := range g.state.Players {
		if !p.HasGenerationData() {
			return ErrMissingGenerationData
		}
	}

	g.state.ValidationHash = validationHash
	g.state.Status = types.GameStatusStarted
	for _, p := range g.state.Players {
		if p.Status.CanTransition(types.PlayerStatusPlaying) {
			p.Status = types.PlayerStatusPlaying
		}
	}
	g.touch()
	return nil
}

// Forfeit ends a player's participation. Before the game starts the player is
// removed outright and their durable rows are meaningless (removed=true);
// after start they stay on the roster as Forfeit so other players can collect
// their items. If the forfeit leaves every player terminal the game completes.
func (g *Game) Forfeit(playerID string) (removed bool, gameCompleted bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.state.Player(playerID)
	if p == nil {
		return false, false, ErrPlayerNotFound
	}
	if p.Status.IsTerminal() {
		return false, false, ErrPlayerFinished
	}

	if g.state.Status == types.GameStatusCreated {
		wasAdmin := p.IsAdmin
		g.state.RemovePlayer(playerID)
		if wasAdmin {
			g.electAdmin()
		}
		g.touch()
		return true, false, nil
	}

	p.Status = types.PlayerStatusForfeit
	if p.IsAdmin {
		p.IsAdmin = false
		g.electAdmin()
	}
	gameCompleted = g.completeIfAllTerminal()
	g.touch()
	return false, gameCompleted, nil
}

// Complete marks a player as having finished the game, with the same admin
// re-election and all-terminal handling as Forfeit.
func (g *Game) Complete(playerID string) (gameCompleted bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.state.Player(playerID)
	if p == nil {
		return false, ErrPlayerNotFound
	}
	if p.Status.IsTerminal() {
		return false, ErrPlayerFinished
	}
	if !p.Status.CanTransition(types.PlayerStatusCompleted) {
		return false, ErrGameNotStarted
	}

	p.Status = types.PlayerStatusCompleted
	if p.IsAdmin {
		p.IsAdmin = false
		g.electAdmin()
	}
	gameCompleted = g.completeIfAllTerminal()
	g.touch()
	return gameCompleted, nil
}

// SyncPlayerWorld merges a client's full world snapshot into the stored copy
// and returns only what actually changed. The server computes the diff;
// client-supplied deltas are never trusted.
func (g *Game) SyncPlayerWorld(playerID string, snapshot types.WorldSnapshot) (types.WorldDiff, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.state.Player(playerID)
	if p == nil {
		return types.WorldDiff{}, ErrPlayerNotFound
	}
	diff := p.ApplySnapshot(snapshot)
	g.touch()
	return diff, nil
}

// TrackLocation marks a single location as cleared.
func (g *Game) TrackLocation(playerID string, locationID int64) (types.WorldDiff, error) {
	at := g.nowFn()
	return g.SyncPlayerWorld(playerID, types.WorldSnapshot{
		Locations: []types.LocationState{{LocationID: locationID, Tracked: true, TrackedAt: &at}},
	})
}

// TrackItem records a single item's tracking value.
func (g *Game) TrackItem(playerID, item string, trackingValue int) (types.WorldDiff, error) {
	at := g.nowFn()
	return g.SyncPlayerWorld(playerID, types.WorldSnapshot{
		Items: []types.ItemState{{Item: item, TrackingValue: trackingValue, TrackedAt: &at}},
	})
}

// TrackDungeon marks a single dungeon as cleared.
func (g *Game) TrackDungeon(playerID, dungeon string) (types.WorldDiff, error) {
	at := g.nowFn()
	return g.SyncPlayerWorld(playerID, types.WorldSnapshot{
		Dungeons: []types.DungeonState{{Dungeon: dungeon, Tracked: true, TrackedAt: &at}},
	})
}

// TrackBoss marks a single boss as defeated.
func (g *Game) TrackBoss(playerID, boss string) (types.WorldDiff, error) {
	at := g.nowFn()
	return g.SyncPlayerWorld(playerID, types.WorldSnapshot{
		Bosses: []types.BossState{{Boss: boss, Tracked: true, TrackedAt: &at}},
	})
}

// UpdateStatus sets the game status. The status is monotonic; moving
// backwards is rejected.
func (g *Game) UpdateStatus(next types.GameStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.state.Status.CanTransition(next) {
		return ErrStatusRegression
	}
	g.state.Status = next
	g.touch()
	return nil
}

func (g *Game) nowFn() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now()
}

// currentAdmin returns the non-terminal admin, if any. Callers hold g.mu.
func (g *Game) currentAdmin() *types.PlayerState {
	for _, p := range g.state.Players {
		if p.IsAdmin && !p.Status.IsTerminal() {
			return p
		}
	}
	return nil
}

// electAdmin promotes the first non-terminal player in roster order. If none
// remains, the game has no admin. Callers hold g.mu.
func (g *Game) electAdmin() {
	for _, p := range g.state.Players {
		p.IsAdmin = false
	}
	for _, p := range g.state.Players {
		if !p.Status.IsTerminal() {
			p.IsAdmin = true
			return
		}
	}
}

// completeIfAllTerminal flips the game to Completed when every roster player
// is terminal. Callers hold g.mu.
func (g *Game) completeIfAllTerminal() bool {
	if len(g.state.Players) == 0 {
		return false
	}
	for _, p := range g.state.Players {
		if !p.Status.IsTerminal() {
			return false
		}
	}
	if !g.state.Status.CanTransition(types.GameStatusCompleted) {
		return false
	}
	g.state.Status = types.GameStatusCompleted
	return true
}

func (g *Game) touch() {
	g.state.Touch(g.now())
}
