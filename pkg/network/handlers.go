package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"multiworld/pkg/events"
	"multiworld/pkg/game"
	gametypes "multiworld/pkg/game/types"
	"multiworld/pkg/log"
	"multiworld/pkg/messages"
	"multiworld/pkg/persistence"
	"multiworld/pkg/registry"
	"multiworld/pkg/repositories"
)

var (
	errGameNotFound      = errors.New("unable to find game")
	errNotAdmin          = errors.New("only the game admin can do that")
	errProtocolOutOfDate = fmt.Errorf("client protocol version does not match server version %d", messages.ProtocolVersion)
)

const loadTimeout = 5 * time.Second

// CoordinationHandler applies client messages to the game registry and
// fans the results back out over the hub. Message handling is
// synchronous per connection; cross-game ordering is not defined.
type CoordinationHandler struct {
	registry  *registry.Registry
	gateway   *persistence.Gateway
	hub       *Hub
	publisher events.Publisher
	serverURL string
}

type NewCoordinationHandlerOptions struct {
	Registry  *registry.Registry
	Gateway   *persistence.Gateway
	Hub       *Hub
	Publisher events.Publisher
	ServerURL string
}

func NewCoordinationHandler(opts NewCoordinationHandlerOptions) *CoordinationHandler {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CoordinationHandler{
		registry:  opts.Registry,
		gateway:   opts.Gateway,
		hub:       opts.Hub,
		publisher: publisher,
		serverURL: opts.ServerURL,
	}
}

// HandleMessage dispatches a single client message.
func (h *CoordinationHandler) HandleMessage(connID string, msg *messages.Message) {
	var err error
	switch msg.Type {
	case messages.MessageTypeClientCreateGame:
		err = h.handleCreateGame(connID, msg.Payload)
	case messages.MessageTypeClientJoinGame:
		err = h.handleJoinGame(connID, msg.Payload)
	case messages.MessageTypeClientRejoinGame:
		err = h.handleRejoinGame(connID, msg.Payload)
	case messages.MessageTypeClientUpdatePlayerState:
		err = h.handleUpdatePlayerState(connID, msg.Payload)
	case messages.MessageTypeClientUpdatePlayerConfig:
		err = h.handleUpdatePlayerConfig(connID, msg.Payload)
	case messages.MessageTypeClientUpdatePlayerWorld:
		err = h.handleUpdatePlayerWorld(connID, msg.Payload)
	case messages.MessageTypeClientStartGame:
		err = h.handleStartGame(connID, msg.Payload)
	case messages.MessageTypeClientForfeitGame:
		err = h.handleForfeitGame(connID, msg.Payload)
	case messages.MessageTypeClientCompleteGame:
		err = h.handleCompleteGame(connID, msg.Payload)
	case messages.MessageTypeClientUpdateGameStatus:
		err = h.handleUpdateGameStatus(connID, msg.Payload)
	case messages.MessageTypeClientTrackLocation:
		err = h.handleTrackLocation(connID, msg.Payload)
	case messages.MessageTypeClientTrackItem:
		err = h.handleTrackItem(connID, msg.Payload)
	case messages.MessageTypeClientTrackDungeon:
		err = h.handleTrackDungeon(connID, msg.Payload)
	case messages.MessageTypeClientTrackBoss:
		err = h.handleTrackBoss(connID, msg.Payload)
	case messages.MessageTypeClientSubmitGenerationData:
		err = h.handleSubmitGenerationData(connID, msg.Payload)
	case messages.MessageTypeClientRequestGenerationData:
		err = h.handleRequestGenerationData(connID, msg.Payload)
	case messages.MessageTypeClientPlayerListSync:
		err = h.handlePlayerListSync(connID, msg.Payload)
	case messages.MessageTypeClientRequestPlayerUpdate:
		err = h.handleRequestPlayerUpdate(connID, msg.Payload)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		log.Debug("Request %s from %s failed: %v", msg.Type, connID, err)
		h.sendError(connID, msg.Type, err)
	}
}

// HandleDisconnect marks the connection's player as disconnected and
// tells the rest of the game.
func (h *CoordinationHandler) HandleDisconnect(connID string) {
	s, ok := h.registry.RemoveConnection(connID)
	if !ok {
		return
	}
	if err := s.Game.Disconnect(s.PlayerID); err != nil {
		return
	}
	h.savePlayer(s.Game, s.GameID, s.PlayerID)
	h.broadcastPlayerSync(s.Game, s.GameID, s.PlayerID, connID)
}

func (h *CoordinationHandler) handleCreateGame(connID string, payload json.RawMessage) error {
	var req messages.ClientCreateGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	if req.ProtocolVersion != messages.ProtocolVersion {
		return errProtocolOutOfDate
	}

	g, err := h.registry.CreateGame(func(id string) *game.Game {
		return game.New(game.NewGameOptions{
			ID:                  id,
			URL:                 fmt.Sprintf("%s?game=%s", h.serverURL, id),
			Version:             req.Version,
			Type:                req.GameType,
			Seed:                req.Seed,
			Persist:             req.SaveToDatabase && h.gateway.Enabled(),
			SendItemsOnComplete: req.SendItemsOnComplete,
		})
	})
	if err != nil {
		return err
	}

	playerID, key, err := g.Join(req.PlayerName, req.PhoneticName, req.Version)
	if err != nil {
		h.registry.Remove(g.ID())
		return err
	}
	h.registry.IndexConnection(connID, registry.Session{Game: g, GameID: g.ID(), PlayerID: playerID})
	h.saveGame(g)
	h.publisher.Publish(events.Event{GameID: g.ID(), Type: events.EventGameCreated, Timestamp: time.Now()})

	state := g.StateSnapshot()
	log.Info("Created game %s for player %s", state.ID, playerID)
	return h.send(connID, messages.MessageTypeServerGameCreated, messages.ServerGameCreated{
		GameState: state,
		PlayerID:  playerID,
		PlayerKey: key,
		GameURL:   state.URL,
	})
}

func (h *CoordinationHandler) handleJoinGame(connID string, payload json.RawMessage) error {
	var req messages.ClientJoinGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	if req.ProtocolVersion != messages.ProtocolVersion {
		return errProtocolOutOfDate
	}

	g, err := h.resolveGame(req.GameID)
	if err != nil {
		return err
	}
	playerID, key, err := g.Join(req.PlayerName, req.PhoneticName, req.Version)
	if err != nil {
		return err
	}
	h.registry.IndexConnection(connID, registry.Session{Game: g, GameID: g.ID(), PlayerID: playerID})
	h.saveGame(g)
	h.broadcastPlayerSync(g, g.ID(), playerID, connID)

	state := g.StateSnapshot()
	log.Info("Player %s joined game %s", playerID, state.ID)
	return h.send(connID, messages.MessageTypeServerGameJoined, messages.ServerGameJoined{
		GameState: state,
		PlayerID:  playerID,
		PlayerKey: key,
		Players:   state.Players,
	})
}

func (h *CoordinationHandler) handleRejoinGame(connID string, payload json.RawMessage) error {
	var req messages.ClientRejoinGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	if req.ProtocolVersion != messages.ProtocolVersion {
		return errProtocolOutOfDate
	}

	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}

	// A player has at most one live connection; any previous one is
	// superseded by this rejoin.
	stale := h.registry.RemovePlayerConnections(s.GameID, s.PlayerID)
	h.hub.CloseConnections(stale)

	if err := s.Game.Rejoin(s.PlayerID); err != nil {
		return err
	}
	h.registry.IndexConnection(connID, s)
	h.broadcastPlayerSync(s.Game, s.GameID, s.PlayerID, connID)

	state := s.Game.StateSnapshot()
	log.Info("Player %s rejoined game %s", s.PlayerID, state.ID)
	return h.send(connID, messages.MessageTypeServerGameRejoined, messages.ServerGameRejoined{
		GameState: state,
		PlayerID:  s.PlayerID,
		Players:   state.Players,
	})
}

func (h *CoordinationHandler) handleUpdatePlayerState(connID string, payload json.RawMessage) error {
	var req messages.ClientUpdatePlayerState
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	if req.State == nil {
		return errors.New("missing player state")
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	if err := s.Game.UpdatePlayerState(s.PlayerID, *req.State); err != nil {
		return err
	}
	h.savePlayer(s.Game, s.GameID, s.PlayerID)
	if req.Propagate {
		h.broadcastPlayerSync(s.Game, s.GameID, s.PlayerID, connID)
	}
	return nil
}

func (h *CoordinationHandler) handleUpdatePlayerConfig(connID string, payload json.RawMessage) error {
	var req messages.ClientUpdatePlayerConfig
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	if err := s.Game.SetPlayerConfig(s.PlayerID, req.Config); err != nil {
		return err
	}
	h.savePlayer(s.Game, s.GameID, s.PlayerID)
	h.broadcastPlayerSync(s.Game, s.GameID, s.PlayerID, connID)
	return nil
}

func (h *CoordinationHandler) handleUpdatePlayerWorld(connID string, payload json.RawMessage) error {
	var req messages.ClientUpdatePlayerWorld
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	diff, err := s.Game.SyncPlayerWorld(s.PlayerID, req.World)
	if err != nil {
		return err
	}
	h.gateway.SavePlayerWorld(s.GameID, s.PlayerID, &diff, s.Game.Persist())

	update := messages.ServerWorldUpdated{PlayerID: s.PlayerID, Diff: diff}
	if req.Propagate && diff.HasChanges() {
		h.broadcast(s.GameID, connID, messages.MessageTypeServerWorldUpdated, update)
	}
	return h.send(connID, messages.MessageTypeServerWorldUpdated, update)
}

func (h *CoordinationHandler) handleStartGame(connID string, payload json.RawMessage) error {
	var req messages.ClientStartGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	if !s.Game.IsAdmin(s.PlayerID) {
		return errNotAdmin
	}
	if err := s.Game.Start(req.ValidationHash); err != nil {
		return err
	}
	h.saveGame(s.Game)
	h.publisher.Publish(events.Event{GameID: s.GameID, Type: events.EventGameStarted, Timestamp: time.Now()})

	state := s.Game.StateSnapshot()
	log.Info("Game %s started", s.GameID)
	h.broadcastAll(s.GameID, messages.MessageTypeServerGameStarted, messages.ServerGameStarted{
		GameState:   state,
		Players:     state.Players,
		Generations: s.Game.GenerationSnapshot(),
	})
	return nil
}

func (h *CoordinationHandler) handleForfeitGame(connID string, payload json.RawMessage) error {
	var req messages.ClientForfeitGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	target := s.PlayerID
	if req.TargetPlayerID != "" && req.TargetPlayerID != s.PlayerID {
		if !s.Game.IsAdmin(s.PlayerID) {
			return errNotAdmin
		}
		target = req.TargetPlayerID
	}

	snapshot, err := s.Game.PlayerSnapshot(target)
	if err != nil {
		return err
	}
	removed, gameCompleted, err := s.Game.Forfeit(target)
	if err != nil {
		return err
	}

	var stale []string
	if removed {
		h.gateway.DeletePlayerState(s.GameID, target, s.Game.Persist())
		stale = h.registry.RemovePlayerConnections(s.GameID, target)
	} else {
		snapshot, err = s.Game.PlayerSnapshot(target)
		if err != nil {
			return err
		}
		h.gateway.SavePlayerState(s.GameID, snapshot, s.Game.Persist())
	}
	h.saveGame(s.Game)

	log.Info("Player %s forfeited game %s", target, s.GameID)
	notice := messages.ServerPlayerForfeited{
		Player:        snapshot,
		Removed:       removed,
		GameState:     s.Game.StateSnapshot(),
		GameCompleted: gameCompleted,
	}
	h.broadcastAll(s.GameID, messages.MessageTypeServerPlayerForfeited, notice)

	// A removed player's index entries are gone, so the broadcast above
	// skipped them; notify those connections directly, then drop them.
	for _, staleConn := range stale {
		_ = h.send(staleConn, messages.MessageTypeServerPlayerForfeited, notice)
	}
	if target != s.PlayerID {
		h.hub.CloseConnections(stale)
	}
	if gameCompleted {
		h.publisher.Publish(events.Event{GameID: s.GameID, Type: events.EventGameCompleted, Timestamp: time.Now()})
	}
	return nil
}

func (h *CoordinationHandler) handleCompleteGame(connID string, payload json.RawMessage) error {
	var req messages.ClientCompleteGame
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	gameCompleted, err := s.Game.Complete(s.PlayerID)
	if err != nil {
		return err
	}
	h.savePlayer(s.Game, s.GameID, s.PlayerID)
	h.saveGame(s.Game)

	snapshot, err := s.Game.PlayerSnapshot(s.PlayerID)
	if err != nil {
		return err
	}
	log.Info("Player %s completed game %s", s.PlayerID, s.GameID)
	h.broadcastAll(s.GameID, messages.MessageTypeServerPlayerCompleted, messages.ServerPlayerCompleted{
		Player:        snapshot,
		GameState:     s.Game.StateSnapshot(),
		GameCompleted: gameCompleted,
	})
	if gameCompleted {
		h.publisher.Publish(events.Event{GameID: s.GameID, Type: events.EventGameCompleted, Timestamp: time.Now()})
	}
	return nil
}

func (h *CoordinationHandler) handleUpdateGameStatus(connID string, payload json.RawMessage) error {
	var req messages.ClientUpdateGameStatus
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	if !s.Game.IsAdmin(s.PlayerID) {
		return errNotAdmin
	}
	if err := s.Game.UpdateStatus(req.Status); err != nil {
		return err
	}
	h.saveGame(s.Game)
	h.broadcastAll(s.GameID, messages.MessageTypeServerGameStatusUpdated, messages.ServerGameStatusUpdated{
		GameState: s.Game.StateSnapshot(),
	})
	if req.Status == gametypes.GameStatusCompleted {
		h.publisher.Publish(events.Event{GameID: s.GameID, Type: events.EventGameCompleted, Timestamp: time.Now()})
	}
	return nil
}

func (h *CoordinationHandler) handleTrackLocation(connID string, payload json.RawMessage) error {
	var req messages.ClientTrackLocation
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	diff, err := s.Game.TrackLocation(s.PlayerID, req.LocationID)
	if err != nil {
		return err
	}
	h.publishWorldDiff(s, connID, diff)
	return nil
}

func (h *CoordinationHandler) handleTrackItem(connID string, payload json.RawMessage) error {
	var req messages.ClientTrackItem
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	diff, err := s.Game.TrackItem(s.PlayerID, req.Item, req.TrackingValue)
	if err != nil {
		return err
	}
	h.publishWorldDiff(s, connID, diff)
	return nil
}

func (h *CoordinationHandler) handleTrackDungeon(connID string, payload json.RawMessage) error {
	var req messages.ClientTrackDungeon
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	diff, err := s.Game.TrackDungeon(s.PlayerID, req.Dungeon)
	if err != nil {
		return err
	}
	h.publishWorldDiff(s, connID, diff)
	return nil
}

func (h *CoordinationHandler) handleTrackBoss(connID string, payload json.RawMessage) error {
	var req messages.ClientTrackBoss
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	diff, err := s.Game.TrackBoss(s.PlayerID, req.Boss)
	if err != nil {
		return err
	}
	h.publishWorldDiff(s, connID, diff)
	return nil
}

func (h *CoordinationHandler) handleSubmitGenerationData(connID string, payload json.RawMessage) error {
	var req messages.ClientSubmitGenerationData
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	if err := s.Game.SetPlayerGenerationData(s.PlayerID, req.WorldID, req.Data); err != nil {
		return err
	}
	h.savePlayer(s.Game, s.GameID, s.PlayerID)
	h.broadcast(s.GameID, connID, messages.MessageTypeServerGenerationData, messages.ServerGenerationData{
		PlayerID: s.PlayerID,
		WorldID:  req.WorldID,
		Data:     req.Data,
	})
	return nil
}

func (h *CoordinationHandler) handleRequestGenerationData(connID string, payload json.RawMessage) error {
	var req messages.ClientRequestGenerationData
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	snapshot, err := s.Game.PlayerSnapshot(req.TargetPlayerID)
	if err != nil {
		return err
	}
	if !snapshot.HasGenerationData() {
		return fmt.Errorf("player %s has not submitted generation data", req.TargetPlayerID)
	}
	return h.send(connID, messages.MessageTypeServerGenerationData, messages.ServerGenerationData{
		PlayerID: snapshot.ID,
		WorldID:  *snapshot.WorldID,
		Data:     snapshot.GenerationData,
	})
}

func (h *CoordinationHandler) handlePlayerListSync(connID string, payload json.RawMessage) error {
	var req messages.ClientPlayerListSync
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	state := s.Game.StateSnapshot()
	return h.send(connID, messages.MessageTypeServerPlayerList, messages.ServerPlayerList{
		Players: state.Players,
	})
}

func (h *CoordinationHandler) handleRequestPlayerUpdate(connID string, payload json.RawMessage) error {
	var req messages.ClientRequestPlayerUpdate
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}
	s, err := h.authenticate(req.Credentials)
	if err != nil {
		return err
	}
	targetConn, ok := h.registry.PlayerConnection(s.GameID, req.TargetPlayerID)
	if !ok {
		return fmt.Errorf("player %s is not connected", req.TargetPlayerID)
	}
	return h.send(targetConn, messages.MessageTypeClientRequestPlayerUpdate, messages.ClientRequestPlayerUpdate{})
}

// resolveGame looks a game up in memory, falling back to the durable
// store. On a cold start the first resolver to load wins the insert
// race and everyone shares that aggregate.
func (h *CoordinationHandler) resolveGame(gameID string) (*game.Game, error) {
	if g, ok := h.registry.Get(gameID); ok {
		return g, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	state, err := h.gateway.Load(ctx, gameID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, errGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %s: %v", gameID, err)
	}
	g, _ := h.registry.GetOrInsert(game.FromState(state))
	return g, nil
}

// authenticate resolves the game named in the credentials and verifies
// the player's secret key. An unknown player and a wrong key report the
// same way.
func (h *CoordinationHandler) authenticate(c messages.Credentials) (registry.Session, error) {
	g, err := h.resolveGame(c.GameID)
	if err != nil {
		return registry.Session{}, err
	}
	if !g.Authenticate(c.PlayerID, c.PlayerKey) {
		return registry.Session{}, game.ErrPlayerNotFound
	}
	return registry.Session{Game: g, GameID: c.GameID, PlayerID: c.PlayerID}, nil
}

func (h *CoordinationHandler) publishWorldDiff(s registry.Session, connID string, diff gametypes.WorldDiff) {
	h.gateway.SavePlayerWorld(s.GameID, s.PlayerID, &diff, s.Game.Persist())
	if diff.HasChanges() {
		h.broadcast(s.GameID, connID, messages.MessageTypeServerWorldUpdated, messages.ServerWorldUpdated{
			PlayerID: s.PlayerID,
			Diff:     diff,
		})
	}
}

func (h *CoordinationHandler) broadcastPlayerSync(g *game.Game, gameID, playerID, excludeConnID string) {
	snapshot, err := g.PlayerSnapshot(playerID)
	if err != nil {
		return
	}
	h.broadcast(gameID, excludeConnID, messages.MessageTypeServerPlayerSync, messages.ServerPlayerSync{
		Player: snapshot,
	})
}

func (h *CoordinationHandler) saveGame(g *game.Game) {
	h.gateway.SaveGameState(g.StateSnapshot())
}

func (h *CoordinationHandler) savePlayer(g *game.Game, gameID, playerID string) {
	snapshot, err := g.PlayerSnapshot(playerID)
	if err != nil {
		return
	}
	h.gateway.SavePlayerState(gameID, snapshot, g.Persist())
}

func (h *CoordinationHandler) send(connID, messageType string, payload interface{}) error {
	msg, err := messages.New(messageType, payload)
	if err != nil {
		return err
	}
	h.hub.Send(connID, msg)
	return nil
}

func (h *CoordinationHandler) sendError(connID, request string, err error) {
	msg, merr := messages.New(messages.MessageTypeServerError, messages.ServerError{
		Request: request,
		Error:   err.Error(),
	})
	if merr != nil {
		log.Error("Failed to marshal error message: %v", merr)
		return
	}
	h.hub.Send(connID, msg)
}

// broadcast delivers a message to every connection in a game except one.
func (h *CoordinationHandler) broadcast(gameID, excludeConnID, messageType string, payload interface{}) {
	msg, err := messages.New(messageType, payload)
	if err != nil {
		log.Error("Failed to marshal %s broadcast: %v", messageType, err)
		return
	}
	for _, connID := range h.registry.GameConnections(gameID) {
		if connID == excludeConnID {
			continue
		}
		h.hub.Send(connID, msg)
	}
}

func (h *CoordinationHandler) broadcastAll(gameID, messageType string, payload interface{}) {
	h.broadcast(gameID, "", messageType, payload)
}
