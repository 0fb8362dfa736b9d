package messages

import (
	"encoding/json"
	"fmt"

	gametypes "multiworld/pkg/game/types"
)

const (
	// MessageBufferSize represents the maximum size of a message
	MessageBufferSize = 65536
)

// Client message types
const (
	MessageTypeClientCreateGame            = "create_game"
	MessageTypeClientJoinGame              = "join_game"
	MessageTypeClientRejoinGame            = "rejoin_game"
	MessageTypeClientUpdatePlayerState     = "update_player_state"
	MessageTypeClientUpdatePlayerConfig    = "update_player_config"
	MessageTypeClientUpdatePlayerWorld     = "update_player_world"
	MessageTypeClientStartGame             = "start_game"
	MessageTypeClientForfeitGame           = "forfeit_game"
	MessageTypeClientCompleteGame          = "complete_game"
	MessageTypeClientUpdateGameStatus      = "update_game_status"
	MessageTypeClientTrackLocation         = "track_location"
	MessageTypeClientTrackItem             = "track_item"
	MessageTypeClientTrackDungeon          = "track_dungeon"
	MessageTypeClientTrackBoss             = "track_boss"
	MessageTypeClientSubmitGenerationData  = "submit_generation_data"
	MessageTypeClientRequestGenerationData = "request_generation_data"
	MessageTypeClientPlayerListSync        = "player_list_sync"
	MessageTypeClientRequestPlayerUpdate   = "request_player_update"
)

// Server message types
const (
	MessageTypeServerError             = "error"
	MessageTypeServerGameCreated       = "game_created"
	MessageTypeServerGameJoined        = "game_joined"
	MessageTypeServerGameRejoined      = "game_rejoined"
	MessageTypeServerPlayerSync        = "player_sync"
	MessageTypeServerGameStarted       = "game_started"
	MessageTypeServerPlayerForfeited   = "player_forfeited"
	MessageTypeServerPlayerCompleted   = "player_completed"
	MessageTypeServerGameStatusUpdated = "game_status_updated"
	MessageTypeServerWorldUpdated      = "world_updated"
	MessageTypeServerGenerationData    = "generation_data"
	MessageTypeServerPlayerList        = "player_list"
)

// Message represents a generic message for serialization/deserialization
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func New(messageType string, payload interface{}) (*Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %v", err)
	}
	return &Message{
		Type:    messageType,
		Payload: b,
	}, nil
}

// ProtocolVersion is the wire protocol revision, independent of the
// randomizer version string stored on a game. Connection-establishing
// requests carry the client's copy and mismatches are rejected before any
// game state is touched.
const ProtocolVersion = 1

type ClientCreateGame struct {
	GameType            gametypes.GameType `json:"gameType"`
	PlayerName          string             `json:"playerName"`
	PhoneticName        string             `json:"phoneticName"`
	Version             string             `json:"version"`
	ProtocolVersion     int                `json:"protocolVersion"`
	Seed                string             `json:"seed"`
	SaveToDatabase      bool               `json:"saveToDatabase"`
	SendItemsOnComplete bool               `json:"sendItemsOnComplete"`
}

type ClientJoinGame struct {
	GameID          string `json:"gameId"`
	PlayerName      string `json:"playerName"`
	PhoneticName    string `json:"phoneticName"`
	Version         string `json:"version"`
	ProtocolVersion int    `json:"protocolVersion"`
}

// Credentials accompany every request after join. The key is the
// capability issued at join time; a wrong key and an unknown player are
// reported identically.
type Credentials struct {
	GameID    string `json:"gameId"`
	PlayerID  string `json:"playerId"`
	PlayerKey string `json:"playerKey"`
}

type ClientRejoinGame struct {
	Credentials
	ProtocolVersion int `json:"protocolVersion"`
}

type ClientUpdatePlayerState struct {
	Credentials
	State *gametypes.PlayerState `json:"state"`
	// Propagate controls whether the update is broadcast to the rest
	// of the game.
	Propagate bool `json:"propagate"`
}

type ClientUpdatePlayerConfig struct {
	Credentials
	Config string `json:"config"`
}

type ClientUpdatePlayerWorld struct {
	Credentials
	World     gametypes.WorldSnapshot `json:"world"`
	Propagate bool                    `json:"propagate"`
}

type ClientStartGame struct {
	Credentials
	ValidationHash string `json:"validationHash"`
}

type ClientForfeitGame struct {
	Credentials
	// TargetPlayerID names another player to forfeit. Empty means the
	// sender forfeits themselves; forfeiting another player requires
	// admin.
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
}

type ClientCompleteGame struct {
	Credentials
}

type ClientUpdateGameStatus struct {
	Credentials
	Status gametypes.GameStatus `json:"status"`
}

type ClientTrackLocation struct {
	Credentials
	LocationID int64 `json:"locationId"`
}

type ClientTrackItem struct {
	Credentials
	Item          string `json:"item"`
	TrackingValue int    `json:"trackingValue"`
}

type ClientTrackDungeon struct {
	Credentials
	Dungeon string `json:"dungeon"`
}

type ClientTrackBoss struct {
	Credentials
	Boss string `json:"boss"`
}

type ClientSubmitGenerationData struct {
	Credentials
	WorldID int    `json:"worldId"`
	Data    string `json:"data"`
}

type ClientRequestGenerationData struct {
	Credentials
	TargetPlayerID string `json:"targetPlayerId"`
}

type ClientPlayerListSync struct {
	Credentials
}

// ClientRequestPlayerUpdate asks the server to have another player push
// a fresh state sync. The server forwards the request to that player's
// connection as a message of the same type with an empty target.
type ClientRequestPlayerUpdate struct {
	Credentials
	TargetPlayerID string `json:"targetPlayerId,omitempty"`
}

type ServerError struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}

type ServerGameCreated struct {
	GameState *gametypes.GameState `json:"gameState"`
	PlayerID  string               `json:"playerId"`
	PlayerKey string               `json:"playerKey"`
	GameURL   string               `json:"gameUrl"`
}

type ServerGameJoined struct {
	GameState *gametypes.GameState     `json:"gameState"`
	PlayerID  string                   `json:"playerId"`
	PlayerKey string                   `json:"playerKey"`
	Players   []*gametypes.PlayerState `json:"players"`
}

type ServerGameRejoined struct {
	GameState *gametypes.GameState     `json:"gameState"`
	PlayerID  string                   `json:"playerId"`
	Players   []*gametypes.PlayerState `json:"players"`
}

// ServerPlayerSync carries one player's authoritative state to the
// rest of the game.
type ServerPlayerSync struct {
	Player *gametypes.PlayerState `json:"player"`
}

// ServerGameStarted announces the start to the whole game, carrying every
// submitted generation payload so clients can patch without a round trip
// per world.
type ServerGameStarted struct {
	GameState   *gametypes.GameState             `json:"gameState"`
	Players     []*gametypes.PlayerState         `json:"players"`
	Generations []gametypes.PlayerGenerationData `json:"generations"`
}

type ServerPlayerForfeited struct {
	Player *gametypes.PlayerState `json:"player"`
	// Removed reports a pre-start forfeit, where the player is dropped
	// from the roster entirely.
	Removed       bool                 `json:"removed"`
	GameState     *gametypes.GameState `json:"gameState,omitempty"`
	GameCompleted bool                 `json:"gameCompleted"`
}

type ServerPlayerCompleted struct {
	Player        *gametypes.PlayerState `json:"player"`
	GameState     *gametypes.GameState   `json:"gameState,omitempty"`
	GameCompleted bool                   `json:"gameCompleted"`
}

type ServerGameStatusUpdated struct {
	GameState *gametypes.GameState `json:"gameState"`
}

type ServerWorldUpdated struct {
	PlayerID string              `json:"playerId"`
	Diff     gametypes.WorldDiff `json:"diff"`
}

type ServerGenerationData struct {
	PlayerID string `json:"playerId"`
	WorldID  int    `json:"worldId"`
	Data     string `json:"data"`
}

type ServerPlayerList struct {
	Players []*gametypes.PlayerState `json:"players"`
}
