package network

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gametypes "multiworld/pkg/game/types"
	"multiworld/pkg/messages"
	"multiworld/pkg/persistence"
	"multiworld/pkg/registry"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hub := NewHub()
	handler := NewCoordinationHandler(NewCoordinationHandlerOptions{
		Registry:  registry.New(),
		Gateway:   persistence.NewGateway(nil),
		Hub:       hub,
		ServerURL: "ws://test-server",
	})
	wsServer := NewWSServer(NewWSServerOptions{
		Hub:     hub,
		Handler: handler,
	})
	server := httptest.NewServer(wsServer.Handler())
	t.Cleanup(server.Close)
	return server
}

func dialTestServer(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, messageType string, payload interface{}) {
	t.Helper()
	msg, err := messages.New(messageType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// readUntil reads messages until one of the wanted type arrives,
// skipping interleaved broadcasts.
func readUntil(t *testing.T, conn *websocket.Conn, messageType string) *messages.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		msg := &messages.Message{}
		require.NoError(t, conn.ReadJSON(msg), "waiting for %s", messageType)
		if msg.Type == messageType {
			return msg
		}
	}
}

func decodePayload(t *testing.T, msg *messages.Message, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(msg.Payload, out))
}

func createTestGame(t *testing.T, conn *websocket.Conn) (messages.ServerGameCreated, messages.Credentials) {
	t.Helper()
	sendMessage(t, conn, messages.MessageTypeClientCreateGame, messages.ClientCreateGame{
		GameType:        gametypes.GameTypeMultiworld,
		PlayerName:      "Alice",
		Version:         "5.1.0",
		ProtocolVersion: messages.ProtocolVersion,
		Seed:            "12345",
	})
	var created messages.ServerGameCreated
	decodePayload(t, readUntil(t, conn, messages.MessageTypeServerGameCreated), &created)
	return created, messages.Credentials{
		GameID:    created.GameState.ID,
		PlayerID:  created.PlayerID,
		PlayerKey: created.PlayerKey,
	}
}

func joinTestGame(t *testing.T, conn *websocket.Conn, gameID, name string) (messages.ServerGameJoined, messages.Credentials) {
	t.Helper()
	sendMessage(t, conn, messages.MessageTypeClientJoinGame, messages.ClientJoinGame{
		GameID:          gameID,
		PlayerName:      name,
		Version:         "5.1.0",
		ProtocolVersion: messages.ProtocolVersion,
	})
	var joined messages.ServerGameJoined
	decodePayload(t, readUntil(t, conn, messages.MessageTypeServerGameJoined), &joined)
	return joined, messages.Credentials{
		GameID:    gameID,
		PlayerID:  joined.PlayerID,
		PlayerKey: joined.PlayerKey,
	}
}

func TestWSServer_GameLifecycle(t *testing.T) {
	server := newTestServer(t)
	alice := dialTestServer(t, server)
	bob := dialTestServer(t, server)

	created, aliceCreds := createTestGame(t, alice)
	require.NotEmpty(t, created.GameState.ID)
	require.NotEmpty(t, created.PlayerID)
	require.NotEmpty(t, created.PlayerKey)
	assert.Contains(t, created.GameURL, created.GameState.ID)

	joined, bobCreds := joinTestGame(t, bob, created.GameState.ID, "Bob")
	require.Len(t, joined.Players, 2)

	// Alice hears about Bob joining.
	var sync messages.ServerPlayerSync
	decodePayload(t, readUntil(t, alice, messages.MessageTypeServerPlayerSync), &sync)
	assert.Equal(t, "Bob", sync.Player.Name)

	// Both players submit config and generation data.
	for i, creds := range []messages.Credentials{aliceCreds, bobCreds} {
		conn := []*websocket.Conn{alice, bob}[i]
		sendMessage(t, conn, messages.MessageTypeClientUpdatePlayerConfig, messages.ClientUpdatePlayerConfig{
			Credentials: creds,
			Config:      "config",
		})
		sendMessage(t, conn, messages.MessageTypeClientSubmitGenerationData, messages.ClientSubmitGenerationData{
			Credentials: creds,
			WorldID:     i,
			Data:        "generation",
		})
	}
	// Bob sees Alice's generation data broadcast.
	var generation messages.ServerGenerationData
	decodePayload(t, readUntil(t, bob, messages.MessageTypeServerGenerationData), &generation)
	assert.Equal(t, created.PlayerID, generation.PlayerID)

	// Alice waits for Bob's broadcast so the game is fully ready before
	// she starts it.
	decodePayload(t, readUntil(t, alice, messages.MessageTypeServerGenerationData), &generation)
	assert.Equal(t, joined.PlayerID, generation.PlayerID)

	sendMessage(t, alice, messages.MessageTypeClientStartGame, messages.ClientStartGame{
		Credentials:    aliceCreds,
		ValidationHash: "hash",
	})
	var started messages.ServerGameStarted
	decodePayload(t, readUntil(t, bob, messages.MessageTypeServerGameStarted), &started)
	assert.Equal(t, gametypes.GameStatusStarted, started.GameState.Status)
	// Everyone's generation payloads ride along with the start announcement.
	require.Len(t, started.Generations, 2)
	assert.Equal(t, "generation", started.Generations[0].Data)
	decodePayload(t, readUntil(t, alice, messages.MessageTypeServerGameStarted), &started)

	// Bob clears a location; Alice gets the diff.
	sendMessage(t, bob, messages.MessageTypeClientTrackLocation, messages.ClientTrackLocation{
		Credentials: bobCreds,
		LocationID:  42,
	})
	var world messages.ServerWorldUpdated
	decodePayload(t, readUntil(t, alice, messages.MessageTypeServerWorldUpdated), &world)
	require.Len(t, world.Diff.Locations, 1)
	assert.Equal(t, int64(42), world.Diff.Locations[0].LocationID)

	// Both complete; the second completion completes the game.
	sendMessage(t, alice, messages.MessageTypeClientCompleteGame, messages.ClientCompleteGame{Credentials: aliceCreds})
	var completed messages.ServerPlayerCompleted
	decodePayload(t, readUntil(t, bob, messages.MessageTypeServerPlayerCompleted), &completed)
	assert.False(t, completed.GameCompleted)

	sendMessage(t, bob, messages.MessageTypeClientCompleteGame, messages.ClientCompleteGame{Credentials: bobCreds})
	decodePayload(t, readUntil(t, alice, messages.MessageTypeServerPlayerCompleted), &completed)
	for !completed.GameCompleted {
		decodePayload(t, readUntil(t, alice, messages.MessageTypeServerPlayerCompleted), &completed)
	}
	assert.Equal(t, gametypes.GameStatusCompleted, completed.GameState.Status)
}

func TestWSServer_JoinErrors(t *testing.T) {
	server := newTestServer(t)
	alice := dialTestServer(t, server)
	created, _ := createTestGame(t, alice)

	t.Run("unknown game", func(t *testing.T) {
		conn := dialTestServer(t, server)
		sendMessage(t, conn, messages.MessageTypeClientJoinGame, messages.ClientJoinGame{
			GameID:          "nope",
			PlayerName:      "Bob",
			Version:         "5.1.0",
			ProtocolVersion: messages.ProtocolVersion,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Equal(t, messages.MessageTypeClientJoinGame, serverErr.Request)
		assert.Contains(t, serverErr.Error, "unable to find game")
	})

	t.Run("version mismatch", func(t *testing.T) {
		conn := dialTestServer(t, server)
		sendMessage(t, conn, messages.MessageTypeClientJoinGame, messages.ClientJoinGame{
			GameID:          created.GameState.ID,
			PlayerName:      "Bob",
			Version:         "9.9.9",
			ProtocolVersion: messages.ProtocolVersion,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Contains(t, serverErr.Error, "version")
	})

	t.Run("name already in use", func(t *testing.T) {
		conn := dialTestServer(t, server)
		sendMessage(t, conn, messages.MessageTypeClientJoinGame, messages.ClientJoinGame{
			GameID:          created.GameState.ID,
			PlayerName:      "Alice",
			Version:         "5.1.0",
			ProtocolVersion: messages.ProtocolVersion,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Contains(t, serverErr.Error, "name")
	})

	t.Run("protocol version mismatch", func(t *testing.T) {
		conn := dialTestServer(t, server)
		sendMessage(t, conn, messages.MessageTypeClientJoinGame, messages.ClientJoinGame{
			GameID:          created.GameState.ID,
			PlayerName:      "Bob",
			Version:         "5.1.0",
			ProtocolVersion: messages.ProtocolVersion + 1,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Contains(t, serverErr.Error, "protocol version")

		// The rejected player never touched the roster.
		_, creds := joinTestGame(t, conn, created.GameState.ID, "Bob")
		assert.NotEmpty(t, creds.PlayerKey)
	})
}

func TestWSServer_CredentialChecks(t *testing.T) {
	server := newTestServer(t)
	alice := dialTestServer(t, server)
	_, aliceCreds := createTestGame(t, alice)

	t.Run("wrong key does not reveal the player", func(t *testing.T) {
		conn := dialTestServer(t, server)
		badCreds := aliceCreds
		badCreds.PlayerKey = "wrong-key"
		sendMessage(t, conn, messages.MessageTypeClientRejoinGame, messages.ClientRejoinGame{
			Credentials:     badCreds,
			ProtocolVersion: messages.ProtocolVersion,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Equal(t, "unable to find player", serverErr.Error)
	})

	t.Run("unknown player reads the same as a wrong key", func(t *testing.T) {
		conn := dialTestServer(t, server)
		badCreds := aliceCreds
		badCreds.PlayerID = "no-such-player"
		sendMessage(t, conn, messages.MessageTypeClientPlayerListSync, messages.ClientPlayerListSync{
			Credentials: badCreds,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Equal(t, "unable to find player", serverErr.Error)
	})

	t.Run("stale protocol is rejected before the key is checked", func(t *testing.T) {
		conn := dialTestServer(t, server)
		sendMessage(t, conn, messages.MessageTypeClientRejoinGame, messages.ClientRejoinGame{
			Credentials:     aliceCreds,
			ProtocolVersion: messages.ProtocolVersion - 1,
		})
		var serverErr messages.ServerError
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerError), &serverErr)
		assert.Contains(t, serverErr.Error, "protocol version")
	})

	t.Run("valid key resumes the session", func(t *testing.T) {
		conn := dialTestServer(t, server)
		sendMessage(t, conn, messages.MessageTypeClientRejoinGame, messages.ClientRejoinGame{
			Credentials:     aliceCreds,
			ProtocolVersion: messages.ProtocolVersion,
		})
		var rejoined messages.ServerGameRejoined
		decodePayload(t, readUntil(t, conn, messages.MessageTypeServerGameRejoined), &rejoined)
		assert.Equal(t, aliceCreds.PlayerID, rejoined.PlayerID)
	})
}

func TestWSServer_AdminOnlyOperations(t *testing.T) {
	server := newTestServer(t)
	alice := dialTestServer(t, server)
	bob := dialTestServer(t, server)
	created, _ := createTestGame(t, alice)
	_, bobCreds := joinTestGame(t, bob, created.GameState.ID, "Bob")

	sendMessage(t, bob, messages.MessageTypeClientStartGame, messages.ClientStartGame{
		Credentials:    bobCreds,
		ValidationHash: "hash",
	})
	var serverErr messages.ServerError
	decodePayload(t, readUntil(t, bob, messages.MessageTypeServerError), &serverErr)
	assert.Contains(t, serverErr.Error, "admin")
}

func TestWSServer_ForfeitBeforeStartRemovesPlayer(t *testing.T) {
	server := newTestServer(t)
	alice := dialTestServer(t, server)
	bob := dialTestServer(t, server)
	created, _ := createTestGame(t, alice)
	_, bobCreds := joinTestGame(t, bob, created.GameState.ID, "Bob")

	sendMessage(t, bob, messages.MessageTypeClientForfeitGame, messages.ClientForfeitGame{
		Credentials: bobCreds,
	})
	var forfeited messages.ServerPlayerForfeited
	decodePayload(t, readUntil(t, alice, messages.MessageTypeServerPlayerForfeited), &forfeited)
	assert.True(t, forfeited.Removed)
	assert.Equal(t, "Bob", forfeited.Player.Name)
	require.NotNil(t, forfeited.GameState)
	assert.Len(t, forfeited.GameState.Players, 1)

	// Bob, no longer indexed, gets the notice directly too.
	decodePayload(t, readUntil(t, bob, messages.MessageTypeServerPlayerForfeited), &forfeited)
	assert.True(t, forfeited.Removed)
}

func TestWSServer_HealthCheck(t *testing.T) {
	server := newTestServer(t)
	resp, err := server.Client().Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
