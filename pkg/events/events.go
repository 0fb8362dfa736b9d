package events

import (
	"encoding/json"
	"fmt"
	"time"

	"multiworld/pkg/log"

	"github.com/nats-io/nats.go"
)

// Event types published to the message bus.
const (
	EventGameCreated   = "created"
	EventGameStarted   = "started"
	EventGameCompleted = "completed"
	EventGameExpired   = "expired"
)

type Event struct {
	GameID    string    `json:"gameId"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits game lifecycle events for external consumers.
// Publishing is fire-and-forget; the coordination loop never waits on
// the bus.
type Publisher interface {
	Publish(event Event)
	Close()
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(Event) {}
func (NoopPublisher) Close()        {}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %v", err)
	}
	return &NatsPublisher{
		conn: conn,
	}, nil
}

func (p *NatsPublisher) Publish(event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Error("Failed to marshal event: %v", err)
		return
	}
	subject := fmt.Sprintf("games.%s.%s", event.GameID, event.Type)
	if err := p.conn.Publish(subject, b); err != nil {
		log.Error("Failed to publish event to %s: %v", subject, err)
	}
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}
