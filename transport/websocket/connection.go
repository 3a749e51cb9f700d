package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/xo-arena/internal/event"
)

const writeWait = 5 * time.Second

// Message is the wire envelope for both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// connection adapts a gorilla connection to registry.Conn. Writes are serialized.
type connection struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(conn *websocket.Conn) *connection {
	return &connection{
		conn:   conn,
		closed: make(chan struct{}),
	}
}

func (that *connection) Send(evt event.Event) error {
	payload, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return that.write(Message{Action: string(evt.Type), Payload: payload})
}

func (that *connection) write(msg Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) ping() error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (that *connection) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.closed)
		err = that.conn.Close()
	})

	return err
}
