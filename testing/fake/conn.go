package fake

import (
	"errors"
	"sync"
	"time"

	"github.com/rocketscienceinc/xo-arena/internal/event"
)

var ErrConnClosed = errors.New("connection closed")

// Conn records every event sent to it.
type Conn struct {
	mu     sync.Mutex
	events []event.Event
	closed bool
	notify chan struct{}
}

func NewConn() *Conn {
	return &Conn{
		notify: make(chan struct{}, 1),
	}
}

func (that *Conn) Send(evt event.Event) error {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return ErrConnClosed
	}
	that.events = append(that.events, evt)
	that.mu.Unlock()

	select {
	case that.notify <- struct{}{}:
	default:
	}

	return nil
}

func (that *Conn) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	return nil
}

func (that *Conn) Closed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

func (that *Conn) Events() []event.Event {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]event.Event(nil), that.events...)
}

// Types lists the received event types in order.
func (that *Conn) Types() []event.Type {
	events := that.Events()
	types := make([]event.Type, 0, len(events))
	for _, evt := range events {
		types = append(types, evt.Type)
	}

	return types
}

// Count returns how many events of eventType were received.
func (that *Conn) Count(eventType event.Type) int {
	count := 0
	for _, evt := range that.Events() {
		if evt.Type == eventType {
			count++
		}
	}

	return count
}

// Last returns the most recent event of eventType.
func (that *Conn) Last(eventType event.Type) (event.Event, bool) {
	events := that.Events()
	for idx := len(events) - 1; idx >= 0; idx-- {
		if events[idx].Type == eventType {
			return events[idx], true
		}
	}

	return event.Event{}, false
}

// WaitFor blocks until an event of eventType arrives or timeout elapses.
func (that *Conn) WaitFor(eventType event.Type, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if that.Count(eventType) > 0 {
			return true
		}

		select {
		case <-that.notify:
		case <-deadline.C:
			return that.Count(eventType) > 0
		}
	}
}
