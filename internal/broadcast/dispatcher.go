package broadcast

import (
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/pkg"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
)

type connRegistry interface {
	Lookup(participant entity.ParticipantID) (registry.Conn, bool)
	RoomConns(roomID entity.RoomID) []registry.Conn
}

// Dispatcher delivers events to room members. Within one room delivery order equals publish order.
type Dispatcher struct {
	logger   *slog.Logger
	registry connRegistry
	rooms    *pkg.KeyedMutex
}

func NewDispatcher(logger *slog.Logger, registry connRegistry) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("component", "dispatcher"),
		registry: registry,
		rooms:    pkg.NewKeyedMutex(),
	}
}

// Publish sends the event to every connection bound to the room. Failed deliveries are dropped.
func (that *Dispatcher) Publish(roomID entity.RoomID, eventType event.Type, payload any) {
	that.Dispatch(roomID, []event.Event{event.New(eventType, payload)})
}

// Dispatch publishes events to the room in the given order.
func (that *Dispatcher) Dispatch(roomID entity.RoomID, events []event.Event) {
	if len(events) == 0 {
		return
	}

	log := that.logger.With("method", "Dispatch", "roomID", roomID)

	unlock := that.rooms.Lock(roomID.String())
	defer unlock()

	for _, evt := range events {
		for _, conn := range that.registry.RoomConns(roomID) {
			if err := conn.Send(evt); err != nil {
				log.Debug("dropped event for closed connection", "event", evt.Type, "error", err)
			}
		}
	}
}

// SendTo delivers the event to the participant's live connection only.
func (that *Dispatcher) SendTo(participant entity.ParticipantID, eventType event.Type, payload any) error {
	conn, ok := that.registry.Lookup(participant)
	if !ok {
		return fmt.Errorf("connection of %s: %w", participant, apperror.ErrNotFound)
	}

	if err := conn.Send(event.New(eventType, payload)); err != nil {
		return fmt.Errorf("failed to send %s: %w", eventType, err)
	}

	return nil
}
