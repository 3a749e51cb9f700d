package registry

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
)

// Conn is a live connection handle owned by the transport layer.
type Conn interface {
	Send(evt event.Event) error
	Close() error
}

// Registry keeps one live connection per participant and the room groups they listen to.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	conns   map[entity.ParticipantID]Conn
	rooms   map[entity.RoomID]map[entity.ParticipantID]struct{}
	members map[entity.ParticipantID]map[entity.RoomID]struct{}
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger.With("component", "registry"),
		conns:   make(map[entity.ParticipantID]Conn),
		rooms:   make(map[entity.RoomID]map[entity.ParticipantID]struct{}),
		members: make(map[entity.ParticipantID]map[entity.RoomID]struct{}),
	}
}

// Bind makes conn the participant's live connection. A previous connection is evicted and closed.
func (that *Registry) Bind(participant entity.ParticipantID, conn Conn) {
	that.mu.Lock()
	evicted, ok := that.conns[participant]
	that.conns[participant] = conn
	that.mu.Unlock()

	if !ok || evicted == conn {
		return
	}

	if err := evicted.Close(); err != nil {
		that.logger.Debug("failed to close evicted connection", "playerID", participant, "error", err)
	}

	that.logger.Info("connection replaced", "playerID", participant)
}

// Unbind drops the binding only while conn is still the live one, and reports whether it did.
func (that *Registry) Unbind(participant entity.ParticipantID, conn Conn) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if current, ok := that.conns[participant]; !ok || current != conn {
		return false
	}

	delete(that.conns, participant)

	for roomID := range that.members[participant] {
		that.removeMemberLocked(roomID, participant)
	}
	delete(that.members, participant)

	return true
}

func (that *Registry) Lookup(participant entity.ParticipantID) (Conn, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conn, ok := that.conns[participant]

	return conn, ok
}

func (that *Registry) IsOnline(participant entity.ParticipantID) bool {
	_, ok := that.Lookup(participant)

	return ok
}

func (that *Registry) JoinRoom(roomID entity.RoomID, participant entity.ParticipantID) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		room = make(map[entity.ParticipantID]struct{})
		that.rooms[roomID] = room
	}
	room[participant] = struct{}{}

	joined, ok := that.members[participant]
	if !ok {
		joined = make(map[entity.RoomID]struct{})
		that.members[participant] = joined
	}
	joined[roomID] = struct{}{}
}

func (that *Registry) LeaveRoom(roomID entity.RoomID, participant entity.ParticipantID) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeMemberLocked(roomID, participant)

	if joined, ok := that.members[participant]; ok {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(that.members, participant)
		}
	}
}

// RoomConns returns the live connections of the room's members.
func (that *Registry) RoomConns(roomID entity.RoomID) []Conn {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room := that.rooms[roomID]
	conns := make([]Conn, 0, len(room))
	for participant := range room {
		if conn, ok := that.conns[participant]; ok {
			conns = append(conns, conn)
		}
	}

	return conns
}

func (that *Registry) removeMemberLocked(roomID entity.RoomID, participant entity.ParticipantID) {
	room, ok := that.rooms[roomID]
	if !ok {
		return
	}

	delete(room, participant)
	if len(room) == 0 {
		delete(that.rooms, roomID)
	}
}
