package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
)

// Store is an in-memory match store. Records are copied through JSON on every read and write,
// so callers never share memory with what is "persisted".
type Store struct {
	mu      sync.Mutex
	rooms   map[entity.RoomID][]byte
	games   map[entity.GameID][]byte
	players map[entity.ParticipantID][]byte

	// FailSave makes every write return this error.
	FailSave error

	Rooms   *RoomStore
	Games   *GameStore
	Players *PlayerStore
}

type (
	RoomStore   struct{ store *Store }
	GameStore   struct{ store *Store }
	PlayerStore struct{ store *Store }
)

func NewStore() *Store {
	store := &Store{
		rooms:   make(map[entity.RoomID][]byte),
		games:   make(map[entity.GameID][]byte),
		players: make(map[entity.ParticipantID][]byte),
	}

	store.Rooms = &RoomStore{store: store}
	store.Games = &GameStore{store: store}
	store.Players = &PlayerStore{store: store}

	return store
}

// AddPlayers seeds identity records.
func (that *Store) AddPlayers(players ...*entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, player := range players {
		that.players[player.ID] = mustMarshal(player)
	}
}

// Game returns the stored game or nil.
func (that *Store) Game(id entity.GameID) *entity.Game {
	game, err := that.Games.GetByID(context.Background(), id)
	if err != nil {
		return nil
	}

	return game
}

// Room returns the stored room or nil.
func (that *Store) Room(id entity.RoomID) *entity.Room {
	room, err := that.Rooms.GetByID(context.Background(), id)
	if err != nil {
		return nil
	}

	return room
}

func (that *Store) RoomCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.rooms)
}

func (that *RoomStore) Save(_ context.Context, room *entity.Room) error {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	if that.store.FailSave != nil {
		return that.store.FailSave
	}

	that.store.rooms[room.ID] = mustMarshal(room)

	return nil
}

func (that *RoomStore) SaveWithGame(_ context.Context, room *entity.Room, game *entity.Game) error {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	if that.store.FailSave != nil {
		return that.store.FailSave
	}

	that.store.rooms[room.ID] = mustMarshal(room)
	that.store.games[game.ID] = mustMarshal(game)

	return nil
}

func (that *RoomStore) GetByID(_ context.Context, id entity.RoomID) (*entity.Room, error) {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	raw, ok := that.store.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, apperror.ErrNotFound)
	}

	var room entity.Room
	mustUnmarshal(raw, &room)

	return &room, nil
}

func (that *RoomStore) FindWaiting(_ context.Context) (*entity.Room, error) {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	waiting := make([]*entity.Room, 0)
	for _, raw := range that.store.rooms {
		var room entity.Room
		mustUnmarshal(raw, &room)

		if room.IsWaiting() {
			waiting = append(waiting, &room)
		}
	}

	if len(waiting) == 0 {
		return nil, fmt.Errorf("waiting room: %w", apperror.ErrNotFound)
	}

	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].CreatedAt.Before(waiting[j].CreatedAt)
	})

	return waiting[0], nil
}

func (that *GameStore) CreateOrUpdate(_ context.Context, game *entity.Game) error {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	if that.store.FailSave != nil {
		return that.store.FailSave
	}

	that.store.games[game.ID] = mustMarshal(game)

	return nil
}

func (that *GameStore) GetByID(_ context.Context, id entity.GameID) (*entity.Game, error) {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	raw, ok := that.store.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	var game entity.Game
	mustUnmarshal(raw, &game)

	return &game, nil
}

// DeleteByID removes a game so tests can simulate one vanishing mid-flight.
func (that *GameStore) DeleteByID(_ context.Context, id entity.GameID) error {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	if _, ok := that.store.games[id]; !ok {
		return fmt.Errorf("game %s: %w", id, apperror.ErrNotFound)
	}

	delete(that.store.games, id)

	return nil
}

func (that *PlayerStore) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	if that.store.FailSave != nil {
		return that.store.FailSave
	}

	that.store.players[player.ID] = mustMarshal(player)

	return nil
}

func (that *PlayerStore) GetByID(ctx context.Context, id entity.ParticipantID) (*entity.Player, error) {
	players, err := that.GetByIDs(ctx, []entity.ParticipantID{id})
	if err != nil {
		return nil, err
	}

	return players[0], nil
}

func (that *PlayerStore) GetByIDs(_ context.Context, ids []entity.ParticipantID) ([]*entity.Player, error) {
	that.store.mu.Lock()
	defer that.store.mu.Unlock()

	players := make([]*entity.Player, 0, len(ids))
	for _, id := range ids {
		raw, ok := that.store.players[id]
		if !ok {
			return nil, fmt.Errorf("player %s: %w", id, apperror.ErrNotFound)
		}

		var player entity.Player
		mustUnmarshal(raw, &player)
		players = append(players, &player)
	}

	return players, nil
}

func mustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return raw
}

func mustUnmarshal(raw []byte, v any) {
	if err := json.Unmarshal(raw, v); err != nil {
		panic(err)
	}
}
