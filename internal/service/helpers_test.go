package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xo-arena/internal/broadcast"
	"github.com/rocketscienceinc/xo-arena/internal/config"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/pkg"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
	"github.com/rocketscienceinc/xo-arena/testing/fake"
)

const (
	alice entity.ParticipantID = "alice"
	bob   entity.ParticipantID = "bob"
	carol entity.ParticipantID = "carol"

	waitTimeout = 5 * time.Second
)

type env struct {
	store      *fake.Store
	registry   *registry.Registry
	dispatcher *broadcast.Dispatcher
	locks      *pkg.KeyedMutex
	logger     *slog.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := registry.New(logger)

	store := fake.NewStore()
	store.AddPlayers(
		&entity.Player{ID: alice, Name: "Alice"},
		&entity.Player{ID: bob, Name: "Bob"},
		&entity.Player{ID: carol, Name: "Carol"},
	)

	return &env{
		store:      store,
		registry:   reg,
		dispatcher: broadcast.NewDispatcher(logger, reg),
		locks:      pkg.NewKeyedMutex(),
		logger:     logger,
	}
}

// connect binds a recording connection for the participant and joins it to the room.
func (that *env) connect(participant entity.ParticipantID, roomID entity.RoomID) *fake.Conn {
	conn := fake.NewConn()
	that.registry.Bind(participant, conn)
	that.registry.JoinRoom(roomID, participant)

	return conn
}

func (that *env) gamePlay(t *testing.T, ticks int, interval time.Duration) *gamePlayService {
	t.Helper()

	svc := NewGamePlayService(that.logger, config.Game{
		CountdownTicks: ticks,
		TickInterval:   interval,
	}, that.locks, that.store.Rooms, that.store.Games, that.store.Players, that.dispatcher)
	t.Cleanup(svc.Shutdown)

	impl, ok := svc.(*gamePlayService)
	require.True(t, ok)

	return impl
}

// seedGame stores a full room with a game in the given state.
func (that *env) seedGame(t *testing.T, status entity.Status) (*entity.Room, *entity.Game) {
	t.Helper()

	now := time.Now()
	room := entity.NewRoom("room-1", now)
	room.AddPlayer(alice)
	room.AddPlayer(bob)

	game := entity.NewGame("game-1", room.ID, room.Players, now)
	room.GameID = game.ID

	if status != entity.StatusWaiting {
		game.AcknowledgeReady(alice)
		game.AcknowledgeReady(bob)
		require.NoError(t, game.MarkReady())
	}

	if status == entity.StatusInProgress || status == entity.StatusCompleted {
		require.NoError(t, game.Start())
		room.Status = entity.RoomInGame
	}

	if status == entity.StatusCompleted {
		for _, cell := range []entity.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}, {Row: 0, Col: 2}} {
			require.NoError(t, game.ApplyMove(game.CurrentTurn, cell))
		}
	}

	require.NoError(t, that.store.Rooms.SaveWithGame(context.Background(), room, game))

	return room, game
}

// seedWaitingGame stores a second room holding only carol.
func (that *env) seedWaitingGame(t *testing.T) (*entity.Room, *entity.Game) {
	t.Helper()

	now := time.Now()
	room := entity.NewRoom("room-2", now)
	room.AddPlayer(carol)

	game := entity.NewGame("game-2", room.ID, room.Players, now)
	room.GameID = game.ID

	require.NoError(t, that.store.Rooms.SaveWithGame(context.Background(), room, game))

	return room, game
}

func waitIdle(t *testing.T, svc *gamePlayService) {
	t.Helper()

	require.Eventually(t, func() bool {
		svc.countdownsMu.Lock()
		defer svc.countdownsMu.Unlock()

		return len(svc.countdowns) == 0
	}, waitTimeout, time.Millisecond)
}
