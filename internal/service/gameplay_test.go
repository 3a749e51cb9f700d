package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
)

func TestGamePlayService_SignalReady(t *testing.T) {
	ctx := context.Background()

	t.Run("Concurrent ready signals start exactly one countdown", func(t *testing.T) {
		// Given: a full waiting game with both players connected
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusWaiting)
		connA := e.connect(alice, room.ID)
		connB := e.connect(bob, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		// When: both players signal ready several times at once
		var wg sync.WaitGroup
		for range 4 {
			for _, participant := range []entity.ParticipantID{alice, bob} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, svc.SignalReady(ctx, game.ID, participant))
				}()
			}
		}
		wg.Wait()

		require.True(t, connA.WaitFor(event.GameStart, waitTimeout))
		waitIdle(t, svc)

		// Then: one countdown ran its 30 ticks and the game started once
		for _, conn := range []interface {
			Count(event.Type) int
		}{connA, connB} {
			assert.Equal(t, 1, conn.Count(event.CountdownStart))
			assert.Equal(t, 30, conn.Count(event.CountdownUpdate))
			assert.Equal(t, 1, conn.Count(event.GameStart))
		}

		// Then: ticks count down to zero before gameStart
		types := connA.Types()
		assert.Equal(t, event.CountdownStart, types[0])
		assert.Equal(t, event.GameStart, types[len(types)-1])

		last, ok := connA.Last(event.CountdownUpdate)
		require.True(t, ok)
		assert.Equal(t, event.CountdownUpdatePayload{TimeLeft: 0}, last.Data)

		start, ok := connA.Last(event.CountdownStart)
		require.True(t, ok)
		assert.Equal(t, event.CountdownStartPayload{Duration: 30}, start.Data)

		// Then: symbols were dealt and persisted, the room is in game
		stored := e.store.Game(game.ID)
		assert.True(t, stored.IsInProgress())
		assert.Equal(t, map[entity.ParticipantID]entity.Symbol{alice: entity.SymbolX, bob: entity.SymbolO}, stored.Symbols)
		assert.Equal(t, alice, stored.CurrentTurn)
		assert.Equal(t, entity.RoomInGame, e.store.Room(room.ID).Status)

		// Then: the gameStart payload carries the roster
		started, ok := connB.Last(event.GameStart)
		require.True(t, ok)
		payload, ok := started.Data.(event.GameStartPayload)
		require.True(t, ok)
		assert.Equal(t, game.ID, payload.GameID)
		assert.Equal(t, room.ID, payload.RoomID)
		assert.Equal(t, alice, payload.CurrentTurn)
		assert.Equal(t, entity.StatusInProgress, payload.Status)
		assert.Equal(t, []entity.Seat{
			{ID: alice, Name: "Alice", Symbol: entity.SymbolX},
			{ID: bob, Name: "Bob", Symbol: entity.SymbolO},
		}, payload.Players)
	})

	t.Run("One ready player does not start the countdown", func(t *testing.T) {
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusWaiting)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))
		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))

		stored := e.store.Game(game.ID)
		assert.True(t, stored.IsWaiting())
		assert.Equal(t, []entity.ParticipantID{alice}, stored.ReadyAcks)
		assert.Empty(t, conn.Types())
	})

	t.Run("A room with one player never gets ready", func(t *testing.T) {
		e := newEnv(t)
		room := entity.NewRoom("room-1", time.Now())
		room.AddPlayer(alice)
		game := entity.NewGame("game-1", room.ID, room.Players, time.Now())
		room.GameID = game.ID
		require.NoError(t, e.store.Rooms.SaveWithGame(ctx, room, game))
		svc := e.gamePlay(t, 30, time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))

		assert.True(t, e.store.Game(game.ID).IsWaiting())
	})

	t.Run("Signals from strangers and for unknown games fail", func(t *testing.T) {
		e := newEnv(t)
		_, game := e.seedGame(t, entity.StatusWaiting)
		svc := e.gamePlay(t, 30, time.Millisecond)

		require.ErrorIs(t, svc.SignalReady(ctx, game.ID, carol), apperror.ErrPlayerMismatch)
		require.ErrorIs(t, svc.SignalReady(ctx, "ghost", alice), apperror.ErrNotFound)
	})

	t.Run("Signals for a game in progress are ignored", func(t *testing.T) {
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusInProgress)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))

		assert.Empty(t, conn.Types())
		assert.True(t, e.store.Game(game.ID).IsInProgress())
	})

	t.Run("A ready game without a countdown resumes it", func(t *testing.T) {
		// Given: a game persisted as ready by a previous process
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusReady)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 3, time.Millisecond)

		// When: a player signals ready again
		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))
		require.NoError(t, svc.SignalReady(ctx, game.ID, bob))

		// Then: a single countdown completes and starts the game
		require.True(t, conn.WaitFor(event.GameStart, waitTimeout))
		waitIdle(t, svc)

		assert.Equal(t, 3, conn.Count(event.CountdownUpdate))
		assert.Equal(t, 1, conn.Count(event.GameStart))
		assert.True(t, e.store.Game(game.ID).IsInProgress())
	})
}

func TestGamePlayService_Countdown(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalidated countdowns never start the game", func(t *testing.T) {
		// Given: a countdown that would take a long time
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusWaiting)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 10000, time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))
		require.NoError(t, svc.SignalReady(ctx, game.ID, bob))

		// When: the game is invalidated twice
		svc.Invalidate(game.ID)
		svc.Invalidate(game.ID)
		waitIdle(t, svc)

		// Then: the game stays ready and no gameStart was sent
		assert.True(t, e.store.Game(game.ID).IsReady())
		assert.Zero(t, conn.Count(event.GameStart))
	})

	t.Run("A ready signal does not revive an invalidated countdown", func(t *testing.T) {
		// Given: a ready game whose countdown was invalidated and has exited
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusWaiting)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 10000, time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))
		require.NoError(t, svc.SignalReady(ctx, game.ID, bob))
		svc.Invalidate(game.ID)
		waitIdle(t, svc)

		// When: a player signals ready again
		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))

		// Then: no countdown is running and the game never starts
		svc.countdownsMu.Lock()
		assert.Empty(t, svc.countdowns)
		svc.countdownsMu.Unlock()

		time.Sleep(50 * time.Millisecond)

		assert.True(t, e.store.Game(game.ID).IsReady())
		assert.Equal(t, 1, conn.Count(event.CountdownStart))
		assert.Zero(t, conn.Count(event.GameStart))
	})

	t.Run("A vanished game aborts the expiry silently", func(t *testing.T) {
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusWaiting)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 20, 5*time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))
		require.NoError(t, svc.SignalReady(ctx, game.ID, bob))
		require.NoError(t, e.store.Games.DeleteByID(ctx, game.ID))

		waitIdle(t, svc)

		assert.Zero(t, conn.Count(event.GameStart))
		assert.Nil(t, e.store.Game(game.ID))
	})

	t.Run("Shutdown stops running countdowns", func(t *testing.T) {
		e := newEnv(t)
		_, game := e.seedGame(t, entity.StatusWaiting)
		svc := e.gamePlay(t, 10000, time.Millisecond)

		require.NoError(t, svc.SignalReady(ctx, game.ID, alice))
		require.NoError(t, svc.SignalReady(ctx, game.ID, bob))

		svc.Shutdown()

		svc.countdownsMu.Lock()
		defer svc.countdownsMu.Unlock()
		assert.Empty(t, svc.countdowns)
	})
}

func TestGamePlayService_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("A valid move is persisted and broadcast", func(t *testing.T) {
		// Given: a game in progress with both players connected
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusInProgress)
		connA := e.connect(alice, room.ID)
		connB := e.connect(bob, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		// When: X plays the center
		updated, err := svc.MakeMove(ctx, game.ID, alice, entity.Cell{Row: 1, Col: 1})

		// Then: the turn passes to O and both players see the new state
		require.NoError(t, err)
		assert.Equal(t, bob, updated.CurrentTurn)

		stored := e.store.Game(game.ID)
		assert.Equal(t, entity.SymbolX, stored.Board[1][1])
		assert.Len(t, stored.Moves, 1)

		expected := event.GameStateUpdatedPayload{Board: stored.Board, CurrentTurn: bob, Status: entity.StatusInProgress}
		for _, conn := range []interface {
			Last(event.Type) (event.Event, bool)
		}{connA, connB} {
			evt, ok := conn.Last(event.GameStateUpdated)
			require.True(t, ok)
			assert.Equal(t, expected, evt.Data)
		}
	})

	t.Run("A winning move ends the game", func(t *testing.T) {
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusInProgress)
		conn := e.connect(bob, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		moves := []struct {
			player entity.ParticipantID
			cell   entity.Cell
		}{
			{alice, entity.Cell{Row: 0, Col: 0}},
			{bob, entity.Cell{Row: 1, Col: 0}},
			{alice, entity.Cell{Row: 1, Col: 1}},
			{bob, entity.Cell{Row: 2, Col: 0}},
			{alice, entity.Cell{Row: 2, Col: 2}},
		}
		for _, move := range moves {
			_, err := svc.MakeMove(ctx, game.ID, move.player, move.cell)
			require.NoError(t, err)
		}

		assert.Equal(t, []event.Type{
			event.GameStateUpdated, event.GameStateUpdated, event.GameStateUpdated,
			event.GameStateUpdated, event.GameStateUpdated, event.GameOver,
		}, conn.Types())

		over, ok := conn.Last(event.GameOver)
		require.True(t, ok)
		assert.Equal(t, event.GameOverPayload{Winner: alice, IsDraw: false}, over.Data)

		stored := e.store.Game(game.ID)
		assert.True(t, stored.IsCompleted())
		assert.Equal(t, alice, stored.Winner)
	})

	t.Run("A draw is reported as such", func(t *testing.T) {
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusInProgress)
		conn := e.connect(alice, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		cells := []entity.Cell{
			{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2},
			{Row: 1, Col: 1}, {Row: 1, Col: 0}, {Row: 2, Col: 0},
			{Row: 2, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 2},
		}
		for idx, cell := range cells {
			player := alice
			if idx%2 == 1 {
				player = bob
			}

			_, err := svc.MakeMove(ctx, game.ID, player, cell)
			require.NoError(t, err)
		}

		over, ok := conn.Last(event.GameOver)
		require.True(t, ok)
		assert.Equal(t, event.GameOverPayload{Winner: entity.Draw, IsDraw: true}, over.Data)
	})

	t.Run("Rejected moves change nothing and broadcast nothing", func(t *testing.T) {
		e := newEnv(t)
		room, game := e.seedGame(t, entity.StatusInProgress)
		_, waiting := e.seedWaitingGame(t)
		conn := e.connect(bob, room.ID)
		svc := e.gamePlay(t, 30, time.Millisecond)

		_, err := svc.MakeMove(ctx, game.ID, alice, entity.Cell{Row: 1, Col: 1})
		require.NoError(t, err)
		before := e.store.Game(game.ID)
		sent := len(conn.Types())

		testCases := []struct {
			name   string
			gameID entity.GameID
			player entity.ParticipantID
			cell   entity.Cell
			err    error
		}{
			{name: "unknown game", gameID: "ghost", player: bob, cell: entity.Cell{}, err: apperror.ErrNotFound},
			{name: "game not started", gameID: waiting.ID, player: alice, cell: entity.Cell{}, err: apperror.ErrInvalidState},
			{name: "out of turn", gameID: game.ID, player: alice, cell: entity.Cell{}, err: apperror.ErrTurnViolation},
			{name: "occupied cell", gameID: game.ID, player: bob, cell: entity.Cell{Row: 1, Col: 1}, err: apperror.ErrCellOccupied},
			{name: "outside the board", gameID: game.ID, player: bob, cell: entity.Cell{Row: 0, Col: 3}, err: apperror.ErrInvalidCell},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.MakeMove(ctx, tc.gameID, tc.player, tc.cell)

				require.ErrorIs(t, err, tc.err)
				assert.Equal(t, before, e.store.Game(game.ID))
				assert.Len(t, conn.Types(), sent)
			})
		}
	})

	t.Run("Concurrent moves against the same turn succeed once", func(t *testing.T) {
		e := newEnv(t)
		_, game := e.seedGame(t, entity.StatusInProgress)
		svc := e.gamePlay(t, 30, time.Millisecond)

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
		)
		for row := range entity.BoardSize {
			for col := range entity.BoardSize {
				wg.Add(1)
				go func() {
					defer wg.Done()

					if _, err := svc.MakeMove(ctx, game.ID, alice, entity.Cell{Row: row, Col: col}); err == nil {
						succeeded.Add(1)
					}
				}()
			}
		}
		wg.Wait()

		assert.EqualValues(t, 1, succeeded.Load())
		assert.Len(t, e.store.Game(game.ID).Moves, 1)
	})
}
