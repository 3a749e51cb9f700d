package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/config"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/pkg"
)

type GamePlayService interface {
	SignalReady(ctx context.Context, gameID entity.GameID, participant entity.ParticipantID) error
	MakeMove(ctx context.Context, gameID entity.GameID, participant entity.ParticipantID, cell entity.Cell) (*entity.Game, error)

	// Invalidate cancels a running countdown for the game and keeps it from being started again.
	// Safe to call any number of times.
	Invalidate(gameID entity.GameID)
	Shutdown()
}

type gamePlayService struct {
	logger *slog.Logger

	rooms     roomRepository
	games     gameRepository
	players   playerRepository
	publisher publisher

	// locks holds one lock per game around validate, mutate and persist.
	locks *pkg.KeyedMutex

	ticks    int
	interval time.Duration
	now      func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	countdownsMu sync.Mutex
	countdowns   map[entity.GameID]*countdown
	invalidated  map[entity.GameID]struct{}
}

func NewGamePlayService(
	logger *slog.Logger,
	conf config.Game,
	locks *pkg.KeyedMutex,
	rooms roomRepository,
	games gameRepository,
	players playerRepository,
	publisher publisher,
) GamePlayService {
	baseCtx, cancel := context.WithCancel(context.Background())

	return &gamePlayService{
		logger:      logger,
		rooms:       rooms,
		games:       games,
		players:     players,
		publisher:   publisher,
		locks:       locks,
		ticks:       conf.CountdownTicks,
		interval:    conf.TickInterval,
		now:         time.Now,
		baseCtx:     baseCtx,
		cancel:      cancel,
		countdowns:  make(map[entity.GameID]*countdown),
		invalidated: make(map[entity.GameID]struct{}),
	}
}

// SignalReady records the participant's ready signal. Once both players of a waiting game
// are ready the game moves to ready and the countdown starts.
func (that *gamePlayService) SignalReady(ctx context.Context, gameID entity.GameID, participant entity.ParticipantID) error {
	log := that.logger.With("method", "SignalReady", "gameID", gameID, "playerID", participant)

	unlock := that.locks.Lock(gameID.String())
	defer unlock()

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if !game.HasPlayer(participant) {
		return fmt.Errorf("%w: %s is not a player of game %s", apperror.ErrPlayerMismatch, participant, gameID)
	}

	if game.IsReady() {
		// the countdown died with a previous process
		if that.startCountdown(game.ID, game.RoomID) {
			log.Info("resumed countdown")
			that.publisher.Publish(game.RoomID, event.CountdownStart, event.CountdownStartPayload{Duration: that.ticks})
		}

		return nil
	}

	if !game.IsWaiting() {
		log.Debug("ignoring ready signal", "status", game.Status)
		return nil
	}

	acknowledged := game.AcknowledgeReady(participant)
	ready := game.CanGetReady()

	if !acknowledged && !ready {
		return nil
	}

	if ready {
		if err = game.MarkReady(); err != nil {
			return fmt.Errorf("failed to mark game ready: %w", err)
		}
	}

	game.UpdatedAt = that.now()

	if err = that.games.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	if !ready {
		log.Info("player is ready", "acks", len(game.ReadyAcks))
		return nil
	}

	that.publisher.Publish(game.RoomID, event.CountdownStart, event.CountdownStartPayload{Duration: that.ticks})
	that.startCountdown(game.ID, game.RoomID)

	log.Info("game is ready, countdown started", "ticks", that.ticks)

	return nil
}

func (that *gamePlayService) MakeMove(
	ctx context.Context,
	gameID entity.GameID,
	participant entity.ParticipantID,
	cell entity.Cell,
) (*entity.Game, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID, "playerID", participant)

	unlock := that.locks.Lock(gameID.String())
	defer unlock()

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if err = game.ApplyMove(participant, cell); err != nil {
		return nil, err
	}

	game.UpdatedAt = that.now()

	if err = that.games.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.publisher.Publish(game.RoomID, event.GameStateUpdated, event.GameStateUpdatedPayload{
		Board:       game.Board,
		CurrentTurn: game.CurrentTurn,
		Status:      game.Status,
	})

	if game.IsCompleted() {
		that.publisher.Publish(game.RoomID, event.GameOver, event.GameOverPayload{
			Winner: game.Winner,
			IsDraw: game.IsDraw(),
		})

		log.Info("game completed", "winner", game.Winner)
	}

	return game, nil
}

func (that *gamePlayService) Invalidate(gameID entity.GameID) {
	that.countdownsMu.Lock()
	that.invalidated[gameID] = struct{}{}
	cd, ok := that.countdowns[gameID]
	that.countdownsMu.Unlock()

	if ok && cd.stop() {
		that.logger.Info("countdown canceled", "gameID", gameID)
	}
}

// Shutdown cancels every running countdown and waits for them to exit.
func (that *gamePlayService) Shutdown() {
	that.cancel()
	that.wg.Wait()
}

// expire performs the ready -> in_progress transition once a countdown reaches zero.
func (that *gamePlayService) expire(ctx context.Context, gameID entity.GameID) {
	log := that.logger.With("method", "expire", "gameID", gameID)

	unlock := that.locks.Lock(gameID.String())
	defer unlock()

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		log.Warn("game vanished before countdown expiry", "error", err)
		return
	}

	if !game.IsReady() {
		log.Info("game already left ready state", "status", game.Status)
		return
	}

	room, err := that.rooms.GetByID(ctx, game.RoomID)
	if err != nil {
		log.Warn("room vanished before countdown expiry", "roomID", game.RoomID, "error", err)
		return
	}

	if err = game.Start(); err != nil {
		log.Error("failed to start game", "error", err)
		return
	}

	now := that.now()
	game.UpdatedAt = now
	room.Status = entity.RoomInGame
	room.UpdatedAt = now

	if err = that.rooms.SaveWithGame(ctx, room, game); err != nil {
		log.Error("failed to save started game", "error", err)
		return
	}

	names, err := playerNames(ctx, that.players, game.Players)
	if err != nil {
		log.Warn("failed to resolve player names", "error", err)
	}

	that.publisher.Publish(game.RoomID, event.GameStart, event.GameStartPayload{
		RoomID:        game.RoomID,
		GameID:        game.ID,
		Status:        game.Status,
		PlayersJoined: len(game.Players),
		MaxPlayers:    room.MaxPlayers,
		Players:       game.Seats(names),
		CurrentTurn:   game.CurrentTurn,
		Board:         game.Board,
	})

	log.Info("game started", "currentTurn", game.CurrentTurn)
}
