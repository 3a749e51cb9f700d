package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
	"github.com/rocketscienceinc/xo-arena/internal/service"
)

type GameUseCase interface {
	StartGame(ctx context.Context, participant entity.ParticipantID) (*service.JoinResponse, error)

	Connect(participant entity.ParticipantID, conn registry.Conn)
	Disconnect(participant entity.ParticipantID, conn registry.Conn)

	ReadyToStart(ctx context.Context, participant entity.ParticipantID, req event.ReadyToStartRequest) error
	MakeMove(ctx context.Context, participant entity.ParticipantID, req event.PlayerMoveRequest, conn registry.Conn) error
	Reconnect(ctx context.Context, participant entity.ParticipantID, req event.ReconnectRequest, conn registry.Conn) (*entity.Snapshot, error)
}

type matchmakerService interface {
	Join(ctx context.Context, participant entity.ParticipantID) (*service.JoinResult, error)
}

type gamePlayService interface {
	SignalReady(ctx context.Context, gameID entity.GameID, participant entity.ParticipantID) error
	MakeMove(ctx context.Context, gameID entity.GameID, participant entity.ParticipantID, cell entity.Cell) (*entity.Game, error)
}

type reconnectService interface {
	Reconnect(
		ctx context.Context,
		participant entity.ParticipantID,
		gameID entity.GameID,
		roomID entity.RoomID,
		conn registry.Conn,
	) (*entity.Snapshot, error)
}

type connRegistry interface {
	Bind(participant entity.ParticipantID, conn registry.Conn)
	Unbind(participant entity.ParticipantID, conn registry.Conn) bool
	IsOnline(participant entity.ParticipantID) bool
	JoinRoom(roomID entity.RoomID, participant entity.ParticipantID)
}

type dispatcher interface {
	Dispatch(roomID entity.RoomID, events []event.Event)
}

type gameUseCase struct {
	logger *slog.Logger

	matchmaker matchmakerService
	gamePlay   gamePlayService
	reconnect  reconnectService

	registry   connRegistry
	dispatcher dispatcher
}

func NewGameUseCase(
	logger *slog.Logger,
	matchmaker matchmakerService,
	gamePlay gamePlayService,
	reconnect reconnectService,
	registry connRegistry,
	dispatcher dispatcher,
) GameUseCase {
	return &gameUseCase{
		logger:     logger,
		matchmaker: matchmaker,
		gamePlay:   gamePlay,
		reconnect:  reconnect,
		registry:   registry,
		dispatcher: dispatcher,
	}
}

// StartGame seats the participant, subscribes their live connection to the room and dispatches the join events.
func (that *gameUseCase) StartGame(ctx context.Context, participant entity.ParticipantID) (*service.JoinResponse, error) {
	result, err := that.matchmaker.Join(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	// an offline caller subscribes through reconnectToGame once connected
	if that.registry.IsOnline(participant) {
		that.registry.JoinRoom(result.Room.ID, participant)
	}

	that.dispatcher.Dispatch(result.Room.ID, result.Events)

	return result.Response(), nil
}

func (that *gameUseCase) Connect(participant entity.ParticipantID, conn registry.Conn) {
	that.registry.Bind(participant, conn)
}

func (that *gameUseCase) Disconnect(participant entity.ParticipantID, conn registry.Conn) {
	if that.registry.Unbind(participant, conn) {
		that.logger.Info("player disconnected", "playerID", participant)
	}
}

func (that *gameUseCase) ReadyToStart(ctx context.Context, participant entity.ParticipantID, req event.ReadyToStartRequest) error {
	if err := that.gamePlay.SignalReady(ctx, req.GameID, participant); err != nil {
		return fmt.Errorf("failed to signal ready: %w", err)
	}

	return nil
}

// MakeMove applies the move. Rejections are reported to conn only.
func (that *gameUseCase) MakeMove(
	ctx context.Context,
	participant entity.ParticipantID,
	req event.PlayerMoveRequest,
	conn registry.Conn,
) error {
	log := that.logger.With("method", "MakeMove", "gameID", req.GameID, "playerID", participant)

	var err error
	switch {
	case req.PlayerID != "" && req.PlayerID != participant:
		err = apperror.ErrPlayerMismatch
	case req.Move == nil:
		err = fmt.Errorf("%w: move is missing", apperror.ErrInvalidCell)
	default:
		_, err = that.gamePlay.MakeMove(ctx, req.GameID, participant, *req.Move)
	}

	if err == nil {
		return nil
	}

	if sendErr := conn.Send(event.New(event.MoveError, event.MoveErrorPayload{Message: err.Error()})); sendErr != nil {
		log.Debug("failed to deliver move error", "error", sendErr)
	}

	return fmt.Errorf("failed to make move: %w", err)
}

// Reconnect restores the participant's session. A game still counting down gets the
// participant's ready signal again, which is a no-op while its countdown runs.
func (that *gameUseCase) Reconnect(
	ctx context.Context,
	participant entity.ParticipantID,
	req event.ReconnectRequest,
	conn registry.Conn,
) (*entity.Snapshot, error) {
	if req.PlayerID != "" && req.PlayerID != participant {
		if err := conn.Send(event.New(event.ReconnectionFailed, event.ReconnectionFailedPayload{})); err != nil {
			that.logger.Debug("failed to deliver reconnection failure", "error", err)
		}

		return nil, fmt.Errorf("%w: %w", apperror.ErrRejected, apperror.ErrPlayerMismatch)
	}

	snapshot, err := that.reconnect.Reconnect(ctx, participant, req.GameID, req.RoomID, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to reconnect: %w", err)
	}

	if snapshot.Status == entity.StatusReady {
		if err = that.gamePlay.SignalReady(ctx, snapshot.GameID, participant); err != nil {
			return snapshot, fmt.Errorf("failed to resignal ready: %w", err)
		}
	}

	return snapshot, nil
}
