package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
)

type ReconnectService interface {
	// Reconnect reattaches conn to the participant's game and sends it a snapshot.
	// Ineligible requests get reconnectionFailed and an ErrRejected error.
	Reconnect(
		ctx context.Context,
		participant entity.ParticipantID,
		gameID entity.GameID,
		roomID entity.RoomID,
		conn registry.Conn,
	) (*entity.Snapshot, error)
}

type reconnectService struct {
	logger *slog.Logger

	games    gameRepository
	players  playerRepository
	registry connBinder

	retention time.Duration
	now       func() time.Time
}

func NewReconnectService(
	logger *slog.Logger,
	retention time.Duration,
	games gameRepository,
	players playerRepository,
	registry connBinder,
) ReconnectService {
	return &reconnectService{
		logger:    logger,
		games:     games,
		players:   players,
		registry:  registry,
		retention: retention,
		now:       time.Now,
	}
}

func (that *reconnectService) Reconnect(
	ctx context.Context,
	participant entity.ParticipantID,
	gameID entity.GameID,
	roomID entity.RoomID,
	conn registry.Conn,
) (*entity.Snapshot, error) {
	log := that.logger.With("method", "Reconnect", "gameID", gameID, "playerID", participant)

	game, err := that.eligibleGame(ctx, participant, gameID, roomID)
	if err != nil {
		log.Info("reconnection rejected", "error", err)

		if sendErr := conn.Send(event.New(event.ReconnectionFailed, event.ReconnectionFailedPayload{})); sendErr != nil {
			log.Debug("failed to deliver reconnection failure", "error", sendErr)
		}

		return nil, err
	}

	that.registry.Bind(participant, conn)
	that.registry.JoinRoom(game.RoomID, participant)

	names, err := playerNames(ctx, that.players, game.Players)
	if err != nil {
		log.Warn("failed to resolve player names", "error", err)
	}

	snapshot := game.Snapshot(names)

	if err = conn.Send(event.New(event.ReconnectionSuccess, snapshot)); err != nil {
		return nil, fmt.Errorf("failed to deliver snapshot: %w", err)
	}

	log.Info("player reconnected", "status", snapshot.Status)

	return snapshot, nil
}

func (that *reconnectService) eligibleGame(
	ctx context.Context,
	participant entity.ParticipantID,
	gameID entity.GameID,
	roomID entity.RoomID,
) (*entity.Game, error) {
	game, err := that.games.GetByID(ctx, gameID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("%w: game %s does not exist", apperror.ErrRejected, gameID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if !game.HasPlayer(participant) {
		return nil, fmt.Errorf("%w: %s is not a player of game %s", apperror.ErrRejected, participant, gameID)
	}

	if roomID != "" && roomID != game.RoomID {
		return nil, fmt.Errorf("%w: game %s does not belong to room %s", apperror.ErrRejected, gameID, roomID)
	}

	if game.IsCompleted() && that.retention > 0 && that.now().Sub(game.UpdatedAt) > that.retention {
		return nil, fmt.Errorf("%w: game %s completed too long ago", apperror.ErrRejected, gameID)
	}

	return game, nil
}
