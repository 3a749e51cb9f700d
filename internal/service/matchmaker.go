package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/pkg"
)

type MatchmakerService interface {
	Join(ctx context.Context, participant entity.ParticipantID) (*JoinResult, error)
}

// JoinResult is the outcome of a join. Events are not delivered yet; the caller dispatches them.
type JoinResult struct {
	Room    *entity.Room
	Game    *entity.Game
	Players []entity.Seat
	Events  []event.Event
}

// JoinResponse is the body returned to the participant who joined.
type JoinResponse struct {
	RoomID        entity.RoomID `json:"roomId"`
	GameID        entity.GameID `json:"gameId"`
	Status        entity.Status `json:"status"`
	PlayersJoined int           `json:"playersJoined"`
	MaxPlayers    int           `json:"maxPlayers"`
	Players       []entity.Seat `json:"players"`
	Board         entity.Board  `json:"board"`
	Events        []event.Event `json:"events"`
}

func (that *JoinResult) Response() *JoinResponse {
	events := that.Events
	if events == nil {
		events = []event.Event{}
	}

	return &JoinResponse{
		RoomID:        that.Room.ID,
		GameID:        that.Game.ID,
		Status:        that.Game.Status,
		PlayersJoined: len(that.Room.Players),
		MaxPlayers:    that.Room.MaxPlayers,
		Players:       that.Players,
		Board:         that.Game.Board,
		Events:        events,
	}
}

type matchmakerService struct {
	logger *slog.Logger

	// mu serializes joins so two participants never both create a waiting room.
	mu sync.Mutex
	// locks is shared with the gameplay service and guards the room's game.
	locks *pkg.KeyedMutex

	rooms   roomRepository
	games   gameRepository
	players playerRepository

	now   func() time.Time
	newID func() string
}

func NewMatchmakerService(
	logger *slog.Logger,
	locks *pkg.KeyedMutex,
	rooms roomRepository,
	games gameRepository,
	players playerRepository,
) MatchmakerService {
	return &matchmakerService{
		logger:  logger,
		locks:   locks,
		rooms:   rooms,
		games:   games,
		players: players,
		now:     time.Now,
		newID:   pkg.GenerateID,
	}
}

func (that *matchmakerService) Join(ctx context.Context, participant entity.ParticipantID) (*JoinResult, error) {
	log := that.logger.With("method", "Join", "playerID", participant)

	that.mu.Lock()
	defer that.mu.Unlock()

	found, err := that.players.GetByIDs(ctx, []entity.ParticipantID{participant})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve player: %w", err)
	}
	player := found[0]

	now := that.now()

	room, isNewPlayer, err := that.waitingRoom(ctx, participant, now)
	if err != nil {
		return nil, err
	}

	game, unlock, err := that.roomGame(ctx, room, isNewPlayer, now)
	if err != nil {
		return nil, err
	}
	defer unlock()

	room.UpdatedAt = now
	game.UpdatedAt = now

	if err = that.rooms.SaveWithGame(ctx, room, game); err != nil {
		return nil, fmt.Errorf("failed to save room and game: %w", err)
	}

	log = log.With("roomID", room.ID, "gameID", game.ID)

	names, err := playerNames(ctx, that.players, room.Players)
	if err != nil {
		log.Warn("failed to resolve player names", "error", err)
	}

	var events []event.Event
	if isNewPlayer && len(room.Players) > 1 {
		events = append(events,
			event.New(event.PlayerJoined, event.PlayerJoinedPayload{
				PlayerID:      participant,
				PlayerName:    player.Name,
				PlayersJoined: len(room.Players),
			}),
			event.New(event.ReadyToStart, event.ReadyToStartPayload{GameID: game.ID}),
		)
	}

	log.Info("player joined room", "playersJoined", len(room.Players), "newPlayer", isNewPlayer)

	return &JoinResult{
		Room:    room,
		Game:    game,
		Players: game.Seats(names),
		Events:  events,
	}, nil
}

// waitingRoom returns the oldest waiting room with the participant seated, creating one if needed.
func (that *matchmakerService) waitingRoom(ctx context.Context, participant entity.ParticipantID, now time.Time) (*entity.Room, bool, error) {
	room, err := that.rooms.FindWaiting(ctx)
	if errors.Is(err, apperror.ErrNotFound) {
		room = entity.NewRoom(entity.RoomID(that.newID()), now)
		room.AddPlayer(participant)

		return room, true, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to find waiting room: %w", err)
	}

	return room, room.AddPlayer(participant), nil
}

// roomGame returns the room's game locked for update. The caller releases it once the game is saved.
func (that *matchmakerService) roomGame(
	ctx context.Context,
	room *entity.Room,
	isNewPlayer bool,
	now time.Time,
) (*entity.Game, func(), error) {
	if room.GameID == "" {
		game := entity.NewGame(entity.GameID(that.newID()), room.ID, room.Players, now)
		room.GameID = game.ID

		return game, that.locks.Lock(game.ID.String()), nil
	}

	unlock := that.locks.Lock(room.GameID.String())

	game, err := that.games.GetByID(ctx, room.GameID)
	if err != nil {
		unlock()
		return nil, nil, fmt.Errorf("failed to get room game: %w", err)
	}

	// a started game keeps its roster and turn
	if isNewPlayer && game.IsWaiting() {
		if err = game.RefreshPlayers(room.Players); err != nil {
			unlock()
			return nil, nil, fmt.Errorf("failed to refresh players: %w", err)
		}
	}

	return game, unlock, nil
}
