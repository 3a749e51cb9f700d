package service

import (
	"context"

	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
)

type roomRepository interface {
	GetByID(ctx context.Context, id entity.RoomID) (*entity.Room, error)
	FindWaiting(ctx context.Context) (*entity.Room, error)
	SaveWithGame(ctx context.Context, room *entity.Room, game *entity.Game) error
}

type gameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id entity.GameID) (*entity.Game, error)
}

type playerRepository interface {
	GetByIDs(ctx context.Context, ids []entity.ParticipantID) ([]*entity.Player, error)
}

type publisher interface {
	Publish(roomID entity.RoomID, eventType event.Type, payload any)
}

type connBinder interface {
	Bind(participant entity.ParticipantID, conn registry.Conn)
	JoinRoom(roomID entity.RoomID, participant entity.ParticipantID)
}

// playerNames resolves display names, falling back to empty names when the lookup fails.
func playerNames(ctx context.Context, players playerRepository, ids []entity.ParticipantID) (map[entity.ParticipantID]string, error) {
	names := make(map[entity.ParticipantID]string, len(ids))

	found, err := players.GetByIDs(ctx, ids)
	if err != nil {
		return names, err
	}

	for _, player := range found {
		names[player.ID] = player.Name
	}

	return names, nil
}
