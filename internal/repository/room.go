package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
)

type RoomRepository interface {
	Save(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id entity.RoomID) (*entity.Room, error)
	FindWaiting(ctx context.Context) (*entity.Room, error)
	// SaveWithGame writes the room and its game in one MULTI/EXEC.
	SaveWithGame(ctx context.Context, room *entity.Room, game *entity.Game) error
}

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func (that *dbRoom) Save(ctx context.Context, room *entity.Room) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return queueRoom(ctx, pipe, room)
	})
	if err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

func (that *dbRoom) SaveWithGame(ctx context.Context, room *entity.Room, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := queueRoom(ctx, pipe, room); err != nil {
			return err
		}

		pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save room with game: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id entity.RoomID) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("room %s: %w", id, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal(response, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}

// FindWaiting returns the oldest room that still accepts players.
func (that *dbRoom) FindWaiting(ctx context.Context) (*entity.Room, error) {
	for {
		ids, err := that.client.ZRange(ctx, waitingRoomsKey, 0, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read waiting rooms: %w", err)
		}

		if len(ids) == 0 {
			return nil, fmt.Errorf("waiting room: %w", apperror.ErrNotFound)
		}

		room, err := that.GetByID(ctx, entity.RoomID(ids[0]))
		if err == nil && room.IsWaiting() {
			return room, nil
		}

		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}

		// stale index entry
		if err = that.client.ZRem(ctx, waitingRoomsKey, ids[0]).Err(); err != nil {
			return nil, fmt.Errorf("failed to drop stale waiting room: %w", err)
		}
	}
}

func queueRoom(ctx context.Context, pipe redis.Pipeliner, room *entity.Room) error {
	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	pipe.Set(ctx, roomKey(room.ID), roomJSON, 0)

	if room.IsWaiting() {
		pipe.ZAdd(ctx, waitingRoomsKey, redis.Z{
			Score:  float64(room.CreatedAt.UnixMilli()),
			Member: room.ID.String(),
		})
	} else {
		pipe.ZRem(ctx, waitingRoomsKey, room.ID.String())
	}

	return nil
}
