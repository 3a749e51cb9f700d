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

// PlayerRepository reads identity records written by the identity gateway.
type PlayerRepository interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id entity.ParticipantID) (*entity.Player, error)
	GetByIDs(ctx context.Context, ids []entity.ParticipantID) ([]*entity.Player, error)
}

type dbPlayer struct {
	client *redis.Client
}

func NewPlayerRepository(client *redis.Client) PlayerRepository {
	return &dbPlayer{
		client: client,
	}
}

func (that *dbPlayer) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	playerJSON, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	if err = that.client.Set(ctx, playerKey(player.ID), playerJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (that *dbPlayer) GetByID(ctx context.Context, id entity.ParticipantID) (*entity.Player, error) {
	response, err := that.client.Get(ctx, playerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("player %s: %w", id, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	var player entity.Player
	if err = json.Unmarshal(response, &player); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}

	return &player, nil
}

// GetByIDs returns players in the order of ids and fails if any of them is missing.
func (that *dbPlayer) GetByIDs(ctx context.Context, ids []entity.ParticipantID) ([]*entity.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, playerKey(id))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get players by ids: %w", err)
	}

	players := make([]*entity.Player, 0, len(values))
	for idx, value := range values {
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("player %s: %w", ids[idx], apperror.ErrNotFound)
		}

		var player entity.Player
		if err = json.Unmarshal([]byte(raw), &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %w", err)
		}

		players = append(players, &player)
	}

	return players, nil
}
