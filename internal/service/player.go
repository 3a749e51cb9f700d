package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
)

const maxNameLength = 32

type PlayerService interface {
	Register(ctx context.Context, participant entity.ParticipantID, name string) (*entity.Player, error)
	GetByID(ctx context.Context, participant entity.ParticipantID) (*entity.Player, error)
}

type playerService struct {
	playerRepo playerRepo
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id entity.ParticipantID) (*entity.Player, error)
}

func NewPlayerService(playerRepo playerRepo) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
	}
}

// Register stores the display name the authenticated participant plays under.
func (that *playerService) Register(ctx context.Context, participant entity.ParticipantID, name string) (*entity.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidName, name)
	}

	player := &entity.Player{ID: participant, Name: name}
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("create player %w", err)
	}

	return player, nil
}

func (that *playerService) GetByID(ctx context.Context, participant entity.ParticipantID) (*entity.Player, error) {
	existingPlayer, err := that.playerRepo.GetByID(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("get player by id %w", err)
	}

	return existingPlayer, nil
}
