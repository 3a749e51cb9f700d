package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/registry"
	"github.com/rocketscienceinc/xo-arena/internal/service"
)

type mockMatchmaker struct {
	mock.Mock
}

func (that *mockMatchmaker) Join(ctx context.Context, participant entity.ParticipantID) (*service.JoinResult, error) {
	args := that.Called(ctx, participant)

	result, _ := args.Get(0).(*service.JoinResult)

	return result, args.Error(1)
}

type mockGamePlay struct {
	mock.Mock
}

func (that *mockGamePlay) SignalReady(ctx context.Context, gameID entity.GameID, participant entity.ParticipantID) error {
	return that.Called(ctx, gameID, participant).Error(0)
}

func (that *mockGamePlay) MakeMove(
	ctx context.Context,
	gameID entity.GameID,
	participant entity.ParticipantID,
	cell entity.Cell,
) (*entity.Game, error) {
	args := that.Called(ctx, gameID, participant, cell)

	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

type mockReconnect struct {
	mock.Mock
}

func (that *mockReconnect) Reconnect(
	ctx context.Context,
	participant entity.ParticipantID,
	gameID entity.GameID,
	roomID entity.RoomID,
	conn registry.Conn,
) (*entity.Snapshot, error) {
	args := that.Called(ctx, participant, gameID, roomID, conn)

	snapshot, _ := args.Get(0).(*entity.Snapshot)

	return snapshot, args.Error(1)
}
