package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/event"
)

func (that *Server) handleReadyToStart(ctx context.Context, participant entity.ParticipantID, msg *Message, _ *connection) error {
	var req event.ReadyToStartRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return that.uGame.ReadyToStart(ctx, participant, req)
}

func (that *Server) handlePlayerMove(ctx context.Context, participant entity.ParticipantID, msg *Message, conn *connection) error {
	var req event.PlayerMoveRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		if sendErr := conn.Send(event.New(event.MoveError, event.MoveErrorPayload{Message: "malformed move"})); sendErr != nil {
			return fmt.Errorf("failed to send move error: %w", sendErr)
		}

		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return that.uGame.MakeMove(ctx, participant, req, conn)
}

func (that *Server) handleReconnect(ctx context.Context, participant entity.ParticipantID, msg *Message, conn *connection) error {
	var req event.ReconnectRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		if sendErr := conn.Send(event.New(event.ReconnectionFailed, event.ReconnectionFailedPayload{})); sendErr != nil {
			return fmt.Errorf("failed to send reconnection failure: %w", sendErr)
		}

		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	_, err := that.uGame.Reconnect(ctx, participant, req, conn)

	return err
}
