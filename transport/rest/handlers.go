package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
	"github.com/rocketscienceinc/xo-arena/internal/service"
)

type GameHandler interface {
	StartGame(w http.ResponseWriter, r *http.Request)
}

type gameStarter interface {
	StartGame(ctx context.Context, participant entity.ParticipantID) (*service.JoinResponse, error)
}

type gameHandler struct {
	logger *slog.Logger
	game   gameStarter
}

func NewGameHandler(logger *slog.Logger, game gameStarter) GameHandler {
	return &gameHandler{
		logger: logger,
		game:   game,
	}
}

// StartGame puts the caller into a room and returns the room state with the join events.
func (that *gameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "StartGame")

	participant, ok := participantFromContext(r.Context())
	if !ok {
		writeError(w, apperror.ErrAuthFailure)
		return
	}

	response, err := that.game.StartGame(r.Context(), participant)
	if err != nil {
		log.Error("failed to start game", "playerID", participant, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

type PlayerHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
}

type playerRegistrar interface {
	Register(ctx context.Context, participant entity.ParticipantID, name string) (*entity.Player, error)
}

type playerHandler struct {
	logger  *slog.Logger
	players playerRegistrar
}

type registerRequest struct {
	Name string `json:"name"`
}

func NewPlayerHandler(logger *slog.Logger, players playerRegistrar) PlayerHandler {
	return &playerHandler{
		logger:  logger,
		players: players,
	}
}

// Register sets the caller's display name.
func (that *playerHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "Register")

	participant, ok := participantFromContext(r.Context())
	if !ok {
		writeError(w, apperror.ErrAuthFailure)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body", apperror.ErrInvalidName))
		return
	}

	player, err := that.players.Register(r.Context(), participant, req.Name)
	if err != nil {
		log.Info("failed to register player", "playerID", participant, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, player)
}
