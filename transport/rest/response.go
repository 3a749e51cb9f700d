package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrAuthFailure):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidState),
		errors.Is(err, apperror.ErrTurnViolation),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrRejected):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrPlayerMismatch),
		errors.Is(err, apperror.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
