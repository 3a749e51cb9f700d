package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
)

type identityResolver interface {
	ResolveIdentity(token string) (entity.ParticipantID, error)
}

type participantKey struct{}

// Authenticate resolves the bearer token and stores the participant in the request context.
func Authenticate(logger *slog.Logger, identity identityResolver) func(http.Handler) http.Handler {
	log := logger.With("method", "Authenticate")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				writeError(w, apperror.ErrAuthFailure)
				return
			}

			participant, err := identity.ResolveIdentity(strings.TrimSpace(token))
			if err != nil {
				log.Info("rejected request", "error", err)
				writeError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), participantKey{}, participant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func participantFromContext(ctx context.Context) (entity.ParticipantID, bool) {
	participant, ok := ctx.Value(participantKey{}).(entity.ParticipantID)

	return participant, ok && participant != ""
}
