package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
)

func TestAuthService_ResolveIdentity(t *testing.T) {
	auth := NewAuthService("secret")

	t.Run("Round trips the participant id", func(t *testing.T) {
		// Given: a token issued for a participant
		token, err := auth.GenerateToken("player-1")
		require.NoError(t, err)

		// When: resolving it
		participant, err := auth.ResolveIdentity(token)

		// Then: the participant comes back
		require.NoError(t, err)
		assert.EqualValues(t, "player-1", participant)
	})

	t.Run("Rejects tokens signed with another key", func(t *testing.T) {
		token, err := NewAuthService("other").GenerateToken("player-1")
		require.NoError(t, err)

		_, err = auth.ResolveIdentity(token)

		require.ErrorIs(t, err, apperror.ErrAuthFailure)
	})

	t.Run("Rejects expired tokens", func(t *testing.T) {
		expired := &authService{
			secretKey: []byte("secret"),
			now:       func() time.Time { return time.Now().Add(-48 * time.Hour) },
		}
		token, err := expired.GenerateToken("player-1")
		require.NoError(t, err)

		_, err = auth.ResolveIdentity(token)

		require.ErrorIs(t, err, apperror.ErrAuthFailure)
	})

	t.Run("Rejects tokens without a subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = auth.ResolveIdentity(token)

		require.ErrorIs(t, err, apperror.ErrAuthFailure)
	})

	t.Run("Rejects garbage and empty input", func(t *testing.T) {
		_, err := auth.ResolveIdentity("not-a-token")
		require.ErrorIs(t, err, apperror.ErrAuthFailure)

		_, err = auth.ResolveIdentity("")
		require.ErrorIs(t, err, apperror.ErrAuthFailure)
	})
}
