package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/rocketscienceinc/xo-arena/internal/apperror"
	"github.com/rocketscienceinc/xo-arena/internal/entity"
)

const tokenTTL = 24 * time.Hour

type AuthService interface {
	GenerateToken(participant entity.ParticipantID) (string, error)
	ResolveIdentity(token string) (entity.ParticipantID, error)
}

type authService struct {
	secretKey []byte
	now       func() time.Time
}

func NewAuthService(secretKey string) AuthService {
	return &authService{
		secretKey: []byte(secretKey),
		now:       time.Now,
	}
}

func (that *authService) GenerateToken(participant entity.ParticipantID) (string, error) {
	now := that.now()

	claims := jwt.StandardClaims{
		Subject:   participant.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ResolveIdentity verifies an HS256 token and returns its subject.
func (that *authService) ResolveIdentity(tokenString string) (entity.ParticipantID, error) {
	if tokenString == "" {
		return "", fmt.Errorf("%w: empty token", apperror.ErrAuthFailure)
	}

	claims := &jwt.StandardClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}

		return that.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrAuthFailure, err)
	}

	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("%w: invalid token", apperror.ErrAuthFailure)
	}

	return entity.ParticipantID(claims.Subject), nil
}
