package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/pkg/config"
)

var ErrMissingSecret = errors.New("jwt: ACCESS_TOKEN_SECRET must be set")

// JwtManager validates operator access tokens. Tokens are issued by the
// account service; GenerateAccessToken exists for tooling and tests.
type JwtManager struct {
	accessSecret []byte
	now          func() time.Time
}

func NewJwtManager(accessSecret string) (*JwtManager, error) {
	if accessSecret == "" {
		return nil, ErrMissingSecret
	}

	return &JwtManager{
		accessSecret: []byte(accessSecret),
		now:          time.Now,
	}, nil
}

// GenerateAccessToken signs a short lived access token for userID with role.
func (jm *JwtManager) GenerateAccessToken(userID uuid.UUID, role string) (string, error) {
	now := jm.now()

	claims := config.UserClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(config.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jm.accessSecret)
}

// ValidateAccessToken verifies and returns the claims from an access token string.
func (jm *JwtManager) ValidateAccessToken(tokenString string) (*config.UserClaims, error) {
	claims := &config.UserClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
		return jm.accessSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	return claims, nil
}
