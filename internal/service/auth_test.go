package service_test

import (
	"context"
	"testing"

	"github.com/itsDrac/gemstone-auction/internal/service"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/itsDrac/gemstone-auction/pkg/jwt"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/itsDrac/gemstone-auction/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginOperator(t *testing.T) {
	jm, err := jwt.NewJwtManager("auth-service-secret")
	require.NoError(t, err)
	hash, err := utils.HashPassword("correct-horse")
	require.NoError(t, err)

	svc, err := service.NewAuthService(jm, config.AuthConfig{
		OperatorUsername:     "curator",
		OperatorPasswordHash: hash,
	}, logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "curator", "correct-horse", nil},
		{"wrong password", "curator", "wrong-horse", service.ErrInvalidLogin},
		{"unknown user", "someone", "correct-horse", service.ErrInvalidLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := svc.LoginOperator(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			claims, err := svc.ValidateAccessToken(tok.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, config.RoleOperator, claims.Role)
		})
	}

	t.Run("same operator id on every login", func(t *testing.T) {
		a, err := svc.LoginOperator(ctx, "curator", "correct-horse")
		require.NoError(t, err)
		b, err := svc.LoginOperator(ctx, "curator", "correct-horse")
		require.NoError(t, err)
		ca, _ := svc.ValidateAccessToken(a.AccessToken)
		cb, _ := svc.ValidateAccessToken(b.AccessToken)
		assert.Equal(t, ca.UserID, cb.UserID)
	})

	t.Run("disabled without a hash", func(t *testing.T) {
		off, err := service.NewAuthService(jm, config.AuthConfig{OperatorUsername: "curator"}, nil)
		require.NoError(t, err)
		_, err = off.LoginOperator(ctx, "curator", "correct-horse")
		assert.ErrorIs(t, err, service.ErrLoginDisabled)
	})
}
