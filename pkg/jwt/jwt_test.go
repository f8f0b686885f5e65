package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJwtManagerRequiresSecret(t *testing.T) {
	_, err := NewJwtManager("")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	jm, err := NewJwtManager("test-access-secret")
	require.NoError(t, err)

	userID := uuid.New()
	token, err := jm.GenerateAccessToken(userID, config.RoleOperator)
	require.NoError(t, err)

	claims, err := jm.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, config.RoleOperator, claims.Role)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	jm, err := NewJwtManager("test-access-secret")
	require.NoError(t, err)
	other, err := NewJwtManager("some-other-secret")
	require.NoError(t, err)

	foreign, err := other.GenerateAccessToken(uuid.New(), config.RoleOperator)
	require.NoError(t, err)

	expiredMgr, err := NewJwtManager("test-access-secret")
	require.NoError(t, err)
	expiredMgr.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredMgr.GenerateAccessToken(uuid.New(), config.RoleOperator)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"signed with another secret", foreign},
		{"expired", expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jm.ValidateAccessToken(tt.token)
			assert.Error(t, err)
		})
	}
}
