package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/itsDrac/gemstone-auction/pkg/config"
	"github.com/itsDrac/gemstone-auction/pkg/jwt"
	"github.com/itsDrac/gemstone-auction/pkg/logger"
	"github.com/itsDrac/gemstone-auction/pkg/utils"
)

type AuthServicer interface {
	LoginOperator(ctx context.Context, username, password string) (OperatorToken, error)
	ValidateAccessToken(tokenString string) (*config.UserClaims, error)
}

// OperatorToken is an access token carrying the operator role.
type OperatorToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

// AuthService signs operator tokens for the single configured operator
// account. The password is only ever held as a bcrypt hash.
type AuthService struct {
	JM           *jwt.JwtManager
	username     string
	passwordHash string
	operatorID   uuid.UUID
	log          *logger.Logger
}

func NewAuthService(jm *jwt.JwtManager, cfg config.AuthConfig, log *logger.Logger) (*AuthService, error) {
	if jm == nil {
		return nil, errors.New("auth service: jwt manager is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &AuthService{
		JM:           jm,
		username:     cfg.OperatorUsername,
		passwordHash: cfg.OperatorPasswordHash,
		// stable across restarts so audit trails line up
		operatorID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("operator:"+cfg.OperatorUsername)),
		log:        log.Named("auth"),
	}, nil
}

func (as *AuthService) LoginOperator(ctx context.Context, username, password string) (OperatorToken, error) {
	if as.passwordHash == "" {
		return OperatorToken{}, ErrLoginDisabled
	}
	if username != as.username {
		_ = utils.ComparePassword(password, as.passwordHash)
		as.log.Warnw("operator login refused", "username", username)
		return OperatorToken{}, ErrInvalidLogin
	}
	if err := utils.ComparePassword(password, as.passwordHash); err != nil {
		as.log.Warnw("operator login refused", "username", username)
		return OperatorToken{}, ErrInvalidLogin
	}

	token, err := as.JM.GenerateAccessToken(as.operatorID, config.RoleOperator)
	if err != nil {
		return OperatorToken{}, err
	}
	as.log.Infow("operator logged in", "operator_id", as.operatorID)
	return OperatorToken{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(config.AccessTokenDuration),
	}, nil
}

func (as *AuthService) ValidateAccessToken(tokenString string) (*config.UserClaims, error) {
	return as.JM.ValidateAccessToken(tokenString)
}
