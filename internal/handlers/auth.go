package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/itsDrac/gemstone-auction/internal/model"
	"github.com/itsDrac/gemstone-auction/internal/service"
)

type AuthHandler struct {
	authService service.AuthServicer
}

func NewAuthHandler(authSvc service.AuthServicer) (*AuthHandler, error) {
	if authSvc == nil {
		return nil, errors.New("auth handler: auth service is required")
	}
	return &AuthHandler{authService: authSvc}, nil
}

// LoginOperator godoc
//
//	@Summary		Operator login
//	@Description	Exchange the operator username and password for an access token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		model.OperatorLoginRequest	true	"Operator credentials"
//	@Success		200			{object}	map[string]any
//	@Failure		400			{object}	map[string]any
//	@Failure		401			{object}	map[string]any
//	@Router			/auth/operator/login [post]
func (h *AuthHandler) LoginOperator(w http.ResponseWriter, r *http.Request) {
	var req model.OperatorLoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.authService.LoginOperator(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrLoginDisabled):
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "operator login is not configured", nil)
		return
	case errors.Is(err, service.ErrInvalidLogin):
		RespondErrorJSON(w, r, http.StatusUnauthorized, ErrAuthFailed.Error(), "Invalid username or password", nil)
		return
	case err != nil:
		slog.Error("[Auth] token issue failed", "error", err.Error())
		RespondErrorJSON(w, r, http.StatusInternalServerError, ErrInternalServer.Error(), "Something went wrong", nil)
		return
	}

	RespondSuccessJSON(w, r, http.StatusOK, "login successful", model.TokenData{
		AccessToken: token.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   token.ExpiresAt,
	})
}
