package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// MeResponse represents the authenticated user and their store
type MeResponse struct {
	UserID    string  `json:"userId"`
	Email     string  `json:"email"`
	Name      *string `json:"name,omitempty"`
	StoreID   int32   `json:"storeId"`
	StoreName string  `json:"storeName"`
	IsNewUser bool    `json:"isNewUser"`
}

// Me handles GET /api/v1/me. Creates the user and their store on first
// login.
func (h *AuthHandler) Me(c echo.Context) error {
	auth0ID := middleware.GetAuth0ID(c)
	if auth0ID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	claims := middleware.GetCustomClaims(c)
	email := ""
	var name *string
	if claims != nil {
		email = claims.Email
		if claims.Name != "" {
			n := claims.Name
			name = &n
		}
	}

	result, err := h.authService.AuthenticateUser(auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to authenticate user")
		return NewInternalError(c, "Failed to authenticate user")
	}

	return c.JSON(http.StatusOK, MeResponse{
		UserID:    result.User.ID.String(),
		Email:     result.User.Email,
		Name:      result.User.Name,
		StoreID:   result.Store.ID,
		StoreName: result.Store.Name,
		IsNewUser: result.IsNewUser,
	})
}
