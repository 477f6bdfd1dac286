package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/middleware"
	"github.com/techfix/techfix-backend/internal/service"
)

// SettingsHandler handles store profile HTTP requests
type SettingsHandler struct {
	settingsService *service.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// ProfileRequest represents the save profile body
type ProfileRequest struct {
	CompanyName string  `json:"companyName"`
	Document    *string `json:"document,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	CEP         *string `json:"cep,omitempty"`
	Street      *string `json:"street,omitempty"`
	Number      *string `json:"number,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
}

// GetProfile handles GET /api/v1/settings/profile
func (h *SettingsHandler) GetProfile(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	profile, err := h.settingsService.GetProfile(storeID)
	if err != nil {
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to get profile")
		return NewInternalError(c, "Failed to get profile")
	}

	return c.JSON(http.StatusOK, profile)
}

// SaveProfile handles PUT /api/v1/settings/profile
func (h *SettingsHandler) SaveProfile(c echo.Context) error {
	storeID := middleware.GetStoreID(c)
	if storeID == 0 {
		return NewUnauthorizedError(c, "Store required")
	}

	var req ProfileRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	profile, err := h.settingsService.SaveProfile(storeID, service.ProfileInput{
		CompanyName: req.CompanyName,
		Document:    req.Document,
		Phone:       req.Phone,
		Email:       req.Email,
		CEP:         req.CEP,
		Street:      req.Street,
		Number:      req.Number,
		City:        req.City,
		State:       req.State,
	})
	if err != nil {
		if errors.Is(err, domain.ErrProfileNameEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "companyName", Message: "Company name is required"},
			})
		}
		log.Error().Err(err).Int32("store_id", storeID).Msg("Failed to save profile")
		return NewInternalError(c, "Failed to save profile")
	}

	return c.JSON(http.StatusOK, profile)
}
