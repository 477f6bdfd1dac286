package service

import (
	"errors"
	"strings"

	"github.com/techfix/techfix-backend/internal/domain"
)

// SettingsService handles the per-store company profile
type SettingsService struct {
	profileRepo domain.StoreProfileRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(profileRepo domain.StoreProfileRepository) *SettingsService {
	return &SettingsService{profileRepo: profileRepo}
}

// GetProfile retrieves the store's company profile. A store that never
// saved one gets an empty profile back, not an error.
func (s *SettingsService) GetProfile(storeID int32) (*domain.StoreProfile, error) {
	profile, err := s.profileRepo.Get(storeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.StoreProfile{StoreID: storeID}, nil
		}
		return nil, err
	}
	return profile, nil
}

// ProfileInput contains input for saving the company profile
type ProfileInput struct {
	CompanyName string
	Document    *string
	Phone       *string
	Email       *string
	CEP         *string
	Street      *string
	Number      *string
	City        *string
	State       *string
}

// SaveProfile upserts the store's company profile
func (s *SettingsService) SaveProfile(storeID int32, input ProfileInput) (*domain.StoreProfile, error) {
	profile := &domain.StoreProfile{
		StoreID:     storeID,
		CompanyName: strings.TrimSpace(input.CompanyName),
		Document:    input.Document,
		Phone:       input.Phone,
		Email:       input.Email,
		CEP:         input.CEP,
		Street:      input.Street,
		Number:      input.Number,
		City:        input.City,
		State:       input.State,
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return s.profileRepo.Upsert(profile)
}
