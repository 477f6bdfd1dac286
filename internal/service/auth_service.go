package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/techfix/techfix-backend/internal/domain"
)

// AuthService handles authentication-related business logic
type AuthService struct {
	userRepo  domain.UserRepository
	storeRepo domain.StoreRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, storeRepo domain.StoreRepository) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		storeRepo: storeRepo,
	}
}

// AuthResult represents the result of an authentication operation
type AuthResult struct {
	User      *domain.User
	Store     *domain.Store
	IsNewUser bool
}

// AuthenticateUser handles the flow after Auth0 login. Creates the user
// and their store on first login.
func (s *AuthService) AuthenticateUser(auth0ID, email string, name *string) (*AuthResult, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name)
	if err != nil {
		log.Error().Err(err).Str("auth0_id", auth0ID).Msg("Failed to create or get user")
		return nil, err
	}

	store, err := s.storeRepo.GetByUserID(user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			store, err = s.createDefaultStore(user.ID)
			if err != nil {
				log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create default store")
				return nil, err
			}
			log.Info().Str("user_id", user.ID.String()).Msg("Created new user with default store")
			return &AuthResult{
				User:      user,
				Store:     store,
				IsNewUser: true,
			}, nil
		}
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get store")
		return nil, err
	}

	return &AuthResult{
		User:      user,
		Store:     store,
		IsNewUser: false,
	}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// GetUserByAuth0ID retrieves a user by their Auth0 ID
func (s *AuthService) GetUserByAuth0ID(auth0ID string) (*domain.User, error) {
	return s.userRepo.GetByAuth0ID(auth0ID)
}

// GetStoreByAuth0ID retrieves a user's store by their Auth0 ID
func (s *AuthService) GetStoreByAuth0ID(auth0ID string) (*domain.Store, error) {
	return s.storeRepo.GetByUserAuth0ID(auth0ID)
}

// GetStoreByID retrieves a store by its ID
func (s *AuthService) GetStoreByID(id int32) (*domain.Store, error) {
	return s.storeRepo.GetByID(id)
}

// GetStoreIDByAuth0ID implements websocket.StoreLookup
func (s *AuthService) GetStoreIDByAuth0ID(auth0ID string) (int32, error) {
	store, err := s.storeRepo.GetByUserAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return store.ID, nil
}

func (s *AuthService) createDefaultStore(userID uuid.UUID) (*domain.Store, error) {
	store := &domain.Store{
		UserID: userID,
		Name:   "Minha Loja",
	}
	return s.storeRepo.Create(store)
}
