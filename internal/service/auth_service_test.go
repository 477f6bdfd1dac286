package service

import (
	"errors"
	"testing"

	"github.com/techfix/techfix-backend/internal/domain"
	"github.com/techfix/techfix-backend/internal/testutil"
)

func newAuthFixture() (*AuthService, *testutil.MockUserRepository, *testutil.MockStoreRepository) {
	userRepo := testutil.NewMockUserRepository()
	storeRepo := testutil.NewMockStoreRepository()
	return NewAuthService(userRepo, storeRepo), userRepo, storeRepo
}

func TestAuthenticateUser_FirstLoginProvisionsStore(t *testing.T) {
	svc, _, storeRepo := newAuthFixture()

	result, err := svc.AuthenticateUser("auth0|abc123", "dono@loja.com", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.IsNewUser {
		t.Error("Expected IsNewUser on first login")
	}
	if result.Store == nil || result.Store.Name != "Minha Loja" {
		t.Errorf("Expected default store, got %+v", result.Store)
	}
	if len(storeRepo.Stores) != 1 {
		t.Errorf("Expected 1 store created, got %d", len(storeRepo.Stores))
	}
}

func TestAuthenticateUser_ReturningUser(t *testing.T) {
	svc, _, _ := newAuthFixture()

	first, err := svc.AuthenticateUser("auth0|abc123", "dono@loja.com", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	second, err := svc.AuthenticateUser("auth0|abc123", "dono@loja.com", nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if second.IsNewUser {
		t.Error("Returning user must not be flagged as new")
	}
	if second.Store.ID != first.Store.ID {
		t.Errorf("Expected same store %d, got %d", first.Store.ID, second.Store.ID)
	}
	if second.User.ID != first.User.ID {
		t.Error("Expected same user on repeat login")
	}
}

func TestGetStoreIDByAuth0ID_ResolvesThroughOwner(t *testing.T) {
	svc, userRepo, storeRepo := newAuthFixture()

	user, _ := userRepo.CreateOrGetByAuth0ID("auth0|abc123", "dono@loja.com", nil)
	store, _ := storeRepo.Create(&domain.Store{UserID: user.ID, Name: "TechFix Centro"})
	storeRepo.Auth0Owners["auth0|abc123"] = user.ID

	storeID, err := svc.GetStoreIDByAuth0ID("auth0|abc123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if storeID != store.ID {
		t.Errorf("Expected store %d, got %d", store.ID, storeID)
	}
}

func TestGetStoreIDByAuth0ID_UnknownSubject(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.GetStoreIDByAuth0ID("auth0|nobody")
	if !errors.Is(err, domain.ErrStoreNotFound) {
		t.Errorf("Expected ErrStoreNotFound, got %v", err)
	}
}
