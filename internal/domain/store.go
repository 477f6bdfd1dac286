package domain

import (
	"time"

	"github.com/google/uuid"
)

// Store is the tenant boundary: every business entity belongs to exactly
// one store, and a user owns exactly one store.
type Store struct {
	ID        int32     `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoreRepository defines persistence for stores
type StoreRepository interface {
	GetByID(id int32) (*Store, error)
	GetByUserID(userID uuid.UUID) (*Store, error)
	GetByUserAuth0ID(auth0ID string) (*Store, error)
	Create(store *Store) (*Store, error)
}
