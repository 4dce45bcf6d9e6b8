package room

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/plelievre/trinque/internal/repositories/room Repository

import (
	"context"

	"github.com/plelievre/trinque/internal/models"
)

// Repository defines the interface for room document persistence in the
// replicated store
type Repository interface {
	// CreateRoom persists a new room, refusing to overwrite a live one
	CreateRoom(ctx context.Context, input *CreateRoomInput) error

	// SaveRoom persists the full room document
	SaveRoom(ctx context.Context, input *SaveRoomInput) error

	// UpdateRoom writes only the given progression fields
	UpdateRoom(ctx context.Context, input *UpdateRoomInput) error

	// GetRoom retrieves a room by code
	GetRoom(ctx context.Context, input *GetRoomInput) (*models.Room, error)

	// DeleteRoom removes a room and everything under it
	DeleteRoom(ctx context.Context, input *DeleteRoomInput) error

	// ClaimAuthority takes the host lease for a room if it is free
	ClaimAuthority(ctx context.Context, input *ClaimAuthorityInput) (*models.Authority, error)

	// RenewAuthority extends a lease the caller already holds
	RenewAuthority(ctx context.Context, input *RenewAuthorityInput) error

	// GetAuthority retrieves the current lease holder
	GetAuthority(ctx context.Context, input *GetAuthorityInput) (*models.Authority, error)
}
