package player

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go github.com/plelievre/trinque/internal/repositories/player Repository

import (
	"context"

	"github.com/plelievre/trinque/internal/models"
)

// Repository defines the interface for player document persistence in the
// replicated store. Players are scoped to a room and keyed by their durable
// device identifier.
type Repository interface {
	// SavePlayer persists the full player document and indexes it in the
	// room roster
	SavePlayer(ctx context.Context, input *SavePlayerInput) error

	// UpdatePlayer writes only the fields named by the update
	UpdatePlayer(ctx context.Context, input *UpdatePlayerInput) error

	// GetPlayer retrieves a player by room code and id
	GetPlayer(ctx context.Context, input *GetPlayerInput) (*models.Player, error)

	// GetPlayers retrieves the room roster in join order
	GetPlayers(ctx context.Context, input *GetPlayersInput) ([]*models.Player, error)

	// RemovePlayer removes a player from the room
	RemovePlayer(ctx context.Context, input *RemovePlayerInput) error
}
