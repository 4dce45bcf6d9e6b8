package room

import (
	"time"

	"github.com/plelievre/trinque/internal/models"
)

type CreateRoomInput struct {
	Room *models.Room
}

type SaveRoomInput struct {
	Room *models.Room
}

// RoomUpdate names the progression fields a partial write may touch.
// Nil pointers leave the stored field untouched; pointing at a zero value
// resets it. Updated is stamped on every write.
type RoomUpdate struct {
	Status        *models.RoomStatus
	Round         *int
	Deck          *[]models.Card
	Dealer        *string
	DealerHand    *[]models.Card
	CurrentPlayer *string
	PlayerOrder   *[]string
}

type UpdateRoomInput struct {
	Code   string
	Update *RoomUpdate
}

type GetRoomInput struct {
	Code string
}

type DeleteRoomInput struct {
	Code string
}

type ClaimAuthorityInput struct {
	Code string
	Host string
	TTL  time.Duration
}

type RenewAuthorityInput struct {
	Code string
	Host string
	TTL  time.Duration
}

type GetAuthorityInput struct {
	Code string
}
