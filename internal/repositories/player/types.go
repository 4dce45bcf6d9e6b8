package player

import (
	"time"

	"github.com/plelievre/trinque/internal/models"
)

type SavePlayerInput struct {
	Code   string
	Player *models.Player
}

// PlayerUpdate names the fields a partial write may touch. Nil pointers
// leave the stored field untouched. The drink counters are increment-only
// so settlement batches apply atomically on the store side.
type PlayerUpdate struct {
	Bet        *models.Bet
	ClearBet   bool
	Hand       *[]models.Card
	Status     *models.PlayerStatus
	ActionDone *time.Time
	ClearDone  bool

	AddGorgees int
	AddDemi    int
	AddCulSec  int
}

type UpdatePlayerInput struct {
	Code     string
	PlayerID string
	Update   *PlayerUpdate
}

type GetPlayerInput struct {
	Code     string
	PlayerID string
}

type GetPlayersInput struct {
	Code string
}

type RemovePlayerInput struct {
	Code     string
	PlayerID string
}
