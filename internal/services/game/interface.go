package game

import (
	"context"
)

// Service defines the game operations. Every participant's client calls the
// player-facing operations against its own identity; the host-facing
// operations additionally require the caller to hold the room's authority
// lease.
type Service interface {
	// CreateRoom creates a room and its host player
	CreateRoom(ctx context.Context, input *CreateRoomInput) (*CreateRoomOutput, error)

	// JoinRoom adds a player to a lobby, retrying the lookup while the
	// room document replicates
	JoinRoom(ctx context.Context, input *JoinRoomInput) (*JoinRoomOutput, error)

	// LeaveRoom removes a player, deleting the room when it empties
	LeaveRoom(ctx context.Context, input *LeaveRoomInput) (*LeaveRoomOutput, error)

	// StartGame moves a lobby into betting: random dealer, fixed order,
	// fresh deck, round one
	StartGame(ctx context.Context, input *StartGameInput) (*StartGameOutput, error)

	// PlaceBet records a player's stake and marks them ready
	PlaceBet(ctx context.Context, input *PlaceBetInput) (*PlaceBetOutput, error)

	// Hit draws a card from the shared deck into the caller's hand
	Hit(ctx context.Context, input *HitInput) (*HitOutput, error)

	// Stand ends the caller's turn
	Stand(ctx context.Context, input *StandInput) (*StandOutput, error)

	// Double doubles the caller's bet and draws exactly one more card
	Double(ctx context.Context, input *DoubleInput) (*DoubleOutput, error)

	// Split is not available and always fails
	Split(ctx context.Context, input *SplitInput) (*SplitOutput, error)

	// DealerHit draws a card into the dealer's hand during the dealer turn
	DealerHit(ctx context.Context, input *DealerHitInput) (*DealerHitOutput, error)

	// DealerStand ends the dealer's turn
	DealerStand(ctx context.Context, input *DealerStandInput) (*DealerStandOutput, error)

	// StartDealing deals the opening hands once every bettor is ready.
	// Host only; normally driven by the reconciler.
	StartDealing(ctx context.Context, input *StartDealingInput) (*StartDealingOutput, error)

	// AdvanceTurn moves the turn pointer to the next order id, or to the
	// dealer when the order is exhausted. Host only.
	AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) (*AdvanceTurnOutput, error)

	// RevealDealer moves the turn pointer to the reveal confirmation
	// step. Host only.
	RevealDealer(ctx context.Context, input *RevealDealerInput) (*RevealDealerOutput, error)

	// Finalize settles the round: statuses and drink counters. Host only,
	// exactly once per round.
	Finalize(ctx context.Context, input *FinalizeInput) (*FinalizeOutput, error)

	// NextRound resets round state and reopens betting, reshuffling and
	// redrawing the dealer when the deck runs low. Host only.
	NextRound(ctx context.Context, input *NextRoundInput) (*NextRoundOutput, error)
}
