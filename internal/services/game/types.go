package game

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/plelievre/trinque/internal/common/clock"
	"github.com/plelievre/trinque/internal/deck"
	"github.com/plelievre/trinque/internal/models"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
)

// Defaults applied by New when the config leaves them zero
const (
	// DefaultAuthorityTTL bounds how stale a host lease can get
	DefaultAuthorityTTL = 5 * time.Second

	// DefaultJoinAttempts bounds the lookup retries of JoinRoom
	DefaultJoinAttempts = 12

	// DefaultJoinBackoff is the fixed wait between join lookup attempts
	DefaultJoinBackoff = 500 * time.Millisecond

	// DefaultReshuffleThreshold is the deck size below which a round
	// boundary rebuilds the deck and redraws the dealer
	DefaultReshuffleThreshold = 15

	// codeAttempts bounds retries against room code collisions
	codeAttempts = 5
)

// Config holds configuration for the game service
type Config struct {
	// Repository dependencies
	RoomRepo   roomRepo.Repository
	PlayerRepo playerRepo.Repository

	// DeckEngine builds decks and provides shared randomness
	DeckEngine *deck.Engine

	// Clock stamps documents
	Clock clock.Clock

	// Quartz schedules join-retry waits; mockable in tests
	Quartz quartz.Clock

	// Logger for service diagnostics
	Logger *log.Logger

	// AuthorityTTL is the host lease duration
	AuthorityTTL time.Duration

	// JoinAttempts is how many times JoinRoom polls for the room
	JoinAttempts int

	// JoinBackoff is the fixed wait between join lookup attempts
	JoinBackoff time.Duration

	// ReshuffleThreshold triggers a fresh deck at round boundaries
	ReshuffleThreshold int
}

// CreateRoomInput contains parameters for creating a new room
type CreateRoomInput struct {
	// HostID is the creating device's identifier
	HostID string

	// Name is the host's display name
	Name string

	// Emoji is the host's avatar
	Emoji string
}

// CreateRoomOutput contains the result of creating a new room
type CreateRoomOutput struct {
	Room   *models.Room
	Player *models.Player
}

// JoinRoomInput contains parameters for joining a room
type JoinRoomInput struct {
	// PlayerID is the joining device's identifier
	PlayerID string

	// Code is the room code, as typed by the user
	Code string

	// Name is the display name
	Name string

	// Emoji is the avatar
	Emoji string
}

// JoinRoomOutput contains the result of joining a room
type JoinRoomOutput struct {
	Room   *models.Room
	Player *models.Player
}

// LeaveRoomInput contains parameters for leaving a room
type LeaveRoomInput struct {
	Code     string
	PlayerID string
}

// LeaveRoomOutput contains the result of leaving a room
type LeaveRoomOutput struct {
	// RoomDeleted is true when the last player left and the room was
	// cleaned up
	RoomDeleted bool
}

// StartGameInput contains parameters for moving a lobby into betting
type StartGameInput struct {
	Code     string
	PlayerID string
}

// StartGameOutput contains the result of starting a game
type StartGameOutput struct {
	// Dealer is the randomly selected house for round one
	Dealer string

	// PlayerOrder is the fixed turn sequence for round one
	PlayerOrder []string
}

// PlaceBetInput contains parameters for submitting a bet
type PlaceBetInput struct {
	Code     string
	PlayerID string
	Bet      *models.Bet
}

// PlaceBetOutput contains the result of submitting a bet
type PlaceBetOutput struct {
	Bet *models.Bet
}

// HitInput contains parameters for drawing a card
type HitInput struct {
	Code     string
	PlayerID string
}

// HitOutput contains the result of drawing a card
type HitOutput struct {
	Card   models.Card
	Score  int
	Busted bool
}

// StandInput contains parameters for standing
type StandInput struct {
	Code     string
	PlayerID string
}

// StandOutput contains the result of standing
type StandOutput struct{}

// DoubleInput contains parameters for doubling down
type DoubleInput struct {
	Code     string
	PlayerID string
}

// DoubleOutput contains the result of doubling down
type DoubleOutput struct {
	Card   models.Card
	Score  int
	Busted bool
	Bet    *models.Bet
}

// SplitInput contains parameters for splitting a hand
type SplitInput struct {
	Code     string
	PlayerID string
}

// SplitOutput contains the result of splitting a hand
type SplitOutput struct{}

// DealerHitInput contains parameters for the dealer drawing a card
type DealerHitInput struct {
	Code     string
	PlayerID string
}

// DealerHitOutput contains the result of the dealer drawing a card
type DealerHitOutput struct {
	Card  models.Card
	Score int
}

// DealerStandInput contains parameters for the dealer standing
type DealerStandInput struct {
	Code     string
	PlayerID string
}

// DealerStandOutput contains the result of the dealer standing
type DealerStandOutput struct{}

// StartDealingInput contains parameters for dealing the opening hands
type StartDealingInput struct {
	Code   string
	HostID string
}

// StartDealingOutput contains the result of dealing the opening hands
type StartDealingOutput struct {
	// CurrentPlayer is the first id of the turn order
	CurrentPlayer string
}

// AdvanceTurnInput contains parameters for moving the turn pointer
type AdvanceTurnInput struct {
	Code   string
	HostID string
}

// AdvanceTurnOutput contains the result of moving the turn pointer
type AdvanceTurnOutput struct {
	// CurrentPlayer is the new turn pointer value
	CurrentPlayer string
}

// RevealDealerInput contains parameters for exposing the dealer's hand
type RevealDealerInput struct {
	Code   string
	HostID string
}

// RevealDealerOutput contains the result of exposing the dealer's hand
type RevealDealerOutput struct{}

// Outcome is one player's settlement for a round
type Outcome struct {
	// PlayerID is the settled player
	PlayerID string

	// Status is won, lost, bust or push
	Status models.PlayerStatus

	// Score is the player's final hand total
	Score int
}

// FinalizeInput contains parameters for settling a round
type FinalizeInput struct {
	Code   string
	HostID string
}

// FinalizeOutput contains the result of settling a round
type FinalizeOutput struct {
	// DealerScore is the dealer's final hand total
	DealerScore int

	// DealerBust is true when the dealer went over 21
	DealerBust bool

	// Outcomes lists every non-dealer player's settlement in turn order
	Outcomes []Outcome
}

// NextRoundInput contains parameters for opening the next round
type NextRoundInput struct {
	Code   string
	HostID string
}

// NextRoundOutput contains the result of opening the next round
type NextRoundOutput struct {
	// Round is the new round number
	Round int

	// Reshuffled is true when the deck was rebuilt and the dealer redrawn
	Reshuffled bool
}
