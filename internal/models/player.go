package models

import (
	"time"
)

// PlayerStatus represents a player's state within the current round
type PlayerStatus string

const (
	// PlayerStatusWaiting indicates a player has not bet yet
	PlayerStatusWaiting PlayerStatus = "waiting"

	// PlayerStatusReady indicates a player has submitted a bet
	PlayerStatusReady PlayerStatus = "ready"

	// PlayerStatusPlaying indicates a player has been dealt a hand
	PlayerStatusPlaying PlayerStatus = "playing"

	// PlayerStatusBust indicates a player's hand went over 21
	PlayerStatusBust PlayerStatus = "bust"

	// PlayerStatusWon indicates a player beat the dealer
	PlayerStatusWon PlayerStatus = "won"

	// PlayerStatusLost indicates the dealer beat a player
	PlayerStatusLost PlayerStatus = "lost"

	// PlayerStatusPush indicates a tie with the dealer
	PlayerStatusPush PlayerStatus = "push"
)

// BetType represents what a player is staking
type BetType string

const (
	// BetTypeNormal stakes a sip count given by the bet amount
	BetTypeNormal BetType = "normal"

	// BetTypeDemi stakes half a glass, amount is ignored
	BetTypeDemi BetType = "demi"

	// BetTypeCulSec stakes a full glass, amount is ignored
	BetTypeCulSec BetType = "culsec"
)

// Bet bounds for BetTypeNormal
const (
	MinBetAmount = 1
	MaxBetAmount = 50
)

// Bet is a player's stake for one round
type Bet struct {
	// Amount is the sip count, meaningful only for BetTypeNormal
	Amount int `json:"amount"`

	// Type is the kind of stake
	Type BetType `json:"type"`
}

// Player represents a participant, keyed by its durable device identifier.
// A player writes only its own record, plus the shared deck during its turn.
type Player struct {
	// ID is the durable device identifier
	ID string

	// Name is the display name
	Name string

	// Emoji is the avatar, display only
	Emoji string

	// IsHost is true for exactly one player per room
	IsHost bool

	// Bet is the stake for the current round, nil before betting
	Bet *Bet

	// Hand is the player's cards for the current round
	Hand []Card

	// Status is the player's state within the current round
	Status PlayerStatus

	// TotalGorgees is the cumulative sip count across rounds
	TotalGorgees int

	// TotalDemi is the cumulative half-glass count across rounds
	TotalDemi int

	// TotalCulSec is the cumulative full-glass count across rounds
	TotalCulSec int

	// Joined is when the player joined the room
	Joined time.Time

	// ActionDone signals the player finished its turn, nil otherwise.
	// Only non-host players use it; the host advances the turn directly.
	ActionDone *time.Time
}
