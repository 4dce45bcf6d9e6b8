package models

import (
	"time"
)

// RoomStatus represents the current phase of a room
type RoomStatus string

const (
	// RoomStatusLobby indicates a room is waiting for players to join
	RoomStatusLobby RoomStatus = "lobby"

	// RoomStatusBetting indicates players are placing their bets
	RoomStatusBetting RoomStatus = "betting"

	// RoomStatusPlaying indicates a round is in progress
	RoomStatusPlaying RoomStatus = "playing"

	// RoomStatusResults indicates a round has been settled
	RoomStatusResults RoomStatus = "results"
)

// Turn pointer values that are not player ids
const (
	// TurnDealer means the dealer is acting
	TurnDealer = "dealer"

	// TurnReveal means the dealer is done and the hidden card is exposed,
	// awaiting the host's settlement
	TurnReveal = "reveal"

	// TurnDone means the round has been settled
	TurnDone = "done"
)

// Room represents one game instance shared through the replicated store.
// Progression fields (Status, Round, Deck, Dealer, DealerHand, CurrentPlayer,
// PlayerOrder) are written only by the host holding the authority lease.
type Room struct {
	// Code is the 4-character join code
	Code string

	// Host is the player id of the write authority
	Host string

	// Status is the current phase of the room
	Status RoomStatus

	// Round is the current round number, 0 in the lobby
	Round int

	// Deck is the shared draw pile; draws remove from the tail
	Deck []Card

	// Dealer is the player id of the current round's house
	Dealer string

	// DealerHand is the dealer's cards
	DealerHand []Card

	// CurrentPlayer is the turn pointer: a playerOrder id, "dealer",
	// "reveal", "done", or empty outside a round
	CurrentPlayer string

	// PlayerOrder is the fixed per-round turn sequence of non-dealer ids
	PlayerOrder []string

	// Created is when the room was created
	Created time.Time

	// Updated is when the room was last written
	Updated time.Time
}

// Authority is the host lease for a room. Whoever holds the unexpired
// lease is the only legal writer of room progression state.
type Authority struct {
	// Host is the player id holding the lease
	Host string `json:"host"`

	// Epoch increments every time the lease changes hands
	Epoch int64 `json:"epoch"`
}
