package game

import "errors"

// Define errors
var (
	ErrNameRequired     = errors.New("player name is required")
	ErrEmojiRequired    = errors.New("player emoji is required")
	ErrInvalidRoomCode  = errors.New("invalid room code")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomUnavailable  = errors.New("room is no longer accepting players")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotHost          = errors.New("only the host may do this")
	ErrNotAuthority     = errors.New("caller does not hold the authority lease")
	ErrNotEnoughPlayers = errors.New("at least two players are required")
	ErrInvalidRoomState = errors.New("room is not in a valid state for this action")
	ErrNotYourTurn      = errors.New("it is not this player's turn")
	ErrNotInRound       = errors.New("player is not part of this round")
	ErrNotDealer        = errors.New("only the dealer may do this")
	ErrInvalidBet       = errors.New("bet amount is out of bounds")
	ErrCannotDouble     = errors.New("doubling requires a two-card hand")
	ErrSplitUnavailable = errors.New("split is not available")
	ErrDeckExhausted    = errors.New("deck is exhausted")
)
