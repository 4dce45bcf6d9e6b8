package models

// Suit is one of the four card suits
type Suit string

const (
	SuitSpades   Suit = "♠"
	SuitHearts   Suit = "♥"
	SuitDiamonds Suit = "♦"
	SuitClubs    Suit = "♣"
)

// Suits lists every suit in deterministic order
var Suits = []Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

// Values lists every card value in deterministic order
var Values = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// Card is a single playing card. Cards carry no ownership; the deck,
// the dealer's hand and every player hand partition one 52-card universe
// while a round is live.
type Card struct {
	// Suit is the card's suit symbol
	Suit Suit `json:"suit"`

	// Value is the card's face value: A, 2..10, J, Q, K
	Value string `json:"value"`
}

// DeckSize is the number of cards in a full deck
const DeckSize = 52
