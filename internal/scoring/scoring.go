// Package scoring computes blackjack hand totals.
package scoring

import (
	"github.com/plelievre/trinque/internal/models"
)

// Blackjack limits
const (
	// Target is the best possible hand total
	Target = 21

	// DealerStand is the total at which a dealer conventionally stops drawing
	DealerStand = 17
)

// CardValue returns the blackjack value of a single card: aces count 11,
// face cards count 10, numeric cards their face value.
func CardValue(card models.Card) int {
	switch card.Value {
	case "A":
		return 11
	case "K", "Q", "J":
		return 10
	case "10":
		return 10
	case "9":
		return 9
	case "8":
		return 8
	case "7":
		return 7
	case "6":
		return 6
	case "5":
		return 5
	case "4":
		return 4
	case "3":
		return 3
	case "2":
		return 2
	}
	return 0
}

// Score returns the hand total with standard soft-ace reduction: aces count
// 11 until the total exceeds 21, then drop to 1 one at a time. An empty hand
// scores 0.
func Score(hand []models.Card) int {
	score := 0
	aces := 0
	for _, card := range hand {
		score += CardValue(card)
		if card.Value == "A" {
			aces++
		}
	}
	for score > Target && aces > 0 {
		score -= 10
		aces--
	}
	return score
}

// IsBust reports whether a hand total exceeds 21
func IsBust(hand []models.Card) bool {
	return Score(hand) > Target
}
