package models

import (
	"encoding/json"
	"fmt"
)

// SchemaVersion is written on every stored document. Bump it when the text
// encoding of any nested field changes.
const SchemaVersion = "1"

// Nested sequences are text-encoded inside otherwise scalar store fields.
// All encoding lives here so every field uses the same representation.

// EncodeCards encodes a card sequence for a store field. An empty sequence
// encodes as the empty string, which is also the reset value.
func EncodeCards(cards []Card) (string, error) {
	if len(cards) == 0 {
		return "", nil
	}
	b, err := json.Marshal(cards)
	if err != nil {
		return "", fmt.Errorf("failed to encode cards: %w", err)
	}
	return string(b), nil
}

// DecodeCards decodes a card sequence from a store field
func DecodeCards(s string) ([]Card, error) {
	if s == "" {
		return nil, nil
	}
	var cards []Card
	if err := json.Unmarshal([]byte(s), &cards); err != nil {
		return nil, fmt.Errorf("failed to decode cards: %w", err)
	}
	return cards, nil
}

// EncodeOrder encodes a player id sequence for a store field
func EncodeOrder(order []string) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	b, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to encode player order: %w", err)
	}
	return string(b), nil
}

// DecodeOrder decodes a player id sequence from a store field
func DecodeOrder(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var order []string
	if err := json.Unmarshal([]byte(s), &order); err != nil {
		return nil, fmt.Errorf("failed to decode player order: %w", err)
	}
	return order, nil
}

// EncodeBet encodes a bet for a store field. A nil bet encodes as the
// empty string, which is also the reset value.
func EncodeBet(bet *Bet) (string, error) {
	if bet == nil {
		return "", nil
	}
	b, err := json.Marshal(bet)
	if err != nil {
		return "", fmt.Errorf("failed to encode bet: %w", err)
	}
	return string(b), nil
}

// DecodeBet decodes a bet from a store field
func DecodeBet(s string) (*Bet, error) {
	if s == "" {
		return nil, nil
	}
	var bet Bet
	if err := json.Unmarshal([]byte(s), &bet); err != nil {
		return nil, fmt.Errorf("failed to decode bet: %w", err)
	}
	return &bet, nil
}
