// Package roomcode generates and validates 4-character room join codes.
package roomcode

import (
	"fmt"
	"strings"
)

// Alphabet excludes visually ambiguous glyphs (I, O, 0, 1) so codes can be
// read aloud and typed from another screen.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of a room code
const Length = 4

// RandSource provides the randomness for code generation
type RandSource interface {
	Intn(n int) int
}

// Generate creates a new room code from the provided rand source
func Generate(random RandSource) string {
	var sb strings.Builder
	sb.Grow(Length)
	for i := 0; i < Length; i++ {
		sb.WriteByte(Alphabet[random.Intn(len(Alphabet))])
	}
	return sb.String()
}

// Normalize uppercases a user-typed code
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks that a code has the right length and alphabet
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(code))
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return fmt.Errorf("invalid character %c at position %d", code[i], i)
		}
	}
	return nil
}
