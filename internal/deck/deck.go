package deck

import (
	"math/rand"
	"time"

	"github.com/plelievre/trinque/internal/models"
)

// Engine builds shuffled decks and provides the shared randomness for
// dealer selection
type Engine struct {
	random *rand.Rand
}

// Config for the deck engine
type Config struct {
	// Optional seed for testing
	Seed int64
}

// New creates a new deck engine
func New(cfg *Config) *Engine {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	source := rand.NewSource(seed)
	random := rand.New(source)

	return &Engine{
		random: random,
	}
}

// NewDeck produces the 52 suit-by-value combinations in suit-major order,
// then shuffles them in place with a Fisher-Yates pass.
func (e *Engine) NewDeck() []models.Card {
	cards := make([]models.Card, 0, models.DeckSize)
	for _, suit := range models.Suits {
		for _, value := range models.Values {
			cards = append(cards, models.Card{Suit: suit, Value: value})
		}
	}

	for i := len(cards) - 1; i > 0; i-- {
		j := e.random.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return cards
}

// Intn returns a uniform random int in [0, n), used for dealer selection
func (e *Engine) Intn(n int) int {
	return e.random.Intn(n)
}

// Draw removes and returns the last card of the deck. The deck is a stack;
// the caller must never draw from an empty deck, the reshuffle threshold at
// round boundaries guarantees enough cards mid-round.
func Draw(cards []models.Card) (models.Card, []models.Card) {
	card := cards[len(cards)-1]
	return card, cards[:len(cards)-1]
}
