package gateway

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/plelievre/trinque/internal/mirror"
	"github.com/plelievre/trinque/internal/models"
	"github.com/plelievre/trinque/internal/scoring"
)

// MessageType identifies a frame on the websocket
type MessageType string

const (
	// Client to server
	MessageTypeBet         MessageType = "bet"
	MessageTypeHit         MessageType = "hit"
	MessageTypeStand       MessageType = "stand"
	MessageTypeDouble      MessageType = "double"
	MessageTypeSplit       MessageType = "split"
	MessageTypeDealerHit   MessageType = "dealer_hit"
	MessageTypeDealerStand MessageType = "dealer_stand"
	MessageTypeStart       MessageType = "start"
	MessageTypeFinalize    MessageType = "finalize"
	MessageTypeNextRound   MessageType = "next_round"
	MessageTypeLeave       MessageType = "leave"

	// Server to client
	MessageTypeState MessageType = "state"
	MessageTypeError MessageType = "error"
)

// Message is the base websocket frame
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server

type BetData struct {
	Amount int    `json:"amount"`
	Type   string `json:"betType"`
}

// Server → Client

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlayerView is one player's public state. Every hand is face up; the
// table plays in the same room in person.
type PlayerView struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Emoji        string        `json:"emoji"`
	IsHost       bool          `json:"isHost"`
	IsDealer     bool          `json:"isDealer"`
	Bet          *models.Bet   `json:"bet,omitempty"`
	Hand         []models.Card `json:"hand,omitempty"`
	Score        int           `json:"score"`
	Status       string        `json:"status"`
	TotalGorgees int           `json:"totalGorgees"`
	TotalDemi    int           `json:"totalDemi"`
	TotalCulSec  int           `json:"totalCulSec"`
}

// RoomView is the room's public state
type RoomView struct {
	Code          string        `json:"code"`
	Status        string        `json:"status"`
	Round         int           `json:"round"`
	Dealer        string        `json:"dealer,omitempty"`
	DealerHand    []models.Card `json:"dealerHand,omitempty"`
	DealerScore   int           `json:"dealerScore"`
	CurrentPlayer string        `json:"currentPlayer,omitempty"`
	PlayerOrder   []string      `json:"playerOrder,omitempty"`
	DeckRemaining int           `json:"deckRemaining"`
}

// StateData is the full table state pushed after every replicated change
type StateData struct {
	// You is the id this connection acts as
	You string `json:"you"`

	// Room is nil once the room disappears from the store
	Room *RoomView `json:"room,omitempty"`

	Players []PlayerView `json:"players"`
}

// StateFromSnapshot flattens a mirror snapshot into the wire shape,
// players in join order
func StateFromSnapshot(snap *mirror.Snapshot, you string) StateData {
	state := StateData{You: you}

	var dealer string
	if snap.Room != nil {
		dealer = snap.Room.Dealer
		state.Room = &RoomView{
			Code:          snap.Room.Code,
			Status:        string(snap.Room.Status),
			Round:         snap.Room.Round,
			Dealer:        dealer,
			DealerHand:    snap.Room.DealerHand,
			DealerScore:   scoring.Score(snap.Room.DealerHand),
			CurrentPlayer: snap.Room.CurrentPlayer,
			PlayerOrder:   snap.Room.PlayerOrder,
			DeckRemaining: len(snap.Room.Deck),
		}
	}

	state.Players = make([]PlayerView, 0, len(snap.Players))
	for _, p := range snap.Players {
		state.Players = append(state.Players, PlayerView{
			ID:           p.ID,
			Name:         p.Name,
			Emoji:        p.Emoji,
			IsHost:       p.IsHost,
			IsDealer:     p.ID == dealer,
			Bet:          p.Bet,
			Hand:         p.Hand,
			Score:        scoring.Score(p.Hand),
			Status:       string(p.Status),
			TotalGorgees: p.TotalGorgees,
			TotalDemi:    p.TotalDemi,
			TotalCulSec:  p.TotalCulSec,
		})
	}
	sort.Slice(state.Players, func(i, j int) bool {
		a := snap.Players[state.Players[i].ID]
		b := snap.Players[state.Players[j].ID]
		if !a.Joined.Equal(b.Joined) {
			return a.Joined.Before(b.Joined)
		}
		return a.ID < b.ID
	})

	return state
}
