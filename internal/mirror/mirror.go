// Package mirror maintains a local copy of one room's replicated state.
//
// The store provides no ordering across documents, so the mirror never
// interprets events beyond "this document changed": it refetches the named
// document, swaps it into the snapshot, and hands the event to a single
// consumer. All game decisions are made against snapshots, one place, by
// one goroutine.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/plelievre/trinque/internal/models"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
)

// Snapshot is a point-in-time copy of the mirrored room state
type Snapshot struct {
	// Room is nil once the room document disappears from the store
	Room *models.Room

	// Players is the roster keyed by player id
	Players map[string]*models.Player
}

// Config holds configuration for a mirror
type Config struct {
	// RedisClient subscribes to the room's change channel
	RedisClient *redis.Client

	// RoomRepo reads the room document
	RoomRepo roomRepo.Repository

	// PlayerRepo reads player documents
	PlayerRepo playerRepo.Repository

	// Code is the room being mirrored
	Code string

	// Logger for subscription diagnostics
	Logger *log.Logger
}

// Mirror subscribes to a room's change events and keeps a local snapshot
type Mirror struct {
	client     *redis.Client
	roomRepo   roomRepo.Repository
	playerRepo playerRepo.Repository
	code       string
	logger     *log.Logger

	mu      sync.RWMutex
	room    *models.Room
	players map[string]*models.Player

	deltas chan models.Event
}

// New creates a mirror for one room
func New(cfg *Config) (*Mirror, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if cfg.RoomRepo == nil {
		return nil, errors.New("room repository cannot be nil")
	}
	if cfg.PlayerRepo == nil {
		return nil, errors.New("player repository cannot be nil")
	}
	if cfg.Code == "" {
		return nil, errors.New("room code cannot be empty")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Mirror{
		client:     cfg.RedisClient,
		roomRepo:   cfg.RoomRepo,
		playerRepo: cfg.PlayerRepo,
		code:       cfg.Code,
		logger:     logger.WithPrefix("mirror"),
		players:    make(map[string]*models.Player),
		deltas:     make(chan models.Event, 64),
	}, nil
}

// Run loads the full room state, then applies change events until the
// context is cancelled. It blocks; run it in its own goroutine.
func (m *Mirror) Run(ctx context.Context) error {
	sub := m.client.Subscribe(ctx, models.EventChannel(m.code))
	defer sub.Close()

	// Subscribe before the initial load so no event falls in the gap.
	// A duplicate refetch is harmless.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to room channel: %w", err)
	}

	if err := m.load(ctx); err != nil {
		return err
	}

	events := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-events:
			if !ok {
				return errors.New("room channel closed")
			}

			var event models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				m.logger.Warn("dropping malformed change event", "payload", msg.Payload)
				continue
			}

			if err := m.apply(ctx, event); err != nil {
				m.logger.Warn("failed to apply change event", "kind", event.Kind, "id", event.ID, "error", err)
				continue
			}

			// Hand the event to the dispatcher. Dropping on a full
			// buffer is safe: every event triggers a full refetch of
			// its document, so a later event carries the same state.
			select {
			case m.deltas <- event:
			default:
			}
		}
	}
}

// Deltas is the change feed for the single dispatcher consuming this mirror
func (m *Mirror) Deltas() <-chan models.Event {
	return m.deltas
}

// Snapshot returns a copy of the current mirrored state
func (m *Mirror) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &Snapshot{
		Players: make(map[string]*models.Player, len(m.players)),
	}
	if m.room != nil {
		room := *m.room
		snap.Room = &room
	}
	for id, p := range m.players {
		player := *p
		snap.Players[id] = &player
	}
	return snap
}

// load refetches the room document and the full roster
func (m *Mirror) load(ctx context.Context) error {
	room, err := m.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: m.code})
	if err != nil && !errors.Is(err, roomRepo.ErrRoomNotFound) {
		return err
	}

	players, err := m.playerRepo.GetPlayers(ctx, &playerRepo.GetPlayersInput{Code: m.code})
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.room = room
	m.players = make(map[string]*models.Player, len(players))
	for _, p := range players {
		m.players[p.ID] = p
	}
	return nil
}

// apply refetches the document an event names and swaps it into the snapshot
func (m *Mirror) apply(ctx context.Context, event models.Event) error {
	switch event.Kind {
	case models.EventKindRoom:
		room, err := m.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: m.code})
		if err != nil {
			if errors.Is(err, roomRepo.ErrRoomNotFound) {
				m.mu.Lock()
				m.room = nil
				m.mu.Unlock()
				return nil
			}
			return err
		}
		m.mu.Lock()
		m.room = room
		m.mu.Unlock()
		return nil

	case models.EventKindPlayer:
		player, err := m.playerRepo.GetPlayer(ctx, &playerRepo.GetPlayerInput{
			Code:     m.code,
			PlayerID: event.ID,
		})
		if err != nil {
			if errors.Is(err, playerRepo.ErrPlayerNotFound) {
				m.mu.Lock()
				delete(m.players, event.ID)
				m.mu.Unlock()
				return nil
			}
			return err
		}
		m.mu.Lock()
		m.players[player.ID] = player
		m.mu.Unlock()
		return nil

	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
}
