package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/plelievre/trinque/internal/common/identity"
	"github.com/plelievre/trinque/internal/deck"
	"github.com/plelievre/trinque/internal/gateway"
	"github.com/plelievre/trinque/internal/mirror"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
	"github.com/plelievre/trinque/internal/services/game"
)

// connectFlags are shared by the host and join commands
type connectFlags struct {
	Addr          string `kong:"default='127.0.0.1:8090',help='Gateway listen address for the local UI'"`
	Redis         string `kong:"default='localhost:6379',env='REDIS_ADDR',help='Redis address'"`
	RedisPassword string `kong:"env='REDIS_PASSWORD',help='Redis password'"`
	IdentityFile  string `kong:"env='TRINQUE_IDENTITY_FILE',help='Device identity file path'"`
	Name          string `kong:"required,help='Display name at the table'"`
	Emoji         string `kong:"default='🍺',help='Avatar emoji'"`
	Debug         bool   `kong:"help='Enable debug logging'"`
}

// app holds the wiring shared by both commands
type app struct {
	logger     *log.Logger
	client     *redis.Client
	roomRepo   roomRepo.Repository
	playerRepo playerRepo.Repository
	service    game.Service
	deviceID   string
}

// setup builds the shared stack: logger, device identity, Redis client,
// repositories and the game service
func setup(ctx context.Context, flags *connectFlags, seed int64) (*app, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if flags.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	identityPath := flags.IdentityFile
	if identityPath == "" {
		path, err := identity.DefaultPath()
		if err != nil {
			return nil, err
		}
		identityPath = path
	}
	deviceID, err := identity.LoadOrCreate(identityPath)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     flags.Redis,
		Password: flags.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", flags.Redis, err)
	}

	rooms, err := roomRepo.NewRedis(&roomRepo.Config{RedisClient: client})
	if err != nil {
		return nil, err
	}
	players, err := playerRepo.NewRedis(&playerRepo.Config{RedisClient: client})
	if err != nil {
		return nil, err
	}

	service, err := game.New(&game.Config{
		RoomRepo:   rooms,
		PlayerRepo: players,
		DeckEngine: deck.New(&deck.Config{Seed: seed}),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("stack ready", "redis", flags.Redis, "device", deviceID)

	return &app{
		logger:     logger,
		client:     client,
		roomRepo:   rooms,
		playerRepo: players,
		service:    service,
		deviceID:   deviceID,
	}, nil
}

// newMirror builds the room mirror for this device
func (a *app) newMirror(code string) (*mirror.Mirror, error) {
	return mirror.New(&mirror.Config{
		RedisClient: a.client,
		RoomRepo:    a.roomRepo,
		PlayerRepo:  a.playerRepo,
		Code:        code,
		Logger:      a.logger,
	})
}

// newGateway builds the local UI gateway for this device
func (a *app) newGateway(addr, code string, m *mirror.Mirror) (*gateway.Gateway, error) {
	return gateway.New(&gateway.Config{
		Addr:     addr,
		Service:  a.service,
		Mirror:   m,
		Code:     code,
		PlayerID: a.deviceID,
		Logger:   a.logger,
	})
}

// leave removes this device from the room on the way out, with a short
// context since the process is exiting
func (a *app) leave(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
	defer cancel()

	out, err := a.service.LeaveRoom(ctx, &game.LeaveRoomInput{
		Code:     code,
		PlayerID: a.deviceID,
	})
	if err != nil {
		a.logger.Warn("failed to leave room", "code", code, "error", err)
		return
	}
	if out.RoomDeleted {
		a.logger.Info("room closed", "code", code)
	}
}
