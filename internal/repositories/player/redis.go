package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plelievre/trinque/internal/models"
)

const (
	playersKeyFormat = "trinque:room:%s:players"
	playerKeyFormat  = "trinque:room:%s:player:%s"
)

// ErrPlayerNotFound is returned when a player is not found
var ErrPlayerNotFound = errors.New("player not found")

// Config holds configuration for the Redis player repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed player repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// SavePlayer persists the full player document, indexes it in the roster
// sorted by join time, and publishes a change event
func (r *redisRepository) SavePlayer(ctx context.Context, input *SavePlayerInput) error {
	if input == nil || input.Code == "" || input.Player == nil {
		return errors.New("input, code and player cannot be empty")
	}

	fields, err := encodePlayer(input.Player)
	if err != nil {
		return err
	}

	playerKey := fmt.Sprintf(playerKeyFormat, input.Code, input.Player.ID)
	playersKey := fmt.Sprintf(playersKeyFormat, input.Code)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, playerKey, fields)
	pipe.ZAdd(ctx, playersKey, redis.Z{
		Score:  float64(input.Player.Joined.UnixMilli()),
		Member: input.Player.ID,
	})
	r.publishChange(ctx, pipe, input.Code, input.Player.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}

	return nil
}

// UpdatePlayer writes only the fields named by the update
func (r *redisRepository) UpdatePlayer(ctx context.Context, input *UpdatePlayerInput) error {
	if input == nil || input.Code == "" || input.PlayerID == "" || input.Update == nil {
		return errors.New("input, code, player id and update cannot be empty")
	}

	fields := map[string]interface{}{}

	u := input.Update
	if u.Bet != nil {
		encoded, err := models.EncodeBet(u.Bet)
		if err != nil {
			return err
		}
		fields["bet"] = encoded
	} else if u.ClearBet {
		fields["bet"] = ""
	}
	if u.Hand != nil {
		encoded, err := models.EncodeCards(*u.Hand)
		if err != nil {
			return err
		}
		fields["hand"] = encoded
	}
	if u.Status != nil {
		fields["status"] = string(*u.Status)
	}
	if u.ActionDone != nil {
		fields["actionDone"] = strconv.FormatInt(u.ActionDone.UnixMilli(), 10)
	} else if u.ClearDone {
		fields["actionDone"] = ""
	}

	playerKey := fmt.Sprintf(playerKeyFormat, input.Code, input.PlayerID)

	pipe := r.client.Pipeline()
	if len(fields) > 0 {
		pipe.HSet(ctx, playerKey, fields)
	}
	if u.AddGorgees > 0 {
		pipe.HIncrBy(ctx, playerKey, "totalGorgees", int64(u.AddGorgees))
	}
	if u.AddDemi > 0 {
		pipe.HIncrBy(ctx, playerKey, "totalDemi", int64(u.AddDemi))
	}
	if u.AddCulSec > 0 {
		pipe.HIncrBy(ctx, playerKey, "totalCulSec", int64(u.AddCulSec))
	}
	r.publishChange(ctx, pipe, input.Code, input.PlayerID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

// GetPlayer retrieves a player by room code and id from Redis
func (r *redisRepository) GetPlayer(ctx context.Context, input *GetPlayerInput) (*models.Player, error) {
	if input == nil || input.Code == "" || input.PlayerID == "" {
		return nil, errors.New("input, code and player id cannot be empty")
	}

	playerKey := fmt.Sprintf(playerKeyFormat, input.Code, input.PlayerID)
	fields, err := r.client.HGetAll(ctx, playerKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrPlayerNotFound
	}

	return decodePlayer(fields)
}

// GetPlayers retrieves the room roster in join order
func (r *redisRepository) GetPlayers(ctx context.Context, input *GetPlayersInput) ([]*models.Player, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and code cannot be empty")
	}

	playersKey := fmt.Sprintf(playersKeyFormat, input.Code)
	playerIDs, err := r.client.ZRange(ctx, playersKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room roster: %w", err)
	}

	if len(playerIDs) == 0 {
		return []*models.Player{}, nil
	}

	pipe := r.client.Pipeline()
	commands := make([]*redis.MapStringStringCmd, len(playerIDs))
	for i, playerID := range playerIDs {
		commands[i] = pipe.HGetAll(ctx, fmt.Sprintf(playerKeyFormat, input.Code, playerID))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	players := make([]*models.Player, 0, len(playerIDs))
	for i, cmd := range commands {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			// Player left between reading the roster and the fetch
			continue
		}
		player, err := decodePlayer(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to decode player %s: %w", playerIDs[i], err)
		}
		players = append(players, player)
	}

	return players, nil
}

// RemovePlayer removes a player document and its roster entry
func (r *redisRepository) RemovePlayer(ctx context.Context, input *RemovePlayerInput) error {
	if input == nil || input.Code == "" || input.PlayerID == "" {
		return errors.New("input, code and player id cannot be empty")
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf(playerKeyFormat, input.Code, input.PlayerID))
	pipe.ZRem(ctx, fmt.Sprintf(playersKeyFormat, input.Code), input.PlayerID)
	r.publishChange(ctx, pipe, input.Code, input.PlayerID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove player: %w", err)
	}

	return nil
}

// publishChange queues a change event on the room's channel
func (r *redisRepository) publishChange(ctx context.Context, pipe redis.Pipeliner, code, playerID string) {
	event := models.Event{Kind: models.EventKindPlayer, ID: playerID}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	pipe.Publish(ctx, models.EventChannel(code), data)
}

// encodePlayer maps a player to its hash fields
func encodePlayer(player *models.Player) (map[string]interface{}, error) {
	bet, err := models.EncodeBet(player.Bet)
	if err != nil {
		return nil, err
	}
	hand, err := models.EncodeCards(player.Hand)
	if err != nil {
		return nil, err
	}

	actionDone := ""
	if player.ActionDone != nil {
		actionDone = strconv.FormatInt(player.ActionDone.UnixMilli(), 10)
	}

	return map[string]interface{}{
		"schema":       models.SchemaVersion,
		"id":           player.ID,
		"name":         player.Name,
		"emoji":        player.Emoji,
		"isHost":       strconv.FormatBool(player.IsHost),
		"bet":          bet,
		"hand":         hand,
		"status":       string(player.Status),
		"totalGorgees": strconv.Itoa(player.TotalGorgees),
		"totalDemi":    strconv.Itoa(player.TotalDemi),
		"totalCulSec":  strconv.Itoa(player.TotalCulSec),
		"joined":       strconv.FormatInt(player.Joined.UnixMilli(), 10),
		"actionDone":   actionDone,
	}, nil
}

// decodePlayer maps hash fields back to a player
func decodePlayer(fields map[string]string) (*models.Player, error) {
	if schema, ok := fields["schema"]; ok && schema != models.SchemaVersion {
		return nil, fmt.Errorf("unsupported player schema version %q", schema)
	}

	bet, err := models.DecodeBet(fields["bet"])
	if err != nil {
		return nil, err
	}
	hand, err := models.DecodeCards(fields["hand"])
	if err != nil {
		return nil, err
	}

	var actionDone *time.Time
	if fields["actionDone"] != "" {
		ms, err := strconv.ParseInt(fields["actionDone"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode actionDone: %w", err)
		}
		t := time.UnixMilli(ms).UTC()
		actionDone = &t
	}

	var joined time.Time
	if fields["joined"] != "" {
		ms, err := strconv.ParseInt(fields["joined"], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode joined: %w", err)
		}
		joined = time.UnixMilli(ms).UTC()
	}

	return &models.Player{
		ID:           fields["id"],
		Name:         fields["name"],
		Emoji:        fields["emoji"],
		IsHost:       fields["isHost"] == "true",
		Bet:          bet,
		Hand:         hand,
		Status:       models.PlayerStatus(fields["status"]),
		TotalGorgees: atoiOrZero(fields["totalGorgees"]),
		TotalDemi:    atoiOrZero(fields["totalDemi"]),
		TotalCulSec:  atoiOrZero(fields["totalCulSec"]),
		Joined:       joined,
		ActionDone:   actionDone,
	}, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
