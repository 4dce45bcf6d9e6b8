package room

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
	// Key layouts under the room namespace
	roomKeyFormat    = "trinque:room:%s"
	playersKeyFormat = "trinque:room:%s:players"
	playerKeyFormat  = "trinque:room:%s:player:%s"
	authKeyFormat    = "trinque:room:%s:authority"
	epochKeyFormat   = "trinque:room:%s:epoch"
)

var (
	// ErrRoomNotFound is returned when a room is not found
	ErrRoomNotFound = errors.New("room not found")

	// ErrRoomExists is returned when creating a room whose code is taken
	ErrRoomExists = errors.New("room already exists")

	// ErrAuthorityHeld is returned when another host holds the lease
	ErrAuthorityHeld = errors.New("authority lease held by another host")

	// ErrNoAuthority is returned when no lease exists for the room
	ErrNoAuthority = errors.New("no authority lease for room")
)

// Config holds configuration for the Redis room repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed room repository
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

// CreateRoom persists a new room document. The code field doubles as the
// existence guard: if another live room already owns this code the create
// is refused instead of clobbering it.
func (r *redisRepository) CreateRoom(ctx context.Context, input *CreateRoomInput) error {
	if input == nil || input.Room == nil {
		return errors.New("input and room cannot be nil")
	}

	roomKey := fmt.Sprintf(roomKeyFormat, input.Room.Code)
	claimed, err := r.client.HSetNX(ctx, roomKey, "code", input.Room.Code).Result()
	if err != nil {
		return fmt.Errorf("failed to claim room code: %w", err)
	}
	if !claimed {
		return ErrRoomExists
	}

	return r.SaveRoom(ctx, &SaveRoomInput{Room: input.Room})
}

// SaveRoom persists the full room document and publishes a change event
func (r *redisRepository) SaveRoom(ctx context.Context, input *SaveRoomInput) error {
	if input == nil || input.Room == nil {
		return errors.New("input and room cannot be nil")
	}

	fields, err := encodeRoom(input.Room)
	if err != nil {
		return err
	}

	roomKey := fmt.Sprintf(roomKeyFormat, input.Room.Code)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, roomKey, fields)
	r.publishChange(ctx, pipe, input.Room.Code, models.EventKindRoom, input.Room.Code)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save room: %w", err)
	}

	return nil
}

// UpdateRoom writes only the fields named by the update, stamping updated
func (r *redisRepository) UpdateRoom(ctx context.Context, input *UpdateRoomInput) error {
	if input == nil || input.Code == "" || input.Update == nil {
		return errors.New("input, code and update cannot be empty")
	}

	fields := map[string]interface{}{
		"updated": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	u := input.Update
	if u.Status != nil {
		fields["status"] = string(*u.Status)
	}
	if u.Round != nil {
		fields["round"] = strconv.Itoa(*u.Round)
	}
	if u.Deck != nil {
		encoded, err := models.EncodeCards(*u.Deck)
		if err != nil {
			return err
		}
		fields["deck"] = encoded
	}
	if u.Dealer != nil {
		fields["dealer"] = *u.Dealer
	}
	if u.DealerHand != nil {
		encoded, err := models.EncodeCards(*u.DealerHand)
		if err != nil {
			return err
		}
		fields["dealerHand"] = encoded
	}
	if u.CurrentPlayer != nil {
		fields["currentPlayer"] = *u.CurrentPlayer
	}
	if u.PlayerOrder != nil {
		encoded, err := models.EncodeOrder(*u.PlayerOrder)
		if err != nil {
			return err
		}
		fields["playerOrder"] = encoded
	}

	roomKey := fmt.Sprintf(roomKeyFormat, input.Code)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, roomKey, fields)
	r.publishChange(ctx, pipe, input.Code, models.EventKindRoom, input.Code)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}

	return nil
}

// GetRoom retrieves a room by code from Redis
func (r *redisRepository) GetRoom(ctx context.Context, input *GetRoomInput) (*models.Room, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and code cannot be empty")
	}

	roomKey := fmt.Sprintf(roomKeyFormat, input.Code)
	fields, err := r.client.HGetAll(ctx, roomKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrRoomNotFound
	}

	return decodeRoom(fields)
}

// DeleteRoom removes the room document, its roster, every player document
// and the authority lease
func (r *redisRepository) DeleteRoom(ctx context.Context, input *DeleteRoomInput) error {
	if input == nil || input.Code == "" {
		return errors.New("input and code cannot be empty")
	}

	playersKey := fmt.Sprintf(playersKeyFormat, input.Code)
	playerIDs, err := r.client.ZRange(ctx, playersKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to get room roster: %w", err)
	}

	pipe := r.client.Pipeline()
	for _, playerID := range playerIDs {
		pipe.Del(ctx, fmt.Sprintf(playerKeyFormat, input.Code, playerID))
	}
	pipe.Del(ctx, playersKey)
	pipe.Del(ctx, fmt.Sprintf(roomKeyFormat, input.Code))
	pipe.Del(ctx, fmt.Sprintf(authKeyFormat, input.Code))
	pipe.Del(ctx, fmt.Sprintf(epochKeyFormat, input.Code))
	r.publishChange(ctx, pipe, input.Code, models.EventKindRoom, input.Code)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	return nil
}

// ClaimAuthority takes the host lease if it is free, bumping the epoch.
// A host that already holds the lease gets it renewed instead.
func (r *redisRepository) ClaimAuthority(ctx context.Context, input *ClaimAuthorityInput) (*models.Authority, error) {
	if input == nil || input.Code == "" || input.Host == "" {
		return nil, errors.New("input, code and host cannot be empty")
	}

	authKey := fmt.Sprintf(authKeyFormat, input.Code)

	current, err := r.GetAuthority(ctx, &GetAuthorityInput{Code: input.Code})
	if err != nil && !errors.Is(err, ErrNoAuthority) {
		return nil, err
	}
	if current != nil {
		if current.Host != input.Host {
			return nil, ErrAuthorityHeld
		}
		if err := r.client.PExpire(ctx, authKey, input.TTL).Err(); err != nil {
			return nil, fmt.Errorf("failed to renew authority: %w", err)
		}
		return current, nil
	}

	epoch, err := r.client.Incr(ctx, fmt.Sprintf(epochKeyFormat, input.Code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to advance authority epoch: %w", err)
	}

	auth := &models.Authority{Host: input.Host, Epoch: epoch}
	data, err := json.Marshal(auth)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authority: %w", err)
	}

	claimed, err := r.client.SetNX(ctx, authKey, data, input.TTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim authority: %w", err)
	}
	if !claimed {
		// Lost the race to a concurrent claimant
		return nil, ErrAuthorityHeld
	}

	return auth, nil
}

// RenewAuthority extends a lease the caller already holds
func (r *redisRepository) RenewAuthority(ctx context.Context, input *RenewAuthorityInput) error {
	if input == nil || input.Code == "" || input.Host == "" {
		return errors.New("input, code and host cannot be empty")
	}

	current, err := r.GetAuthority(ctx, &GetAuthorityInput{Code: input.Code})
	if err != nil {
		return err
	}
	if current.Host != input.Host {
		return ErrAuthorityHeld
	}

	authKey := fmt.Sprintf(authKeyFormat, input.Code)
	renewed, err := r.client.PExpire(ctx, authKey, input.TTL).Result()
	if err != nil {
		return fmt.Errorf("failed to renew authority: %w", err)
	}
	if !renewed {
		return ErrNoAuthority
	}

	return nil
}

// GetAuthority retrieves the current lease holder
func (r *redisRepository) GetAuthority(ctx context.Context, input *GetAuthorityInput) (*models.Authority, error) {
	if input == nil || input.Code == "" {
		return nil, errors.New("input and code cannot be empty")
	}

	authKey := fmt.Sprintf(authKeyFormat, input.Code)
	data, err := r.client.Get(ctx, authKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoAuthority
		}
		return nil, fmt.Errorf("failed to get authority: %w", err)
	}

	var auth models.Authority
	if err := json.Unmarshal([]byte(data), &auth); err != nil {
		return nil, fmt.Errorf("failed to unmarshal authority: %w", err)
	}

	return &auth, nil
}

// publishChange queues a change event on the room's channel
func (r *redisRepository) publishChange(ctx context.Context, pipe redis.Pipeliner, code string, kind models.EventKind, id string) {
	event := models.Event{Kind: kind, ID: id}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	pipe.Publish(ctx, models.EventChannel(code), data)
}

// encodeRoom maps a room to its hash fields
func encodeRoom(room *models.Room) (map[string]interface{}, error) {
	deck, err := models.EncodeCards(room.Deck)
	if err != nil {
		return nil, err
	}
	dealerHand, err := models.EncodeCards(room.DealerHand)
	if err != nil {
		return nil, err
	}
	playerOrder, err := models.EncodeOrder(room.PlayerOrder)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"schema":        models.SchemaVersion,
		"code":          room.Code,
		"host":          room.Host,
		"status":        string(room.Status),
		"round":         strconv.Itoa(room.Round),
		"deck":          deck,
		"dealer":        room.Dealer,
		"dealerHand":    dealerHand,
		"currentPlayer": room.CurrentPlayer,
		"playerOrder":   playerOrder,
		"created":       strconv.FormatInt(room.Created.UnixMilli(), 10),
		"updated":       strconv.FormatInt(room.Updated.UnixMilli(), 10),
	}, nil
}

// decodeRoom maps hash fields back to a room
func decodeRoom(fields map[string]string) (*models.Room, error) {
	if schema, ok := fields["schema"]; ok && schema != models.SchemaVersion {
		return nil, fmt.Errorf("unsupported room schema version %q", schema)
	}

	deck, err := models.DecodeCards(fields["deck"])
	if err != nil {
		return nil, err
	}
	dealerHand, err := models.DecodeCards(fields["dealerHand"])
	if err != nil {
		return nil, err
	}
	playerOrder, err := models.DecodeOrder(fields["playerOrder"])
	if err != nil {
		return nil, err
	}

	round, err := strconv.Atoi(fields["round"])
	if err != nil {
		return nil, fmt.Errorf("failed to decode round: %w", err)
	}

	return &models.Room{
		Code:          fields["code"],
		Host:          fields["host"],
		Status:        models.RoomStatus(fields["status"]),
		Round:         round,
		Deck:          deck,
		Dealer:        fields["dealer"],
		DealerHand:    dealerHand,
		CurrentPlayer: fields["currentPlayer"],
		PlayerOrder:   playerOrder,
		Created:       decodeMillis(fields["created"]),
		Updated:       decodeMillis(fields["updated"]),
	}, nil
}

// decodeMillis parses a unix-millisecond field, zero time on absence
func decodeMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
