package game

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/plelievre/trinque/internal/common/clock"
	"github.com/plelievre/trinque/internal/deck"
	"github.com/plelievre/trinque/internal/models"
	"github.com/plelievre/trinque/internal/roomcode"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
)

// service implements the Service interface
type service struct {
	config     *Config
	roomRepo   roomRepo.Repository
	playerRepo playerRepo.Repository
	deckEngine *deck.Engine
	clock      clock.Clock
	quartz     quartz.Clock
	logger     *log.Logger
}

// New creates a new game service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RoomRepo == nil {
		return nil, errors.New("room repository cannot be nil")
	}
	if cfg.PlayerRepo == nil {
		return nil, errors.New("player repository cannot be nil")
	}
	if cfg.DeckEngine == nil {
		return nil, errors.New("deck engine cannot be nil")
	}

	if cfg.Clock == nil {
		cfg.Clock = &clock.DefaultClock{}
	}
	if cfg.Quartz == nil {
		cfg.Quartz = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.AuthorityTTL == 0 {
		cfg.AuthorityTTL = DefaultAuthorityTTL
	}
	if cfg.JoinAttempts == 0 {
		cfg.JoinAttempts = DefaultJoinAttempts
	}
	if cfg.JoinBackoff == 0 {
		cfg.JoinBackoff = DefaultJoinBackoff
	}
	if cfg.ReshuffleThreshold == 0 {
		cfg.ReshuffleThreshold = DefaultReshuffleThreshold
	}

	return &service{
		config:     cfg,
		roomRepo:   cfg.RoomRepo,
		playerRepo: cfg.PlayerRepo,
		deckEngine: cfg.DeckEngine,
		clock:      cfg.Clock,
		quartz:     cfg.Quartz,
		logger:     cfg.Logger.WithPrefix("game"),
	}, nil
}

// CreateRoom creates a room and its host player
func (s *service) CreateRoom(ctx context.Context, input *CreateRoomInput) (*CreateRoomOutput, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Emoji == "" {
		return nil, ErrEmojiRequired
	}

	now := s.clock.Now()

	var room *models.Room
	for attempt := 0; attempt < codeAttempts; attempt++ {
		candidate := &models.Room{
			Code:    roomcode.Generate(s.deckEngine),
			Host:    input.HostID,
			Status:  models.RoomStatusLobby,
			Round:   0,
			Created: now,
			Updated: now,
		}

		err := s.roomRepo.CreateRoom(ctx, &roomRepo.CreateRoomInput{Room: candidate})
		if err == nil {
			room = candidate
			break
		}
		if !errors.Is(err, roomRepo.ErrRoomExists) {
			return nil, err
		}
		// Code collision with a live room, roll a fresh one
	}
	if room == nil {
		return nil, roomRepo.ErrRoomExists
	}

	if _, err := s.roomRepo.ClaimAuthority(ctx, &roomRepo.ClaimAuthorityInput{
		Code: room.Code,
		Host: input.HostID,
		TTL:  s.config.AuthorityTTL,
	}); err != nil {
		return nil, err
	}

	host := &models.Player{
		ID:     input.HostID,
		Name:   input.Name,
		Emoji:  input.Emoji,
		IsHost: true,
		Status: models.PlayerStatusWaiting,
		Joined: now,
	}
	if err := s.playerRepo.SavePlayer(ctx, &playerRepo.SavePlayerInput{
		Code:   room.Code,
		Player: host,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("room created", "code", room.Code, "host", input.HostID)

	return &CreateRoomOutput{Room: room, Player: host}, nil
}

// JoinRoom adds a player to a lobby. The room document may not have
// replicated yet, so the lookup retries on a fixed backoff before giving up.
func (s *service) JoinRoom(ctx context.Context, input *JoinRoomInput) (*JoinRoomOutput, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Emoji == "" {
		return nil, ErrEmojiRequired
	}

	code := roomcode.Normalize(input.Code)
	if err := roomcode.Validate(code); err != nil {
		return nil, ErrInvalidRoomCode
	}

	var room *models.Room
	for attempt := 0; attempt < s.config.JoinAttempts; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, s.config.JoinBackoff); err != nil {
				return nil, err
			}
		}

		found, err := s.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: code})
		if err != nil {
			if errors.Is(err, roomRepo.ErrRoomNotFound) {
				continue
			}
			return nil, err
		}
		room = found
		break
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}

	if room.Status != models.RoomStatusLobby {
		return nil, ErrRoomUnavailable
	}

	player := &models.Player{
		ID:     input.PlayerID,
		Name:   input.Name,
		Emoji:  input.Emoji,
		IsHost: false,
		Status: models.PlayerStatusWaiting,
		Joined: s.clock.Now(),
	}
	if err := s.playerRepo.SavePlayer(ctx, &playerRepo.SavePlayerInput{
		Code:   code,
		Player: player,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("player joined", "code", code, "player", input.PlayerID)

	return &JoinRoomOutput{Room: room, Player: player}, nil
}

// LeaveRoom removes a player, deleting the room once it empties
func (s *service) LeaveRoom(ctx context.Context, input *LeaveRoomInput) (*LeaveRoomOutput, error) {
	if err := s.playerRepo.RemovePlayer(ctx, &playerRepo.RemovePlayerInput{
		Code:     input.Code,
		PlayerID: input.PlayerID,
	}); err != nil {
		return nil, err
	}

	remaining, err := s.playerRepo.GetPlayers(ctx, &playerRepo.GetPlayersInput{Code: input.Code})
	if err != nil {
		return nil, err
	}
	if len(remaining) > 0 {
		return &LeaveRoomOutput{}, nil
	}

	if err := s.roomRepo.DeleteRoom(ctx, &roomRepo.DeleteRoomInput{Code: input.Code}); err != nil {
		return nil, err
	}

	s.logger.Info("room abandoned", "code", input.Code)

	return &LeaveRoomOutput{RoomDeleted: true}, nil
}

// StartGame moves a lobby into betting
func (s *service) StartGame(ctx context.Context, input *StartGameInput) (*StartGameOutput, error) {
	room, err := s.requireAuthority(ctx, input.Code, input.PlayerID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusLobby {
		return nil, ErrInvalidRoomState
	}

	players, err := s.playerRepo.GetPlayers(ctx, &playerRepo.GetPlayersInput{Code: input.Code})
	if err != nil {
		return nil, err
	}
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	dealer := players[s.deckEngine.Intn(len(players))].ID
	order := make([]string, 0, len(players)-1)
	for _, p := range players {
		if p.ID != dealer {
			order = append(order, p.ID)
		}
	}

	cards := s.deckEngine.NewDeck()
	status := models.RoomStatusBetting
	round := 1
	empty := []models.Card{}
	currentPlayer := ""

	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code: input.Code,
		Update: &roomRepo.RoomUpdate{
			Status:        &status,
			Round:         &round,
			Deck:          &cards,
			Dealer:        &dealer,
			DealerHand:    &empty,
			CurrentPlayer: &currentPlayer,
			PlayerOrder:   &order,
		},
	}); err != nil {
		return nil, err
	}

	s.logger.Info("game started", "code", input.Code, "dealer", dealer, "players", len(players))

	return &StartGameOutput{Dealer: dealer, PlayerOrder: order}, nil
}

// PlaceBet records a player's stake and marks them ready
func (s *service) PlaceBet(ctx context.Context, input *PlaceBetInput) (*PlaceBetOutput, error) {
	if input.Bet == nil {
		return nil, ErrInvalidBet
	}

	room, err := s.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: input.Code})
	if err != nil {
		if errors.Is(err, roomRepo.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Status != models.RoomStatusBetting {
		return nil, ErrInvalidRoomState
	}
	if !contains(room.PlayerOrder, input.PlayerID) {
		return nil, ErrNotInRound
	}

	bet := &models.Bet{Type: input.Bet.Type}
	switch input.Bet.Type {
	case models.BetTypeNormal:
		if input.Bet.Amount < models.MinBetAmount || input.Bet.Amount > models.MaxBetAmount {
			return nil, ErrInvalidBet
		}
		bet.Amount = input.Bet.Amount
	case models.BetTypeDemi, models.BetTypeCulSec:
		// Instant penalties, the amount carries no meaning
		bet.Amount = 0
	default:
		return nil, ErrInvalidBet
	}

	ready := models.PlayerStatusReady
	if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
		Code:     input.Code,
		PlayerID: input.PlayerID,
		Update: &playerRepo.PlayerUpdate{
			Bet:    bet,
			Status: &ready,
		},
	}); err != nil {
		return nil, err
	}

	return &PlaceBetOutput{Bet: bet}, nil
}

// requireAuthority loads the room and checks the caller both matches the
// host field and holds an unexpired lease, reclaiming an expired one.
func (s *service) requireAuthority(ctx context.Context, code, callerID string) (*models.Room, error) {
	room, err := s.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: code})
	if err != nil {
		if errors.Is(err, roomRepo.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Host != callerID {
		return nil, ErrNotHost
	}

	if _, err := s.roomRepo.ClaimAuthority(ctx, &roomRepo.ClaimAuthorityInput{
		Code: code,
		Host: callerID,
		TTL:  s.config.AuthorityTTL,
	}); err != nil {
		if errors.Is(err, roomRepo.ErrAuthorityHeld) {
			return nil, ErrNotAuthority
		}
		return nil, err
	}

	return room, nil
}

// wait blocks for d or until the context is cancelled
func (s *service) wait(ctx context.Context, d time.Duration) error {
	fired := make(chan struct{})
	timer := s.quartz.AfterFunc(d, func() {
		close(fired)
	})
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-fired:
		return nil
	}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
