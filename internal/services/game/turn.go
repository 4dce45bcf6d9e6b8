package game

import (
	"context"
	"errors"

	"github.com/plelievre/trinque/internal/deck"
	"github.com/plelievre/trinque/internal/models"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
	"github.com/plelievre/trinque/internal/scoring"
)

// Hit draws a card from the shared deck into the caller's hand. Going over
// 21 busts the hand; landing exactly on 21 auto-stands.
func (s *service) Hit(ctx context.Context, input *HitInput) (*HitOutput, error) {
	room, err := s.requireTurn(ctx, input.Code, input.PlayerID)
	if err != nil {
		return nil, err
	}

	player, err := s.playerRepo.GetPlayer(ctx, &playerRepo.GetPlayerInput{
		Code:     input.Code,
		PlayerID: input.PlayerID,
	})
	if err != nil {
		return nil, err
	}

	card, _, err := s.drawCard(ctx, room)
	if err != nil {
		return nil, err
	}

	hand := append(player.Hand, card)
	score := scoring.Score(hand)
	busted := score > scoring.Target

	update := &playerRepo.PlayerUpdate{Hand: &hand}
	if busted {
		bust := models.PlayerStatusBust
		update.Status = &bust
	}
	if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
		Code:     input.Code,
		PlayerID: input.PlayerID,
		Update:   update,
	}); err != nil {
		return nil, err
	}

	// Busting advances through the status itself; a natural 21 stands
	if !busted && score == scoring.Target {
		if err := s.signalDone(ctx, room, input.PlayerID); err != nil {
			return nil, err
		}
	}
	if busted && room.Host == input.PlayerID {
		// The host advances its own turn; everyone else is picked up by
		// the reconciliation pass
		if _, err := s.AdvanceTurn(ctx, &AdvanceTurnInput{Code: input.Code, HostID: input.PlayerID}); err != nil {
			return nil, err
		}
	}

	return &HitOutput{Card: card, Score: score, Busted: busted}, nil
}

// Stand ends the caller's turn
func (s *service) Stand(ctx context.Context, input *StandInput) (*StandOutput, error) {
	room, err := s.requireTurn(ctx, input.Code, input.PlayerID)
	if err != nil {
		return nil, err
	}

	if err := s.signalDone(ctx, room, input.PlayerID); err != nil {
		return nil, err
	}

	return &StandOutput{}, nil
}

// Double doubles the caller's bet, draws exactly one card and ends the turn
func (s *service) Double(ctx context.Context, input *DoubleInput) (*DoubleOutput, error) {
	room, err := s.requireTurn(ctx, input.Code, input.PlayerID)
	if err != nil {
		return nil, err
	}

	player, err := s.playerRepo.GetPlayer(ctx, &playerRepo.GetPlayerInput{
		Code:     input.Code,
		PlayerID: input.PlayerID,
	})
	if err != nil {
		return nil, err
	}
	if len(player.Hand) != 2 || player.Bet == nil {
		return nil, ErrCannotDouble
	}

	card, _, err := s.drawCard(ctx, room)
	if err != nil {
		return nil, err
	}

	bet := &models.Bet{Amount: player.Bet.Amount * 2, Type: player.Bet.Type}
	hand := append(player.Hand, card)
	score := scoring.Score(hand)
	busted := score > scoring.Target

	update := &playerRepo.PlayerUpdate{Hand: &hand, Bet: bet}
	if busted {
		bust := models.PlayerStatusBust
		update.Status = &bust
	}
	if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
		Code:     input.Code,
		PlayerID: input.PlayerID,
		Update:   update,
	}); err != nil {
		return nil, err
	}

	if busted && room.Host == input.PlayerID {
		if _, err := s.AdvanceTurn(ctx, &AdvanceTurnInput{Code: input.Code, HostID: input.PlayerID}); err != nil {
			return nil, err
		}
	} else if !busted {
		if err := s.signalDone(ctx, room, input.PlayerID); err != nil {
			return nil, err
		}
	}

	return &DoubleOutput{Card: card, Score: score, Busted: busted, Bet: bet}, nil
}

// Split is not available in this variant
func (s *service) Split(ctx context.Context, input *SplitInput) (*SplitOutput, error) {
	return nil, ErrSplitUnavailable
}

// DealerHit draws a card into the dealer's hand during the dealer turn
func (s *service) DealerHit(ctx context.Context, input *DealerHitInput) (*DealerHitOutput, error) {
	room, err := s.requireDealerTurn(ctx, input.Code, input.PlayerID)
	if err != nil {
		return nil, err
	}

	if len(room.Deck) == 0 {
		return nil, ErrDeckExhausted
	}
	card, rest := deck.Draw(room.Deck)
	hand := append(room.DealerHand, card)
	score := scoring.Score(hand)

	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code: input.Code,
		Update: &roomRepo.RoomUpdate{
			Deck:       &rest,
			DealerHand: &hand,
		},
	}); err != nil {
		return nil, err
	}

	// At 21 or above there is nothing left to decide
	if score >= scoring.Target {
		if err := s.dealerDone(ctx, room, input.PlayerID); err != nil {
			return nil, err
		}
	}

	return &DealerHitOutput{Card: card, Score: score}, nil
}

// DealerStand ends the dealer's turn
func (s *service) DealerStand(ctx context.Context, input *DealerStandInput) (*DealerStandOutput, error) {
	room, err := s.requireDealerTurn(ctx, input.Code, input.PlayerID)
	if err != nil {
		return nil, err
	}

	if err := s.dealerDone(ctx, room, input.PlayerID); err != nil {
		return nil, err
	}

	return &DealerStandOutput{}, nil
}

// StartDealing deals two cards to every bettor in order, then two to the
// dealer, consuming the shared deck from its tail
func (s *service) StartDealing(ctx context.Context, input *StartDealingInput) (*StartDealingOutput, error) {
	room, err := s.requireAuthority(ctx, input.Code, input.HostID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusBetting {
		return nil, ErrInvalidRoomState
	}
	if len(room.PlayerOrder) == 0 {
		return nil, ErrInvalidRoomState
	}
	// Two cards per bettor plus two for the dealer
	if len(room.Deck) < 2*(len(room.PlayerOrder)+1) {
		return nil, ErrDeckExhausted
	}

	players, err := s.playerRepo.GetPlayers(ctx, &playerRepo.GetPlayersInput{Code: input.Code})
	if err != nil {
		return nil, err
	}
	ready := make(map[string]bool, len(players))
	for _, p := range players {
		ready[p.ID] = p.Status == models.PlayerStatusReady
	}
	for _, playerID := range room.PlayerOrder {
		if !ready[playerID] {
			return nil, ErrInvalidRoomState
		}
	}

	cards := room.Deck
	playing := models.PlayerStatusPlaying

	for _, playerID := range room.PlayerOrder {
		var first, second models.Card
		first, cards = deck.Draw(cards)
		second, cards = deck.Draw(cards)
		hand := []models.Card{first, second}

		if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
			Code:     input.Code,
			PlayerID: playerID,
			Update: &playerRepo.PlayerUpdate{
				Hand:   &hand,
				Status: &playing,
			},
		}); err != nil {
			return nil, err
		}
	}

	var first, second models.Card
	first, cards = deck.Draw(cards)
	second, cards = deck.Draw(cards)
	dealerHand := []models.Card{first, second}

	status := models.RoomStatusPlaying
	currentPlayer := room.PlayerOrder[0]

	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code: input.Code,
		Update: &roomRepo.RoomUpdate{
			Status:        &status,
			Deck:          &cards,
			DealerHand:    &dealerHand,
			CurrentPlayer: &currentPlayer,
		},
	}); err != nil {
		return nil, err
	}

	s.logger.Info("hands dealt", "code", input.Code, "first", currentPlayer, "deck", len(cards))

	return &StartDealingOutput{CurrentPlayer: currentPlayer}, nil
}

// AdvanceTurn moves the pointer to the next order id, or to the dealer once
// the order is exhausted
func (s *service) AdvanceTurn(ctx context.Context, input *AdvanceTurnInput) (*AdvanceTurnOutput, error) {
	room, err := s.requireAuthority(ctx, input.Code, input.HostID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusPlaying {
		return nil, ErrInvalidRoomState
	}

	next := models.TurnDealer
	for i, playerID := range room.PlayerOrder {
		if playerID == room.CurrentPlayer && i < len(room.PlayerOrder)-1 {
			next = room.PlayerOrder[i+1]
			break
		}
	}

	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code:   input.Code,
		Update: &roomRepo.RoomUpdate{CurrentPlayer: &next},
	}); err != nil {
		return nil, err
	}

	return &AdvanceTurnOutput{CurrentPlayer: next}, nil
}

// RevealDealer moves the pointer to the reveal confirmation step, exposing
// the dealer's hidden card on every client
func (s *service) RevealDealer(ctx context.Context, input *RevealDealerInput) (*RevealDealerOutput, error) {
	room, err := s.requireAuthority(ctx, input.Code, input.HostID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusPlaying || room.CurrentPlayer != models.TurnDealer {
		return nil, ErrInvalidRoomState
	}

	reveal := models.TurnReveal
	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code:   input.Code,
		Update: &roomRepo.RoomUpdate{CurrentPlayer: &reveal},
	}); err != nil {
		return nil, err
	}

	return &RevealDealerOutput{}, nil
}

// requireTurn loads the room and checks the caller is the current player
func (s *service) requireTurn(ctx context.Context, code, playerID string) (*models.Room, error) {
	room, err := s.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: code})
	if err != nil {
		if errors.Is(err, roomRepo.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Status != models.RoomStatusPlaying {
		return nil, ErrInvalidRoomState
	}
	if room.CurrentPlayer != playerID {
		return nil, ErrNotYourTurn
	}
	return room, nil
}

// requireDealerTurn loads the room and checks the caller is the dealer and
// the dealer is acting
func (s *service) requireDealerTurn(ctx context.Context, code, playerID string) (*models.Room, error) {
	room, err := s.roomRepo.GetRoom(ctx, &roomRepo.GetRoomInput{Code: code})
	if err != nil {
		if errors.Is(err, roomRepo.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if room.Status != models.RoomStatusPlaying || room.CurrentPlayer != models.TurnDealer {
		return nil, ErrInvalidRoomState
	}
	if room.Dealer != playerID {
		return nil, ErrNotDealer
	}
	return room, nil
}

// drawCard pops the deck tail and writes the shortened deck back.
// Only the current player reaches this, which is what keeps concurrent
// writers off the shared deck.
func (s *service) drawCard(ctx context.Context, room *models.Room) (models.Card, []models.Card, error) {
	if len(room.Deck) == 0 {
		return models.Card{}, nil, ErrDeckExhausted
	}

	card, rest := deck.Draw(room.Deck)
	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code:   room.Code,
		Update: &roomRepo.RoomUpdate{Deck: &rest},
	}); err != nil {
		return models.Card{}, nil, err
	}

	return card, rest, nil
}

// signalDone ends the caller's turn: the host moves the pointer itself,
// everyone else stamps actionDone for the reconciliation pass to observe
func (s *service) signalDone(ctx context.Context, room *models.Room, playerID string) error {
	if room.Host == playerID {
		_, err := s.AdvanceTurn(ctx, &AdvanceTurnInput{Code: room.Code, HostID: playerID})
		return err
	}

	done := s.clock.Now()
	return s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
		Code:     room.Code,
		PlayerID: playerID,
		Update:   &playerRepo.PlayerUpdate{ActionDone: &done},
	})
}

// dealerDone ends the dealer turn: a host dealer moves the pointer to
// reveal directly, a non-host dealer stamps actionDone
func (s *service) dealerDone(ctx context.Context, room *models.Room, dealerID string) error {
	if room.Host == dealerID {
		_, err := s.RevealDealer(ctx, &RevealDealerInput{Code: room.Code, HostID: dealerID})
		return err
	}

	done := s.clock.Now()
	return s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
		Code:     room.Code,
		PlayerID: dealerID,
		Update:   &playerRepo.PlayerUpdate{ActionDone: &done},
	})
}
