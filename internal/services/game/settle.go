package game

import (
	"context"

	"github.com/plelievre/trinque/internal/models"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
	"github.com/plelievre/trinque/internal/scoring"
)

// stake converts a bet into its drink counter increments
func stake(bet *models.Bet) (gorgees, demi, culsec int) {
	if bet == nil {
		return 0, 0, 0
	}
	switch bet.Type {
	case models.BetTypeDemi:
		return 0, 1, 0
	case models.BetTypeCulSec:
		return 0, 0, 1
	default:
		return bet.Amount, 0, 0
	}
}

// Finalize settles the round. Each loser drinks their own stake; each
// winner's stake lands on the dealer, accumulated across all players and
// written in one batch. The results transition makes a second call fail,
// so a round settles exactly once.
func (s *service) Finalize(ctx context.Context, input *FinalizeInput) (*FinalizeOutput, error) {
	room, err := s.requireAuthority(ctx, input.Code, input.HostID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusPlaying || room.CurrentPlayer != models.TurnReveal {
		return nil, ErrInvalidRoomState
	}

	dealerScore := scoring.Score(room.DealerHand)
	dealerBust := dealerScore > scoring.Target

	var dealerGorgees, dealerDemi, dealerCulSec int
	outcomes := make([]Outcome, 0, len(room.PlayerOrder))

	for _, playerID := range room.PlayerOrder {
		player, err := s.playerRepo.GetPlayer(ctx, &playerRepo.GetPlayerInput{
			Code:     input.Code,
			PlayerID: playerID,
		})
		if err != nil {
			return nil, err
		}

		score := scoring.Score(player.Hand)
		busted := player.Status == models.PlayerStatusBust || score > scoring.Target
		gorgees, demi, culsec := stake(player.Bet)

		status := models.PlayerStatusPush
		update := &playerRepo.PlayerUpdate{}

		switch {
		case busted:
			status = models.PlayerStatusLost
			update.AddGorgees = gorgees
			update.AddDemi = demi
			update.AddCulSec = culsec
		case dealerBust || score > dealerScore:
			status = models.PlayerStatusWon
			dealerGorgees += gorgees
			dealerDemi += demi
			dealerCulSec += culsec
		case score < dealerScore:
			status = models.PlayerStatusLost
			update.AddGorgees = gorgees
			update.AddDemi = demi
			update.AddCulSec = culsec
		}

		update.Status = &status
		if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
			Code:     input.Code,
			PlayerID: playerID,
			Update:   update,
		}); err != nil {
			return nil, err
		}

		outcomes = append(outcomes, Outcome{PlayerID: playerID, Status: status, Score: score})
	}

	if dealerGorgees > 0 || dealerDemi > 0 || dealerCulSec > 0 {
		if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
			Code:     input.Code,
			PlayerID: room.Dealer,
			Update: &playerRepo.PlayerUpdate{
				AddGorgees: dealerGorgees,
				AddDemi:    dealerDemi,
				AddCulSec:  dealerCulSec,
			},
		}); err != nil {
			return nil, err
		}
	}

	results := models.RoomStatusResults
	done := models.TurnDone
	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code: input.Code,
		Update: &roomRepo.RoomUpdate{
			Status:        &results,
			CurrentPlayer: &done,
		},
	}); err != nil {
		return nil, err
	}

	s.logger.Info("round settled", "code", input.Code, "round", room.Round,
		"dealerScore", dealerScore, "dealerBust", dealerBust)

	return &FinalizeOutput{
		DealerScore: dealerScore,
		DealerBust:  dealerBust,
		Outcomes:    outcomes,
	}, nil
}

// NextRound resets round state and reopens betting. A deck below the
// reshuffle threshold is rebuilt and the dealer redrawn from all players;
// otherwise dealer, order and remaining deck carry over.
func (s *service) NextRound(ctx context.Context, input *NextRoundInput) (*NextRoundOutput, error) {
	room, err := s.requireAuthority(ctx, input.Code, input.HostID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusResults {
		return nil, ErrInvalidRoomState
	}

	cards := room.Deck
	dealer := room.Dealer
	order := room.PlayerOrder
	reshuffled := false

	if len(cards) < s.config.ReshuffleThreshold {
		players, err := s.playerRepo.GetPlayers(ctx, &playerRepo.GetPlayersInput{Code: input.Code})
		if err != nil {
			return nil, err
		}
		if len(players) < 2 {
			return nil, ErrNotEnoughPlayers
		}

		cards = s.deckEngine.NewDeck()
		dealer = players[s.deckEngine.Intn(len(players))].ID
		order = make([]string, 0, len(players)-1)
		for _, p := range players {
			if p.ID != dealer {
				order = append(order, p.ID)
			}
		}
		reshuffled = true
	}

	// Reset every participant, the dealer included
	emptyHand := []models.Card{}
	waiting := models.PlayerStatusWaiting
	for _, playerID := range append(append([]string{}, order...), dealer) {
		if err := s.playerRepo.UpdatePlayer(ctx, &playerRepo.UpdatePlayerInput{
			Code:     input.Code,
			PlayerID: playerID,
			Update: &playerRepo.PlayerUpdate{
				Hand:      &emptyHand,
				ClearBet:  true,
				Status:    &waiting,
				ClearDone: true,
			},
		}); err != nil {
			return nil, err
		}
	}

	betting := models.RoomStatusBetting
	round := room.Round + 1
	emptyDealerHand := []models.Card{}
	currentPlayer := ""

	if err := s.roomRepo.UpdateRoom(ctx, &roomRepo.UpdateRoomInput{
		Code: input.Code,
		Update: &roomRepo.RoomUpdate{
			Status:        &betting,
			Round:         &round,
			Deck:          &cards,
			Dealer:        &dealer,
			DealerHand:    &emptyDealerHand,
			CurrentPlayer: &currentPlayer,
			PlayerOrder:   &order,
		},
	}); err != nil {
		return nil, err
	}

	s.logger.Info("next round", "code", input.Code, "round", round, "reshuffled", reshuffled)

	return &NextRoundOutput{Round: round, Reshuffled: reshuffled}, nil
}
