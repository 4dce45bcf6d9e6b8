package game

import (
	"github.com/plelievre/trinque/internal/models"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
)

// seedReveal sets up a settled-but-unfinalized round: host-device deals
// with 18, three guests played their turns
func (s *GameServiceTestSuite) seedReveal(deckCards []models.Card) {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          deckCards,
		Dealer:        "host-device",
		DealerHand:    []models.Card{c("10"), c("8")},
		CurrentPlayer: models.TurnReveal,
		PlayerOrder:   []string{"guest-1", "guest-2", "guest-3"},
	})
	s.seedPlayer("AB2C", &models.Player{
		ID: "host-device", Name: "Host", IsHost: true,
		Status: models.PlayerStatusPlaying,
	})
	// guest-1: 20, beats the dealer
	s.seedPlayer("AB2C", &models.Player{
		ID:     "guest-1",
		Hand:   []models.Card{c("K"), c("Q")},
		Bet:    &models.Bet{Amount: 5, Type: models.BetTypeNormal},
		Status: models.PlayerStatusPlaying,
	})
	// guest-2: busted at 25
	s.seedPlayer("AB2C", &models.Player{
		ID:     "guest-2",
		Hand:   []models.Card{c("K"), c("Q"), c("5")},
		Bet:    &models.Bet{Amount: 0, Type: models.BetTypeDemi},
		Status: models.PlayerStatusBust,
	})
	// guest-3: 18, ties the dealer
	s.seedPlayer("AB2C", &models.Player{
		ID:     "guest-3",
		Hand:   []models.Card{c("10"), c("8")},
		Bet:    &models.Bet{Amount: 0, Type: models.BetTypeCulSec},
		Status: models.PlayerStatusPlaying,
	})
}

func (s *GameServiceTestSuite) TestFinalize() {
	s.seedReveal(deckOf(20))

	out, err := s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)

	s.Equal(18, out.DealerScore)
	s.False(out.DealerBust)
	s.Require().Len(out.Outcomes, 3)
	s.Equal(models.PlayerStatusWon, out.Outcomes[0].Status)
	s.Equal(models.PlayerStatusLost, out.Outcomes[1].Status)
	s.Equal(models.PlayerStatusPush, out.Outcomes[2].Status)

	// The winner's stake lands on the dealer
	dealer, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "host-device"})
	s.Require().NoError(err)
	s.Equal(5, dealer.TotalGorgees)
	s.Equal(0, dealer.TotalDemi)
	s.Equal(0, dealer.TotalCulSec)

	// The busted player drinks their own stake
	loser, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.Equal(1, loser.TotalDemi)
	s.Equal(0, loser.TotalGorgees)

	// A push moves nothing
	pusher, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-3"})
	s.Require().NoError(err)
	s.Equal(0, pusher.TotalGorgees)
	s.Equal(0, pusher.TotalDemi)
	s.Equal(0, pusher.TotalCulSec)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal(models.RoomStatusResults, room.Status)
	s.Equal(models.TurnDone, room.CurrentPlayer)
}

func (s *GameServiceTestSuite) TestFinalizeDealerBust() {
	s.seedReveal(deckOf(20))

	// Push the dealer over 21
	hand := []models.Card{c("10"), c("8"), c("9")}
	s.Require().NoError(s.roomRepo.UpdateRoom(s.ctx, &roomRepo.UpdateRoomInput{
		Code:   "AB2C",
		Update: &roomRepo.RoomUpdate{DealerHand: &hand},
	}))

	out, err := s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	s.True(out.DealerBust)

	// Everyone still standing wins against a busted dealer
	s.Equal(models.PlayerStatusWon, out.Outcomes[0].Status)
	s.Equal(models.PlayerStatusLost, out.Outcomes[1].Status)
	s.Equal(models.PlayerStatusWon, out.Outcomes[2].Status)

	dealer, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "host-device"})
	s.Require().NoError(err)
	s.Equal(5, dealer.TotalGorgees)
	s.Equal(1, dealer.TotalCulSec)
}

func (s *GameServiceTestSuite) TestFinalizeIsOneShot() {
	s.seedReveal(deckOf(20))

	_, err := s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)

	// The results transition makes the second settlement fail, so the
	// counters cannot double
	_, err = s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)

	dealer, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "host-device"})
	s.Require().NoError(err)
	s.Equal(5, dealer.TotalGorgees)
}

func (s *GameServiceTestSuite) TestFinalizeRequiresReveal() {
	s.seedReveal(deckOf(20))

	pointer := models.TurnDealer
	s.Require().NoError(s.roomRepo.UpdateRoom(s.ctx, &roomRepo.UpdateRoomInput{
		Code:   "AB2C",
		Update: &roomRepo.RoomUpdate{CurrentPlayer: &pointer},
	}))

	_, err := s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)
}

func (s *GameServiceTestSuite) TestNextRoundCarriesDeckAboveThreshold() {
	s.seedReveal(deckOf(20))
	_, err := s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)

	out, err := s.service.NextRound(s.ctx, &NextRoundInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	s.Equal(2, out.Round)
	s.False(out.Reshuffled)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal(models.RoomStatusBetting, room.Status)
	s.Equal(2, room.Round)
	s.Len(room.Deck, 20)
	s.Equal("host-device", room.Dealer)
	s.Equal([]string{"guest-1", "guest-2", "guest-3"}, room.PlayerOrder)
	s.Empty(room.DealerHand)
	s.Empty(room.CurrentPlayer)

	// Every participant is reset for the new round
	for _, playerID := range []string{"host-device", "guest-1", "guest-2", "guest-3"} {
		player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: playerID})
		s.Require().NoError(err)
		s.Empty(player.Hand, "player %s", playerID)
		s.Nil(player.Bet, "player %s", playerID)
		s.Equal(models.PlayerStatusWaiting, player.Status, "player %s", playerID)
		s.Nil(player.ActionDone, "player %s", playerID)
	}

	// Drink counters survive the reset
	loser, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.Equal(1, loser.TotalDemi)
}

func (s *GameServiceTestSuite) TestNextRoundReshufflesLowDeck() {
	s.seedReveal(deckOf(10))
	_, err := s.service.Finalize(s.ctx, &FinalizeInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)

	out, err := s.service.NextRound(s.ctx, &NextRoundInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	s.True(out.Reshuffled)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Len(room.Deck, models.DeckSize)

	// The dealer is redrawn from the full roster and the order rebuilt
	// around it
	s.NotEmpty(room.Dealer)
	s.Len(room.PlayerOrder, 3)
	s.NotContains(room.PlayerOrder, room.Dealer)
}

func (s *GameServiceTestSuite) TestNextRoundRequiresResults() {
	s.seedReveal(deckOf(20))

	_, err := s.service.NextRound(s.ctx, &NextRoundInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)
}
