package game

import (
	"fmt"

	"github.com/plelievre/trinque/internal/models"
	playerRepo "github.com/plelievre/trinque/internal/repositories/player"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
)

func c(value string) models.Card {
	return models.Card{Suit: "♠", Value: value}
}

// seedRoom writes a room document directly, bypassing the lobby flow
func (s *GameServiceTestSuite) seedRoom(room *models.Room) {
	room.Created = s.testNow
	room.Updated = s.testNow
	s.Require().NoError(s.roomRepo.SaveRoom(s.ctx, &roomRepo.SaveRoomInput{Room: room}))
}

// seedPlayer writes a player document directly
func (s *GameServiceTestSuite) seedPlayer(code string, player *models.Player) {
	if player.Joined.IsZero() {
		player.Joined = s.testNow
	}
	s.Require().NoError(s.playerRepo.SavePlayer(s.ctx, &playerRepo.SavePlayerInput{
		Code:   code,
		Player: player,
	}))
}

// seedMidRound sets up a playing round: host-device deals, guest-1 and
// guest-2 play in that order, guest-1 to act
func (s *GameServiceTestSuite) seedMidRound(deckCards []models.Card) {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          deckCards,
		Dealer:        "host-device",
		DealerHand:    []models.Card{c("10"), c("6")},
		CurrentPlayer: "guest-1",
		PlayerOrder:   []string{"guest-1", "guest-2"},
	})
	s.seedPlayer("AB2C", &models.Player{
		ID: "host-device", Name: "Host", Emoji: "🎩", IsHost: true,
		Status: models.PlayerStatusPlaying,
	})
	s.seedPlayer("AB2C", &models.Player{
		ID: "guest-1", Name: "One", Emoji: "🍺",
		Hand:   []models.Card{c("K"), c("5")},
		Bet:    &models.Bet{Amount: 5, Type: models.BetTypeNormal},
		Status: models.PlayerStatusPlaying,
	})
	s.seedPlayer("AB2C", &models.Player{
		ID: "guest-2", Name: "Two", Emoji: "🥃",
		Hand:   []models.Card{c("9"), c("9")},
		Bet:    &models.Bet{Amount: 0, Type: models.BetTypeDemi},
		Status: models.PlayerStatusPlaying,
	})
}

func (s *GameServiceTestSuite) TestHitDrawsFromDeckTail() {
	s.seedMidRound([]models.Card{c("2"), c("3"), c("4")})

	out, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)

	s.Equal(c("4"), out.Card)
	s.Equal(19, out.Score)
	s.False(out.Busted)

	player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.Len(player.Hand, 3)
	s.Nil(player.ActionDone)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Len(room.Deck, 2)
	// Turn stays with the player until they stand or bust
	s.Equal("guest-1", room.CurrentPlayer)
}

func (s *GameServiceTestSuite) TestHitBustMarksStatus() {
	s.seedMidRound([]models.Card{c("7")})

	out, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.True(out.Busted)
	s.Equal(22, out.Score)

	player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.Equal(models.PlayerStatusBust, player.Status)

	// A non-host bust waits for the reconciliation pass to advance
	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal("guest-1", room.CurrentPlayer)
}

func (s *GameServiceTestSuite) TestHitNaturalTargetStands() {
	s.seedMidRound([]models.Card{c("6")})

	out, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.Equal(21, out.Score)
	s.False(out.Busted)

	// Landing exactly on 21 ends the turn without an explicit stand
	player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.NotNil(player.ActionDone)
}

func (s *GameServiceTestSuite) TestHitOutOfTurn() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().ErrorIs(err, ErrNotYourTurn)

	// The deck is untouched by the rejected call
	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Len(room.Deck, 1)
}

func (s *GameServiceTestSuite) TestHitOutsidePlayingState() {
	s.seedRoom(&models.Room{
		Code:   "AB2C",
		Host:   "host-device",
		Status: models.RoomStatusBetting,
		Round:  1,
		Deck:   []models.Card{c("2")},
	})

	_, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)
}

func (s *GameServiceTestSuite) TestHostBustAdvancesItself() {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          []models.Card{c("5")},
		Dealer:        "guest-2",
		DealerHand:    []models.Card{c("10"), c("6")},
		CurrentPlayer: "host-device",
		PlayerOrder:   []string{"host-device", "guest-1"},
	})
	s.seedPlayer("AB2C", &models.Player{
		ID: "host-device", IsHost: true,
		Hand:   []models.Card{c("K"), c("Q")},
		Status: models.PlayerStatusPlaying,
	})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-2", Status: models.PlayerStatusPlaying})

	out, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "host-device"})
	s.Require().NoError(err)
	s.True(out.Busted)

	// The host moves its own turn pointer directly
	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal("guest-1", room.CurrentPlayer)
}

func (s *GameServiceTestSuite) TestStandStampsActionDone() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.Stand(s.ctx, &StandInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)

	player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.NotNil(player.ActionDone)
}

func (s *GameServiceTestSuite) TestDouble() {
	s.seedMidRound([]models.Card{c("4")})

	out, err := s.service.Double(s.ctx, &DoubleInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.Equal(c("4"), out.Card)
	s.Equal(19, out.Score)
	s.Equal(10, out.Bet.Amount)

	player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)
	s.Len(player.Hand, 3)
	s.Equal(10, player.Bet.Amount)
	// Double always ends the turn
	s.NotNil(player.ActionDone)
}

func (s *GameServiceTestSuite) TestDoubleRequiresTwoCardHand() {
	s.seedMidRound([]models.Card{c("2"), c("3")})

	_, err := s.service.Hit(s.ctx, &HitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().NoError(err)

	_, err = s.service.Double(s.ctx, &DoubleInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().ErrorIs(err, ErrCannotDouble)
}

func (s *GameServiceTestSuite) TestSplitUnavailable() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.Split(s.ctx, &SplitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().ErrorIs(err, ErrSplitUnavailable)
}

func (s *GameServiceTestSuite) TestStartDealing() {
	s.seedRoom(&models.Room{
		Code:        "AB2C",
		Host:        "host-device",
		Status:      models.RoomStatusBetting,
		Round:       1,
		Deck:        deckOf(10),
		Dealer:      "host-device",
		PlayerOrder: []string{"guest-1", "guest-2"},
	})
	s.seedPlayer("AB2C", &models.Player{ID: "host-device", IsHost: true, Status: models.PlayerStatusWaiting})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusReady, Bet: &models.Bet{Amount: 3, Type: models.BetTypeNormal}})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-2", Status: models.PlayerStatusReady, Bet: &models.Bet{Amount: 0, Type: models.BetTypeCulSec}})

	out, err := s.service.StartDealing(s.ctx, &StartDealingInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	s.Equal("guest-1", out.CurrentPlayer)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal(models.RoomStatusPlaying, room.Status)
	s.Equal("guest-1", room.CurrentPlayer)
	s.Len(room.DealerHand, 2)
	// Two cards per bettor plus two for the dealer
	s.Len(room.Deck, 10-6)

	for _, playerID := range []string{"guest-1", "guest-2"} {
		player, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: playerID})
		s.Require().NoError(err)
		s.Len(player.Hand, 2)
		s.Equal(models.PlayerStatusPlaying, player.Status)
	}
}

func (s *GameServiceTestSuite) TestStartDealingRefusesShortDeck() {
	// Seven bettors plus the dealer need 16 cards
	order := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		order = append(order, fmt.Sprintf("guest-%d", i))
	}
	s.seedRoom(&models.Room{
		Code:        "AB2C",
		Host:        "host-device",
		Status:      models.RoomStatusBetting,
		Round:       2,
		Deck:        deckOf(15),
		Dealer:      "host-device",
		PlayerOrder: order,
	})
	s.seedPlayer("AB2C", &models.Player{ID: "host-device", IsHost: true, Status: models.PlayerStatusWaiting})
	for _, playerID := range order {
		s.seedPlayer("AB2C", &models.Player{ID: playerID, Status: models.PlayerStatusReady, Bet: &models.Bet{Amount: 1, Type: models.BetTypeNormal}})
	}

	_, err := s.service.StartDealing(s.ctx, &StartDealingInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrDeckExhausted)

	// The refused deal leaves the room untouched
	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal(models.RoomStatusBetting, room.Status)
	s.Len(room.Deck, 15)
}

func (s *GameServiceTestSuite) TestStartDealingRequiresAllBetsIn() {
	s.seedRoom(&models.Room{
		Code:        "AB2C",
		Host:        "host-device",
		Status:      models.RoomStatusBetting,
		Round:       1,
		Deck:        deckOf(10),
		Dealer:      "host-device",
		PlayerOrder: []string{"guest-1", "guest-2"},
	})
	s.seedPlayer("AB2C", &models.Player{ID: "host-device", IsHost: true, Status: models.PlayerStatusWaiting})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusReady, Bet: &models.Bet{Amount: 3, Type: models.BetTypeNormal}})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-2", Status: models.PlayerStatusWaiting})

	_, err := s.service.StartDealing(s.ctx, &StartDealingInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Len(room.Deck, 10)
}

func (s *GameServiceTestSuite) TestStartDealingRequiresBetting() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.StartDealing(s.ctx, &StartDealingInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)
}

// assertFullPartition checks that the deck, the dealer hand and every
// player hand together hold each of the 52 cards exactly once
func (s *GameServiceTestSuite) assertFullPartition(code string) {
	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: code})
	s.Require().NoError(err)
	players, err := s.playerRepo.GetPlayers(s.ctx, &playerRepo.GetPlayersInput{Code: code})
	s.Require().NoError(err)

	seen := make(map[models.Card]bool, models.DeckSize)
	count := 0
	collect := func(cards []models.Card) {
		for _, card := range cards {
			s.False(seen[card], "card %s%s held twice", card.Suit, card.Value)
			seen[card] = true
			count++
		}
	}

	collect(room.Deck)
	collect(room.DealerHand)
	for _, player := range players {
		collect(player.Hand)
	}
	s.Equal(models.DeckSize, count)
}

func (s *GameServiceTestSuite) TestDealAndHitsConserveTheDeck() {
	code, _, order := s.startedRoom()

	for _, playerID := range order {
		_, err := s.service.PlaceBet(s.ctx, &PlaceBetInput{
			Code:     code,
			PlayerID: playerID,
			Bet:      &models.Bet{Amount: 2, Type: models.BetTypeNormal},
		})
		s.Require().NoError(err)
	}

	_, err := s.service.StartDealing(s.ctx, &StartDealingInput{Code: code, HostID: "host-device"})
	s.Require().NoError(err)
	s.assertFullPartition(code)

	_, err = s.service.Hit(s.ctx, &HitInput{Code: code, PlayerID: order[0]})
	s.Require().NoError(err)
	s.assertFullPartition(code)
}

func (s *GameServiceTestSuite) TestAdvanceTurnWalksOrderThenDealer() {
	s.seedMidRound([]models.Card{c("2")})

	out, err := s.service.AdvanceTurn(s.ctx, &AdvanceTurnInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	s.Equal("guest-2", out.CurrentPlayer)

	out, err = s.service.AdvanceTurn(s.ctx, &AdvanceTurnInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	s.Equal(models.TurnDealer, out.CurrentPlayer)
}

func (s *GameServiceTestSuite) TestAdvanceTurnRejectsNonHost() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.AdvanceTurn(s.ctx, &AdvanceTurnInput{Code: "AB2C", HostID: "guest-1"})
	s.Require().ErrorIs(err, ErrNotHost)
}

func (s *GameServiceTestSuite) TestDealerPlay() {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          []models.Card{c("K"), c("2")},
		Dealer:        "guest-2",
		DealerHand:    []models.Card{c("10"), c("6")},
		CurrentPlayer: models.TurnDealer,
		PlayerOrder:   []string{"guest-1"},
	})
	s.seedPlayer("AB2C", &models.Player{ID: "host-device", IsHost: true, Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-2", Status: models.PlayerStatusPlaying})

	out, err := s.service.DealerHit(s.ctx, &DealerHitInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.Equal(c("2"), out.Card)
	s.Equal(18, out.Score)

	// Under 21 the dealer keeps deciding
	dealer, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.Nil(dealer.ActionDone)

	_, err = s.service.DealerStand(s.ctx, &DealerStandInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)

	// A non-host dealer signals done; the reconciliation pass reveals
	dealer, err = s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.NotNil(dealer.ActionDone)
}

func (s *GameServiceTestSuite) TestDealerHitBustSignalsDone() {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          []models.Card{c("K")},
		Dealer:        "guest-2",
		DealerHand:    []models.Card{c("10"), c("6")},
		CurrentPlayer: models.TurnDealer,
		PlayerOrder:   []string{"guest-1"},
	})
	s.seedPlayer("AB2C", &models.Player{ID: "host-device", IsHost: true, Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-2", Status: models.PlayerStatusPlaying})

	out, err := s.service.DealerHit(s.ctx, &DealerHitInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.Equal(26, out.Score)

	dealer, err := s.playerRepo.GetPlayer(s.ctx, &playerRepo.GetPlayerInput{Code: "AB2C", PlayerID: "guest-2"})
	s.Require().NoError(err)
	s.NotNil(dealer.ActionDone)
}

func (s *GameServiceTestSuite) TestHostDealerStandRevealsDirectly() {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          []models.Card{c("2")},
		Dealer:        "host-device",
		DealerHand:    []models.Card{c("10"), c("8")},
		CurrentPlayer: models.TurnDealer,
		PlayerOrder:   []string{"guest-1"},
	})
	s.seedPlayer("AB2C", &models.Player{ID: "host-device", IsHost: true, Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusPlaying})

	_, err := s.service.DealerStand(s.ctx, &DealerStandInput{Code: "AB2C", PlayerID: "host-device"})
	s.Require().NoError(err)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal(models.TurnReveal, room.CurrentPlayer)
}

func (s *GameServiceTestSuite) TestDealerHitRejectsNonDealer() {
	s.seedRoom(&models.Room{
		Code:          "AB2C",
		Host:          "host-device",
		Status:        models.RoomStatusPlaying,
		Round:         1,
		Deck:          []models.Card{c("2")},
		Dealer:        "guest-2",
		DealerHand:    []models.Card{c("10"), c("6")},
		CurrentPlayer: models.TurnDealer,
		PlayerOrder:   []string{"guest-1"},
	})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-1", Status: models.PlayerStatusPlaying})
	s.seedPlayer("AB2C", &models.Player{ID: "guest-2", Status: models.PlayerStatusPlaying})

	_, err := s.service.DealerHit(s.ctx, &DealerHitInput{Code: "AB2C", PlayerID: "guest-1"})
	s.Require().ErrorIs(err, ErrNotDealer)
}

func (s *GameServiceTestSuite) TestDealerHitOutsideDealerTurn() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.DealerHit(s.ctx, &DealerHitInput{Code: "AB2C", PlayerID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)
}

func (s *GameServiceTestSuite) TestRevealDealerRequiresDealerTurn() {
	s.seedMidRound([]models.Card{c("2")})

	_, err := s.service.RevealDealer(s.ctx, &RevealDealerInput{Code: "AB2C", HostID: "host-device"})
	s.Require().ErrorIs(err, ErrInvalidRoomState)

	_, err = s.service.AdvanceTurn(s.ctx, &AdvanceTurnInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)
	_, err = s.service.AdvanceTurn(s.ctx, &AdvanceTurnInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)

	_, err = s.service.RevealDealer(s.ctx, &RevealDealerInput{Code: "AB2C", HostID: "host-device"})
	s.Require().NoError(err)

	room, err := s.roomRepo.GetRoom(s.ctx, &roomRepo.GetRoomInput{Code: "AB2C"})
	s.Require().NoError(err)
	s.Equal(models.TurnReveal, room.CurrentPlayer)
}

// deckOf builds n distinct low cards for deterministic draws
func deckOf(n int) []models.Card {
	values := []string{"2", "3", "4", "5", "6", "7", "8", "9"}
	suits := []models.Suit{"♠", "♥", "♦", "♣"}
	cards := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, models.Card{
			Suit:  suits[i/len(values)],
			Value: values[i%len(values)],
		})
	}
	return cards
}
