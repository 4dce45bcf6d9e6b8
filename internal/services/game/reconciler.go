package game

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/plelievre/trinque/internal/mirror"
	"github.com/plelievre/trinque/internal/models"
	roomRepo "github.com/plelievre/trinque/internal/repositories/room"
	"github.com/plelievre/trinque/internal/scoring"
)

// DefaultReconcileInterval bounds turn-advance latency: every advance is
// observed within one interval of the triggering write reaching the mirror.
const DefaultReconcileInterval = 500 * time.Millisecond

// ErrHostDeposed is returned by Run when another host took the lease
var ErrHostDeposed = errors.New("another host holds the authority lease")

// ReconcilerConfig holds configuration for a host reconciler
type ReconcilerConfig struct {
	// Service executes the host-side transitions
	Service Service

	// Mirror provides the local view the pass evaluates
	Mirror *mirror.Mirror

	// RoomRepo renews the authority lease
	RoomRepo roomRepo.Repository

	// Quartz drives the tick; mockable in tests
	Quartz quartz.Clock

	// Interval between reconciliation passes
	Interval time.Duration

	// AuthorityTTL is the lease duration renewed each pass
	AuthorityTTL time.Duration

	// Code is the room being reconciled
	Code string

	// HostID is this process's identity; it must hold the lease
	HostID string

	// Logger for pass diagnostics
	Logger *log.Logger
}

// Reconciler is the host-side scheduled task that advances the room state
// machine from the locally mirrored replicated state. Polling, not pushing:
// it re-evaluates the whole snapshot every tick, so a missed or reordered
// store event delays an advance by at most one interval instead of wedging
// the round.
type Reconciler struct {
	service      Service
	mirror       *mirror.Mirror
	roomRepo     roomRepo.Repository
	clock        quartz.Clock
	interval     time.Duration
	authorityTTL time.Duration
	code         string
	hostID       string
	logger       *log.Logger
}

// NewReconciler creates a reconciler for one hosted room
func NewReconciler(cfg *ReconcilerConfig) (*Reconciler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Service == nil {
		return nil, errors.New("service cannot be nil")
	}
	if cfg.Mirror == nil {
		return nil, errors.New("mirror cannot be nil")
	}
	if cfg.RoomRepo == nil {
		return nil, errors.New("room repository cannot be nil")
	}
	if cfg.Code == "" || cfg.HostID == "" {
		return nil, errors.New("code and host id cannot be empty")
	}

	if cfg.Quartz == nil {
		cfg.Quartz = quartz.NewReal()
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultReconcileInterval
	}
	if cfg.AuthorityTTL == 0 {
		cfg.AuthorityTTL = DefaultAuthorityTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Reconciler{
		service:      cfg.Service,
		mirror:       cfg.Mirror,
		roomRepo:     cfg.RoomRepo,
		clock:        cfg.Quartz,
		interval:     cfg.Interval,
		authorityTTL: cfg.AuthorityTTL,
		code:         cfg.Code,
		hostID:       cfg.HostID,
		logger:       logger.WithPrefix("reconciler"),
	}, nil
}

// Run reconciles on a fixed interval until the context is cancelled or the
// lease is lost to another host
func (r *Reconciler) Run(ctx context.Context) error {
	waiter := r.clock.TickerFunc(ctx, r.interval, func() error {
		return r.tick(ctx)
	}, "reconciler")
	return waiter.Wait()
}

// tick runs one reconciliation pass
func (r *Reconciler) tick(ctx context.Context) error {
	if err := r.renewLease(ctx); err != nil {
		return err
	}

	snap := r.mirror.Snapshot()
	if snap.Room == nil {
		return nil
	}

	switch snap.Room.Status {
	case models.RoomStatusBetting:
		r.reconcileBetting(ctx, snap)
	case models.RoomStatusPlaying:
		r.reconcilePlaying(ctx, snap)
	}

	return nil
}

// renewLease keeps the authority lease alive, reclaiming it after an
// expiry (e.g. a long process pause). Losing it to another host ends the
// reconciler.
func (r *Reconciler) renewLease(ctx context.Context) error {
	err := r.roomRepo.RenewAuthority(ctx, &roomRepo.RenewAuthorityInput{
		Code: r.code,
		Host: r.hostID,
		TTL:  r.authorityTTL,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, roomRepo.ErrAuthorityHeld) {
		return ErrHostDeposed
	}
	if errors.Is(err, roomRepo.ErrNoAuthority) {
		if _, err := r.roomRepo.ClaimAuthority(ctx, &roomRepo.ClaimAuthorityInput{
			Code: r.code,
			Host: r.hostID,
			TTL:  r.authorityTTL,
		}); err != nil {
			if errors.Is(err, roomRepo.ErrAuthorityHeld) {
				return ErrHostDeposed
			}
			return nil
		}
		return nil
	}

	r.logger.Warn("lease renewal failed", "error", err)
	return nil
}

// reconcileBetting deals the opening hands once every id in the order has
// submitted a bet
func (r *Reconciler) reconcileBetting(ctx context.Context, snap *mirror.Snapshot) {
	if len(snap.Room.PlayerOrder) == 0 {
		return
	}
	for _, playerID := range snap.Room.PlayerOrder {
		player, ok := snap.Players[playerID]
		if !ok || player.Status != models.PlayerStatusReady {
			return
		}
	}

	if _, err := r.service.StartDealing(ctx, &StartDealingInput{
		Code:   r.code,
		HostID: r.hostID,
	}); err != nil && !errors.Is(err, ErrInvalidRoomState) {
		r.logger.Warn("deal failed", "error", err)
	}
}

// reconcilePlaying advances the turn pointer past finished players and
// moves a finished dealer to the reveal step
func (r *Reconciler) reconcilePlaying(ctx context.Context, snap *mirror.Snapshot) {
	current := snap.Room.CurrentPlayer

	switch current {
	case "", models.TurnReveal, models.TurnDone:
		return

	case models.TurnDealer:
		dealer, ok := snap.Players[snap.Room.Dealer]
		dealerDone := ok && dealer.ActionDone != nil
		if dealerDone || scoring.Score(snap.Room.DealerHand) >= scoring.Target {
			if _, err := r.service.RevealDealer(ctx, &RevealDealerInput{
				Code:   r.code,
				HostID: r.hostID,
			}); err != nil && !errors.Is(err, ErrInvalidRoomState) {
				r.logger.Warn("reveal failed", "error", err)
			}
		}
		return

	default:
		player, ok := snap.Players[current]
		// A vanished player cannot finish its turn; skip it
		finished := !ok || player.Status == models.PlayerStatusBust || player.ActionDone != nil
		if !finished {
			return
		}
		if _, err := r.service.AdvanceTurn(ctx, &AdvanceTurnInput{
			Code:   r.code,
			HostID: r.hostID,
		}); err != nil && !errors.Is(err, ErrInvalidRoomState) {
			r.logger.Warn("turn advance failed", "error", err)
		}
	}
}
