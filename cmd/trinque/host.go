package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plelievre/trinque/internal/services/game"
)

const leaveTimeout = 3 * time.Second

// HostCmd creates a room and runs the host side: the mirror, the
// reconciler and the local UI gateway
type HostCmd struct {
	connectFlags
	Seed int64 `kong:"help='Deterministic shuffle seed (testing)'"`
}

func (c *HostCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, &c.connectFlags, c.Seed)
	if err != nil {
		return err
	}
	defer func() { _ = a.client.Close() }()

	created, err := a.service.CreateRoom(ctx, &game.CreateRoomInput{
		HostID: a.deviceID,
		Name:   c.Name,
		Emoji:  c.Emoji,
	})
	if err != nil {
		return err
	}
	code := created.Room.Code
	a.logger.Info("hosting room", "code", code, "gateway", c.Addr)

	m, err := a.newMirror(code)
	if err != nil {
		return err
	}
	gw, err := a.newGateway(c.Addr, code, m)
	if err != nil {
		return err
	}
	reconciler, err := game.NewReconciler(&game.ReconcilerConfig{
		Service:  a.service,
		Mirror:   m,
		RoomRepo: a.roomRepo,
		Code:     code,
		HostID:   a.deviceID,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	group, runCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return m.Run(runCtx) })
	group.Go(func() error { return reconciler.Run(runCtx) })
	group.Go(func() error { return gw.Run(runCtx) })

	err = group.Wait()
	a.leave(code)

	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
