package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/plelievre/trinque/internal/roomcode"
	"github.com/plelievre/trinque/internal/services/game"
)

// JoinCmd joins an existing room and runs the player side: the mirror
// and the local UI gateway
type JoinCmd struct {
	Code string `kong:"arg,help='Room code, e.g. K7Q2'"`
	connectFlags
}

func (c *JoinCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, &c.connectFlags, 0)
	if err != nil {
		return err
	}
	defer func() { _ = a.client.Close() }()

	joined, err := a.service.JoinRoom(ctx, &game.JoinRoomInput{
		PlayerID: a.deviceID,
		Code:     c.Code,
		Name:     c.Name,
		Emoji:    c.Emoji,
	})
	if err != nil {
		return err
	}
	code := roomcode.Normalize(c.Code)
	a.logger.Info("joined room", "code", code, "host", joined.Room.Host, "gateway", c.Addr)

	m, err := a.newMirror(code)
	if err != nil {
		return err
	}
	gw, err := a.newGateway(c.Addr, code, m)
	if err != nil {
		return err
	}

	group, runCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return m.Run(runCtx) })
	group.Go(func() error { return gw.Run(runCtx) })

	err = group.Wait()
	a.leave(code)

	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
