// Package gateway exposes one device's view of a room to its local UI
// over a websocket: it pushes the mirrored table state after every
// replicated change and turns UI commands into game service calls made
// with this device's identity.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/plelievre/trinque/internal/mirror"
	"github.com/plelievre/trinque/internal/services/game"
)

// Config holds configuration for a gateway
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8090"
	Addr string

	// Service executes UI commands
	Service game.Service

	// Mirror provides the state pushed to clients
	Mirror *mirror.Mirror

	// Code is the room this gateway fronts
	Code string

	// PlayerID is the device identity every connection acts as
	PlayerID string

	// Logger for gateway diagnostics
	Logger *log.Logger
}

// Gateway is the websocket server for one device in one room
type Gateway struct {
	addr     string
	service  game.Service
	mirror   *mirror.Mirror
	code     string
	playerID string
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu          sync.RWMutex
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	done        chan struct{}
}

// New creates a gateway
func New(cfg *Config) (*Gateway, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Addr == "" {
		return nil, errors.New("listen address cannot be empty")
	}
	if cfg.Service == nil {
		return nil, errors.New("service cannot be nil")
	}
	if cfg.Mirror == nil {
		return nil, errors.New("mirror cannot be nil")
	}
	if cfg.Code == "" || cfg.PlayerID == "" {
		return nil, errors.New("code and player id cannot be empty")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Gateway{
		addr:     cfg.Addr,
		service:  cfg.Service,
		mirror:   cfg.Mirror,
		code:     cfg.Code,
		playerID: cfg.PlayerID,
		upgrader: websocket.Upgrader{
			// Local UI only; the gateway binds loopback in practice
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:      logger.WithPrefix("gateway"),
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
	}, nil
}

// Run serves until the context is cancelled. It blocks; run it in its
// own goroutine.
func (g *Gateway) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.handleWebSocket)
	mux.HandleFunc("/health", g.handleHealth)

	srv := &http.Server{Addr: g.addr, Handler: mux}

	go g.dispatch(ctx)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	g.logger.Info("gateway listening", "addr", g.addr, "code", g.code)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		g.closeAll()
		return ctx.Err()
	case err := <-serveErr:
		return err
	}
}

// dispatch is the single consumer of the mirror's change feed. One
// goroutine owns the connection set and all state pushes.
func (g *Gateway) dispatch(ctx context.Context) {
	for {
		select {
		case conn := <-g.register:
			g.mu.Lock()
			g.connections[conn] = true
			total := len(g.connections)
			g.mu.Unlock()
			g.logger.Info("client connected", "total", total)

			// Push the current state so a fresh client renders
			// without waiting for a change
			g.sendState(conn)

		case conn := <-g.unregister:
			g.mu.Lock()
			if _, ok := g.connections[conn]; ok {
				delete(g.connections, conn)
				_ = conn.Close()
			}
			total := len(g.connections)
			g.mu.Unlock()
			g.logger.Info("client disconnected", "total", total)

		case <-g.mirror.Deltas():
			g.broadcastState()

		case <-ctx.Done():
			// Unblock any handler goroutine still trying to register
			// or unregister
			close(g.done)
			return
		}
	}
}

// handleWebSocket handles websocket upgrade requests
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, g)
	select {
	case g.register <- client:
	case <-g.done:
		_ = client.Close()
		return
	}
	client.Start()

	go func() {
		<-client.ctx.Done()
		select {
		case g.unregister <- client:
		case <-g.done:
		}
	}()
}

// handleHealth handles health check requests
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

// broadcastState pushes the current snapshot to every connection
func (g *Gateway) broadcastState() {
	msg, err := NewMessage(MessageTypeState, StateFromSnapshot(g.mirror.Snapshot(), g.playerID))
	if err != nil {
		g.logger.Error("failed to build state message", "error", err)
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for conn := range g.connections {
		if err := conn.SendMessage(msg); err != nil {
			g.logger.Error("failed to send state", "error", err)
		}
	}
}

// sendState pushes the current snapshot to one connection
func (g *Gateway) sendState(conn *Connection) {
	msg, err := NewMessage(MessageTypeState, StateFromSnapshot(g.mirror.Snapshot(), g.playerID))
	if err != nil {
		g.logger.Error("failed to build state message", "error", err)
		return
	}
	if err := conn.SendMessage(msg); err != nil {
		g.logger.Error("failed to send state", "error", err)
	}
}

// closeAll closes every live connection during shutdown
func (g *Gateway) closeAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for conn := range g.connections {
		_ = conn.Close()
		delete(g.connections, conn)
	}
}
