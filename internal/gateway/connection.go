package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/plelievre/trinque/internal/models"
	"github.com/plelievre/trinque/internal/services/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one websocket client of the local gateway. Every
// connection acts as the device identity the gateway was started with.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	gateway   *Gateway
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper
func NewConnection(conn *websocket.Conn, gateway *Gateway) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 64),
		gateway: gateway,
		logger:  gateway.logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel closed during shutdown
			c.logger.Debug("send on closed connection", "recovered", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage maps a client command onto the game service
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type)

	g := c.gateway
	var err error

	switch msg.Type {
	case MessageTypeBet:
		var data BetData
		if jsonErr := json.Unmarshal(msg.Data, &data); jsonErr != nil {
			c.sendError("invalid_message", "failed to parse bet data")
			return
		}
		_, err = g.service.PlaceBet(c.ctx, &game.PlaceBetInput{
			Code:     g.code,
			PlayerID: g.playerID,
			Bet: &models.Bet{
				Amount: data.Amount,
				Type:   models.BetType(data.Type),
			},
		})

	case MessageTypeHit:
		_, err = g.service.Hit(c.ctx, &game.HitInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeStand:
		_, err = g.service.Stand(c.ctx, &game.StandInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeDouble:
		_, err = g.service.Double(c.ctx, &game.DoubleInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeSplit:
		_, err = g.service.Split(c.ctx, &game.SplitInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeDealerHit:
		_, err = g.service.DealerHit(c.ctx, &game.DealerHitInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeDealerStand:
		_, err = g.service.DealerStand(c.ctx, &game.DealerStandInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeStart:
		_, err = g.service.StartGame(c.ctx, &game.StartGameInput{Code: g.code, PlayerID: g.playerID})

	case MessageTypeFinalize:
		_, err = g.service.Finalize(c.ctx, &game.FinalizeInput{Code: g.code, HostID: g.playerID})

	case MessageTypeNextRound:
		_, err = g.service.NextRound(c.ctx, &game.NextRoundInput{Code: g.code, HostID: g.playerID})

	case MessageTypeLeave:
		_, err = g.service.LeaveRoom(c.ctx, &game.LeaveRoomInput{Code: g.code, PlayerID: g.playerID})

	default:
		c.sendError("unknown_message_type", "unknown message type: "+string(msg.Type))
		return
	}

	if err != nil {
		c.sendError(commandErrorCode(err), err.Error())
	}
	// No success response; the state broadcast follows the store event
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// commandErrorCode maps service errors onto stable wire codes
func commandErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, game.ErrInvalidRoomState):
		return "invalid_room_state"
	case errors.Is(err, game.ErrNotHost), errors.Is(err, game.ErrNotAuthority):
		return "not_host"
	case errors.Is(err, game.ErrSplitUnavailable):
		return "split_unavailable"
	default:
		return "command_failed"
	}
}
