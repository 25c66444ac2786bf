package server

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bernatvadell/muonline-sub002/internal/inventory"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
	"github.com/bernatvadell/muonline-sub002/internal/network"
	"github.com/bernatvadell/muonline-sub002/pkg/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	// WebSocket connection
	ws *websocket.Conn

	// Server reference
	server *Server

	// Player information (set after authentication)
	player *models.Player

	// Mix window state
	mixer *mixer

	// Buffered channel for outbound messages
	send chan []byte

	// sendMu guards send against use after Close
	sendMu sync.Mutex
	closed bool
}

// NewConnection creates a new connection for an authenticated player
func NewConnection(ws *websocket.Conn, server *Server, player *models.Player) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		player: player,
		mixer:  server.newMixer(player.ID),
		send:   make(chan []byte, 256),
	}
}

// Handle manages the connection lifecycle
func (c *Connection) Handle() {
	// Set up connection parameters
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Start read and write pumps
	go c.writePump()
	c.readPump() // Blocking
}

// readPump pumps messages from the WebSocket connection to the server
func (c *Connection) readPump() {
	defer c.Close()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}
		c.player.Touch(time.Now())

		var clientMsg network.ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.Printf("Failed to parse client message: %v", err)
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&clientMsg)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.server.ctx.Done():
			// Server shutting down
			return
		}
	}
}

// handleMessage routes messages to appropriate handlers
func (c *Connection) handleMessage(msg *network.ClientMessage) {
	switch msg.Type {
	case network.MsgTypeJoin:
		c.handleJoin()

	case network.MsgTypeLeave:
		c.handleLeave()

	case network.MsgTypePing:
		c.handlePing()

	case network.MsgTypeMixOpen:
		c.handleMixOpen(msg.Payload)

	case network.MsgTypeMixAdd:
		c.handleMixAdd(msg.Payload)

	case network.MsgTypeMixRemove:
		c.handleMixRemove(msg.Payload)

	case network.MsgTypeMixClear:
		c.handleMixChange(c.mixer.clear())

	case network.MsgTypeMixEvaluate:
		c.pushMixResult()

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		c.SendError("unknown_message_type", "Unknown message type")
	}
}

// handleJoin handles player join requests
func (c *Connection) handleJoin() {
	session := c.server.session

	c.player.Connected = true
	c.player.ConnectedAt = time.Now()
	c.player.SessionID = session.ID

	if err := session.AddPlayer(c.player, c); err != nil {
		log.Printf("Failed to add player to session: %v", err)
		c.SendError("join_failed", "Failed to join session")
		return
	}

	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeWelcome,
		Payload: network.WelcomePayload{
			PlayerID:   c.player.ID,
			Username:   c.player.Username,
			SessionID:  session.ID,
			Players:    session.PlayerCount(),
			MaxPlayers: session.MaxPlayers(),
			Recipes:    c.server.recipeCount(),
		},
	})

	session.BroadcastExcept(c, &network.ServerMessage{
		Type: network.MsgTypePlayerJoined,
		Payload: network.PlayerJoinedPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
		},
	})
}

// handleLeave handles player leave requests
func (c *Connection) handleLeave() {
	if c.player == nil || !c.server.session.RemovePlayer(c.player.ID) {
		return
	}
	c.player.Connected = false
	c.server.session.BroadcastExcept(c, &network.ServerMessage{
		Type: network.MsgTypePlayerLeft,
		Payload: network.PlayerLeftPayload{
			PlayerID: c.player.ID,
			Username: c.player.Username,
		},
	})
}

// handlePing handles ping requests
func (c *Connection) handlePing() {
	c.SendMessage(&network.ServerMessage{
		Type:    network.MsgTypePong,
		Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
	})
}

func (c *Connection) handleMixOpen(payload json.RawMessage) {
	var req network.MixOpenPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("invalid_payload", "Invalid mix_open payload")
		return
	}
	facility, err := mix.ParseFacility(req.Facility)
	if err != nil {
		c.SendError("unknown_facility", err.Error())
		return
	}
	c.player.CharacterLevel = req.CharacterLevel
	c.mixer.open(facility, req.CharacterLevel)
	c.handleMixChange(nil)
}

func (c *Connection) handleMixAdd(payload json.RawMessage) {
	var req network.MixAddPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("invalid_payload", "Invalid mix_add payload")
		return
	}
	c.handleMixChange(c.mixer.add(req.Item, req.Position()))
}

func (c *Connection) handleMixRemove(payload json.RawMessage) {
	var req network.MixRemovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.SendError("invalid_payload", "Invalid mix_remove payload")
		return
	}
	c.handleMixChange(c.mixer.remove(req.Index))
}

// handleMixChange reports the outcome of a mix box change. Successful
// changes push the new box state and a fresh evaluation.
func (c *Connection) handleMixChange(err error) {
	if err != nil {
		c.SendError(mixErrorCode(err), err.Error())
		return
	}
	state, err := c.mixer.state()
	if err != nil {
		c.SendError(mixErrorCode(err), err.Error())
		return
	}
	c.SendMessage(&network.ServerMessage{Type: network.MsgTypeMixState, Payload: state})
	c.pushMixResult()
}

func (c *Connection) pushMixResult() {
	result, err := c.mixer.evaluate()
	if err != nil {
		c.SendError(mixErrorCode(err), err.Error())
		return
	}
	c.SendMessage(&network.ServerMessage{Type: network.MsgTypeMixResult, Payload: result})
}

// mixErrorCode maps mix errors to protocol error codes
func mixErrorCode(err error) string {
	switch {
	case errors.Is(err, errMixNotOpen):
		return "mix_not_open"
	case errors.Is(err, errRateLimited):
		return "rate_limited"
	case errors.Is(err, errInvalidItem):
		return "mix_invalid_item"
	case errors.Is(err, inventory.ErrNotAccepted):
		return "mix_item_rejected"
	case errors.Is(err, inventory.ErrNoSpace):
		return "mix_no_space"
	case errors.Is(err, inventory.ErrBlocked):
		return "mix_blocked"
	case errors.Is(err, inventory.ErrOutOfRange):
		return "mix_bad_index"
	}
	return "mix_failed"
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *network.ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Send buffer full, dropping message")
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	c.SendMessage(&network.ServerMessage{
		Type: network.MsgTypeError,
		Payload: network.ErrorPayload{
			Code:    code,
			Message: message,
		},
	})
}

// Close closes the connection. It is safe to call more than once.
func (c *Connection) Close() {
	c.handleLeave()

	c.sendMu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.sendMu.Unlock()

	c.ws.Close()
}
