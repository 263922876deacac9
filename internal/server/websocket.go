package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Message types a table client may send. Every request gets exactly one
// reply carrying the same request id; the server never pushes on its own.
const (
	MessageState  = "state"
	MessageAction = "action"
	MessageResult = "result"
	MessageError  = "error"
)

// WSMessage is the envelope for both directions of the table socket.
type WSMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Seat      int             `json:"seat,omitempty"`
	Action    string          `json:"action_type,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	Data      any             `json:"data,omitempty"`
	Error     *ErrorResponse  `json:"error,omitempty"`
}

type tableClient struct {
	conn      *websocket.Conn
	send      chan WSMessage
	done      chan struct{}
	sessionID int64
	server    *Server
	logger    *zap.Logger
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if _, err := s.engine.Session(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &tableClient{
		conn:      conn,
		send:      make(chan WSMessage, 16),
		done:      make(chan struct{}),
		sessionID: id,
		server:    s,
		logger:    s.logger.With(zap.Int64("session_id", id)),
	}
	client.logger.Debug("table client connected", zap.String("remote", r.RemoteAddr))

	go client.writePump()
	client.readPump()
}

func (c *tableClient) readPump() {
	defer func() {
		close(c.send)
		c.logger.Debug("table client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("table socket read failed", zap.Error(err))
			}
			return
		}
		if !c.deliver(c.handle(msg)) {
			return
		}
	}
}

// deliver queues a reply for writePump. It reports false once writePump has
// stopped.
func (c *tableClient) deliver(msg WSMessage) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	}
}

func (c *tableClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn("table socket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *tableClient) handle(msg WSMessage) WSMessage {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	reply := WSMessage{Type: MessageResult, RequestID: msg.RequestID, Seat: msg.Seat}
	engine := c.server.engine

	switch msg.Type {
	case MessageState:
		view, err := engine.ProjectedState(ctx, c.sessionID, msg.Seat)
		if err != nil {
			return errorReply(msg, err)
		}
		reply.Data = view
	case MessageAction:
		id, err := engine.ExecuteAction(ctx, c.sessionID, msg.Seat, msg.Action, msg.Metadata)
		if err != nil {
			return errorReply(msg, err)
		}
		reply.Action = msg.Action
		reply.Data = ActionResponse{AuditID: id}
	default:
		return WSMessage{
			Type:      MessageError,
			RequestID: msg.RequestID,
			Error:     &ErrorResponse{Error: "unknown message type " + msg.Type},
		}
	}
	return reply
}

func errorReply(msg WSMessage, err error) WSMessage {
	body := errorBody(err)
	return WSMessage{Type: MessageError, RequestID: msg.RequestID, Seat: msg.Seat, Error: &body}
}
