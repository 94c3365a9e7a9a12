package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livetemplate/speedlaunch/internal/state"
	"go.uber.org/zap"
)

// writeWait bounds a single websocket write.
const writeWait = 5 * time.Second

// Envelope types pushed to clients.
const (
	MessageState  = "state"
	MessageReload = "reload"
	MessageError  = "error"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests whose origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// MessageEnvelope is a server-to-client websocket message.
type MessageEnvelope struct {
	Type   string          `json:"type"`
	State  *state.Snapshot `json:"state,omitempty"`
	HTML   string          `json:"html,omitempty"`
	Copied *bool           `json:"copied,omitempty"`
	Error  string          `json:"error,omitempty"`
	File   string          `json:"file,omitempty"`
}

// wsClient serializes writes to one connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) sendJSON(msg MessageEnvelope) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.send(data)
}

// Hub tracks connected websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket connection registered", zap.Int("active", n))
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket connection unregistered", zap.Int("active", n))
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every connected client. Clients that fail the
// write are closed; their read loops unregister them.
func (h *Hub) Broadcast(msg MessageEnvelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(data); err != nil {
			h.logger.Debug("websocket send failed", zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

// CloseAll closes every connection.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
	}
}

// handleWebSocket upgrades the request, sends the current state and then
// dispatches every ActionRequest the client sends. State changes reach all
// clients through the store subscription; only rejections are answered
// directly.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{conn: conn}
	s.attach(c)
	defer func() {
		s.hub.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxRequestBodySize)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var req ActionRequest
		if err := json.Unmarshal(message, &req); err != nil {
			_ = c.sendJSON(MessageEnvelope{Type: MessageError, Error: "invalid JSON: " + err.Error()})
			continue
		}

		copied, err := s.Dispatch(req)
		if err != nil {
			s.logger.Debug("rejected action", zap.String("action", req.Action), zap.Error(err))
			_ = c.sendJSON(MessageEnvelope{Type: MessageError, Error: err.Error()})
			continue
		}
		if copied != nil && !*copied {
			_ = c.sendJSON(MessageEnvelope{Type: MessageError, Copied: copied, Error: "clipboard write failed"})
		}
	}
}

// attach registers c and sends it the current state while holding
// broadcastMu, so a change racing the connect is delivered after the initial
// snapshot and never before it.
func (s *Server) attach(c *wsClient) {
	s.broadcastMu.Lock()
	defer s.broadcastMu.Unlock()

	s.hub.register(c)
	resp, err := s.response(nil)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		return
	}
	_ = c.sendJSON(MessageEnvelope{Type: MessageState, State: &resp.State, HTML: resp.HTML})
}

// broadcastState pushes the latest snapshot to every client. It re-reads the
// store under broadcastMu so concurrent notifications cannot deliver an
// older snapshot after a newer one.
func (s *Server) broadcastState() {
	s.broadcastMu.Lock()
	defer s.broadcastMu.Unlock()

	if s.hub.Len() == 0 {
		return
	}
	resp, err := s.response(nil)
	if err != nil {
		s.logger.Error("render failed", zap.Error(err))
		return
	}
	s.hub.Broadcast(MessageEnvelope{Type: MessageState, State: &resp.State, HTML: resp.HTML})
}

// BroadcastReload tells every client to reload the page.
func (s *Server) BroadcastReload(file string) {
	s.logger.Info("broadcasting reload", zap.String("file", file), zap.Int("connections", s.hub.Len()))
	s.hub.Broadcast(MessageEnvelope{Type: MessageReload, File: file})
}
