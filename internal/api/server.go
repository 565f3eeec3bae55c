// Package api serves the real-time collaboration protocol over
// WebSocket and maps inbound events to room and tree operations.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/juliacode/collab-server/internal/agent"
	"github.com/juliacode/collab-server/internal/events"
	"github.com/juliacode/collab-server/internal/logging"
	"github.com/juliacode/collab-server/internal/metrics"
	"github.com/juliacode/collab-server/internal/room"
)

// Server is the protocol handler. Every dependency is injected; the
// server owns no global state.
type Server struct {
	registry    *room.Registry
	broadcaster *events.Broadcaster
	gateway     *agent.Gateway
	upgrader    websocket.Upgrader

	mu          sync.Mutex
	connections int
}

// NewServer creates a server. allowedOrigin is the single browser origin
// the upgrader accepts; requests without an Origin header (non-browser
// clients, tests) are always accepted.
func NewServer(registry *room.Registry, broadcaster *events.Broadcaster, gateway *agent.Gateway, allowedOrigin string) *Server {
	return &Server{
		registry:    registry,
		broadcaster: broadcaster,
		gateway:     gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Handler returns the HTTP handler: the WebSocket endpoint plus a
// liveness check.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// client is one connected editor.
type client struct {
	id   string
	conn *websocket.Conn
	sub  *events.Subscriber
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	c := &client{
		id:   id,
		conn: conn,
		sub:  events.NewSubscriber(id),
	}

	s.trackConnection(+1)
	logging.Info("client connected",
		zap.String("client", c.id),
		zap.String("remote", r.RemoteAddr))

	go c.writePump()

	defer func() {
		s.broadcaster.Unsubscribe(c.sub)
		conn.Close()
		s.trackConnection(-1)
		logging.Info("client disconnected", zap.String("client", c.id))
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError(c, EventOperationError, "malformed", "malformed message")
			continue
		}
		s.dispatch(c, env)
	}
}

// writePump drains the subscriber queue onto the wire. It exits when the
// queue is closed (unsubscribe) or a write fails.
func (c *client) writePump() {
	for frame := range c.sub.C() {
		if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) trackConnection(delta int) {
	s.mu.Lock()
	s.connections += delta
	count := s.connections
	s.mu.Unlock()
	metrics.SetWSConnectionsActive(count)
}

// dispatch routes one inbound frame. It runs on the connection's read
// goroutine; per-room mutation ordering comes from the room mutex.
func (s *Server) dispatch(c *client, env Envelope) {
	metrics.RecordEvent(env.Event)
	switch env.Event {
	case EventJoinRoom:
		s.handleJoin(c, env.Data)
	case EventFileContentUpdate:
		s.handleFileUpdate(c, env.Data)
	case EventCreateFile:
		s.handleCreateFile(c, env.Data)
	case EventCreateFolder:
		s.handleCreateFolder(c, env.Data)
	case EventDeleteItem:
		s.handleDeleteItem(c, env.Data)
	case EventCommitMilestone:
		s.handleCommitMilestone(c, env.Data)
	case EventInvokeTaskMaster:
		s.handleTaskMaster(c, env.Data)
	default:
		s.sendError(c, EventOperationError, env.Event, "unknown event: "+env.Event)
	}
}

// sendError reports a failure to the requesting client only. No error is
// ever fatal to the room or to other clients.
func (s *Server) sendError(c *client, event, cause, message string) {
	metrics.RecordOperationError(cause)
	frame, err := encodeFrame(event, errorMessage{Message: message})
	if err != nil {
		return
	}
	c.sub.Send(frame)
}
