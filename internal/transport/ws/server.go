package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/relay-service/internal/presence"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type Relay interface {
	OnJoin(ctx context.Context, participantID, conversationID string) error
	OnLeave(participantID, conversationID string)
}

type Server struct {
	upgrader websocket.Upgrader
	registry *presence.Registry
	relay    Relay

	pingEvery time.Duration
}

func NewServer(registry *presence.Registry, relay Relay) *Server {
	return &Server{
		registry: registry,
		relay:    relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// WS endpoint: GET /ws/{id} — id участника зашит в путь.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	participantID := strings.TrimSpace(chi.URLParam(r, "id"))
	if participantID == "" {
		http.Error(w, "missing participant id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "participant", participantID, "err", err)
		return
	}

	c := newWsConn(conn, participantID)
	// последняя регистрация выигрывает; подписки начинаются с нуля
	s.registry.Register(participantID, c)
	slog.Info("ws connected", "participant", participantID)

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// вытесненное соединение не снимает запись преемника
	s.registry.Unregister(participantID, c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "participant", participantID, "err", err)
	}
	slog.Info("ws disconnected", "participant", participantID)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame ControlFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("ws malformed control frame", "participant", c.participantID, "err", err)
			continue
		}
		if frame.Room == "" {
			continue
		}

		switch frame.Cmd {
		case CmdJoin:
			if err := s.relay.OnJoin(ctx, c.participantID, frame.Room); err != nil {
				slog.Error("ws join failed",
					"participant", c.participantID, "room", frame.Room, "err", err)
			}
		case CmdLeave:
			s.relay.OnLeave(c.participantID, frame.Room)
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}
