package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// handleWebSocket streams engine events to the client as JSON text frames
// until either side closes. Client messages are read and discarded.
// GET /api/v1/ws
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Debug("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	sub := s.engine.Subscribe(s.config.SubscriberBuffer)
	defer sub.Close()
	s.logger.Info("observer connected", "remote", r.RemoteAddr, "observers", s.engine.Subscribers())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			s.logger.Info("observer disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case ev := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("websocket write", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
