package api

import (
	"net/http"
	"time"

	"stagelights/internal/logger"
)

const (
	wsBuffer       = 8
	wsWriteTimeout = 5 * time.Second
)

// handleWS streams every published frame to the client as a UniverseView.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	log := s.log.With(logger.Fields{"remote": r.RemoteAddr})
	log.Debug("websocket client connected")

	hub := s.engine.Hub()
	sub := hub.Subscribe(wsBuffer)
	defer hub.Unsubscribe(sub)

	// the client never sends anything we use, reading only notices it leaving
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			log.Debug("websocket client disconnected")
			return
		case f, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(universeView(f.Universe, f.Report.Frame, &f.Values)); err != nil {
				log.Debugf("websocket write: %v", err)
				return
			}
		}
	}
}
