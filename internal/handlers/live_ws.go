package handlers

import (
	"net/http"

	"github.com/coder/websocket"

	"github.com/pitchrate/pitchrate/internal/events"
	"github.com/pitchrate/pitchrate/internal/middleware"
)

// LiveEventsHandler bridges the redis event channel onto a websocket so
// clients can refresh session rosters and ratings live. Requires a redis
// connection; without one the endpoint answers 503.
func (s *Server) LiveEventsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	if s.Redis == nil {
		http.Error(w, "live updates unavailable", http.StatusServiceUnavailable)
		return
	}

	channel := s.EventChannel
	if channel == "" {
		channel = events.DefaultChannel
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"events"},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		s.Logger.WithError(err).Warn("websocket accept error")
		return
	}
	defer c.Close(websocket.StatusInternalError, "closing")

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr)

	ctx := r.Context()
	sub := s.Redis.Subscribe(ctx, channel)
	defer sub.Close()

	// Drain client frames so pings are answered and a peer close ends ctx.
	readCtx := c.CloseRead(ctx)

	for {
		select {
		case <-readCtx.Done():
			middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, readCtx.Err())
			c.Close(websocket.StatusNormalClosure, "")
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, nil)
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.Write(readCtx, websocket.MessageText, []byte(msg.Payload)); err != nil {
				middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, err)
				return
			}
		}
	}
}
