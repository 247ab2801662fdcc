package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// LogMiddleware logs each request's method, path, duration and remote
// address through logrus.
func LogMiddleware(logger *logrus.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Info("HTTP Request")
		})
	}
}

// LogWebSocketConnect records a websocket client attach on the live-updates
// endpoint.
func LogWebSocketConnect(logger *logrus.Logger, remoteAddr string) {
	logger.WithField("remote", remoteAddr).Info("WebSocket connected")
}

// LogWebSocketDisconnect records a websocket client detach.
func LogWebSocketDisconnect(logger *logrus.Logger, remoteAddr string, err error) {
	fields := logrus.Fields{"remote": remoteAddr}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
