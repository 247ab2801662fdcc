package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the redis pub/sub channel for entity-change events.
const DefaultChannel = "pitchrate_events"

// Redis publishes events to a redis pub/sub channel. The websocket bridge in
// internal/handlers subscribes to the same channel to fan changes out to
// connected clients.
type Redis struct {
	Client  *redis.Client
	Channel string
	Logger  *logrus.Logger
}

// NewRedis wraps an existing client. Pass an empty channel for the default.
func NewRedis(client *redis.Client, channel string, logger *logrus.Logger) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{Client: client, Channel: channel, Logger: logger}
}

// Publish serializes the event and sends it with a short timeout. Failures
// are logged and swallowed; a lost notification never fails the mutation
// that produced it.
func (r *Redis) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.Logger.WithError(err).Warn("events: failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.Client.Publish(ctx, r.Channel, data).Err(); err != nil {
		r.Logger.WithFields(logrus.Fields{
			"entity": ev.Entity,
			"id":     ev.ID,
		}).WithError(err).Warn("events: publish failed")
	}
}
