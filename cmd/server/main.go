// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchrate/pitchrate/internal/auth"
	"github.com/pitchrate/pitchrate/internal/database"
	"github.com/pitchrate/pitchrate/internal/events"
	"github.com/pitchrate/pitchrate/internal/handlers"
	"github.com/pitchrate/pitchrate/internal/middleware"
	"github.com/pitchrate/pitchrate/internal/rating"
	"github.com/pitchrate/pitchrate/internal/session"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := auth.Init(); err != nil {
		log.Fatalf("auth init: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, database.DSNFromEnv())
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var relay events.Relay = events.Nop{}
	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, live updates disabled")
			redisClient = nil
		} else {
			relay = events.NewRedis(redisClient, os.Getenv("REDIS_EVENT_CHANNEL"), logger)
		}
		cancel()
	}

	sessions := session.NewService(db, relay)
	stats := rating.NewAggregator(db)
	ratings := rating.NewEngine(db, stats, relay)

	srv := handlers.NewServer(db, sessions, ratings, logger)
	srv.Redis = redisClient
	srv.EventChannel = os.Getenv("REDIS_EVENT_CHANNEL")

	handler := middleware.LogMiddleware(logger)(srv.Routes())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
