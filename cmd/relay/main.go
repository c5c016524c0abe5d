package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playmatatu/rollpool/internal/api"
	"github.com/playmatatu/rollpool/internal/api/handlers"
	"github.com/playmatatu/rollpool/internal/config"
	"github.com/playmatatu/rollpool/internal/database"
	"github.com/playmatatu/rollpool/internal/migrations"
	"github.com/playmatatu/rollpool/internal/redis"
	"github.com/playmatatu/rollpool/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Desync reports are optional; without a database the endpoints answer 503.
	var store handlers.DesyncStore
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart {
			log.Println("↗ Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}
		store = database.NewDesyncStore(db)
	} else {
		log.Println("[DB] DATABASE_URL not set; desync reports disabled")
	}

	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	hub := ws.NewHub(cfg, rdb)
	go hub.Run(ctx)
	hub.StartEventSubscriber(ctx)
	ws.StartIdleWorker(ctx, rdb, cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, hub, store, cfg)

	port := cfg.Port
	if port == "" {
		port = "3536"
	}

	log.Printf("Starting pool relay on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start relay: %v", err)
	}
}
