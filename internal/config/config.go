package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Relay
	RoomWaitSeconds        int
	IdleWorkerPollInterval int

	// Security
	JWTSecret       string
	TokenTTLMinutes int

	// Peer
	RelayURL      string
	RoomSize      int
	TickRate      int
	InputDelay    int
	MaxPrediction int
	CheckDistance int
	RackFile      string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "3536"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Relay
		RoomWaitSeconds:        getEnvInt("ROOM_WAIT_SECONDS", 300),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_INTERVAL", 5),

		// Security
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 120),

		// Peer
		RelayURL:      getEnv("RELAY_URL", "ws://127.0.0.1:3536"),
		RoomSize:      getEnvInt("ROOM_SIZE", 2),
		TickRate:      getEnvInt("TICK_RATE", 60),
		InputDelay:    getEnvInt("INPUT_DELAY", 2),
		MaxPrediction: getEnvInt("MAX_PREDICTION", 8),
		CheckDistance: getEnvInt("CHECK_DISTANCE", 10),
		RackFile:      getEnv("RACK_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
