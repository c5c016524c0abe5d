package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/playmatatu/rollpool/internal/config"
	"github.com/playmatatu/rollpool/internal/database"
)

// Prints the desync reports stored for a room: desyncs <room>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <room>", os.Args[0])
	}
	room := os.Args[1]

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reports, err := database.NewDesyncStore(db).ListByRoom(ctx, room)
	if err != nil {
		log.Fatalf("Failed to list desync reports: %v", err)
	}
	if len(reports) == 0 {
		log.Printf("No desync reports for room %s", room)
		return
	}

	log.Printf("%d desync report(s) for room %s:", len(reports), room)
	for _, r := range reports {
		log.Printf("  #%d slot=%d frame=%d local=%s remote=%s at %s",
			r.ID, r.Slot, r.Frame, r.LocalChecksum, r.RemoteChecksum, r.CreatedAt.Format(time.RFC3339))
	}
}
