package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/playmatatu/rollpool/internal/config"
	"github.com/playmatatu/rollpool/internal/peer"
	"github.com/playmatatu/rollpool/internal/rack"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()

	relay := flag.String("relay", cfg.RelayURL, "relay base URL")
	rackFile := flag.String("rack", cfg.RackFile, "rack file (.toml or .yaml)")
	frames := flag.Int("frames", 0, "stop after this many frames (0 = run until interrupted)")
	think := flag.Int("think", 30, "ticks to wait at READY before shooting")
	flag.Parse()

	setup, err := rack.Load(*rackFile)
	if err != nil {
		log.Fatalf("Failed to load rack: %v", err)
	}
	log.Printf("[PEER] rack %q with %d balls", setup.Name, len(setup.Balls))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = peer.Run(ctx, peer.Options{
		RelayURL:      *relay,
		RoomSize:      cfg.RoomSize,
		TickRate:      cfg.TickRate,
		InputDelay:    cfg.InputDelay,
		MaxPrediction: cfg.MaxPrediction,
		CheckDistance: cfg.CheckDistance,
		Rack:          setup,
		Controller:    &peer.ScriptedController{ThinkFrames: *think},
		MaxFrames:     *frames,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Peer stopped: %v", err)
	}
}
