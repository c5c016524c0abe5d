package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/playmatatu/rollpool/internal/config"
	"github.com/playmatatu/rollpool/internal/models"
	"github.com/redis/go-redis/v9"
)

// StartIdleWorker polls the room wait set and publishes room_expired for
// rooms whose wait deadline passed. Removal from the set is the claim, so
// several relays can share one Redis.
func StartIdleWorker(ctx context.Context, rdb *redis.Client, cfg *config.Config) {
	if rdb == nil || cfg == nil {
		log.Println("[IDLE] Redis or config missing; idle worker not started")
		return
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(time.Duration(max(cfg.IdleWorkerPollInterval, 1)) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				expireRooms(ctx, rdb, time.Now())
			}
		}
	}()
}

func expireRooms(ctx context.Context, rdb *redis.Client, now time.Time) {
	members, err := rdb.ZRangeByScore(ctx, roomWaitKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch expired rooms: %v", err)
		return
	}

	for _, room := range members {
		if removed, _ := rdb.ZRem(ctx, roomWaitKey, room).Result(); removed == 0 {
			continue
		}
		b, _ := json.Marshal(models.RoomEvent{Type: "room_expired", Room: room, Reason: "wait timeout"})
		if n, err := rdb.Publish(ctx, eventsChannel, b).Result(); err != nil {
			log.Printf("[IDLE] publish expiry failed: room=%s err=%v", room, err)
		} else {
			log.Printf("[IDLE] published expiry: room=%s subscribers=%d", room, n)
		}
	}
}
