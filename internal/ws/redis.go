package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/playmatatu/rollpool/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	eventsChannel = "relay_events"
	roomWaitKey   = "room_wait"
)

// publish sends a room event on the relay events channel. No-op without Redis.
func (h *Hub) publish(ctx context.Context, ev models.RoomEvent) {
	if h.rdb == nil {
		return
	}
	b, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[WS] invalid event %s: %v", ev.Type, err)
		return
	}
	if err := h.rdb.Publish(ctx, eventsChannel, b).Err(); err != nil {
		log.Printf("[WS] publish %s for %s failed: %v", ev.Type, ev.Room, err)
	}
}

// trackWaiting adds room to the wait set, scored by its expiry time.
func (h *Hub) trackWaiting(ctx context.Context, room *Room) {
	if h.rdb == nil {
		return
	}
	expireAt := room.created.Add(time.Duration(h.cfg.RoomWaitSeconds) * time.Second).Unix()
	if err := h.rdb.ZAdd(ctx, roomWaitKey, redis.Z{Score: float64(expireAt), Member: room.ID}).Err(); err != nil {
		log.Printf("[WS] ZADD %s %s failed: %v", roomWaitKey, room.ID, err)
	}
}

func (h *Hub) untrackWaiting(ctx context.Context, room *Room) {
	if h.rdb == nil {
		return
	}
	if err := h.rdb.ZRem(ctx, roomWaitKey, room.ID).Err(); err != nil {
		log.Printf("[WS] ZREM %s %s failed: %v", roomWaitKey, room.ID, err)
	}
}

// StartEventSubscriber subscribes to the relay events channel and closes
// rooms the idle worker expired.
func (h *Hub) StartEventSubscriber(ctx context.Context) {
	if h.rdb == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := h.rdb.Subscribe(ctx, eventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", eventsChannel)
		for msg := range ch {
			var ev models.RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("[WS] invalid event payload: %v", err)
				continue
			}
			h.handleEvent(ev)
		}
	}()
}

func (h *Hub) handleEvent(ev models.RoomEvent) {
	switch ev.Type {
	case "room_expired":
		log.Printf("[WS] room %s expired; closing", ev.Room)
		h.CloseRoom(ev.Room, "wait timeout")
	default:
		log.Printf("[WS] event received: type=%s room=%s", ev.Type, ev.Room)
	}
}
