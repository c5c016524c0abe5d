package ws

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/rollpool/internal/auth"
	"github.com/playmatatu/rollpool/internal/models"
	"github.com/playmatatu/rollpool/internal/protocol"
)

const (
	minRoomSize = 2
	maxRoomSize = 8
)

// HandleWebSocket upgrades GET /pool?next=N&rack=D and queues the peer for
// a room of N players on table D. N defaults to the configured room size;
// D is the peer's rack digest and may be empty.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	size := h.cfg.RoomSize
	if next := c.Query("next"); next != "" {
		n, err := strconv.Atoi(next)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "next must be a number"})
			return
		}
		size = n
	}
	if size < minRoomSize || size > maxRoomSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "next must be between 2 and 8"})
		return
	}

	rackDigest := c.Query("rack")
	if !validDigest(rackDigest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rack must be up to 64 hex characters"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		id:   generateID(8),
		size: size,
		rack: rackDigest,
		send: make(chan outbound, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Run processes joins, leaves and room closes until ctx is done. Without
// Redis it also expires rooms that waited too long itself.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	poll := time.Duration(max(h.cfg.IdleWorkerPollInterval, 1)) * time.Second
	sweep := time.NewTicker(poll)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[RELAY] hub stopping")
			return

		case client := <-h.register:
			h.join(ctx, client)

		case client := <-h.unregister:
			h.leave(ctx, client)

		case req := <-h.closeRoom:
			h.close(ctx, req.room, req.reason)

		case now := <-sweep.C:
			if h.rdb == nil {
				h.expireWaiting(ctx, now)
			}
		}
	}
}

func (h *Hub) join(ctx context.Context, client *Client) {
	h.mu.Lock()

	key := roomKey{size: client.size, rack: client.rack}
	var room *Room
	if open := h.waiting[key]; len(open) > 0 {
		room = open[0]
	} else {
		room = &Room{ID: "ROOM_" + generateID(8), Size: client.size, Rack: client.rack, created: time.Now()}
		h.rooms[room.ID] = room
		h.waiting[key] = append(h.waiting[key], room)
		h.trackWaiting(ctx, room)
		h.publish(ctx, models.RoomEvent{Type: "room_open", Room: room.ID, Players: room.Size})
	}

	client.room = room
	client.slot = len(room.clients)
	room.clients = append(room.clients, client)
	log.Printf("[ROOM] client %s joined %s as slot %d (%d/%d)", client.id, room.ID, client.slot, len(room.clients), room.Size)

	if len(room.clients) < room.Size {
		client.sendControl(protocol.Control{Type: protocol.TypeWaiting, Room: room.ID, Slot: client.slot, Players: room.Size})
		h.mu.Unlock()
		return
	}

	room.started = true
	h.removeWaiting(room)
	ttl := time.Duration(h.cfg.TokenTTLMinutes) * time.Minute
	for _, c := range room.clients {
		token, err := auth.IssueMatchToken(h.cfg.JWTSecret, room.ID, c.slot, ttl)
		if err != nil {
			log.Printf("[ROOM] token for slot %d in %s: %v", c.slot, room.ID, err)
		}
		c.sendControl(protocol.Control{
			Type:    protocol.TypeMatchStart,
			Room:    room.ID,
			Slot:    c.slot,
			Players: room.Size,
			Token:   token,
			Rack:    room.Rack,
		})
	}
	h.mu.Unlock()

	h.untrackWaiting(ctx, room)
	h.publish(ctx, models.RoomEvent{Type: "match_start", Room: room.ID, Players: room.Size})
	log.Printf("[ROOM] %s started with %d peers", room.ID, room.Size)
}

func (h *Hub) leave(ctx context.Context, client *Client) {
	h.mu.Lock()
	room := client.room
	client.shutdown()
	if room == nil {
		h.mu.Unlock()
		return
	}
	client.room = nil

	kept := room.clients[:0]
	for _, c := range room.clients {
		if c != client {
			kept = append(kept, c)
		}
	}
	room.clients = kept
	log.Printf("[ROOM] client %s left %s (slot %d)", client.id, room.ID, client.slot)

	event := models.RoomEvent{Type: "peer_left", Room: room.ID, Slot: client.slot}
	if room.started {
		for _, c := range room.clients {
			c.sendControl(protocol.Control{Type: protocol.TypePeerLeft, Room: room.ID, Slot: client.slot})
		}
	} else {
		// Waiting peers have not been told their slots yet.
		for i, c := range room.clients {
			c.slot = i
		}
	}

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, room.ID)
		h.removeWaiting(room)
	}
	h.mu.Unlock()

	h.publish(ctx, event)
	if empty {
		h.untrackWaiting(ctx, room)
		h.publish(ctx, models.RoomEvent{Type: "room_closed", Room: room.ID, Reason: "empty"})
	}
}

// close shuts a waiting room and disconnects its peers. Started rooms are
// left alone.
func (h *Hub) close(ctx context.Context, roomID, reason string) {
	h.mu.Lock()
	room, ok := h.rooms[roomID]
	if !ok || room.started {
		h.mu.Unlock()
		return
	}
	for _, c := range room.clients {
		c.sendControl(protocol.Control{Type: protocol.TypeRoomClosed, Room: room.ID, Message: reason})
		c.room = nil
		c.shutdown()
	}
	room.clients = nil
	delete(h.rooms, room.ID)
	h.removeWaiting(room)
	h.mu.Unlock()

	log.Printf("[ROOM] closed %s: %s", roomID, reason)
	h.untrackWaiting(ctx, room)
	h.publish(ctx, models.RoomEvent{Type: "room_closed", Room: roomID, Reason: reason})
}

func (h *Hub) expireWaiting(ctx context.Context, now time.Time) {
	wait := time.Duration(h.cfg.RoomWaitSeconds) * time.Second
	var expired []string
	h.mu.RLock()
	for _, open := range h.waiting {
		for _, r := range open {
			if now.Sub(r.created) >= wait {
				expired = append(expired, r.ID)
			}
		}
	}
	h.mu.RUnlock()

	for _, id := range expired {
		h.close(ctx, id, "wait timeout")
	}
}

func validDigest(d string) bool {
	if len(d) > 64 {
		return false
	}
	for _, r := range d {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// removeWaiting drops room from the open list. The caller holds the lock.
func (h *Hub) removeWaiting(room *Room) {
	key := roomKey{size: room.Size, rack: room.Rack}
	open := h.waiting[key]
	for i, r := range open {
		if r == room {
			h.waiting[key] = append(open[:i], open[i+1:]...)
			break
		}
	}
	if len(h.waiting[key]) == 0 {
		delete(h.waiting, key)
	}
}

// readPump forwards binary packets from the peer. Text frames from peers
// are ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] unexpected close for client %s: %v", c.id, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if kind != websocket.BinaryMessage {
			continue
		}
		if _, _, err := protocol.Header(message); err != nil {
			log.Printf("[WS] dropping packet from client %s: %v", c.id, err)
			continue
		}
		c.hub.forward(c, message)
	}
}
