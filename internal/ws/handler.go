package ws

import (
	"crypto/rand"
	"log"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/rollpool/internal/config"
	"github.com/playmatatu/rollpool/internal/protocol"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1024
	sendBuffer     = 256
)

// outbound is one queued websocket message.
type outbound struct {
	kind int
	data []byte
}

// Client is one connected peer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	size int
	rack string

	// Set by the hub under its lock.
	room   *Room
	slot   int
	closed bool

	send chan outbound
}

// Room groups the peers of one match. Slots are join order.
type Room struct {
	ID      string
	Size    int
	Rack    string
	clients []*Client
	started bool
	created time.Time
}

// roomKey groups waiting rooms: peers only share a room when they ask for
// the same size and table.
type roomKey struct {
	size int
	rack string
}

type closeRequest struct {
	room   string
	reason string
}

// Hub owns the rooms. Membership changes run on the hub goroutine;
// packet forwarding reads rooms under the read lock.
type Hub struct {
	cfg *config.Config
	rdb *redis.Client

	rooms   map[string]*Room
	waiting map[roomKey][]*Room

	register   chan *Client
	unregister chan *Client
	closeRoom  chan closeRequest
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub. rdb may be nil.
func NewHub(cfg *config.Config, rdb *redis.Client) *Hub {
	return &Hub{
		cfg:        cfg,
		rdb:        rdb,
		rooms:      make(map[string]*Room),
		waiting:    make(map[roomKey][]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		closeRoom:  make(chan closeRequest),
		done:       make(chan struct{}),
	}
}

// CloseRoom asks the hub to close a room that has not started yet.
func (h *Hub) CloseRoom(roomID, reason string) {
	select {
	case h.closeRoom <- closeRequest{room: roomID, reason: reason}:
	case <-h.done:
	}
}

// Stats returns the number of rooms and connected peers.
func (h *Hub) Stats() (rooms, peers int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.rooms {
		peers += len(r.clients)
	}
	return len(h.rooms), peers
}

// forward relays a binary packet to every other peer in the sender's room.
// Packets sent before the match starts are dropped. A peer whose send
// buffer is full is disconnected: a lost input cannot be recovered, and the
// rest of the room is told through peer_left once its read pump exits.
func (h *Hub) forward(from *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := from.room
	if room == nil || !room.started {
		return
	}
	for _, c := range room.clients {
		if c == from || c.closed {
			continue
		}
		select {
		case c.send <- outbound{kind: websocket.BinaryMessage, data: data}:
		default:
			log.Printf("[WS] send buffer full for slot %d in room %s, disconnecting", c.slot, room.ID)
			c.conn.Close()
		}
	}
}

// sendControl queues a control message. The caller holds the hub lock.
func (c *Client) sendControl(msg protocol.Control) {
	if c.closed {
		return
	}
	data, err := msg.Encode()
	if err != nil {
		log.Printf("[WS] Error marshaling %s: %v", msg.Type, err)
		return
	}
	select {
	case c.send <- outbound{kind: websocket.TextMessage, data: data}:
	default:
		log.Printf("[WS] dropped %s for client %s (buffer full)", msg.Type, c.id)
	}
}

// shutdown closes the send channel once; writePump then sends a close
// frame. The caller holds the hub lock.
func (c *Client) shutdown() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump writes queued messages and pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				log.Printf("[WS] write error for client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// generateID generates a random alphanumeric ID
func generateID(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[n.Int64()]
	}
	return string(result)
}
