package peer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/playmatatu/rollpool/internal/game"
	"github.com/playmatatu/rollpool/internal/protocol"
	"github.com/playmatatu/rollpool/internal/rack"
	"github.com/playmatatu/rollpool/internal/rollback"
)

var (
	ErrRoomClosed   = errors.New("room closed by relay")
	ErrPeerLeft     = errors.New("other peer left")
	ErrDisconnected = errors.New("relay connection lost")
	ErrPlayerCount  = errors.New("room size does not match the simulation")
	ErrRackMismatch = errors.New("relay matched a different table")
)

// Options configures a peer run.
type Options struct {
	RelayURL      string
	RoomSize      int
	TickRate      int
	InputDelay    int
	MaxPrediction int
	CheckDistance int
	Rack          rack.Setup
	Controller    Controller
	// MaxFrames stops the run after that many frames; 0 runs until ctx ends.
	MaxFrames int
	// HTTPClient is used for desync reports; http.DefaultClient if nil.
	HTTPClient *http.Client
}

type incoming struct {
	kind websocket.MessageType
	data []byte
}

// Run joins a room on the relay and plays until ctx is done, MaxFrames is
// reached or the match ends.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	digest := opts.Rack.Digest()
	target := poolURL(opts.RelayURL, opts.RoomSize, digest)
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(1024)
	log.Printf("[PEER] connected to %s", target)

	match, err := waitForMatch(ctx, conn)
	if err != nil {
		return err
	}
	log.Printf("[PEER] match %s started: slot %d of %d", match.Room, match.Slot, match.Players)
	if match.Players != game.NumPlayers {
		return fmt.Errorf("%w: %d players", ErrPlayerCount, match.Players)
	}
	if match.Rack != digest {
		return fmt.Errorf("%w: got %q, want %q", ErrRackMismatch, match.Rack, digest)
	}

	cfg := rollback.Config{
		NumPlayers:    match.Players,
		LocalPlayer:   match.Slot,
		InputDelay:    opts.InputDelay,
		MaxPrediction: opts.MaxPrediction,
		CheckDistance: opts.CheckDistance,
	}
	session, err := rollback.NewSession(cfg, opts.Rack.Board, opts.Rack.Balls)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	ctrl := opts.Controller
	if ctrl == nil {
		ctrl = &ScriptedController{ThinkFrames: 30}
	}
	driver := NewDriver(session, ctrl)
	reporter := newReporter(opts, match)

	msgs := readLoop(ctx, conn)
	ticker := time.NewTicker(time.Second / time.Duration(max(opts.TickRate, 1)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return ctx.Err()

		case msg, ok := <-msgs:
			if !ok {
				return ErrDisconnected
			}
			if msg.kind == websocket.MessageText {
				if err := handleControl(msg.data); err != nil {
					return err
				}
				continue
			}
			if err := driver.HandlePacket(msg.data); err != nil {
				handleError(ctx, reporter, err)
			}

		case <-ticker.C:
			packets, err := driver.Tick()
			for _, p := range packets {
				data, merr := p.MarshalBinary()
				if merr != nil {
					log.Printf("[PEER] encode %s packet: %v", p.Kind, merr)
					continue
				}
				wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
				werr := conn.Write(wctx, websocket.MessageBinary, data)
				wcancel()
				if werr != nil {
					return fmt.Errorf("send %s packet: %w", p.Kind, werr)
				}
			}
			if err != nil {
				handleError(ctx, reporter, err)
			}

			if opts.MaxFrames > 0 && driver.Frame() >= opts.MaxFrames {
				log.Printf("[PEER] reached frame %d, checksum %016x", driver.Frame(), session.State().Checksum())
				conn.Close(websocket.StatusNormalClosure, "done")
				return nil
			}
		}
	}
}

func handleError(ctx context.Context, r *reporter, err error) {
	var desync *rollback.DesyncError
	if errors.As(err, &desync) {
		log.Printf("[PEER] %v", desync)
		if rerr := r.report(ctx, desync); rerr != nil {
			log.Printf("[PEER] desync report failed: %v", rerr)
		}
		return
	}
	log.Printf("[PEER] %v", err)
}

func handleControl(data []byte) error {
	msg, err := protocol.DecodeControl(data)
	if err != nil {
		log.Printf("[PEER] %v", err)
		return nil
	}
	switch msg.Type {
	case protocol.TypePeerLeft:
		return fmt.Errorf("%w: slot %d", ErrPeerLeft, msg.Slot)
	case protocol.TypeRoomClosed:
		return fmt.Errorf("%w: %s", ErrRoomClosed, msg.Message)
	}
	return nil
}

// poolURL asks the relay for a room of size peers on the table digest.
func poolURL(relay string, size int, digest string) string {
	return fmt.Sprintf("%s/pool?next=%d&rack=%s", strings.TrimSuffix(relay, "/"), size, digest)
}

// waitForMatch reads control messages until the room fills.
func waitForMatch(ctx context.Context, conn *websocket.Conn) (protocol.Control, error) {
	for {
		kind, data, err := conn.Read(ctx)
		if err != nil {
			return protocol.Control{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
		if kind != websocket.MessageText {
			continue
		}
		msg, err := protocol.DecodeControl(data)
		if err != nil {
			log.Printf("[PEER] %v", err)
			continue
		}
		switch msg.Type {
		case protocol.TypeWaiting:
			log.Printf("[PEER] waiting in %s for %d players", msg.Room, msg.Players)
		case protocol.TypeMatchStart:
			return msg, nil
		case protocol.TypeRoomClosed:
			return protocol.Control{}, fmt.Errorf("%w: %s", ErrRoomClosed, msg.Message)
		}
	}
}

func readLoop(ctx context.Context, conn *websocket.Conn) <-chan incoming {
	ch := make(chan incoming, 64)
	go func() {
		defer close(ch)
		for {
			kind, data, err := conn.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) != websocket.StatusNormalClosure && ctx.Err() == nil {
					log.Printf("[PEER] read error: %v", err)
				}
				return
			}
			select {
			case ch <- incoming{kind: kind, data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// reporter posts desync reports to the relay's HTTP API.
type reporter struct {
	endpoint string
	token    string
	client   *http.Client
}

func newReporter(opts Options, match protocol.Control) *reporter {
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &reporter{endpoint: reportURL(opts.RelayURL), token: match.Token, client: client}
}

// reportURL maps ws(s)://host/... to http(s)://host/api/v1/desync.
func reportURL(relay string) string {
	u, err := url.Parse(relay)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = "/api/v1/desync"
	u.RawQuery = ""
	return u.String()
}

func (r *reporter) report(ctx context.Context, d *rollback.DesyncError) error {
	if r.endpoint == "" || r.token == "" {
		return fmt.Errorf("no report endpoint or token")
	}
	body, _ := json.Marshal(map[string]interface{}{
		"frame":           d.Frame,
		"local_checksum":  fmt.Sprintf("%016x", d.Local),
		"remote_checksum": fmt.Sprintf("%016x", d.Remote),
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("desync report: status %d", resp.StatusCode)
	}
	log.Printf("[PEER] desync at frame %d reported", d.Frame)
	return nil
}
