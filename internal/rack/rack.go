// Package rack loads table setups (board geometry and opening ball layout)
// from TOML or YAML files.
package rack

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/playmatatu/rollpool/internal/game"
	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// BallEntry is one ball in a rack file.
type BallEntry struct {
	ID    int     `toml:"id" yaml:"id"`
	Color string  `toml:"color" yaml:"color"`
	X     float32 `toml:"x" yaml:"x"`
	Y     float32 `toml:"y" yaml:"y"`
}

// File is the on-disk rack format. Board is optional; the default table is
// used when it is omitted.
type File struct {
	Name  string      `toml:"name" yaml:"name"`
	Board *game.Board `toml:"board" yaml:"board"`
	Balls []BallEntry `toml:"balls" yaml:"balls"`
}

// Setup is a validated rack ready to start a match from.
type Setup struct {
	Name  string
	Board game.Board
	Balls []game.Ball
}

// Default returns the built-in rack on the default board.
func Default() Setup {
	return Setup{Name: "default", Board: game.DefaultBoard(), Balls: game.DefaultRack()}
}

// Load reads a rack file. The format is chosen by extension: .toml, or
// .yaml/.yml. An empty path returns the default rack.
func Load(path string) (Setup, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Setup{}, fmt.Errorf("read rack: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &f); err != nil {
			return Setup{}, fmt.Errorf("parse rack %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Setup{}, fmt.Errorf("parse rack %s: %w", path, err)
		}
	default:
		return Setup{}, fmt.Errorf("rack %s: unsupported extension", path)
	}

	return f.Setup()
}

// Setup converts and validates the parsed file.
func (f File) Setup() (Setup, error) {
	s := Setup{Name: f.Name, Board: game.DefaultBoard()}
	if f.Board != nil {
		s.Board = *f.Board
	}
	if s.Name == "" {
		s.Name = "custom"
	}

	s.Balls = make([]game.Ball, 0, len(f.Balls))
	for _, e := range f.Balls {
		color, err := game.ParseBallColor(strings.ToLower(strings.TrimSpace(e.Color)))
		if err != nil {
			return Setup{}, fmt.Errorf("ball %d: %w", e.ID, err)
		}
		s.Balls = append(s.Balls, game.Ball{ID: e.ID, Color: color, Position: game.NewVec2(e.X, e.Y)})
	}

	if err := s.Board.Validate(); err != nil {
		return Setup{}, err
	}
	if err := game.ValidateBalls(s.Balls, s.Board); err != nil {
		return Setup{}, fmt.Errorf("rack %q: %w", s.Name, err)
	}
	return s, nil
}

// Digest identifies the board and opening layout. Peers only share a room
// when their digests match, since any difference desyncs from frame 0.
func (s Setup) Digest() string {
	opening := game.Snapshot{Balls: s.Balls, Turn: game.NewTurnState()}
	data, _ := opening.MarshalBinary()
	for _, f := range [3]float32{s.Board.Width, s.Board.Height, s.Board.BallDiameter} {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(f))
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
