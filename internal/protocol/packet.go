// Package protocol defines what peers exchange through the relay: binary
// frame-stamped packets for inputs and checksums, and JSON control messages
// from the relay.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/playmatatu/rollpool/internal/game"
)

// Kind identifies a binary packet.
type Kind uint8

const (
	KindInput    Kind = 1
	KindChecksum Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindChecksum:
		return "checksum"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

const (
	HeaderSize       = 1 + 4
	InputPacketSize  = HeaderSize + 1 + game.InputRecordSize
	ChecksumPackSize = HeaderSize + 1 + 8
)

var (
	ErrShortPacket = errors.New("packet too short")
	ErrUnknownKind = errors.New("unknown packet kind")
	ErrPacketSize  = errors.New("packet size does not match kind")
)

// Packet is one binary message between peers. Input is set for KindInput,
// Checksum for KindChecksum.
type Packet struct {
	Kind     Kind
	Frame    uint32
	Slot     uint8
	Input    game.InputRecord
	Checksum uint64
}

// InputPacket builds the packet announcing slot's record for frame.
func InputPacket(slot, frame int, in game.InputRecord) Packet {
	return Packet{Kind: KindInput, Frame: uint32(frame), Slot: uint8(slot), Input: in}
}

// ChecksumPacket builds the packet announcing slot's confirmed checksum.
func ChecksumPacket(slot, frame int, sum uint64) Packet {
	return Packet{Kind: KindChecksum, Frame: uint32(frame), Slot: uint8(slot), Checksum: sum}
}

// MarshalBinary encodes kind | frame (LE) | slot | payload.
func (p Packet) MarshalBinary() ([]byte, error) {
	switch p.Kind {
	case KindInput:
		b := make([]byte, 0, InputPacketSize)
		b = appendHeader(b, p)
		return p.Input.AppendBinary(b), nil
	case KindChecksum:
		b := make([]byte, 0, ChecksumPackSize)
		b = appendHeader(b, p)
		return binary.LittleEndian.AppendUint64(b, p.Checksum), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, p.Kind)
}

func appendHeader(b []byte, p Packet) []byte {
	b = append(b, byte(p.Kind))
	b = binary.LittleEndian.AppendUint32(b, p.Frame)
	return append(b, p.Slot)
}

// UnmarshalBinary decodes a packet written by MarshalBinary.
func (p *Packet) UnmarshalBinary(b []byte) error {
	kind, frame, err := Header(b)
	if err != nil {
		return err
	}

	switch kind {
	case KindInput:
		var in game.InputRecord
		if err := in.UnmarshalBinary(b[HeaderSize+1:]); err != nil {
			return fmt.Errorf("input packet: %w", err)
		}
		*p = Packet{Kind: kind, Frame: frame, Slot: b[HeaderSize], Input: in}
	case KindChecksum:
		*p = Packet{
			Kind:     kind,
			Frame:    frame,
			Slot:     b[HeaderSize],
			Checksum: binary.LittleEndian.Uint64(b[HeaderSize+1:]),
		}
	}
	return nil
}

// Header validates the kind and total size of b and returns the kind and
// frame. The relay uses it to drop malformed packets without decoding the
// payload.
func Header(b []byte) (Kind, uint32, error) {
	if len(b) < HeaderSize {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(b))
	}
	kind := Kind(b[0])
	var want int
	switch kind {
	case KindInput:
		want = InputPacketSize
	case KindChecksum:
		want = ChecksumPackSize
	default:
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownKind, b[0])
	}
	if len(b) != want {
		return 0, 0, fmt.Errorf("%w: %s with %d bytes", ErrPacketSize, kind, len(b))
	}
	return kind, binary.LittleEndian.Uint32(b[1:HeaderSize]), nil
}
