// Package auth issues and checks the match tokens handed to peers at match
// start. A token names one slot in one room and lets that peer file desync
// reports for the room.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid match token")

// MatchClaims identifies a peer within a room.
type MatchClaims struct {
	Room string
	Slot int
}

// IssueMatchToken signs an HS256 token for room and slot valid for ttl.
func IssueMatchToken(secret, room string, slot int, ttl time.Duration) (string, error) {
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"room": room,
		"slot": slot,
		"iat":  time.Now().Unix(),
		"exp":  exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign match token: %w", err)
	}
	return signed, nil
}

// ParseMatchToken verifies the signature and expiry and returns the claims.
func ParseMatchToken(secret, token string) (MatchClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return MatchClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return MatchClaims{}, ErrInvalidToken
	}
	room, _ := claims["room"].(string)
	slot, ok := claims["slot"].(float64)
	if room == "" || !ok {
		return MatchClaims{}, fmt.Errorf("%w: missing room or slot", ErrInvalidToken)
	}
	return MatchClaims{Room: room, Slot: int(slot)}, nil
}
