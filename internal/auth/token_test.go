package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestMatchTokenRoundTrip(t *testing.T) {
	tok, err := IssueMatchToken("secret", "ROOM_AB12", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseMatchToken("secret", tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Room != "ROOM_AB12" || claims.Slot != 1 {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseMatchTokenRejects(t *testing.T) {
	good, _ := IssueMatchToken("secret", "r", 0, time.Minute)
	expired, _ := IssueMatchToken("secret", "r", 0, -time.Minute)
	noRoom, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"slot": 0}).SignedString([]byte("secret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"room": "r", "slot": 0}).SignedString([]byte("secret"))

	cases := map[string]struct{ secret, token string }{
		"wrong secret": {"other", good},
		"expired":      {"secret", expired},
		"garbage":      {"secret", "not.a.token"},
		"no room":      {"secret", noRoom},
		"wrong alg":    {"secret", wrongAlg},
	}
	for name, tc := range cases {
		if _, err := ParseMatchToken(tc.secret, tc.token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}
