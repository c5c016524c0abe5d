package handlers

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeChecksum accepts a checksum as up to 16 hex digits, with or
// without a 0x prefix, and returns it as 16 lowercase digits.
func normalizeChecksum(s string) (string, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	if s == "" || len(s) > 16 {
		return "", fmt.Errorf("checksum must be 1 to 16 hex digits")
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return "", fmt.Errorf("checksum is not hex")
	}
	return fmt.Sprintf("%016x", v), nil
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
