package util

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// SlotKey returns a deterministic key for one cache slot: prefix plus a short
// hash over the trimmed, non-empty parts.
func SlotKey(prefix string, parts ...string) string {
	s := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			s = append(s, p)
		}
	}
	if len(s) == 0 {
		return prefix
	}
	joined := strings.Join(s, "\x00")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%s:%x", prefix, sum)[:len(prefix)+1+16] // prefix + ":" + first 16 hex chars
}
