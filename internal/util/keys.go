package util

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// PartyKeySorted returns a deterministic composite key for a party of
// entities with a short hash. sortedIDs must already be sorted ascending;
// the caller owns the slice (it is not mutated).
func PartyKeySorted(prefix string, sortedIDs []string) string {
	joined := strings.Join(sortedIDs, ",")
	sum := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%s:%x", prefix, sum[:8]) // prefix + ":" + 16 hex chars
}
