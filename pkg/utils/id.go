package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// Counter for sequential IDs
	idCounter uint64
)

// GenerateBatchID generates an identifier for one sweep or collection batch,
// e.g. "sweep-20240101-120000-1a2b3c4d".
func GenerateBatchID(kind string) string {
	timestamp := time.Now().Format("20060102-150405")
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		count := atomic.AddUint64(&idCounter, 1)
		return fmt.Sprintf("%s-%s-%x", kind, timestamp, count)
	}
	return fmt.Sprintf("%s-%s-%s", kind, timestamp, hex.EncodeToString(b))
}
