package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateID returns a prefixed random identifier such as "job_1a2b3c4d5e6f".
func GenerateID(prefix string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	return prefix + "_" + hex.EncodeToString(b)
}
