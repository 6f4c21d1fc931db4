// Package keys generates per-worker API keys.
package keys

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// KeyBytes is the raw entropy per key; hex encoding doubles the length.
const KeyBytes = 16

// Generator mints worker API keys. Implementations must return keys that
// remain valid verbatim across redeploys of the same worker.
type Generator interface {
	NewKey() (string, error)
}

// RandomGenerator creates cryptographically random hex-encoded keys.
type RandomGenerator struct{}

// NewRandomGenerator creates a new RandomGenerator.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// NewKey returns a fresh 32-character hex key (~128 bits of entropy).
func (RandomGenerator) NewKey() (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate worker key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
