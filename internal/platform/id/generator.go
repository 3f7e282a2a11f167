package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// Generator creates opaque IDs for records the service owns (picks, adjustments, job runs).
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct {
	prefix string
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// NewPrefixedGenerator returns IDs shaped like "<prefix>_<32 hex chars>".
func NewPrefixedGenerator(prefix string) *RandomGenerator {
	return &RandomGenerator{prefix: strings.Trim(strings.TrimSpace(prefix), "_")}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	raw := hex.EncodeToString(buf)
	if g == nil || g.prefix == "" {
		return raw, nil
	}
	return g.prefix + "_" + raw, nil
}
