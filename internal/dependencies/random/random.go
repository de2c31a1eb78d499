package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Duration returns a random duration in [0, max)
	Duration(max time.Duration) time.Duration
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Duration returns a random duration in [0, max), used for retry jitter
func (r *CryptoRandom) Duration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return time.Duration(result.Int64())
}
