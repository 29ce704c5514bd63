package helpers

import (
	"math/rand"
	"time"
)

// RandUnix seeds from clock, tests log the seed on failure where it matters.
func RandUnix() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
