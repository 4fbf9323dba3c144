package session

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// NumberGenerator issues application numbers.
type NumberGenerator func(now time.Time) string

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomNumber formats F + year + month + four random digits, e.g. F2025060427.
func RandomNumber(now time.Time) string {
	rngMu.Lock()
	n := rng.Intn(10000)
	rngMu.Unlock()
	return fmt.Sprintf("F%04d%02d%04d", now.Year(), int(now.Month()), n)
}
