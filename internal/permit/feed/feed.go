// Package feed keeps the advisory messages produced while an application is
// being filled in.
package feed

import (
	"sync"
	"time"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindSuccess Kind = "success"
)

type Recommendation struct {
	Type      Kind      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultCapacity bounds a feed when no capacity is configured.
const DefaultCapacity = 256

// Feed is a fixed-capacity ring of recommendations. When full, the oldest entry
// is overwritten.
type Feed struct {
	mu    sync.RWMutex
	buf   []Recommendation
	start int
	count int
	total int
	now   func() time.Time
}

func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		buf: make([]Recommendation, capacity),
		now: time.Now,
	}
}

func (f *Feed) Append(r Recommendation) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = f.now().UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := (f.start + f.count) % len(f.buf)
	f.buf[idx] = r
	if f.count < len(f.buf) {
		f.count++
	} else {
		f.start = (f.start + 1) % len(f.buf)
	}
	f.total++
}

// Latest returns up to k of the most recent entries, oldest first.
func (f *Feed) Latest(k int) []Recommendation {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if k > f.count {
		k = f.count
	}
	if k <= 0 {
		return []Recommendation{}
	}

	out := make([]Recommendation, k)
	first := f.count - k
	for i := 0; i < k; i++ {
		out[i] = f.buf[(f.start+first+i)%len(f.buf)]
	}
	return out
}

// All returns every retained entry, oldest first.
func (f *Feed) All() []Recommendation {
	return f.Latest(f.Len())
}

// Len is the number of retained entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Total counts every append, including entries evicted since.
func (f *Feed) Total() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.total
}

func (f *Feed) Capacity() int {
	return len(f.buf)
}
