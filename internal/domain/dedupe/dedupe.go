// Package dedupe tracks idempotency keys of submitted compile requests.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 10_000

// Deduper records request keys so a retried submission compiles once.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not, atomically.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so the request can be submitted again. Used when
	// a recorded request could not be queued.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper keeps keys in a map plus, when bounded, a ring of
// insertion order used for eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	maxSize int
	seen    map[string]int // key -> ring slot, -1 when unbounded
	ring    []string
	next    int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.ring == nil {
		d.seen[key] = -1
		return false
	}
	// the slot at next holds the oldest key once the ring has wrapped
	if old := d.ring[d.next]; old != "" {
		if slot, ok := d.seen[old]; ok && slot == d.next {
			delete(d.seen, old)
		}
	}
	d.ring[d.next] = key
	d.seen[key] = d.next
	d.next = (d.next + 1) % len(d.ring)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
