// Package dedupe remembers the outcome of each submission id so a retried score
// submission is stored once and answered with the original result.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper claims submission ids and keeps the committed result of each.
type Deduper[V any] interface {
	// Claim reserves id for the caller. It returns a ticket when id is new; the
	// holder must Commit or Release it. When id was already committed the ticket
	// is nil and prev is the committed value. A caller that finds id in flight
	// waits until the holder commits or releases, or until ctx is done.
	Claim(ctx context.Context, id string) (t *Ticket[V], prev V, err error)

	Size() int64
}

type entry[V any] struct {
	value     V
	committed bool
	done      chan struct{}
	el        *list.Element // set once committed
}

// InMemoryDeduper keeps committed ids in insertion order and evicts the oldest when full.
// In-flight ids are never evicted.
type InMemoryDeduper[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	order   *list.List // committed ids, front is oldest
	maxSize int
}

var _ Deduper[struct{}] = (*InMemoryDeduper[struct{}])(nil)

// NewInMemoryDeduper creates an in-memory deduper.
func NewInMemoryDeduper[V any](opts ...Option) *InMemoryDeduper[V] {
	cfg := settings{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &InMemoryDeduper[V]{
		entries: make(map[string]*entry[V]),
		order:   list.New(),
		maxSize: cfg.maxSize,
	}
}

func (d *InMemoryDeduper[V]) Claim(ctx context.Context, id string) (*Ticket[V], V, error) {
	var zero V
	for {
		d.mu.Lock()
		e, ok := d.entries[id]
		if !ok {
			e = &entry[V]{done: make(chan struct{})}
			d.entries[id] = e
			d.mu.Unlock()
			return &Ticket[V]{d: d, id: id, e: e}, zero, nil
		}
		if e.committed {
			v := e.value
			d.mu.Unlock()
			return nil, v, nil
		}
		done := e.done
		d.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, zero, ctx.Err()
		}
	}
}

func (d *InMemoryDeduper[V]) commit(id string, e *entry[V], v V) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.entries[id] != e || e.committed {
		return
	}
	e.value = v
	e.committed = true
	e.el = d.order.PushBack(id)
	if d.maxSize > 0 {
		for d.order.Len() > d.maxSize {
			oldest := d.order.Front()
			d.order.Remove(oldest)
			delete(d.entries, oldest.Value.(string))
		}
	}
	close(e.done)
}

func (d *InMemoryDeduper[V]) release(id string, e *entry[V]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.entries[id] != e || e.committed {
		return
	}
	delete(d.entries, id)
	close(e.done)
}

// Size counts committed and in-flight ids.
func (d *InMemoryDeduper[V]) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.entries))
}

// Ticket is ownership of one in-flight id.
type Ticket[V any] struct {
	d  *InMemoryDeduper[V]
	id string
	e  *entry[V]
}

// Commit stores v as the id's result and wakes waiting duplicates.
func (t *Ticket[V]) Commit(v V) { t.d.commit(t.id, t.e, v) }

// Release forgets the id so a failed submission can be retried. It is a no-op after Commit.
func (t *Ticket[V]) Release() { t.d.release(t.id, t.e) }
