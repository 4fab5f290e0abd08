// Package live keeps the current track of every competitor in memory.
//
// Archives are never mutated after they are published. Writers build a new
// archive (fresh decode or clone-and-modify) and swap the pointer, so readers on
// the redraw path run queries without taking locks.
package live

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jengzang/livetrack-backend-go/pkg/positions"
)

// ErrStale is returned when a replacement carries older data than the archive
// already published
var ErrStale = errors.New("live: data older than current archive")

// Snapshot is an immutable published archive
type Snapshot struct {
	Archive *positions.Archive
	// DataTimestamp orders replacements (ms); a lower value never overwrites a higher one
	DataTimestamp int64
	UpdatedAt     time.Time
}

type entry struct {
	current atomic.Pointer[Snapshot]
	// serialises writers of one competitor
	mu sync.Mutex
}

// Registry maps competitor IDs to their latest snapshot
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (r *Registry) entry(id string, create bool) *entry {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if ok || !create {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[id]; !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

// Get returns the current snapshot of a competitor
func (r *Registry) Get(id string) (*Snapshot, bool) {
	e := r.entry(id, false)
	if e == nil {
		return nil, false
	}
	s := e.current.Load()
	return s, s != nil
}

// Replace publishes a brand-new archive for a competitor. The archive must not
// be modified by the caller afterwards. Replacements older than the published
// data are discarded with ErrStale.
func (r *Registry) Replace(id string, a *positions.Archive, dataTimestamp int64) error {
	e := r.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	if cur := e.current.Load(); cur != nil && dataTimestamp < cur.DataTimestamp {
		return ErrStale
	}
	e.current.Store(&Snapshot{Archive: a, DataTimestamp: dataTimestamp, UpdatedAt: r.now()})
	return nil
}

// Update applies fn to a copy of the current archive (an empty one when the
// competitor is unknown) and publishes the result. The data timestamp is kept
// unless fn's copy ends later, in which case it advances to the last sample.
func (r *Registry) Update(id string, fn func(a *positions.Archive)) *Snapshot {
	e := r.entry(id, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	next := &Snapshot{Archive: positions.New(), UpdatedAt: r.now()}
	if cur := e.current.Load(); cur != nil {
		next.Archive = cur.Archive.Clone()
		next.DataTimestamp = cur.DataTimestamp
	}
	fn(next.Archive)
	if last, ok := next.Archive.Last(); ok && last.Timestamp > next.DataTimestamp {
		next.DataTimestamp = last.Timestamp
	}

	e.current.Store(next)
	return next
}

// Delete forgets a competitor
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// IDs returns the competitors that have a published archive
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for id, e := range r.entries {
		if e.current.Load() != nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of competitors with a published archive
func (r *Registry) Len() int {
	return len(r.IDs())
}
