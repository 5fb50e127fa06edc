package fdm

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/kivanodb/shardcore/fh"
)

// Manager is a thread-safe, bounded LRU cache of open file handles.
type Manager struct {
	mu      sync.Mutex
	maxOpen int
	byPath  map[string]*list.Element // -> *entry
	lru     *list.List               // front = most recently used
}

type entry struct {
	path    string
	handle  *fh.Handle
	refs    int32 // atomic; >0 means "do not close yet"
	closing bool  // marked for close once refs drops to zero
}

// New creates a Manager bounded at maxOpen concurrently open handles.
// maxOpen <= 0 means unbounded.
func New(maxOpen int) *Manager {
	return &Manager{
		maxOpen: maxOpen,
		byPath:  make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Lease is a checked-out reference to a cached handle. Callers must call
// Release exactly once when done.
type Lease struct {
	m  *Manager
	e  *entry
	el *list.Element
}

// Handle returns the underlying file handle for the lifetime of the lease.
func (l *Lease) Handle() *fh.Handle { return l.e.handle }

// Release returns the lease to the manager, allowing the handle to be
// evicted (and closed) once its refcount reaches zero.
func (l *Lease) Release() {
	if atomic.AddInt32(&l.e.refs, -1) == 0 {
		l.m.maybeCloseNow(l.e)
	}
}

// Get returns a leased handle for path, opening and caching a new one if
// not already present. Opening a new handle may evict the
// least-recently-used entry that is not currently leased.
func (m *Manager) Get(path string) (*Lease, error) {
	m.mu.Lock()

	if el, ok := m.byPath[path]; ok {
		m.lru.MoveToFront(el)
		e := el.Value.(*entry)
		atomic.AddInt32(&e.refs, 1)
		m.mu.Unlock()
		return &Lease{m: m, e: e, el: el}, nil
	}

	m.mu.Unlock()

	h, err := fh.Open(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Someone may have raced us to open the same path; prefer theirs
	// and close the redundant handle we just opened.
	if el, ok := m.byPath[path]; ok {
		_ = h.Close()
		m.lru.MoveToFront(el)
		e := el.Value.(*entry)
		atomic.AddInt32(&e.refs, 1)
		return &Lease{m: m, e: e, el: el}, nil
	}

	e := &entry{path: path, handle: h, refs: 1}
	el := m.lru.PushFront(e)
	m.byPath[path] = el

	m.evictLocked()

	return &Lease{m: m, e: e, el: el}, nil
}

// evictLocked must be called with m.mu held. It closes least-recently-used
// entries with refs == 0 until the cache is back within bounds, skipping
// (and leaving in place) any entry still in use.
func (m *Manager) evictLocked() {
	if m.maxOpen <= 0 {
		return
	}

	for m.lru.Len() > m.maxOpen {
		victim := m.lru.Back()
		found := false

		for el := victim; el != nil; el = el.Prev() {
			e := el.Value.(*entry)
			if atomic.LoadInt32(&e.refs) == 0 {
				m.lru.Remove(el)
				delete(m.byPath, e.path)
				_ = e.handle.Close()
				found = true
				break
			}
		}

		if !found {
			// Every cached handle is currently leased; exceed the
			// bound rather than closing a handle mid-use.
			return
		}
	}
}

// maybeCloseNow runs once a lease drops e's refcount to zero. If e is
// still cached, eviction is re-run so that an over-bound cache (one
// that earlier skipped e because it was leased) closes it now; if e is
// no longer cached, its handle is closed directly.
func (m *Manager) maybeCloseNow(e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, present := m.byPath[e.path]; present {
		// Still cached: run eviction now, which closes unused entries
		// only while the cache is over its bound.
		m.evictLocked()
		return
	}

	if atomic.LoadInt32(&e.refs) == 0 {
		_ = e.handle.Close()
	}
}

// Len returns the number of handles currently cached.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// CloseAll closes every cached handle, regardless of lease state. Use
// only when the owning store is shutting down.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for el := m.lru.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		if err := e.handle.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.byPath = make(map[string]*list.Element)
	m.lru = list.New()
	return firstErr
}
