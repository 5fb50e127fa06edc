// Package fdm is the process-wide LRU cache of file handles: Get(path)
// returns a lease on a cached *fh.Handle, opening and caching a new one
// if needed, evicting
// the least-recently-used entry once the configured maximum is
// reached. Eviction never closes a handle that is still in use --
// in-flight leases are refcounted, and a handle whose refcount is
// nonzero is skipped by the evictor and closed only once its last
// lease is released.
//
// One mutex protects structural changes to the LRU list; atomics
// protect each entry's own refcount, so a lease release takes the
// structural lock only when it drops the refcount to zero.
package fdm
