// Package fh provides scoped acquisition of a single file handle with a
// guaranteed release on every exit path.
//
// A Handle wraps one *os.File behind a sync.RWMutex: concurrent readers
// proceed through RLock, while Operate and Append exclude both other
// writers and all readers. Operate additionally takes an advisory,
// cross-process exclusive lock (syscall.Flock on the handle's own file
// descriptor) so that two processes opening the same shard path cannot tear each
// other's header or offset table -- the same technique
// calvinalkan-agent-task's pkg/slotcache/writer_lock.go uses to enforce
// its single-writer rule.
package fh
