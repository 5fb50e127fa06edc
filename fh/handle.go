package fh

import (
	"fmt"
	"os"
	"sync"
	"syscall"
)

// Handle wraps one open file with a reader/writer lock, exposing the
// small set of operations every shard needs: len, read_at, append, and
// a mutually exclusive operate.
type Handle struct {
	mu   sync.RWMutex
	file *os.File
	path string

	refs int32 // unused; the fdm package keeps lease refcounts on its own cache entries
}

// Open opens (creating if necessary) the file at path for read/write.
func Open(path string) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("fh: open %s: %w", path, err)
	}
	return &Handle{file: f, path: path}, nil
}

// Path returns the path this handle was opened from.
func (h *Handle) Path() string { return h.path }

// Len reports the current file length.
func (h *Handle) Len() (int64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	info, err := h.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("fh: stat %s: %w", h.path, err)
	}
	return info.Size(), nil
}

// ReadAt returns the n bytes starting at offset, or (nil, false, nil) if
// the requested range exceeds the file length.
func (h *Handle) ReadAt(offset int64, n int) ([]byte, bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	info, err := h.file.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("fh: stat %s: %w", h.path, err)
	}
	if offset < 0 || offset+int64(n) > info.Size() {
		return nil, false, nil
	}

	buf := make([]byte, n)
	if _, err := h.file.ReadAt(buf, offset); err != nil {
		return nil, false, fmt.Errorf("fh: read %s at %d: %w", h.path, offset, err)
	}
	return buf, true, nil
}

// Append writes data to the end of the file and returns the offset the
// write began at. Append excludes readers and other writers.
func (h *Handle) Append(data []byte) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	info, err := h.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("fh: stat %s: %w", h.path, err)
	}
	offset := info.Size()

	if _, err := h.file.WriteAt(data, offset); err != nil {
		return 0, fmt.Errorf("fh: append %s: %w", h.path, err)
	}
	return offset, nil
}

// WriteAt overwrites len(data) bytes in place starting at offset. Used for
// header updates and the index shard's fixed-size swap-in-place pass.
func (h *Handle) WriteAt(offset int64, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.file.WriteAt(data, offset); err != nil {
		return fmt.Errorf("fh: write %s at %d: %w", h.path, offset, err)
	}
	return nil
}

// Operate locks the file exclusively (in-process, plus an advisory
// cross-process flock), passes the raw *os.File to fn, and releases both
// locks on return. Use for header initialization and other operations
// that need direct Seek/Write access.
func (h *Handle) Operate(fn func(*os.File) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	unlock, err := h.flockExclusive()
	if err != nil {
		return err
	}
	defer unlock()

	if err := fn(h.file); err != nil {
		return fmt.Errorf("fh: operate %s: %w", h.path, err)
	}
	return nil
}

// Truncate resets the file to size n, used when a temp shard's buffer is
// cleared after a successful reconcile.
func (h *Handle) Truncate(n int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.file.Truncate(n); err != nil {
		return fmt.Errorf("fh: truncate %s: %w", h.path, err)
	}
	return nil
}

// Sync flushes the file to stable storage.
func (h *Handle) Sync() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.file.Sync()
}

// Close releases the underlying OS file descriptor.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file.Close()
}

func (h *Handle) flockExclusive() (func(), error) {
	fd := int(h.file.Fd())
	if err := syscall.Flock(fd, syscall.LOCK_EX); err != nil {
		return nil, fmt.Errorf("fh: flock %s: %w", h.path, err)
	}
	return func() {
		_ = syscall.Flock(fd, syscall.LOCK_UN)
	}, nil
}
