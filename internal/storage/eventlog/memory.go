package eventlog

import (
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryBackend implements an in-memory Backend for testing and for
// running without persistence.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[uint64][]byte

	open int64 // atomic flag for open state

	stats struct {
		reads  int64
		writes int64
	}
}

// NewMemoryBackend creates a new in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[uint64][]byte),
	}
}

// NewMemoryBackendFromConfig creates a new in-memory backend from config.
// The config is ignored for memory backends but required for the
// BackendFactory signature.
func NewMemoryBackendFromConfig(config *Config) (Backend, error) {
	return NewMemoryBackend(), nil
}

// Name returns the name of this backend.
func (m *MemoryBackend) Name() string {
	return "memory"
}

// Open opens the backend for use.
func (m *MemoryBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&m.open, 0, 1) {
		return ErrBackendClosed
	}
	return nil
}

// Close closes the backend and clears all data.
func (m *MemoryBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&m.open, 1, 0) {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[uint64][]byte)
	return nil
}

// IsOpen returns true if the backend is currently open.
func (m *MemoryBackend) IsOpen() bool {
	return atomic.LoadInt64(&m.open) != 0
}

// Put stores the encoded value under seq.
func (m *MemoryBackend) Put(seq uint64, value []byte) Status {
	if !m.IsOpen() {
		return BackendError
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	m.data[seq] = stored
	m.mu.Unlock()

	atomic.AddInt64(&m.stats.writes, 1)
	return OK
}

// Get retrieves the encoded value stored under seq.
func (m *MemoryBackend) Get(seq uint64) ([]byte, Status) {
	if !m.IsOpen() {
		return nil, BackendError
	}

	m.mu.RLock()
	value, found := m.data[seq]
	m.mu.RUnlock()

	if !found {
		return nil, NotFound
	}

	atomic.AddInt64(&m.stats.reads, 1)

	result := make([]byte, len(value))
	copy(result, value)
	return result, OK
}

// Scan iterates entries with from <= seq < to in sequence order.
func (m *MemoryBackend) Scan(from, to uint64, fn func(seq uint64, value []byte) error) error {
	if !m.IsOpen() {
		return ErrBackendClosed
	}

	m.mu.RLock()
	seqs := make([]uint64, 0, len(m.data))
	for seq := range m.data {
		if seq >= from && seq < to {
			seqs = append(seqs, seq)
		}
	}
	m.mu.RUnlock()

	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })

	for _, seq := range seqs {
		m.mu.RLock()
		value, found := m.data[seq]
		m.mu.RUnlock()
		if !found {
			continue
		}

		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)
		if err := fn(seq, valueCopy); err != nil {
			return err
		}
	}
	return nil
}

// Last reports the highest sequence stored, if any.
func (m *MemoryBackend) Last() (uint64, bool, Status) {
	if !m.IsOpen() {
		return 0, false, BackendError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var last uint64
	found := false
	for seq := range m.data {
		if !found || seq > last {
			last = seq
			found = true
		}
	}
	return last, found, OK
}

// Sync forces pending writes to be flushed (no-op for memory backend).
func (m *MemoryBackend) Sync() Status {
	if !m.IsOpen() {
		return BackendError
	}
	return OK
}

// Size returns the number of entries stored in the backend.
func (m *MemoryBackend) Size() int {
	m.mu.RLock()
	size := len(m.data)
	m.mu.RUnlock()
	return size
}

func init() {
	RegisterBackend("memory", NewMemoryBackendFromConfig)
}
