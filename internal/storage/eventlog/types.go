// Package eventlog provides an append-only, sequence-keyed persistent log
// of auction notifications. Every created/executed/cancelled event the
// engine emits can be recorded here and replayed later, which is how the
// two terminal outcomes of an auction stay distinguishable across
// restarts. Entries are keyed by a monotonically increasing sequence
// number; backends are pluggable and values are optionally compressed.
package eventlog

import (
	"fmt"
	"time"
)

// Entry is one recorded notification.
type Entry struct {
	Seq        uint64    // Assigned by the log at append time
	Kind       string    // Event kind discriminator
	AuctionID  uint64    // Auction the event belongs to
	RecordedAt time.Time // When the entry was appended
	Payload    []byte    // JSON-encoded event body
}

// Size returns the size of the entry's payload in bytes.
func (e *Entry) Size() int {
	return len(e.Payload)
}

// Status represents the status of a backend operation.
type Status int

const (
	// OK indicates the operation was successful
	OK Status = iota
	// NotFound indicates the requested entry was not found
	NotFound
	// DataCorrupt indicates the stored data is corrupted
	DataCorrupt
	// BackendError indicates an error in the storage backend
	BackendError
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case DataCorrupt:
		return "DataCorrupt"
	case BackendError:
		return "BackendError"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Backend defines the interface for storage backends. Backends store
// opaque encoded values keyed by sequence number; encoding, compression
// and caching live in the Log.
type Backend interface {
	// Name returns a human-readable name for this backend.
	Name() string

	// Open opens the backend for use.
	Open(createIfMissing bool) error

	// Close closes the backend and releases resources.
	Close() error

	// IsOpen returns true if the backend is currently open.
	IsOpen() bool

	// Put stores the encoded value under seq.
	Put(seq uint64, value []byte) Status

	// Get retrieves the encoded value stored under seq.
	Get(seq uint64) ([]byte, Status)

	// Scan iterates entries with from <= seq < to in sequence order.
	Scan(from, to uint64, fn func(seq uint64, value []byte) error) error

	// Last reports the highest sequence stored, if any.
	Last() (uint64, bool, Status)

	// Sync forces pending writes to be flushed.
	Sync() Status
}
