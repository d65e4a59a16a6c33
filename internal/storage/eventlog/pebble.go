package eventlog

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
)

// PebbleBackend implements a persistent Backend on PebbleDB. Keys are
// big-endian sequence numbers so iteration order is append order.
type PebbleBackend struct {
	db     *pebble.DB
	config *Config

	open int64 // atomic open state

	stats struct {
		reads  int64
		writes int64
	}
}

// NewPebbleBackend creates a new PebbleDB backend.
func NewPebbleBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return &PebbleBackend{config: config}, nil
}

// Name returns the name of this backend.
func (p *PebbleBackend) Name() string {
	return fmt.Sprintf("pebble(%s)", p.config.Path)
}

// Open opens the backend for use.
func (p *PebbleBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&p.open, 0, 1) {
		return fmt.Errorf("backend already open")
	}

	if createIfMissing {
		if err := os.MkdirAll(p.config.Path, 0755); err != nil {
			atomic.StoreInt64(&p.open, 0)
			return fmt.Errorf("failed to create directory %s: %w", p.config.Path, err)
		}
	}

	db, err := pebble.Open(p.config.Path, p.buildOptions())
	if err != nil {
		atomic.StoreInt64(&p.open, 0)
		return fmt.Errorf("failed to open PebbleDB at %s: %w", p.config.Path, err)
	}

	p.db = db
	return nil
}

// buildOptions creates PebbleDB options for an append-mostly workload:
// sequential writes, point lookups, range scans for replay.
func (p *PebbleBackend) buildOptions() *pebble.Options {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(64 << 20),
		MaxOpenFiles: 1000,
		MemTableSize: 16 << 20,
		Levels:       make([]pebble.LevelOptions, 7),
		DisableWAL:   false,
	}

	for i := range opts.Levels {
		opts.Levels[i] = pebble.LevelOptions{
			BlockSize:      16 << 10,
			FilterPolicy:   bloom.FilterPolicy(10),
			FilterType:     pebble.TableFilter,
			TargetFileSize: int64(4<<20) << uint(i),
			// App-level compression handles values.
			Compression: pebble.NoCompression,
		}
		if opts.Levels[i].TargetFileSize > 128<<20 {
			opts.Levels[i].TargetFileSize = 128 << 20
		}
	}

	return opts
}

// Close closes the backend and releases resources.
func (p *PebbleBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&p.open, 1, 0) {
		return nil
	}

	var err error
	if p.db != nil {
		if flushErr := p.db.Flush(); flushErr != nil {
			err = flushErr
		}
		if closeErr := p.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		p.db = nil
	}
	return err
}

// IsOpen returns true if the backend is currently open.
func (p *PebbleBackend) IsOpen() bool {
	return atomic.LoadInt64(&p.open) != 0
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

// Put stores the encoded value under seq.
func (p *PebbleBackend) Put(seq uint64, value []byte) Status {
	if !p.IsOpen() {
		return BackendError
	}

	// NoSync: the WAL provides durability.
	if err := p.db.Set(seqKey(seq), value, pebble.NoSync); err != nil {
		return BackendError
	}

	atomic.AddInt64(&p.stats.writes, 1)
	return OK
}

// Get retrieves the encoded value stored under seq.
func (p *PebbleBackend) Get(seq uint64) ([]byte, Status) {
	if !p.IsOpen() {
		return nil, BackendError
	}

	value, closer, err := p.db.Get(seqKey(seq))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, NotFound
		}
		return nil, BackendError
	}
	defer closer.Close()

	result := make([]byte, len(value))
	copy(result, value)

	atomic.AddInt64(&p.stats.reads, 1)
	return result, OK
}

// Scan iterates entries with from <= seq < to in sequence order.
func (p *PebbleBackend) Scan(from, to uint64, fn func(seq uint64, value []byte) error) error {
	if !p.IsOpen() {
		return ErrBackendClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: seqKey(from),
		UpperBound: seqKey(to),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()
		if len(key) != 8 {
			continue
		}
		seq := binary.BigEndian.Uint64(key)

		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())

		if err := fn(seq, value); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Last reports the highest sequence stored, if any.
func (p *PebbleBackend) Last() (uint64, bool, Status) {
	if !p.IsOpen() {
		return 0, false, BackendError
	}

	iter, err := p.db.NewIter(nil)
	if err != nil {
		return 0, false, BackendError
	}
	defer iter.Close()

	if !iter.Last() || len(iter.Key()) != 8 {
		return 0, false, OK
	}
	return binary.BigEndian.Uint64(iter.Key()), true, OK
}

// Sync forces pending writes to be flushed.
func (p *PebbleBackend) Sync() Status {
	if !p.IsOpen() {
		return BackendError
	}
	if err := p.db.Flush(); err != nil {
		return BackendError
	}
	return OK
}

func init() {
	RegisterBackend("pebble", NewPebbleBackend)
}
