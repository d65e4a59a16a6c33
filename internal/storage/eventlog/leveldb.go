package eventlog

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBBackend implements a persistent Backend on goleveldb. It is the
// lighter-weight alternative to the pebble backend for small deployments.
type LevelDBBackend struct {
	db     *leveldb.DB
	config *Config

	open int64 // atomic open state
}

// NewLevelDBBackend creates a new LevelDB backend.
func NewLevelDBBackend(config *Config) (Backend, error) {
	if config == nil {
		config = DefaultConfig()
	}
	return &LevelDBBackend{config: config}, nil
}

// Name returns the name of this backend.
func (l *LevelDBBackend) Name() string {
	return fmt.Sprintf("leveldb(%s)", l.config.Path)
}

// Open opens the backend for use.
func (l *LevelDBBackend) Open(createIfMissing bool) error {
	if !atomic.CompareAndSwapInt64(&l.open, 0, 1) {
		return fmt.Errorf("backend already open")
	}

	db, err := leveldb.OpenFile(l.config.Path, nil)
	if err != nil {
		atomic.StoreInt64(&l.open, 0)
		return fmt.Errorf("failed to open LevelDB at %s: %w", l.config.Path, err)
	}

	l.db = db
	return nil
}

// Close closes the backend and releases resources.
func (l *LevelDBBackend) Close() error {
	if !atomic.CompareAndSwapInt64(&l.open, 1, 0) {
		return nil
	}
	if l.db != nil {
		err := l.db.Close()
		l.db = nil
		return err
	}
	return nil
}

// IsOpen returns true if the backend is currently open.
func (l *LevelDBBackend) IsOpen() bool {
	return atomic.LoadInt64(&l.open) != 0
}

// Put stores the encoded value under seq.
func (l *LevelDBBackend) Put(seq uint64, value []byte) Status {
	if !l.IsOpen() {
		return BackendError
	}
	if err := l.db.Put(seqKey(seq), value, nil); err != nil {
		return BackendError
	}
	return OK
}

// Get retrieves the encoded value stored under seq.
func (l *LevelDBBackend) Get(seq uint64) ([]byte, Status) {
	if !l.IsOpen() {
		return nil, BackendError
	}

	value, err := l.db.Get(seqKey(seq), nil)
	if err == leveldb.ErrNotFound {
		return nil, NotFound
	}
	if err != nil {
		return nil, BackendError
	}
	return value, OK
}

// Scan iterates entries with from <= seq < to in sequence order.
func (l *LevelDBBackend) Scan(from, to uint64, fn func(seq uint64, value []byte) error) error {
	if !l.IsOpen() {
		return ErrBackendClosed
	}

	iter := l.db.NewIterator(&util.Range{Start: seqKey(from), Limit: seqKey(to)}, nil)
	defer iter.Release()

	for iter.Next() {
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
func (l *LevelDBBackend) Last() (uint64, bool, Status) {
	if !l.IsOpen() {
		return 0, false, BackendError
	}

	iter := l.db.NewIterator(nil, nil)
	defer iter.Release()

	if !iter.Last() || len(iter.Key()) != 8 {
		return 0, false, OK
	}
	return binary.BigEndian.Uint64(iter.Key()), true, OK
}

// Sync forces pending writes to be flushed. goleveldb syncs through its
// write options, so this is a no-op beyond the open check.
func (l *LevelDBBackend) Sync() Status {
	if !l.IsOpen() {
		return BackendError
	}
	return OK
}

func init() {
	RegisterBackend("leveldb", NewLevelDBBackend)
}
