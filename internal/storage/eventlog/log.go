package eventlog

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog/compression"
)

const (
	entryHeaderSize = 1 + 8 + 8 + 2 // flags + auctionID + timestamp + kindLen

	flagCompressed = 1 << 0

	// Don't compress very small payloads.
	minCompressionSize = 128
)

// Log is the append-only event log. It assigns sequence numbers, encodes
// and optionally compresses entries, keeps a read cache in front of the
// backend, and can replay ranges in append order.
type Log struct {
	mu      sync.Mutex // serializes appends and seq assignment
	backend Backend
	comp    compression.Compressor
	config  *Config
	cache   *lru.Cache[uint64, *Entry]
	nextSeq uint64
	closed  bool

	stats struct {
		appends     int64
		reads       int64
		cacheHits   int64
		cacheMisses int64
	}
}

// Open creates the configured backend, opens it, and positions the log
// after the last stored entry.
func Open(config *Config, options ...Option) (*Log, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyOptions(options...)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	backend, err := CreateBackend(config.Backend, config)
	if err != nil {
		return nil, err
	}
	if err := backend.Open(config.CreateIfMissing); err != nil {
		return nil, err
	}

	comp, err := compression.Get(config.Compressor)
	if err != nil {
		backend.Close()
		return nil, err
	}

	cache, err := lru.New[uint64, *Entry](max(config.CacheSize, 1))
	if err != nil {
		backend.Close()
		return nil, err
	}

	l := &Log{
		backend: backend,
		comp:    comp,
		config:  config,
		cache:   cache,
	}

	last, found, status := backend.Last()
	if status != OK {
		backend.Close()
		return nil, statusErr(status)
	}
	if found {
		l.nextSeq = last + 1
	}

	return l, nil
}

// Append records a notification and returns its assigned sequence number.
func (l *Log) Append(kind string, auctionID uint64, payload []byte) (uint64, error) {
	if kind == "" {
		return 0, fmt.Errorf("%w: empty kind", ErrInvalidConfig)
	}
	if len(kind) > 1<<16-1 {
		return 0, fmt.Errorf("%w: kind too long", ErrInvalidConfig)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, ErrLogClosed
	}

	entry := &Entry{
		Seq:        l.nextSeq,
		Kind:       kind,
		AuctionID:  auctionID,
		RecordedAt: time.Now().UTC(),
		Payload:    payload,
	}

	value := l.encode(entry)
	if status := l.backend.Put(entry.Seq, value); status != OK {
		return 0, statusErr(status)
	}

	l.nextSeq++
	l.cache.Add(entry.Seq, entry)
	atomic.AddInt64(&l.stats.appends, 1)
	return entry.Seq, nil
}

// Record appends a published envelope as received from the event bus.
func (l *Log) Record(env events.Envelope) (uint64, error) {
	return l.Append(env.Kind, env.AuctionID, env.Payload)
}

// Consume drains the subscription channel into the log until the channel
// is closed. It is meant to run in its own goroutine alongside the bus.
func (l *Log) Consume(sub <-chan events.Envelope) {
	for env := range sub {
		if _, err := l.Record(env); err != nil {
			log.Printf("Failed to record %s event for auction %d: %v", env.Kind, env.AuctionID, err)
		}
	}
}

// Get retrieves the entry stored under seq.
func (l *Log) Get(seq uint64) (*Entry, error) {
	atomic.AddInt64(&l.stats.reads, 1)

	if entry, ok := l.cache.Get(seq); ok {
		atomic.AddInt64(&l.stats.cacheHits, 1)
		return entry, nil
	}
	atomic.AddInt64(&l.stats.cacheMisses, 1)

	value, status := l.backend.Get(seq)
	if status != OK {
		return nil, statusErr(status)
	}

	entry, err := l.decode(seq, value)
	if err != nil {
		return nil, err
	}

	l.cache.Add(seq, entry)
	return entry, nil
}

// Range replays the entries with from <= seq < to in append order.
func (l *Log) Range(from, to uint64, fn func(*Entry) error) error {
	return l.backend.Scan(from, to, func(seq uint64, value []byte) error {
		entry, err := l.decode(seq, value)
		if err != nil {
			return err
		}
		return fn(entry)
	})
}

// ForAuction replays every recorded entry for the given auction, oldest
// first.
func (l *Log) ForAuction(auctionID uint64, fn func(*Entry) error) error {
	return l.Range(0, l.NextSeq(), func(entry *Entry) error {
		if entry.AuctionID != auctionID {
			return nil
		}
		return fn(entry)
	})
}

// NextSeq returns the sequence the next appended entry will receive.
func (l *Log) NextSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSeq
}

// Sync forces pending writes to be flushed.
func (l *Log) Sync() error {
	return statusErr(l.backend.Sync())
}

// Close flushes and closes the underlying backend.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.backend.Sync()
	return l.backend.Close()
}

// Stats returns performance counters for the log.
func (l *Log) Stats() Statistics {
	return Statistics{
		Appends:     uint64(atomic.LoadInt64(&l.stats.appends)),
		Reads:       uint64(atomic.LoadInt64(&l.stats.reads)),
		CacheHits:   uint64(atomic.LoadInt64(&l.stats.cacheHits)),
		CacheMisses: uint64(atomic.LoadInt64(&l.stats.cacheMisses)),
		CacheSize:   uint64(l.cache.Len()),
		BackendName: l.backend.Name(),
	}
}

// Statistics holds performance metrics for the event log.
type Statistics struct {
	Appends     uint64 // Total number of appended entries
	Reads       uint64 // Total number of read operations
	CacheHits   uint64 // Number of successful cache hits
	CacheMisses uint64 // Number of cache misses
	CacheSize   uint64 // Current number of items in cache
	BackendName string // Name of the storage backend
}

// String returns a formatted string representation of the statistics.
func (s Statistics) String() string {
	hitRate := float64(0)
	if s.Reads > 0 {
		hitRate = float64(s.CacheHits) / float64(s.Reads) * 100
	}
	return fmt.Sprintf("EventLog{backend: %s, appends: %d, reads: %d (%.2f%% cache hit rate)}",
		s.BackendName, s.Appends, s.Reads, hitRate)
}

// encode serializes an entry for storage. Layout:
// flags(1) | auctionID(8) | recordedAt nanos(8) | kindLen(2) | kind | payload
func (l *Log) encode(entry *Entry) []byte {
	payload := entry.Payload
	var flags byte

	if len(payload) > minCompressionSize && l.comp.Name() != "none" {
		compressed, err := l.comp.Compress(payload, l.config.CompressionLevel)
		// Only use the compressed form when it meaningfully shrinks.
		if err == nil && len(compressed) < len(payload)*9/10 {
			payload = compressed
			flags |= flagCompressed
		}
	}

	buf := make([]byte, entryHeaderSize+len(entry.Kind)+len(payload))
	buf[0] = flags
	binary.LittleEndian.PutUint64(buf[1:9], entry.AuctionID)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(entry.RecordedAt.UnixNano()))
	binary.LittleEndian.PutUint16(buf[17:19], uint16(len(entry.Kind)))
	copy(buf[19:19+len(entry.Kind)], entry.Kind)
	copy(buf[19+len(entry.Kind):], payload)
	return buf
}

// decode deserializes a stored entry.
func (l *Log) decode(seq uint64, value []byte) (*Entry, error) {
	if len(value) < entryHeaderSize {
		return nil, fmt.Errorf("%w: entry %d too short", ErrDataCorrupt, seq)
	}

	flags := value[0]
	auctionID := binary.LittleEndian.Uint64(value[1:9])
	nanos := int64(binary.LittleEndian.Uint64(value[9:17]))
	kindLen := int(binary.LittleEndian.Uint16(value[17:19]))

	if entryHeaderSize+kindLen > len(value) {
		return nil, fmt.Errorf("%w: entry %d kind length %d", ErrDataCorrupt, seq, kindLen)
	}

	kind := string(value[19 : 19+kindLen])
	payload := value[19+kindLen:]

	if flags&flagCompressed != 0 {
		decompressed, err := l.comp.Decompress(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrDataCorrupt, seq, err)
		}
		payload = decompressed
	} else {
		payloadCopy := make([]byte, len(payload))
		copy(payloadCopy, payload)
		payload = payloadCopy
	}

	return &Entry{
		Seq:        seq,
		Kind:       kind,
		AuctionID:  auctionID,
		RecordedAt: time.Unix(0, nanos).UTC(),
		Payload:    payload,
	}, nil
}
