package eventlog

import (
	"bytes"
	"testing"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/events"
	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/eventlog/compression"
)

func memoryConfig() *Config {
	cfg := DefaultConfig()
	cfg.Backend = "memory"
	cfg.Compressor = "none"
	return cfg
}

func TestLogAppendAssignsSequences(t *testing.T) {
	l, err := Open(memoryConfig())
	require.NoError(t, err)
	defer l.Close()

	seq, err := l.Append(events.TypeAuctionCreated, 0, []byte(`{"auction_id":0}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	seq, err = l.Append(events.TypeAuctionExecuted, 0, []byte(`{"auction_id":0}`))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	assert.Equal(t, uint64(2), l.NextSeq())

	_, err = l.Append("", 0, nil)
	assert.Error(t, err, "empty kind is rejected")
}

func TestLogRoundTrip(t *testing.T) {
	l, err := Open(memoryConfig())
	require.NoError(t, err)
	defer l.Close()

	payload := []byte(`{"auction_id":7,"seller":"alice"}`)
	seq, err := l.Append(events.TypeAuctionCreated, 7, payload)
	require.NoError(t, err)

	entry, err := l.Get(seq)
	require.NoError(t, err)
	assert.Equal(t, seq, entry.Seq)
	assert.Equal(t, events.TypeAuctionCreated, entry.Kind)
	assert.Equal(t, uint64(7), entry.AuctionID)
	assert.Equal(t, payload, entry.Payload)
	assert.WithinDuration(t, time.Now().UTC(), entry.RecordedAt, time.Minute)

	_, err = l.Get(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLogCompressedRoundTrip(t *testing.T) {
	cfg := memoryConfig()
	cfg.Compressor = "lz4"

	l, err := Open(cfg)
	require.NoError(t, err)
	defer l.Close()

	// Large and repetitive enough that lz4 actually kicks in.
	payload := bytes.Repeat([]byte(`{"auction_id":1,"kind":"auctionCreated"}`), 50)
	seq, err := l.Append(events.TypeAuctionCreated, 1, payload)
	require.NoError(t, err)

	// Bypass the read cache to force a decode from the backend.
	l.cache.Purge()

	entry, err := l.Get(seq)
	require.NoError(t, err)
	assert.Equal(t, payload, entry.Payload)
}

func TestLogRangeReplaysInOrder(t *testing.T) {
	l, err := Open(memoryConfig())
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 5; i++ {
		_, err := l.Append(events.TypeAuctionCreated, uint64(i), []byte{byte(i)})
		require.NoError(t, err)
	}

	var seqs []uint64
	require.NoError(t, l.Range(1, 4, func(entry *Entry) error {
		seqs = append(seqs, entry.Seq)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestLogForAuctionFilters(t *testing.T) {
	l, err := Open(memoryConfig())
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Append(events.TypeAuctionCreated, 1, nil)
	require.NoError(t, err)
	_, err = l.Append(events.TypeAuctionCreated, 2, nil)
	require.NoError(t, err)
	_, err = l.Append(events.TypeAuctionCancelled, 1, nil)
	require.NoError(t, err)

	var kinds []string
	require.NoError(t, l.ForAuction(1, func(entry *Entry) error {
		kinds = append(kinds, entry.Kind)
		return nil
	}))
	assert.Equal(t, []string{events.TypeAuctionCreated, events.TypeAuctionCancelled}, kinds)
}

func TestLogResumesAfterReopen(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Open(true))

	cfg := memoryConfig()
	comp, err := compression.Get("none")
	require.NoError(t, err)
	cache, err := lru.New[uint64, *Entry](16)
	require.NoError(t, err)
	l := &Log{backend: backend, comp: comp, config: cfg, cache: cache}

	_, err = l.Append(events.TypeAuctionCreated, 0, []byte("a"))
	require.NoError(t, err)
	seq, err := l.Append(events.TypeAuctionExecuted, 0, []byte("b"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	// A fresh log over the same backend continues after the last entry.
	last, found, status := backend.Last()
	require.Equal(t, OK, status)
	require.True(t, found)

	cache2, err := lru.New[uint64, *Entry](16)
	require.NoError(t, err)
	resumed := &Log{backend: backend, comp: comp, config: cfg, cache: cache2, nextSeq: last + 1}
	seq, err = resumed.Append(events.TypeAuctionCancelled, 0, []byte("c"))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
}

func TestLogRecordEnvelope(t *testing.T) {
	l, err := Open(memoryConfig())
	require.NoError(t, err)
	defer l.Close()

	env := events.Envelope{
		Kind:      events.TypeAuctionExecuted,
		AuctionID: 4,
		Payload:   []byte(`{"auction_id":4,"buyer":"bob"}`),
	}
	seq, err := l.Record(env)
	require.NoError(t, err)

	entry, err := l.Get(seq)
	require.NoError(t, err)
	assert.Equal(t, env.Kind, entry.Kind)
	assert.Equal(t, env.AuctionID, entry.AuctionID)
	assert.Equal(t, env.Payload, entry.Payload)
}

func TestLogClosedRejectsAppends(t *testing.T) {
	l, err := Open(memoryConfig())
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "close is idempotent")

	_, err = l.Append(events.TypeAuctionCreated, 0, nil)
	assert.ErrorIs(t, err, ErrLogClosed)
}

func TestOpenValidatesConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.Compressor = "zstd"
	_, err := Open(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Backend = ""
	_, err = Open(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
