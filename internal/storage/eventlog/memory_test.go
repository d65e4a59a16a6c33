package eventlog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendLifecycle(t *testing.T) {
	b := NewMemoryBackend()
	assert.False(t, b.IsOpen())

	require.NoError(t, b.Open(true))
	assert.True(t, b.IsOpen())
	assert.Error(t, b.Open(true), "double open is rejected")

	assert.Equal(t, OK, b.Put(0, []byte("a")))
	require.NoError(t, b.Close())
	assert.False(t, b.IsOpen())

	// Operations on a closed backend fail, and close cleared the data.
	assert.Equal(t, BackendError, b.Put(1, []byte("b")))
	_, status := b.Get(0)
	assert.Equal(t, BackendError, status)

	require.NoError(t, b.Open(true))
	_, status = b.Get(0)
	assert.Equal(t, NotFound, status)
}

func TestMemoryBackendPutGetIsolation(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Open(true))
	defer b.Close()

	original := []byte("payload")
	require.Equal(t, OK, b.Put(7, original))

	// Mutating the caller's slice must not affect the stored value.
	original[0] = 'X'

	got, status := b.Get(7)
	require.Equal(t, OK, status)
	assert.Equal(t, []byte("payload"), got)
}

func TestMemoryBackendScanOrderAndBounds(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Open(true))
	defer b.Close()

	// Insert out of order on purpose.
	for _, seq := range []uint64{5, 1, 3, 2, 4} {
		require.Equal(t, OK, b.Put(seq, []byte{byte(seq)}))
	}

	var seen []uint64
	require.NoError(t, b.Scan(2, 5, func(seq uint64, value []byte) error {
		seen = append(seen, seq)
		return nil
	}))
	assert.Equal(t, []uint64{2, 3, 4}, seen, "half-open range in ascending order")

	sentinel := errors.New("stop")
	err := b.Scan(0, 10, func(seq uint64, value []byte) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel, "callback errors abort the scan")
}

func TestMemoryBackendLast(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Open(true))
	defer b.Close()

	_, found, status := b.Last()
	require.Equal(t, OK, status)
	assert.False(t, found)

	b.Put(3, []byte("x"))
	b.Put(9, []byte("y"))
	b.Put(5, []byte("z"))

	last, found, status := b.Last()
	require.Equal(t, OK, status)
	assert.True(t, found)
	assert.Equal(t, uint64(9), last)
}

func TestBackendRegistry(t *testing.T) {
	assert.True(t, IsBackendAvailable("memory"))
	assert.True(t, IsBackendAvailable("pebble"))
	assert.True(t, IsBackendAvailable("leveldb"))
	assert.Contains(t, AvailableBackends(), "memory")

	_, err := CreateBackend("bogus", DefaultConfig())
	assert.Error(t, err)
}
