package eventlog

import "errors"

var (
	// ErrNotFound indicates that a requested entry was not found
	ErrNotFound = errors.New("entry not found")

	// ErrDataCorrupt indicates that stored data is corrupted
	ErrDataCorrupt = errors.New("data corruption detected")

	// ErrBackendClosed indicates that the backend is closed
	ErrBackendClosed = errors.New("backend is closed")

	// ErrLogClosed indicates that the log has been closed
	ErrLogClosed = errors.New("event log is closed")

	// ErrInvalidConfig indicates that the configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)

// IsNotFound checks if an error indicates that an entry was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// statusErr maps a backend status to the matching sentinel error.
func statusErr(s Status) error {
	switch s {
	case OK:
		return nil
	case NotFound:
		return ErrNotFound
	case DataCorrupt:
		return ErrDataCorrupt
	default:
		return ErrBackendClosed
	}
}
