package postgres

import (
	"context"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// RepositoryManager wires the PostgreSQL repositories behind the
// relationaldb.RepositoryManager interface.
type RepositoryManager struct {
	database    *Database
	auctionRepo *AuctionRepository
	eventRepo   *EventRepository
}

// NewRepositoryManager creates a repository manager over a fresh database
// handle built from config.
func NewRepositoryManager(config *relationaldb.Config) (*RepositoryManager, error) {
	database, err := NewDatabase(config)
	if err != nil {
		return nil, err
	}

	return &RepositoryManager{
		database:    database,
		auctionRepo: NewAuctionRepository(database),
		eventRepo:   NewEventRepository(database),
	}, nil
}

// Auction returns the auction repository.
func (m *RepositoryManager) Auction() relationaldb.AuctionRepository {
	return m.auctionRepo
}

// Event returns the event repository.
func (m *RepositoryManager) Event() relationaldb.EventRepository {
	return m.eventRepo
}

// System returns the system repository.
func (m *RepositoryManager) System() relationaldb.SystemRepository {
	return m.database
}

// Open opens the underlying database connection.
func (m *RepositoryManager) Open(ctx context.Context) error {
	return m.database.Open(ctx)
}

// Close closes the underlying database connection.
func (m *RepositoryManager) Close(ctx context.Context) error {
	return m.database.Close(ctx)
}

var _ relationaldb.RepositoryManager = (*RepositoryManager)(nil)
