package postgres

import (
	"context"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// EventRepository implements relationaldb.EventRepository on PostgreSQL.
type EventRepository struct {
	database *Database
}

// NewEventRepository creates a new event repository.
func NewEventRepository(database *Database) *EventRepository {
	return &EventRepository{database: database}
}

// SaveEvent inserts one notification row. Replaying the same sequence is
// a no-op so the indexer can safely re-consume the event log.
func (r *EventRepository) SaveEvent(ctx context.Context, record *relationaldb.EventRecord) error {
	if r.database.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	_, err := r.database.db.ExecContext(ctx, `
		INSERT INTO auction_events (seq, auction_id, kind, recorded_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (seq) DO NOTHING`,
		int64(record.Seq), int64(record.AuctionID), record.Kind,
		record.RecordedAt, record.Payload,
	)
	if err != nil {
		return relationaldb.NewQueryError("save_event", "failed to save event", err)
	}
	return nil
}

// GetEventsForAuction retrieves the notification trail of one auction,
// oldest first.
func (r *EventRepository) GetEventsForAuction(ctx context.Context, auctionID uint64) ([]relationaldb.EventRecord, error) {
	if r.database.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}

	rows, err := r.database.db.QueryContext(ctx, `
		SELECT seq, auction_id, kind, recorded_at, payload
		FROM auction_events
		WHERE auction_id = $1
		ORDER BY seq ASC`,
		int64(auctionID),
	)
	if err != nil {
		return nil, relationaldb.NewQueryError("get_events", "failed to query events", err)
	}
	defer rows.Close()

	var records []relationaldb.EventRecord
	for rows.Next() {
		var (
			record  relationaldb.EventRecord
			seq     int64
			auction int64
		)
		if err := rows.Scan(&seq, &auction, &record.Kind, &record.RecordedAt, &record.Payload); err != nil {
			return nil, relationaldb.NewQueryError("get_events", "failed to scan event", err)
		}
		record.Seq = uint64(seq)
		record.AuctionID = uint64(auction)
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetEventCount returns the number of indexed events.
func (r *EventRepository) GetEventCount(ctx context.Context) (int64, error) {
	if r.database.db == nil {
		return 0, relationaldb.ErrDatabaseClosed
	}

	var count int64
	err := r.database.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auction_events`).Scan(&count)
	if err != nil {
		return 0, relationaldb.NewQueryError("count_events", "failed to count events", err)
	}
	return count, nil
}
