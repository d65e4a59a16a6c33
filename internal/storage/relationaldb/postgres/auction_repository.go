package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/hola-official/ReverseDutchAuctionSwap/internal/storage/relationaldb"
)

// AuctionRepository implements relationaldb.AuctionRepository on PostgreSQL.
type AuctionRepository struct {
	database *Database
}

// NewAuctionRepository creates a new auction repository.
func NewAuctionRepository(database *Database) *AuctionRepository {
	return &AuctionRepository{database: database}
}

// SaveAuction inserts or replaces an auction row.
func (r *AuctionRepository) SaveAuction(ctx context.Context, record *relationaldb.AuctionRecord) error {
	if r.database.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	query := `
		INSERT INTO auctions (id, seller, sell_asset, buy_asset, sell_amount,
			start_price, start_time, duration_secs, decrease_rate, outcome,
			buyer, final_price, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			buyer = EXCLUDED.buyer,
			final_price = EXCLUDED.final_price,
			settled_at = EXCLUDED.settled_at`

	var buyer sql.NullString
	if record.Buyer != "" {
		buyer = sql.NullString{String: record.Buyer, Valid: true}
	}
	var settledAt sql.NullTime
	if record.SettledAt != nil {
		settledAt = sql.NullTime{Time: *record.SettledAt, Valid: true}
	}

	_, err := r.database.db.ExecContext(ctx, query,
		int64(record.ID), record.Seller, record.SellAsset, record.BuyAsset,
		int64(record.SellAmount), int64(record.StartPrice), record.StartTime,
		int64(record.DurationSecs), int64(record.DecreaseRate), record.Outcome,
		buyer, int64(record.FinalPrice), settledAt,
	)
	if err != nil {
		return relationaldb.NewQueryError("save_auction", "failed to save auction", err)
	}
	return nil
}

// MarkExecuted updates an auction row to its executed terminal state.
func (r *AuctionRepository) MarkExecuted(ctx context.Context, id uint64, buyer string, finalPrice uint64, at time.Time) error {
	if r.database.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	result, err := r.database.db.ExecContext(ctx, `
		UPDATE auctions
		SET outcome = 'executed', buyer = $2, final_price = $3, settled_at = $4
		WHERE id = $1`,
		int64(id), buyer, int64(finalPrice), at,
	)
	if err != nil {
		return relationaldb.NewQueryError("mark_executed", "failed to update auction", err)
	}
	return requireRowAffected(result, "mark_executed")
}

// MarkCancelled updates an auction row to its cancelled terminal state.
func (r *AuctionRepository) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	if r.database.db == nil {
		return relationaldb.ErrDatabaseClosed
	}

	result, err := r.database.db.ExecContext(ctx, `
		UPDATE auctions
		SET outcome = 'cancelled', settled_at = $2
		WHERE id = $1`,
		int64(id), at,
	)
	if err != nil {
		return relationaldb.NewQueryError("mark_cancelled", "failed to update auction", err)
	}
	return requireRowAffected(result, "mark_cancelled")
}

// GetAuction retrieves a single auction row by id.
func (r *AuctionRepository) GetAuction(ctx context.Context, id uint64) (*relationaldb.AuctionRecord, error) {
	if r.database.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}

	row := r.database.db.QueryRowContext(ctx, `
		SELECT id, seller, sell_asset, buy_asset, sell_amount, start_price,
			start_time, duration_secs, decrease_rate, outcome, buyer,
			final_price, settled_at
		FROM auctions WHERE id = $1`,
		int64(id),
	)

	record, err := scanAuction(row)
	if err == sql.ErrNoRows {
		return nil, relationaldb.ErrAuctionNotFound
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_auction", "failed to query auction", err)
	}
	return record, nil
}

// ListAuctions retrieves auction rows matching the given criteria, newest
// first.
func (r *AuctionRepository) ListAuctions(ctx context.Context, options relationaldb.AuctionQueryOptions) ([]relationaldb.AuctionRecord, error) {
	if r.database.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}

	query := `
		SELECT id, seller, sell_asset, buy_asset, sell_amount, start_price,
			start_time, duration_secs, decrease_rate, outcome, buyer,
			final_price, settled_at
		FROM auctions
		WHERE ($1 = '' OR seller = $1)
		  AND ($2 = '' OR outcome = $2)
		ORDER BY id DESC
		LIMIT $3 OFFSET $4`

	limit := options.Limit
	if limit == 0 {
		limit = 50
	}

	rows, err := r.database.db.QueryContext(ctx, query,
		options.Seller, options.Outcome, limit, options.Offset)
	if err != nil {
		return nil, relationaldb.NewQueryError("list_auctions", "failed to query auctions", err)
	}
	defer rows.Close()

	var records []relationaldb.AuctionRecord
	for rows.Next() {
		record, err := scanAuction(rows)
		if err != nil {
			return nil, relationaldb.NewQueryError("list_auctions", "failed to scan auction", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// CountAuctions returns the number of indexed auctions.
func (r *AuctionRepository) CountAuctions(ctx context.Context) (int64, error) {
	if r.database.db == nil {
		return 0, relationaldb.ErrDatabaseClosed
	}

	var count int64
	err := r.database.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auctions`).Scan(&count)
	if err != nil {
		return 0, relationaldb.NewQueryError("count_auctions", "failed to count auctions", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAuction(s scanner) (*relationaldb.AuctionRecord, error) {
	var (
		record     relationaldb.AuctionRecord
		id         int64
		sellAmount int64
		startPrice int64
		duration   int64
		rate       int64
		buyer      sql.NullString
		finalPrice sql.NullInt64
		settledAt  sql.NullTime
	)

	err := s.Scan(&id, &record.Seller, &record.SellAsset, &record.BuyAsset,
		&sellAmount, &startPrice, &record.StartTime, &duration, &rate,
		&record.Outcome, &buyer, &finalPrice, &settledAt)
	if err != nil {
		return nil, err
	}

	record.ID = uint64(id)
	record.SellAmount = uint64(sellAmount)
	record.StartPrice = uint64(startPrice)
	record.DurationSecs = uint64(duration)
	record.DecreaseRate = uint64(rate)
	if buyer.Valid {
		record.Buyer = buyer.String
	}
	if finalPrice.Valid {
		record.FinalPrice = uint64(finalPrice.Int64)
	}
	if settledAt.Valid {
		t := settledAt.Time
		record.SettledAt = &t
	}
	return &record, nil
}

func requireRowAffected(result sql.Result, operation string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return relationaldb.NewQueryError(operation, "failed to read rows affected", err)
	}
	if affected == 0 {
		return relationaldb.ErrAuctionNotFound
	}
	return nil
}
