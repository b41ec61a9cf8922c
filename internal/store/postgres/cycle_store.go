package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// CycleStore implements domain.CycleStore using PostgreSQL.
type CycleStore struct {
	pool *pgxpool.Pool
}

// NewCycleStore creates a CycleStore backed by the given connection pool.
func NewCycleStore(pool *pgxpool.Pool) *CycleStore {
	return &CycleStore{pool: pool}
}

// Log appends one monitoring cycle record.
func (s *CycleStore) Log(ctx context.Context, rec domain.CycleRecord) error {
	const query = `
		INSERT INTO monitoring_cycles (
			ts, opportunities, markets_scanned, api_calls, elapsed_ms,
			status, error_message, poly_listings, kalshi_listings, matched_pairs
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		rec.Timestamp, rec.Opportunities, rec.MarketsScanned, rec.APICalls,
		rec.Elapsed.Milliseconds(), rec.Status, rec.ErrorMessage,
		rec.PolyListings, rec.KalshiListings, rec.MatchedPairs,
	)
	if err != nil {
		return fmt.Errorf("postgres: log monitoring cycle: %w", err)
	}
	return nil
}

// ListSince returns cycle records at or after since, newest first.
func (s *CycleStore) ListSince(ctx context.Context, since time.Time) ([]domain.CycleRecord, error) {
	const query = `
		SELECT ts, opportunities, markets_scanned, api_calls, elapsed_ms,
			status, error_message, poly_listings, kalshi_listings, matched_pairs
		FROM monitoring_cycles WHERE ts >= $1 ORDER BY ts DESC`

	return s.list(ctx, query, since)
}

// ListBefore returns cycle records older than cutoff, oldest first, for
// archival.
func (s *CycleStore) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.CycleRecord, error) {
	const query = `
		SELECT ts, opportunities, markets_scanned, api_calls, elapsed_ms,
			status, error_message, poly_listings, kalshi_listings, matched_pairs
		FROM monitoring_cycles WHERE ts < $1 ORDER BY ts ASC`

	return s.list(ctx, query, cutoff)
}

func (s *CycleStore) list(ctx context.Context, query string, arg any) ([]domain.CycleRecord, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("postgres: list monitoring cycles: %w", err)
	}
	defer rows.Close()

	var records []domain.CycleRecord
	for rows.Next() {
		var rec domain.CycleRecord
		var elapsedMs int64
		if err := rows.Scan(
			&rec.Timestamp, &rec.Opportunities, &rec.MarketsScanned, &rec.APICalls,
			&elapsedMs, &rec.Status, &rec.ErrorMessage,
			&rec.PolyListings, &rec.KalshiListings, &rec.MatchedPairs,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan monitoring cycle: %w", err)
		}
		rec.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate monitoring cycles: %w", err)
	}
	return records, nil
}

// DeleteBefore removes cycle records older than cutoff and returns the
// number of rows deleted.
func (s *CycleStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM monitoring_cycles WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete monitoring cycles before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}
