package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// MatchStore implements domain.MatchStore using PostgreSQL.
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore creates a MatchStore backed by the given connection pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

// Upsert stores a matched pair. An existing (poly_id, kalshi_id) row has its
// confidence, match type, notes and updated_at refreshed in place.
func (s *MatchStore) Upsert(ctx context.Context, match domain.MatchCandidate) error {
	const query = `
		INSERT INTO market_pairs (
			poly_id, kalshi_id, poly_question, kalshi_question,
			confidence, match_type, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (poly_id, kalshi_id) DO UPDATE SET
			confidence = EXCLUDED.confidence,
			match_type = EXCLUDED.match_type,
			notes      = EXCLUDED.notes,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		match.PolyID, match.KalshiID, match.PolyQuestion, match.KalshiQuestion,
		match.Confidence, match.MatchType, match.Notes,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert market pair %s/%s: %w", match.PolyID, match.KalshiID, err)
	}
	return nil
}

// List returns the most recently updated market pairs.
func (s *MatchStore) List(ctx context.Context, limit int) ([]domain.MatchCandidate, error) {
	query := `
		SELECT poly_id, kalshi_id, poly_question, kalshi_question,
			confidence, match_type, notes, updated_at
		FROM market_pairs ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list market pairs: %w", err)
	}
	defer rows.Close()

	var matches []domain.MatchCandidate
	for rows.Next() {
		var m domain.MatchCandidate
		if err := rows.Scan(
			&m.PolyID, &m.KalshiID, &m.PolyQuestion, &m.KalshiQuestion,
			&m.Confidence, &m.MatchType, &m.Notes, &m.MatchedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan market pair: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate market pairs: %w", err)
	}
	return matches, nil
}
