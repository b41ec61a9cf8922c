package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/arbmonitor/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, poly_id, kalshi_id, poly_question, kalshi_question,
	poly_yes_price, poly_no_price, kalshi_yes_price, kalshi_no_price,
	poly_volume, kalshi_volume, strategy, outcome,
	profit_potential, fee_adjusted_profit, slippage_adjusted_profit,
	profit_percentage, required_capital, max_position_size,
	confidence_score, match_confidence, rank_score,
	detected_at, expires_at, notes`

// Insert stores an opportunity and returns its assigned ID. An empty
// incoming ID gets a fresh UUID.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.ArbitrageOpportunity) (string, error) {
	id := opp.ID
	if id == "" {
		id = uuid.NewString()
	}

	const query = `
		INSERT INTO opportunities (` + opportunityCols + `)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16,
			$17, $18, $19,
			$20, $21, $22,
			$23, $24, $25
		)`

	_, err := s.pool.Exec(ctx, query,
		id, opp.PolyID, opp.KalshiID, opp.PolyQuestion, opp.KalshiQuestion,
		opp.PolyYesPrice, opp.PolyNoPrice, opp.KalshiYesPrice, opp.KalshiNoPrice,
		opp.PolyVolume, opp.KalshiVolume, opp.Strategy, opp.Outcome,
		opp.ProfitPotential, opp.FeeAdjustedProfit, opp.SlippageAdjustedProfit,
		opp.ProfitPercentage, opp.RequiredCapital, opp.MaxPositionSize,
		opp.ConfidenceScore, opp.MatchConfidence, opp.RankScore,
		opp.DetectedAt, opp.ExpiresAt, opp.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("postgres: insert opportunity %s/%s: %w", opp.PolyID, opp.KalshiID, err)
	}
	return id, nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities ORDER BY detected_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	return s.list(ctx, query, args...)
}

// ListSince returns opportunities detected at or after since, newest first.
func (s *OpportunityStore) ListSince(ctx context.Context, since time.Time) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities
		WHERE detected_at >= $1 ORDER BY detected_at DESC`
	return s.list(ctx, query, since)
}

// ListBefore returns opportunities detected before cutoff, oldest first, for
// archival.
func (s *OpportunityStore) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.ArbitrageOpportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities
		WHERE detected_at < $1 ORDER BY detected_at ASC`
	return s.list(ctx, query, cutoff)
}

// DeleteBefore removes opportunities detected before cutoff and returns the
// number of rows deleted.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM opportunities WHERE detected_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}

func (s *OpportunityStore) list(ctx context.Context, query string, args ...any) ([]domain.ArbitrageOpportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.ArbitrageOpportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return opps, nil
}

func scanOpportunity(row pgx.Row) (domain.ArbitrageOpportunity, error) {
	var opp domain.ArbitrageOpportunity
	err := row.Scan(
		&opp.ID, &opp.PolyID, &opp.KalshiID, &opp.PolyQuestion, &opp.KalshiQuestion,
		&opp.PolyYesPrice, &opp.PolyNoPrice, &opp.KalshiYesPrice, &opp.KalshiNoPrice,
		&opp.PolyVolume, &opp.KalshiVolume, &opp.Strategy, &opp.Outcome,
		&opp.ProfitPotential, &opp.FeeAdjustedProfit, &opp.SlippageAdjustedProfit,
		&opp.ProfitPercentage, &opp.RequiredCapital, &opp.MaxPositionSize,
		&opp.ConfidenceScore, &opp.MatchConfidence, &opp.RankScore,
		&opp.DetectedAt, &opp.ExpiresAt, &opp.Notes,
	)
	if err != nil {
		return domain.ArbitrageOpportunity{}, fmt.Errorf("postgres: scan opportunity: %w", err)
	}
	return opp, nil
}
