package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/domain/repositories"
)

// QuotaRepository implements repositories.QuotaRepository on pgx. The
// usage maps live in JSONB columns; every mutation is one UPDATE with
// an in-database merge, never a read-modify-write round trip.
type QuotaRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

func NewQuotaRepository(config *RepositoryConfig) repositories.QuotaRepository {
	return &QuotaRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const quotaColumns = "owner_id, tier, generations_remaining, monthly_usage, daily_usage, expires_at, updated_at"

func (r *QuotaRepository) GetOrInit(ctx context.Context, ownerID string, tier models.Tier, now time.Time) (*models.QuotaState, error) {
	remaining, expiresAt := defaultAllowance(tier, now)

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, '{}'::jsonb, '{}'::jsonb, $4, $5)
		ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
		RETURNING %s
	`, r.tables.Quotas, quotaColumns, quotaColumns)

	state, err := r.scanState(r.pool.QueryRow(ctx, query, ownerID, tier, remaining, expiresAt, now))
	if err != nil {
		return nil, fmt.Errorf("init quota state: %w", err)
	}
	return state, nil
}

func (r *QuotaRepository) Reserve(ctx context.Context, ownerID string, now time.Time) (*models.QuotaState, error) {
	// The WHERE clause makes the decrement conditional and atomic: a
	// concurrent reservation that drains the last unit leaves nothing
	// for this one, and no row comes back.
	query := fmt.Sprintf(`
		UPDATE %s
		SET generations_remaining = generations_remaining - 1,
		    monthly_usage = jsonb_set(
		        coalesce(monthly_usage, '{}'::jsonb),
		        ARRAY[$2],
		        (coalesce(monthly_usage->>$2, '0')::int + 1)::text::jsonb),
		    daily_usage = jsonb_set(
		        coalesce(daily_usage, '{}'::jsonb),
		        ARRAY[$3],
		        (coalesce(daily_usage->>$3, '0')::int + 1)::text::jsonb),
		    updated_at = $4
		WHERE owner_id = $1 AND generations_remaining > 0
		RETURNING %s
	`, r.tables.Quotas, quotaColumns)

	state, err := r.scanState(r.pool.QueryRow(ctx, query,
		ownerID, models.MonthKey(now), models.DayKey(now), now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyReserveMiss(ctx, ownerID)
		}
		return nil, fmt.Errorf("reserve quota: %w", err)
	}
	return state, nil
}

func (r *QuotaRepository) RecordUsage(ctx context.Context, ownerID string, now time.Time) (*models.QuotaState, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET monthly_usage = jsonb_set(
		        coalesce(monthly_usage, '{}'::jsonb),
		        ARRAY[$2],
		        (coalesce(monthly_usage->>$2, '0')::int + 1)::text::jsonb),
		    daily_usage = jsonb_set(
		        coalesce(daily_usage, '{}'::jsonb),
		        ARRAY[$3],
		        (coalesce(daily_usage->>$3, '0')::int + 1)::text::jsonb),
		    updated_at = $4
		WHERE owner_id = $1
		RETURNING %s
	`, r.tables.Quotas, quotaColumns)

	state, err := r.scanState(r.pool.QueryRow(ctx, query,
		ownerID, models.MonthKey(now), models.DayKey(now), now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("record usage: %w", err)
	}
	return state, nil
}

// classifyReserveMiss distinguishes "no row" from "row drained".
func (r *QuotaRepository) classifyReserveMiss(ctx context.Context, ownerID string) error {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE owner_id = $1`, r.tables.Quotas)
	var one int
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify reserve miss: %w", err)
	}
	return domain.ErrQuotaExhausted
}

func (r *QuotaRepository) scanState(row pgx.Row) (*models.QuotaState, error) {
	var s models.QuotaState
	err := row.Scan(
		&s.OwnerID, &s.Tier, &s.Remaining,
		&s.MonthlyUsage, &s.DailyUsage,
		&s.ExpiresAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.MonthlyUsage == nil {
		s.MonthlyUsage = map[string]int{}
	}
	if s.DailyUsage == nil {
		s.DailyUsage = map[string]int{}
	}
	return &s, nil
}

func defaultAllowance(tier models.Tier, now time.Time) (int, *time.Time) {
	switch tier {
	case models.TierTrial:
		expires := now.Add(7 * 24 * time.Hour)
		return 10, &expires
	case models.TierPaid:
		return 100, nil
	default:
		return 0, nil
	}
}
