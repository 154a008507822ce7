package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/domain/repositories"
)

// SessionRepository implements repositories.SessionRepository on pgx.
type SessionRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

func NewSessionRepository(config *RepositoryConfig) repositories.SessionRepository {
	return &SessionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const sessionColumns = "id, owner_id, category, topic, tier, attempts, max_attempts, status, started_at, updated_at"

func (r *SessionRepository) GetByOwner(ctx context.Context, ownerID string) (*models.GenerationSession, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND status = $2
	`, sessionColumns, r.tables.Sessions)

	session, err := r.scanSession(r.pool.QueryRow(ctx, query, ownerID, models.SessionActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Create(ctx context.Context, s *models.GenerationSession) error {
	// One active session per owner: the conflict target keeps the
	// first writer's row, so a racing second create is a no-op and the
	// caller's re-read picks up the winner.
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (owner_id) DO NOTHING
	`, r.tables.Sessions, sessionColumns)

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.OwnerID, s.Category, s.Topic, s.Tier,
		s.Attempts, s.MaxAttempts, s.Status, s.StartedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) IncrementAttempts(ctx context.Context, id string) (*models.GenerationSession, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET attempts = attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, r.tables.Sessions, sessionColumns)

	session, err := r.scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("increment attempts: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) DeleteByOwner(ctx context.Context, ownerID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1`, r.tables.Sessions)
	if _, err := r.pool.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) scanSession(row pgx.Row) (*models.GenerationSession, error) {
	var s models.GenerationSession
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Category, &s.Topic, &s.Tier,
		&s.Attempts, &s.MaxAttempts, &s.Status, &s.StartedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
