// Package quota tracks per-owner generation allowances. The debit
// happens exactly once per session, at session creation; reservations
// are never refunded, so a cancelled or failed generation still counts.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/domain/repositories"
)

// Ledger applies tier policy on top of the atomic storage counters.
type Ledger struct {
	repo   repositories.QuotaRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewLedger(repo repositories.QuotaRepository, logger *slog.Logger) *Ledger {
	return &Ledger{repo: repo, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// State returns the owner's current quota view without reserving.
func (l *Ledger) State(ctx context.Context, ownerID string, tier models.Tier) (*models.QuotaState, error) {
	return l.repo.GetOrInit(ctx, ownerID, tier, l.now())
}

// CheckAndReserve consumes one generation unit for the owner. There is
// no release counterpart: a consumed unit stays consumed even if the
// pipeline fails downstream.
func (l *Ledger) CheckAndReserve(ctx context.Context, ownerID string, tier models.Tier) (*models.QuotaState, error) {
	now := l.now()
	state, err := l.repo.GetOrInit(ctx, ownerID, tier, now)
	if err != nil {
		return nil, fmt.Errorf("load quota state: %w", err)
	}

	if state.Tier == models.TierTrial && state.ExpiresAt != nil && now.After(*state.ExpiresAt) {
		return nil, &domain.TrialExpiredError{ExpiredAt: state.ExpiresAt.Format(time.RFC3339)}
	}

	if state.Tier == models.TierUnlimited {
		return l.repo.RecordUsage(ctx, ownerID, now)
	}

	updated, err := l.repo.Reserve(ctx, ownerID, now)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExhausted) {
			return nil, &domain.QuotaExhaustedError{Tier: string(state.Tier)}
		}
		return nil, fmt.Errorf("reserve quota: %w", err)
	}

	l.logger.Info("quota reserved",
		"owner_id", ownerID,
		"tier", updated.Tier,
		"remaining", updated.Remaining,
	)
	return updated, nil
}
