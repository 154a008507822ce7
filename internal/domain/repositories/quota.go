package repositories

import (
	"context"
	"time"

	"podium/internal/domain/models"
)

// QuotaRepository persists per-owner quota state. Reserve and
// RecordUsage must be single atomic increments/merges at the storage
// layer; concurrent generate calls from the same owner are a realistic
// race (two open tabs).
type QuotaRepository interface {
	// GetOrInit returns the owner's quota state, creating the default
	// state for the tier on first access.
	GetOrInit(ctx context.Context, ownerID string, tier models.Tier, now time.Time) (*models.QuotaState, error)

	// Reserve atomically decrements the remaining counter and merges the
	// usage buckets for now's month and day. Returns
	// domain.ErrQuotaExhausted when nothing remains.
	Reserve(ctx context.Context, ownerID string, now time.Time) (*models.QuotaState, error)

	// RecordUsage merges the usage buckets without touching the
	// remaining counter (unlimited tier).
	RecordUsage(ctx context.Context, ownerID string, now time.Time) (*models.QuotaState, error)
}
