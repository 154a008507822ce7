package memory

import (
	"context"
	"sync"
	"time"

	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/domain/repositories"
)

// Defaults for a freshly initialized quota row.
const (
	TrialGenerations = 10
	TrialWindow      = 7 * 24 * time.Hour
	PaidGenerations  = 100
)

// QuotaRepository keeps quota state in a map guarded by one mutex.
type QuotaRepository struct {
	mu      sync.Mutex
	byOwner map[string]*models.QuotaState
}

func NewQuotaRepository() *QuotaRepository {
	return &QuotaRepository{byOwner: make(map[string]*models.QuotaState)}
}

var _ repositories.QuotaRepository = (*QuotaRepository)(nil)

func (r *QuotaRepository) GetOrInit(_ context.Context, ownerID string, tier models.Tier, now time.Time) (*models.QuotaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.byOwner[ownerID]
	if !ok {
		state = defaultState(ownerID, tier, now)
		r.byOwner[ownerID] = state
	}
	return copyState(state), nil
}

func (r *QuotaRepository) Reserve(_ context.Context, ownerID string, now time.Time) (*models.QuotaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if state.Remaining <= 0 {
		return nil, domain.ErrQuotaExhausted
	}
	state.Remaining--
	mergeUsage(state, now)
	return copyState(state), nil
}

func (r *QuotaRepository) RecordUsage(_ context.Context, ownerID string, now time.Time) (*models.QuotaState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mergeUsage(state, now)
	return copyState(state), nil
}

func defaultState(ownerID string, tier models.Tier, now time.Time) *models.QuotaState {
	state := &models.QuotaState{
		OwnerID:      ownerID,
		Tier:         tier,
		MonthlyUsage: make(map[string]int),
		DailyUsage:   make(map[string]int),
		UpdatedAt:    now,
	}
	switch tier {
	case models.TierTrial:
		state.Remaining = TrialGenerations
		expires := now.Add(TrialWindow)
		state.ExpiresAt = &expires
	case models.TierPaid:
		state.Remaining = PaidGenerations
	case models.TierUnlimited:
		state.Remaining = 0
	}
	return state
}

func mergeUsage(state *models.QuotaState, now time.Time) {
	state.MonthlyUsage[models.MonthKey(now)]++
	state.DailyUsage[models.DayKey(now)]++
	state.UpdatedAt = now
}

func copyState(state *models.QuotaState) *models.QuotaState {
	cp := *state
	cp.MonthlyUsage = make(map[string]int, len(state.MonthlyUsage))
	for k, v := range state.MonthlyUsage {
		cp.MonthlyUsage[k] = v
	}
	cp.DailyUsage = make(map[string]int, len(state.DailyUsage))
	for k, v := range state.DailyUsage {
		cp.DailyUsage[k] = v
	}
	return &cp
}
