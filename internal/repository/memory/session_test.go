package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"podium/internal/domain"
	"podium/internal/domain/models"
)

func TestSessionCreateFirstWriterWins(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	first := &models.GenerationSession{ID: "a", OwnerID: "owner-1", Topic: "t"}
	second := &models.GenerationSession{ID: "b", OwnerID: "owner-1", Topic: "t"}

	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("racing Create() error = %v", err)
	}

	got, err := repo.GetByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("GetByOwner() error = %v", err)
	}
	if got.ID != "a" {
		t.Errorf("winning session = %s, want a", got.ID)
	}
}

func TestSessionIncrementAttempts(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &models.GenerationSession{ID: "a", OwnerID: "owner-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for want := 1; want <= 3; want++ {
		got, err := repo.IncrementAttempts(ctx, "a")
		if err != nil {
			t.Fatalf("IncrementAttempts() error = %v", err)
		}
		if got.Attempts != want {
			t.Errorf("attempts = %d, want %d", got.Attempts, want)
		}
	}

	if _, err := repo.IncrementAttempts(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown session error = %v, want not found", err)
	}
}

func TestSessionGetReturnsCopy(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, &models.GenerationSession{ID: "a", OwnerID: "owner-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := repo.GetByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("GetByOwner() error = %v", err)
	}
	got.Attempts = 99

	again, err := repo.GetByOwner(ctx, "owner-1")
	if err != nil {
		t.Fatalf("GetByOwner() error = %v", err)
	}
	if again.Attempts != 0 {
		t.Error("mutating a returned session leaked into the store")
	}
}

func TestQuotaReserve(t *testing.T) {
	repo := NewQuotaRepository()
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	if _, err := repo.Reserve(ctx, "owner-1", now); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("reserve before init error = %v, want not found", err)
	}

	if _, err := repo.GetOrInit(ctx, "owner-1", models.TierTrial, now); err != nil {
		t.Fatalf("GetOrInit() error = %v", err)
	}

	state, err := repo.Reserve(ctx, "owner-1", now)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if state.Remaining != TrialGenerations-1 {
		t.Errorf("remaining = %d, want %d", state.Remaining, TrialGenerations-1)
	}
	if state.DailyUsage[models.DayKey(now)] != 1 {
		t.Errorf("daily usage = %d, want 1", state.DailyUsage[models.DayKey(now)])
	}
}
