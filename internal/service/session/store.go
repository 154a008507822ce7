// Package session owns the lifecycle of generation sessions: a bounded
// sequence of up to three draft attempts tied to one topic and
// category, at most one active per owner.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/domain/repositories"
	"podium/internal/service/quota"
)

// Store drives session lifecycle. Creating a session is the one place
// the quota ledger is debited.
type Store struct {
	sessions repositories.SessionRepository
	ledger   *quota.Ledger
	logger   *slog.Logger
	now      func() time.Time
}

func NewStore(sessions repositories.SessionRepository, ledger *quota.Ledger, logger *slog.Logger) *Store {
	return &Store{sessions: sessions, ledger: ledger, logger: logger, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetOrCreate returns the owner's active session for the topic, opening
// a new one (and debiting quota) when none usable exists. A session
// past the idle threshold is treated as absent. A session whose
// attempts are used up rejects further drafting.
func (s *Store) GetOrCreate(ctx context.Context, ownerID, category, topic string, tier models.Tier) (*models.GenerationSession, bool, error) {
	now := s.now()

	existing, err := s.sessions.GetByOwner(ctx, ownerID)
	switch {
	case err == nil:
		if existing.ExpiredAt(now) {
			s.logger.Info("session idle-expired", "session_id", existing.ID, "owner_id", ownerID)
			if err := s.sessions.DeleteByOwner(ctx, ownerID); err != nil {
				return nil, false, fmt.Errorf("expire session: %w", err)
			}
		} else if existing.Topic != topic || existing.Category != category {
			// A topic switch abandons the running session; the new topic
			// gets its own quota unit.
			if err := s.sessions.DeleteByOwner(ctx, ownerID); err != nil {
				return nil, false, fmt.Errorf("replace session: %w", err)
			}
		} else if existing.Exhausted() {
			return nil, false, &domain.SessionCapReachedError{
				Attempts:    existing.Attempts,
				MaxAttempts: existing.MaxAttempts,
			}
		} else {
			return existing, false, nil
		}
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	// Quota debit happens before create: a generation cancelled
	// mid-flight still consumed its unit.
	state, err := s.ledger.CheckAndReserve(ctx, ownerID, tier)
	if err != nil {
		return nil, false, err
	}

	created := &models.GenerationSession{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Category:    category,
		Topic:       topic,
		Tier:        state.Tier,
		Attempts:    0,
		MaxAttempts: models.MaxAttempts,
		Status:      models.SessionActive,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Create(ctx, created); err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}

	// Two tabs can race the create; re-read so both callers continue on
	// whichever session won.
	current, err := s.sessions.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, false, fmt.Errorf("reload session: %w", err)
	}

	s.logger.Info("session opened",
		"session_id", current.ID,
		"owner_id", ownerID,
		"category", category,
		"tier", current.Tier,
	)
	return current, true, nil
}

// Get returns the owner's current session without creating one.
func (s *Store) Get(ctx context.Context, ownerID string) (*models.GenerationSession, error) {
	return s.sessions.GetByOwner(ctx, ownerID)
}

// IncrementAttempts records that one attempt is fully finished: either
// its draft passed validation or its retry budget ran out.
func (s *Store) IncrementAttempts(ctx context.Context, session *models.GenerationSession) (*models.GenerationSession, error) {
	updated, err := s.sessions.IncrementAttempts(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("increment attempts: %w", err)
	}
	return updated, nil
}

// Complete deletes the session after the owner saved the draft.
func (s *Store) Complete(ctx context.Context, ownerID string) error {
	if err := s.sessions.DeleteByOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	s.logger.Info("session completed", "owner_id", ownerID)
	return nil
}

// Reset deletes the session without any quota side effects.
func (s *Store) Reset(ctx context.Context, ownerID string) error {
	if err := s.sessions.DeleteByOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	s.logger.Info("session reset", "owner_id", ownerID)
	return nil
}
