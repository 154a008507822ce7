package repositories

import (
	"context"

	"podium/internal/domain/models"
)

// SessionRepository persists the single active generation session per
// owner. Implementations must make IncrementAttempts a storage-level
// atomic update, not a read-modify-write.
type SessionRepository interface {
	// GetByOwner returns the owner's active session, or
	// domain.ErrNotFound when none exists.
	GetByOwner(ctx context.Context, ownerID string) (*models.GenerationSession, error)

	// Create stores a new session. At most one active session per owner:
	// when a row already exists the call is a no-op and callers re-read
	// to pick up the winner.
	Create(ctx context.Context, session *models.GenerationSession) error

	// IncrementAttempts atomically bumps the attempt counter and returns
	// the updated session.
	IncrementAttempts(ctx context.Context, id string) (*models.GenerationSession, error)

	// DeleteByOwner removes the owner's session. Deleting a non-existent
	// session is not an error.
	DeleteByOwner(ctx context.Context, ownerID string) error
}
