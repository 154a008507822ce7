// Package memory provides in-process repository implementations for
// dev mode and tests. Mutations hold a single mutex, giving the same
// atomic increment/merge guarantees the Postgres layer gets from SQL.
package memory

import (
	"context"
	"sync"

	"podium/internal/domain"
	"podium/internal/domain/models"
	"podium/internal/domain/repositories"
)

// SessionRepository keeps the active session per owner in a map.
type SessionRepository struct {
	mu      sync.Mutex
	byOwner map[string]*models.GenerationSession
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{byOwner: make(map[string]*models.GenerationSession)}
}

var _ repositories.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) GetByOwner(_ context.Context, ownerID string) (*models.GenerationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byOwner[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *SessionRepository) Create(_ context.Context, session *models.GenerationSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// First writer wins; a racing second create continues on the
	// existing session after its re-read.
	if _, ok := r.byOwner[session.OwnerID]; ok {
		return nil
	}
	cp := *session
	r.byOwner[session.OwnerID] = &cp
	return nil
}

func (r *SessionRepository) IncrementAttempts(_ context.Context, id string) (*models.GenerationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byOwner {
		if s.ID == id {
			s.Attempts++
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *SessionRepository) DeleteByOwner(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byOwner, ownerID)
	return nil
}
