package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	userIDKey contextKey = "userID"
	tierKey   contextKey = "tier"
)

// WithUserID adds the authenticated user id to the request context.
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID retrieves the user id from context, empty when not set.
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithTier adds the billing tier claim to the request context.
func WithTier(r *http.Request, tier string) *http.Request {
	ctx := context.WithValue(r.Context(), tierKey, tier)
	return r.WithContext(ctx)
}

// GetTier retrieves the billing tier from context, empty when not set.
func GetTier(r *http.Request) string {
	tier, _ := r.Context().Value(tierKey).(string)
	return tier
}
