package repository

import "context"

// UserDirectory resolves bidder display names. Lookups are best effort:
// callers substitute a placeholder on failure and never fail the request.
type UserDirectory interface {
	GetNameByID(ctx context.Context, userID string) (string, error)
}
