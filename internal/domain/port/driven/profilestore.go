package driven

import (
	"context"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// ProfileStore exposes the identity provider's stored profile claims.
type ProfileStore interface {
	// GetProfile returns ErrNotFound when the user has no profile row.
	GetProfile(ctx context.Context, userID string) (model.UserProfile, error)
	UpsertProfile(ctx context.Context, profile model.UserProfile) error
}
