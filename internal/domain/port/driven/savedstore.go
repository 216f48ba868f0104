package driven

import (
	"context"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// SavedStore defines the driven port for a user's bookmarked colleges.
type SavedStore interface {
	// Save stores the bookmark only while the user holds fewer than limit
	// bookmarks, checked in the same write. It returns ErrSavedLimitReached
	// when the ceiling is hit and ErrAlreadyExists if the college is already
	// saved by the user.
	Save(ctx context.Context, saved model.SavedCollege, limit model.Limit) error
	// Remove returns ErrNotFound if the college was not saved.
	Remove(ctx context.Context, userID, collegeID string) error
	ListByUser(ctx context.Context, userID string) ([]model.SavedCollege, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
