package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// ReviewFilter narrows a review listing. Zero-value fields do not filter.
// Results are ordered newest first.
type ReviewFilter struct {
	Status    model.ModerationStatus
	CollegeID string
	UserID    string
	Limit     int
	Offset    int
}

// ReviewStore defines the driven port for persisting college reviews.
type ReviewStore interface {
	Create(ctx context.Context, review model.Review) error
	// GetByID returns ErrNotFound when no review has the given id.
	GetByID(ctx context.Context, id string) (model.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]model.Review, error)
	// ListByUserSince returns the user's reviews created at or after since.
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Review, error)
	CountByStatus(ctx context.Context) (map[model.ModerationStatus]int, error)
	UpdateStatus(ctx context.Context, id string, status model.ModerationStatus) error
	// UpdateContent replaces the owner-editable fields and resets the status
	// to pending in the same write.
	UpdateContent(ctx context.Context, id, title, body string, rating int) error
	AddHelpful(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
}
