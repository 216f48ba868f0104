package driven

import (
	"context"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// CollegeStore defines the driven port for college listings and their exam cutoffs.
type CollegeStore interface {
	Upsert(ctx context.Context, college model.College) error
	// GetByID returns the college with its cutoffs populated, or ErrNotFound.
	GetByID(ctx context.Context, id string) (model.College, error)
	// ListWithCutoffs returns every college with its cutoffs populated.
	ListWithCutoffs(ctx context.Context) ([]model.College, error)
	// ReplaceCutoffs atomically swaps the full cutoff set of one college.
	ReplaceCutoffs(ctx context.Context, collegeID string, cutoffs []model.Cutoff) error
}
