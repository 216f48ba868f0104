package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// ReviewRepo implements the ReviewStore port over the reviews table.
type ReviewRepo struct {
	client *Client
}

// NewReviewRepo creates a ReviewRepo that sends requests through client.
func NewReviewRepo(client *Client) *ReviewRepo {
	return &ReviewRepo{client: client}
}

const (
	reviewsTable = "reviews"
	reviewsOrder = "created_at.desc,id.asc"
)

// Create inserts a new review.
func (r *ReviewRepo) Create(ctx context.Context, review model.Review) error {
	if err := r.client.do(ctx, http.MethodPost, reviewsTable, nil, newReviewRow(review), "return=minimal", nil); err != nil {
		return fmt.Errorf("create review %q: %w", review.ID, err)
	}
	return nil
}

// GetByID returns a single review.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (model.Review, error) {
	q := url.Values{"select": {"*"}, "id": {eq(id)}}

	reviews, err := r.listReviews(ctx, q)
	if err != nil {
		return model.Review{}, fmt.Errorf("get review %q: %w", id, err)
	}
	if len(reviews) == 0 {
		return model.Review{}, fmt.Errorf("get review %q: %w", id, driven.ErrNotFound)
	}
	return reviews[0], nil
}

// List returns reviews matching the filter, newest first. A pending filter
// also matches rows whose status is NULL.
func (r *ReviewRepo) List(ctx context.Context, filter driven.ReviewFilter) ([]model.Review, error) {
	q := statusQuery(filter.Status)
	q.Set("select", "*")
	q.Set("order", reviewsOrder)
	if filter.CollegeID != "" {
		q.Set("college_id", eq(filter.CollegeID))
	}
	if filter.UserID != "" {
		q.Set("user_id", eq(filter.UserID))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}

	reviews, err := r.listReviews(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListByUserSince returns the user's reviews created at or after since, newest first.
func (r *ReviewRepo) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Review, error) {
	q := url.Values{
		"select":     {"*"},
		"user_id":    {eq(userID)},
		"created_at": {"gte." + since.UTC().Format(time.RFC3339Nano)},
		"order":      {reviewsOrder},
	}

	reviews, err := r.listReviews(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list reviews by %q: %w", userID, err)
	}
	return reviews, nil
}

// CountByStatus returns the number of reviews per moderation status. Each
// status is counted server-side; NULL statuses count as pending.
func (r *ReviewRepo) CountByStatus(ctx context.Context) (map[model.ModerationStatus]int, error) {
	counts := make(map[model.ModerationStatus]int, len(model.ModerationStatuses))
	for _, status := range model.ModerationStatuses {
		n, err := r.client.count(ctx, reviewsTable, statusQuery(status))
		if err != nil {
			return nil, fmt.Errorf("count %s reviews: %w", status, err)
		}
		if n > 0 {
			counts[status] = n
		}
	}
	return counts, nil
}

// statusQuery filters on a moderation status. Pending also matches NULL.
func statusQuery(status model.ModerationStatus) url.Values {
	q := url.Values{}
	switch status {
	case "":
	case model.ModerationPending:
		q.Set("or", "(status.eq.pending,status.is.null)")
	default:
		q.Set("status", eq(string(status)))
	}
	return q
}

// UpdateStatus sets the moderation status of a review.
func (r *ReviewRepo) UpdateStatus(ctx context.Context, id string, status model.ModerationStatus) error {
	patch := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	return r.patchReview(ctx, "update review status", id, patch)
}

// UpdateContent replaces the owner-editable fields and resets status to pending.
func (r *ReviewRepo) UpdateContent(ctx context.Context, id, title, body string, rating int) error {
	patch := map[string]any{
		"title":      title,
		"body":       body,
		"rating":     rating,
		"status":     string(model.ModerationPending),
		"updated_at": time.Now().UTC(),
	}
	return r.patchReview(ctx, "update review content", id, patch)
}

// AddHelpful adjusts the helpful tally through the add_review_helpful
// function, which increments server-side and returns the new tally or null
// when the review does not exist.
func (r *ReviewRepo) AddHelpful(ctx context.Context, id string, delta int) error {
	args := map[string]any{"review_id": id, "delta": delta}

	var tally *int
	if err := r.client.do(ctx, http.MethodPost, "rpc/add_review_helpful", nil, args, "", &tally); err != nil {
		return fmt.Errorf("add helpful vote %q: %w", id, err)
	}
	if tally == nil {
		return fmt.Errorf("add helpful vote %q: %w", id, driven.ErrNotFound)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	var deleted []reviewRow
	q := url.Values{"id": {eq(id)}}
	if err := r.client.do(ctx, http.MethodDelete, reviewsTable, q, nil, "return=representation", &deleted); err != nil {
		return fmt.Errorf("delete review %q: %w", id, err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("delete review %q: %w", id, driven.ErrNotFound)
	}
	return nil
}

func (r *ReviewRepo) patchReview(ctx context.Context, op, id string, patch map[string]any) error {
	var updated []reviewRow
	q := url.Values{"id": {eq(id)}}
	if err := r.client.do(ctx, http.MethodPatch, reviewsTable, q, patch, "return=representation", &updated); err != nil {
		return fmt.Errorf("%s %q: %w", op, id, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("%s %q: %w", op, id, driven.ErrNotFound)
	}
	return nil
}

func (r *ReviewRepo) listReviews(ctx context.Context, q url.Values) ([]model.Review, error) {
	var rows []reviewRow
	if err := r.client.do(ctx, http.MethodGet, reviewsTable, q, nil, "", &rows); err != nil {
		return nil, err
	}

	reviews := make([]model.Review, 0, len(rows))
	for _, row := range rows {
		review, err := row.toModel()
		if err != nil {
			return nil, fmt.Errorf("review %q: %w", row.ID, err)
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}
