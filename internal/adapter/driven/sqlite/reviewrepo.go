package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewRepo)(nil)

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
// NULL body, helpful and status columns are read back as "", 0 and pending.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const reviewColumns = `id, college_id, user_id, title, body, rating, helpful, status, created_at, updated_at`

// Create inserts a new review.
func (r *ReviewRepo) Create(ctx context.Context, review model.Review) error {
	const query = `INSERT INTO reviews (` + reviewColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	status := review.Status
	if status == "" {
		status = model.ModerationPending
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		review.ID, review.CollegeID, review.UserID, review.Title, review.Body,
		review.Rating, review.Helpful, string(status),
		review.CreatedAt.UTC(), review.UpdatedAt.UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("create review %q: %w", review.ID, driven.ErrAlreadyExists)
		}
		return fmt.Errorf("create review %q: %w", review.ID, err)
	}
	return nil
}

// GetByID returns a single review.
func (r *ReviewRepo) GetByID(ctx context.Context, id string) (model.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ?`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, fmt.Errorf("get review %q: %w", id, driven.ErrNotFound)
	}
	if err != nil {
		return model.Review{}, fmt.Errorf("get review %q: %w", id, err)
	}
	return review, nil
}

// List returns reviews matching the filter, newest first.
func (r *ReviewRepo) List(ctx context.Context, filter driven.ReviewFilter) ([]model.Review, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, `COALESCE(status, 'pending') = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.CollegeID != "" {
		where = append(where, `college_id = ?`)
		args = append(args, filter.CollegeID)
	}
	if filter.UserID != "" {
		where = append(where, `user_id = ?`)
		args = append(args, filter.UserID)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + reviewColumns + ` FROM reviews`)
	if len(where) > 0 {
		b.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	b.WriteString(` ORDER BY created_at DESC, id`)

	// SQLite requires a LIMIT before OFFSET; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		b.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, limit, max(filter.Offset, 0))
	}

	return r.query(ctx, b.String(), args...)
}

// ListByUserSince returns the user's reviews created at or after since, newest first.
func (r *ReviewRepo) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Review, error) {
	const query = `SELECT ` + reviewColumns + ` FROM reviews WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC, id`
	return r.query(ctx, query, userID, since.UTC())
}

// CountByStatus returns the number of reviews per moderation status.
func (r *ReviewRepo) CountByStatus(ctx context.Context) (map[model.ModerationStatus]int, error) {
	const query = `SELECT COALESCE(status, 'pending'), COUNT(*) FROM reviews GROUP BY 1`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count reviews by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.ModerationStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[model.ModerationStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// UpdateStatus sets the moderation status of a review.
func (r *ReviewRepo) UpdateStatus(ctx context.Context, id string, status model.ModerationStatus) error {
	const query = `UPDATE reviews SET status = ?, updated_at = ? WHERE id = ?`
	return r.execOne(ctx, "update review status", id, query, string(status), time.Now().UTC(), id)
}

// UpdateContent replaces the owner-editable fields and resets status to pending.
func (r *ReviewRepo) UpdateContent(ctx context.Context, id, title, body string, rating int) error {
	const query = `UPDATE reviews SET title = ?, body = ?, rating = ?, status = 'pending', updated_at = ? WHERE id = ?`
	return r.execOne(ctx, "update review content", id, query, title, body, rating, time.Now().UTC(), id)
}

// AddHelpful adjusts the helpful tally by delta. A NULL tally counts as zero.
func (r *ReviewRepo) AddHelpful(ctx context.Context, id string, delta int) error {
	const query = `UPDATE reviews SET helpful = COALESCE(helpful, 0) + ? WHERE id = ?`
	return r.execOne(ctx, "add helpful vote", id, query, delta, id)
}

// Delete removes a review.
func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reviews WHERE id = ?`
	return r.execOne(ctx, "delete review", id, query, id)
}

// execOne runs a write that must touch exactly one review row.
func (r *ReviewRepo) execOne(ctx context.Context, op, id, query string, args ...any) error {
	result, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", op, id, driven.ErrNotFound)
	}
	return nil
}

func (r *ReviewRepo) query(ctx context.Context, query string, args ...any) ([]model.Review, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReview(s scanner) (model.Review, error) {
	var (
		review  model.Review
		body    sql.NullString
		helpful sql.NullInt64
		status  sql.NullString
	)

	err := s.Scan(
		&review.ID, &review.CollegeID, &review.UserID, &review.Title, &body,
		&review.Rating, &helpful, &status, &review.CreatedAt, &review.UpdatedAt,
	)
	if err != nil {
		return model.Review{}, err
	}

	review.Body = body.String
	review.Helpful = int(helpful.Int64)

	parsed, err := model.ParseModerationStatus(status.String)
	if err != nil {
		return model.Review{}, err
	}
	review.Status = parsed

	return review, nil
}
