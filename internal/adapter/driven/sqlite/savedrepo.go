package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SavedStore = (*SavedRepo)(nil)

// SavedRepo is the SQLite implementation of the SavedStore port interface.
type SavedRepo struct {
	db *DB
}

// NewSavedRepo creates a new SavedRepo backed by the given DB.
func NewSavedRepo(db *DB) *SavedRepo {
	return &SavedRepo{db: db}
}

// Save bookmarks a college for a user. The ceiling is checked inside the
// INSERT so concurrent saves cannot overshoot it.
func (r *SavedRepo) Save(ctx context.Context, saved model.SavedCollege, limit model.Limit) error {
	const query = `INSERT INTO saved_colleges (id, user_id, college_id, saved_at)
		SELECT ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM saved_colleges WHERE user_id = ?) < ?`

	result, err := r.db.Writer.ExecContext(ctx, query,
		saved.ID, saved.UserID, saved.CollegeID, saved.SavedAt.UTC(),
		saved.UserID, int64(limit),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, driven.ErrAlreadyExists)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, driven.ErrNotFound)
		}
		return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, driven.ErrSavedLimitReached)
	}
	return nil
}

// Remove deletes a bookmark.
func (r *SavedRepo) Remove(ctx context.Context, userID, collegeID string) error {
	const query = `DELETE FROM saved_colleges WHERE user_id = ? AND college_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, userID, collegeID)
	if err != nil {
		return fmt.Errorf("remove saved college %q for %q: %w", collegeID, userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("remove saved college %q for %q: %w", collegeID, userID, driven.ErrNotFound)
	}
	return nil
}

// ListByUser returns a user's bookmarks, most recent first.
func (r *SavedRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedCollege, error) {
	const query = `SELECT id, user_id, college_id, saved_at FROM saved_colleges WHERE user_id = ? ORDER BY saved_at DESC, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query saved colleges for %q: %w", userID, err)
	}
	defer rows.Close()

	items := []model.SavedCollege{}
	for rows.Next() {
		var s model.SavedCollege
		if err := rows.Scan(&s.ID, &s.UserID, &s.CollegeID, &s.SavedAt); err != nil {
			return nil, fmt.Errorf("scan saved college: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved colleges: %w", err)
	}
	return items, nil
}

// CountByUser returns the number of bookmarks a user holds.
func (r *SavedRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM saved_colleges WHERE user_id = ?`

	var n int
	if err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count saved colleges for %q: %w", userID, err)
	}
	return n, nil
}
