package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CollegeStore = (*CollegeRepo)(nil)

// CollegeRepo is the SQLite implementation of the CollegeStore port interface.
type CollegeRepo struct {
	db *DB
}

// NewCollegeRepo creates a new CollegeRepo backed by the given DB.
func NewCollegeRepo(db *DB) *CollegeRepo {
	return &CollegeRepo{db: db}
}

// Upsert inserts or updates a college and replaces its cutoffs when any are given.
func (r *CollegeRepo) Upsert(ctx context.Context, college model.College) error {
	const query = `
		INSERT INTO colleges (id, name, city, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			city = excluded.city,
			state = excluded.state,
			updated_at = excluded.updated_at
	`

	updatedAt := college.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, college.ID, college.Name, college.City, college.State, updatedAt.UTC()); err != nil {
		return fmt.Errorf("upsert college %q: %w", college.ID, err)
	}

	if len(college.Cutoffs) > 0 {
		if err := replaceCutoffs(ctx, tx, college.ID, college.Cutoffs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit college %q: %w", college.ID, err)
	}
	return nil
}

// GetByID returns a college with its cutoffs.
func (r *CollegeRepo) GetByID(ctx context.Context, id string) (model.College, error) {
	const query = `SELECT id, name, city, state, updated_at FROM colleges WHERE id = ?`

	var c model.College
	err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.City, &c.State, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.College{}, fmt.Errorf("get college %q: %w", id, driven.ErrNotFound)
	}
	if err != nil {
		return model.College{}, fmt.Errorf("get college %q: %w", id, err)
	}

	cutoffs, err := r.cutoffs(ctx, `WHERE college_id = ?`, id)
	if err != nil {
		return model.College{}, err
	}
	c.Cutoffs = cutoffs[id]
	return c, nil
}

// ListWithCutoffs returns every college ordered by name, each with its cutoffs.
func (r *CollegeRepo) ListWithCutoffs(ctx context.Context) ([]model.College, error) {
	const query = `SELECT id, name, city, state, updated_at FROM colleges ORDER BY name, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query colleges: %w", err)
	}
	defer rows.Close()

	colleges := []model.College{}
	for rows.Next() {
		var c model.College
		if err := rows.Scan(&c.ID, &c.Name, &c.City, &c.State, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan college: %w", err)
		}
		colleges = append(colleges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate colleges: %w", err)
	}

	byCollege, err := r.cutoffs(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range colleges {
		colleges[i].Cutoffs = byCollege[colleges[i].ID]
	}

	return colleges, nil
}

// ReplaceCutoffs atomically replaces every cutoff of a college.
func (r *CollegeRepo) ReplaceCutoffs(ctx context.Context, collegeID string, cutoffs []model.Cutoff) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceCutoffs(ctx, tx, collegeID, cutoffs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cutoffs for %q: %w", collegeID, err)
	}
	return nil
}

func replaceCutoffs(ctx context.Context, tx *sql.Tx, collegeID string, cutoffs []model.Cutoff) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cutoffs WHERE college_id = ?`, collegeID); err != nil {
		return fmt.Errorf("clear cutoffs for %q: %w", collegeID, err)
	}

	const insert = `INSERT INTO cutoffs (college_id, exam, min_score, max_rank) VALUES (?, ?, ?, ?)`
	for _, c := range cutoffs {
		var minScore, maxRank any
		if c.MinScore != nil {
			minScore = *c.MinScore
		}
		if c.MaxRank != nil {
			maxRank = *c.MaxRank
		}
		if _, err := tx.ExecContext(ctx, insert, collegeID, c.Exam, minScore, maxRank); err != nil {
			return fmt.Errorf("insert cutoff %q for %q: %w", c.Exam, collegeID, err)
		}
	}
	return nil
}

// cutoffs loads cutoffs grouped by college id, in insertion order.
func (r *CollegeRepo) cutoffs(ctx context.Context, where string, args ...any) (map[string][]model.Cutoff, error) {
	query := `SELECT id, college_id, exam, min_score, max_rank FROM cutoffs ` + where + ` ORDER BY college_id, id`

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cutoffs: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]model.Cutoff)
	for rows.Next() {
		var (
			c                 model.Cutoff
			minScore, maxRank sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.CollegeID, &c.Exam, &minScore, &maxRank); err != nil {
			return nil, fmt.Errorf("scan cutoff: %w", err)
		}
		if minScore.Valid {
			v := minScore.Float64
			c.MinScore = &v
		}
		if maxRank.Valid {
			v := maxRank.Float64
			c.MaxRank = &v
		}
		out[c.CollegeID] = append(out[c.CollegeID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cutoffs: %w", err)
	}
	return out, nil
}
