package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// CollegeRepo implements the CollegeStore port over the colleges and cutoffs tables.
type CollegeRepo struct {
	client *Client
}

// NewCollegeRepo creates a CollegeRepo that sends requests through client.
func NewCollegeRepo(client *Client) *CollegeRepo {
	return &CollegeRepo{client: client}
}

const (
	collegesTable = "colleges"
	cutoffsTable  = "cutoffs"

	// collegeSelect embeds each college's cutoffs through the foreign key.
	collegeSelect = "*,cutoffs(*)"
)

// Upsert inserts or updates a college and replaces its cutoffs when any are given.
func (r *CollegeRepo) Upsert(ctx context.Context, college model.College) error {
	updatedAt := college.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	row := collegeRow{
		ID:        college.ID,
		Name:      college.Name,
		City:      college.City,
		State:     college.State,
		UpdatedAt: updatedAt.UTC(),
	}

	q := url.Values{"on_conflict": {"id"}}
	if err := r.client.do(ctx, http.MethodPost, collegesTable, q, row, "resolution=merge-duplicates,return=minimal", nil); err != nil {
		return fmt.Errorf("upsert college %q: %w", college.ID, err)
	}

	if len(college.Cutoffs) > 0 {
		return r.ReplaceCutoffs(ctx, college.ID, college.Cutoffs)
	}
	return nil
}

// GetByID returns a college with its cutoffs.
func (r *CollegeRepo) GetByID(ctx context.Context, id string) (model.College, error) {
	q := url.Values{"select": {collegeSelect}, "id": {eq(id)}}

	var rows []collegeRow
	if err := r.client.do(ctx, http.MethodGet, collegesTable, q, nil, "", &rows); err != nil {
		return model.College{}, fmt.Errorf("get college %q: %w", id, err)
	}
	if len(rows) == 0 {
		return model.College{}, fmt.Errorf("get college %q: %w", id, driven.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

// ListWithCutoffs returns every college ordered by name, each with its cutoffs.
func (r *CollegeRepo) ListWithCutoffs(ctx context.Context) ([]model.College, error) {
	q := url.Values{
		"select":        {collegeSelect},
		"order":         {"name.asc,id.asc"},
		"cutoffs.order": {"id.asc"},
	}

	var rows []collegeRow
	if err := r.client.do(ctx, http.MethodGet, collegesTable, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}

	colleges := make([]model.College, 0, len(rows))
	for _, row := range rows {
		colleges = append(colleges, row.toModel())
	}
	return colleges, nil
}

// ReplaceCutoffs deletes the college's cutoffs and inserts the given set.
// The REST surface has no transactions, so a failed insert leaves the
// college with no cutoffs until the call is retried.
func (r *CollegeRepo) ReplaceCutoffs(ctx context.Context, collegeID string, cutoffs []model.Cutoff) error {
	q := url.Values{"college_id": {eq(collegeID)}}
	if err := r.client.do(ctx, http.MethodDelete, cutoffsTable, q, nil, "return=minimal", nil); err != nil {
		return fmt.Errorf("clear cutoffs for %q: %w", collegeID, err)
	}

	if len(cutoffs) == 0 {
		return nil
	}

	rows := make([]cutoffRow, 0, len(cutoffs))
	for _, co := range cutoffs {
		rows = append(rows, cutoffRow{
			CollegeID: collegeID,
			Exam:      co.Exam,
			MinScore:  co.MinScore,
			MaxRank:   co.MaxRank,
		})
	}
	if err := r.client.do(ctx, http.MethodPost, cutoffsTable, nil, rows, "return=minimal", nil); err != nil {
		return fmt.Errorf("insert cutoffs for %q: %w", collegeID, err)
	}
	return nil
}
