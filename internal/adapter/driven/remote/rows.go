package remote

import (
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// reviewRow is the JSON shape of a reviews row. Body, helpful and status are
// nullable upstream.
type reviewRow struct {
	ID        string    `json:"id"`
	CollegeID string    `json:"college_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      *string   `json:"body"`
	Rating    int       `json:"rating"`
	Helpful   *int      `json:"helpful"`
	Status    *string   `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newReviewRow(r model.Review) reviewRow {
	body := r.Body
	helpful := r.Helpful
	status := string(r.Status)
	if status == "" {
		status = string(model.ModerationPending)
	}
	return reviewRow{
		ID:        r.ID,
		CollegeID: r.CollegeID,
		UserID:    r.UserID,
		Title:     r.Title,
		Body:      &body,
		Rating:    r.Rating,
		Helpful:   &helpful,
		Status:    &status,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (row reviewRow) toModel() (model.Review, error) {
	r := model.Review{
		ID:        row.ID,
		CollegeID: row.CollegeID,
		UserID:    row.UserID,
		Title:     row.Title,
		Rating:    row.Rating,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.Body != nil {
		r.Body = *row.Body
	}
	if row.Helpful != nil {
		r.Helpful = *row.Helpful
	}

	var status string
	if row.Status != nil {
		status = *row.Status
	}
	parsed, err := model.ParseModerationStatus(status)
	if err != nil {
		return model.Review{}, err
	}
	r.Status = parsed
	return r, nil
}

type cutoffRow struct {
	ID        int64    `json:"id,omitempty"`
	CollegeID string   `json:"college_id"`
	Exam      string   `json:"exam"`
	MinScore  *float64 `json:"min_score"`
	MaxRank   *float64 `json:"max_rank"`
}

type collegeRow struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
	Cutoffs   []cutoffRow `json:"cutoffs,omitempty"`
}

func (row collegeRow) toModel() model.College {
	c := model.College{
		ID:        row.ID,
		Name:      row.Name,
		City:      row.City,
		State:     row.State,
		UpdatedAt: row.UpdatedAt,
	}
	for _, cr := range row.Cutoffs {
		c.Cutoffs = append(c.Cutoffs, model.Cutoff{
			ID:        cr.ID,
			CollegeID: row.ID,
			Exam:      cr.Exam,
			MinScore:  cr.MinScore,
			MaxRank:   cr.MaxRank,
		})
	}
	return c
}

type profileRow struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Tier        *string   `json:"tier"`
	IsAdmin     bool      `json:"is_admin"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type savedRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CollegeID string    `json:"college_id"`
	SavedAt   time.Time `json:"saved_at"`
}
