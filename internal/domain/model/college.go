package model

import "time"

// College is a listing in the directory.
type College struct {
	ID        string
	Name      string
	City      string
	State     string
	Cutoffs   []Cutoff
	UpdatedAt time.Time
}

// Cutoff is the admission threshold a college publishes for one exam.
// MinScore applies to score-mode exams and MaxRank to rank-mode exams; a nil
// bound means no constraint in that direction.
type Cutoff struct {
	ID        int64
	CollegeID string
	Exam      string
	MinScore  *float64
	MaxRank   *float64
}
