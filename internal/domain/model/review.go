package model

import "time"

// Review is a user-submitted review of a college.
//
// Optional columns are normalised at the storage boundary: a missing body is
// the empty string and a missing helpful tally is zero.
type Review struct {
	ID        string
	CollegeID string
	UserID    string
	Title     string
	Body      string
	Rating    int // 1-5
	Helpful   int // signed vote tally
	Status    ModerationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Flag is an advisory label explaining why a review was surfaced to an operator.
// Flags are computed on read and never persisted.
type Flag string

const (
	FlagShortBody Flag = "Very short review"
	FlagBurst     Flag = "3+ reviews in 24 hrs"
	FlagDownvoted Flag = "Strongly downvoted"
)

// FlaggedReview pairs a review with the flags computed for it at query time.
type FlaggedReview struct {
	Review Review
	Flags  []Flag
}

// IsFlagged returns true if at least one flag is present.
func (f FlaggedReview) IsFlagged() bool {
	return len(f.Flags) > 0
}
