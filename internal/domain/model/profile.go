package model

import "time"

// UserProfile is the profile claim exposed by the identity provider.
type UserProfile struct {
	UserID      string
	DisplayName string
	Tier        Tier
	IsAdmin     bool
	UpdatedAt   time.Time
}

// SavedCollege records a college bookmarked by a user.
type SavedCollege struct {
	ID        string
	UserID    string
	CollegeID string
	SavedAt   time.Time
}
