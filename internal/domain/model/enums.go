package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidStatus is returned when a moderation status string is not one of
// the three known values.
var ErrInvalidStatus = errors.New("invalid moderation status")

// ModerationStatus represents the visibility state of a user-submitted review.
type ModerationStatus string

const (
	ModerationPending ModerationStatus = "pending"
	ModerationVisible ModerationStatus = "visible"
	ModerationHidden  ModerationStatus = "hidden"
)

// ModerationStatuses lists every valid status in display order.
var ModerationStatuses = []ModerationStatus{ModerationPending, ModerationVisible, ModerationHidden}

// ParseModerationStatus converts a stored or submitted value into a
// ModerationStatus. An empty value means the record was never moderated and
// maps to pending.
func ParseModerationStatus(s string) (ModerationStatus, error) {
	switch ModerationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModerationPending:
		return ModerationPending, nil
	case ModerationVisible:
		return ModerationVisible, nil
	case ModerationHidden:
		return ModerationHidden, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s ModerationStatus) Valid() bool {
	return s == ModerationPending || s == ModerationVisible || s == ModerationHidden
}
