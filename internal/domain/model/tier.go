package model

import (
	"math"
	"strconv"
)

// Tier is a subscription level controlling feature ceilings.
type Tier string

const (
	TierBase Tier = "base"
	TierMid  Tier = "mid"
	TierTop  Tier = "top"
)

// Limit is a countable ceiling. Unbounded means no ceiling.
type Limit int

// Unbounded marks a resource with no ceiling.
const Unbounded Limit = math.MaxInt

// IsUnbounded returns true if the limit imposes no ceiling.
func (l Limit) IsUnbounded() bool {
	return l == Unbounded
}

// Allows reports whether holding n items stays within the limit.
func (l Limit) Allows(n int) bool {
	return l.IsUnbounded() || n <= int(l)
}

// String renders the limit for display; unbounded limits render as "unlimited".
func (l Limit) String() string {
	if l.IsUnbounded() {
		return "unlimited"
	}
	return strconv.Itoa(int(l))
}

// TierLimits holds the ceilings and feature switches for one tier.
type TierLimits struct {
	CompareSlots     int
	SavedSlots       Limit
	AISummaryAllowed bool
}

// FeatureAISummary is the feature key for AI-generated college summaries.
const FeatureAISummary = "aiSummary"
