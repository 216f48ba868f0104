package application

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

const (
	// minBodyLength is the trimmed body length below which a review is flagged as short.
	minBodyLength = 20

	// burstWindow is the look-back window for counting an author's recent reviews.
	burstWindow = 24 * time.Hour

	// burstThreshold is the number of reviews by one author inside burstWindow
	// that marks burst posting.
	burstThreshold = 3

	// downvoteThreshold is the helpful tally below which a review is strongly downvoted.
	downvoteThreshold = -3
)

// EvaluateSpamFlags evaluates a review against the triage rules and returns the
// matching flags in rule order: short body, burst posting, downvoted.
//
// population is the sibling set used for the burst rule; it should contain the
// author's other reviews and, when the caller wants the target to count toward
// its own burst, the target itself. The burst window ends at now, not at the
// target's timestamp, so results change as the clock moves.
func EvaluateSpamFlags(target model.Review, population []model.Review, now time.Time) []model.Flag {
	flags := make([]model.Flag, 0, 3)

	if utf8.RuneCountInString(strings.TrimSpace(target.Body)) < minBodyLength {
		flags = append(flags, model.FlagShortBody)
	}

	if recentByAuthor(target.UserID, population, now) >= burstThreshold {
		flags = append(flags, model.FlagBurst)
	}

	if target.Helpful < downvoteThreshold {
		flags = append(flags, model.FlagDownvoted)
	}

	return flags
}

// recentByAuthor counts reviews by userID created less than burstWindow before now.
// Timestamps after now count as recent.
func recentByAuthor(userID string, population []model.Review, now time.Time) int {
	count := 0
	for _, r := range population {
		if r.UserID != userID {
			continue
		}
		if now.Sub(r.CreatedAt) < burstWindow {
			count++
		}
	}
	return count
}
