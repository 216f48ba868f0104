package web

import (
	"fmt"
	"net/url"
	"time"

	vm "github.com/ericfisherdev/collegedesk/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// toReviewCardViewModel converts a flagged review for display at now.
func toReviewCardViewModel(item model.FlaggedReview, now time.Time) vm.ReviewCardViewModel {
	r := item.Review

	flags := make([]string, 0, len(item.Flags))
	for _, f := range item.Flags {
		flags = append(flags, string(f))
	}

	actions := make([]string, 0, len(model.ModerationStatuses)-1)
	for _, s := range model.ModerationStatuses {
		if s != r.Status {
			actions = append(actions, string(s))
		}
	}

	return vm.ReviewCardViewModel{
		ID:        r.ID,
		CollegeID: r.CollegeID,
		Author:    r.UserID,
		Title:     r.Title,
		BodyHTML:  RenderMarkdown(r.Body),
		Rating:    r.Rating,
		Helpful:   r.Helpful,
		Status:    string(r.Status),
		Flags:     flags,
		Flagged:   item.IsFlagged(),
		Age:       formatAge(now.Sub(r.CreatedAt)),
		Actions:   actions,
	}
}

// toStatusTabs builds the filter tabs. An empty active status selects "all".
func toStatusTabs(stats application.ModerationStats, active model.ModerationStatus, flaggedOnly bool) []vm.StatusTabViewModel {
	total := 0
	for _, n := range stats.ByStatus {
		total += n
	}

	tabs := []vm.StatusTabViewModel{{
		Label:  "all",
		Href:   queuePath("", flaggedOnly),
		Count:  total,
		Active: active == "",
	}}
	for _, s := range model.ModerationStatuses {
		tabs = append(tabs, vm.StatusTabViewModel{
			Label:  string(s),
			Href:   queuePath(s, flaggedOnly),
			Count:  stats.ByStatus[s],
			Active: active == s,
		})
	}
	return tabs
}

// queuePath returns the moderation page URL for a filter combination.
func queuePath(status model.ModerationStatus, flaggedOnly bool) string {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if flaggedOnly {
		q.Set("flagged", "true")
	}
	if len(q) == 0 {
		return "/moderation"
	}
	return "/moderation?" + q.Encode()
}

// formatAge renders a coarse relative age. Future timestamps read "just now".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
