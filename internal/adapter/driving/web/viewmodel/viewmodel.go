// Package viewmodel defines presentation-ready structs for the moderation pages.
// View models decouple rendering from domain model types.
package viewmodel

// ReviewCardViewModel holds presentation-ready data for one review in the queue.
type ReviewCardViewModel struct {
	ID        string
	CollegeID string
	Author    string
	Title     string
	BodyHTML  string // sanitized markdown
	Rating    int
	Helpful   int
	Status    string
	Flags     []string
	Flagged   bool
	Age       string // e.g. "3h ago"
	// Actions lists the statuses an operator can move this review to.
	Actions []string
}

// StatusTabViewModel is one filter tab above the queue.
type StatusTabViewModel struct {
	Label  string
	Href   string
	Count  int
	Active bool
}

// QueuePageViewModel holds everything the moderation page renders.
type QueuePageViewModel struct {
	Tabs           []StatusTabViewModel
	Reviews        []ReviewCardViewModel
	FlaggedOnly    bool
	FlaggedPending int
	CSRFToken      string
	Notice         string
}
