package httphandler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, the error is logged and a 500 is written
// instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Default().Error("failed to encode response", "type", fmt.Sprintf("%T", v), "error", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ReviewResponse is the JSON representation of a review with its computed flags.
type ReviewResponse struct {
	ID        string   `json:"id"`
	CollegeID string   `json:"college_id"`
	UserID    string   `json:"user_id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Rating    int      `json:"rating"`
	Helpful   int      `json:"helpful"`
	Status    string   `json:"status"`
	Flags     []string `json:"flags"`
	Flagged   bool     `json:"flagged"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// StatsResponse is the JSON representation of the moderation summary.
type StatsResponse struct {
	Pending        int `json:"pending"`
	Visible        int `json:"visible"`
	Hidden         int `json:"hidden"`
	FlaggedPending int `json:"flagged_pending"`
}

// SubmitReviewRequest is the JSON body for creating a review.
type SubmitReviewRequest struct {
	CollegeID string `json:"college_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Rating    int    `json:"rating"`
}

// EditReviewRequest is the JSON body for an owner edit.
type EditReviewRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Rating int    `json:"rating"`
}

// SetStatusRequest is the JSON body for a moderation decision.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// VoteRequest is the JSON body for a helpful vote.
type VoteRequest struct {
	Helpful bool `json:"helpful"`
}

// CutoffResponse is the JSON representation of one exam cutoff. Absent bounds
// are null.
type CutoffResponse struct {
	Exam     string   `json:"exam"`
	MinScore *float64 `json:"min_score"`
	MaxRank  *float64 `json:"max_rank"`
}

// CollegeResponse is the JSON representation of a college listing.
type CollegeResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	City    string           `json:"city"`
	State   string           `json:"state"`
	Cutoffs []CutoffResponse `json:"cutoffs"`
}

// EligibilityResponse is the JSON representation of an eligibility search.
type EligibilityResponse struct {
	Exam      string            `json:"exam"`
	ExamLabel string            `json:"exam_label"`
	Mode      string            `json:"mode"`
	Score     float64           `json:"score"`
	Colleges  []CollegeResponse `json:"colleges"`
}

// LimitsResponse is the JSON representation of a tier's ceilings. A null
// saved_slots means unlimited.
type LimitsResponse struct {
	Tier             string `json:"tier"`
	CompareSlots     int    `json:"compare_slots"`
	SavedSlots       *int   `json:"saved_slots"`
	AISummaryAllowed bool   `json:"ai_summary_allowed"`
}

// FeatureResponse reports whether a tier permits a feature.
type FeatureResponse struct {
	Tier    string `json:"tier"`
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
}

// EntitlementsResponse describes the caller's tier and current usage.
type EntitlementsResponse struct {
	UserID     string         `json:"user_id"`
	Limits     LimitsResponse `json:"limits"`
	SavedCount int            `json:"saved_count"`
}

// CompareRequest is the JSON body for a comparison request.
type CompareRequest struct {
	CollegeIDs []string `json:"college_ids"`
}

// CompareResponse is the JSON representation of an allowed comparison.
type CompareResponse struct {
	Colleges []CollegeResponse `json:"colleges"`
}

// SaveRequest is the JSON body for saving a college.
type SaveRequest struct {
	CollegeID string `json:"college_id"`
}

// SavedResponse is the JSON representation of a saved college.
type SavedResponse struct {
	ID        string `json:"id"`
	CollegeID string `json:"college_id"`
	SavedAt   string `json:"saved_at"`
}

// CutoffRequest is one exam cutoff in a catalog write.
type CutoffRequest struct {
	Exam     string   `json:"exam"`
	MinScore *float64 `json:"min_score"`
	MaxRank  *float64 `json:"max_rank"`
}

// UpsertCollegeRequest is the JSON body for creating or updating a college.
type UpsertCollegeRequest struct {
	Name    string          `json:"name"`
	City    string          `json:"city"`
	State   string          `json:"state"`
	Cutoffs []CutoffRequest `json:"cutoffs"`
}

// ReplaceCutoffsRequest is the JSON body for replacing a college's cutoffs.
type ReplaceCutoffsRequest struct {
	Cutoffs []CutoffRequest `json:"cutoffs"`
}

// CollegeEligibilityResponse reports whether a result qualifies for one college.
type CollegeEligibilityResponse struct {
	CollegeID string  `json:"college_id"`
	Exam      string  `json:"exam"`
	Mode      string  `json:"mode"`
	Score     float64 `json:"score"`
	Eligible  bool    `json:"eligible"`
}

// SetTierRequest is the JSON body for changing a user's tier.
type SetTierRequest struct {
	Tier string `json:"tier"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toReviewResponse converts a flagged review to its JSON response representation.
// Flags is always a non-nil array.
func toReviewResponse(f model.FlaggedReview) ReviewResponse {
	flags := make([]string, 0, len(f.Flags))
	for _, fl := range f.Flags {
		flags = append(flags, string(fl))
	}

	r := f.Review
	return ReviewResponse{
		ID:        r.ID,
		CollegeID: r.CollegeID,
		UserID:    r.UserID,
		Title:     r.Title,
		Body:      r.Body,
		Rating:    r.Rating,
		Helpful:   r.Helpful,
		Status:    string(r.Status),
		Flags:     flags,
		Flagged:   f.IsFlagged(),
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toStatsResponse(s application.ModerationStats) StatsResponse {
	return StatsResponse{
		Pending:        s.ByStatus[model.ModerationPending],
		Visible:        s.ByStatus[model.ModerationVisible],
		Hidden:         s.ByStatus[model.ModerationHidden],
		FlaggedPending: s.FlaggedPending,
	}
}

func toCollegeResponse(c model.College) CollegeResponse {
	cutoffs := make([]CutoffResponse, 0, len(c.Cutoffs))
	for _, co := range c.Cutoffs {
		cutoffs = append(cutoffs, CutoffResponse{
			Exam:     co.Exam,
			MinScore: co.MinScore,
			MaxRank:  co.MaxRank,
		})
	}
	return CollegeResponse{
		ID:      c.ID,
		Name:    c.Name,
		City:    c.City,
		State:   c.State,
		Cutoffs: cutoffs,
	}
}

func toCollegeResponses(colleges []model.College) []CollegeResponse {
	resp := make([]CollegeResponse, 0, len(colleges))
	for _, c := range colleges {
		resp = append(resp, toCollegeResponse(c))
	}
	return resp
}

func toLimitsResponse(tier string, l model.TierLimits) LimitsResponse {
	resp := LimitsResponse{
		Tier:             tier,
		CompareSlots:     l.CompareSlots,
		AISummaryAllowed: l.AISummaryAllowed,
	}
	if !l.SavedSlots.IsUnbounded() {
		n := int(l.SavedSlots)
		resp.SavedSlots = &n
	}
	return resp
}

func toSavedResponse(s model.SavedCollege) SavedResponse {
	return SavedResponse{
		ID:        s.ID,
		CollegeID: s.CollegeID,
		SavedAt:   s.SavedAt.UTC().Format(time.RFC3339),
	}
}
