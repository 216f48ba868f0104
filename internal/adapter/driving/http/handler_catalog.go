package httphandler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// UpsertCollege creates or updates the college at the path id. Omitting
// cutoffs keeps the stored set; an empty array clears it.
func (h *Handler) UpsertCollege(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpsertCollegeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	college := model.College{
		ID:      id,
		Name:    req.Name,
		City:    strings.TrimSpace(req.City),
		State:   strings.TrimSpace(req.State),
		Cutoffs: toCutoffs(req.Cutoffs),
	}
	if err := h.eligibility.UpsertCollege(r.Context(), college); err != nil {
		h.writeServiceError(w, "failed to store college", err, "college_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplaceCutoffs swaps the full cutoff set of an existing college.
func (h *Handler) ReplaceCutoffs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ReplaceCutoffsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cutoffs := toCutoffs(req.Cutoffs)
	if cutoffs == nil {
		cutoffs = []model.Cutoff{}
	}
	if err := h.eligibility.ReplaceCutoffs(r.Context(), id, cutoffs); err != nil {
		h.writeServiceError(w, "failed to replace cutoffs", err, "college_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CollegeEligibility checks a candidate's result against one college.
// Query parameters: exam (required), score (required).
func (h *Handler) CollegeEligibility(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()
	exam := strings.TrimSpace(q.Get("exam"))
	if exam == "" {
		writeError(w, http.StatusBadRequest, "exam is required")
		return
	}

	score, err := strconv.ParseFloat(q.Get("score"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid score parameter")
		return
	}

	eligible, err := h.eligibility.IsEligibleFor(r.Context(), id, exam, score)
	if err != nil {
		h.writeServiceError(w, "failed to check eligibility", err, "college_id", id, "exam", exam)
		return
	}

	writeJSON(w, http.StatusOK, CollegeEligibilityResponse{
		CollegeID: id,
		Exam:      model.ExamSlug(exam),
		Mode:      model.ExamMode(exam).String(),
		Score:     score,
		Eligible:  eligible,
	})
}

// SetUserTier changes a user's subscription tier.
func (h *Handler) SetUserTier(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")

	var req SetTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.entitlements.SetTier(r.Context(), userID, model.Tier(strings.TrimSpace(req.Tier))); err != nil {
		h.writeServiceError(w, "failed to set tier", err, "user_id", userID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toCutoffs keeps a nil request slice nil.
func toCutoffs(reqs []CutoffRequest) []model.Cutoff {
	if reqs == nil {
		return nil
	}
	cutoffs := make([]model.Cutoff, 0, len(reqs))
	for _, c := range reqs {
		cutoffs = append(cutoffs, model.Cutoff{
			Exam:     model.ExamSlug(c.Exam),
			MinScore: c.MinScore,
			MaxRank:  c.MaxRank,
		})
	}
	return cutoffs
}
