package httphandler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// Eligibility lists the colleges a candidate qualifies for.
// Query parameters: exam (required), score (required; the rank for rank-mode exams).
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
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

	colleges, err := h.eligibility.EligibleColleges(r.Context(), exam, score)
	if err != nil {
		h.writeServiceError(w, "failed to compute eligibility", err, "exam", exam)
		return
	}

	writeJSON(w, http.StatusOK, EligibilityResponse{
		Exam:      model.ExamSlug(exam),
		ExamLabel: model.ExamLabel(exam),
		Mode:      model.ExamMode(exam).String(),
		Score:     score,
		Colleges:  toCollegeResponses(colleges),
	})
}

// TierLimits returns the ceilings for a tier. Unknown tiers report base limits.
func (h *Handler) TierLimits(w http.ResponseWriter, r *http.Request) {
	tier := r.PathValue("tier")
	resolved := application.ResolveTier(tier)

	writeJSON(w, http.StatusOK, toLimitsResponse(string(resolved), application.GetTierLimits(tier)))
}

// TierFeature reports whether a tier permits a named feature.
func (h *Handler) TierFeature(w http.ResponseWriter, r *http.Request) {
	tier := r.PathValue("tier")
	feature := r.PathValue("feature")

	writeJSON(w, http.StatusOK, FeatureResponse{
		Tier:    string(application.ResolveTier(tier)),
		Feature: feature,
		Allowed: application.IsFeatureAllowed(tier, feature),
	})
}

// MyFeature reports whether the caller's tier permits a named feature.
// Anonymous callers are checked at base tier.
func (h *Handler) MyFeature(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())
	feature := r.PathValue("feature")

	writeJSON(w, http.StatusOK, FeatureResponse{
		Tier:    string(h.entitlements.TierFor(r.Context(), userID)),
		Feature: feature,
		Allowed: h.entitlements.FeatureAllowed(r.Context(), userID, feature),
	})
}

// MyEntitlements returns the caller's tier limits and saved-college usage.
// Anonymous callers receive base limits.
func (h *Handler) MyEntitlements(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())
	tier := h.entitlements.TierFor(r.Context(), userID)

	resp := EntitlementsResponse{
		UserID: userID,
		Limits: toLimitsResponse(string(tier), application.GetTierLimits(string(tier))),
	}

	if userID != "" {
		n, err := h.entitlements.SavedCount(r.Context(), userID)
		if err != nil {
			h.writeServiceError(w, "failed to count saved colleges", err, "user_id", userID)
			return
		}
		resp.SavedCount = n
	}

	writeJSON(w, http.StatusOK, resp)
}

// Compare returns the requested colleges when the caller's tier has enough
// compare slots.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := UserIDFrom(r.Context())
	if err := h.entitlements.CheckCompare(r.Context(), userID, req.CollegeIDs); err != nil {
		h.writeServiceError(w, "failed to check compare limit", err, "user_id", userID)
		return
	}

	colleges, err := h.eligibility.CollegesByID(r.Context(), req.CollegeIDs)
	if err != nil {
		h.writeServiceError(w, "failed to load colleges for comparison", err)
		return
	}

	writeJSON(w, http.StatusOK, CompareResponse{Colleges: toCollegeResponses(colleges)})
}

// ListSaved returns the caller's saved colleges.
func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	saved, err := h.entitlements.Saved(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, "failed to list saved colleges", err, "user_id", userID)
		return
	}

	resp := make([]SavedResponse, 0, len(saved))
	for _, s := range saved {
		resp = append(resp, toSavedResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SaveCollege bookmarks a college within the caller's saved-item ceiling.
func (h *Handler) SaveCollege(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.entitlements.SaveCollege(r.Context(), userID, strings.TrimSpace(req.CollegeID))
	if err != nil {
		h.writeServiceError(w, "failed to save college", err, "user_id", userID, "college_id", req.CollegeID)
		return
	}

	writeJSON(w, http.StatusCreated, toSavedResponse(saved))
}

// UnsaveCollege removes a bookmark.
func (h *Handler) UnsaveCollege(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	collegeID := r.PathValue("collegeID")

	if err := h.entitlements.UnsaveCollege(r.Context(), userID, collegeID); err != nil {
		h.writeServiceError(w, "failed to remove saved college", err, "user_id", userID, "college_id", collegeID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
