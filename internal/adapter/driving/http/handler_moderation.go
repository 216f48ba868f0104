package httphandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

const (
	defaultQueueLimit = 50
	maxQueueLimit     = 200
)

// ModerationQueue returns a page of reviews with their computed flags.
// Query parameters: status (pending|visible|hidden, empty for all),
// flagged (bool), limit, offset.
func (h *Handler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	filter, err := parseQueueFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.moderation.Queue(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "failed to load moderation queue", err)
		return
	}

	resp := make([]ReviewResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toReviewResponse(item))
	}

	writeJSON(w, http.StatusOK, resp)
}

// ModerationStats returns per-status counts and the flagged pending total.
func (h *Handler) ModerationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.moderation.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, "failed to load moderation stats", err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

// ReviewFlags returns a single review with its computed flags.
func (h *Handler) ReviewFlags(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.moderation.FlagsFor(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "failed to compute review flags", err, "review_id", id)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(item))
}

// SubmitReview creates a pending review authored by the caller.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.moderation.Submit(r.Context(), model.Review{
		CollegeID: strings.TrimSpace(req.CollegeID),
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Body:      req.Body,
		Rating:    req.Rating,
	})
	if err != nil {
		h.writeServiceError(w, "failed to submit review", err, "college_id", req.CollegeID)
		return
	}

	item, err := h.moderation.FlagsFor(r.Context(), review.ID)
	if err != nil {
		// The review is stored; report it without flags.
		h.logger.Warn("failed to compute flags for new review", "review_id", review.ID, "error", err)
		item = model.FlaggedReview{Review: review}
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(item))
}

// EditReview lets the author change a review. The review returns to pending.
func (h *Handler) EditReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var req EditReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.moderation.EditByOwner(r.Context(), userID, id, strings.TrimSpace(req.Title), req.Body, req.Rating); err != nil {
		h.writeServiceError(w, "failed to edit review", err, "review_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetReviewStatus applies an operator moderation decision.
func (h *Handler) SetReviewStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	status, err := model.ParseModerationStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.moderation.SetStatus(r.Context(), id, status); err != nil {
		h.writeServiceError(w, "failed to set review status", err, "review_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VoteReview records a helpful or unhelpful vote.
func (h *Handler) VoteReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	id := r.PathValue("id")

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.moderation.Vote(r.Context(), id, req.Helpful); err != nil {
		h.writeServiceError(w, "failed to record vote", err, "review_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteReview removes a review unconditionally.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.moderation.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "failed to delete review", err, "review_id", id)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseQueueFilter reads the queue query parameters. An absent status lists
// every status.
func parseQueueFilter(r *http.Request) (application.QueueFilter, error) {
	q := r.URL.Query()
	filter := application.QueueFilter{Limit: defaultQueueLimit}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, err := model.ParseModerationStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}

	if v := q.Get("flagged"); v != "" {
		flagged, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidParam("flagged")
		}
		filter.FlaggedOnly = flagged
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return filter, errInvalidParam("limit")
		}
		filter.Limit = min(limit, maxQueueLimit)
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, errInvalidParam("offset")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func errInvalidParam(name string) error {
	return fmt.Errorf("invalid %s parameter", name)
}
