// Package web implements the HTML moderation console driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	httphandler "github.com/ericfisherdev/collegedesk/internal/adapter/driving/http"
	"github.com/ericfisherdev/collegedesk/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/collegedesk/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/collegedesk/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

const pageSize = 100

// Handler is the web driving adapter that serves the moderation console.
type Handler struct {
	moderation   *application.ModerationService
	entitlements *application.EntitlementService
	now          func() time.Time
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	moderation *application.ModerationService,
	entitlements *application.EntitlementService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		moderation:   moderation,
		entitlements: entitlements,
		now:          time.Now,
		logger:       logger,
	}
}

// requireOperator admits only callers whose profile carries the admin flag.
// It writes the 401, 403 or 500 response itself and reports whether to
// continue.
func (h *Handler) requireOperator(w http.ResponseWriter, r *http.Request) bool {
	userID := httphandler.UserIDFrom(r.Context())
	if userID == "" {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return false
	}

	ok, err := h.entitlements.IsOperator(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to check operator access", "user_id", userID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}
	if !ok {
		h.logger.Warn("operator access denied", "user_id", userID, "path", r.URL.Path)
		http.Error(w, "operator access required", http.StatusForbidden)
		return false
	}
	return true
}

// Index redirects to the moderation queue.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/moderation", http.StatusSeeOther)
}

// Moderation renders the review queue. Query parameters: status, flagged.
func (h *Handler) Moderation(w http.ResponseWriter, r *http.Request) {
	if !h.requireOperator(w, r) {
		return
	}

	q := r.URL.Query()
	filter := application.QueueFilter{Limit: pageSize}

	if v := q.Get("status"); v != "" {
		status, err := model.ParseModerationStatus(v)
		if err != nil {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}
	filter.FlaggedOnly, _ = strconv.ParseBool(q.Get("flagged"))

	ctx := r.Context()
	items, err := h.moderation.Queue(ctx, filter)
	if err != nil {
		h.logger.Error("failed to load moderation queue", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	stats, err := h.moderation.Stats(ctx)
	if err != nil {
		h.logger.Error("failed to load moderation stats", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	now := h.now()
	page := vm.QueuePageViewModel{
		Tabs:           toStatusTabs(stats, filter.Status, filter.FlaggedOnly),
		Reviews:        make([]vm.ReviewCardViewModel, 0, len(items)),
		FlaggedOnly:    filter.FlaggedOnly,
		FlaggedPending: stats.FlaggedPending,
		CSRFToken:      csrfToken(w, r),
	}
	for _, item := range items {
		page.Reviews = append(page.Reviews, toReviewCardViewModel(item, now))
	}
	if q.Get("updated") != "" {
		page.Notice = "Review " + q.Get("updated") + " updated."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Layout("Moderation", pages.Moderation(page)).Render(ctx, w); err != nil {
		h.logger.Error("failed to render moderation page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// SetStatus applies a moderation decision submitted from the console and
// redirects back to the queue.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireOperator(w, r) {
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	id := r.PathValue("id")
	status, err := model.ParseModerationStatus(r.FormValue("status"))
	if err != nil || r.FormValue("status") == "" {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	if err := h.moderation.SetStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, driven.ErrNotFound) {
			http.Error(w, "review not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to set review status", "review_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/moderation?updated="+url.QueryEscape(id), http.StatusSeeOther)
}
