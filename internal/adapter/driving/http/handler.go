// Package httphandler implements the JSON REST API driving adapter.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	moderation   *application.ModerationService
	eligibility  *application.EligibilityService
	entitlements *application.EntitlementService
	metrics      http.Handler
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. metrics may be
// nil, in which case /metrics is not served.
func NewHandler(
	moderation *application.ModerationService,
	eligibility *application.EligibilityService,
	entitlements *application.EntitlementService,
	metrics http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		moderation:   moderation,
		eligibility:  eligibility,
		entitlements: entitlements,
		metrics:      metrics,
		logger:       logger,
	}
}

// RegisterAPIRoutes registers all REST API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Moderation. Queue inspection and decisions are operator-only.
	mux.HandleFunc("GET /api/v1/moderation/queue", h.operatorOnly(h.ModerationQueue))
	mux.HandleFunc("GET /api/v1/moderation/stats", h.operatorOnly(h.ModerationStats))
	mux.HandleFunc("GET /api/v1/reviews/{id}/flags", h.operatorOnly(h.ReviewFlags))
	mux.HandleFunc("POST /api/v1/reviews", h.SubmitReview)
	mux.HandleFunc("PATCH /api/v1/reviews/{id}", h.EditReview)
	mux.HandleFunc("PUT /api/v1/reviews/{id}/status", h.operatorOnly(h.SetReviewStatus))
	mux.HandleFunc("POST /api/v1/reviews/{id}/vote", h.VoteReview)
	mux.HandleFunc("DELETE /api/v1/reviews/{id}", h.operatorOnly(h.DeleteReview))

	// College catalog and user tiers.
	mux.HandleFunc("PUT /api/v1/colleges/{id}", h.operatorOnly(h.UpsertCollege))
	mux.HandleFunc("PUT /api/v1/colleges/{id}/cutoffs", h.operatorOnly(h.ReplaceCutoffs))
	mux.HandleFunc("GET /api/v1/colleges/{id}/eligibility", h.CollegeEligibility)
	mux.HandleFunc("PUT /api/v1/users/{id}/tier", h.operatorOnly(h.SetUserTier))

	// Eligibility and tiers.
	mux.HandleFunc("GET /api/v1/eligibility", h.Eligibility)
	mux.HandleFunc("GET /api/v1/tiers/{tier}", h.TierLimits)
	mux.HandleFunc("GET /api/v1/tiers/{tier}/features/{feature}", h.TierFeature)

	// Caller entitlements.
	mux.HandleFunc("GET /api/v1/me/entitlements", h.MyEntitlements)
	mux.HandleFunc("GET /api/v1/me/features/{feature}", h.MyFeature)
	mux.HandleFunc("POST /api/v1/compare", h.Compare)
	mux.HandleFunc("GET /api/v1/me/saved", h.ListSaved)
	mux.HandleFunc("POST /api/v1/me/saved", h.SaveCollege)
	mux.HandleFunc("DELETE /api/v1/me/saved/{collegeID}", h.UnsaveCollege)

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// NewServeMux creates an http.Handler with only the API routes registered and
// wrapped with middleware.
func NewServeMux(h *Handler, logger *slog.Logger, rec RequestRecorder) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger, rec)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps service and store errors to HTTP responses. Only
// unexpected errors are logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	switch {
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, driven.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, driven.ErrSavedLimitReached), errors.Is(err, driven.ErrCompareLimitExceeded):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, driven.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, model.ErrInvalidStatus), errors.Is(err, application.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, append(attrs, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUser returns the caller's user id, writing a 401 when anonymous.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := UserIDFrom(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}

// operatorOnly serves next only to operators. Anonymous callers get a 401 and
// authenticated non-operators a 403.
func (h *Handler) operatorOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		operator, err := h.entitlements.IsOperator(r.Context(), userID)
		if err != nil {
			h.writeServiceError(w, "failed to check operator access", err, "user_id", userID)
			return
		}
		if !operator {
			h.logger.Warn("operator access denied", "user_id", userID, "method", r.Method, "path", r.URL.Path)
			writeError(w, http.StatusForbidden, "operator access required")
			return
		}

		next(w, r)
	}
}
