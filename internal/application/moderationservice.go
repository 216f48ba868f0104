package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// ErrValidation is returned when caller-supplied input fails validation.
var ErrValidation = errors.New("validation error")

// Recorder receives triage and eligibility outcomes for observability.
type Recorder interface {
	RecordFlags(flags []model.Flag)
	RecordEligibility(exam string, eligible int, total int)
}

type nopRecorder struct{}

func (nopRecorder) RecordFlags([]model.Flag) {}
func (nopRecorder) RecordEligibility(string, int, int) {}

// QueueFilter selects a page of the moderation queue.
type QueueFilter struct {
	Status      model.ModerationStatus // empty means every status
	FlaggedOnly bool
	Limit       int
	Offset      int
}

// ModerationStats summarises the moderation queue.
type ModerationStats struct {
	ByStatus       map[model.ModerationStatus]int
	FlaggedPending int
}

// ModerationService serves the operator moderation queue. Flags are computed
// on every read from the stored reviews and never written back.
type ModerationService struct {
	reviews  driven.ReviewStore
	recorder Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// NewModerationService creates a ModerationService backed by the given review store.
func NewModerationService(reviews driven.ReviewStore, logger *slog.Logger) *ModerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModerationService{
		reviews:  reviews,
		recorder: nopRecorder{},
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the wall clock used for the burst-posting window.
func (s *ModerationService) WithClock(now func() time.Time) *ModerationService {
	s.now = now
	return s
}

// WithRecorder attaches an observability recorder.
func (s *ModerationService) WithRecorder(r Recorder) *ModerationService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Queue returns reviews with their flags. With FlaggedOnly set, pagination is
// applied after filtering so a page never comes back short while more flagged
// reviews exist.
func (s *ModerationService) Queue(ctx context.Context, filter QueueFilter) ([]model.FlaggedReview, error) {
	storeFilter := driven.ReviewFilter{Status: filter.Status}
	if !filter.FlaggedOnly {
		storeFilter.Limit = filter.Limit
		storeFilter.Offset = filter.Offset
	}

	reviews, err := s.reviews.List(ctx, storeFilter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	flagged, err := s.flagAll(ctx, reviews)
	if err != nil {
		return nil, err
	}

	if !filter.FlaggedOnly {
		return flagged, nil
	}

	kept := make([]model.FlaggedReview, 0, len(flagged))
	for _, f := range flagged {
		if f.IsFlagged() {
			kept = append(kept, f)
		}
	}
	return paginate(kept, filter.Limit, filter.Offset), nil
}

// FlagsFor computes the flags for a single review.
func (s *ModerationService) FlagsFor(ctx context.Context, id string) (model.FlaggedReview, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return model.FlaggedReview{}, err
	}

	flagged, err := s.flagAll(ctx, []model.Review{review})
	if err != nil {
		return model.FlaggedReview{}, err
	}
	return flagged[0], nil
}

// flagAll evaluates every review against the author's recent postings. Only
// same-author reviews inside the burst window affect the result, so the
// sibling set is loaded per author rather than for the whole platform.
func (s *ModerationService) flagAll(ctx context.Context, reviews []model.Review) ([]model.FlaggedReview, error) {
	now := s.now()
	since := now.Add(-burstWindow)

	siblings := make(map[string][]model.Review)
	out := make([]model.FlaggedReview, 0, len(reviews))

	for _, r := range reviews {
		population, ok := siblings[r.UserID]
		if !ok {
			recent, err := s.reviews.ListByUserSince(ctx, r.UserID, since)
			if err != nil {
				return nil, fmt.Errorf("list recent reviews for user %q: %w", r.UserID, err)
			}
			population = recent
			siblings[r.UserID] = population
		}

		flags := EvaluateSpamFlags(r, population, now)
		s.recorder.RecordFlags(flags)
		out = append(out, model.FlaggedReview{Review: r, Flags: flags})
	}

	return out, nil
}

// Stats returns per-status counts and the number of flagged pending reviews.
func (s *ModerationService) Stats(ctx context.Context) (ModerationStats, error) {
	counts, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return ModerationStats{}, fmt.Errorf("count reviews by status: %w", err)
	}

	byStatus := make(map[model.ModerationStatus]int, len(model.ModerationStatuses))
	for _, st := range model.ModerationStatuses {
		byStatus[st] = counts[st]
	}

	pending, err := s.Queue(ctx, QueueFilter{Status: model.ModerationPending, FlaggedOnly: true})
	if err != nil {
		return ModerationStats{}, err
	}

	return ModerationStats{ByStatus: byStatus, FlaggedPending: len(pending)}, nil
}

// SetStatus applies an operator moderation decision.
func (s *ModerationService) SetStatus(ctx context.Context, id string, status model.ModerationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}
	if err := s.reviews.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("review status changed", "review_id", id, "status", status)
	return nil
}

// Submit stores a new review from an authenticated user. New reviews always
// start as pending.
func (s *ModerationService) Submit(ctx context.Context, review model.Review) (model.Review, error) {
	if strings.TrimSpace(review.UserID) == "" {
		return model.Review{}, driven.ErrForbidden
	}
	if strings.TrimSpace(review.CollegeID) == "" {
		return model.Review{}, fmt.Errorf("%w: college id is required", ErrValidation)
	}
	if err := validateRating(review.Rating); err != nil {
		return model.Review{}, err
	}

	now := s.now().UTC()
	review.ID = uuid.NewString()
	review.Status = model.ModerationPending
	review.Helpful = 0
	review.CreatedAt = now
	review.UpdatedAt = now

	if err := s.reviews.Create(ctx, review); err != nil {
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

// EditByOwner lets the author change a review's content. The edit sends the
// review back to pending.
func (s *ModerationService) EditByOwner(ctx context.Context, userID, id, title, body string, rating int) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if userID == "" || review.UserID != userID {
		return driven.ErrForbidden
	}
	if err := validateRating(rating); err != nil {
		return err
	}

	if err := s.reviews.UpdateContent(ctx, id, title, body, rating); err != nil {
		return err
	}
	s.logger.Info("review edited by owner, status reset to pending", "review_id", id, "user_id", userID)
	return nil
}

// Vote moves the helpful tally by one in either direction.
func (s *ModerationService) Vote(ctx context.Context, id string, up bool) error {
	delta := -1
	if up {
		delta = 1
	}
	return s.reviews.AddHelpful(ctx, id, delta)
}

// Delete removes a review unconditionally. This is an operator action and is
// independent of triage.
func (s *ModerationService) Delete(ctx context.Context, id string) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("review deleted", "review_id", id)
	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, rating)
	}
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
