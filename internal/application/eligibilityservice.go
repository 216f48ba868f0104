package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// EligibilityService matches a candidate's exam result against every listed college.
type EligibilityService struct {
	colleges driven.CollegeStore
	recorder Recorder
	logger   *slog.Logger
}

// NewEligibilityService creates a new EligibilityService.
func NewEligibilityService(colleges driven.CollegeStore, logger *slog.Logger) *EligibilityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EligibilityService{
		colleges: colleges,
		recorder: nopRecorder{},
		logger:   logger,
	}
}

// WithRecorder attaches an observability recorder.
func (s *EligibilityService) WithRecorder(r Recorder) *EligibilityService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// EligibleColleges returns the colleges a candidate qualifies for, in store order.
// For rank-mode exams score is the candidate's rank.
func (s *EligibilityService) EligibleColleges(ctx context.Context, exam string, score float64) ([]model.College, error) {
	if err := validateResult(exam, score); err != nil {
		return nil, err
	}

	colleges, err := s.colleges.ListWithCutoffs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}

	eligible := make([]model.College, 0, len(colleges))
	for _, c := range colleges {
		if CheckEligibility(exam, score, c.Cutoffs) {
			eligible = append(eligible, c)
		}
	}

	slug := model.ExamSlug(exam)
	s.recorder.RecordEligibility(slug, len(eligible), len(colleges))
	s.logger.Debug("eligibility computed", "exam", slug, "score", score, "eligible", len(eligible), "total", len(colleges))

	return eligible, nil
}

// IsEligibleFor checks a single college.
func (s *EligibilityService) IsEligibleFor(ctx context.Context, collegeID, exam string, score float64) (bool, error) {
	if err := validateResult(exam, score); err != nil {
		return false, err
	}
	college, err := s.colleges.GetByID(ctx, collegeID)
	if err != nil {
		return false, err
	}
	return CheckEligibility(exam, score, college.Cutoffs), nil
}

// UpsertCollege creates or updates a listing. When college.Cutoffs is non-nil
// the stored cutoff set is replaced with it; a nil slice leaves cutoffs as
// they are.
func (s *EligibilityService) UpsertCollege(ctx context.Context, college model.College) error {
	college.ID = strings.TrimSpace(college.ID)
	college.Name = strings.TrimSpace(college.Name)
	if college.ID == "" {
		return fmt.Errorf("%w: college id is required", ErrValidation)
	}
	if college.Name == "" {
		return fmt.Errorf("%w: college name is required", ErrValidation)
	}
	if err := validateCutoffs(college.Cutoffs); err != nil {
		return err
	}

	// The store writes a non-empty cutoff set in the same transaction.
	if err := s.colleges.Upsert(ctx, college); err != nil {
		return fmt.Errorf("store college %q: %w", college.ID, err)
	}
	if college.Cutoffs != nil && len(college.Cutoffs) == 0 {
		if err := s.colleges.ReplaceCutoffs(ctx, college.ID, nil); err != nil {
			return fmt.Errorf("clear cutoffs for %q: %w", college.ID, err)
		}
	}
	s.logger.Info("college stored", "college_id", college.ID, "cutoffs", len(college.Cutoffs))
	return nil
}

// ReplaceCutoffs swaps the full cutoff set of an existing college. An empty
// set clears it.
func (s *EligibilityService) ReplaceCutoffs(ctx context.Context, collegeID string, cutoffs []model.Cutoff) error {
	if err := validateCutoffs(cutoffs); err != nil {
		return err
	}
	if _, err := s.colleges.GetByID(ctx, collegeID); err != nil {
		return err
	}
	if err := s.colleges.ReplaceCutoffs(ctx, collegeID, cutoffs); err != nil {
		return fmt.Errorf("store cutoffs for %q: %w", collegeID, err)
	}
	return nil
}

func validateResult(exam string, score float64) error {
	if strings.TrimSpace(exam) == "" {
		return fmt.Errorf("%w: exam is required", ErrValidation)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: score must be a finite number", ErrValidation)
	}
	if score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrValidation)
	}
	return nil
}

func validateCutoffs(cutoffs []model.Cutoff) error {
	seen := make(map[string]struct{}, len(cutoffs))
	for _, c := range cutoffs {
		if strings.TrimSpace(c.Exam) == "" {
			return fmt.Errorf("%w: cutoff exam is required", ErrValidation)
		}
		slug := model.ExamSlug(c.Exam)
		if _, dup := seen[slug]; dup {
			return fmt.Errorf("%w: duplicate cutoff for %s", ErrValidation, slug)
		}
		seen[slug] = struct{}{}
		for _, bound := range []*float64{c.MinScore, c.MaxRank} {
			if bound != nil && (math.IsNaN(*bound) || math.IsInf(*bound, 0) || *bound < 0) {
				return fmt.Errorf("%w: cutoff bounds for %s must be finite and not negative", ErrValidation, slug)
			}
		}
	}
	return nil
}

// CollegesByID loads the given colleges in request order. An unknown id
// returns ErrNotFound.
func (s *EligibilityService) CollegesByID(ctx context.Context, ids []string) ([]model.College, error) {
	colleges := make([]model.College, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		c, err := s.colleges.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load college %q: %w", id, err)
		}
		colleges = append(colleges, c)
	}
	return colleges, nil
}
