package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// --- In-memory store fakes ---

type memReviewStore struct {
	mu      sync.Mutex
	reviews map[string]model.Review
	listErr error
	// sinceCalls records the user ids passed to ListByUserSince.
	sinceCalls []string
}

func newMemReviewStore(reviews ...model.Review) *memReviewStore {
	m := &memReviewStore{reviews: make(map[string]model.Review)}
	for _, r := range reviews {
		m.reviews[r.ID] = r
	}
	return m
}

func (m *memReviewStore) sorted() []model.Review {
	out := make([]model.Review, 0, len(m.reviews))
	for _, r := range m.reviews {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *memReviewStore) Create(_ context.Context, review model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[review.ID]; ok {
		return driven.ErrAlreadyExists
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *memReviewStore) GetByID(_ context.Context, id string) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return model.Review{}, driven.ErrNotFound
	}
	return r, nil
}

func (m *memReviewStore) List(_ context.Context, filter driven.ReviewFilter) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Review
	for _, r := range m.sorted() {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.CollegeID != "" && r.CollegeID != filter.CollegeID {
			continue
		}
		out = append(out, r)
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []model.Review{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memReviewStore) ListByUserSince(_ context.Context, userID string, since time.Time) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinceCalls = append(m.sinceCalls, userID)
	var out []model.Review
	for _, r := range m.sorted() {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReviewStore) CountByStatus(_ context.Context) (map[model.ModerationStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.ModerationStatus]int)
	for _, r := range m.reviews {
		counts[r.Status]++
	}
	return counts, nil
}

func (m *memReviewStore) UpdateStatus(_ context.Context, id string, status model.ModerationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return driven.ErrNotFound
	}
	r.Status = status
	m.reviews[id] = r
	return nil
}

func (m *memReviewStore) UpdateContent(_ context.Context, id, title, body string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return driven.ErrNotFound
	}
	r.Title, r.Body, r.Rating, r.Status = title, body, rating, model.ModerationPending
	m.reviews[id] = r
	return nil
}

func (m *memReviewStore) AddHelpful(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return driven.ErrNotFound
	}
	r.Helpful += delta
	m.reviews[id] = r
	return nil
}

func (m *memReviewStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[id]; !ok {
		return driven.ErrNotFound
	}
	delete(m.reviews, id)
	return nil
}

type memCollegeStore struct {
	colleges []model.College
	err      error
}

func (m *memCollegeStore) Upsert(_ context.Context, c model.College) error {
	for i, existing := range m.colleges {
		if existing.ID == c.ID {
			if len(c.Cutoffs) == 0 {
				c.Cutoffs = existing.Cutoffs
			}
			m.colleges[i] = c
			return nil
		}
	}
	m.colleges = append(m.colleges, c)
	return nil
}

func (m *memCollegeStore) GetByID(_ context.Context, id string) (model.College, error) {
	for _, c := range m.colleges {
		if c.ID == id {
			return c, nil
		}
	}
	return model.College{}, driven.ErrNotFound
}

func (m *memCollegeStore) ListWithCutoffs(_ context.Context) ([]model.College, error) {
	return m.colleges, m.err
}

func (m *memCollegeStore) ReplaceCutoffs(_ context.Context, id string, cutoffs []model.Cutoff) error {
	for i, c := range m.colleges {
		if c.ID == id {
			m.colleges[i].Cutoffs = cutoffs
			return nil
		}
	}
	return driven.ErrNotFound
}

type memProfileStore struct {
	profiles map[string]model.UserProfile
	err      error
	calls    int
}

func (m *memProfileStore) GetProfile(_ context.Context, userID string) (model.UserProfile, error) {
	m.calls++
	if m.err != nil {
		return model.UserProfile{}, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return model.UserProfile{}, driven.ErrNotFound
	}
	return p, nil
}

func (m *memProfileStore) UpsertProfile(_ context.Context, p model.UserProfile) error {
	if m.profiles == nil {
		m.profiles = make(map[string]model.UserProfile)
	}
	m.profiles[p.UserID] = p
	return nil
}

type memSavedStore struct {
	items []model.SavedCollege
}

func (m *memSavedStore) Save(ctx context.Context, s model.SavedCollege, limit model.Limit) error {
	for _, it := range m.items {
		if it.UserID == s.UserID && it.CollegeID == s.CollegeID {
			return driven.ErrAlreadyExists
		}
	}
	if n, _ := m.CountByUser(ctx, s.UserID); !limit.Allows(n + 1) {
		return driven.ErrSavedLimitReached
	}
	m.items = append(m.items, s)
	return nil
}

func (m *memSavedStore) Remove(_ context.Context, userID, collegeID string) error {
	for i, it := range m.items {
		if it.UserID == userID && it.CollegeID == collegeID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return driven.ErrNotFound
}

func (m *memSavedStore) ListByUser(_ context.Context, userID string) ([]model.SavedCollege, error) {
	var out []model.SavedCollege
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memSavedStore) CountByUser(ctx context.Context, userID string) (int, error) {
	items, _ := m.ListByUser(ctx, userID)
	return len(items), nil
}

// recordingRecorder captures recorder calls.
type recordingRecorder struct {
	flags       [][]model.Flag
	eligibility []string
}

func (r *recordingRecorder) RecordFlags(flags []model.Flag) {
	r.flags = append(r.flags, flags)
}

func (r *recordingRecorder) RecordEligibility(exam string, _ int, _ int) {
	r.eligibility = append(r.eligibility, exam)
}

var errStore = errors.New("store unavailable")
