package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

const (
	profilesTable = "user_profiles"
	savedTable    = "saved_colleges"
)

// ProfileRepo implements the ProfileStore port over the user_profiles table.
type ProfileRepo struct {
	client *Client
}

// NewProfileRepo creates a ProfileRepo that sends requests through client.
func NewProfileRepo(client *Client) *ProfileRepo {
	return &ProfileRepo{client: client}
}

// GetProfile returns the stored profile claim for a user.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	q := url.Values{"select": {"*"}, "user_id": {eq(userID)}}

	var rows []profileRow
	if err := r.client.do(ctx, http.MethodGet, profilesTable, q, nil, "", &rows); err != nil {
		return model.UserProfile{}, fmt.Errorf("get profile %q: %w", userID, err)
	}
	if len(rows) == 0 {
		return model.UserProfile{}, fmt.Errorf("get profile %q: %w", userID, driven.ErrNotFound)
	}

	row := rows[0]
	p := model.UserProfile{
		UserID:      row.UserID,
		DisplayName: row.DisplayName,
		IsAdmin:     row.IsAdmin,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Tier != nil {
		p.Tier = model.Tier(*row.Tier)
	}
	return p, nil
}

// UpsertProfile inserts or replaces a profile row.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, p model.UserProfile) error {
	row := profileRow{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		IsAdmin:     p.IsAdmin,
		UpdatedAt:   time.Now().UTC(),
	}
	if p.Tier != "" {
		tier := string(p.Tier)
		row.Tier = &tier
	}

	q := url.Values{"on_conflict": {"user_id"}}
	if err := r.client.do(ctx, http.MethodPost, profilesTable, q, row, "resolution=merge-duplicates,return=minimal", nil); err != nil {
		return fmt.Errorf("upsert profile %q: %w", p.UserID, err)
	}
	return nil
}

// SavedRepo implements the SavedStore port over the saved_colleges table.
type SavedRepo struct {
	client *Client
}

// NewSavedRepo creates a SavedRepo that sends requests through client.
func NewSavedRepo(client *Client) *SavedRepo {
	return &SavedRepo{client: client}
}

// Save bookmarks a college for a user. The REST surface has no conditional
// insert, so the row is written first and removed again when the count shows
// the ceiling was passed.
func (r *SavedRepo) Save(ctx context.Context, saved model.SavedCollege, limit model.Limit) error {
	if !limit.IsUnbounded() {
		n, err := r.CountByUser(ctx, saved.UserID)
		if err != nil {
			return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, err)
		}
		if !limit.Allows(n + 1) {
			return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, driven.ErrSavedLimitReached)
		}
	}

	row := savedRow{
		ID:        saved.ID,
		UserID:    saved.UserID,
		CollegeID: saved.CollegeID,
		SavedAt:   saved.SavedAt.UTC(),
	}
	if err := r.client.do(ctx, http.MethodPost, savedTable, nil, row, "return=minimal", nil); err != nil {
		return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, err)
	}
	if limit.IsUnbounded() {
		return nil
	}

	n, err := r.CountByUser(ctx, saved.UserID)
	if err != nil {
		return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, err)
	}
	if limit.Allows(n) {
		return nil
	}

	q := url.Values{"id": {eq(saved.ID)}}
	if err := r.client.do(ctx, http.MethodDelete, savedTable, q, nil, "return=minimal", nil); err != nil {
		return fmt.Errorf("roll back saved college %q for %q: %w", saved.CollegeID, saved.UserID, err)
	}
	return fmt.Errorf("save college %q for %q: %w", saved.CollegeID, saved.UserID, driven.ErrSavedLimitReached)
}

// Remove deletes a bookmark.
func (r *SavedRepo) Remove(ctx context.Context, userID, collegeID string) error {
	q := url.Values{"user_id": {eq(userID)}, "college_id": {eq(collegeID)}}

	var deleted []savedRow
	if err := r.client.do(ctx, http.MethodDelete, savedTable, q, nil, "return=representation", &deleted); err != nil {
		return fmt.Errorf("remove saved college %q for %q: %w", collegeID, userID, err)
	}
	if len(deleted) == 0 {
		return fmt.Errorf("remove saved college %q for %q: %w", collegeID, userID, driven.ErrNotFound)
	}
	return nil
}

// ListByUser returns a user's bookmarks, most recent first.
func (r *SavedRepo) ListByUser(ctx context.Context, userID string) ([]model.SavedCollege, error) {
	q := url.Values{
		"select":  {"*"},
		"user_id": {eq(userID)},
		"order":   {"saved_at.desc,id.asc"},
	}

	var rows []savedRow
	if err := r.client.do(ctx, http.MethodGet, savedTable, q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("list saved colleges for %q: %w", userID, err)
	}

	items := make([]model.SavedCollege, 0, len(rows))
	for _, row := range rows {
		items = append(items, model.SavedCollege{
			ID:        row.ID,
			UserID:    row.UserID,
			CollegeID: row.CollegeID,
			SavedAt:   row.SavedAt,
		})
	}
	return items, nil
}

// CountByUser returns the number of bookmarks a user holds.
func (r *SavedRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := r.client.count(ctx, savedTable, url.Values{"user_id": {eq(userID)}})
	if err != nil {
		return 0, fmt.Errorf("count saved colleges for %q: %w", userID, err)
	}
	return n, nil
}
