package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileStore = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileStore port interface.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo backed by the given DB.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetProfile returns the stored profile claim for a user. A NULL tier is
// returned as the empty tier and resolved to base by the caller.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (model.UserProfile, error) {
	const query = `SELECT user_id, display_name, tier, is_admin, updated_at FROM user_profiles WHERE user_id = ?`

	var (
		p       model.UserProfile
		tier    sql.NullString
		isAdmin int
	)
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &tier, &isAdmin, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("get profile %q: %w", userID, driven.ErrNotFound)
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("get profile %q: %w", userID, err)
	}

	p.Tier = model.Tier(tier.String)
	p.IsAdmin = isAdmin != 0
	return p, nil
}

// UpsertProfile inserts or replaces a profile row.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, p model.UserProfile) error {
	const query = `
		INSERT INTO user_profiles (user_id, display_name, tier, is_admin, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			display_name = excluded.display_name,
			tier = excluded.tier,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at
	`

	var tier any
	if p.Tier != "" {
		tier = string(p.Tier)
	}
	isAdmin := 0
	if p.IsAdmin {
		isAdmin = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query, p.UserID, p.DisplayName, tier, isAdmin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert profile %q: %w", p.UserID, err)
	}
	return nil
}
