package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// EntitlementService resolves a user's subscription tier from the identity
// provider's profile claim and enforces the tier's ceilings. Anonymous users,
// users without a profile, and lookups that fail all resolve to the base tier.
type EntitlementService struct {
	profiles driven.ProfileStore
	saved    driven.SavedStore
	tiers    *cache.Cache
	now      func() time.Time
	logger   *slog.Logger
}

// NewEntitlementService creates an EntitlementService. Resolved tiers are
// cached for tierTTL; a zero TTL disables caching.
func NewEntitlementService(profiles driven.ProfileStore, saved driven.SavedStore, tierTTL time.Duration, logger *slog.Logger) *EntitlementService {
	if logger == nil {
		logger = slog.Default()
	}
	var tiers *cache.Cache
	if tierTTL > 0 {
		tiers = cache.New(tierTTL, 2*tierTTL)
	}
	return &EntitlementService{
		profiles: profiles,
		saved:    saved,
		tiers:    tiers,
		now:      time.Now,
		logger:   logger,
	}
}

// TierFor returns the tier for userID.
func (s *EntitlementService) TierFor(ctx context.Context, userID string) model.Tier {
	if userID == "" {
		return model.TierBase
	}

	if s.tiers != nil {
		if v, ok := s.tiers.Get(userID); ok {
			return v.(model.Tier)
		}
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, driven.ErrNotFound) {
			// Not cached: a transient failure should not pin the user to base.
			s.logger.Warn("failed to load profile, using base tier", "user_id", userID, "error", err)
			return model.TierBase
		}
		profile = model.UserProfile{UserID: userID}
	}

	tier := ResolveTier(string(profile.Tier))
	if s.tiers != nil {
		s.tiers.SetDefault(userID, tier)
	}
	return tier
}

// SetTier stores a new tier claim on userID's profile and drops the cached
// tier. The admin flag of an existing profile is kept.
func (s *EntitlementService) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if _, ok := tierTable[tier]; !ok {
		return fmt.Errorf("%w: unknown tier %q", ErrValidation, tier)
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, driven.ErrNotFound) {
			return fmt.Errorf("load profile %q: %w", userID, err)
		}
		profile = model.UserProfile{UserID: userID}
	}
	profile.Tier = tier
	profile.UpdatedAt = s.now().UTC()

	if err := s.profiles.UpsertProfile(ctx, profile); err != nil {
		return fmt.Errorf("store profile %q: %w", userID, err)
	}
	s.InvalidateTier(userID)
	s.logger.Info("tier updated", "user_id", userID, "tier", tier)
	return nil
}

// IsOperator reports whether userID may act on the moderation queue and the
// college catalog. Anonymous users and users without a profile are not
// operators. Admin status is read on every call and never cached.
func (s *EntitlementService) IsOperator(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, driven.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load profile %q: %w", userID, err)
	}
	return profile.IsAdmin, nil
}

// InvalidateTier drops a cached tier after the user's profile changes.
func (s *EntitlementService) InvalidateTier(userID string) {
	if s.tiers != nil {
		s.tiers.Delete(userID)
	}
}

// Limits returns the ceilings for userID's tier.
func (s *EntitlementService) Limits(ctx context.Context, userID string) model.TierLimits {
	return GetTierLimits(string(s.TierFor(ctx, userID)))
}

// FeatureAllowed reports whether userID's tier permits the named feature.
func (s *EntitlementService) FeatureAllowed(ctx context.Context, userID, feature string) bool {
	return IsFeatureAllowed(string(s.TierFor(ctx, userID)), feature)
}

// CheckCompare validates a comparison request against the compare-slot ceiling.
// Duplicate ids occupy a single slot.
func (s *EntitlementService) CheckCompare(ctx context.Context, userID string, collegeIDs []string) error {
	distinct := make(map[string]struct{}, len(collegeIDs))
	for _, id := range collegeIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			distinct[id] = struct{}{}
		}
	}
	if len(distinct) == 0 {
		return fmt.Errorf("%w: at least one college is required", ErrValidation)
	}

	limits := s.Limits(ctx, userID)
	if len(distinct) > limits.CompareSlots {
		return fmt.Errorf("%w: %d colleges requested, %d allowed", driven.ErrCompareLimitExceeded, len(distinct), limits.CompareSlots)
	}
	return nil
}

// SaveCollege bookmarks a college for userID if the saved-item ceiling allows it.
func (s *EntitlementService) SaveCollege(ctx context.Context, userID, collegeID string) (model.SavedCollege, error) {
	if userID == "" {
		return model.SavedCollege{}, driven.ErrForbidden
	}
	if strings.TrimSpace(collegeID) == "" {
		return model.SavedCollege{}, fmt.Errorf("%w: college id is required", ErrValidation)
	}

	limits := s.Limits(ctx, userID)
	saved := model.SavedCollege{
		ID:        uuid.NewString(),
		UserID:    userID,
		CollegeID: collegeID,
		SavedAt:   s.now().UTC(),
	}
	if err := s.saved.Save(ctx, saved, limits.SavedSlots); err != nil {
		if errors.Is(err, driven.ErrSavedLimitReached) {
			return model.SavedCollege{}, fmt.Errorf("%w: %s allowed", driven.ErrSavedLimitReached, limits.SavedSlots)
		}
		return model.SavedCollege{}, err
	}
	return saved, nil
}

// UnsaveCollege removes a bookmark.
func (s *EntitlementService) UnsaveCollege(ctx context.Context, userID, collegeID string) error {
	if userID == "" {
		return driven.ErrForbidden
	}
	return s.saved.Remove(ctx, userID, collegeID)
}

// SavedCount returns how many colleges userID has bookmarked.
func (s *EntitlementService) SavedCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	return s.saved.CountByUser(ctx, userID)
}

// Saved lists userID's bookmarks.
func (s *EntitlementService) Saved(ctx context.Context, userID string) ([]model.SavedCollege, error) {
	if userID == "" {
		return nil, driven.ErrForbidden
	}
	return s.saved.ListByUser(ctx, userID)
}
