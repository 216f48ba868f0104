package application

import "github.com/ericfisherdev/collegedesk/internal/domain/model"

// tierTable holds the fixed per-tier ceilings.
var tierTable = map[model.Tier]model.TierLimits{
	model.TierBase: {CompareSlots: 2, SavedSlots: 10, AISummaryAllowed: false},
	model.TierMid:  {CompareSlots: 3, SavedSlots: 50, AISummaryAllowed: true},
	model.TierTop:  {CompareSlots: 4, SavedSlots: model.Unbounded, AISummaryAllowed: true},
}

// GetTierLimits returns the limits for a tier. Unknown or empty tiers get the
// base tier's limits.
func GetTierLimits(tier string) model.TierLimits {
	if limits, ok := tierTable[model.Tier(tier)]; ok {
		return limits
	}
	return tierTable[model.TierBase]
}

// IsFeatureAllowed reports whether a named feature is enabled for a tier.
// Features not listed here are allowed for every tier, so a new gated feature
// must be added to this switch to take effect.
func IsFeatureAllowed(tier, feature string) bool {
	limits := GetTierLimits(tier)
	switch feature {
	case model.FeatureAISummary:
		return limits.AISummaryAllowed
	default:
		return true
	}
}

// ResolveTier maps a stored tier claim to a known tier, defaulting to base.
func ResolveTier(claim string) model.Tier {
	if _, ok := tierTable[model.Tier(claim)]; ok {
		return model.Tier(claim)
	}
	return model.TierBase
}
