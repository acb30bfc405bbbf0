// Package plans holds the tier policy tables: which features a subscription
// tier includes and the usage ceilings it imposes. Pure lookups with no side
// effects; the trial override lives in internal/entitlements and is applied
// before these tables are consulted.
package plans

import (
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// featureMatrix maps each feature to the tiers that include it. Tiers absent
// from an entry do not get the feature outside an active trial.
var featureMatrix = map[enums.Feature]map[enums.SubscriptionTier]struct{}{
	enums.FeatureBasicCheckIn: tiers(enums.TierStarter, enums.TierGrowth, enums.TierEnterprise),

	enums.FeatureBiometricCheckIn:  tiers(enums.TierGrowth, enums.TierEnterprise),
	enums.FeatureFamilyCheckIn:     tiers(enums.TierGrowth, enums.TierEnterprise),
	enums.FeatureVisitorManagement: tiers(enums.TierGrowth, enums.TierEnterprise),

	enums.FeatureAdvancedAnalytics: tiers(enums.TierEnterprise),
	enums.FeatureBulkUpload:        tiers(enums.TierEnterprise),
	enums.FeatureMultiLocation:     tiers(enums.TierEnterprise),
	enums.FeatureAPIAccess:         tiers(enums.TierEnterprise),
	enums.FeatureCustomBranding:    tiers(enums.TierEnterprise),
}

// usageCeilings maps tier to per-category numeric ceilings. An absent
// category means unlimited for that tier/category pair.
var usageCeilings = map[enums.SubscriptionTier]map[enums.UsageCategory]int{
	enums.TierStarter: {
		enums.UsageMembers:            100,
		enums.UsageMonthlyReports:     10,
		enums.UsageEmailNotifications: 500,
		enums.UsageSMSNotifications:   100,
	},
	enums.TierGrowth: {
		enums.UsageMembers:            500,
		enums.UsageMonthlyReports:     50,
		enums.UsageEmailNotifications: 5000,
		enums.UsageSMSNotifications:   1000,
	},
	// enterprise carries no ceilings; trial is governed by the override and
	// suspended never reaches the ceiling check because it has no features.
}

// TierIncludes reports whether the tier's plan includes the feature.
func TierIncludes(tier enums.SubscriptionTier, feature enums.Feature) bool {
	entry, ok := featureMatrix[feature]
	if !ok {
		return false
	}
	_, ok = entry[tier]
	return ok
}

// UsageCeiling returns the tier's ceiling for the category. The second
// return is false when the tier has no ceiling for the category (unlimited).
func UsageCeiling(tier enums.SubscriptionTier, category enums.UsageCategory) (int, bool) {
	ceilings, ok := usageCeilings[tier]
	if !ok {
		return 0, false
	}
	limit, ok := ceilings[category]
	return limit, ok
}

// FeaturesFor lists the features the tier's plan includes.
func FeaturesFor(tier enums.SubscriptionTier) []enums.Feature {
	var out []enums.Feature
	for _, feature := range enums.Features() {
		if TierIncludes(tier, feature) {
			out = append(out, feature)
		}
	}
	return out
}

func tiers(list ...enums.SubscriptionTier) map[enums.SubscriptionTier]struct{} {
	set := make(map[enums.SubscriptionTier]struct{}, len(list))
	for _, t := range list {
		set[t] = struct{}{}
	}
	return set
}
