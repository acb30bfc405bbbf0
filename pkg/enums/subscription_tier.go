package enums

import "fmt"

// SubscriptionTier controls which features and usage ceilings a church gets.
type SubscriptionTier string

const (
	TierTrial      SubscriptionTier = "trial"
	TierStarter    SubscriptionTier = "starter"
	TierGrowth     SubscriptionTier = "growth"
	TierEnterprise SubscriptionTier = "enterprise"
	TierSuspended  SubscriptionTier = "suspended"
)

var validSubscriptionTiers = []SubscriptionTier{
	TierTrial,
	TierStarter,
	TierGrowth,
	TierEnterprise,
	TierSuspended,
}

// String implements fmt.Stringer.
func (t SubscriptionTier) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t SubscriptionTier) IsValid() bool {
	for _, candidate := range validSubscriptionTiers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSubscriptionTier converts raw input into a SubscriptionTier.
func ParseSubscriptionTier(value string) (SubscriptionTier, error) {
	for _, candidate := range validSubscriptionTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription tier %q", value)
}
