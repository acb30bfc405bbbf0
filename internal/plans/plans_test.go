package plans

import (
	"testing"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

func TestTierIncludes(t *testing.T) {
	cases := []struct {
		name    string
		tier    enums.SubscriptionTier
		feature enums.Feature
		want    bool
	}{
		{"starter has basic checkin", enums.TierStarter, enums.FeatureBasicCheckIn, true},
		{"starter lacks biometric", enums.TierStarter, enums.FeatureBiometricCheckIn, false},
		{"growth has biometric", enums.TierGrowth, enums.FeatureBiometricCheckIn, true},
		{"growth has family checkin", enums.TierGrowth, enums.FeatureFamilyCheckIn, true},
		{"growth lacks api access", enums.TierGrowth, enums.FeatureAPIAccess, false},
		{"enterprise has everything", enums.TierEnterprise, enums.FeatureCustomBranding, true},
		{"suspended has nothing", enums.TierSuspended, enums.FeatureBasicCheckIn, false},
		{"trial tier has nothing without override", enums.TierTrial, enums.FeatureBasicCheckIn, false},
		{"unknown feature", enums.TierEnterprise, enums.Feature("unknown"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TierIncludes(tc.tier, tc.feature); got != tc.want {
				t.Fatalf("TierIncludes(%s, %s) = %v, want %v", tc.tier, tc.feature, got, tc.want)
			}
		})
	}
}

func TestUsageCeiling(t *testing.T) {
	limit, ok := UsageCeiling(enums.TierStarter, enums.UsageMembers)
	if !ok || limit != 100 {
		t.Fatalf("expected starter members ceiling 100, got %d (ok=%v)", limit, ok)
	}

	limit, ok = UsageCeiling(enums.TierGrowth, enums.UsageSMSNotifications)
	if !ok || limit != 1000 {
		t.Fatalf("expected growth sms ceiling 1000, got %d (ok=%v)", limit, ok)
	}

	// Absent key means unlimited.
	if _, ok := UsageCeiling(enums.TierEnterprise, enums.UsageMembers); ok {
		t.Fatal("expected enterprise members to be unlimited")
	}
	if _, ok := UsageCeiling(enums.TierTrial, enums.UsageMonthlyReports); ok {
		t.Fatal("expected trial tier to carry no ceilings")
	}
}

func TestFeaturesForEnterpriseCoversAll(t *testing.T) {
	got := FeaturesFor(enums.TierEnterprise)
	if len(got) != len(enums.Features()) {
		t.Fatalf("expected enterprise to include all %d features, got %d", len(enums.Features()), len(got))
	}
}

func TestFeaturesForSuspendedIsEmpty(t *testing.T) {
	if got := FeaturesFor(enums.TierSuspended); len(got) != 0 {
		t.Fatalf("expected no features for suspended, got %v", got)
	}
}
