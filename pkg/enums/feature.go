package enums

import "fmt"

// Feature names a gated capability.
type Feature string

const (
	FeatureBasicCheckIn      Feature = "basic_checkin"
	FeatureBiometricCheckIn  Feature = "biometric_checkin"
	FeatureFamilyCheckIn     Feature = "family_checkin"
	FeatureVisitorManagement Feature = "visitor_management"
	FeatureAdvancedAnalytics Feature = "advanced_analytics"
	FeatureBulkUpload        Feature = "bulk_upload"
	FeatureMultiLocation     Feature = "multi_location"
	FeatureAPIAccess         Feature = "api_access"
	FeatureCustomBranding    Feature = "custom_branding"
)

var validFeatures = []Feature{
	FeatureBasicCheckIn,
	FeatureBiometricCheckIn,
	FeatureFamilyCheckIn,
	FeatureVisitorManagement,
	FeatureAdvancedAnalytics,
	FeatureBulkUpload,
	FeatureMultiLocation,
	FeatureAPIAccess,
	FeatureCustomBranding,
}

// Features returns every known feature.
func Features() []Feature {
	out := make([]Feature, len(validFeatures))
	copy(out, validFeatures)
	return out
}

// String implements fmt.Stringer.
func (f Feature) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f Feature) IsValid() bool {
	for _, candidate := range validFeatures {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFeature converts raw input into a Feature.
func ParseFeature(value string) (Feature, error) {
	for _, candidate := range validFeatures {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feature %q", value)
}
