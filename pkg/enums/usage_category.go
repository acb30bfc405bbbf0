package enums

import "fmt"

// UsageCategory names a metered resource with a per-tier ceiling.
type UsageCategory string

const (
	UsageMembers            UsageCategory = "members"
	UsageMonthlyReports     UsageCategory = "monthly_reports"
	UsageEmailNotifications UsageCategory = "email_notifications"
	UsageSMSNotifications   UsageCategory = "sms_notifications"
)

var validUsageCategories = []UsageCategory{
	UsageMembers,
	UsageMonthlyReports,
	UsageEmailNotifications,
	UsageSMSNotifications,
}

// UsageCategories returns all known categories.
func UsageCategories() []UsageCategory {
	out := make([]UsageCategory, len(validUsageCategories))
	copy(out, validUsageCategories)
	return out
}

// String implements fmt.Stringer.
func (u UsageCategory) String() string {
	return string(u)
}

// IsValid reports whether the value is known.
func (u UsageCategory) IsValid() bool {
	for _, candidate := range validUsageCategories {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUsageCategory converts raw input into a UsageCategory.
func ParseUsageCategory(value string) (UsageCategory, error) {
	for _, candidate := range validUsageCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid usage category %q", value)
}
