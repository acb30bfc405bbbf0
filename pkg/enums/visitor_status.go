package enums

import "fmt"

// VisitorStatus tracks where a visitor sits in the follow-up funnel.
type VisitorStatus string

const (
	VisitorStatusPending   VisitorStatus = "pending"
	VisitorStatusContacted VisitorStatus = "contacted"
	VisitorStatusMember    VisitorStatus = "member"
)

var validVisitorStatuses = []VisitorStatus{
	VisitorStatusPending,
	VisitorStatusContacted,
	VisitorStatusMember,
}

// String implements fmt.Stringer.
func (s VisitorStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s VisitorStatus) IsValid() bool {
	for _, candidate := range validVisitorStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVisitorStatus converts raw input into a VisitorStatus.
func ParseVisitorStatus(value string) (VisitorStatus, error) {
	for _, candidate := range validVisitorStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid visitor status %q", value)
}
