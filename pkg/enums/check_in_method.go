package enums

import "fmt"

// CheckInMethod records how an attendance entry was captured.
type CheckInMethod string

const (
	CheckInMethodFingerprint CheckInMethod = "fingerprint"
	CheckInMethodManual      CheckInMethod = "manual"
	CheckInMethodFamily      CheckInMethod = "family"
)

var validCheckInMethods = []CheckInMethod{
	CheckInMethodFingerprint,
	CheckInMethodManual,
	CheckInMethodFamily,
}

// String implements fmt.Stringer.
func (m CheckInMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m CheckInMethod) IsValid() bool {
	for _, candidate := range validCheckInMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseCheckInMethod converts raw input into a CheckInMethod.
func ParseCheckInMethod(value string) (CheckInMethod, error) {
	for _, candidate := range validCheckInMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid check-in method %q", value)
}
