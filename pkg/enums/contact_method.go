package enums

import "fmt"

// ContactMethod records how a follow-up touch was made.
type ContactMethod string

const (
	ContactMethodPhone ContactMethod = "phone"
	ContactMethodEmail ContactMethod = "email"
	ContactMethodSMS   ContactMethod = "sms"
	ContactMethodVisit ContactMethod = "visit"
)

var validContactMethods = []ContactMethod{
	ContactMethodPhone,
	ContactMethodEmail,
	ContactMethodSMS,
	ContactMethodVisit,
}

// String implements fmt.Stringer.
func (m ContactMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m ContactMethod) IsValid() bool {
	for _, candidate := range validContactMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseContactMethod converts raw input into a ContactMethod.
func ParseContactMethod(value string) (ContactMethod, error) {
	for _, candidate := range validContactMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid contact method %q", value)
}
