package followups

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// FollowUpDTO exposes a member's pastoral follow-up state.
type FollowUpDTO struct {
	ID                  uuid.UUID            `json:"id"`
	ChurchID            uuid.UUID            `json:"church_id"`
	MemberID            uuid.UUID            `json:"member_id"`
	LastContactedAt     *time.Time           `json:"last_contacted_at,omitempty"`
	ContactMethod       *enums.ContactMethod `json:"contact_method,omitempty"`
	ConsecutiveAbsences int                  `json:"consecutive_absences"`
	NeedsFollowUp       bool                 `json:"needs_follow_up"`
	Notes               *string              `json:"notes,omitempty"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// FromModel maps the persisted record into a DTO.
func FromModel(m *models.FollowUpRecord) *FollowUpDTO {
	if m == nil {
		return nil
	}
	dto := &FollowUpDTO{
		ID:                  m.ID,
		ChurchID:            m.ChurchID,
		MemberID:            m.MemberID,
		ConsecutiveAbsences: m.ConsecutiveAbsences,
		NeedsFollowUp:       m.NeedsFollowUp,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.LastContactedAt != nil {
		cpy := *m.LastContactedAt
		dto.LastContactedAt = &cpy
	}
	if m.ContactMethod != nil {
		cpy := *m.ContactMethod
		dto.ContactMethod = &cpy
	}
	if m.Notes != nil {
		cpy := *m.Notes
		dto.Notes = &cpy
	}
	return dto
}
