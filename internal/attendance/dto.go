package attendance

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// RecordDTO exposes one check-in in API responses.
type RecordDTO struct {
	ID             uuid.UUID           `json:"id"`
	ChurchID       uuid.UUID           `json:"church_id"`
	MemberID       uuid.UUID           `json:"member_id"`
	AttendanceDate string              `json:"attendance_date"`
	CheckedInAt    time.Time           `json:"checked_in_at"`
	Method         enums.CheckInMethod `json:"method"`
	IsGuest        bool                `json:"is_guest"`
}

// CheckInDTO holds the inputs for a single check-in.
type CheckInDTO struct {
	ChurchID       uuid.UUID
	MemberID       uuid.UUID
	AttendanceDate time.Time
	Method         enums.CheckInMethod
	IsGuest        bool
}

const dateLayout = "2006-01-02"

// FromModel maps the persisted record into a DTO.
func FromModel(m *models.AttendanceRecord) *RecordDTO {
	if m == nil {
		return nil
	}
	return &RecordDTO{
		ID:             m.ID,
		ChurchID:       m.ChurchID,
		MemberID:       m.MemberID,
		AttendanceDate: m.AttendanceDate.Format(dateLayout),
		CheckedInAt:    m.CheckedInAt,
		Method:         m.Method,
		IsGuest:        m.IsGuest,
	}
}
