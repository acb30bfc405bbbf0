package visitors

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// VisitorDTO exposes visitor data in API responses.
type VisitorDTO struct {
	ID        uuid.UUID           `json:"id"`
	ChurchID  uuid.UUID           `json:"church_id"`
	MemberID  *uuid.UUID          `json:"member_id,omitempty"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	Email     *string             `json:"email,omitempty"`
	Phone     *string             `json:"phone,omitempty"`
	Address   *string             `json:"address,omitempty"`
	VisitDate string              `json:"visit_date"`
	InvitedBy *string             `json:"invited_by,omitempty"`
	Status    enums.VisitorStatus `json:"status"`
	Notes     *string             `json:"notes,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// CreateVisitorDTO holds creation-time data for a visitor.
type CreateVisitorDTO struct {
	ChurchID  uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Address   *string
	VisitDate time.Time
	InvitedBy *string
	Notes     *string
}

const dateLayout = "2006-01-02"

// ToModel maps the creation DTO onto the persisted model.
func (d CreateVisitorDTO) ToModel() *models.Visitor {
	return &models.Visitor{
		ChurchID:  d.ChurchID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     cloneStringPtr(d.Email),
		Phone:     cloneStringPtr(d.Phone),
		Address:   cloneStringPtr(d.Address),
		VisitDate: d.VisitDate,
		InvitedBy: cloneStringPtr(d.InvitedBy),
		Status:    enums.VisitorStatusPending,
		Notes:     cloneStringPtr(d.Notes),
	}
}

// FromModel maps the persisted visitor into a DTO.
func FromModel(m *models.Visitor) *VisitorDTO {
	if m == nil {
		return nil
	}
	dto := &VisitorDTO{
		ID:        m.ID,
		ChurchID:  m.ChurchID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     cloneStringPtr(m.Email),
		Phone:     cloneStringPtr(m.Phone),
		Address:   cloneStringPtr(m.Address),
		VisitDate: m.VisitDate.Format(dateLayout),
		InvitedBy: cloneStringPtr(m.InvitedBy),
		Status:    m.Status,
		Notes:     cloneStringPtr(m.Notes),
		CreatedAt: m.CreatedAt,
	}
	if m.MemberID != nil {
		cpy := *m.MemberID
		dto.MemberID = &cpy
	}
	return dto
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cpy := *s
	return &cpy
}
