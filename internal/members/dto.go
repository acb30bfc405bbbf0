package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
)

// MemberDTO exposes member data in API responses.
type MemberDTO struct {
	ID        uuid.UUID  `json:"id"`
	ChurchID  uuid.UUID  `json:"church_id"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    *string    `json:"gender,omitempty"`
	Address   *string    `json:"address,omitempty"`

	IsCurrentMember bool    `json:"is_current_member"`
	HasBiometric    bool    `json:"has_biometric"`
	PhotoURL        *string `json:"photo_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateMemberDTO holds creation-time data for a member.
type CreateMemberDTO struct {
	ChurchID          uuid.UUID
	ParentID          *uuid.UUID
	FirstName         string
	LastName          string
	Email             *string
	Phone             *string
	BirthDate         *time.Time
	Gender            *string
	Address           *string
	BiometricTemplate *string
	PhotoURL          *string
}

// ToModel maps the creation DTO onto the persisted model.
func (d CreateMemberDTO) ToModel() *models.Member {
	return &models.Member{
		ChurchID:          d.ChurchID,
		ParentID:          cloneUUIDPtr(d.ParentID),
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Email:             cloneStringPtr(d.Email),
		Phone:             cloneStringPtr(d.Phone),
		BirthDate:         cloneTimePtr(d.BirthDate),
		Gender:            cloneStringPtr(d.Gender),
		Address:           cloneStringPtr(d.Address),
		IsCurrentMember:   true,
		BiometricTemplate: cloneStringPtr(d.BiometricTemplate),
		PhotoURL:          cloneStringPtr(d.PhotoURL),
	}
}

// FromModel maps the persisted member into a DTO. The biometric template is
// never exposed, only its presence.
func FromModel(m *models.Member) *MemberDTO {
	if m == nil {
		return nil
	}
	return &MemberDTO{
		ID:              m.ID,
		ChurchID:        m.ChurchID,
		ParentID:        cloneUUIDPtr(m.ParentID),
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Email:           cloneStringPtr(m.Email),
		Phone:           cloneStringPtr(m.Phone),
		BirthDate:       cloneTimePtr(m.BirthDate),
		Gender:          cloneStringPtr(m.Gender),
		Address:         cloneStringPtr(m.Address),
		IsCurrentMember: m.IsCurrentMember,
		HasBiometric:    m.BiometricTemplate != nil && *m.BiometricTemplate != "",
		PhotoURL:        cloneStringPtr(m.PhotoURL),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cpy := *s
	return &cpy
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cpy := *t
	return &cpy
}

func cloneUUIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cpy := *id
	return &cpy
}
