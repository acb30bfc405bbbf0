package admins

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// ChurchUserDTO exposes safe admin account data in API responses.
type ChurchUserDTO struct {
	ID          uuid.UUID       `json:"id"`
	ChurchID    uuid.UUID       `json:"church_id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Role        enums.AdminRole `json:"role"`
	IsActive    bool            `json:"is_active"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateChurchUserDTO holds creation-time data for a new admin account.
type CreateChurchUserDTO struct {
	ChurchID     uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         enums.AdminRole
}

// ToModel maps the creation DTO onto the persisted model. The email is
// normalized here so every insert path shares the same canonical form.
func (d CreateChurchUserDTO) ToModel() *models.ChurchUser {
	return &models.ChurchUser{
		ChurchID:     d.ChurchID,
		Email:        NormalizeEmail(d.Email),
		PasswordHash: d.PasswordHash,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Role:         d.Role,
		IsActive:     true,
	}
}

// FromModel maps the persisted admin into a DTO.
func FromModel(m *models.ChurchUser) *ChurchUserDTO {
	if m == nil {
		return nil
	}
	dto := &ChurchUserDTO{
		ID:        m.ID,
		ChurchID:  m.ChurchID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Role:      m.Role,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
	}
	if m.LastLoginAt != nil {
		cpy := *m.LastLoginAt
		dto.LastLoginAt = &cpy
	}
	return dto
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive without needing a functional index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
