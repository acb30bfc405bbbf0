package churches

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// ChurchDTO exposes safe tenant data in API responses.
type ChurchDTO struct {
	ID           uuid.UUID              `json:"id"`
	Name         string                 `json:"name"`
	Subdomain    string                 `json:"subdomain"`
	Tier         enums.SubscriptionTier `json:"tier"`
	TrialEndsAt  *time.Time             `json:"trial_ends_at,omitempty"`
	MaxMembers   int                    `json:"max_members"`
	ContactEmail *string                `json:"contact_email,omitempty"`
	Phone        *string                `json:"phone,omitempty"`

	LogoURL    *string `json:"logo_url,omitempty"`
	BannerURL  *string `json:"banner_url,omitempty"`
	BrandColor *string `json:"brand_color,omitempty"`

	KioskEnabled               bool       `json:"kiosk_enabled"`
	KioskSessionTimeoutMinutes int        `json:"kiosk_session_timeout_minutes"`
	KioskSessionStartedAt      *time.Time `json:"kiosk_session_started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateChurchDTO holds creation-time data for a new tenant.
type CreateChurchDTO struct {
	Name         string
	Subdomain    string
	Tier         enums.SubscriptionTier
	TrialEndsAt  *time.Time
	MaxMembers   int
	ContactEmail *string
	Phone        *string
}

// ToModel maps the creation DTO onto the persisted model.
func (d CreateChurchDTO) ToModel() *models.Church {
	return &models.Church{
		Name:         d.Name,
		Subdomain:    d.Subdomain,
		Tier:         d.Tier,
		TrialEndsAt:  cloneTimePtr(d.TrialEndsAt),
		MaxMembers:   d.MaxMembers,
		ContactEmail: cloneStringPtr(d.ContactEmail),
		Phone:        cloneStringPtr(d.Phone),
	}
}

// FromModel maps the persisted church into a DTO.
func FromModel(m *models.Church) *ChurchDTO {
	if m == nil {
		return nil
	}
	return &ChurchDTO{
		ID:                         m.ID,
		Name:                       m.Name,
		Subdomain:                  m.Subdomain,
		Tier:                       m.Tier,
		TrialEndsAt:                cloneTimePtr(m.TrialEndsAt),
		MaxMembers:                 m.MaxMembers,
		ContactEmail:               cloneStringPtr(m.ContactEmail),
		Phone:                      cloneStringPtr(m.Phone),
		LogoURL:                    cloneStringPtr(m.LogoURL),
		BannerURL:                  cloneStringPtr(m.BannerURL),
		BrandColor:                 cloneStringPtr(m.BrandColor),
		KioskEnabled:               m.KioskEnabled,
		KioskSessionTimeoutMinutes: m.KioskSessionTimeoutMinutes,
		KioskSessionStartedAt:      cloneTimePtr(m.KioskSessionStartedAt),
		CreatedAt:                  m.CreatedAt,
		UpdatedAt:                  m.UpdatedAt,
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
