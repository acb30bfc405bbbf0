package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// Church represents the canonical tenant model. Every operational row in the
// system hangs off a church by foreign key.
type Church struct {
	ID           uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string                 `gorm:"column:name;not null"`
	Subdomain    string                 `gorm:"column:subdomain;not null;uniqueIndex:churches_subdomain_key"`
	Tier         enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier;not null;default:'trial'"`
	TrialEndsAt  *time.Time             `gorm:"column:trial_ends_at"`
	MaxMembers   int                    `gorm:"column:max_members;not null;default:250"`
	ContactEmail *string                `gorm:"column:contact_email"`
	Phone        *string                `gorm:"column:phone"`

	LogoURL    *string `gorm:"column:logo_url"`
	BannerURL  *string `gorm:"column:banner_url"`
	BrandColor *string `gorm:"column:brand_color"`

	KioskEnabled               bool       `gorm:"column:kiosk_enabled;not null;default:false"`
	KioskSessionTimeoutMinutes int        `gorm:"column:kiosk_session_timeout_minutes;not null;default:60"`
	KioskSessionStartedAt      *time.Time `gorm:"column:kiosk_session_started_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Church) TableName() string { return "churches" }
