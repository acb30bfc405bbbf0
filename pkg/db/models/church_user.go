package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// ChurchUser is a tenant admin account. Emails are normalized to lowercase
// before insert; uniqueness is global across tenants.
type ChurchUser struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID     uuid.UUID       `gorm:"column:church_id;type:uuid;not null;index"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex:church_users_email_key"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FirstName    string          `gorm:"column:first_name;not null"`
	LastName     string          `gorm:"column:last_name;not null"`
	Role         enums.AdminRole `gorm:"column:role;type:admin_role;not null;default:'admin'"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChurchUser) TableName() string { return "church_users" }
