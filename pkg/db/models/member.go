package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is a church member. ParentID links children to a head-of-household
// member for family grouping; links form a forest, enforced on write.
type Member struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID  uuid.UUID  `gorm:"column:church_id;type:uuid;not null;index"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	FirstName string     `gorm:"column:first_name;not null"`
	LastName  string     `gorm:"column:last_name;not null"`
	Email     *string    `gorm:"column:email"`
	Phone     *string    `gorm:"column:phone"`
	BirthDate *time.Time `gorm:"column:birth_date"`
	Gender    *string    `gorm:"column:gender"`
	Address   *string    `gorm:"column:address"`

	// No gorm default tag: a default would make the ORM skip the field on
	// insert when it is false, silently storing a lapsed member as current.
	IsCurrentMember   bool    `gorm:"column:is_current_member;not null"`
	BiometricTemplate *string `gorm:"column:biometric_template"`
	PhotoURL          *string `gorm:"column:photo_url"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Member) TableName() string { return "members" }
