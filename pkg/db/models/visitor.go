package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// Visitor is a first-time attendee; MemberID is set once converted.
type Visitor struct {
	ID        uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID  uuid.UUID           `gorm:"column:church_id;type:uuid;not null;index"`
	MemberID  *uuid.UUID          `gorm:"column:member_id;type:uuid"`
	FirstName string              `gorm:"column:first_name;not null"`
	LastName  string              `gorm:"column:last_name;not null"`
	Email     *string             `gorm:"column:email"`
	Phone     *string             `gorm:"column:phone"`
	Address   *string             `gorm:"column:address"`
	VisitDate time.Time           `gorm:"column:visit_date;type:date;not null"`
	InvitedBy *string             `gorm:"column:invited_by"`
	Status    enums.VisitorStatus `gorm:"column:status;type:visitor_status;not null;default:'pending'"`
	Notes     *string             `gorm:"column:notes"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Visitor) TableName() string { return "visitors" }
