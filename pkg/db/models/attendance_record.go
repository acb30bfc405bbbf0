package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// AttendanceRecord captures one check-in for a member on a service date.
type AttendanceRecord struct {
	ID             uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID       uuid.UUID           `gorm:"column:church_id;type:uuid;not null;index"`
	MemberID       uuid.UUID           `gorm:"column:member_id;type:uuid;not null;index"`
	AttendanceDate time.Time           `gorm:"column:attendance_date;type:date;not null;index"`
	CheckedInAt    time.Time           `gorm:"column:checked_in_at;not null"`
	Method         enums.CheckInMethod `gorm:"column:method;type:check_in_method;not null"`
	IsGuest        bool                `gorm:"column:is_guest;not null;default:false"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (AttendanceRecord) TableName() string { return "attendance_records" }
