package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// FollowUpRecord tracks pastoral follow-up state for a member.
type FollowUpRecord struct {
	ID                  uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID            uuid.UUID            `gorm:"column:church_id;type:uuid;not null;index"`
	MemberID            uuid.UUID            `gorm:"column:member_id;type:uuid;not null;uniqueIndex:follow_up_records_member_key"`
	LastContactedAt     *time.Time           `gorm:"column:last_contacted_at"`
	ContactMethod       *enums.ContactMethod `gorm:"column:contact_method;type:contact_method"`
	ConsecutiveAbsences int                  `gorm:"column:consecutive_absences;not null;default:0"`
	NeedsFollowUp       bool                 `gorm:"column:needs_follow_up;not null;default:false"`
	Notes               *string              `gorm:"column:notes"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (FollowUpRecord) TableName() string { return "follow_up_records" }
