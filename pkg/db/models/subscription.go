package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// Subscription persists billing-provider subscription state per church.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID           uuid.UUID                `gorm:"column:church_id;type:uuid;not null;index"`
	ProviderSubID      string                   `gorm:"column:provider_sub_id;not null;unique"`
	Status             enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'active'"`
	PlanID             *string                  `gorm:"column:plan_id"`
	CurrentPeriodStart *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd   time.Time                `gorm:"column:current_period_end;not null"`
	CancelAtPeriodEnd  bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	CanceledAt         *time.Time               `gorm:"column:canceled_at"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (Subscription) TableName() string { return "subscriptions" }
