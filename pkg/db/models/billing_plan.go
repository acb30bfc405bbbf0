package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// BillingPlan captures local metadata for a subscription plan offered to
// churches; the provider plan id ties it back to the billing provider.
type BillingPlan struct {
	ID             string                 `gorm:"column:id;primaryKey"`
	Name           string                 `gorm:"column:name;not null"`
	Tier           enums.SubscriptionTier `gorm:"column:tier;type:subscription_tier;not null"`
	ProviderPlanID string                 `gorm:"column:provider_plan_id;not null;uniqueIndex"`
	TrialDays      int                    `gorm:"column:trial_days;not null;default:0"`
	MaxMembers     int                    `gorm:"column:max_members;not null;default:0"`
	PriceAmount    decimal.Decimal        `gorm:"column:price_amount;type:numeric(12,2);not null"`
	CurrencyCode   string                 `gorm:"column:currency_code;not null"`
	IsDefault      bool                   `gorm:"column:is_default;not null;default:false"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (BillingPlan) TableName() string { return "billing_plans" }
