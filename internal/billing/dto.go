package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// SubscriptionDTO is the API view of a church subscription.
type SubscriptionDTO struct {
	ID                 uuid.UUID                `json:"id"`
	ChurchID           uuid.UUID                `json:"church_id"`
	ProviderSubID      string                   `json:"provider_sub_id"`
	Status             enums.SubscriptionStatus `json:"status"`
	PlanID             *string                  `json:"plan_id,omitempty"`
	CurrentPeriodStart *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CanceledAt         *time.Time               `json:"canceled_at,omitempty"`
}

// SubscriptionFromModel maps the persisted row into a DTO.
func SubscriptionFromModel(m *models.Subscription) *SubscriptionDTO {
	if m == nil {
		return nil
	}
	dto := &SubscriptionDTO{
		ID:                m.ID,
		ChurchID:          m.ChurchID,
		ProviderSubID:     m.ProviderSubID,
		Status:            m.Status,
		CurrentPeriodEnd:  m.CurrentPeriodEnd,
		CancelAtPeriodEnd: m.CancelAtPeriodEnd,
	}
	if m.PlanID != nil {
		cpy := *m.PlanID
		dto.PlanID = &cpy
	}
	if m.CurrentPeriodStart != nil {
		cpy := *m.CurrentPeriodStart
		dto.CurrentPeriodStart = &cpy
	}
	if m.CanceledAt != nil {
		cpy := *m.CanceledAt
		dto.CanceledAt = &cpy
	}
	return dto
}

// PlanDTO is the public tier catalog entry.
type PlanDTO struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Tier         enums.SubscriptionTier `json:"tier"`
	TrialDays    int                    `json:"trial_days"`
	MaxMembers   int                    `json:"max_members"`
	PriceAmount  decimal.Decimal        `json:"price_amount"`
	CurrencyCode string                 `json:"currency_code"`
	IsDefault    bool                   `json:"is_default"`
}

// PlanFromModel maps a catalog row into a DTO.
func PlanFromModel(m *models.BillingPlan) *PlanDTO {
	if m == nil {
		return nil
	}
	return &PlanDTO{
		ID:           m.ID,
		Name:         m.Name,
		Tier:         m.Tier,
		TrialDays:    m.TrialDays,
		MaxMembers:   m.MaxMembers,
		PriceAmount:  m.PriceAmount,
		CurrencyCode: m.CurrencyCode,
		IsDefault:    m.IsDefault,
	}
}
