package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// Repository handles billing persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscription(ctx context.Context, sub *models.Subscription) error
	FindSubscriptionByChurch(ctx context.Context, churchID uuid.UUID) (*models.Subscription, error)
	FindSubscriptionByProviderID(ctx context.Context, providerSubID string) (*models.Subscription, error)
	ListSubscriptionsForReconciliation(ctx context.Context, limit int) ([]models.Subscription, error)
	CreateBillingPlan(ctx context.Context, plan *models.BillingPlan) error
	FindBillingPlanByID(ctx context.Context, id string) (*models.BillingPlan, error)
	FindBillingPlanByProviderID(ctx context.Context, providerPlanID string) (*models.BillingPlan, error)
	FindDefaultBillingPlan(ctx context.Context) (*models.BillingPlan, error)
	ListBillingPlans(ctx context.Context) ([]models.BillingPlan, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertSubscription inserts or refreshes the row keyed by the
// provider's subscription id, so repeated provider syncs converge.
func (r *repository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_sub_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "plan_id", "current_period_start", "current_period_end",
				"cancel_at_period_end", "canceled_at", "updated_at",
			}),
		}).
		Create(sub).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

// FindSubscriptionByChurch returns the church's newest non-canceled
// subscription, or nil when the church has none.
func (r *repository) FindSubscriptionByChurch(ctx context.Context, churchID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("church_id = ? AND status <> ?", churchID, enums.SubscriptionStatusCanceled).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindSubscriptionByProviderID(ctx context.Context, providerSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("provider_sub_id = ?", providerSubID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubscriptionsForReconciliation returns provider-backed
// subscriptions that may have drifted from the billing provider. Trial
// rows carry a synthetic provider id and are never reconciled.
func (r *repository) ListSubscriptionsForReconciliation(ctx context.Context, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).
		Where("provider_sub_id NOT LIKE ?", "trial-%").
		Where("status IN ?", []enums.SubscriptionStatus{
			enums.SubscriptionStatusTrialing,
			enums.SubscriptionStatusActive,
			enums.SubscriptionStatusPastDue,
		}).
		Order("updated_at ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repository) CreateBillingPlan(ctx context.Context, plan *models.BillingPlan) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(plan).Error
}

func (r *repository) FindBillingPlanByID(ctx context.Context, id string) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindBillingPlanByProviderID(ctx context.Context, providerPlanID string) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).First(&plan, "provider_plan_id = ?", providerPlanID).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindDefaultBillingPlan(ctx context.Context) (*models.BillingPlan, error) {
	var plan models.BillingPlan
	if err := r.db.WithContext(ctx).First(&plan, "is_default = ?", true).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListBillingPlans(ctx context.Context) ([]models.BillingPlan, error) {
	var plans []models.BillingPlan
	if err := r.db.WithContext(ctx).
		Order("price_amount ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
