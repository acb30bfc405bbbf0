package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/churchconnect/churchconnect-backend/internal/billing"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

const defaultReconcileLimit = 250

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger      *logger.Logger
	BillingRepo reconcileSubscriptionLister
	Billing     subscriptionSyncer
	Limit       int
}

type reconcileSubscriptionLister interface {
	ListSubscriptionsForReconciliation(ctx context.Context, limit int) ([]models.Subscription, error)
}

type subscriptionSyncer interface {
	SyncFromProvider(ctx context.Context, providerSubID string) (*billing.SubscriptionDTO, error)
}

// NewSubscriptionReconcileJob builds the job that pulls provider-side
// subscription state back into the local rows and church tiers.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.BillingRepo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if params.Billing == nil {
		return nil, fmt.Errorf("billing service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:        params.Logger,
		billingRepo: params.BillingRepo,
		billing:     params.Billing,
		limit:       limit,
	}, nil
}

type subscriptionReconcileJob struct {
	logg        *logger.Logger
	billingRepo reconcileSubscriptionLister
	billing     subscriptionSyncer
	limit       int
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	snapshot, err := j.billingRepo.ListSubscriptionsForReconciliation(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list subscriptions for reconciliation: %w", err)
	}

	var errs error
	synced := 0
	for i := range snapshot {
		sub := &snapshot[i]
		subCtx := j.logg.WithFields(ctx, map[string]any{
			"subscription_id": sub.ID,
			"church_id":       sub.ChurchID,
			"provider_sub_id": sub.ProviderSubID,
		})
		dto, err := j.billing.SyncFromProvider(subCtx, sub.ProviderSubID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sync subscription %s: %w", sub.ProviderSubID, err))
			continue
		}
		j.logg.Info(j.logg.WithField(subCtx, "status", string(dto.Status)), "subscription reconciled")
		synced++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(snapshot),
		"synced":     synced,
	})
	j.logg.Info(reportCtx, "subscription reconcile loop complete")
	return errs
}
