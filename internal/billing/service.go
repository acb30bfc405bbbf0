package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

// defaultPeriodLength stands in when the provider omits the
// charged-through date on a brand-new subscription.
const defaultPeriodLength = 31 * 24 * time.Hour

type txRunner interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type churchDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
	Update(ctx context.Context, church *models.Church) error
}

// SubscribeInput starts paid billing for a church.
type SubscribeInput struct {
	ChurchID     uuid.UUID `json:"-"`
	PlanID       string    `json:"plan_id"`
	CardSourceID string    `json:"card_source_id"`
	BillingEmail string    `json:"billing_email"`
}

// Service connects the local subscription rows with the billing
// provider and keeps the church's tier in step with provider state.
type Service interface {
	Subscribe(ctx context.Context, input SubscribeInput) (*SubscriptionDTO, error)
	CancelAtPeriodEnd(ctx context.Context, churchID uuid.UUID) (*SubscriptionDTO, error)
	SyncFromProvider(ctx context.Context, providerSubID string) (*SubscriptionDTO, error)
	GetForChurch(ctx context.Context, churchID uuid.UUID) (*SubscriptionDTO, error)
	ListPlans(ctx context.Context) ([]PlanDTO, error)
	SeedDefaultPlans(ctx context.Context) error
}

type service struct {
	repo     Repository
	provider Provider
	churches churchDirectory
	runner   txRunner
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo     Repository
	Provider Provider
	Churches churchDirectory
	Runner   txRunner
	Logger   *logger.Logger
}

// NewService builds a billing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("billing repository required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("billing provider required")
	}
	if params.Churches == nil {
		return nil, fmt.Errorf("churches repository required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		provider: params.Provider,
		churches: params.Churches,
		runner:   params.Runner,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

func (s *service) Subscribe(ctx context.Context, input SubscribeInput) (*SubscriptionDTO, error) {
	if strings.TrimSpace(input.PlanID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan id is required")
	}
	if strings.TrimSpace(input.CardSourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card source is required")
	}

	church, err := s.loadChurch(ctx, input.ChurchID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.FindBillingPlanByID(ctx, input.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "billing plan not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing plan")
	}

	if existing, err := s.repo.FindSubscriptionByChurch(ctx, input.ChurchID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing subscription")
	} else if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "church already has an active subscription")
	}

	email := strings.TrimSpace(input.BillingEmail)
	if email == "" && church.ContactEmail != nil {
		email = *church.ContactEmail
	}

	// Provider side first. Nothing local is written until Square has a
	// live subscription; a local failure afterwards is reconciled by
	// the next sync.
	customerID, err := s.provider.CreateCustomer(ctx, CustomerParams{
		Email:       email,
		ChurchName:  church.Name,
		ReferenceID: church.ID.String(),
	})
	if err != nil {
		return nil, err
	}
	cardID, err := s.provider.CreateCard(ctx, CardParams{
		CustomerID: customerID,
		SourceID:   input.CardSourceID,
	})
	if err != nil {
		return nil, err
	}
	providerSub, err := s.provider.CreateSubscription(ctx, SubscribeParams{
		CustomerID:      customerID,
		CardID:          cardID,
		PlanVariationID: plan.ProviderPlanID,
	})
	if err != nil {
		return nil, err
	}

	row, err := s.buildRow(church.ID, plan.ID, providerSub)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpsertSubscription(ctx, row); err != nil {
			return err
		}
		church.Tier = plan.Tier
		if plan.MaxMembers > 0 {
			church.MaxMembers = plan.MaxMembers
		}
		church.TrialEndsAt = nil
		return s.churches.Update(ctx, church)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"church_id":       church.ID.String(),
		"plan_id":         plan.ID,
		"provider_sub_id": row.ProviderSubID,
	}), "church subscribed")
	return SubscriptionFromModel(row), nil
}

func (s *service) CancelAtPeriodEnd(ctx context.Context, churchID uuid.UUID) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindSubscriptionByChurch(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription for church")
	}
	if sub.CancelAtPeriodEnd {
		return SubscriptionFromModel(sub), nil
	}

	providerSub, err := s.provider.CancelSubscription(ctx, sub.ProviderSubID)
	if err != nil {
		return nil, err
	}

	canceledAt := s.now().UTC()
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &canceledAt
	if providerSub != nil && providerSub.CanceledDate != nil {
		sub.CanceledAt = providerSub.CanceledDate
	}
	// Access runs through the end of the paid period; the trial-expiry
	// style downgrade happens when the provider reports CANCELED.
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save subscription")
	}
	return SubscriptionFromModel(sub), nil
}

// SyncFromProvider pulls current provider state for one subscription
// and folds it into the local row and the church tier. Used by the
// reconcile cron and after provider callbacks.
func (s *service) SyncFromProvider(ctx context.Context, providerSubID string) (*SubscriptionDTO, error) {
	if strings.TrimSpace(providerSubID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider subscription id is required")
	}
	sub, err := s.repo.FindSubscriptionByProviderID(ctx, providerSubID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}

	providerSub, err := s.provider.GetSubscription(ctx, providerSubID)
	if err != nil {
		return nil, err
	}
	status, err := mapProviderStatus(providerSub.Status)
	if err != nil {
		return nil, err
	}

	sub.Status = status
	sub.CancelAtPeriodEnd = providerSub.CancelAtPeriodEnd
	sub.CanceledAt = providerSub.CanceledDate
	if providerSub.StartDate != nil {
		sub.CurrentPeriodStart = providerSub.StartDate
	}
	if providerSub.ChargedThroughDate != nil {
		sub.CurrentPeriodEnd = *providerSub.ChargedThroughDate
	}

	church, err := s.loadChurch(ctx, sub.ChurchID)
	if err != nil {
		return nil, err
	}
	tier, err := s.tierForSubscription(ctx, sub, providerSub)
	if err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateSubscription(ctx, sub); err != nil {
			return err
		}
		if church.Tier != tier {
			church.Tier = tier
			return s.churches.Update(ctx, church)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription sync")
	}
	return SubscriptionFromModel(sub), nil
}

func (s *service) GetForChurch(ctx context.Context, churchID uuid.UUID) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindSubscriptionByChurch(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription for church")
	}
	return SubscriptionFromModel(sub), nil
}

func (s *service) ListPlans(ctx context.Context) ([]PlanDTO, error) {
	rows, err := s.repo.ListBillingPlans(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list billing plans")
	}
	out := make([]PlanDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *PlanFromModel(&rows[i]))
	}
	return out, nil
}

// SeedDefaultPlans writes the tier catalog. Inserts are
// conflict-tolerant, so startup can call this unconditionally.
func (s *service) SeedDefaultPlans(ctx context.Context) error {
	seed := []models.BillingPlan{
		{
			ID:             "starter-monthly",
			Name:           "Starter",
			Tier:           enums.TierStarter,
			ProviderPlanID: "cc-starter-monthly",
			TrialDays:      30,
			MaxMembers:     100,
			PriceAmount:    decimal.NewFromInt(29),
			CurrencyCode:   "USD",
			IsDefault:      true,
		},
		{
			ID:             "growth-monthly",
			Name:           "Growth",
			Tier:           enums.TierGrowth,
			ProviderPlanID: "cc-growth-monthly",
			TrialDays:      30,
			MaxMembers:     500,
			PriceAmount:    decimal.NewFromInt(79),
			CurrencyCode:   "USD",
		},
		{
			ID:             "enterprise-monthly",
			Name:           "Enterprise",
			Tier:           enums.TierEnterprise,
			ProviderPlanID: "cc-enterprise-monthly",
			TrialDays:      30,
			MaxMembers:     10000,
			PriceAmount:    decimal.NewFromInt(199),
			CurrencyCode:   "USD",
		},
	}
	for i := range seed {
		if err := s.repo.CreateBillingPlan(ctx, &seed[i]); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed billing plan")
		}
	}
	return nil
}

func (s *service) buildRow(churchID uuid.UUID, planID string, providerSub *ProviderSubscription) (*models.Subscription, error) {
	if providerSub == nil || providerSub.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider returned no subscription")
	}
	status, err := mapProviderStatus(providerSub.Status)
	if err != nil {
		return nil, err
	}
	row := &models.Subscription{
		ChurchID:           churchID,
		ProviderSubID:      providerSub.ID,
		Status:             status,
		PlanID:             &planID,
		CurrentPeriodStart: providerSub.StartDate,
		CancelAtPeriodEnd:  providerSub.CancelAtPeriodEnd,
		CanceledAt:         providerSub.CanceledDate,
	}
	if providerSub.ChargedThroughDate != nil {
		row.CurrentPeriodEnd = *providerSub.ChargedThroughDate
	} else {
		row.CurrentPeriodEnd = s.now().UTC().Add(defaultPeriodLength)
	}
	return row, nil
}

// tierForSubscription decides the church tier implied by the synced
// subscription: the plan's tier while billing is healthy, suspended
// once the provider reports the subscription dead.
func (s *service) tierForSubscription(ctx context.Context, sub *models.Subscription, providerSub *ProviderSubscription) (enums.SubscriptionTier, error) {
	switch sub.Status {
	case enums.SubscriptionStatusCanceled, enums.SubscriptionStatusUnpaid:
		return enums.TierSuspended, nil
	}
	if sub.PlanID != nil {
		plan, err := s.repo.FindBillingPlanByID(ctx, *sub.PlanID)
		if err == nil {
			return plan.Tier, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing plan")
		}
	}
	if providerSub.PlanVariationID != "" {
		plan, err := s.repo.FindBillingPlanByProviderID(ctx, providerSub.PlanVariationID)
		if err == nil {
			return plan.Tier, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load billing plan")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeDependency, "no billing plan matches subscription")
}

func (s *service) loadChurch(ctx context.Context, churchID uuid.UUID) (*models.Church, error) {
	church, err := s.churches.FindByID(ctx, churchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
	}
	return church, nil
}

// mapProviderStatus folds Square's subscription states onto the local enum.
func mapProviderStatus(raw string) (enums.SubscriptionStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ACTIVE":
		return enums.SubscriptionStatusActive, nil
	case "PENDING":
		return enums.SubscriptionStatusTrialing, nil
	case "PAUSED":
		return enums.SubscriptionStatusPastDue, nil
	case "CANCELED":
		return enums.SubscriptionStatusCanceled, nil
	case "DEACTIVATED":
		return enums.SubscriptionStatusUnpaid, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("unknown provider subscription status %q", raw))
	}
}
