package billing

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

type stubProvider struct {
	customers     int
	cards         int
	subscriptions int
	cancels       int
	sub           *ProviderSubscription
	getSub        *ProviderSubscription
}

func (p *stubProvider) CreateCustomer(_ context.Context, _ CustomerParams) (string, error) {
	p.customers++
	return "cust-1", nil
}

func (p *stubProvider) CreateCard(_ context.Context, _ CardParams) (string, error) {
	p.cards++
	return "card-1", nil
}

func (p *stubProvider) CreateSubscription(_ context.Context, _ SubscribeParams) (*ProviderSubscription, error) {
	p.subscriptions++
	return p.sub, nil
}

func (p *stubProvider) CancelSubscription(_ context.Context, _ string) (*ProviderSubscription, error) {
	p.cancels++
	return p.sub, nil
}

func (p *stubProvider) GetSubscription(_ context.Context, _ string) (*ProviderSubscription, error) {
	return p.getSub, nil
}

type memBillingRepo struct {
	subs  map[string]*models.Subscription // keyed by provider sub id
	plans map[string]*models.BillingPlan
}

var _ Repository = (*memBillingRepo)(nil)

func newMemBillingRepo() *memBillingRepo {
	return &memBillingRepo{
		subs:  map[string]*models.Subscription{},
		plans: map[string]*models.BillingPlan{},
	}
}

func (r *memBillingRepo) WithTx(_ *gorm.DB) Repository { return r }

func (r *memBillingRepo) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	if existing, ok := r.subs[sub.ProviderSubID]; ok {
		sub.ID = existing.ID
	} else if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	cpy := *sub
	r.subs[sub.ProviderSubID] = &cpy
	return nil
}

func (r *memBillingRepo) UpdateSubscription(_ context.Context, sub *models.Subscription) error {
	cpy := *sub
	r.subs[sub.ProviderSubID] = &cpy
	return nil
}

func (r *memBillingRepo) FindSubscriptionByChurch(_ context.Context, churchID uuid.UUID) (*models.Subscription, error) {
	for _, sub := range r.subs {
		if sub.ChurchID == churchID && sub.Status != enums.SubscriptionStatusCanceled {
			cpy := *sub
			return &cpy, nil
		}
	}
	return nil, nil
}

func (r *memBillingRepo) ListSubscriptionsForReconciliation(_ context.Context, limit int) ([]models.Subscription, error) {
	var out []models.Subscription
	for providerSubID, sub := range r.subs {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(providerSubID, "trial-") {
			continue
		}
		switch sub.Status {
		case enums.SubscriptionStatusTrialing, enums.SubscriptionStatusActive, enums.SubscriptionStatusPastDue:
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *memBillingRepo) FindSubscriptionByProviderID(_ context.Context, providerSubID string) (*models.Subscription, error) {
	sub, ok := r.subs[providerSubID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cpy := *sub
	return &cpy, nil
}

func (r *memBillingRepo) CreateBillingPlan(_ context.Context, plan *models.BillingPlan) error {
	if _, ok := r.plans[plan.ID]; ok {
		return nil
	}
	cpy := *plan
	r.plans[plan.ID] = &cpy
	return nil
}

func (r *memBillingRepo) FindBillingPlanByID(_ context.Context, id string) (*models.BillingPlan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (r *memBillingRepo) FindBillingPlanByProviderID(_ context.Context, providerPlanID string) (*models.BillingPlan, error) {
	for _, plan := range r.plans {
		if plan.ProviderPlanID == providerPlanID {
			return plan, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memBillingRepo) FindDefaultBillingPlan(_ context.Context) (*models.BillingPlan, error) {
	for _, plan := range r.plans {
		if plan.IsDefault {
			return plan, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memBillingRepo) ListBillingPlans(_ context.Context) ([]models.BillingPlan, error) {
	out := make([]models.BillingPlan, 0, len(r.plans))
	for _, plan := range r.plans {
		out = append(out, *plan)
	}
	return out, nil
}

type stubChurches struct {
	churches map[uuid.UUID]*models.Church
	updates  int
}

func (c *stubChurches) FindByID(_ context.Context, id uuid.UUID) (*models.Church, error) {
	church, ok := c.churches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return church, nil
}

func (c *stubChurches) Update(_ context.Context, church *models.Church) error {
	c.updates++
	c.churches[church.ID] = church
	return nil
}

type passthroughRunner struct{ runs int }

func (r *passthroughRunner) RunInTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	r.runs++
	return fn(nil)
}

func newBillingFixture(t *testing.T) (Service, *memBillingRepo, *stubProvider, *stubChurches, *passthroughRunner) {
	t.Helper()
	repo := newMemBillingRepo()
	provider := &stubProvider{}
	churches := &stubChurches{churches: map[uuid.UUID]*models.Church{}}
	runner := &passthroughRunner{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Provider: provider,
		Churches: churches,
		Runner:   runner,
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, provider, churches, runner
}

func seedPlan(repo *memBillingRepo, id string, tier enums.SubscriptionTier, maxMembers int) {
	repo.plans[id] = &models.BillingPlan{
		ID:             id,
		Name:           id,
		Tier:           tier,
		ProviderPlanID: "prov-" + id,
		MaxMembers:     maxMembers,
		PriceAmount:    decimal.NewFromInt(79),
		CurrencyCode:   "USD",
	}
}

func trialChurch(churches *stubChurches) *models.Church {
	trialEnd := time.Now().Add(10 * 24 * time.Hour)
	church := &models.Church{
		ID:          uuid.New(),
		Name:        "Grace Fellowship",
		Subdomain:   "grace",
		Tier:        enums.TierTrial,
		TrialEndsAt: &trialEnd,
		MaxMembers:  250,
	}
	churches.churches[church.ID] = church
	return church
}

func TestSubscribeMovesChurchOntoPlanTier(t *testing.T) {
	svc, repo, provider, churches, runner := newBillingFixture(t)
	seedPlan(repo, "growth-monthly", enums.TierGrowth, 500)
	church := trialChurch(churches)
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	through := start.AddDate(0, 1, 0)
	provider.sub = &ProviderSubscription{
		ID:                 "sq-sub-1",
		Status:             "ACTIVE",
		StartDate:          &start,
		ChargedThroughDate: &through,
	}

	dto, err := svc.Subscribe(context.Background(), SubscribeInput{
		ChurchID:     church.ID,
		PlanID:       "growth-monthly",
		CardSourceID: "cnon:card-nonce",
		BillingEmail: "treasurer@grace.example",
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if dto.Status != enums.SubscriptionStatusActive {
		t.Fatalf("status = %s, want active", dto.Status)
	}
	if provider.customers != 1 || provider.cards != 1 || provider.subscriptions != 1 {
		t.Fatalf("provider calls = %d/%d/%d, want 1/1/1", provider.customers, provider.cards, provider.subscriptions)
	}
	if runner.runs != 1 {
		t.Fatalf("local writes should run through the tx runner")
	}
	if church.Tier != enums.TierGrowth {
		t.Fatalf("church tier = %s, want growth", church.Tier)
	}
	if church.MaxMembers != 500 {
		t.Fatalf("max members = %d, want 500", church.MaxMembers)
	}
	if church.TrialEndsAt != nil {
		t.Fatal("trial end must be cleared after subscribing")
	}
	if !dto.CurrentPeriodEnd.Equal(through) {
		t.Fatalf("period end = %v, want %v", dto.CurrentPeriodEnd, through)
	}
}

func TestSubscribeRejectsSecondSubscription(t *testing.T) {
	svc, repo, provider, churches, _ := newBillingFixture(t)
	seedPlan(repo, "growth-monthly", enums.TierGrowth, 500)
	church := trialChurch(churches)
	provider.sub = &ProviderSubscription{ID: "sq-sub-1", Status: "ACTIVE"}

	if _, err := svc.Subscribe(context.Background(), SubscribeInput{
		ChurchID:     church.ID,
		PlanID:       "growth-monthly",
		CardSourceID: "cnon:1",
	}); err != nil {
		t.Fatalf("first Subscribe: %v", err)
	}

	_, err := svc.Subscribe(context.Background(), SubscribeInput{
		ChurchID:     church.ID,
		PlanID:       "growth-monthly",
		CardSourceID: "cnon:2",
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if provider.subscriptions != 1 {
		t.Fatalf("provider subscriptions = %d, want 1", provider.subscriptions)
	}
}

func TestCancelAtPeriodEndIsIdempotent(t *testing.T) {
	svc, repo, provider, churches, _ := newBillingFixture(t)
	seedPlan(repo, "growth-monthly", enums.TierGrowth, 500)
	church := trialChurch(churches)
	provider.sub = &ProviderSubscription{ID: "sq-sub-1", Status: "ACTIVE"}

	if _, err := svc.Subscribe(context.Background(), SubscribeInput{
		ChurchID:     church.ID,
		PlanID:       "growth-monthly",
		CardSourceID: "cnon:1",
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	first, err := svc.CancelAtPeriodEnd(context.Background(), church.ID)
	if err != nil {
		t.Fatalf("CancelAtPeriodEnd: %v", err)
	}
	if !first.CancelAtPeriodEnd || first.CanceledAt == nil {
		t.Fatal("cancel must mark the row")
	}

	second, err := svc.CancelAtPeriodEnd(context.Background(), church.ID)
	if err != nil {
		t.Fatalf("second CancelAtPeriodEnd: %v", err)
	}
	if provider.cancels != 1 {
		t.Fatalf("provider cancels = %d, want 1", provider.cancels)
	}
	if !second.CancelAtPeriodEnd {
		t.Fatal("second cancel must report the same state")
	}
}

func TestSyncFromProviderSuspendsDeadSubscription(t *testing.T) {
	svc, repo, provider, churches, _ := newBillingFixture(t)
	seedPlan(repo, "growth-monthly", enums.TierGrowth, 500)
	church := trialChurch(churches)
	provider.sub = &ProviderSubscription{ID: "sq-sub-1", Status: "ACTIVE"}

	if _, err := svc.Subscribe(context.Background(), SubscribeInput{
		ChurchID:     church.ID,
		PlanID:       "growth-monthly",
		CardSourceID: "cnon:1",
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	canceled := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	provider.getSub = &ProviderSubscription{
		ID:                "sq-sub-1",
		Status:            "CANCELED",
		CanceledDate:      &canceled,
		CancelAtPeriodEnd: true,
	}

	dto, err := svc.SyncFromProvider(context.Background(), "sq-sub-1")
	if err != nil {
		t.Fatalf("SyncFromProvider: %v", err)
	}
	if dto.Status != enums.SubscriptionStatusCanceled {
		t.Fatalf("status = %s, want canceled", dto.Status)
	}
	if church.Tier != enums.TierSuspended {
		t.Fatalf("church tier = %s, want suspended", church.Tier)
	}
}

func TestSeedDefaultPlansIsRepeatable(t *testing.T) {
	svc, repo, _, _, _ := newBillingFixture(t)
	ctx := context.Background()

	if err := svc.SeedDefaultPlans(ctx); err != nil {
		t.Fatalf("SeedDefaultPlans: %v", err)
	}
	if err := svc.SeedDefaultPlans(ctx); err != nil {
		t.Fatalf("second SeedDefaultPlans: %v", err)
	}
	if len(repo.plans) != 3 {
		t.Fatalf("plans = %d, want 3", len(repo.plans))
	}
	defaultPlan, err := repo.FindDefaultBillingPlan(ctx)
	if err != nil {
		t.Fatalf("FindDefaultBillingPlan: %v", err)
	}
	if defaultPlan.Tier != enums.TierStarter {
		t.Fatalf("default plan tier = %s, want starter", defaultPlan.Tier)
	}
}

func TestMapProviderStatus(t *testing.T) {
	cases := map[string]enums.SubscriptionStatus{
		"ACTIVE":      enums.SubscriptionStatusActive,
		"PENDING":     enums.SubscriptionStatusTrialing,
		"PAUSED":      enums.SubscriptionStatusPastDue,
		"CANCELED":    enums.SubscriptionStatusCanceled,
		"DEACTIVATED": enums.SubscriptionStatusUnpaid,
	}
	for raw, want := range cases {
		got, err := mapProviderStatus(raw)
		if err != nil {
			t.Fatalf("mapProviderStatus(%s): %v", raw, err)
		}
		if got != want {
			t.Fatalf("mapProviderStatus(%s) = %s, want %s", raw, got, want)
		}
	}
	if _, err := mapProviderStatus("MYSTERY"); err == nil {
		t.Fatal("unknown provider status must error")
	}
}
