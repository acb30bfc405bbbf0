package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/internal/billing"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

type fakeSubscriptionLister struct {
	subs      []models.Subscription
	lastLimit int
	err       error
}

func (f *fakeSubscriptionLister) ListSubscriptionsForReconciliation(ctx context.Context, limit int) ([]models.Subscription, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.subs, nil
}

type fakeSyncer struct {
	synced []string
	errFor map[string]error
}

func (f *fakeSyncer) SyncFromProvider(ctx context.Context, providerSubID string) (*billing.SubscriptionDTO, error) {
	if err := f.errFor[providerSubID]; err != nil {
		return nil, err
	}
	f.synced = append(f.synced, providerSubID)
	return &billing.SubscriptionDTO{
		ProviderSubID: providerSubID,
		Status:        enums.SubscriptionStatusActive,
	}, nil
}

func TestSubscriptionReconcileSyncsEveryCandidate(t *testing.T) {
	lister := &fakeSubscriptionLister{subs: []models.Subscription{
		{ID: uuid.New(), ChurchID: uuid.New(), ProviderSubID: "sq-1"},
		{ID: uuid.New(), ChurchID: uuid.New(), ProviderSubID: "sq-2"},
	}}
	syncer := &fakeSyncer{}
	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:      testLogger(),
		BillingRepo: lister,
		Billing:     syncer,
		Limit:       50,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionReconcileJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if lister.lastLimit != 50 {
		t.Fatalf("expected limit 50, got %d", lister.lastLimit)
	}
	if len(syncer.synced) != 2 {
		t.Fatalf("expected 2 syncs, got %d", len(syncer.synced))
	}
}

func TestSubscriptionReconcileContinuesPastFailures(t *testing.T) {
	lister := &fakeSubscriptionLister{subs: []models.Subscription{
		{ID: uuid.New(), ProviderSubID: "sq-bad"},
		{ID: uuid.New(), ProviderSubID: "sq-good"},
	}}
	syncer := &fakeSyncer{errFor: map[string]error{"sq-bad": errors.New("provider down")}}
	job, err := NewSubscriptionReconcileJob(SubscriptionReconcileJobParams{
		Logger:      testLogger(),
		BillingRepo: lister,
		Billing:     syncer,
	})
	if err != nil {
		t.Fatalf("NewSubscriptionReconcileJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(syncer.synced) != 1 || syncer.synced[0] != "sq-good" {
		t.Fatalf("healthy subscription should still sync, got %v", syncer.synced)
	}
}
