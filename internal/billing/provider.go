package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"

	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/square"
)

// ProviderSubscription is the trimmed provider view the service works
// with, so the rest of the package never touches SDK types.
type ProviderSubscription struct {
	ID                 string
	Status             string
	PlanVariationID    string
	StartDate          *time.Time
	ChargedThroughDate *time.Time
	CanceledDate       *time.Time
	CancelAtPeriodEnd  bool
}

// SubscribeParams carries everything the provider needs to start billing.
type SubscribeParams struct {
	CustomerID      string
	CardID          string
	PlanVariationID string
	IdempotencyKey  string
}

// CustomerParams identifies the church on the provider side.
type CustomerParams struct {
	Email       string
	ChurchName  string
	ReferenceID string
}

// CardParams vaults a tokenized card against a provider customer.
type CardParams struct {
	CustomerID string
	SourceID   string
}

// Provider is the billing-provider surface the service depends on.
// The Square implementation lives below; tests substitute a stub.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCard(ctx context.Context, params CardParams) (string, error)
	CreateSubscription(ctx context.Context, params SubscribeParams) (*ProviderSubscription, error)
	CancelSubscription(ctx context.Context, providerSubID string) (*ProviderSubscription, error)
	GetSubscription(ctx context.Context, providerSubID string) (*ProviderSubscription, error)
}

type squareProvider struct {
	client *square.Client
}

// NewSquareProvider adapts the shared Square client to the Provider surface.
func NewSquareProvider(client *square.Client) (Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	return &squareProvider{client: client}, nil
}

func (p *squareProvider) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	cust, err := p.client.CreateCustomer(ctx, square.CustomerCreateParams{
		Email:       params.Email,
		CompanyName: params.ChurchName,
		ReferenceID: params.ReferenceID,
	})
	if err != nil {
		return "", err
	}
	id := cust.GetID()
	if id == nil || *id == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square returned customer without id")
	}
	return *id, nil
}

func (p *squareProvider) CreateCard(ctx context.Context, params CardParams) (string, error) {
	card, err := p.client.CreateCard(ctx, square.CardCreateParams{
		CustomerID: params.CustomerID,
		SourceID:   params.SourceID,
	})
	if err != nil {
		return "", err
	}
	id := card.GetID()
	if id == nil || *id == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "square returned card without id")
	}
	return *id, nil
}

func (p *squareProvider) CreateSubscription(ctx context.Context, params SubscribeParams) (*ProviderSubscription, error) {
	sub, err := p.client.CreateSubscription(ctx, square.SubscriptionCreateParams{
		LocationID:      p.client.LocationID(),
		PlanVariationID: params.PlanVariationID,
		CustomerID:      params.CustomerID,
		CardID:          params.CardID,
		IdempotencyKey:  params.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return convertSubscription(sub), nil
}

func (p *squareProvider) CancelSubscription(ctx context.Context, providerSubID string) (*ProviderSubscription, error) {
	sub, err := p.client.CancelSubscription(ctx, providerSubID)
	if err != nil {
		return nil, err
	}
	return convertSubscription(sub), nil
}

func (p *squareProvider) GetSubscription(ctx context.Context, providerSubID string) (*ProviderSubscription, error) {
	sub, err := p.client.GetSubscription(ctx, providerSubID)
	if err != nil {
		return nil, err
	}
	return convertSubscription(sub), nil
}

func convertSubscription(sub *sq.Subscription) *ProviderSubscription {
	if sub == nil {
		return nil
	}
	out := &ProviderSubscription{
		ID:              stringValue(sub.GetID()),
		Status:          subscriptionStatus(sub.GetStatus()),
		PlanVariationID: stringValue(sub.GetPlanVariationID()),
	}
	out.StartDate = parseSquareDate(sub.GetStartDate())
	out.ChargedThroughDate = parseSquareDate(sub.GetChargedThroughDate())
	if canceled := parseSquareDate(sub.GetCanceledDate()); canceled != nil {
		out.CanceledDate = canceled
		out.CancelAtPeriodEnd = true
	}
	return out
}

// parseSquareDate handles Square's YYYY-MM-DD date strings.
func parseSquareDate(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}

func subscriptionStatus(status *sq.SubscriptionStatus) string {
	if status == nil {
		return ""
	}
	return string(*status)
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
