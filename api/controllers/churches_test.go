package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/internal/churches"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type stubChurchService struct {
	dto          *churches.ChurchDTO
	err          error
	available    bool
	availableErr error
}

func (s stubChurchService) Create(_ context.Context, _ churches.CreateChurchDTO) (*churches.ChurchDTO, error) {
	return s.dto, s.err
}

func (s stubChurchService) GetByID(_ context.Context, _ uuid.UUID) (*churches.ChurchDTO, error) {
	return s.dto, s.err
}

func (s stubChurchService) GetBySubdomain(_ context.Context, _ string) (*churches.ChurchDTO, error) {
	return s.dto, s.err
}

func (s stubChurchService) IsSubdomainAvailable(_ context.Context, _ string) (bool, error) {
	return s.available, s.availableErr
}

func (s stubChurchService) UpdateBranding(_ context.Context, _ uuid.UUID, _ churches.UpdateBrandingInput) (*churches.ChurchDTO, error) {
	return s.dto, s.err
}

func (s stubChurchService) SetKioskMode(_ context.Context, _ uuid.UUID, _ churches.KioskModeInput) (*churches.ChurchDTO, error) {
	return s.dto, s.err
}

func (s stubChurchService) StartKioskSession(_ context.Context, _ uuid.UUID) (*churches.KioskSessionDTO, error) {
	return nil, s.err
}

func (s stubChurchService) EndKioskSession(_ context.Context, _ uuid.UUID) error {
	return s.err
}

func (s stubChurchService) List(_ context.Context, _, _ int) ([]churches.ChurchDTO, error) {
	return nil, s.err
}

func (s stubChurchService) DeleteChurchByID(_ context.Context, _ uuid.UUID) error {
	return s.err
}

func TestChurchBySubdomainReturnsBrandingOnly(t *testing.T) {
	logo := "https://cdn.example.org/logo.png"
	dto := &churches.ChurchDTO{
		ID:         uuid.New(),
		Name:       "Grace Chapel",
		Subdomain:  "grace",
		MaxMembers: 250,
		LogoURL:    &logo,
	}
	handler := ChurchBySubdomain(stubChurchService{dto: dto}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/churches/grace", nil)
	req = withRouteParam(req, "subdomain", "grace")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["name"] != "Grace Chapel" {
		t.Fatalf("unexpected name %v", envelope.Data["name"])
	}
	if envelope.Data["logo_url"] != logo {
		t.Fatalf("unexpected logo %v", envelope.Data["logo_url"])
	}
	for _, hidden := range []string{"tier", "max_members", "contact_email", "kiosk_enabled", "id"} {
		if _, ok := envelope.Data[hidden]; ok {
			t.Fatalf("field %s must not leak on the public profile", hidden)
		}
	}
}

func TestChurchBySubdomainNotFound(t *testing.T) {
	handler := ChurchBySubdomain(stubChurchService{err: pkgerrors.New(pkgerrors.CodeNotFound, "church not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/churches/nope", nil)
	req = withRouteParam(req, "subdomain", "nope")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestSubdomainAvailabilityNormalizes(t *testing.T) {
	handler := SubdomainAvailability(stubChurchService{available: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/subdomains/Grace/availability", nil)
	req = withRouteParam(req, "subdomain", "Grace")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Subdomain string `json:"subdomain"`
			Available bool   `json:"available"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Subdomain != "grace" {
		t.Fatalf("expected normalized subdomain, got %q", envelope.Data.Subdomain)
	}
	if !envelope.Data.Available {
		t.Fatal("expected available")
	}
}
