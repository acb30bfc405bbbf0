package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/churchconnect/churchconnect-backend/api/responses"
	"github.com/churchconnect/churchconnect-backend/api/validators"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

// ChurchProfile returns the active church's profile using the tenant-scoped JWT.
func ChurchProfile(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetByID(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// SubdomainAvailability answers whether a subdomain can still be claimed.
func SubdomainAvailability(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		subdomain := strings.TrimSpace(chi.URLParam(r, "subdomain"))
		if subdomain == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subdomain is required"))
			return
		}

		available, err := svc.IsSubdomainAvailable(r.Context(), subdomain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, struct {
			Subdomain string `json:"subdomain"`
			Available bool   `json:"available"`
		}{
			Subdomain: churches.NormalizeSubdomain(subdomain),
			Available: available,
		})
	}
}

// ChurchBySubdomain resolves a tenant's public branding for the sign-in and
// check-in pages. Only display fields leave this endpoint; tier, contact and
// kiosk state stay behind authentication.
func ChurchBySubdomain(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		subdomain := strings.TrimSpace(chi.URLParam(r, "subdomain"))
		if subdomain == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "subdomain is required"))
			return
		}

		church, err := svc.GetBySubdomain(r.Context(), subdomain)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, struct {
			Name       string  `json:"name"`
			Subdomain  string  `json:"subdomain"`
			LogoURL    *string `json:"logo_url,omitempty"`
			BannerURL  *string `json:"banner_url,omitempty"`
			BrandColor *string `json:"brand_color,omitempty"`
		}{
			Name:       church.Name,
			Subdomain:  church.Subdomain,
			LogoURL:    church.LogoURL,
			BannerURL:  church.BannerURL,
			BrandColor: church.BrandColor,
		})
	}
}

type brandingUpdateRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1"`
	LogoURL    *string `json:"logo_url,omitempty"`
	BannerURL  *string `json:"banner_url,omitempty"`
	BrandColor *string `json:"brand_color,omitempty"`
}

func (r brandingUpdateRequest) toInput() churches.UpdateBrandingInput {
	return churches.UpdateBrandingInput{
		Name:       r.Name,
		LogoURL:    r.LogoURL,
		BannerURL:  r.BannerURL,
		BrandColor: r.BrandColor,
	}
}

// ChurchUpdateBranding adjusts the tenant's display name and branding assets.
func ChurchUpdateBranding(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload brandingUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateBranding(r.Context(), churchID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

type kioskModeRequest struct {
	Enabled        bool `json:"enabled"`
	TimeoutMinutes *int `json:"timeout_minutes,omitempty" validate:"omitempty,min=1,max=1440"`
}

// ChurchSetKioskMode toggles the self-service check-in kiosk for the tenant.
func ChurchSetKioskMode(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload kioskModeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.SetKioskMode(r.Context(), churchID, churches.KioskModeInput{
			Enabled:        payload.Enabled,
			TimeoutMinutes: payload.TimeoutMinutes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

// ChurchStartKioskSession opens a kiosk session and returns its token.
func ChurchStartKioskSession(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.StartKioskSession(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// ChurchEndKioskSession closes the active kiosk session.
func ChurchEndKioskSession(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "church service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.EndKioskSession(r.Context(), churchID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
