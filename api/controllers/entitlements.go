package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/churchconnect/churchconnect-backend/api/responses"
	"github.com/churchconnect/churchconnect-backend/api/validators"
	"github.com/churchconnect/churchconnect-backend/internal/entitlements"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

// EntitlementStatus reports the active church's trial state.
func EntitlementStatus(svc entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.IsTrialActive(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		remaining := 0
		if active {
			remaining, err = svc.GetTrialDaysRemaining(r.Context(), churchID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, struct {
			TrialActive        bool `json:"trial_active"`
			TrialDaysRemaining int  `json:"trial_days_remaining"`
		}{
			TrialActive:        active,
			TrialDaysRemaining: remaining,
		})
	}
}

// EntitlementFeatureAccess answers whether the church's plan (or active
// trial) unlocks a feature.
func EntitlementFeatureAccess(svc entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "feature"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "feature is required"))
			return
		}
		feature, err := enums.ParseFeature(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid feature"))
			return
		}

		allowed, err := svc.HasFeatureAccess(r.Context(), churchID, feature)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, struct {
			Feature enums.Feature `json:"feature"`
			Allowed bool          `json:"allowed"`
		}{
			Feature: feature,
			Allowed: allowed,
		})
	}
}

// EntitlementCheckLimit evaluates a metered usage category against the
// church's plan ceiling.
func EntitlementCheckLimit(svc entitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlement service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "category"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "usage category is required"))
			return
		}
		category, err := enums.ParseUsageCategory(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid usage category"))
			return
		}

		usage, err := validators.ParseQueryInt(r, "usage", 0, 0, maxPageOffset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, err := svc.CheckFeatureLimit(r.Context(), churchID, category, usage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, decision)
	}
}
