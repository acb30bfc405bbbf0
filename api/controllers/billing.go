package controllers

import (
	"net/http"

	"github.com/churchconnect/churchconnect-backend/api/responses"
	"github.com/churchconnect/churchconnect-backend/api/validators"
	"github.com/churchconnect/churchconnect-backend/internal/billing"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

// BillingPlans lists the purchasable subscription plans.
func BillingPlans(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		plans, err := svc.ListPlans(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, plans)
	}
}

type subscribeRequest struct {
	PlanID       string `json:"plan_id" validate:"required"`
	CardSourceID string `json:"card_source_id" validate:"required"`
	BillingEmail string `json:"billing_email" validate:"required,email"`
}

// BillingSubscribe moves the active church onto a paid plan.
func BillingSubscribe(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload subscribeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Subscribe(r.Context(), billing.SubscribeInput{
			ChurchID:     churchID,
			PlanID:       payload.PlanID,
			CardSourceID: payload.CardSourceID,
			BillingEmail: payload.BillingEmail,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// BillingSubscription returns the active church's subscription.
func BillingSubscription(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.GetForChurch(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sub)
	}
}

// BillingCancel schedules the subscription to lapse at period end.
func BillingCancel(svc billing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.CancelAtPeriodEnd(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sub)
	}
}
