package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/api/responses"
	"github.com/churchconnect/churchconnect-backend/api/validators"
	"github.com/churchconnect/churchconnect-backend/internal/members"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

type memberCreateRequest struct {
	ParentID          *uuid.UUID `json:"parent_id,omitempty"`
	FirstName         string     `json:"first_name" validate:"required"`
	LastName          string     `json:"last_name" validate:"required"`
	Email             *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string    `json:"phone,omitempty"`
	BirthDate         *string    `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender            *string    `json:"gender,omitempty"`
	Address           *string    `json:"address,omitempty"`
	BiometricTemplate *string    `json:"biometric_template,omitempty"`
	PhotoURL          *string    `json:"photo_url,omitempty"`
}

func (req memberCreateRequest) toInput(churchID uuid.UUID) (members.CreateMemberDTO, error) {
	input := members.CreateMemberDTO{
		ChurchID:          churchID,
		ParentID:          req.ParentID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		Gender:            req.Gender,
		Address:           req.Address,
		BiometricTemplate: req.BiometricTemplate,
		PhotoURL:          req.PhotoURL,
	}
	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return members.CreateMemberDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid birth date")
		}
		input.BirthDate = &parsed
	}
	return input, nil
}

// MemberCreate adds a member to the active church. Tier member ceilings are
// enforced by the service.
func MemberCreate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload memberCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, member)
	}
}

// MemberGet returns a single member scoped to the active church.
func MemberGet(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberId", "member id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.GetByID(r.Context(), churchID, memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

// MemberList pages through the active church's roster.
func MemberList(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, maxPageOffset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		roster, err := svc.List(r.Context(), churchID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, roster)
	}
}

type memberUpdateRequest struct {
	FirstName         *string `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName          *string `json:"last_name,omitempty" validate:"omitempty,min=1"`
	Email             *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone             *string `json:"phone,omitempty"`
	Address           *string `json:"address,omitempty"`
	IsCurrentMember   *bool   `json:"is_current_member,omitempty"`
	BiometricTemplate *string `json:"biometric_template,omitempty"`
	PhotoURL          *string `json:"photo_url,omitempty"`
}

func (req memberUpdateRequest) toInput() members.UpdateMemberInput {
	return members.UpdateMemberInput{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		Phone:             req.Phone,
		Address:           req.Address,
		IsCurrentMember:   req.IsCurrentMember,
		BiometricTemplate: req.BiometricTemplate,
		PhotoURL:          req.PhotoURL,
	}
}

// MemberUpdate adjusts the mutable member fields.
func MemberUpdate(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberId", "member id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload memberUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.Update(r.Context(), churchID, memberID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

type memberSetParentRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// MemberSetParent links a member under a parent, or detaches when parent_id
// is null.
func MemberSetParent(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberId", "member id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload memberSetParentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.SetParent(r.Context(), churchID, memberID, payload.ParentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, member)
	}
}

// MemberFamily returns the member's family group: the head of household and
// everyone linked beneath it.
func MemberFamily(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberId", "member id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		family, err := svc.Family(r.Context(), churchID, memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, family)
	}
}

// MemberDelete removes a member from the active church.
func MemberDelete(svc members.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "member service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberID, err := pathUUID(r, "memberId", "member id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), churchID, memberID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
