package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/api/responses"
	"github.com/churchconnect/churchconnect-backend/api/validators"
	"github.com/churchconnect/churchconnect-backend/internal/attendance"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

type checkInRequest struct {
	MemberID       uuid.UUID `json:"member_id" validate:"required"`
	AttendanceDate *string   `json:"attendance_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Method         string    `json:"method" validate:"required"`
	IsGuest        bool      `json:"is_guest"`
}

func (req checkInRequest) toInput(churchID uuid.UUID) (attendance.CheckInDTO, error) {
	method, err := enums.ParseCheckInMethod(req.Method)
	if err != nil {
		return attendance.CheckInDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid check-in method")
	}

	input := attendance.CheckInDTO{
		ChurchID: churchID,
		MemberID: req.MemberID,
		Method:   method,
		IsGuest:  req.IsGuest,
	}
	if req.AttendanceDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.AttendanceDate)
		if err != nil {
			return attendance.CheckInDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attendance date")
		}
		input.AttendanceDate = parsed
	}
	return input, nil
}

// AttendanceCheckIn records one member's check-in. Fingerprint capture is
// tier-gated by the service.
func AttendanceCheckIn(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CheckIn(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

type familyCheckInRequest struct {
	HeadMemberID   uuid.UUID `json:"head_member_id" validate:"required"`
	AttendanceDate *string   `json:"attendance_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// AttendanceFamilyCheckIn checks in the head of household and every linked
// family member in one call.
func AttendanceFamilyCheckIn(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload familyCheckInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var date time.Time
		if payload.AttendanceDate != nil {
			parsed, err := time.Parse("2006-01-02", *payload.AttendanceDate)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid attendance date"))
				return
			}
			date = parsed
		}

		records, err := svc.FamilyCheckIn(r.Context(), churchID, payload.HeadMemberID, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, records)
	}
}

// AttendanceListByDate returns every check-in for a service date. The date
// query param defaults to today.
func AttendanceListByDate(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
			return
		}

		churchID, err := churchIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		date, err := validators.ParseQueryDate(r, "date", time.Now)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListByDate(r.Context(), churchID, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}

// AttendanceListByMember pages through one member's check-in history.
func AttendanceListByMember(svc attendance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "attendance service unavailable"))
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

		records, err := svc.ListByMember(r.Context(), churchID, memberID, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, records)
	}
}
