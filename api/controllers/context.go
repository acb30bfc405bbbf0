package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/api/middleware"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/pagination"
)

const (
	defaultPageSize = pagination.DefaultLimit
	maxPageSize     = pagination.MaxLimit
	maxPageOffset   = pagination.MaxOffset
)

func churchIDFromRequest(r *http.Request) (uuid.UUID, error) {
	if r == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "church context missing")
	}
	churchID := middleware.ChurchIDFromContext(r.Context())
	if churchID == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "church context missing")
	}
	id, err := uuid.Parse(churchID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid church id")
	}
	return id, nil
}

func pathUUID(r *http.Request, param, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
