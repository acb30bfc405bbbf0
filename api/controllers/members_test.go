package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/api/middleware"
	"github.com/churchconnect/churchconnect-backend/internal/members"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type stubMemberService struct {
	created   *members.MemberDTO
	createErr error
	dto       *members.MemberDTO
	getErr    error
	list      []members.MemberDTO
	listErr   error
	updated   *members.MemberDTO
	updateErr error
	parentRes *members.MemberDTO
	parentErr error
	family    []members.MemberDTO
	familyErr error
	deleteErr error

	lastCreate members.CreateMemberDTO
	lastParent *uuid.UUID
}

func (s *stubMemberService) Create(_ context.Context, input members.CreateMemberDTO) (*members.MemberDTO, error) {
	s.lastCreate = input
	return s.created, s.createErr
}

func (s *stubMemberService) GetByID(_ context.Context, _, _ uuid.UUID) (*members.MemberDTO, error) {
	return s.dto, s.getErr
}

func (s *stubMemberService) List(_ context.Context, _ uuid.UUID, _, _ int) ([]members.MemberDTO, error) {
	return s.list, s.listErr
}

func (s *stubMemberService) Update(_ context.Context, _, _ uuid.UUID, _ members.UpdateMemberInput) (*members.MemberDTO, error) {
	return s.updated, s.updateErr
}

func (s *stubMemberService) SetParent(_ context.Context, _, _ uuid.UUID, parentID *uuid.UUID) (*members.MemberDTO, error) {
	s.lastParent = parentID
	return s.parentRes, s.parentErr
}

func (s *stubMemberService) Family(_ context.Context, _, _ uuid.UUID) ([]members.MemberDTO, error) {
	return s.family, s.familyErr
}

func (s *stubMemberService) Delete(_ context.Context, _, _ uuid.UUID) error {
	return s.deleteErr
}

func (s *stubMemberService) Count(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(s.list)), nil
}

func withChurch(req *http.Request, churchID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithChurchID(req.Context(), churchID.String()))
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestMemberCreateSuccess(t *testing.T) {
	churchID := uuid.New()
	created := &members.MemberDTO{
		ID:        uuid.New(),
		ChurchID:  churchID,
		FirstName: "Ada",
		LastName:  "Eze",
	}
	svc := &stubMemberService{created: created}
	handler := MemberCreate(svc, nil)

	payload := []byte(`{"first_name":"Ada","last_name":"Eze","birth_date":"2010-04-12"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withChurch(req, churchID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if svc.lastCreate.ChurchID != churchID {
		t.Fatalf("expected church %s got %s", churchID, svc.lastCreate.ChurchID)
	}
	if svc.lastCreate.BirthDate == nil || svc.lastCreate.BirthDate.Year() != 2010 {
		t.Fatalf("expected parsed birth date, got %v", svc.lastCreate.BirthDate)
	}

	var envelope struct {
		Data members.MemberDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != created.ID {
		t.Fatalf("expected id %s got %s", created.ID, envelope.Data.ID)
	}
}

func TestMemberCreateMissingChurchContext(t *testing.T) {
	handler := MemberCreate(&stubMemberService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewReader([]byte(`{"first_name":"A","last_name":"B"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestMemberCreateInvalidBirthDate(t *testing.T) {
	handler := MemberCreate(&stubMemberService{}, nil)

	payload := []byte(`{"first_name":"Ada","last_name":"Eze","birth_date":"12/04/2010"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withChurch(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMemberCreateLimitReached(t *testing.T) {
	svc := &stubMemberService{createErr: pkgerrors.New(pkgerrors.CodeFeatureGated, "member limit reached for tier")}
	handler := MemberCreate(svc, nil)

	payload := []byte(`{"first_name":"Ada","last_name":"Eze"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/members", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withChurch(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", rec.Code)
	}
}

func TestMemberGetNotFound(t *testing.T) {
	svc := &stubMemberService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "member not found")}
	handler := MemberGet(svc, nil)

	memberID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/"+memberID, nil)
	req = withChurch(req, uuid.New())
	req = withRouteParam(req, "memberId", memberID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestMemberGetInvalidID(t *testing.T) {
	handler := MemberGet(&stubMemberService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members/not-a-uuid", nil)
	req = withChurch(req, uuid.New())
	req = withRouteParam(req, "memberId", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMemberListRejectsBadLimit(t *testing.T) {
	handler := MemberList(&stubMemberService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members?limit=washed", nil)
	req = withChurch(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestMemberListSuccess(t *testing.T) {
	churchID := uuid.New()
	svc := &stubMemberService{list: []members.MemberDTO{
		{ID: uuid.New(), ChurchID: churchID, FirstName: "Ada", LastName: "Eze"},
		{ID: uuid.New(), ChurchID: churchID, FirstName: "Obi", LastName: "Eze"},
	}}
	handler := MemberList(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members?limit=50", nil)
	req = withChurch(req, churchID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data []members.MemberDTO `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 members got %d", len(envelope.Data))
	}
}

func TestMemberSetParentDetach(t *testing.T) {
	memberID := uuid.New()
	svc := &stubMemberService{
		parentRes:  &members.MemberDTO{ID: memberID},
		lastParent: &memberID, // sentinel that must be overwritten with nil
	}
	handler := MemberSetParent(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/members/"+memberID.String()+"/parent", bytes.NewReader([]byte(`{"parent_id":null}`)))
	req.Header.Set("Content-Type", "application/json")
	req = withChurch(req, uuid.New())
	req = withRouteParam(req, "memberId", memberID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.lastParent != nil {
		t.Fatalf("expected nil parent for detach got %v", svc.lastParent)
	}
}

func TestMemberSetParentCycleConflict(t *testing.T) {
	memberID := uuid.New()
	parentID := uuid.New()
	svc := &stubMemberService{parentErr: pkgerrors.New(pkgerrors.CodeConflict, "parent link would create a cycle")}
	handler := MemberSetParent(svc, nil)

	payload := []byte(`{"parent_id":"` + parentID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/members/"+memberID.String()+"/parent", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req = withChurch(req, uuid.New())
	req = withRouteParam(req, "memberId", memberID.String())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestMemberDeleteSuccess(t *testing.T) {
	memberID := uuid.NewString()
	handler := MemberDelete(&stubMemberService{}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/members/"+memberID, nil)
	req = withChurch(req, uuid.New())
	req = withRouteParam(req, "memberId", memberID)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data interface{} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data != nil {
		t.Fatalf("expected nil data got %v", envelope.Data)
	}
}

func TestMemberServiceUnavailable(t *testing.T) {
	handler := MemberList(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/members", nil)
	req = withChurch(req, uuid.New())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
