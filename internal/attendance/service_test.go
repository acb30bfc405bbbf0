package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type stubAttendanceRepo struct {
	records   []*models.AttendanceRecord
	createErr error
}

func (s *stubAttendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.records {
		if existing.MemberID == record.MemberID && existing.AttendanceDate.Equal(record.AttendanceDate) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "attendance_records_member_date_key"}
		}
	}
	record.ID = uuid.New()
	s.records = append(s.records, record)
	return nil
}

func (s *stubAttendanceRepo) FindByMemberAndDate(ctx context.Context, memberID uuid.UUID, date time.Time) (*models.AttendanceRecord, error) {
	for _, record := range s.records {
		if record.MemberID == memberID && record.AttendanceDate.Equal(date) {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAttendanceRepo) ListByDate(ctx context.Context, churchID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, record := range s.records {
		if record.ChurchID == churchID && record.AttendanceDate.Equal(date) {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (s *stubAttendanceRepo) ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, record := range s.records {
		if record.MemberID == memberID {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (s *stubAttendanceRepo) CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error) {
	var count int64
	for _, record := range s.records {
		if record.ChurchID == churchID {
			count++
		}
	}
	return count, nil
}

type stubMembers struct {
	rows map[uuid.UUID]*models.Member
}

func newStubMembers(rows ...*models.Member) *stubMembers {
	s := &stubMembers{rows: make(map[uuid.UUID]*models.Member)}
	for _, row := range rows {
		s.rows[row.ID] = row
	}
	return s
}

func (s *stubMembers) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubMembers) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Member, error) {
	var out []models.Member
	for _, row := range s.rows {
		if row.ParentID != nil && *row.ParentID == parentID {
			out = append(out, *row)
		}
	}
	return out, nil
}

type stubGate struct {
	features map[enums.Feature]bool
}

func (s stubGate) HasFeatureAccess(ctx context.Context, churchID uuid.UUID, feature enums.Feature) (bool, error) {
	return s.features[feature], nil
}

func allFeatures() stubGate {
	features := make(map[enums.Feature]bool)
	for _, f := range enums.Features() {
		features[f] = true
	}
	return stubGate{features: features}
}

func testMember(churchID uuid.UUID, parentID *uuid.UUID) *models.Member {
	return &models.Member{
		ID:              uuid.New(),
		ChurchID:        churchID,
		ParentID:        parentID,
		FirstName:       "Test",
		LastName:        "Member",
		IsCurrentMember: true,
	}
}

func newAttendanceService(t *testing.T, repo *stubAttendanceRepo, members *stubMembers, gate featureGate) Service {
	t.Helper()
	svc, err := NewService(repo, members, gate)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	svc.(*service).now = func() time.Time {
		return time.Date(2026, 3, 8, 10, 30, 0, 0, time.UTC)
	}
	return svc
}

func TestCheckInSuccess(t *testing.T) {
	churchID := uuid.New()
	m := testMember(churchID, nil)
	repo := &stubAttendanceRepo{}
	svc := newAttendanceService(t, repo, newStubMembers(m), allFeatures())

	dto, err := svc.CheckIn(context.Background(), CheckInDTO{
		ChurchID: churchID,
		MemberID: m.ID,
		Method:   enums.CheckInMethodManual,
	})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if dto.AttendanceDate != "2026-03-08" {
		t.Fatalf("expected today's date, got %s", dto.AttendanceDate)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
}

func TestCheckInDuplicateDateIsIdempotent(t *testing.T) {
	churchID := uuid.New()
	m := testMember(churchID, nil)
	repo := &stubAttendanceRepo{}
	svc := newAttendanceService(t, repo, newStubMembers(m), allFeatures())

	input := CheckInDTO{ChurchID: churchID, MemberID: m.ID, Method: enums.CheckInMethodManual}
	first, err := svc.CheckIn(context.Background(), input)
	if err != nil {
		t.Fatalf("first check in: %v", err)
	}
	second, err := svc.CheckIn(context.Background(), input)
	if err != nil {
		t.Fatalf("second check in: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the same record back on duplicate check-in")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
}

func TestCheckInBiometricRequiresFeature(t *testing.T) {
	churchID := uuid.New()
	m := testMember(churchID, nil)
	gate := stubGate{features: map[enums.Feature]bool{enums.FeatureBasicCheckIn: true}}
	svc := newAttendanceService(t, &stubAttendanceRepo{}, newStubMembers(m), gate)

	_, err := svc.CheckIn(context.Background(), CheckInDTO{
		ChurchID: churchID,
		MemberID: m.ID,
		Method:   enums.CheckInMethodFingerprint,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeFeatureGated {
		t.Fatalf("expected feature gate, got %v", err)
	}
}

func TestCheckInRejectsCrossTenantMember(t *testing.T) {
	m := testMember(uuid.New(), nil)
	svc := newAttendanceService(t, &stubAttendanceRepo{}, newStubMembers(m), allFeatures())

	_, err := svc.CheckIn(context.Background(), CheckInDTO{
		ChurchID: uuid.New(),
		MemberID: m.ID,
		Method:   enums.CheckInMethodManual,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFamilyCheckIn(t *testing.T) {
	churchID := uuid.New()
	head := testMember(churchID, nil)
	childA := testMember(churchID, &head.ID)
	childB := testMember(churchID, &head.ID)
	repo := &stubAttendanceRepo{}
	svc := newAttendanceService(t, repo, newStubMembers(head, childA, childB), allFeatures())

	records, err := svc.FamilyCheckIn(context.Background(), churchID, head.ID, time.Time{})
	if err != nil {
		t.Fatalf("family check in: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for _, record := range records {
		if record.Method != enums.CheckInMethodFamily {
			t.Fatalf("expected family method, got %s", record.Method)
		}
	}
}

func TestFamilyCheckInRequiresFeature(t *testing.T) {
	churchID := uuid.New()
	head := testMember(churchID, nil)
	gate := stubGate{features: map[enums.Feature]bool{enums.FeatureBasicCheckIn: true}}
	svc := newAttendanceService(t, &stubAttendanceRepo{}, newStubMembers(head), gate)

	_, err := svc.FamilyCheckIn(context.Background(), churchID, head.ID, time.Time{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeFeatureGated {
		t.Fatalf("expected feature gate, got %v", err)
	}
}

func TestFamilyCheckInSkipsAlreadyCheckedIn(t *testing.T) {
	churchID := uuid.New()
	head := testMember(churchID, nil)
	child := testMember(churchID, &head.ID)
	repo := &stubAttendanceRepo{}
	svc := newAttendanceService(t, repo, newStubMembers(head, child), allFeatures())

	if _, err := svc.CheckIn(context.Background(), CheckInDTO{
		ChurchID: churchID,
		MemberID: child.ID,
		Method:   enums.CheckInMethodManual,
	}); err != nil {
		t.Fatalf("pre check in: %v", err)
	}

	records, err := svc.FamilyCheckIn(context.Background(), churchID, head.ID, time.Time{})
	if err != nil {
		t.Fatalf("family check in: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(repo.records) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(repo.records))
	}
}
