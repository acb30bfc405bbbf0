package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindByMemberAndDate(ctx context.Context, memberID uuid.UUID, date time.Time) (*models.AttendanceRecord, error)
	ListByDate(ctx context.Context, churchID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error)
	ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]models.AttendanceRecord, error)
	CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type memberReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Member, error)
}

type featureGate interface {
	HasFeatureAccess(ctx context.Context, churchID uuid.UUID, feature enums.Feature) (bool, error)
}

// Service records and reads attendance for a church.
type Service interface {
	CheckIn(ctx context.Context, input CheckInDTO) (*RecordDTO, error)
	FamilyCheckIn(ctx context.Context, churchID, headMemberID uuid.UUID, date time.Time) ([]RecordDTO, error)
	ListByDate(ctx context.Context, churchID uuid.UUID, date time.Time) ([]RecordDTO, error)
	ListByMember(ctx context.Context, churchID, memberID uuid.UUID, limit, offset int) ([]RecordDTO, error)
	Count(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type service struct {
	repo    attendanceRepository
	members memberReader
	gate    featureGate
	now     func() time.Time
}

// NewService builds an attendance service with the provided collaborators.
func NewService(repo attendanceRepository, members memberReader, gate featureGate) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("attendance repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("members repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("entitlements gate required")
	}
	return &service{
		repo:    repo,
		members: members,
		gate:    gate,
		now:     time.Now,
	}, nil
}

// CheckIn records one member's attendance. Checking the same member in twice
// on one date returns the existing record rather than failing, so kiosks can
// retry without error handling.
func (s *service) CheckIn(ctx context.Context, input CheckInDTO) (*RecordDTO, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid check-in method")
	}
	if err := s.requireMethodAccess(ctx, input.ChurchID, input.Method); err != nil {
		return nil, err
	}
	if _, err := s.loadScopedMember(ctx, input.ChurchID, input.MemberID); err != nil {
		return nil, err
	}

	record, err := s.insert(ctx, input)
	if err != nil {
		return nil, err
	}
	return FromModel(record), nil
}

// FamilyCheckIn checks in the head of household and everyone linked under
// them in one call.
func (s *service) FamilyCheckIn(ctx context.Context, churchID, headMemberID uuid.UUID, date time.Time) ([]RecordDTO, error) {
	if err := s.requireMethodAccess(ctx, churchID, enums.CheckInMethodFamily); err != nil {
		return nil, err
	}
	head, err := s.loadScopedMember(ctx, churchID, headMemberID)
	if err != nil {
		return nil, err
	}
	children, err := s.members.ListChildren(ctx, headMemberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list family members")
	}

	family := append([]models.Member{*head}, children...)
	out := make([]RecordDTO, 0, len(family))
	for i := range family {
		record, err := s.insert(ctx, CheckInDTO{
			ChurchID:       churchID,
			MemberID:       family[i].ID,
			AttendanceDate: date,
			Method:         enums.CheckInMethodFamily,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, *FromModel(record))
	}
	return out, nil
}

func (s *service) ListByDate(ctx context.Context, churchID uuid.UUID, date time.Time) ([]RecordDTO, error) {
	rows, err := s.repo.ListByDate(ctx, churchID, normalizeDate(date, s.now))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list attendance")
	}
	return fromModels(rows), nil
}

func (s *service) ListByMember(ctx context.Context, churchID, memberID uuid.UUID, limit, offset int) ([]RecordDTO, error) {
	if _, err := s.loadScopedMember(ctx, churchID, memberID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByMember(ctx, memberID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member attendance")
	}
	return fromModels(rows), nil
}

func (s *service) Count(ctx context.Context, churchID uuid.UUID) (int64, error) {
	count, err := s.repo.CountByChurch(ctx, churchID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count attendance")
	}
	return count, nil
}

func (s *service) insert(ctx context.Context, input CheckInDTO) (*models.AttendanceRecord, error) {
	date := normalizeDate(input.AttendanceDate, s.now)
	record := &models.AttendanceRecord{
		ChurchID:       input.ChurchID,
		MemberID:       input.MemberID,
		AttendanceDate: date,
		CheckedInAt:    s.now().UTC(),
		Method:         input.Method,
		IsGuest:        input.IsGuest,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsUniqueViolation(err, db.ConstraintAttendanceMemberDate) {
			existing, findErr := s.repo.FindByMemberAndDate(ctx, input.MemberID, date)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load existing check-in")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record check-in")
	}
	return record, nil
}

func (s *service) requireMethodAccess(ctx context.Context, churchID uuid.UUID, method enums.CheckInMethod) error {
	feature := enums.FeatureBasicCheckIn
	switch method {
	case enums.CheckInMethodFingerprint:
		feature = enums.FeatureBiometricCheckIn
	case enums.CheckInMethodFamily:
		feature = enums.FeatureFamilyCheckIn
	}
	ok, err := s.gate.HasFeatureAccess(ctx, churchID, feature)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeFeatureGated,
			fmt.Sprintf("%s is not included in the current plan", feature))
	}
	return nil
}

func (s *service) loadScopedMember(ctx context.Context, churchID, memberID uuid.UUID) (*models.Member, error) {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	if member.ChurchID != churchID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return member, nil
}

func normalizeDate(date time.Time, now func() time.Time) time.Time {
	if date.IsZero() {
		date = now()
	}
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fromModels(rows []models.AttendanceRecord) []RecordDTO {
	out := make([]RecordDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
