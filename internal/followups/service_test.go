package followups

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type stubFollowUpsRepo struct {
	records map[uuid.UUID]*models.FollowUpRecord // keyed by member id
}

func newStubFollowUpsRepo() *stubFollowUpsRepo {
	return &stubFollowUpsRepo{records: map[uuid.UUID]*models.FollowUpRecord{}}
}

func (r *stubFollowUpsRepo) FindByMember(_ context.Context, churchID, memberID uuid.UUID) (*models.FollowUpRecord, error) {
	record, ok := r.records[memberID]
	if !ok || record.ChurchID != churchID {
		return nil, gorm.ErrRecordNotFound
	}
	cpy := *record
	return &cpy, nil
}

func (r *stubFollowUpsRepo) UpsertAbsences(_ context.Context, churchID, memberID uuid.UUID, absences int, needsFollowUp bool) (*models.FollowUpRecord, error) {
	record, ok := r.records[memberID]
	if !ok {
		record = &models.FollowUpRecord{
			ID:       uuid.New(),
			ChurchID: churchID,
			MemberID: memberID,
		}
		r.records[memberID] = record
	}
	record.ConsecutiveAbsences = absences
	record.NeedsFollowUp = needsFollowUp
	record.UpdatedAt = time.Now()
	cpy := *record
	return &cpy, nil
}

func (r *stubFollowUpsRepo) Save(_ context.Context, record *models.FollowUpRecord) error {
	cpy := *record
	r.records[record.MemberID] = &cpy
	return nil
}

func (r *stubFollowUpsRepo) Create(_ context.Context, record *models.FollowUpRecord) error {
	record.ID = uuid.New()
	cpy := *record
	r.records[record.MemberID] = &cpy
	return nil
}

func (r *stubFollowUpsRepo) ListNeedingFollowUp(_ context.Context, churchID uuid.UUID, limit int) ([]models.FollowUpRecord, error) {
	var out []models.FollowUpRecord
	for _, record := range r.records {
		if record.ChurchID == churchID && record.NeedsFollowUp {
			out = append(out, *record)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type stubMemberFinder struct {
	members map[uuid.UUID]*models.Member
}

func (f *stubMemberFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	member, ok := f.members[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func newFollowUpsFixture(t *testing.T) (Service, *stubFollowUpsRepo, *stubMemberFinder) {
	t.Helper()
	repo := newStubFollowUpsRepo()
	finder := &stubMemberFinder{members: map[uuid.UUID]*models.Member{}}
	svc, err := NewService(repo, finder)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, repo, finder
}

func addMember(finder *stubMemberFinder, churchID uuid.UUID) uuid.UUID {
	id := uuid.New()
	finder.members[id] = &models.Member{ID: id, ChurchID: churchID}
	return id
}

func TestRecordAbsencesLatchesAtThreshold(t *testing.T) {
	svc, _, finder := newFollowUpsFixture(t)
	churchID := uuid.New()
	memberID := addMember(finder, churchID)
	ctx := context.Background()

	dto, err := svc.RecordAbsences(ctx, churchID, memberID, 2, 3)
	if err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}
	if dto.NeedsFollowUp {
		t.Fatal("flag should stay clear below threshold")
	}
	if dto.ConsecutiveAbsences != 2 {
		t.Fatalf("counter = %d, want 2", dto.ConsecutiveAbsences)
	}

	dto, err = svc.RecordAbsences(ctx, churchID, memberID, 3, 3)
	if err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}
	if !dto.NeedsFollowUp {
		t.Fatal("flag should latch at threshold")
	}
}

func TestRecordAbsencesDoesNotClearLatchedFlag(t *testing.T) {
	svc, _, finder := newFollowUpsFixture(t)
	churchID := uuid.New()
	memberID := addMember(finder, churchID)
	ctx := context.Background()

	if _, err := svc.RecordAbsences(ctx, churchID, memberID, 4, 3); err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}
	// The member attended once; the streak resets but the flag holds
	// until a contact is recorded.
	dto, err := svc.RecordAbsences(ctx, churchID, memberID, 0, 3)
	if err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}
	if !dto.NeedsFollowUp {
		t.Fatal("latched flag must survive a streak reset")
	}
	if dto.ConsecutiveAbsences != 0 {
		t.Fatalf("counter = %d, want 0", dto.ConsecutiveAbsences)
	}
}

func TestRecordContactResetsQueueState(t *testing.T) {
	svc, _, finder := newFollowUpsFixture(t)
	churchID := uuid.New()
	memberID := addMember(finder, churchID)
	ctx := context.Background()

	if _, err := svc.RecordAbsences(ctx, churchID, memberID, 5, 3); err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}

	fixed := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	svc.(*service).now = func() time.Time { return fixed }

	notes := "spoke after service"
	dto, err := svc.RecordContact(ctx, RecordContactInput{
		ChurchID: churchID,
		MemberID: memberID,
		Method:   enums.ContactMethodPhone,
		Notes:    &notes,
	})
	if err != nil {
		t.Fatalf("RecordContact: %v", err)
	}
	if dto.NeedsFollowUp {
		t.Fatal("contact must clear the follow-up flag")
	}
	if dto.ConsecutiveAbsences != 0 {
		t.Fatalf("counter = %d, want 0", dto.ConsecutiveAbsences)
	}
	if dto.LastContactedAt == nil || !dto.LastContactedAt.Equal(fixed) {
		t.Fatalf("last contacted = %v, want %v", dto.LastContactedAt, fixed)
	}
	if dto.ContactMethod == nil || *dto.ContactMethod != enums.ContactMethodPhone {
		t.Fatalf("contact method = %v, want phone", dto.ContactMethod)
	}
	if dto.Notes == nil || *dto.Notes != notes {
		t.Fatalf("notes = %v, want %q", dto.Notes, notes)
	}
}

func TestRecordContactCreatesRecordOnFirstTouch(t *testing.T) {
	svc, repo, finder := newFollowUpsFixture(t)
	churchID := uuid.New()
	memberID := addMember(finder, churchID)

	dto, err := svc.RecordContact(context.Background(), RecordContactInput{
		ChurchID: churchID,
		MemberID: memberID,
		Method:   enums.ContactMethodVisit,
	})
	if err != nil {
		t.Fatalf("RecordContact: %v", err)
	}
	if dto.LastContactedAt == nil {
		t.Fatal("expected contact timestamp on fresh record")
	}
	if _, ok := repo.records[memberID]; !ok {
		t.Fatal("record should be persisted")
	}
}

func TestRecordContactRejectsInvalidMethod(t *testing.T) {
	svc, _, finder := newFollowUpsFixture(t)
	churchID := uuid.New()
	memberID := addMember(finder, churchID)

	_, err := svc.RecordContact(context.Background(), RecordContactInput{
		ChurchID: churchID,
		MemberID: memberID,
		Method:   enums.ContactMethod("carrier-pigeon"),
	})
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFollowUpCrossTenantMemberIsNotFound(t *testing.T) {
	svc, _, finder := newFollowUpsFixture(t)
	churchA := uuid.New()
	churchB := uuid.New()
	memberID := addMember(finder, churchA)

	_, err := svc.GetForMember(context.Background(), churchB, memberID)
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found for cross-tenant member, got %v", err)
	}
}

func TestListQueueReturnsOnlyFlaggedMembers(t *testing.T) {
	svc, _, finder := newFollowUpsFixture(t)
	churchID := uuid.New()
	flagged := addMember(finder, churchID)
	regular := addMember(finder, churchID)
	ctx := context.Background()

	if _, err := svc.RecordAbsences(ctx, churchID, flagged, 4, 3); err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}
	if _, err := svc.RecordAbsences(ctx, churchID, regular, 1, 3); err != nil {
		t.Fatalf("RecordAbsences: %v", err)
	}

	queue, err := svc.ListQueue(ctx, churchID, 10)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	if queue[0].MemberID != flagged {
		t.Fatalf("queue member = %s, want %s", queue[0].MemberID, flagged)
	}
}
