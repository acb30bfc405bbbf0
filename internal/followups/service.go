package followups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type followUpsRepository interface {
	FindByMember(ctx context.Context, churchID, memberID uuid.UUID) (*models.FollowUpRecord, error)
	UpsertAbsences(ctx context.Context, churchID, memberID uuid.UUID, absences int, needsFollowUp bool) (*models.FollowUpRecord, error)
	Save(ctx context.Context, record *models.FollowUpRecord) error
	Create(ctx context.Context, record *models.FollowUpRecord) error
	ListNeedingFollowUp(ctx context.Context, churchID uuid.UUID, limit int) ([]models.FollowUpRecord, error)
}

type memberFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
}

// RecordContactInput captures a completed pastoral touch.
type RecordContactInput struct {
	ChurchID uuid.UUID           `json:"-"`
	MemberID uuid.UUID           `json:"member_id"`
	Method   enums.ContactMethod `json:"method"`
	Notes    *string             `json:"notes,omitempty"`
}

// Service manages the follow-up queue for members who have stopped
// attending. Records are created lazily: the absence sweep or the
// first recorded contact creates the row.
type Service interface {
	GetForMember(ctx context.Context, churchID, memberID uuid.UUID) (*FollowUpDTO, error)
	ListQueue(ctx context.Context, churchID uuid.UUID, limit int) ([]FollowUpDTO, error)
	RecordContact(ctx context.Context, input RecordContactInput) (*FollowUpDTO, error)
	RecordAbsences(ctx context.Context, churchID, memberID uuid.UUID, consecutive int, threshold int) (*FollowUpDTO, error)
}

type service struct {
	repo    followUpsRepository
	members memberFinder
	now     func() time.Time
}

// NewService builds a follow-ups service with the provided collaborators.
func NewService(repo followUpsRepository, members memberFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("follow-ups repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("members repository required")
	}
	return &service{
		repo:    repo,
		members: members,
		now:     time.Now,
	}, nil
}

func (s *service) GetForMember(ctx context.Context, churchID, memberID uuid.UUID) (*FollowUpDTO, error) {
	if err := s.requireMember(ctx, churchID, memberID); err != nil {
		return nil, err
	}
	record, err := s.repo.FindByMember(ctx, churchID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no follow-up record for member")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load follow-up record")
	}
	return FromModel(record), nil
}

func (s *service) ListQueue(ctx context.Context, churchID uuid.UUID, limit int) ([]FollowUpDTO, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.repo.ListNeedingFollowUp(ctx, churchID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list follow-up queue")
	}
	out := make([]FollowUpDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// RecordContact marks a member as contacted: stamps the time and
// method, clears the needs-follow-up flag, and resets the absence
// counter so the next sweep starts fresh.
func (s *service) RecordContact(ctx context.Context, input RecordContactInput) (*FollowUpDTO, error) {
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact method").
			WithDetails(fmt.Sprintf("method %q is not recognized", input.Method))
	}
	if input.Notes != nil && strings.TrimSpace(*input.Notes) == "" {
		input.Notes = nil
	}
	if err := s.requireMember(ctx, input.ChurchID, input.MemberID); err != nil {
		return nil, err
	}

	contactedAt := s.now().UTC()
	record, err := s.repo.FindByMember(ctx, input.ChurchID, input.MemberID)
	switch {
	case err == nil:
		record.LastContactedAt = &contactedAt
		record.ContactMethod = &input.Method
		record.ConsecutiveAbsences = 0
		record.NeedsFollowUp = false
		if input.Notes != nil {
			record.Notes = input.Notes
		}
		if err := s.repo.Save(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save follow-up record")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &models.FollowUpRecord{
			ChurchID:        input.ChurchID,
			MemberID:        input.MemberID,
			LastContactedAt: &contactedAt,
			ContactMethod:   &input.Method,
			Notes:           input.Notes,
		}
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create follow-up record")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load follow-up record")
	}
	return FromModel(record), nil
}

// RecordAbsences is the write path for the weekly absence sweep. The
// needs-follow-up flag latches on once the streak reaches the
// configured threshold and stays set until someone records a contact.
func (s *service) RecordAbsences(ctx context.Context, churchID, memberID uuid.UUID, consecutive int, threshold int) (*FollowUpDTO, error) {
	if consecutive < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "absence count cannot be negative")
	}
	if threshold <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "absence threshold must be positive")
	}

	needsFollowUp := consecutive >= threshold
	if !needsFollowUp {
		// Keep an already-latched flag set; a shrinking streak alone
		// does not clear it.
		existing, err := s.repo.FindByMember(ctx, churchID, memberID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load follow-up record")
		}
		if existing != nil && existing.NeedsFollowUp {
			needsFollowUp = true
		}
	}

	record, err := s.repo.UpsertAbsences(ctx, churchID, memberID, consecutive, needsFollowUp)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert absence streak")
	}
	return FromModel(record), nil
}

func (s *service) requireMember(ctx context.Context, churchID, memberID uuid.UUID) error {
	member, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load member")
	}
	if member.ChurchID != churchID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
	}
	return nil
}
