package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/entitlements"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

// maxFamilyDepth bounds the ancestor walk when vetting a parent link. Real
// family chains are a handful of levels deep; hitting the bound means the
// stored links are already corrupt.
const maxFamilyDepth = 32

type membersRepository interface {
	Create(ctx context.Context, dto CreateMemberDTO) (*models.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListByChurch(ctx context.Context, churchID uuid.UUID, limit, offset int) ([]models.Member, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type memberGate interface {
	CanAddMember(ctx context.Context, churchID uuid.UUID) (entitlements.Decision, error)
}

// Service exposes member operations scoped to a church.
type Service interface {
	Create(ctx context.Context, input CreateMemberDTO) (*MemberDTO, error)
	GetByID(ctx context.Context, churchID, memberID uuid.UUID) (*MemberDTO, error)
	List(ctx context.Context, churchID uuid.UUID, limit, offset int) ([]MemberDTO, error)
	Update(ctx context.Context, churchID, memberID uuid.UUID, input UpdateMemberInput) (*MemberDTO, error)
	SetParent(ctx context.Context, churchID, memberID uuid.UUID, parentID *uuid.UUID) (*MemberDTO, error)
	Family(ctx context.Context, churchID, memberID uuid.UUID) ([]MemberDTO, error)
	Delete(ctx context.Context, churchID, memberID uuid.UUID) error
	Count(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type service struct {
	repo membersRepository
	gate memberGate
}

// NewService builds a members service with the provided collaborators.
func NewService(repo membersRepository, gate memberGate) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("members repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("entitlements gate required")
	}
	return &service{repo: repo, gate: gate}, nil
}

// UpdateMemberInput captures the member fields open to mutation.
type UpdateMemberInput struct {
	FirstName         *string
	LastName          *string
	Email             *string
	Phone             *string
	Address           *string
	IsCurrentMember   *bool
	BiometricTemplate *string
	PhotoURL          *string
}

func (s *service) Create(ctx context.Context, input CreateMemberDTO) (*MemberDTO, error) {
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	decision, err := s.gate.CanAddMember(ctx, input.ChurchID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, pkgerrors.New(pkgerrors.CodeFeatureGated, decision.Reason).
			WithDetails(decision)
	}

	if input.ParentID != nil {
		if _, err := s.loadScoped(ctx, input.ChurchID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	member, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create member")
	}
	return FromModel(member), nil
}

func (s *service) GetByID(ctx context.Context, churchID, memberID uuid.UUID) (*MemberDTO, error) {
	member, err := s.loadScoped(ctx, churchID, memberID)
	if err != nil {
		return nil, err
	}
	return FromModel(member), nil
}

func (s *service) List(ctx context.Context, churchID uuid.UUID, limit, offset int) ([]MemberDTO, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByChurch(ctx, churchID, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list members")
	}
	return fromModels(rows), nil
}

func (s *service) Update(ctx context.Context, churchID, memberID uuid.UUID, input UpdateMemberInput) (*MemberDTO, error) {
	member, err := s.loadScoped(ctx, churchID, memberID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name is required")
		}
		member.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name is required")
		}
		member.LastName = *input.LastName
	}
	if input.Email != nil {
		member.Email = cloneStringPtr(input.Email)
	}
	if input.Phone != nil {
		member.Phone = cloneStringPtr(input.Phone)
	}
	if input.Address != nil {
		member.Address = cloneStringPtr(input.Address)
	}
	if input.IsCurrentMember != nil {
		member.IsCurrentMember = *input.IsCurrentMember
	}
	if input.BiometricTemplate != nil {
		member.BiometricTemplate = cloneStringPtr(input.BiometricTemplate)
	}
	if input.PhotoURL != nil {
		member.PhotoURL = cloneStringPtr(input.PhotoURL)
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update member")
	}
	return FromModel(member), nil
}

// SetParent rewrites a family link. The proposed parent must belong to the
// same church, and the link is rejected when it would close a cycle through
// the member's descendants.
func (s *service) SetParent(ctx context.Context, churchID, memberID uuid.UUID, parentID *uuid.UUID) (*MemberDTO, error) {
	member, err := s.loadScoped(ctx, churchID, memberID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == memberID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a member cannot be their own family head")
		}
		parent, err := s.loadScoped(ctx, churchID, *parentID)
		if err != nil {
			return nil, err
		}
		if err := s.rejectCycle(ctx, memberID, parent); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetParent(ctx, memberID, parentID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set member parent")
	}
	member.ParentID = cloneUUIDPtr(parentID)
	return FromModel(member), nil
}

// Family returns the member together with everyone linked under them.
func (s *service) Family(ctx context.Context, churchID, memberID uuid.UUID) ([]MemberDTO, error) {
	head, err := s.loadScoped(ctx, churchID, memberID)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.ListChildren(ctx, memberID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list family members")
	}
	out := []MemberDTO{*FromModel(head)}
	out = append(out, fromModels(children)...)
	return out, nil
}

func (s *service) Delete(ctx context.Context, churchID, memberID uuid.UUID) error {
	if _, err := s.loadScoped(ctx, churchID, memberID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, memberID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete member")
	}
	return nil
}

func (s *service) Count(ctx context.Context, churchID uuid.UUID) (int64, error) {
	count, err := s.repo.CountByChurch(ctx, churchID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	return count, nil
}

// rejectCycle walks the proposed parent's ancestor chain; finding the member
// there means the new link would close a loop.
func (s *service) rejectCycle(ctx context.Context, memberID uuid.UUID, parent *models.Member) error {
	current := parent
	for depth := 0; depth < maxFamilyDepth; depth++ {
		if current.ID == memberID {
			return pkgerrors.New(pkgerrors.CodeValidation, "family link would create a cycle")
		}
		if current.ParentID == nil {
			return nil
		}
		next, err := s.repo.FindByID(ctx, *current.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Dangling link; the chain ends here.
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "walk family chain")
		}
		current = next
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "family chain is too deep")
}

func (s *service) loadScoped(ctx context.Context, churchID, memberID uuid.UUID) (*models.Member, error) {
	member, err := s.repo.FindByID(ctx, memberID)
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

func fromModels(rows []models.Member) []MemberDTO {
	out := make([]MemberDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
