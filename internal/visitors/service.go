package visitors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/members"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type visitorsRepository interface {
	Create(ctx context.Context, dto CreateVisitorDTO) (*models.Visitor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error)
	ListByChurch(ctx context.Context, churchID uuid.UUID, status *enums.VisitorStatus, limit, offset int) ([]models.Visitor, error)
	Update(ctx context.Context, visitor *models.Visitor) error
}

type memberCreator interface {
	Create(ctx context.Context, input members.CreateMemberDTO) (*members.MemberDTO, error)
}

type featureGate interface {
	HasFeatureAccess(ctx context.Context, churchID uuid.UUID, feature enums.Feature) (bool, error)
}

// Service tracks first-time visitors through to membership.
type Service interface {
	Create(ctx context.Context, input CreateVisitorDTO) (*VisitorDTO, error)
	List(ctx context.Context, churchID uuid.UUID, status *enums.VisitorStatus, limit, offset int) ([]VisitorDTO, error)
	MarkContacted(ctx context.Context, churchID, visitorID uuid.UUID) (*VisitorDTO, error)
	ConvertToMember(ctx context.Context, churchID, visitorID uuid.UUID) (*VisitorDTO, error)
}

type service struct {
	repo    visitorsRepository
	members memberCreator
	gate    featureGate
	now     func() time.Time
}

// NewService builds a visitors service with the provided collaborators.
func NewService(repo visitorsRepository, memberSvc memberCreator, gate featureGate) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("visitors repository required")
	}
	if memberSvc == nil {
		return nil, fmt.Errorf("members service required")
	}
	if gate == nil {
		return nil, fmt.Errorf("entitlements gate required")
	}
	return &service{
		repo:    repo,
		members: memberSvc,
		gate:    gate,
		now:     time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateVisitorDTO) (*VisitorDTO, error) {
	if err := s.requireAccess(ctx, input.ChurchID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	if input.VisitDate.IsZero() {
		input.VisitDate = s.now().UTC()
	}

	visitor, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create visitor")
	}
	return FromModel(visitor), nil
}

func (s *service) List(ctx context.Context, churchID uuid.UUID, status *enums.VisitorStatus, limit, offset int) ([]VisitorDTO, error) {
	if err := s.requireAccess(ctx, churchID); err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid visitor status")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByChurch(ctx, churchID, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list visitors")
	}
	out := make([]VisitorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) MarkContacted(ctx context.Context, churchID, visitorID uuid.UUID) (*VisitorDTO, error) {
	visitor, err := s.loadScoped(ctx, churchID, visitorID)
	if err != nil {
		return nil, err
	}
	if visitor.Status == enums.VisitorStatusMember {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "visitor has already become a member")
	}

	visitor.Status = enums.VisitorStatusContacted
	if err := s.repo.Update(ctx, visitor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update visitor")
	}
	return FromModel(visitor), nil
}

// ConvertToMember creates a member from the visitor's details and links the
// two records. Converting twice is rejected.
func (s *service) ConvertToMember(ctx context.Context, churchID, visitorID uuid.UUID) (*VisitorDTO, error) {
	visitor, err := s.loadScoped(ctx, churchID, visitorID)
	if err != nil {
		return nil, err
	}
	if visitor.Status == enums.VisitorStatusMember || visitor.MemberID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "visitor has already been converted")
	}

	member, err := s.members.Create(ctx, members.CreateMemberDTO{
		ChurchID:  churchID,
		FirstName: visitor.FirstName,
		LastName:  visitor.LastName,
		Email:     visitor.Email,
		Phone:     visitor.Phone,
		Address:   visitor.Address,
	})
	if err != nil {
		return nil, err
	}

	visitor.MemberID = &member.ID
	visitor.Status = enums.VisitorStatusMember
	if err := s.repo.Update(ctx, visitor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link visitor to member")
	}
	return FromModel(visitor), nil
}

func (s *service) requireAccess(ctx context.Context, churchID uuid.UUID) error {
	ok, err := s.gate.HasFeatureAccess(ctx, churchID, enums.FeatureVisitorManagement)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeFeatureGated, "visitor management is not included in the current plan")
	}
	return nil
}

func (s *service) loadScoped(ctx context.Context, churchID, visitorID uuid.UUID) (*models.Visitor, error) {
	visitor, err := s.repo.FindByID(ctx, visitorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "visitor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load visitor")
	}
	if visitor.ChurchID != churchID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "visitor not found")
	}
	return visitor, nil
}
