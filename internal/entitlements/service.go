package entitlements

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/plans"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type churchFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

type memberCounter interface {
	CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error)
}

// Decision is the outcome of a gate check. Limit is set when a usage ceiling
// produced the denial.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

// Service answers feature and usage questions for a church.
type Service interface {
	IsTrialActive(ctx context.Context, churchID uuid.UUID) (bool, error)
	GetTrialDaysRemaining(ctx context.Context, churchID uuid.UUID) (int, error)
	HasFeatureAccess(ctx context.Context, churchID uuid.UUID, feature enums.Feature) (bool, error)
	CheckFeatureLimit(ctx context.Context, churchID uuid.UUID, category enums.UsageCategory, currentUsage int) (Decision, error)
	CanAddMember(ctx context.Context, churchID uuid.UUID) (Decision, error)
	GetMemberCount(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type service struct {
	churches churchFinder
	members  memberCounter
	now      func() time.Time
}

// NewService builds the entitlements service with the provided repositories.
func NewService(churches churchFinder, members memberCounter) (Service, error) {
	if churches == nil {
		return nil, fmt.Errorf("churches repository required")
	}
	if members == nil {
		return nil, fmt.Errorf("members repository required")
	}
	return &service{
		churches: churches,
		members:  members,
		now:      time.Now,
	}, nil
}

func (s *service) IsTrialActive(ctx context.Context, churchID uuid.UUID) (bool, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return false, err
	}
	return trialActive(church, s.now()), nil
}

func (s *service) GetTrialDaysRemaining(ctx context.Context, churchID uuid.UUID) (int, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return 0, err
	}
	now := s.now()
	if !trialActive(church, now) {
		return 0, nil
	}
	remaining := church.TrialEndsAt.Sub(now)
	days := int(math.Ceil(remaining.Hours() / 24))
	if days < 0 {
		return 0, nil
	}
	return days, nil
}

// HasFeatureAccess applies the trial override before consulting the plan
// matrix: while the trial window is open every feature is allowed.
func (s *service) HasFeatureAccess(ctx context.Context, churchID uuid.UUID, feature enums.Feature) (bool, error) {
	if !feature.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "unknown feature")
	}
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return false, err
	}
	if trialActive(church, s.now()) {
		return true, nil
	}
	return plans.TierIncludes(church.Tier, feature), nil
}

// CheckFeatureLimit gates a metered operation: the church needs plan access
// and its usage must be below the tier ceiling. A tier without a ceiling for
// the category is unlimited.
func (s *service) CheckFeatureLimit(ctx context.Context, churchID uuid.UUID, category enums.UsageCategory, currentUsage int) (Decision, error) {
	if !category.IsValid() {
		return Decision{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown usage category")
	}
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return Decision{}, err
	}

	if trialActive(church, s.now()) {
		return Decision{Allowed: true}, nil
	}

	// Metered operations require an active plan; basic check-in is the
	// capability every paid tier carries.
	if !plans.TierIncludes(church.Tier, enums.FeatureBasicCheckIn) {
		return Decision{Allowed: false, Reason: "plan does not include this feature"}, nil
	}

	limit, ok := plans.UsageCeiling(church.Tier, category)
	if !ok {
		return Decision{Allowed: true}, nil
	}
	if currentUsage >= limit {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("%s limit reached for the %s plan", category, church.Tier),
			Limit:   &limit,
		}, nil
	}
	return Decision{Allowed: true, Limit: &limit}, nil
}

// CanAddMember denies once the church's member count reaches its own
// max-member ceiling.
func (s *service) CanAddMember(ctx context.Context, churchID uuid.UUID) (Decision, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return Decision{}, err
	}
	count, err := s.members.CountByChurch(ctx, churchID)
	if err != nil {
		return Decision{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	if count >= int64(church.MaxMembers) {
		limit := church.MaxMembers
		return Decision{
			Allowed: false,
			Reason:  "member limit reached",
			Limit:   &limit,
		}, nil
	}
	return Decision{Allowed: true}, nil
}

func (s *service) GetMemberCount(ctx context.Context, churchID uuid.UUID) (int64, error) {
	if _, err := s.loadChurch(ctx, churchID); err != nil {
		return 0, err
	}
	count, err := s.members.CountByChurch(ctx, churchID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	return count, nil
}

func (s *service) loadChurch(ctx context.Context, id uuid.UUID) (*models.Church, error) {
	church, err := s.churches.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
	}
	return church, nil
}

func trialActive(church *models.Church, now time.Time) bool {
	return church.Tier == enums.TierTrial &&
		church.TrialEndsAt != nil &&
		now.Before(*church.TrialEndsAt)
}
