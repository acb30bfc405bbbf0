package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

type churchFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
	CountByTier(ctx context.Context) (map[enums.SubscriptionTier]int64, error)
}

type memberCounter interface {
	CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

type attendanceCounter interface {
	CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type visitorCounter interface {
	CountByStatus(ctx context.Context, churchID uuid.UUID, status enums.VisitorStatus) (int64, error)
}

type followUpCounter interface {
	CountNeedingFollowUp(ctx context.Context, churchID uuid.UUID) (int64, error)
}

type adminCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// ChurchStats is the dashboard snapshot for a single tenant.
type ChurchStats struct {
	ChurchID        uuid.UUID              `json:"church_id"`
	Tier            enums.SubscriptionTier `json:"tier"`
	TotalMembers    int64                  `json:"total_members"`
	MaxMembers      int                    `json:"max_members"`
	TotalAttendance int64                  `json:"total_attendance"`
	PendingVisitors int64                  `json:"pending_visitors"`
	FollowUpQueue   int64                  `json:"follow_up_queue"`
}

// PlatformStats is the super-admin console rollup across all tenants.
type PlatformStats struct {
	ChurchesByTier map[enums.SubscriptionTier]int64 `json:"churches_by_tier"`
	TotalChurches  int64                            `json:"total_churches"`
	TotalMembers   int64                            `json:"total_members"`
	TotalAdmins    int64                            `json:"total_admins"`
}

// Service aggregates read-only counts for dashboards.
type Service interface {
	GetChurchStats(ctx context.Context, churchID uuid.UUID) (*ChurchStats, error)
	GetPlatformStats(ctx context.Context) (*PlatformStats, error)
}

type service struct {
	churches   churchFinder
	members    memberCounter
	attendance attendanceCounter
	visitors   visitorCounter
	followUps  followUpCounter
	admins     adminCounter
}

// NewService builds a stats service over the domain repositories.
func NewService(
	churches churchFinder,
	members memberCounter,
	attendance attendanceCounter,
	visitors visitorCounter,
	followUps followUpCounter,
	admins adminCounter,
) (Service, error) {
	if churches == nil || members == nil || attendance == nil || visitors == nil || followUps == nil || admins == nil {
		return nil, fmt.Errorf("stats service requires all repositories")
	}
	return &service{
		churches:   churches,
		members:    members,
		attendance: attendance,
		visitors:   visitors,
		followUps:  followUps,
		admins:     admins,
	}, nil
}

func (s *service) GetChurchStats(ctx context.Context, churchID uuid.UUID) (*ChurchStats, error) {
	church, err := s.churches.FindByID(ctx, churchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
	}

	memberCount, err := s.members.CountByChurch(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	attendanceCount, err := s.attendance.CountByChurch(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count attendance")
	}
	pendingVisitors, err := s.visitors.CountByStatus(ctx, churchID, enums.VisitorStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending visitors")
	}
	queueSize, err := s.followUps.CountNeedingFollowUp(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count follow-up queue")
	}

	return &ChurchStats{
		ChurchID:        church.ID,
		Tier:            church.Tier,
		TotalMembers:    memberCount,
		MaxMembers:      church.MaxMembers,
		TotalAttendance: attendanceCount,
		PendingVisitors: pendingVisitors,
		FollowUpQueue:   queueSize,
	}, nil
}

func (s *service) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	byTier, err := s.churches.CountByTier(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count churches by tier")
	}
	var totalChurches int64
	for _, n := range byTier {
		totalChurches += n
	}

	totalMembers, err := s.members.CountAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count members")
	}
	totalAdmins, err := s.admins.CountAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count admins")
	}

	return &PlatformStats{
		ChurchesByTier: byTier,
		TotalChurches:  totalChurches,
		TotalMembers:   totalMembers,
		TotalAdmins:    totalAdmins,
	}, nil
}
