package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/churchconnect/churchconnect-backend/internal/followups"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

const (
	defaultAbsenceThreshold = 3
	scanPageSize            = 200
	week                    = 7 * 24 * time.Hour
)

// AbsenceScanJobParams configures the weekly absence sweep.
type AbsenceScanJobParams struct {
	Logger         *logger.Logger
	ChurchRepo     absenceChurchLister
	MemberRepo     absenceMemberLister
	AttendanceRepo absenceAttendanceRepository
	FollowUps      absenceRecorder
	WeekThreshold  int
	Now            func() time.Time
}

type absenceChurchLister interface {
	List(ctx context.Context, limit, offset int) ([]models.Church, error)
}

type absenceMemberLister interface {
	ListByChurch(ctx context.Context, churchID uuid.UUID, limit, offset int) ([]models.Member, error)
}

type absenceAttendanceRepository interface {
	LastAttendanceDates(ctx context.Context, churchID uuid.UUID) (map[uuid.UUID]time.Time, error)
}

type absenceRecorder interface {
	RecordAbsences(ctx context.Context, churchID, memberID uuid.UUID, consecutive int, threshold int) (*followups.FollowUpDTO, error)
}

// NewAbsenceScanJob builds the job that recomputes absence streaks for
// every current member and flags those past the follow-up threshold.
func NewAbsenceScanJob(params AbsenceScanJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ChurchRepo == nil {
		return nil, fmt.Errorf("church repository required")
	}
	if params.MemberRepo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if params.AttendanceRepo == nil {
		return nil, fmt.Errorf("attendance repository required")
	}
	if params.FollowUps == nil {
		return nil, fmt.Errorf("follow-up service required")
	}
	threshold := params.WeekThreshold
	if threshold <= 0 {
		threshold = defaultAbsenceThreshold
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &absenceScanJob{
		logg:       params.Logger,
		churches:   params.ChurchRepo,
		members:    params.MemberRepo,
		attendance: params.AttendanceRepo,
		followUps:  params.FollowUps,
		threshold:  threshold,
		now:        now,
	}, nil
}

type absenceScanJob struct {
	logg       *logger.Logger
	churches   absenceChurchLister
	members    absenceMemberLister
	attendance absenceAttendanceRepository
	followUps  absenceRecorder
	threshold  int
	now        func() time.Time
}

func (j *absenceScanJob) Name() string { return "follow-up-absence-scan" }

func (j *absenceScanJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs error
	scanned := 0
	flaggedUpdates := 0

	for offset := 0; ; offset += scanPageSize {
		churchPage, err := j.churches.List(ctx, scanPageSize, offset)
		if err != nil {
			return fmt.Errorf("list churches: %w", err)
		}
		if len(churchPage) == 0 {
			break
		}
		for i := range churchPage {
			count, updated, err := j.scanChurch(ctx, &churchPage[i], now)
			scanned += count
			flaggedUpdates += updated
			if err != nil {
				errs = multierr.Append(errs, err)
			}
		}
		if len(churchPage) < scanPageSize {
			break
		}
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"members_scanned": scanned,
		"streaks_updated": flaggedUpdates,
	})
	j.logg.Info(reportCtx, "absence scan complete")
	return errs
}

func (j *absenceScanJob) scanChurch(ctx context.Context, church *models.Church, now time.Time) (int, int, error) {
	churchCtx := j.logg.WithChurchID(ctx, church.ID.String())
	lastSeen, err := j.attendance.LastAttendanceDates(churchCtx, church.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("last attendance dates for church %s: %w", church.ID, err)
	}

	var errs error
	scanned := 0
	updated := 0
	for offset := 0; ; offset += scanPageSize {
		memberPage, err := j.members.ListByChurch(churchCtx, church.ID, scanPageSize, offset)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("list members for church %s: %w", church.ID, err))
			break
		}
		if len(memberPage) == 0 {
			break
		}
		for i := range memberPage {
			member := &memberPage[i]
			if !member.IsCurrentMember {
				continue
			}
			scanned++
			streak := missedWeeks(now, lastSeen, member)
			if streak == 0 {
				continue
			}
			if _, err := j.followUps.RecordAbsences(churchCtx, church.ID, member.ID, streak, j.threshold); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("record absences for member %s: %w", member.ID, err))
				continue
			}
			updated++
		}
		if len(memberPage) < scanPageSize {
			break
		}
	}
	return scanned, updated, errs
}

// missedWeeks derives the absence streak from the member's last
// check-in rather than incrementing a stored counter, so reruns of the
// sweep converge on the same value. Members who never checked in are
// measured from when they joined.
func missedWeeks(now time.Time, lastSeen map[uuid.UUID]time.Time, member *models.Member) int {
	baseline, ok := lastSeen[member.ID]
	if !ok {
		baseline = member.CreatedAt
	}
	if baseline.IsZero() || !now.After(baseline) {
		return 0
	}
	return int(now.Sub(baseline) / week)
}
