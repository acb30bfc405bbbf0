package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

// TrialExpiryJobParams configures the trial expiry sweep.
type TrialExpiryJobParams struct {
	Logger     *logger.Logger
	ChurchRepo trialChurchRepository
	Now        func() time.Time
}

type trialChurchRepository interface {
	ListExpiredTrials(ctx context.Context, now time.Time) ([]models.Church, error)
	UpdateTier(ctx context.Context, id uuid.UUID, tier enums.SubscriptionTier) error
}

// NewTrialExpiryJob builds the job that suspends churches whose trial
// window has lapsed without an upgrade.
func NewTrialExpiryJob(params TrialExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ChurchRepo == nil {
		return nil, fmt.Errorf("church repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &trialExpiryJob{
		logg:       params.Logger,
		churchRepo: params.ChurchRepo,
		now:        now,
	}, nil
}

type trialExpiryJob struct {
	logg       *logger.Logger
	churchRepo trialChurchRepository
	now        func() time.Time
}

func (j *trialExpiryJob) Name() string { return "trial-expiry" }

func (j *trialExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.churchRepo.ListExpiredTrials(ctx, now)
	if err != nil {
		return fmt.Errorf("list expired trials: %w", err)
	}

	var errs error
	suspended := 0
	for i := range expired {
		church := &expired[i]
		churchCtx := j.logg.WithChurchID(ctx, church.ID.String())
		if err := j.churchRepo.UpdateTier(ctx, church.ID, enums.TierSuspended); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("suspend church %s: %w", church.ID, err))
			continue
		}
		j.logg.Warn(churchCtx, "trial expired; church suspended")
		suspended++
	}

	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":   len(expired),
		"suspended": suspended,
	})
	j.logg.Info(reportCtx, "trial expiry sweep complete")
	return errs
}
