package followups

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
)

// Repository persists follow-up records. One record per member,
// enforced by follow_up_records_member_key.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByMember returns the member's follow-up record, or
// gorm.ErrRecordNotFound when none exists yet.
func (r *Repository) FindByMember(ctx context.Context, churchID, memberID uuid.UUID) (*models.FollowUpRecord, error) {
	var record models.FollowUpRecord
	err := r.db.WithContext(ctx).
		Where("church_id = ? AND member_id = ?", churchID, memberID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpsertAbsences writes the consecutive-absence counter and flag for a
// member, inserting the record on first touch. The conflict target is
// the per-member unique index so repeated sweeps converge on one row.
func (r *Repository) UpsertAbsences(ctx context.Context, churchID, memberID uuid.UUID, absences int, needsFollowUp bool) (*models.FollowUpRecord, error) {
	record := models.FollowUpRecord{
		ChurchID:            churchID,
		MemberID:            memberID,
		ConsecutiveAbsences: absences,
		NeedsFollowUp:       needsFollowUp,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"consecutive_absences", "needs_follow_up", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return nil, err
	}
	return r.FindByMember(ctx, churchID, memberID)
}

// Save persists the full record. Used after contact updates where the
// row is known to exist.
func (r *Repository) Save(ctx context.Context, record *models.FollowUpRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Create inserts a fresh record.
func (r *Repository) Create(ctx context.Context, record *models.FollowUpRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListNeedingFollowUp returns the queue of members flagged for
// follow-up, oldest contact first so the longest-neglected surface at
// the top.
func (r *Repository) ListNeedingFollowUp(ctx context.Context, churchID uuid.UUID, limit int) ([]models.FollowUpRecord, error) {
	var records []models.FollowUpRecord
	q := r.db.WithContext(ctx).
		Where("church_id = ? AND needs_follow_up = ?", churchID, true).
		Order("last_contacted_at ASC NULLS FIRST, updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountNeedingFollowUp reports the size of the follow-up queue.
func (r *Repository) CountNeedingFollowUp(ctx context.Context, churchID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FollowUpRecord{}).
		Where("church_id = ? AND needs_follow_up = ?", churchID, true).
		Count(&count).Error
	return count, err
}
