package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
)

// Repository exposes attendance persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an attendance repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts one check-in row.
func (r *Repository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByMemberAndDate loads the member's check-in on the given date, if any.
func (r *Repository) FindByMemberAndDate(ctx context.Context, memberID uuid.UUID, date time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND attendance_date = ?", memberID, date.Format("2006-01-02")).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByDate returns every check-in for the church on the date.
func (r *Repository) ListByDate(ctx context.Context, churchID uuid.UUID, date time.Time) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("church_id = ? AND attendance_date = ?", churchID, date.Format("2006-01-02")).
		Order("checked_in_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListByMember pages through the member's attendance history, newest first.
func (r *Repository) ListByMember(ctx context.Context, memberID uuid.UUID, limit, offset int) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("attendance_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountByChurch returns the church's total check-in count.
func (r *Repository) CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("church_id = ?", churchID).
		Count(&count).Error
	return count, err
}

// LastAttendanceDates returns the most recent attendance date per member for
// the church; members with no history are absent from the map.
func (r *Repository) LastAttendanceDates(ctx context.Context, churchID uuid.UUID) (map[uuid.UUID]time.Time, error) {
	type row struct {
		MemberID uuid.UUID
		LastDate time.Time
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Select("member_id, MAX(attendance_date) AS last_date").
		Where("church_id = ?", churchID).
		Group("member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(rows))
	for _, r := range rows {
		out[r.MemberID] = r.LastDate
	}
	return out, nil
}
