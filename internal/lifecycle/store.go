package lifecycle

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
)

// TenantTables is the per-table delete surface a wipe runs against.
// Every method removes all rows belonging to one church and reports
// how many went away.
type TenantTables interface {
	DeleteAttendanceRecords(churchID uuid.UUID) (int64, error)
	DeleteFollowUpRecords(churchID uuid.UUID) (int64, error)
	DeleteVisitors(churchID uuid.UUID) (int64, error)
	DeleteMembers(churchID uuid.UUID) (int64, error)
	DeleteSubscriptions(churchID uuid.UUID) (int64, error)
	DeleteChurchUsers(churchID uuid.UUID) (int64, error)
	DeleteChurch(churchID uuid.UUID) (int64, error)
}

// Store runs a wipe as one unit. The db-backed implementation
// delegates the atomic-or-sequential decision to db.Client.RunInTx.
type Store interface {
	ChurchExists(ctx context.Context, churchID uuid.UUID) (bool, error)
	Wipe(ctx context.Context, fn func(tables TenantTables) error) error
}

type gormStore struct {
	client *db.Client
}

// NewStore wraps the shared database client.
func NewStore(client *db.Client) Store {
	return &gormStore{client: client}
}

func (s *gormStore) ChurchExists(ctx context.Context, churchID uuid.UUID) (bool, error) {
	err := s.client.DB().WithContext(ctx).
		Select("id").
		First(&models.Church{}, "id = ?", churchID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *gormStore) Wipe(ctx context.Context, fn func(tables TenantTables) error) error {
	return s.client.RunInTx(ctx, func(tx *gorm.DB) error {
		return fn(&gormTables{tx: tx})
	})
}

type gormTables struct {
	tx *gorm.DB
}

func (t *gormTables) deleteByChurch(model any, churchID uuid.UUID) (int64, error) {
	res := t.tx.Where("church_id = ?", churchID).Delete(model)
	return res.RowsAffected, res.Error
}

func (t *gormTables) DeleteAttendanceRecords(churchID uuid.UUID) (int64, error) {
	return t.deleteByChurch(&models.AttendanceRecord{}, churchID)
}

func (t *gormTables) DeleteFollowUpRecords(churchID uuid.UUID) (int64, error) {
	return t.deleteByChurch(&models.FollowUpRecord{}, churchID)
}

func (t *gormTables) DeleteVisitors(churchID uuid.UUID) (int64, error) {
	return t.deleteByChurch(&models.Visitor{}, churchID)
}

func (t *gormTables) DeleteMembers(churchID uuid.UUID) (int64, error) {
	// Parent links are SET NULL on delete, so one statement clears the
	// whole family forest.
	return t.deleteByChurch(&models.Member{}, churchID)
}

func (t *gormTables) DeleteSubscriptions(churchID uuid.UUID) (int64, error) {
	return t.deleteByChurch(&models.Subscription{}, churchID)
}

func (t *gormTables) DeleteChurchUsers(churchID uuid.UUID) (int64, error) {
	return t.deleteByChurch(&models.ChurchUser{}, churchID)
}

func (t *gormTables) DeleteChurch(churchID uuid.UUID) (int64, error) {
	res := t.tx.Where("id = ?", churchID).Delete(&models.Church{})
	return res.RowsAffected, res.Error
}
