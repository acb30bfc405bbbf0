package visitors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// Repository exposes visitor persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a visitors repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new visitor and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateVisitorDTO) (*models.Visitor, error) {
	visitor := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(visitor).Error; err != nil {
		return nil, err
	}
	return visitor, nil
}

// FindByID loads a visitor by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Visitor, error) {
	var visitor models.Visitor
	if err := r.db.WithContext(ctx).First(&visitor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visitor, nil
}

// ListByChurch pages through the church's visitors, optionally filtered by status.
func (r *Repository) ListByChurch(ctx context.Context, churchID uuid.UUID, status *enums.VisitorStatus, limit, offset int) ([]models.Visitor, error) {
	query := r.db.WithContext(ctx).Where("church_id = ?", churchID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var out []models.Visitor
	err := query.
		Order("visit_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists the full visitor row.
func (r *Repository) Update(ctx context.Context, visitor *models.Visitor) error {
	return r.db.WithContext(ctx).Save(visitor).Error
}

// CountByStatus returns how many of the church's visitors are in the status.
func (r *Repository) CountByStatus(ctx context.Context, churchID uuid.UUID, status enums.VisitorStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Visitor{}).
		Where("church_id = ? AND status = ?", churchID, status).
		Count(&count).Error
	return count, err
}
