package members

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
)

// Repository exposes member persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a members repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new member and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateMemberDTO) (*models.Member, error) {
	member := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

// FindByID loads a member by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListByChurch pages through the church's members ordered by last name.
func (r *Repository) ListByChurch(ctx context.Context, churchID uuid.UUID, limit, offset int) ([]models.Member, error) {
	var out []models.Member
	err := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("last_name ASC, first_name ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListChildren returns the members directly linked under the parent.
func (r *Repository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Member, error) {
	var out []models.Member
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists the full member row.
func (r *Repository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// SetParent rewrites the member's parent link.
func (r *Repository) SetParent(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		UpdateColumn("parent_id", parentID).Error
}

// Delete removes the member row. Children keep their rows; the FK sets their
// parent link to NULL.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Member{}, "id = ?", id).Error
}

// CountByChurch returns how many current members the church has.
func (r *Repository) CountByChurch(ctx context.Context, churchID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("church_id = ? AND is_current_member = ?", churchID, true).
		Count(&count).Error
	return count, err
}

// CountAll returns the platform-wide member population.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).Count(&count).Error
	return count, err
}
