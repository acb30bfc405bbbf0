package admins

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
)

// Repository exposes admin-account persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an admins repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new church admin and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateChurchUserDTO) (*models.ChurchUser, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the admin matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.ChurchUser, error) {
	var user models.ChurchUser
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads an admin by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ChurchUser, error) {
	var user models.ChurchUser
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByChurch returns every admin account belonging to the church.
func (r *Repository) ListByChurch(ctx context.Context, churchID uuid.UUID) ([]models.ChurchUser, error) {
	var out []models.ChurchUser
	err := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLastLogin refreshes the admin's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ChurchUser{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetActive flips the admin's is_active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.ChurchUser{}).
		Where("id = ?", id).
		UpdateColumn("is_active", active).Error
}

// CountAll returns the platform-wide admin population.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ChurchUser{}).Count(&count).Error
	return count, err
}
