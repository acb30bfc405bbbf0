package superadmins

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/admins"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/security"
)

// Repository exposes platform-operator persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a super-admins repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSuperAdminDTO holds creation-time data for a platform operator.
// Secret may arrive already hashed (seeding from config) or as a plaintext
// password; EnsureHashed guarantees only an argon2id hash is persisted.
type CreateSuperAdminDTO struct {
	Email  string
	Name   string
	Secret string
}

// Create inserts a platform operator, hashing the secret when needed.
func (r *Repository) Create(ctx context.Context, dto CreateSuperAdminDTO, passwordCfg config.PasswordConfig) (*models.SuperAdmin, error) {
	hash, err := security.EnsureHashed(dto.Secret, passwordCfg)
	if err != nil {
		return nil, err
	}
	admin := &models.SuperAdmin{
		Email:        admins.NormalizeEmail(dto.Email),
		PasswordHash: hash,
		Name:         dto.Name,
		IsActive:     true,
	}
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

// FindByEmail retrieves the operator matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.SuperAdmin, error) {
	var admin models.SuperAdmin
	if err := r.db.WithContext(ctx).Where("email = ?", admins.NormalizeEmail(email)).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByID loads an operator by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SuperAdmin, error) {
	var admin models.SuperAdmin
	if err := r.db.WithContext(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// AnyExists reports whether the platform already has an operator account.
// First-run setup is only open while this is false.
func (r *Repository) AnyExists(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SuperAdmin{}).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the operator's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SuperAdmin{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
