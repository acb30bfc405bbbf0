package churches

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
)

// Repository exposes church-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a churches repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new church and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateChurchDTO) (*models.Church, error) {
	church := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(church).Error; err != nil {
		return nil, err
	}
	return church, nil
}

// FindByID loads a church by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error) {
	var church models.Church
	if err := r.db.WithContext(ctx).First(&church, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &church, nil
}

// FindBySubdomain retrieves the church matching the provided subdomain.
func (r *Repository) FindBySubdomain(ctx context.Context, subdomain string) (*models.Church, error) {
	var church models.Church
	if err := r.db.WithContext(ctx).Where("subdomain = ?", subdomain).First(&church).Error; err != nil {
		return nil, err
	}
	return &church, nil
}

// SubdomainExists reports whether any church already claims the subdomain.
func (r *Repository) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Church{}).
		Where("subdomain = ?", subdomain).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists the full church row.
func (r *Repository) Update(ctx context.Context, church *models.Church) error {
	return r.db.WithContext(ctx).Save(church).Error
}

// UpdateTier moves the church onto a new subscription tier.
func (r *Repository) UpdateTier(ctx context.Context, id uuid.UUID, tier enums.SubscriptionTier) error {
	return r.db.WithContext(ctx).
		Model(&models.Church{}).
		Where("id = ?", id).
		UpdateColumn("tier", tier).Error
}

// StampKioskSessionStart records when the church last opened a kiosk session.
func (r *Repository) StampKioskSessionStart(ctx context.Context, id uuid.UUID, at *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Church{}).
		Where("id = ?", id).
		UpdateColumn("kiosk_session_started_at", at).Error
}

// ListExpiredTrials returns churches still on trial whose trial window has passed.
func (r *Repository) ListExpiredTrials(ctx context.Context, now time.Time) ([]models.Church, error) {
	var out []models.Church
	err := r.db.WithContext(ctx).
		Where("tier = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?", enums.TierTrial, now).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountByTier groups the tenant population by subscription tier.
func (r *Repository) CountByTier(ctx context.Context) (map[enums.SubscriptionTier]int64, error) {
	type row struct {
		Tier  enums.SubscriptionTier
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Church{}).
		Select("tier, COUNT(*) AS count").
		Group("tier").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.SubscriptionTier]int64, len(rows))
	for _, r := range rows {
		out[r.Tier] = r.Count
	}
	return out, nil
}

// List pages through churches ordered by creation time.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]models.Church, error) {
	var out []models.Church
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
