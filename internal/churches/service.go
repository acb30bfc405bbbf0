package churches

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/lifecycle"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
)

var subdomainRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)

type churchesRepository interface {
	Create(ctx context.Context, dto CreateChurchDTO) (*models.Church, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*models.Church, error)
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	Update(ctx context.Context, church *models.Church) error
	StampKioskSessionStart(ctx context.Context, id uuid.UUID, at *time.Time) error
	List(ctx context.Context, limit, offset int) ([]models.Church, error)
}

type kioskSessions interface {
	Start(ctx context.Context, churchID string, timeout time.Duration) (string, time.Time, error)
	End(ctx context.Context, churchID string) error
}

type tenantWiper interface {
	FactoryResetTenant(ctx context.Context, churchID uuid.UUID) (*lifecycle.WipeReport, error)
}

var _ tenantWiper = (lifecycle.Service)(nil)

// Service exposes tenant operations.
type Service interface {
	Create(ctx context.Context, input CreateChurchDTO) (*ChurchDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ChurchDTO, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*ChurchDTO, error)
	IsSubdomainAvailable(ctx context.Context, subdomain string) (bool, error)
	UpdateBranding(ctx context.Context, churchID uuid.UUID, input UpdateBrandingInput) (*ChurchDTO, error)
	SetKioskMode(ctx context.Context, churchID uuid.UUID, input KioskModeInput) (*ChurchDTO, error)
	StartKioskSession(ctx context.Context, churchID uuid.UUID) (*KioskSessionDTO, error)
	EndKioskSession(ctx context.Context, churchID uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]ChurchDTO, error)
	DeleteChurchByID(ctx context.Context, churchID uuid.UUID) error
}

type service struct {
	repo    churchesRepository
	kiosk   kioskSessions
	wiper   tenantWiper
	kioskCf config.KioskConfig
}

// NewService builds a churches service with the provided collaborators.
func NewService(repo churchesRepository, kiosk kioskSessions, wiper tenantWiper, kioskCfg config.KioskConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("churches repository required")
	}
	if kiosk == nil {
		return nil, fmt.Errorf("kiosk session manager required")
	}
	if wiper == nil {
		return nil, fmt.Errorf("tenant lifecycle service required")
	}
	return &service{
		repo:    repo,
		kiosk:   kiosk,
		wiper:   wiper,
		kioskCf: kioskCfg,
	}, nil
}

// UpdateBrandingInput captures the branding fields a tenant may change.
type UpdateBrandingInput struct {
	Name       *string
	LogoURL    *string
	BannerURL  *string
	BrandColor *string
}

// KioskModeInput toggles kiosk mode and optionally its session timeout.
type KioskModeInput struct {
	Enabled        bool
	TimeoutMinutes *int
}

// KioskSessionDTO is the live kiosk session handed to the check-in device.
type KioskSessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NormalizeSubdomain lowercases and trims a requested subdomain.
func NormalizeSubdomain(subdomain string) string {
	return strings.ToLower(strings.TrimSpace(subdomain))
}

// ValidSubdomain reports whether a normalized subdomain is well formed.
func ValidSubdomain(subdomain string) bool {
	return subdomainRe.MatchString(subdomain)
}

func (s *service) Create(ctx context.Context, input CreateChurchDTO) (*ChurchDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "church name is required")
	}
	input.Subdomain = NormalizeSubdomain(input.Subdomain)
	if !subdomainRe.MatchString(input.Subdomain) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subdomain")
	}
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription tier")
	}
	if input.MaxMembers < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max members must not be negative")
	}

	church, err := s.repo.Create(ctx, input)
	if err != nil {
		if db.IsUniqueViolation(err, db.ConstraintChurchSubdomain) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "subdomain already taken").
				WithDetails(map[string]string{"field": "subdomain"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create church")
	}
	return FromModel(church), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ChurchDTO, error) {
	church, err := s.loadChurch(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(church), nil
}

func (s *service) GetBySubdomain(ctx context.Context, subdomain string) (*ChurchDTO, error) {
	church, err := s.repo.FindBySubdomain(ctx, NormalizeSubdomain(subdomain))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
	}
	return FromModel(church), nil
}

func (s *service) IsSubdomainAvailable(ctx context.Context, subdomain string) (bool, error) {
	normalized := NormalizeSubdomain(subdomain)
	if !subdomainRe.MatchString(normalized) {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid subdomain")
	}
	exists, err := s.repo.SubdomainExists(ctx, normalized)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subdomain")
	}
	return !exists, nil
}

func (s *service) UpdateBranding(ctx context.Context, churchID uuid.UUID, input UpdateBrandingInput) (*ChurchDTO, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "church name is required")
		}
		church.Name = *input.Name
	}
	if input.LogoURL != nil {
		church.LogoURL = cloneStringPtr(input.LogoURL)
	}
	if input.BannerURL != nil {
		church.BannerURL = cloneStringPtr(input.BannerURL)
	}
	if input.BrandColor != nil {
		church.BrandColor = cloneStringPtr(input.BrandColor)
	}

	if err := s.repo.Update(ctx, church); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update church")
	}
	return FromModel(church), nil
}

func (s *service) SetKioskMode(ctx context.Context, churchID uuid.UUID, input KioskModeInput) (*ChurchDTO, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}

	church.KioskEnabled = input.Enabled
	if input.TimeoutMinutes != nil {
		minutes := *input.TimeoutMinutes
		if minutes <= 0 || minutes > s.kioskCf.MaxSessionTimeoutMinutes {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("kiosk session timeout must be between 1 and %d minutes", s.kioskCf.MaxSessionTimeoutMinutes))
		}
		church.KioskSessionTimeoutMinutes = minutes
	}
	if !input.Enabled {
		if err := s.kiosk.End(ctx, churchID.String()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end kiosk session")
		}
		church.KioskSessionStartedAt = nil
	}

	if err := s.repo.Update(ctx, church); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update church")
	}
	return FromModel(church), nil
}

func (s *service) StartKioskSession(ctx context.Context, churchID uuid.UUID) (*KioskSessionDTO, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}
	if !church.KioskEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "kiosk mode is disabled for this church")
	}

	timeout := time.Duration(church.KioskSessionTimeoutMinutes) * time.Minute
	token, expiresAt, err := s.kiosk.Start(ctx, churchID.String(), timeout)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start kiosk session")
	}

	now := time.Now().UTC()
	if err := s.repo.StampKioskSessionStart(ctx, churchID, &now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stamp kiosk session start")
	}

	return &KioskSessionDTO{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *service) EndKioskSession(ctx context.Context, churchID uuid.UUID) error {
	if err := s.kiosk.End(ctx, churchID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "end kiosk session")
	}
	if err := s.repo.StampKioskSessionStart(ctx, churchID, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear kiosk session start")
	}
	return nil
}

func (s *service) List(ctx context.Context, limit, offset int) ([]ChurchDTO, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list churches")
	}
	out := make([]ChurchDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// DeleteChurchByID is a hard tenant delete; it is the factory reset path with
// a church-facing name. The wipe report stays internal to the reset flow.
func (s *service) DeleteChurchByID(ctx context.Context, churchID uuid.UUID) error {
	_, err := s.wiper.FactoryResetTenant(ctx, churchID)
	return err
}

func (s *service) loadChurch(ctx context.Context, id uuid.UUID) (*models.Church, error) {
	church, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
	}
	return church, nil
}
