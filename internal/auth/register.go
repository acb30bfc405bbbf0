package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/admins"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/security"
)

// RegisterService handles the tenant onboarding transaction: the
// church (on trial), its owner account, and the trial subscription row
// are written as one unit when the store supports transactions.
type RegisterService interface {
	Register(ctx context.Context, req RegisterChurchRequest) (*RegisterChurchResponse, error)
	InviteAdmin(ctx context.Context, churchID uuid.UUID, req InviteAdminRequest) (*InviteAdminResponse, error)
}

type registerTxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerChurchRepository interface {
	Create(ctx context.Context, dto churches.CreateChurchDTO) (*models.Church, error)
}

type registerAdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.ChurchUser, error)
	Create(ctx context.Context, dto admins.CreateChurchUserDTO) (*models.ChurchUser, error)
}

type registerSubscriptionCreator interface {
	Create(ctx context.Context, sub *models.Subscription) error
}

// RegisterServiceParams packages the dependencies for the registration
// flow. The repo factories exist so tests can intercept the per-tx
// repositories; production wiring passes only DB and the defaults
// construct real repositories from the transaction handle.
type RegisterServiceParams struct {
	DB                 *db.Client
	TxRunner           registerTxRunner
	ChurchRepoFactory  func(tx *gorm.DB) registerChurchRepository
	AdminRepoFactory   func(tx *gorm.DB) registerAdminRepository
	SubscriptionWriter func(tx *gorm.DB) registerSubscriptionCreator
	PasswordConfig     config.PasswordConfig
	TrialConfig        config.TrialConfig
}

type registerService struct {
	tx          registerTxRunner
	churchRepo  func(tx *gorm.DB) registerChurchRepository
	adminRepo   func(tx *gorm.DB) registerAdminRepository
	subWriter   func(tx *gorm.DB) registerSubscriptionCreator
	passwordCfg config.PasswordConfig
	trialCfg    config.TrialConfig
	now         func() time.Time
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	runner := params.TxRunner
	if runner == nil {
		if params.DB == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
		}
		runner = params.DB
	}
	churchRepo := params.ChurchRepoFactory
	if churchRepo == nil {
		churchRepo = func(tx *gorm.DB) registerChurchRepository { return churches.NewRepository(tx) }
	}
	adminRepo := params.AdminRepoFactory
	if adminRepo == nil {
		adminRepo = func(tx *gorm.DB) registerAdminRepository { return admins.NewRepository(tx) }
	}
	subWriter := params.SubscriptionWriter
	if subWriter == nil {
		subWriter = func(tx *gorm.DB) registerSubscriptionCreator { return gormSubscriptionWriter{tx: tx} }
	}
	return &registerService{
		tx:          runner,
		churchRepo:  churchRepo,
		adminRepo:   adminRepo,
		subWriter:   subWriter,
		passwordCfg: params.PasswordConfig,
		trialCfg:    params.TrialConfig,
		now:         time.Now,
	}, nil
}

type gormSubscriptionWriter struct {
	tx *gorm.DB
}

func (w gormSubscriptionWriter) Create(ctx context.Context, sub *models.Subscription) error {
	return w.tx.WithContext(ctx).Create(sub).Error
}

func (s *registerService) Register(ctx context.Context, req RegisterChurchRequest) (*RegisterChurchResponse, error) {
	email := admins.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.ChurchName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "church name is required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	subdomain := churches.NormalizeSubdomain(req.Subdomain)
	if !churches.ValidSubdomain(subdomain) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subdomain").
			WithDetails("subdomains are lowercase letters, digits and hyphens")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	trialEndsAt := s.now().UTC().AddDate(0, 0, s.trialDays())
	var (
		church *models.Church
		owner  *models.ChurchUser
	)

	err = s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		churchRepo := s.churchRepo(tx)
		adminRepo := s.adminRepo(tx)

		// The email check runs before anything is inserted so a
		// duplicate address never leaves behind a half-created tenant
		// even when the store cannot roll back.
		if _, err := adminRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin email")
		}

		church, err = churchRepo.Create(ctx, churches.CreateChurchDTO{
			Name:        strings.TrimSpace(req.ChurchName),
			Subdomain:   subdomain,
			Tier:        enums.TierTrial,
			TrialEndsAt: &trialEndsAt,
			MaxMembers:  s.trialMaxMembers(),
			Phone:       req.Phone,
		})
		if err != nil {
			return classifyRegisterError(err)
		}

		owner, err = adminRepo.Create(ctx, admins.CreateChurchUserDTO{
			ChurchID:     church.ID,
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Role:         enums.AdminRoleOwner,
		})
		if err != nil {
			return classifyRegisterError(err)
		}

		trialSub := &models.Subscription{
			ChurchID:         church.ID,
			ProviderSubID:    "trial-" + church.ID.String(),
			Status:           enums.SubscriptionStatusTrialing,
			CurrentPeriodEnd: trialEndsAt,
		}
		if err := s.subWriter(tx).Create(ctx, trialSub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create trial subscription")
		}
		return nil
	})
	if err != nil {
		var appErr *pkgerrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register church")
	}

	return &RegisterChurchResponse{
		Church: churches.FromModel(church),
		Owner:  admins.FromModel(owner),
	}, nil
}

// tempPasswordLength balances paste-ability against the charset's entropy
// (62^16 is far beyond online-guessing range behind the login rate limit).
const tempPasswordLength = 16

// InviteAdmin creates an additional admin or staff account on the church with
// a generated temporary password. The caller relays the password to the
// invitee out of band; it is returned once and never stored in clear.
func (s *registerService) InviteAdmin(ctx context.Context, churchID uuid.UUID, req InviteAdminRequest) (*InviteAdminResponse, error) {
	email := admins.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	role := enums.AdminRole(req.Role)
	if role != enums.AdminRoleAdmin && role != enums.AdminRoleStaff {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be admin or staff")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	passwordHash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.ChurchUser
	err = s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		adminRepo := s.adminRepo(tx)

		if _, err := adminRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin email")
		}

		created, err = adminRepo.Create(ctx, admins.CreateChurchUserDTO{
			ChurchID:     churchID,
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Role:         role,
		})
		if err != nil {
			return classifyRegisterError(err)
		}
		return nil
	})
	if err != nil {
		var appErr *pkgerrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invite admin")
	}

	return &InviteAdminResponse{
		Admin:        admins.FromModel(created),
		TempPassword: tempPassword,
	}, nil
}

func (s *registerService) trialDays() int {
	if s.trialCfg.Days > 0 {
		return s.trialCfg.Days
	}
	return 30
}

func (s *registerService) trialMaxMembers() int {
	if s.trialCfg.DefaultMaxMembers > 0 {
		return s.trialCfg.DefaultMaxMembers
	}
	return 250
}

// classifyRegisterError distinguishes the two registration conflicts by
// constraint name so the caller can tell a taken subdomain from a
// registered email.
func classifyRegisterError(err error) error {
	switch {
	case db.IsUniqueViolation(err, db.ConstraintChurchSubdomain):
		return pkgerrors.New(pkgerrors.CodeConflict, "subdomain already taken")
	case db.IsUniqueViolation(err, db.ConstraintAdminEmail):
		return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tenant records")
	}
}
