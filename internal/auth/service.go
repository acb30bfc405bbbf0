package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/churchconnect/churchconnect-backend/internal/admins"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
	"github.com/churchconnect/churchconnect-backend/internal/superadmins"
	pkgauth "github.com/churchconnect/churchconnect-backend/pkg/auth"
	"github.com/churchconnect/churchconnect-backend/pkg/auth/session"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	SuperAdminLogin(ctx context.Context, req LoginRequest) (*SuperAdminLoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, accessID string) error
	SetupSuperAdmin(ctx context.Context, req SetupSuperAdminRequest) (*SuperAdminLoginResponse, error)
}

type adminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.ChurchUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type superAdminRepository interface {
	Create(ctx context.Context, dto superadmins.CreateSuperAdminDTO, passwordCfg config.PasswordConfig) (*models.SuperAdmin, error)
	FindByEmail(ctx context.Context, email string) (*models.SuperAdmin, error)
	AnyExists(ctx context.Context) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type churchFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	admins      adminRepository
	superAdmins superAdminRepository
	churches    churchFinder
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	AdminRepo      adminRepository
	SuperAdminRepo superAdminRepository
	ChurchRepo     churchFinder
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.AdminRepo == nil {
		return nil, fmt.Errorf("admin repository is required")
	}
	if params.SuperAdminRepo == nil {
		return nil, fmt.Errorf("super admin repository is required")
	}
	if params.ChurchRepo == nil {
		return nil, fmt.Errorf("church repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		admins:      params.AdminRepo,
		superAdmins: params.SuperAdminRepo,
		churches:    params.ChurchRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := admins.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup admin")
	}
	if err := s.verify(req.Password, admin.PasswordHash, admin.IsActive); err != nil {
		return nil, err
	}

	church, err := s.churches.FindByID(ctx, admin.ChurchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
	}

	now := s.now().UTC()
	if err := s.admins.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	admin.LastLoginAt = &now

	accessID := session.NewAccessID()
	tier := church.Tier
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		AdminID:  admin.ID,
		ChurchID: &admin.ChurchID,
		Role:     admin.Role,
		Tier:     &tier,
		JTI:      accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Admin:        admins.FromModel(admin),
		Church:       churches.FromModel(church),
	}, nil
}

func (s *service) SuperAdminLogin(ctx context.Context, req LoginRequest) (*SuperAdminLoginResponse, error) {
	email := admins.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	operator, err := s.superAdmins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup super admin")
	}
	if err := s.verify(req.Password, operator.PasswordHash, operator.IsActive); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.superAdmins.UpdateLastLogin(ctx, operator.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}

	return s.issueSuperAdminTokens(ctx, operator, now)
}

// Refresh rotates the refresh token and reissues the JWT from the old
// (possibly expired) token's claims. The church tier is re-read so a
// tier change since login lands in the fresh token.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	payload := pkgauth.AccessTokenPayload{
		AdminID:  claims.AdminID,
		ChurchID: claims.ChurchID,
		Role:     claims.Role,
		Tier:     claims.Tier,
		JTI:      newAccessID,
	}
	if claims.ChurchID != nil {
		church, err := s.churches.FindByID(ctx, *claims.ChurchID)
		if err == nil {
			tier := church.Tier
			payload.Tier = &tier
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load church")
		}
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, s.now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "access id is required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// SetupSuperAdmin bootstraps the very first platform operator. Once
// any super admin exists the endpoint is permanently closed.
func (s *service) SetupSuperAdmin(ctx context.Context, req SetupSuperAdminRequest) (*SuperAdminLoginResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := admins.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	exists, err := s.superAdmins.AnyExists(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check super admins")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "platform already has a super admin")
	}

	operator, err := s.superAdmins.Create(ctx, superadmins.CreateSuperAdminDTO{
		Email:  email,
		Name:   strings.TrimSpace(req.Name),
		Secret: req.Password,
	}, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create super admin")
	}

	return s.issueSuperAdminTokens(ctx, operator, s.now().UTC())
}

func (s *service) issueSuperAdminTokens(ctx context.Context, operator *models.SuperAdmin, now time.Time) (*SuperAdminLoginResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		AdminID: operator.ID,
		Role:    enums.AdminRoleSuper,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &SuperAdminLoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Name:         operator.Name,
		Email:        operator.Email,
	}, nil
}

func (s *service) verify(password, hash string, active bool) error {
	valid, err := security.VerifyPassword(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !active {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}
