package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/churchconnect/churchconnect-backend/api/controllers"
	"github.com/churchconnect/churchconnect-backend/api/middleware"
	"github.com/churchconnect/churchconnect-backend/internal/attendance"
	internalauth "github.com/churchconnect/churchconnect-backend/internal/auth"
	"github.com/churchconnect/churchconnect-backend/internal/billing"
	"github.com/churchconnect/churchconnect-backend/internal/churches"
	"github.com/churchconnect/churchconnect-backend/internal/entitlements"
	"github.com/churchconnect/churchconnect-backend/internal/followups"
	"github.com/churchconnect/churchconnect-backend/internal/lifecycle"
	"github.com/churchconnect/churchconnect-backend/internal/members"
	"github.com/churchconnect/churchconnect-backend/internal/stats"
	"github.com/churchconnect/churchconnect-backend/internal/visitors"
	"github.com/churchconnect/churchconnect-backend/pkg/auth/session"
	"github.com/churchconnect/churchconnect-backend/pkg/config"
	"github.com/churchconnect/churchconnect-backend/pkg/db"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
	"github.com/churchconnect/churchconnect-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs. Every service is
// optional at the type level; controllers answer 500 when one is missing.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	AuthService        internalauth.Service
	RegisterService    internalauth.RegisterService
	ChurchService      churches.Service
	MemberService      members.Service
	AttendanceService  attendance.Service
	VisitorService     visitors.Service
	FollowUpService    followups.Service
	StatsService       stats.Service
	EntitlementService entitlements.Service
	BillingService     billing.Service
	LifecycleService   lifecycle.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/subdomains/{subdomain}/availability", controllers.SubdomainAvailability(p.ChurchService, logg))
		r.Get("/churches/{subdomain}", controllers.ChurchBySubdomain(p.ChurchService, logg))
		r.Get("/plans", controllers.BillingPlans(p.BillingService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.RegisterChurch(p.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.Login(p.AuthService, logg))
		r.Post("/refresh", controllers.Refresh(p.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).Post("/logout", controllers.Logout(p.AuthService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		// Self-closing: the service refuses once any operator exists.
		r.Post("/setup", controllers.SetupSuperAdmin(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.SuperAdminLogin(p.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.ChurchContext(logg))

		r.Route("/church", func(r chi.Router) {
			r.Get("/", controllers.ChurchProfile(p.ChurchService, logg))
			r.With(middleware.RequireRole(logg, enums.AdminRoleOwner, enums.AdminRoleAdmin)).
				Put("/branding", controllers.ChurchUpdateBranding(p.ChurchService, logg))
			r.With(middleware.RequireRole(logg, enums.AdminRoleOwner, enums.AdminRoleAdmin)).
				Post("/admins", controllers.AdminInvite(p.RegisterService, logg))
			r.Route("/kiosk", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.AdminRoleOwner, enums.AdminRoleAdmin))
				r.Put("/", controllers.ChurchSetKioskMode(p.ChurchService, logg))
				r.Post("/sessions", controllers.ChurchStartKioskSession(p.ChurchService, logg))
				r.Delete("/sessions", controllers.ChurchEndKioskSession(p.ChurchService, logg))
			})
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", controllers.MemberList(p.MemberService, logg))
			r.Post("/", controllers.MemberCreate(p.MemberService, logg))
			r.Get("/{memberId}", controllers.MemberGet(p.MemberService, logg))
			r.Put("/{memberId}", controllers.MemberUpdate(p.MemberService, logg))
			r.Put("/{memberId}/parent", controllers.MemberSetParent(p.MemberService, logg))
			r.Get("/{memberId}/family", controllers.MemberFamily(p.MemberService, logg))
			r.With(middleware.RequireRole(logg, enums.AdminRoleOwner, enums.AdminRoleAdmin)).
				Delete("/{memberId}", controllers.MemberDelete(p.MemberService, logg))
			r.Get("/{memberId}/attendance", controllers.AttendanceListByMember(p.AttendanceService, logg))
			r.Get("/{memberId}/follow-up", controllers.FollowUpForMember(p.FollowUpService, logg))
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/check-in", controllers.AttendanceCheckIn(p.AttendanceService, logg))
			r.Post("/family-check-in", controllers.AttendanceFamilyCheckIn(p.AttendanceService, logg))
			r.Get("/", controllers.AttendanceListByDate(p.AttendanceService, logg))
		})

		r.Route("/visitors", func(r chi.Router) {
			r.Get("/", controllers.VisitorList(p.VisitorService, logg))
			r.Post("/", controllers.VisitorCreate(p.VisitorService, logg))
			r.Post("/{visitorId}/contacted", controllers.VisitorMarkContacted(p.VisitorService, logg))
			r.Post("/{visitorId}/convert", controllers.VisitorConvert(p.VisitorService, logg))
		})

		r.Route("/follow-ups", func(r chi.Router) {
			r.Get("/", controllers.FollowUpQueue(p.FollowUpService, logg))
			r.Post("/contact", controllers.FollowUpRecordContact(p.FollowUpService, logg))
		})

		r.Get("/stats", controllers.ChurchStats(p.StatsService, logg))

		r.Route("/entitlements", func(r chi.Router) {
			r.Get("/", controllers.EntitlementStatus(p.EntitlementService, logg))
			r.Get("/features/{feature}", controllers.EntitlementFeatureAccess(p.EntitlementService, logg))
			r.Get("/limits/{category}", controllers.EntitlementCheckLimit(p.EntitlementService, logg))
		})

		r.Route("/billing", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AdminRoleOwner))
			r.Get("/subscription", controllers.BillingSubscription(p.BillingService, logg))
			r.Post("/subscribe", controllers.BillingSubscribe(p.BillingService, logg))
			r.Post("/cancel", controllers.BillingCancel(p.BillingService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.RequireSuperAdmin(logg))

		r.Get("/stats", controllers.AdminPlatformStats(p.StatsService, logg))
		r.Route("/churches", func(r chi.Router) {
			r.Get("/", controllers.AdminChurchList(p.ChurchService, logg))
			r.Get("/{churchId}", controllers.AdminChurchGet(p.ChurchService, logg))
			r.Post("/{churchId}/clear-data", controllers.AdminClearTenantData(p.LifecycleService, logg))
			r.Post("/{churchId}/factory-reset", controllers.AdminFactoryResetTenant(p.LifecycleService, logg))
		})
	})

	return r
}
