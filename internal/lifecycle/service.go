package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
	"github.com/churchconnect/churchconnect-backend/pkg/metrics"
)

const (
	// OperationClear removes a tenant's operational data while keeping
	// the church, its admins and its subscription intact.
	OperationClear = "clear_tenant_data"
	// OperationFactoryReset removes everything the tenant ever wrote,
	// including admin accounts, the subscription and the church row.
	// Super-admin accounts are platform-level and are never touched.
	OperationFactoryReset = "factory_reset_tenant"
)

type usageCachePurger interface {
	UsageKey(churchID, category, period string) string
	KioskSessionKey(churchID string) string
	Del(ctx context.Context, keys ...string) error
}

// WipeReport summarizes a completed wipe for the caller and the audit log.
type WipeReport struct {
	Operation     string           `json:"operation"`
	ChurchID      uuid.UUID        `json:"church_id"`
	RowsDeleted   map[string]int64 `json:"rows_deleted"`
	TotalRows     int64            `json:"total_rows"`
	ChurchRemoved bool             `json:"church_removed"`
	CompletedAt   time.Time        `json:"completed_at"`
}

// Service owns the destructive tenant lifecycle operations. Both run
// through the store's wipe unit, so they are atomic when the backend
// supports transactions and plain sequential deletes otherwise.
type Service interface {
	ClearTenantData(ctx context.Context, churchID uuid.UUID) (*WipeReport, error)
	FactoryResetTenant(ctx context.Context, churchID uuid.UUID) (*WipeReport, error)
}

type service struct {
	store   Store
	cache   usageCachePurger
	logg    *logger.Logger
	metrics *metrics.TenantWipeMetrics
	now     func() time.Time
}

// NewService builds the lifecycle service. The metrics collector may be
// nil-valued; the cache and logger are required because the wipe must
// be able to purge counters and report fallback behavior.
func NewService(store Store, cache usageCachePurger, logg *logger.Logger, wipeMetrics *metrics.TenantWipeMetrics) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("lifecycle store required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		store:   store,
		cache:   cache,
		logg:    logg,
		metrics: wipeMetrics,
		now:     time.Now,
	}, nil
}

// tableDelete pairs a table name with its delete call so each
// operation can state its order in one place. Children go first:
// the schema restricts deletes of rows that are still referenced.
type tableDelete struct {
	table string
	fn    func(tables TenantTables, churchID uuid.UUID) (int64, error)
}

var clearDeletes = []tableDelete{
	{"attendance_records", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteAttendanceRecords(id) }},
	{"follow_up_records", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteFollowUpRecords(id) }},
	{"visitors", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteVisitors(id) }},
	{"members", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteMembers(id) }},
}

var factoryResetDeletes = append(clearDeletes[:len(clearDeletes):len(clearDeletes)],
	tableDelete{"church_users", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteChurchUsers(id) }},
	tableDelete{"subscriptions", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteSubscriptions(id) }},
	tableDelete{"churches", func(t TenantTables, id uuid.UUID) (int64, error) { return t.DeleteChurch(id) }},
)

func (s *service) ClearTenantData(ctx context.Context, churchID uuid.UUID) (*WipeReport, error) {
	return s.wipe(ctx, OperationClear, churchID, clearDeletes)
}

func (s *service) FactoryResetTenant(ctx context.Context, churchID uuid.UUID) (*WipeReport, error) {
	return s.wipe(ctx, OperationFactoryReset, churchID, factoryResetDeletes)
}

func (s *service) wipe(ctx context.Context, operation string, churchID uuid.UUID, deletes []tableDelete) (*WipeReport, error) {
	exists, err := s.store.ChurchExists(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up church")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"operation": operation,
		"church_id": churchID.String(),
	})
	s.logg.Warn(ctx, "starting tenant wipe")

	report := &WipeReport{
		Operation:   operation,
		ChurchID:    churchID,
		RowsDeleted: make(map[string]int64, len(deletes)),
	}

	started := s.now()
	err = s.store.Wipe(ctx, func(tables TenantTables) error {
		for _, d := range deletes {
			rows, err := d.fn(tables, churchID)
			if err != nil {
				return fmt.Errorf("delete %s: %w", d.table, err)
			}
			report.RowsDeleted[d.table] = rows
			report.TotalRows += rows
			s.metrics.AddRowsDeleted(operation, d.table, rows)
			if d.table == "churches" && rows > 0 {
				report.ChurchRemoved = true
			}
		}
		return nil
	})
	s.metrics.ObserveDuration(operation, s.now().Sub(started))
	if err != nil {
		s.metrics.IncFailure(operation)
		s.logg.Error(ctx, "tenant wipe failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "wipe tenant data")
	}
	s.metrics.IncSuccess(operation)
	report.CompletedAt = s.now().UTC()

	s.purgeCachedCounters(ctx, churchID)
	s.logg.Warn(ctx, "tenant wipe completed")
	return report, nil
}

// purgeCachedCounters drops the tenant's cached usage counters and any
// live kiosk session. Best effort: a cache miss on the next read
// repopulates from the now-empty tables, so failures are only logged.
func (s *service) purgeCachedCounters(ctx context.Context, churchID uuid.UUID) {
	period := s.now().UTC().Format("2006-01")
	keys := make([]string, 0, len(enums.UsageCategories())+1)
	for _, category := range enums.UsageCategories() {
		keys = append(keys, s.cache.UsageKey(churchID.String(), category.String(), period))
	}
	keys = append(keys, s.cache.KioskSessionKey(churchID.String()))
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to purge cached tenant counters")
	}
}
