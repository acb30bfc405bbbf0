package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/churchconnect/churchconnect-backend/pkg/errors"
	"github.com/churchconnect/churchconnect-backend/pkg/logger"
)

type recordingTables struct {
	deleted []string
	rows    map[string]int64
	failOn  string
}

func (r *recordingTables) delete(table string) (int64, error) {
	if r.failOn == table {
		return 0, fmt.Errorf("simulated failure on %s", table)
	}
	r.deleted = append(r.deleted, table)
	return r.rows[table], nil
}

func (r *recordingTables) DeleteAttendanceRecords(uuid.UUID) (int64, error) {
	return r.delete("attendance_records")
}
func (r *recordingTables) DeleteFollowUpRecords(uuid.UUID) (int64, error) {
	return r.delete("follow_up_records")
}
func (r *recordingTables) DeleteVisitors(uuid.UUID) (int64, error) { return r.delete("visitors") }
func (r *recordingTables) DeleteMembers(uuid.UUID) (int64, error)  { return r.delete("members") }
func (r *recordingTables) DeleteSubscriptions(uuid.UUID) (int64, error) {
	return r.delete("subscriptions")
}
func (r *recordingTables) DeleteChurchUsers(uuid.UUID) (int64, error) {
	return r.delete("church_users")
}
func (r *recordingTables) DeleteChurch(uuid.UUID) (int64, error) { return r.delete("churches") }

type stubStore struct {
	exists bool
	tables *recordingTables
	wipes  int
}

func (s *stubStore) ChurchExists(_ context.Context, _ uuid.UUID) (bool, error) {
	return s.exists, nil
}

func (s *stubStore) Wipe(_ context.Context, fn func(tables TenantTables) error) error {
	s.wipes++
	return fn(s.tables)
}

type stubCache struct {
	deleted []string
}

func (c *stubCache) UsageKey(churchID, category, period string) string {
	return "cc:usage:" + churchID + ":" + category + ":" + period
}

func (c *stubCache) KioskSessionKey(churchID string) string {
	return "cc:kiosk:" + churchID
}

func (c *stubCache) Del(_ context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func newLifecycleFixture(t *testing.T, rows map[string]int64) (Service, *stubStore, *stubCache) {
	t.Helper()
	store := &stubStore{
		exists: true,
		tables: &recordingTables{rows: rows},
	}
	cache := &stubCache{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(store, cache, logg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, cache
}

func TestClearTenantDataDeletesChildrenFirstAndKeepsTenant(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t, map[string]int64{
		"attendance_records": 40,
		"members":            12,
	})
	churchID := uuid.New()

	report, err := svc.ClearTenantData(context.Background(), churchID)
	if err != nil {
		t.Fatalf("ClearTenantData: %v", err)
	}

	wantOrder := []string{"attendance_records", "follow_up_records", "visitors", "members"}
	if len(store.tables.deleted) != len(wantOrder) {
		t.Fatalf("deleted tables = %v, want %v", store.tables.deleted, wantOrder)
	}
	for i, table := range wantOrder {
		if store.tables.deleted[i] != table {
			t.Fatalf("delete[%d] = %s, want %s", i, store.tables.deleted[i], table)
		}
	}
	for _, table := range store.tables.deleted {
		if table == "church_users" || table == "churches" || table == "subscriptions" {
			t.Fatalf("clear must not touch %s", table)
		}
	}
	if report.ChurchRemoved {
		t.Fatal("clear must keep the church row")
	}
	if report.TotalRows != 52 {
		t.Fatalf("total rows = %d, want 52", report.TotalRows)
	}
	if report.RowsDeleted["members"] != 12 {
		t.Fatalf("members rows = %d, want 12", report.RowsDeleted["members"])
	}
}

func TestFactoryResetDeletesEverythingChurchLast(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t, map[string]int64{"churches": 1})
	churchID := uuid.New()

	report, err := svc.FactoryResetTenant(context.Background(), churchID)
	if err != nil {
		t.Fatalf("FactoryResetTenant: %v", err)
	}

	wantOrder := []string{
		"attendance_records", "follow_up_records", "visitors", "members",
		"church_users", "subscriptions", "churches",
	}
	if len(store.tables.deleted) != len(wantOrder) {
		t.Fatalf("deleted tables = %v, want %v", store.tables.deleted, wantOrder)
	}
	for i, table := range wantOrder {
		if store.tables.deleted[i] != table {
			t.Fatalf("delete[%d] = %s, want %s", i, store.tables.deleted[i], table)
		}
	}
	if !report.ChurchRemoved {
		t.Fatal("factory reset must remove the church row")
	}
}

func TestWipeIsIdempotentOnEmptyTenant(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t, nil)

	report, err := svc.ClearTenantData(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ClearTenantData on empty tenant: %v", err)
	}
	if report.TotalRows != 0 {
		t.Fatalf("total rows = %d, want 0", report.TotalRows)
	}
	if store.wipes != 1 {
		t.Fatalf("wipes = %d, want 1", store.wipes)
	}
}

func TestWipeUnknownChurchIsNotFound(t *testing.T) {
	svc, store, _ := newLifecycleFixture(t, nil)
	store.exists = false

	_, err := svc.FactoryResetTenant(context.Background(), uuid.New())
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
	if store.wipes != 0 {
		t.Fatal("no wipe should run for an unknown church")
	}
}

func TestWipeFailureSurfacesTable(t *testing.T) {
	svc, store, cache := newLifecycleFixture(t, nil)
	store.tables.failOn = "members"

	_, err := svc.ClearTenantData(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected wipe failure")
	}
	if !strings.Contains(err.Error(), "wipe tenant data") {
		t.Fatalf("error = %v, want wipe wrap", err)
	}
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(cache.deleted) != 0 {
		t.Fatal("cache purge must not run after a failed wipe")
	}
}

func TestWipePurgesCachedCounters(t *testing.T) {
	svc, _, cache := newLifecycleFixture(t, nil)
	churchID := uuid.New()

	if _, err := svc.ClearTenantData(context.Background(), churchID); err != nil {
		t.Fatalf("ClearTenantData: %v", err)
	}
	if len(cache.deleted) == 0 {
		t.Fatal("expected cached counters to be purged")
	}
	var sawUsage, sawKiosk bool
	for _, key := range cache.deleted {
		if strings.Contains(key, "usage") && strings.Contains(key, churchID.String()) {
			sawUsage = true
		}
		if strings.Contains(key, "kiosk") && strings.Contains(key, churchID.String()) {
			sawKiosk = true
		}
	}
	if !sawUsage || !sawKiosk {
		t.Fatalf("purged keys missing usage or kiosk entries: %v", cache.deleted)
	}
}
