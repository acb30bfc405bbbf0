package admins

import (
	"context"
	"testing"
	"time"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/churchconnect/churchconnect-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAdminsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	churchUsers := `
CREATE TABLE IF NOT EXISTS church_users (
  id TEXT PRIMARY KEY,
  church_id TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'admin',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(churchUsers).Error)
	return db
}

func seedAdmin(t *testing.T, db *gorm.DB, churchID uuid.UUID, email string, role enums.AdminRole, created time.Time) *models.ChurchUser {
	t.Helper()

	user := &models.ChurchUser{
		ID:           uuid.New(),
		ChurchID:     churchID,
		Email:        NormalizeEmail(email),
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Admin",
		Role:         role,
		IsActive:     true,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepositoryFindByEmail_normalizesLookup(t *testing.T) {
	db := setupAdminsTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	seeded := seedAdmin(t, db, churchID, "Pastor@Example.Org", enums.AdminRoleOwner, time.Now().UTC())

	found, err := repo.FindByEmail(context.Background(), "  PASTOR@example.org ")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)
	assert.Equal(t, "pastor@example.org", found.Email)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.org")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByChurch_scopedAndOrdered(t *testing.T) {
	db := setupAdminsTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	otherChurch := uuid.New()
	now := time.Now().UTC()

	owner := seedAdmin(t, db, churchID, "owner@grace.church", enums.AdminRoleOwner, now.Add(-time.Hour))
	later := seedAdmin(t, db, churchID, "staff@grace.church", enums.AdminRoleStaff, now)
	seedAdmin(t, db, otherChurch, "owner@hope.church", enums.AdminRoleOwner, now)

	list, err := repo.ListByChurch(context.Background(), churchID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, owner.ID, list[0].ID)
	assert.Equal(t, later.ID, list[1].ID)
}

func TestRepositoryUpdateLastLoginAndSetActive(t *testing.T) {
	db := setupAdminsTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	admin := seedAdmin(t, db, churchID, "deacon@grace.church", enums.AdminRoleAdmin, time.Now().UTC())

	loginAt := time.Date(2026, time.March, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(context.Background(), admin.ID, loginAt))
	require.NoError(t, repo.SetActive(context.Background(), admin.ID, false))

	reloaded, err := repo.FindByID(context.Background(), admin.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, loginAt.Equal(*reloaded.LastLoginAt))
	assert.False(t, reloaded.IsActive)
}
