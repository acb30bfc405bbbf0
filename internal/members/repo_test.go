package members

import (
	"context"
	"testing"
	"time"

	"github.com/churchconnect/churchconnect-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMembersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	members := `
CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  church_id TEXT NOT NULL,
  parent_id TEXT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  email TEXT,
  phone TEXT,
  birth_date DATETIME,
  gender TEXT,
  address TEXT,
  is_current_member INTEGER NOT NULL DEFAULT 1,
  biometric_template TEXT,
  photo_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(members).Error)
	return db
}

func seedMember(t *testing.T, db *gorm.DB, churchID uuid.UUID, first, last string, parentID *uuid.UUID, current bool, created time.Time) *models.Member {
	t.Helper()

	member := &models.Member{
		ID:              uuid.New(),
		ChurchID:        churchID,
		ParentID:        parentID,
		FirstName:       first,
		LastName:        last,
		IsCurrentMember: current,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	require.NoError(t, db.Create(member).Error)
	return member
}

func TestRepositoryListByChurch_ordering(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	otherChurch := uuid.New()
	now := time.Now().UTC()

	seedMember(t, db, churchID, "Ruth", "Okafor", nil, true, now)
	seedMember(t, db, churchID, "Adam", "Bassey", nil, true, now)
	seedMember(t, db, churchID, "Zara", "Bassey", nil, true, now)
	seedMember(t, db, otherChurch, "Noah", "Adeyemi", nil, true, now)

	list, err := repo.ListByChurch(context.Background(), churchID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Adam", list[0].FirstName)
	assert.Equal(t, "Zara", list[1].FirstName)
	assert.Equal(t, "Okafor", list[2].LastName)

	page, err := repo.ListByChurch(context.Background(), churchID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Ruth", page[0].FirstName)
}

func TestRepositorySetParent_andChildren(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	now := time.Now().UTC()

	head := seedMember(t, db, churchID, "Grace", "Eze", nil, true, now)
	first := seedMember(t, db, churchID, "Ada", "Eze", nil, true, now)
	second := seedMember(t, db, churchID, "Obi", "Eze", nil, true, now.Add(time.Minute))

	require.NoError(t, repo.SetParent(context.Background(), first.ID, &head.ID))
	require.NoError(t, repo.SetParent(context.Background(), second.ID, &head.ID))

	children, err := repo.ListChildren(context.Background(), head.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Ada", children[0].FirstName)
	assert.Equal(t, "Obi", children[1].FirstName)

	require.NoError(t, repo.SetParent(context.Background(), second.ID, nil))

	reloaded, err := repo.FindByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ParentID)
}

func TestRepositoryCountByChurch_currentOnly(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	now := time.Now().UTC()

	seedMember(t, db, churchID, "Mary", "Udo", nil, true, now)
	seedMember(t, db, churchID, "Paul", "Udo", nil, true, now)
	lapsed := seedMember(t, db, churchID, "Lost", "Sheep", nil, false, now)

	// The flag must survive the insert even though false is the zero value.
	reloaded, err := repo.FindByID(context.Background(), lapsed.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsCurrentMember)

	count, err := repo.CountByChurch(context.Background(), churchID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepositoryDelete(t *testing.T) {
	db := setupMembersTestDB(t)
	repo := NewRepository(db)

	churchID := uuid.New()
	member := seedMember(t, db, churchID, "Tolu", "Ajayi", nil, true, time.Now().UTC())

	require.NoError(t, repo.Delete(context.Background(), member.ID))

	_, err := repo.FindByID(context.Background(), member.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
