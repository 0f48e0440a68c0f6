package homework

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.User{}, &models.Homework{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedClient(t *testing.T, db *gorm.DB, email string) {
	t.Helper()

	require.NoError(t, db.Create(&models.User{Email: email, Active: true}).Error)
}

func TestAssign(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := Assign(nil, "a@x.com", "spark-collector", now)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Assign(db, "", "spark-collector", now)
	require.ErrorIs(t, err, ErrEmailEmpty)

	_, err = Assign(db, "a@x.com", "", now)
	require.ErrorIs(t, err, ErrTypeEmpty)

	hw, err := Assign(db, "a@x.com", "spark-collector", now)
	require.NoError(t, err)
	assert.NotZero(t, hw.ID)
	assert.Nil(t, hw.SubmittedAt)

	// assigning the same unanswered type again returns the existing row
	again, err := Assign(db, "a@x.com", "spark-collector", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, hw.ID, again.ID)
}

func TestSubmit(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// submit against an existing assignment
	hw, err := Assign(db, "a@x.com", "spark-collector", now)
	require.NoError(t, err)

	submitted, err := Submit(db, "a@x.com", "spark-collector", []byte(`{"q1":"done"}`), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, hw.ID, submitted.ID)
	require.NotNil(t, submitted.SubmittedAt)

	// submit without a prior assignment upserts
	fresh, err := Submit(db, "b@x.com", "foundations", []byte(`{}`), now)
	require.NoError(t, err)
	assert.NotZero(t, fresh.ID)
	require.NotNil(t, fresh.SubmittedAt)

	got, err := Get(db, "b@x.com", "foundations")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)
}

func TestGetNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := Get(db, "a@x.com", "spark-collector")
	require.ErrorIs(t, err, ErrHomeworkNotFound)
}

func TestListForClient(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := Assign(db, "a@x.com", "spark-collector", now)
	require.NoError(t, err)
	_, err = Assign(db, "a@x.com", "foundations", now.Add(time.Hour))
	require.NoError(t, err)
	_, err = Assign(db, "b@x.com", "foundations", now)
	require.NoError(t, err)

	rows, err := ListForClient(db, "a@x.com")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// newest first
	assert.Equal(t, "foundations", rows[0].HomeworkType)
}

func TestPendingClients(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedClient(t, db, "slow@x.com")
	seedClient(t, db, "quick@x.com")
	seedClient(t, db, "recent@x.com")

	// assigned 10 days ago, never answered -> eligible
	_, err := Assign(db, "slow@x.com", "spark-collector", now.Add(-10*24*time.Hour))
	require.NoError(t, err)

	// assigned 10 days ago but answered -> not eligible
	_, err = Assign(db, "quick@x.com", "spark-collector", now.Add(-10*24*time.Hour))
	require.NoError(t, err)
	_, err = Submit(db, "quick@x.com", "spark-collector", []byte(`{}`), now.Add(-9*24*time.Hour))
	require.NoError(t, err)

	// assigned yesterday -> not eligible yet
	_, err = Assign(db, "recent@x.com", "foundations", now.Add(-24*time.Hour))
	require.NoError(t, err)

	pending, err := PendingClients(db, 7, now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "slow@x.com", pending[0].Email)
	assert.Equal(t, "spark-collector", pending[0].HomeworkType)
}
