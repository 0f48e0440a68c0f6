package activity

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

	err = db.AutoMigrate(&models.User{}, &models.LoginActivity{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func seedClient(t *testing.T, db *gorm.DB, email string, admin, active bool) {
	t.Helper()

	require.NoError(t, db.Create(&models.User{
		Email:    email,
		FullName: "Test Client",
		Admin:    admin,
		Active:   active,
	}).Error)
}

func TestTrackLogin(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.ErrorIs(t, TrackLogin(nil, "a@x.com", now), ErrDBNil)
	require.ErrorIs(t, TrackLogin(db, "", now), ErrEmailEmpty)

	// first login creates the row
	require.NoError(t, TrackLogin(db, "a@x.com", now))

	var row models.LoginActivity
	require.NoError(t, db.Where("user_email = ?", "a@x.com").First(&row).Error)
	assert.Equal(t, 1, row.LoginCount)
	assert.True(t, row.LastLogin.Equal(now))

	// later logins bump counter and timestamp
	later := now.Add(48 * time.Hour)
	require.NoError(t, TrackLogin(db, "a@x.com", later))

	require.NoError(t, db.Where("user_email = ?", "a@x.com").First(&row).Error)
	assert.Equal(t, 2, row.LoginCount)
	assert.True(t, row.LastLogin.Equal(later))
}

func TestInactiveClients(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	seedClient(t, db, "never@x.com", false, true)
	seedClient(t, db, "stale@x.com", false, true)
	seedClient(t, db, "fresh@x.com", false, true)
	seedClient(t, db, "coach@x.com", true, true)
	seedClient(t, db, "inactiveaccount@x.com", false, false)

	require.NoError(t, TrackLogin(db, "stale@x.com", now.Add(-10*24*time.Hour)))
	require.NoError(t, TrackLogin(db, "fresh@x.com", now.Add(-time.Hour)))
	require.NoError(t, TrackLogin(db, "coach@x.com", now.Add(-30*24*time.Hour)))

	clients, err := InactiveClients(db, 7, now)
	require.NoError(t, err)
	require.Len(t, clients, 2)

	// never-logged-in clients sort first
	assert.Equal(t, "never@x.com", clients[0].Email)
	assert.Nil(t, clients[0].LastLogin)
	assert.Equal(t, -1, clients[0].DaysInactive(now))

	assert.Equal(t, "stale@x.com", clients[1].Email)
	assert.Equal(t, 10, clients[1].DaysInactive(now))
}

func TestInactiveClientsNilDB(t *testing.T) {
	_, err := InactiveClients(nil, 7, time.Now())
	require.ErrorIs(t, err, ErrDBNil)
}
