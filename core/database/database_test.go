package database_test

import (
	"testing"
	"time"

	"inventory-reconciler/core/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	t.Run("InvalidConnection", func(t *testing.T) {
		cfg := database.Config{
			Driver:         database.DriverMySQL,
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "inventory",
			TimeoutSeconds: 1,
		}

		db, err := database.Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("UnsupportedDriver", func(t *testing.T) {
		db, err := database.Connect(database.Config{Driver: "postgres"})
		assert.ErrorContains(t, err, "unsupported database driver")
		assert.Nil(t, db)
	})

	t.Run("SQLiteRequiresName", func(t *testing.T) {
		_, err := database.Connect(database.Config{Driver: database.DriverSQLite})
		assert.Error(t, err)
	})

	t.Run("SQLiteInMemory", func(t *testing.T) {
		db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = database.Close(db) })

		require.NoError(t, database.Migrate(db))
		require.NoError(t, db.Create(&database.Collection{Name: "MOD09GQ", Version: "006"}).Error)

		var count int64
		require.NoError(t, db.Model(&database.Collection{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestConfig_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, database.Config{}.Timeout())
	assert.Equal(t, 5*time.Second, database.Config{TimeoutSeconds: 5}.Timeout())
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, database.Close(nil))
}
