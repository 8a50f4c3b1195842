package services

import (
	"testing"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens an isolated in-memory database with the full schema. Capped at
// one connection: every sqlite :memory: connection is its own database, so a
// second one would see empty tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Host{},
		&models.Room{},
		&models.RoomMember{},
		&models.Crime{},
		&models.HeistSession{},
		&models.HeistParticipant{},
		&models.TrustRecord{},
		&models.TrustEvent{},
		&models.RoomConfig{},
		&models.EconomyAccount{},
		&models.CreditEntry{},
	))
	return db
}
