package database

import (
	"fmt"
	"log"

	"github.com/hildolfr/dazza-sub007/internal/config"
	"github.com/hildolfr/dazza-sub007/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	// Add heists_enabled to rooms if missing (rooms predate the heist engine)
	db.Exec(`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'rooms')
		   AND NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'rooms' AND column_name = 'heists_enabled')
		THEN
			ALTER TABLE rooms ADD COLUMN heists_enabled boolean NOT NULL DEFAULT false;
		END IF;
	END $$;`)

	err := db.AutoMigrate(
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
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
	log.Println("database migrated")
}
