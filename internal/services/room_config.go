package services

import (
	"errors"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomConfigService is the durable key/value store behind the heist engine's
// recovery state. Every key is scoped by room through the composite unique
// index on (room_id, key), so two rooms can never collide on a key name.
type RoomConfigService struct {
	db *gorm.DB
}

func NewRoomConfigService(db *gorm.DB) *RoomConfigService {
	return &RoomConfigService{db: db}
}

func (s *RoomConfigService) Get(roomID uint, key string) (string, bool, error) {
	var entry models.RoomConfig
	err := s.db.Where("room_id = ? AND key = ?", roomID, key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set upserts in one statement so concurrent writers cannot interleave a
// read-modify-write on the same key.
func (s *RoomConfigService) Set(roomID uint, key, value string) error {
	entry := models.RoomConfig{
		RoomID:    roomID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *RoomConfigService) Delete(roomID uint, key string) error {
	return s.db.Where("room_id = ? AND key = ?", roomID, key).
		Delete(&models.RoomConfig{}).Error
}
