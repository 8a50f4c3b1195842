package models

import "time"

// RoomConfig is one room-scoped key/value pair. The heist engine persists its
// recovery state here (next fire time, current session, distribution flag) so
// a restart can pick up mid-flow.
type RoomConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;uniqueIndex:idx_room_config" json:"room_id"`
	Key       string    `gorm:"size:64;not null;uniqueIndex:idx_room_config" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
