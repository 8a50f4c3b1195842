package models

import "time"

type Room struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	HostID        uint         `gorm:"not null;index" json:"host_id"`
	Host          Host         `gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE" json:"-"`
	Code          string       `gorm:"size:6;index" json:"code"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	Status        string       `gorm:"size:20;not null;default:'active'" json:"status"`
	HeistsEnabled bool         `gorm:"not null;default:false" json:"heists_enabled"`
	Members       []RoomMember `gorm:"foreignKey:RoomID" json:"members,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

const (
	RoomStatusActive = "active"
	RoomStatusClosed = "closed"
)

type RoomMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	RoomID   uint      `gorm:"not null;uniqueIndex:idx_room_member" json:"room_id"`
	Username string    `gorm:"size:100;not null;uniqueIndex:idx_room_member" json:"username"`
	WebToken string    `gorm:"size:64" json:"web_token,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}
