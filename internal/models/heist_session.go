package models

import "time"

// HeistSession is one run of the heist flow in a room, from announcement to
// payout. Status tracks the live phase so a restart can resume where it died.
type HeistSession struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	RoomID           uint       `gorm:"not null;index" json:"room_id"`
	Status           string     `gorm:"size:20;not null;default:'announcing'" json:"status"`
	CrimeID          *uint      `gorm:"index" json:"crime_id,omitempty"`
	CrimeName        string     `gorm:"size:100" json:"crime_name,omitempty"`
	ParticipantCount int        `gorm:"not null;default:0" json:"participant_count"`
	TotalPayout      int64      `gorm:"not null;default:0" json:"total_payout"`
	Success          bool       `gorm:"not null;default:false" json:"success"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	Participants []HeistParticipant `gorm:"foreignKey:HeistID" json:"participants,omitempty"`
}

const (
	HeistStatusAnnouncing   = "announcing"
	HeistStatusVoting       = "voting"
	HeistStatusInProgress   = "in_progress"
	HeistStatusDistributing = "distributing"
	HeistStatusComplete     = "complete"
	HeistStatusAborted      = "aborted"
)
