package models

import "time"

// HeistParticipant is one user joined to a session. A vote doubles as the
// join action, so every participant row carries the crime they voted for.
// The (heist_id, username) pair is unique: re-votes update the row in place.
type HeistParticipant struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	HeistID  uint      `gorm:"not null;uniqueIndex:idx_heist_participant" json:"heist_id"`
	Username string    `gorm:"size:100;not null;uniqueIndex:idx_heist_participant" json:"username"`
	CrimeID  uint      `gorm:"not null" json:"crime_id"`
	Payout   int64     `gorm:"not null;default:0" json:"payout"`
	JoinedAt time.Time `json:"joined_at"`
	VotedAt  time.Time `json:"voted_at"`
}
