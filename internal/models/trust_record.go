package models

import "time"

// TrustRecord holds a user's standing with the crew. TrustScore moves by one
// point per heist outcome and stays within [-10, 10].
type TrustRecord struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Username           string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	TrustScore         int        `gorm:"not null;default:0" json:"trust_score"`
	HeistsParticipated int        `gorm:"not null;default:0" json:"heists_participated"`
	LastParticipation  *time.Time `json:"last_participation,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TrustEvent is one historical adjustment, kept so profiles can show how a
// score got where it is. The (heist_id, username) pair is unique so a
// distribution retry cannot move the same score twice.
type TrustEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HeistID   uint      `gorm:"not null;uniqueIndex:idx_trust_once" json:"heist_id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex:idx_trust_once;index" json:"username"`
	Delta     int       `gorm:"not null" json:"delta"`
	Score     int       `gorm:"not null" json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
