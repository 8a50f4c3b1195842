package models

import "time"

// Crime is one votable entry in the content catalog. BaseProbability is the
// unmodified success chance before trust and crew bonuses are applied.
type Crime struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Difficulty      int       `gorm:"not null;default:1" json:"difficulty"`
	BaseProbability float64   `gorm:"not null" json:"base_probability"`
	PayoutMin       int       `gorm:"not null" json:"payout_min"`
	PayoutMax       int       `gorm:"not null" json:"payout_max"`
	Enabled         bool      `gorm:"not null;default:true" json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
