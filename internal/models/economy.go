package models

import "time"

// EconomyAccount is a user's wallet. Balances only move through credit
// entries so every change stays auditable.
type EconomyAccount struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreditEntry records a single payout credit. The (heist_id, username) pair
// is unique, which makes distribution retries safe: a second insert for the
// same pair is a no-op and the balance is untouched.
type CreditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HeistID   uint      `gorm:"not null;uniqueIndex:idx_credit_once" json:"heist_id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex:idx_credit_once" json:"username"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
