package services

import (
	"errors"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EconomyService owns user balances. Balances only move through credit
// entries, and a credit entry is unique per (heist, user) — retrying a
// distribution can never pay the same share twice.
type EconomyService struct {
	db *gorm.DB
}

func NewEconomyService(db *gorm.DB) *EconomyService {
	return &EconomyService{db: db}
}

// Credit applies one payout share. Returns false when an earlier attempt
// already landed this (heist, user) credit; the balance is untouched then.
// The entry insert and the balance bump commit together.
func (s *EconomyService) Credit(heistID uint, username string, amount int64) (bool, error) {
	applied := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry := models.CreditEntry{
			HeistID:  heistID,
			Username: username,
			Amount:   amount,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.EconomyAccount{Username: username}).Error; err != nil {
			return err
		}
		return tx.Model(&models.EconomyAccount{}).
			Where("username = ?", username).
			Update("balance", gorm.Expr("balance + ?", amount)).Error
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// GetBalance reports a user's balance. Users who never earned anything read
// as zero without creating a row.
func (s *EconomyService) GetBalance(username string) (int64, error) {
	var account models.EconomyAccount
	err := s.db.Where("username = ?", username).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (s *EconomyService) TopBalances(limit int) ([]models.EconomyAccount, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var accounts []models.EconomyAccount
	if err := s.db.Order("balance DESC").
		Limit(limit).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetCredits lists the payout entries behind one user's balance, newest
// first, so the number is auditable.
func (s *EconomyService) GetCredits(username string, limit int) ([]models.CreditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []models.CreditEntry
	if err := s.db.Where("username = ?", username).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
