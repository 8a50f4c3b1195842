package services

import (
	"errors"
	"fmt"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/models"

	"gorm.io/gorm"
)

// CrimeService owns the votable crime catalog. The heist engine reads it
// through the heist.CrimeCatalog interface; hosts manage it over the API.
type CrimeService struct {
	db *gorm.DB
}

func NewCrimeService(db *gorm.DB) *CrimeService {
	return &CrimeService{db: db}
}

func (s *CrimeService) EnabledCrimes() ([]heist.Crime, error) {
	var crimes []models.Crime
	if err := s.db.Where("enabled = ?", true).
		Order("difficulty ASC, name ASC").
		Find(&crimes).Error; err != nil {
		return nil, err
	}
	out := make([]heist.Crime, len(crimes))
	for i, c := range crimes {
		out[i] = toHeistCrime(c)
	}
	return out, nil
}

func (s *CrimeService) CrimeByID(id uint) (heist.Crime, error) {
	var crime models.Crime
	if err := s.db.First(&crime, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return heist.Crime{}, &heist.NotFoundError{Kind: "crime", ID: id}
		}
		return heist.Crime{}, err
	}
	return toHeistCrime(crime), nil
}

func toHeistCrime(c models.Crime) heist.Crime {
	return heist.Crime{
		ID:              c.ID,
		Name:            c.Name,
		Difficulty:      c.Difficulty,
		BaseProbability: c.BaseProbability,
		PayoutMin:       c.PayoutMin,
		PayoutMax:       c.PayoutMax,
	}
}

func (s *CrimeService) GetCrime(id uint) (*models.Crime, error) {
	var crime models.Crime
	if err := s.db.First(&crime, id).Error; err != nil {
		return nil, errors.New("crime not found")
	}
	return &crime, nil
}

func (s *CrimeService) ListCrimes() ([]models.Crime, error) {
	var crimes []models.Crime
	if err := s.db.Order("difficulty ASC, name ASC").Find(&crimes).Error; err != nil {
		return nil, err
	}
	return crimes, nil
}

// CrimeInput carries the editable fields of a catalog entry.
type CrimeInput struct {
	Name            string  `json:"name"`
	Difficulty      int     `json:"difficulty"`
	BaseProbability float64 `json:"base_probability"`
	PayoutMin       int     `json:"payout_min"`
	PayoutMax       int     `json:"payout_max"`
	Enabled         *bool   `json:"enabled"`
}

func validateCrime(input CrimeInput) error {
	if input.Name == "" {
		return errors.New("crime name is required")
	}
	if input.Difficulty < 1 || input.Difficulty > 5 {
		return errors.New("difficulty must be between 1 and 5")
	}
	if input.BaseProbability <= 0 || input.BaseProbability >= 1 {
		return errors.New("base_probability must be between 0 and 1 exclusive")
	}
	if input.PayoutMin < 0 || input.PayoutMax < input.PayoutMin {
		return errors.New("payout range must satisfy 0 <= payout_min <= payout_max")
	}
	return nil
}

func (s *CrimeService) CreateCrime(input CrimeInput) (*models.Crime, error) {
	if err := validateCrime(input); err != nil {
		return nil, err
	}
	crime := models.Crime{
		Name:            input.Name,
		Difficulty:      input.Difficulty,
		BaseProbability: input.BaseProbability,
		PayoutMin:       input.PayoutMin,
		PayoutMax:       input.PayoutMax,
		Enabled:         true,
	}
	if input.Enabled != nil {
		crime.Enabled = *input.Enabled
	}
	if err := s.db.Create(&crime).Error; err != nil {
		return nil, fmt.Errorf("create crime: %w", err)
	}
	return &crime, nil
}

func (s *CrimeService) UpdateCrime(id uint, input CrimeInput) (*models.Crime, error) {
	var crime models.Crime
	if err := s.db.First(&crime, id).Error; err != nil {
		return nil, errors.New("crime not found")
	}
	if err := validateCrime(input); err != nil {
		return nil, err
	}
	crime.Name = input.Name
	crime.Difficulty = input.Difficulty
	crime.BaseProbability = input.BaseProbability
	crime.PayoutMin = input.PayoutMin
	crime.PayoutMax = input.PayoutMax
	if input.Enabled != nil {
		crime.Enabled = *input.Enabled
	}
	if err := s.db.Save(&crime).Error; err != nil {
		return nil, err
	}
	return &crime, nil
}

// DeleteCrime removes a catalog entry. Completed sessions keep the crime
// name they snapshotted, so history survives the delete.
func (s *CrimeService) DeleteCrime(id uint) error {
	result := s.db.Delete(&models.Crime{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("crime not found")
	}
	return nil
}

func (s *CrimeService) SetEnabled(id uint, enabled bool) (*models.Crime, error) {
	var crime models.Crime
	if err := s.db.First(&crime, id).Error; err != nil {
		return nil, errors.New("crime not found")
	}
	crime.Enabled = enabled
	if err := s.db.Save(&crime).Error; err != nil {
		return nil, err
	}
	return &crime, nil
}

// ImportCrimes inserts a batch, skipping rows that fail validation or clash
// with an existing name. Returns how many landed.
func (s *CrimeService) ImportCrimes(inputs []CrimeInput) (int, error) {
	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, input := range inputs {
			if validateCrime(input) != nil {
				continue
			}
			var existing int64
			tx.Model(&models.Crime{}).Where("name = ?", input.Name).Count(&existing)
			if existing > 0 {
				continue
			}
			crime := models.Crime{
				Name:            input.Name,
				Difficulty:      input.Difficulty,
				BaseProbability: input.BaseProbability,
				PayoutMin:       input.PayoutMin,
				PayoutMax:       input.PayoutMax,
				Enabled:         true,
			}
			if input.Enabled != nil {
				crime.Enabled = *input.Enabled
			}
			if err := tx.Create(&crime).Error; err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SeedDefaults loads the starter catalog into an empty table so a fresh
// deployment has something to vote on.
func (s *CrimeService) SeedDefaults() error {
	var count int64
	if err := s.db.Model(&models.Crime{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	defaults := []models.Crime{
		{Name: "Servo Snack Run", Difficulty: 1, BaseProbability: 0.80, PayoutMin: 10, PayoutMax: 30, Enabled: true},
		{Name: "Bottle-O Dash", Difficulty: 1, BaseProbability: 0.75, PayoutMin: 15, PayoutMax: 40, Enabled: true},
		{Name: "Copper Wire Strip", Difficulty: 2, BaseProbability: 0.65, PayoutMin: 30, PayoutMax: 80, Enabled: true},
		{Name: "Pokies Skim", Difficulty: 3, BaseProbability: 0.50, PayoutMin: 60, PayoutMax: 150, Enabled: true},
		{Name: "Warehouse Job", Difficulty: 4, BaseProbability: 0.35, PayoutMin: 120, PayoutMax: 300, Enabled: true},
		{Name: "Armoured Van Hit", Difficulty: 5, BaseProbability: 0.20, PayoutMin: 250, PayoutMax: 600, Enabled: true},
	}
	return s.db.Create(&defaults).Error
}
