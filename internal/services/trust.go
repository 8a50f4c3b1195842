package services

import (
	"errors"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Trust scores stay inside these bounds no matter how many heists a user
// runs. One point per point of score feeds the resolver's odds bonus.
const (
	TrustMin = -10
	TrustMax = 10
)

// TrustService tracks per-user reputation. Records are created lazily on a
// user's first resolved heist and persist across sessions.
type TrustService struct {
	db *gorm.DB
}

func NewTrustService(db *gorm.DB) *TrustService {
	return &TrustService{db: db}
}

// AverageScore is the crew's mean trust. Users with no record yet count as
// zero, so the divisor is always the crew size.
func (s *TrustService) AverageScore(usernames []string) (float64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	var records []models.TrustRecord
	if err := s.db.Where("username IN ?", usernames).Find(&records).Error; err != nil {
		return 0, err
	}
	sum := 0
	for _, r := range records {
		sum += r.TrustScore
	}
	return float64(sum) / float64(len(usernames)), nil
}

// Adjust moves every crew member's score by delta, clamped to the bounds,
// and stamps their participation. Each (heist, user) pair adjusts at most
// once: the event row is the idempotency guard, so a retried distribution
// skips users who already moved.
func (s *TrustService) Adjust(usernames []string, delta int, heistID uint) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, username := range usernames {
			var record models.TrustRecord
			err := tx.Where("username = ?", username).First(&record).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				record = models.TrustRecord{Username: username}
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			score := clampTrust(record.TrustScore + delta)
			event := models.TrustEvent{
				HeistID:  heistID,
				Username: username,
				Delta:    delta,
				Score:    score,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&event)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			record.TrustScore = score
			record.HeistsParticipated++
			record.LastParticipation = &now
			if err := tx.Save(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRecord returns a user's trust record, zero-valued if they have none.
func (s *TrustService) GetRecord(username string) (*models.TrustRecord, error) {
	var record models.TrustRecord
	err := s.db.Where("username = ?", username).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TrustRecord{Username: username}, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *TrustService) Leaderboard(limit int) ([]models.TrustRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var records []models.TrustRecord
	if err := s.db.Order("trust_score DESC, heists_participated DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// HeistHistoryEntry is one row of a user's participation history.
type HeistHistoryEntry struct {
	HeistID   uint      `json:"heist_id"`
	RoomID    uint      `json:"room_id"`
	CrimeName string    `json:"crime_name"`
	Success   bool      `json:"success"`
	Payout    int64     `json:"payout"`
	PlayedAt  time.Time `json:"played_at"`
}

// GetHistory lists the completed heists a user took part in, newest first.
func (s *TrustService) GetHistory(username string, limit int) ([]HeistHistoryEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var participants []models.HeistParticipant
	if err := s.db.Where("username = ?", username).
		Order("joined_at DESC").
		Limit(limit).
		Find(&participants).Error; err != nil {
		return nil, err
	}

	var entries []HeistHistoryEntry
	for _, p := range participants {
		var session models.HeistSession
		if err := s.db.First(&session, p.HeistID).Error; err != nil {
			continue
		}
		if session.Status != models.HeistStatusComplete {
			continue
		}
		entries = append(entries, HeistHistoryEntry{
			HeistID:   p.HeistID,
			RoomID:    session.RoomID,
			CrimeName: session.CrimeName,
			Success:   session.Success,
			Payout:    p.Payout,
			PlayedAt:  p.JoinedAt,
		})
	}
	return entries, nil
}

func clampTrust(score int) int {
	if score < TrustMin {
		return TrustMin
	}
	if score > TrustMax {
		return TrustMax
	}
	return score
}
