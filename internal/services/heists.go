package services

import (
	"errors"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/models"

	"gorm.io/gorm"
)

// HeistService persists heist sessions and their participants. The engine
// drives it through the heist.SessionStore interface; handlers use the
// richer query methods below it.
type HeistService struct {
	db *gorm.DB
}

func NewHeistService(db *gorm.DB) *HeistService {
	return &HeistService{db: db}
}

// CreateSession opens a new session for the room. Any session the room still
// has in a live status is aborted first — one active session per room.
func (s *HeistService) CreateSession(roomID uint) (uint, error) {
	err := s.db.Model(&models.HeistSession{}).
		Where("room_id = ? AND status NOT IN ?", roomID,
			[]string{models.HeistStatusComplete, models.HeistStatusAborted}).
		Updates(map[string]interface{}{
			"status":       models.HeistStatusAborted,
			"completed_at": time.Now(),
		}).Error
	if err != nil {
		return 0, err
	}

	session := models.HeistSession{
		RoomID: roomID,
		Status: models.HeistStatusAnnouncing,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return 0, err
	}
	return session.ID, nil
}

func (s *HeistService) Session(sessionID uint) (heist.Session, error) {
	var session models.HeistSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return heist.Session{}, &heist.NotFoundError{Kind: "session", ID: sessionID}
		}
		return heist.Session{}, err
	}
	out := heist.Session{
		ID:          session.ID,
		RoomID:      session.RoomID,
		Status:      session.Status,
		Success:     session.Success,
		TotalPayout: session.TotalPayout,
	}
	if session.CrimeID != nil {
		out.CrimeID = *session.CrimeID
	}
	return out, nil
}

func (s *HeistService) UpdateStatus(sessionID uint, phase heist.Phase) error {
	return s.db.Model(&models.HeistSession{}).
		Where("id = ?", sessionID).
		Update("status", string(phase)).Error
}

func (s *HeistService) SetCrime(sessionID uint, crimeID uint, crimeName string) error {
	return s.db.Model(&models.HeistSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"crime_id":   crimeID,
			"crime_name": crimeName,
		}).Error
}

// UpsertVote records a vote, creating the participant row on first vote and
// rewriting the crime on a re-vote (last-vote-wins). VotedAt always moves so
// rehydrated tie-breaks match what the collector saw live.
func (s *HeistService) UpsertVote(sessionID uint, username string, crimeID uint) error {
	now := time.Now()
	var existing models.HeistParticipant
	err := s.db.Where("heist_id = ? AND username = ?", sessionID, username).
		First(&existing).Error
	if err == nil {
		existing.CrimeID = crimeID
		existing.VotedAt = now
		return s.db.Save(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	participant := models.HeistParticipant{
		HeistID:  sessionID,
		Username: username,
		CrimeID:  crimeID,
		JoinedAt: now,
		VotedAt:  now,
	}
	return s.db.Create(&participant).Error
}

func (s *HeistService) Participants(sessionID uint) ([]heist.Participant, error) {
	var rows []models.HeistParticipant
	if err := s.db.Where("heist_id = ?", sessionID).
		Order("voted_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	parts := make([]heist.Participant, len(rows))
	for i, row := range rows {
		parts[i] = heist.Participant{
			Username: row.Username,
			CrimeID:  row.CrimeID,
			VotedAt:  row.VotedAt,
		}
	}
	return parts, nil
}

func (s *HeistService) SetPayout(sessionID uint, username string, amount int64) error {
	return s.db.Model(&models.HeistParticipant{}).
		Where("heist_id = ? AND username = ?", sessionID, username).
		Update("payout", amount).Error
}

// RecordOutcome freezes the roll before distribution starts, so a crash
// mid-payout can rebuild the exact outcome from the session row.
func (s *HeistService) RecordOutcome(sessionID uint, success bool, totalPayout int64) error {
	var count int64
	if err := s.db.Model(&models.HeistParticipant{}).
		Where("heist_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return err
	}
	return s.db.Model(&models.HeistSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"success":           success,
			"total_payout":      totalPayout,
			"participant_count": int(count),
		}).Error
}

func (s *HeistService) Complete(sessionID uint) error {
	return s.close(sessionID, models.HeistStatusComplete)
}

func (s *HeistService) Abort(sessionID uint) error {
	return s.close(sessionID, models.HeistStatusAborted)
}

func (s *HeistService) close(sessionID uint, status string) error {
	return s.db.Model(&models.HeistSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":       status,
			"completed_at": time.Now(),
		}).Error
}

// GetHeist returns one session with its participants, for the detail view.
func (s *HeistService) GetHeist(sessionID uint) (*models.HeistSession, error) {
	var session models.HeistSession
	if err := s.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("payout DESC, username ASC")
	}).First(&session, sessionID).Error; err != nil {
		return nil, errors.New("heist not found")
	}
	return &session, nil
}

// ListRoomHeists returns a room's most recent sessions, newest first.
func (s *HeistService) ListRoomHeists(roomID uint, limit int) ([]models.HeistSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var sessions []models.HeistSession
	if err := s.db.Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
