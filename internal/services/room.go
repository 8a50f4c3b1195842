package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomService struct {
	db *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db}
}

func (s *RoomService) CreateRoom(hostID uint, name string) (*models.Room, error) {
	if name == "" {
		return nil, errors.New("room name is required")
	}
	code := s.generateUniqueCode()
	room := models.Room{
		HostID: hostID,
		Code:   code,
		Name:   name,
		Status: models.RoomStatusActive,
	}
	if err := s.db.Create(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *RoomService) GetRoom(roomID uint) (*models.Room, error) {
	var room models.Room
	if err := s.db.Preload("Members").First(&room, roomID).Error; err != nil {
		return nil, errors.New("room not found")
	}
	return &room, nil
}

// Code resolves a room ID to its gateway code. Satisfies the chat
// announcer's directory.
func (s *RoomService) Code(roomID uint) (string, bool) {
	var room models.Room
	if err := s.db.Select("code").
		Where("id = ? AND status = ?", roomID, models.RoomStatusActive).
		First(&room).Error; err != nil {
		return "", false
	}
	return room.Code, true
}

func (s *RoomService) GetRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("code = ? AND status = ?", code, models.RoomStatusActive).
		First(&room).Error; err != nil {
		return nil, errors.New("room not found or closed")
	}
	return &room, nil
}

func (s *RoomService) GetActiveRooms(hostID uint) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.Where("host_id = ? AND status = ?", hostID, models.RoomStatusActive).
		Order("created_at DESC").
		Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// SetHeistsEnabled flips the persisted heist switch. The caller is expected
// to mirror the change into the running registry.
func (s *RoomService) SetHeistsEnabled(roomID, hostID uint, enabled bool) (*models.Room, error) {
	var room models.Room
	if err := s.db.Where("id = ? AND host_id = ?", roomID, hostID).First(&room).Error; err != nil {
		return nil, errors.New("room not found")
	}
	if room.Status != models.RoomStatusActive {
		return nil, errors.New("room is closed")
	}
	room.HeistsEnabled = enabled
	if err := s.db.Save(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// EnabledRoomIDs returns every active room with heists switched on. Called
// once at startup so the registry can pick up where the last process left off.
func (s *RoomService) EnabledRoomIDs() ([]uint, error) {
	var ids []uint
	if err := s.db.Model(&models.Room{}).
		Where("status = ? AND heists_enabled = ?", models.RoomStatusActive, true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *RoomService) JoinRoom(code, username, webToken string) (*RoomJoinResult, error) {
	room, err := s.GetRoomByCode(code)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, errors.New("username is required")
	}

	var existing models.RoomMember
	if webToken != "" {
		if err := s.db.Where("room_id = ? AND web_token = ?", room.ID, webToken).
			First(&existing).Error; err == nil {
			return &RoomJoinResult{Room: *room, Member: existing, IsRejoin: true}, nil
		}
	}
	if err := s.db.Where("room_id = ? AND username = ?", room.ID, username).
		First(&existing).Error; err == nil {
		return &RoomJoinResult{Room: *room, Member: existing, IsRejoin: true}, nil
	}

	member := models.RoomMember{
		RoomID:   room.ID,
		Username: username,
		WebToken: uuid.NewString(),
		JoinedAt: time.Now(),
	}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	return &RoomJoinResult{Room: *room, Member: member}, nil
}

func (s *RoomService) Reconnect(webToken, code string) (*RoomJoinResult, error) {
	room, err := s.GetRoomByCode(code)
	if err != nil {
		return nil, err
	}

	var member models.RoomMember
	if err := s.db.Where("room_id = ? AND web_token = ?", room.ID, webToken).
		First(&member).Error; err != nil {
		return nil, errors.New("member not found")
	}

	return &RoomJoinResult{Room: *room, Member: member, IsRejoin: true}, nil
}

func (s *RoomService) CloseRoom(roomID, hostID uint) error {
	var room models.Room
	if err := s.db.Where("id = ? AND host_id = ?", roomID, hostID).First(&room).Error; err != nil {
		return errors.New("room not found")
	}
	room.Status = models.RoomStatusClosed
	room.HeistsEnabled = false
	s.db.Save(&room)
	return nil
}

func (s *RoomService) ListMembers(roomID uint) ([]models.RoomMember, error) {
	var members []models.RoomMember
	s.db.Where("room_id = ?", roomID).Order("joined_at ASC").Find(&members)
	return members, nil
}

func (s *RoomService) GetMemberByToken(roomID uint, webToken string) (*models.RoomMember, error) {
	var member models.RoomMember
	if err := s.db.Where("room_id = ? AND web_token = ?", roomID, webToken).
		First(&member).Error; err != nil {
		return nil, errors.New("member not found")
	}
	return &member, nil
}

func (s *RoomService) generateUniqueCode() string {
	for {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		var count int64
		s.db.Model(&models.Room{}).
			Where("code = ? AND status = ?", code, models.RoomStatusActive).
			Count(&count)
		if count == 0 {
			return code
		}
	}
}

type RoomJoinResult struct {
	Room     models.Room       `json:"room"`
	Member   models.RoomMember `json:"member"`
	IsRejoin bool              `json:"is_rejoin"`
}
