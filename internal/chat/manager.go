package chat

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/models"
	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Manager owns the gateway side of the bot: it keeps the room code mapping
// fresh, receives webhook batches, and feeds lines to the command handler.
type Manager struct {
	db              *gorm.DB
	handler         *LineHandler
	refreshInterval time.Duration

	mu     sync.RWMutex
	byCode map[string]uint

	stopCh chan struct{}
}

func NewManager(
	db *gorm.DB,
	client *Client,
	registry *heist.Registry,
	crimes *services.CrimeService,
	economy *services.EconomyService,
	trust *services.TrustService,
	refreshInterval time.Duration,
) *Manager {
	m := &Manager{
		db:              db,
		refreshInterval: refreshInterval,
		byCode:          make(map[string]uint),
		stopCh:          make(chan struct{}),
	}
	m.handler = NewLineHandler(client, m, registry, crimes, economy, trust)
	return m
}

func (m *Manager) Start() {
	m.Refresh()
	go m.refreshLoop()
	log.Println("[ChatManager] started")
}

func (m *Manager) Stop() {
	close(m.stopCh)
	log.Println("[ChatManager] stopped")
}

func (m *Manager) refreshLoop() {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Refresh()
		}
	}
}

// Refresh reloads the active room mapping. Room create and close handlers
// call it so chat picks the change up without waiting for the ticker.
func (m *Manager) Refresh() {
	var rooms []models.Room
	m.db.Where("status = ?", models.RoomStatusActive).Find(&rooms)

	byCode := make(map[string]uint, len(rooms))
	for _, r := range rooms {
		byCode[r.Code] = r.ID
	}

	m.mu.Lock()
	m.byCode = byCode
	m.mu.Unlock()
}

// RoomID implements RoomLookup for the line handler.
func (m *Manager) RoomID(code string) (uint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byCode[code]
	return id, ok
}

// HandleWebhook accepts a line batch from the gateway and dispatches each
// line off the request goroutine. Gateway auth happens in the bot key
// middleware in front of this route.
func (m *Manager) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	for _, line := range event.Lines {
		go m.handler.HandleLine(line)
	}

	c.Status(http.StatusOK)
}
