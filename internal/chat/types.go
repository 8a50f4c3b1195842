package chat

import "encoding/json"

// Rank thresholds mirror the gateway's channel ranks.
const RankModerator = 2

// Line is one inbound chat message relayed by the gateway webhook.
type Line struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Rank     int    `json:"rank"`
	SentAt   int64  `json:"sent_at"`
}

func (l Line) IsMod() bool {
	return l.Rank >= RankModerator
}

// WebhookEvent is the gateway's delivery envelope. Lines arrive batched.
type WebhookEvent struct {
	Lines []Line `json:"lines"`
}

type SayRequest struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

type APIResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}
