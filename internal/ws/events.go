package ws

import (
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"
)

// Event types pushed to room viewers.
const (
	EventHeistAnnounced = "heist_announced"
	EventVotingOpened   = "voting_opened"
	EventCrimeChosen    = "crime_chosen"
	EventHeistResolved  = "heist_resolved"
	EventHeistCancelled = "heist_cancelled"
	EventRoomClosed     = "room_closed"
)

// Events adapts the hub to the heist announcer contract so web viewers see
// cycle changes as they happen.
type Events struct {
	hub *Hub
}

func NewEvents(hub *Hub) *Events {
	return &Events{hub: hub}
}

type crimeSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Difficulty int    `json:"difficulty"`
	PayoutMin  int    `json:"payout_min"`
	PayoutMax  int    `json:"payout_max"`
}

func summarize(c heist.Crime) crimeSummary {
	return crimeSummary{
		ID:         c.ID,
		Name:       c.Name,
		Difficulty: c.Difficulty,
		PayoutMin:  c.PayoutMin,
		PayoutMax:  c.PayoutMax,
	}
}

func (e *Events) HeistAnnounced(roomID uint, votingOpensIn time.Duration) {
	e.hub.Broadcast(roomID, WSMessage{Type: EventHeistAnnounced, Data: struct {
		VotingOpensInSeconds int `json:"voting_opens_in_seconds"`
	}{int(votingOpensIn.Seconds())}})
}

func (e *Events) VotingOpened(roomID uint, crimes []heist.Crime, window time.Duration) {
	summaries := make([]crimeSummary, len(crimes))
	for i, c := range crimes {
		summaries[i] = summarize(c)
	}
	e.hub.Broadcast(roomID, WSMessage{Type: EventVotingOpened, Data: struct {
		WindowSeconds int            `json:"window_seconds"`
		Crimes        []crimeSummary `json:"crimes"`
	}{int(window.Seconds()), summaries}})
}

func (e *Events) CrimeChosen(roomID uint, crime heist.Crime, participants int) {
	e.hub.Broadcast(roomID, WSMessage{Type: EventCrimeChosen, Data: struct {
		Crime        crimeSummary `json:"crime"`
		Participants int          `json:"participants"`
	}{summarize(crime), participants}})
}

func (e *Events) HeistResolved(roomID uint, crime heist.Crime, out heist.Outcome, participants int) {
	e.hub.Broadcast(roomID, WSMessage{Type: EventHeistResolved, Data: struct {
		Crime        crimeSummary `json:"crime"`
		Success      bool         `json:"success"`
		TotalPayout  int64        `json:"total_payout"`
		TrustDelta   int          `json:"trust_delta"`
		Participants int          `json:"participants"`
	}{summarize(crime), out.Success, out.TotalPayout, out.TrustDelta, participants}})
}

func (e *Events) HeistCancelled(roomID uint, reason string) {
	e.hub.Broadcast(roomID, WSMessage{Type: EventHeistCancelled, Data: struct {
		Reason string `json:"reason"`
	}{reason}})
}
