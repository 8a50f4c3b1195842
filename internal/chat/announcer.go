package chat

import (
	"log"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"
)

// RoomDirectory resolves room IDs to gateway room codes. The room service
// implements it off the rooms table.
type RoomDirectory interface {
	Code(roomID uint) (string, bool)
}

// Announcer pushes heist cycle events into room chat. Sends go through a
// bounded queue and a single worker so a slow gateway can never stall a
// room's timer callback; when the queue is full the message is dropped.
type Announcer struct {
	client *Client
	rooms  RoomDirectory
	queue  chan SayRequest
	stopCh chan struct{}
}

func NewAnnouncer(client *Client, rooms RoomDirectory) *Announcer {
	a := &Announcer{
		client: client,
		rooms:  rooms,
		queue:  make(chan SayRequest, 64),
		stopCh: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Announcer) run() {
	for {
		select {
		case <-a.stopCh:
			return
		case req := <-a.queue:
			if err := a.client.Say(req.Room, req.Text); err != nil {
				log.Printf("[chat] say to %s failed: %v", req.Room, err)
			}
		}
	}
}

func (a *Announcer) Stop() {
	close(a.stopCh)
}

func (a *Announcer) say(roomID uint, text string) {
	code, ok := a.rooms.Code(roomID)
	if !ok {
		return
	}
	select {
	case a.queue <- SayRequest{Room: code, Text: text}:
	case <-a.stopCh:
	default:
		log.Printf("[chat] queue full, dropping message for room %d", roomID)
	}
}

func (a *Announcer) HeistAnnounced(roomID uint, votingOpensIn time.Duration) {
	a.say(roomID, announceText(votingOpensIn))
}

func (a *Announcer) VotingOpened(roomID uint, crimes []heist.Crime, window time.Duration) {
	a.say(roomID, votingText(crimes, window))
}

func (a *Announcer) CrimeChosen(roomID uint, crime heist.Crime, participants int) {
	a.say(roomID, chosenText(crime, participants))
}

func (a *Announcer) HeistResolved(roomID uint, crime heist.Crime, out heist.Outcome, participants int) {
	a.say(roomID, resultText(crime, out, participants))
}

func (a *Announcer) HeistCancelled(roomID uint, reason string) {
	a.say(roomID, cancelledText(reason))
}
