package chat

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/hildolfr/dazza-sub007/internal/heist"
	"github.com/hildolfr/dazza-sub007/internal/services"
)

// RoomLookup resolves gateway room codes to room IDs.
type RoomLookup interface {
	RoomID(code string) (uint, bool)
}

// LineHandler turns inbound chat lines into heist commands. Replies go
// straight back through the client; unknown commands and plain chatter are
// ignored.
type LineHandler struct {
	client   *Client
	rooms    RoomLookup
	registry *heist.Registry
	crimes   *services.CrimeService
	economy  *services.EconomyService
	trust    *services.TrustService
}

func NewLineHandler(
	client *Client,
	rooms RoomLookup,
	registry *heist.Registry,
	crimes *services.CrimeService,
	economy *services.EconomyService,
	trust *services.TrustService,
) *LineHandler {
	return &LineHandler{
		client:   client,
		rooms:    rooms,
		registry: registry,
		crimes:   crimes,
		economy:  economy,
		trust:    trust,
	}
}

func (h *LineHandler) HandleLine(line Line) {
	cmd, ok := ParseCommand(line.Text)
	if !ok {
		return
	}
	roomID, ok := h.rooms.RoomID(line.Room)
	if !ok {
		return
	}

	switch cmd.Name {
	case "heist":
		h.cmdStatus(line, roomID)
	case "vote":
		h.cmdVote(line, roomID, cmd.Args)
	case "advance":
		h.cmdAdvance(line, roomID)
	case "balance":
		h.cmdBalance(line)
	case "trust":
		h.cmdTrust(line)
	case "crimes":
		h.cmdCrimes(line)
	}
}

func (h *LineHandler) reply(room, text string) {
	if err := h.client.Say(room, text); err != nil {
		log.Printf("[chat] reply to %s failed: %v", room, err)
	}
}

func (h *LineHandler) cmdStatus(line Line, roomID uint) {
	st, err := h.registry.Status(roomID)
	if err != nil {
		h.reply(line.Room, "heists are off in this room")
		return
	}

	switch st.Phase {
	case heist.PhaseIdle, heist.PhaseCooldown:
		if st.NextEvent.IsZero() {
			h.reply(line.Room, "no job on the books yet")
			return
		}
		h.reply(line.Room, fmt.Sprintf("next job kicks off in %s", shortDuration(time.Until(st.NextEvent))))
	case heist.PhaseAnnouncing:
		h.reply(line.Room, fmt.Sprintf("job's announced! voting opens in %s", shortDuration(time.Until(st.NextEvent))))
	case heist.PhaseVoting:
		h.reply(line.Room, fmt.Sprintf("voting's open, %d votes in. !vote <name> before it closes in %s",
			st.Votes, shortDuration(time.Until(st.NextEvent))))
	case heist.PhaseInProgress:
		h.reply(line.Room, "crew's out on a job right now")
	case heist.PhaseDistributing:
		h.reply(line.Room, "divvying up the take, hang on")
	}
}

func (h *LineHandler) cmdVote(line Line, roomID uint, args string) {
	if args == "" {
		h.reply(line.Room, fmt.Sprintf("%s: usage is !vote <name>, see !crimes", line.Username))
		return
	}

	crimes, err := h.crimes.EnabledCrimes()
	if err != nil || len(crimes) == 0 {
		h.reply(line.Room, fmt.Sprintf("%s: no jobs on the board", line.Username))
		return
	}
	crime, err := matchCrime(crimes, args)
	if err != nil {
		h.reply(line.Room, fmt.Sprintf("%s: %s", line.Username, err.Error()))
		return
	}

	if err := h.registry.CastVote(roomID, line.Username, crime.ID); err != nil {
		var wp *heist.WrongPhaseError
		switch {
		case errors.As(err, &wp):
			h.reply(line.Room, fmt.Sprintf("%s: there's no vote on right now", line.Username))
		default:
			log.Printf("[chat] vote by %s in room %d failed: %v", line.Username, roomID, err)
			h.reply(line.Room, fmt.Sprintf("%s: that vote didn't take, try again", line.Username))
		}
		return
	}

	h.reply(line.Room, fmt.Sprintf("%s is in for the %s", line.Username, crime.Name))
}

// matchCrime resolves a vote argument against the enabled catalog: numeric
// IDs first, then exact name, then a case-insensitive name prefix.
func matchCrime(crimes []heist.Crime, arg string) (heist.Crime, error) {
	if id, convErr := strconv.ParseUint(arg, 10, 64); convErr == nil {
		for _, c := range crimes {
			if c.ID == uint(id) {
				return c, nil
			}
		}
	}

	needle := strings.ToLower(arg)
	var matches []heist.Crime
	for _, c := range crimes {
		name := strings.ToLower(c.Name)
		if name == needle {
			return c, nil
		}
		if strings.HasPrefix(name, needle) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return heist.Crime{}, errors.New("never heard of that job, see !crimes")
	default:
		return heist.Crime{}, errors.New("that matches more than one job, be more specific")
	}
}

func (h *LineHandler) cmdAdvance(line Line, roomID uint) {
	if !line.IsMod() {
		h.reply(line.Room, fmt.Sprintf("%s: mods only, mate", line.Username))
		return
	}

	if err := h.registry.ForceAdvance(roomID, line.Username); err != nil {
		var wp *heist.WrongPhaseError
		if errors.As(err, &wp) {
			h.reply(line.Room, "can't rush this part")
			return
		}
		log.Printf("[chat] advance by %s in room %d failed: %v", line.Username, roomID, err)
		h.reply(line.Room, "couldn't move it along, check the logs")
		return
	}
	log.Printf("[chat] room %d advanced by %s", roomID, line.Username)
}

func (h *LineHandler) cmdBalance(line Line) {
	balance, err := h.economy.GetBalance(line.Username)
	if err != nil {
		log.Printf("[chat] balance lookup for %s failed: %v", line.Username, err)
		return
	}
	h.reply(line.Room, fmt.Sprintf("%s: you've got $%d stashed", line.Username, balance))
}

func (h *LineHandler) cmdTrust(line Line) {
	record, err := h.trust.GetRecord(line.Username)
	if err != nil {
		log.Printf("[chat] trust lookup for %s failed: %v", line.Username, err)
		return
	}
	h.reply(line.Room, fmt.Sprintf("%s: trust %+d after %d heists",
		line.Username, record.TrustScore, record.HeistsParticipated))
}

func (h *LineHandler) cmdCrimes(line Line) {
	crimes, err := h.crimes.EnabledCrimes()
	if err != nil || len(crimes) == 0 {
		h.reply(line.Room, "no jobs on the board")
		return
	}
	names := make([]string, len(crimes))
	for i, c := range crimes {
		names[i] = fmt.Sprintf("%s %s", c.Name, difficultyStars(c.Difficulty))
	}
	h.reply(line.Room, "jobs on the board: "+strings.Join(names, " | "))
}
