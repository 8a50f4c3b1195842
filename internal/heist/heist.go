// Package heist runs the per-room heist minigame: a timer-driven state
// machine that announces a job, collects crime votes, resolves the attempt
// against the crew's trust, and pays out exactly once.
package heist

import (
	"math/rand"
	"time"
)

// Phase is one step of a room's heist cycle.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAnnouncing   Phase = "announcing"
	PhaseVoting       Phase = "voting"
	PhaseInProgress   Phase = "in_progress"
	PhaseDistributing Phase = "distributing"
	PhaseCooldown     Phase = "cooldown"
)

// Terminal session statuses. A live session's status is its phase name.
const (
	StatusComplete = "complete"
	StatusAborted  = "aborted"
)

// Room-scoped config keys holding the recoverable scheduler state.
const (
	keyNextHeistTime    = "next_heist_time"
	keyCurrentCrimeID   = "current_crime_id"
	keyCurrentSessionID = "current_session_id"
	keyDistributedFlag  = "distributed_flag"
)

// Crime is one votable entry from the content catalog.
type Crime struct {
	ID              uint
	Name            string
	Difficulty      int
	BaseProbability float64
	PayoutMin       int
	PayoutMax       int
}

// Participant is one user joined to a session, with their current vote.
type Participant struct {
	Username string
	CrimeID  uint
	VotedAt  time.Time
}

// Outcome is the result of resolving one heist.
type Outcome struct {
	Success     bool
	TotalPayout int64
	TrustDelta  int
}

// Session is the stored record of one heist run.
type Session struct {
	ID          uint
	RoomID      uint
	Status      string
	CrimeID     uint
	Success     bool
	TotalPayout int64
}

// Status is the externally visible snapshot of one room's cycle.
type Status struct {
	RoomID    uint      `json:"room_id"`
	Phase     Phase     `json:"phase"`
	NextEvent time.Time `json:"next_event_time"`
	SessionID uint      `json:"session_id,omitempty"`
	CrimeID   uint      `json:"crime_id,omitempty"`
	Votes     int       `json:"votes"`
}

// Timing holds the durations driving one room's cycle.
type Timing struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	AnnounceFor time.Duration
	VoteWindow  time.Duration
	HeistFor    time.Duration
	Cooldown    time.Duration
}

// ConfigStore is durable room-scoped key/value persistence. Get reports
// absence through its second return rather than an error.
type ConfigStore interface {
	Get(roomID uint, key string) (string, bool, error)
	Set(roomID uint, key, value string) error
	Delete(roomID uint, key string) error
}

// SessionStore persists heist sessions and their participants. A live
// session's status follows the room's phase; Complete and Abort move it to
// its terminal status.
type SessionStore interface {
	CreateSession(roomID uint) (uint, error)
	Session(sessionID uint) (Session, error)
	UpdateStatus(sessionID uint, phase Phase) error
	SetCrime(sessionID uint, crimeID uint, crimeName string) error
	UpsertVote(sessionID uint, username string, crimeID uint) error
	Participants(sessionID uint) ([]Participant, error)
	SetPayout(sessionID uint, username string, amount int64) error
	RecordOutcome(sessionID uint, success bool, totalPayout int64) error
	Complete(sessionID uint) error
	Abort(sessionID uint) error
}

// EconomyLedger applies payout credits. Credit must be atomic per user and
// idempotent per (sessionID, username); it reports false when an earlier
// attempt already applied the credit.
type EconomyLedger interface {
	Credit(sessionID uint, username string, amount int64) (bool, error)
}

// TrustLedger tracks per-user reputation. Adjust must be idempotent per
// (heistID, username) so a distribution retry cannot double-apply.
type TrustLedger interface {
	AverageScore(usernames []string) (float64, error)
	Adjust(usernames []string, delta int, heistID uint) error
}

// CrimeCatalog enumerates votable crime definitions.
type CrimeCatalog interface {
	EnabledCrimes() ([]Crime, error)
	CrimeByID(id uint) (Crime, error)
}

// Announcer receives room-facing notifications for cycle events.
// Implementations must be safe for concurrent use by multiple rooms and
// must not call back into the controller.
type Announcer interface {
	HeistAnnounced(roomID uint, votingOpensIn time.Duration)
	VotingOpened(roomID uint, crimes []Crime, window time.Duration)
	CrimeChosen(roomID uint, crime Crime, participants int)
	HeistResolved(roomID uint, crime Crime, out Outcome, participants int)
	HeistCancelled(roomID uint, reason string)
}

// NopAnnouncer is the fallback wired when no announcer is supplied.
type NopAnnouncer struct{}

func (NopAnnouncer) HeistAnnounced(uint, time.Duration)        {}
func (NopAnnouncer) VotingOpened(uint, []Crime, time.Duration) {}
func (NopAnnouncer) CrimeChosen(uint, Crime, int)              {}
func (NopAnnouncer) HeistResolved(uint, Crime, Outcome, int)   {}
func (NopAnnouncer) HeistCancelled(uint, string)               {}

// MultiAnnouncer fans each event out to several announcers in order.
type MultiAnnouncer []Announcer

func (m MultiAnnouncer) HeistAnnounced(roomID uint, votingOpensIn time.Duration) {
	for _, a := range m {
		a.HeistAnnounced(roomID, votingOpensIn)
	}
}

func (m MultiAnnouncer) VotingOpened(roomID uint, crimes []Crime, window time.Duration) {
	for _, a := range m {
		a.VotingOpened(roomID, crimes, window)
	}
}

func (m MultiAnnouncer) CrimeChosen(roomID uint, crime Crime, participants int) {
	for _, a := range m {
		a.CrimeChosen(roomID, crime, participants)
	}
}

func (m MultiAnnouncer) HeistResolved(roomID uint, crime Crime, out Outcome, participants int) {
	for _, a := range m {
		a.HeistResolved(roomID, crime, out, participants)
	}
}

func (m MultiAnnouncer) HeistCancelled(roomID uint, reason string) {
	for _, a := range m {
		a.HeistCancelled(roomID, reason)
	}
}

// Deps bundles one controller's collaborators. Announce may be nil
// (NopAnnouncer is substituted) and Rand may be nil (a time-seeded source
// is substituted). The Registry always seeds a fresh source per room.
type Deps struct {
	Config   ConfigStore
	Sessions SessionStore
	Catalog  CrimeCatalog
	Economy  EconomyLedger
	Trust    TrustLedger
	Announce Announcer
	Timing   Timing
	Rand     *rand.Rand
}

// roomConfig binds the shared config store to one room so neither the
// controller nor the scheduler can touch another room's keys.
type roomConfig struct {
	store  ConfigStore
	roomID uint
}

func (rc *roomConfig) get(key string) (string, bool, error) {
	return rc.store.Get(rc.roomID, key)
}

func (rc *roomConfig) set(key, value string) error {
	return rc.store.Set(rc.roomID, key, value)
}

func (rc *roomConfig) delete(key string) error {
	return rc.store.Delete(rc.roomID, key)
}
