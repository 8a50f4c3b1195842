package heist

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// Controller runs one room's heist cycle:
//
//	IDLE -> ANNOUNCING -> VOTING -> IN_PROGRESS -> DISTRIBUTING -> COOLDOWN -> IDLE
//
// Every transition happens under mu, so no two transitions for the same room
// ever overlap. The generation counter invalidates armed timers: each
// transition bumps it, each armed timer captures the value at arm time, and
// a fire that arrives with a stale generation is dropped. That is what makes
// a force-advance racing its own phase timer safe.
type Controller struct {
	roomID uint
	deps   Deps
	cfg    *roomConfig
	sched  *scheduler
	dist   *Distributor
	rng    *rand.Rand

	mu        sync.Mutex
	phase     Phase
	gen       uint64
	sessionID uint
	crime     Crime
	pool      []Crime
	votes     *voteCollector
}

func newController(roomID uint, deps Deps) *Controller {
	if deps.Announce == nil {
		deps.Announce = NopAnnouncer{}
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(roomID)<<32))
	}
	cfg := &roomConfig{store: deps.Config, roomID: roomID}
	return &Controller{
		roomID: roomID,
		deps:   deps,
		cfg:    cfg,
		sched:  newScheduler(cfg, rng),
		dist:   NewDistributor(deps.Sessions, deps.Config, deps.Economy, deps.Trust),
		rng:    rng,
		phase:  PhaseIdle,
		votes:  newVoteCollector(),
	}
}

// Start arms the first cycle. Used when a room's heists are switched on with
// no persisted state to recover.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scheduleNext()
}

// Stop cancels the pending timer and abandons any in-flight fire. The
// persisted state is left alone so a later Recover can pick the cycle up.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump()
}

// Cancel stops the cycle for good: the pending timer is dropped, any live
// session is aborted, and every persisted key is cleared so a later enable
// starts from scratch.
func (c *Controller) Cancel(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump()
	if c.sessionID != 0 {
		if err := c.deps.Sessions.Abort(c.sessionID); err != nil {
			log.Printf("[heist] room %d: abort session %d: %v", c.roomID, c.sessionID, err)
		}
		c.deps.Announce.HeistCancelled(c.roomID, reason)
	}
	c.clearCycleKeys()
	if err := c.cfg.delete(keyNextHeistTime); err != nil {
		log.Printf("[heist] room %d: clear %s: %v", c.roomID, keyNextHeistTime, err)
	}
	c.sessionID = 0
	c.crime = Crime{}
	c.pool = nil
	c.votes.reset()
	c.phase = PhaseIdle
}

// Status reports the externally visible snapshot of the cycle.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		RoomID:    c.roomID,
		Phase:     c.phase,
		NextEvent: c.sched.nextFire,
		SessionID: c.sessionID,
		CrimeID:   c.crime.ID,
		Votes:     c.votes.count(),
	}
}

// CastVote records one participant's vote. Outside VOTING it rejects with
// WrongPhaseError and mutates nothing. Re-votes overwrite (last-vote-wins).
func (c *Controller) CastVote(username string, crimeID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseVoting {
		return &WrongPhaseError{RoomID: c.roomID, Phase: c.phase, Op: "vote"}
	}
	found := false
	for _, cr := range c.pool {
		if cr.ID == crimeID {
			found = true
			break
		}
	}
	if !found {
		return &NotFoundError{Kind: "crime", ID: crimeID}
	}
	if err := c.deps.Sessions.UpsertVote(c.sessionID, username, crimeID); err != nil {
		return &PersistenceError{Op: "record vote", Err: err}
	}
	c.votes.cast(username, crimeID)
	return nil
}

// ForceAdvance skips the remaining wait and runs the current phase's
// completion logic synchronously. From IDLE it starts a heist immediately.
// DISTRIBUTING and COOLDOWN are rejected: distribution is already running to
// completion, and a cooldown that could be skipped would let back-to-back
// force-advances re-trigger a just-resolved heist.
func (c *Controller) ForceAdvance(requestedBy string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseDistributing, PhaseCooldown:
		return &WrongPhaseError{RoomID: c.roomID, Phase: c.phase, Op: "force-advance"}
	}
	log.Printf("[heist] room %d: phase %s force-advanced by %s", c.roomID, c.phase, requestedBy)
	if err := c.completeCurrent(); err != nil {
		c.fallback(err)
		return err
	}
	return nil
}

// advance is the timer callback. A generation mismatch means the phase
// already moved on (force-advance, stop, or re-arm) and the fire is dropped.
func (c *Controller) advance(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		log.Printf("[heist] room %d: dropped stale timer fire (gen %d, now %d)", c.roomID, gen, c.gen)
		return
	}
	if err := c.completeCurrent(); err != nil {
		c.fallback(err)
	}
}

// completeCurrent runs the completion logic for the phase the room is in.
// Callers hold mu and handle the error via fallback.
func (c *Controller) completeCurrent() error {
	switch c.phase {
	case PhaseIdle:
		return c.startAnnouncing()
	case PhaseAnnouncing:
		return c.openVoting()
	case PhaseVoting:
		return c.closeVoting()
	case PhaseInProgress:
		return c.resolveAndDistribute()
	case PhaseCooldown:
		return c.scheduleNext()
	default:
		return fmt.Errorf("heist: phase %s has no completion", c.phase)
	}
}

// bump invalidates any armed timer: the pending handle is cancelled and a
// fire already in flight will see the generation mismatch.
func (c *Controller) bump() {
	c.gen++
	c.sched.cancelPending()
}

// arm starts the phase timer, binding the fire to the current generation.
func (c *Controller) arm(d time.Duration) error {
	gen := c.gen
	return c.sched.arm(d, func() { c.advance(gen) })
}

// scheduleNext returns the room to IDLE and draws the delay until the next
// heist. COOLDOWN completion lands here, and so does enabling a fresh room.
func (c *Controller) scheduleNext() error {
	c.bump()
	c.phase = PhaseIdle
	c.sessionID = 0
	c.crime = Crime{}
	c.pool = nil
	c.votes.reset()
	gen := c.gen
	d, err := c.sched.scheduleRandom(c.deps.Timing.MinDelay, c.deps.Timing.MaxDelay, func() { c.advance(gen) })
	if err != nil {
		return err
	}
	log.Printf("[heist] room %d: next heist in %s", c.roomID, d.Round(time.Second))
	return nil
}

// startAnnouncing opens a new session and announces that a heist is forming.
func (c *Controller) startAnnouncing() error {
	c.bump()
	id, err := c.deps.Sessions.CreateSession(c.roomID)
	if err != nil {
		return &PersistenceError{Op: "create session", Err: err}
	}
	c.sessionID = id
	if err := c.cfg.set(keyCurrentSessionID, strconv.FormatUint(uint64(id), 10)); err != nil {
		return &PersistenceError{Op: "persist session id", Err: err}
	}
	c.phase = PhaseAnnouncing
	c.votes.reset()
	if err := c.arm(c.deps.Timing.AnnounceFor); err != nil {
		return err
	}
	c.deps.Announce.HeistAnnounced(c.roomID, c.deps.Timing.AnnounceFor)
	return nil
}

// openVoting snapshots the enabled crime pool and opens the vote window.
// The snapshot is the menu participants saw announced; votes are validated
// against it even if the catalog changes mid-window.
func (c *Controller) openVoting() error {
	c.bump()
	pool, err := c.deps.Catalog.EnabledCrimes()
	if err != nil {
		return &PersistenceError{Op: "load crime pool", Err: err}
	}
	if len(pool) == 0 {
		return errNoCrimes
	}
	if err := c.deps.Sessions.UpdateStatus(c.sessionID, PhaseVoting); err != nil {
		return &PersistenceError{Op: "mark session voting", Err: err}
	}
	c.pool = pool
	c.phase = PhaseVoting
	if err := c.arm(c.deps.Timing.VoteWindow); err != nil {
		return err
	}
	c.deps.Announce.VotingOpened(c.roomID, pool, c.deps.Timing.VoteWindow)
	return nil
}

// closeVoting tallies the window and moves the heist to IN_PROGRESS with the
// winning crime. Zero votes fall back to a uniform pick from the pool.
func (c *Controller) closeVoting() error {
	c.bump()
	crime, ok := c.votes.tally(c.pool, c.rng)
	if !ok {
		return errNoCrimes
	}
	if err := c.cfg.set(keyCurrentCrimeID, strconv.FormatUint(uint64(crime.ID), 10)); err != nil {
		return &PersistenceError{Op: "persist crime id", Err: err}
	}
	if err := c.deps.Sessions.SetCrime(c.sessionID, crime.ID, crime.Name); err != nil {
		return &PersistenceError{Op: "set session crime", Err: err}
	}
	if err := c.deps.Sessions.UpdateStatus(c.sessionID, PhaseInProgress); err != nil {
		return &PersistenceError{Op: "mark session in progress", Err: err}
	}
	c.crime = crime
	c.phase = PhaseInProgress
	if err := c.arm(c.deps.Timing.HeistFor); err != nil {
		return err
	}
	c.deps.Announce.CrimeChosen(c.roomID, crime, c.votes.count())
	return nil
}

// resolveAndDistribute rolls the outcome, records it, and pays out. The
// session passes through DISTRIBUTING so a crash mid-payout is recoverable:
// RecordOutcome lands before the distributed flag, the flag before any
// credit, and each credit is idempotent per (session, user).
func (c *Controller) resolveAndDistribute() error {
	c.bump()
	parts, err := c.deps.Sessions.Participants(c.sessionID)
	if err != nil {
		return &PersistenceError{Op: "load participants", Err: err}
	}
	var avgTrust float64
	if len(parts) > 0 {
		usernames := make([]string, len(parts))
		for i, p := range parts {
			usernames[i] = p.Username
		}
		avgTrust, err = c.deps.Trust.AverageScore(usernames)
		if err != nil {
			return &PersistenceError{Op: "read crew trust", Err: err}
		}
	}
	out := Resolve(c.rng, c.crime, len(parts), avgTrust)
	if err := c.deps.Sessions.RecordOutcome(c.sessionID, out.Success, out.TotalPayout); err != nil {
		return &PersistenceError{Op: "record outcome", Err: err}
	}
	if err := c.deps.Sessions.UpdateStatus(c.sessionID, PhaseDistributing); err != nil {
		return &PersistenceError{Op: "mark session distributing", Err: err}
	}
	c.phase = PhaseDistributing
	if err := c.finishDistribution(out, len(parts)); err != nil {
		return err
	}
	c.phase = PhaseCooldown
	return c.arm(c.deps.Timing.Cooldown)
}

// finishDistribution applies the payout and closes the session. A transient
// store failure gets one immediate retry; the retry only touches credits the
// first pass missed. If the retry fails too, the error propagates and the
// fallback aborts the cycle — applied credits stay applied, the flag and
// credit ledger guarantee nothing is ever paid twice.
func (c *Controller) finishDistribution(out Outcome, participants int) error {
	err := c.dist.Distribute(c.roomID, c.sessionID, out)
	if err != nil && !errors.Is(err, ErrAlreadyDistributed) {
		log.Printf("[heist] room %d: distribution failed, retrying once: %v", c.roomID, err)
		if err = c.dist.Retry(c.roomID, c.sessionID, out); err != nil {
			return err
		}
	}
	if err := c.deps.Sessions.Complete(c.sessionID); err != nil {
		return &PersistenceError{Op: "complete session", Err: err}
	}
	c.deps.Announce.HeistResolved(c.roomID, c.crime, out, participants)
	c.clearCycleKeys()
	c.sessionID = 0
	c.crime = Crime{}
	c.pool = nil
	c.votes.reset()
	return nil
}

// clearCycleKeys drops the per-cycle config keys. Best effort: a leftover
// key is re-checked against the session's terminal status on recovery.
func (c *Controller) clearCycleKeys() {
	for _, key := range []string{keyCurrentSessionID, keyCurrentCrimeID, keyDistributedFlag} {
		if err := c.cfg.delete(key); err != nil {
			log.Printf("[heist] room %d: clear %s: %v", c.roomID, key, err)
		}
	}
}

// fallback is the failure path for any phase completion: abort the session,
// persist the abort, and park the room in COOLDOWN so the cycle restarts
// cleanly. If even arming the cooldown fails the room's cycle halts; other
// rooms are unaffected.
func (c *Controller) fallback(cause error) {
	log.Printf("[heist] room %d: phase %s failed, falling back to cooldown: %v", c.roomID, c.phase, cause)
	c.bump()
	if c.sessionID != 0 {
		if err := c.deps.Sessions.Abort(c.sessionID); err != nil {
			log.Printf("[heist] room %d: abort session %d: %v", c.roomID, c.sessionID, err)
		}
		c.deps.Announce.HeistCancelled(c.roomID, "the job fell through")
	}
	c.clearCycleKeys()
	c.sessionID = 0
	c.crime = Crime{}
	c.pool = nil
	c.votes.reset()
	c.phase = PhaseCooldown
	if err := c.arm(c.deps.Timing.Cooldown); err != nil {
		log.Printf("[heist] room %d: cannot arm cooldown, cycle halted: %v", c.roomID, err)
		c.phase = PhaseIdle
		c.sched.cancelPending()
	}
}

// Recover reconstructs the cycle from persisted state after a restart. A
// live session resumes in its recorded phase; a fire time already in the
// past completes that phase immediately instead of re-waiting. Recovery
// failures take the same cooldown fallback as a live transition failure and
// are reported so the registry can log them per room.
func (c *Controller) Recover() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.recoverLocked(); err != nil {
		c.fallback(err)
		return err
	}
	return nil
}

func (c *Controller) recoverLocked() error {
	c.bump()
	fireAt, haveFire, err := c.sched.persistedFire()
	if err != nil {
		return err
	}

	if sess, ok, err := c.persistedSession(); err != nil {
		return err
	} else if ok {
		switch sess.Status {
		case string(PhaseAnnouncing), string(PhaseVoting), string(PhaseInProgress):
			return c.resumeSession(sess, fireAt, haveFire)
		case string(PhaseDistributing):
			return c.resumeDistribution(sess)
		default:
			// Terminal session with leftover keys: the crash hit between
			// completion and cleanup. Re-enter via cooldown rather than
			// re-announcing off the stale fire time.
			c.clearCycleKeys()
			c.phase = PhaseCooldown
			return c.arm(c.deps.Timing.Cooldown)
		}
	}

	if haveFire {
		remaining := time.Until(fireAt)
		if remaining <= 0 {
			return c.startAnnouncing()
		}
		c.phase = PhaseIdle
		return c.arm(remaining)
	}
	return c.scheduleNext()
}

// persistedSession loads the session named by current_session_id, if any.
// A dangling id (row gone) is cleaned up and treated as no session.
func (c *Controller) persistedSession() (Session, bool, error) {
	raw, ok, err := c.cfg.get(keyCurrentSessionID)
	if err != nil {
		return Session{}, false, &PersistenceError{Op: "read session id", Err: err}
	}
	if !ok {
		return Session{}, false, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.clearCycleKeys()
		return Session{}, false, nil
	}
	sess, err := c.deps.Sessions.Session(uint(id))
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			c.clearCycleKeys()
			return Session{}, false, nil
		}
		return Session{}, false, &PersistenceError{Op: "load session", Err: err}
	}
	return sess, true, nil
}

// resumeSession re-enters a live pre-distribution phase. Vote state is
// rehydrated from participant rows so tie-breaks survive the restart.
func (c *Controller) resumeSession(sess Session, fireAt time.Time, haveFire bool) error {
	c.sessionID = sess.ID
	switch sess.Status {
	case string(PhaseAnnouncing):
		c.phase = PhaseAnnouncing
	case string(PhaseVoting):
		pool, err := c.deps.Catalog.EnabledCrimes()
		if err != nil {
			return &PersistenceError{Op: "load crime pool", Err: err}
		}
		if len(pool) == 0 {
			return errNoCrimes
		}
		parts, err := c.deps.Sessions.Participants(sess.ID)
		if err != nil {
			return &PersistenceError{Op: "load participants", Err: err}
		}
		c.pool = pool
		c.votes.rehydrate(parts)
		c.phase = PhaseVoting
	case string(PhaseInProgress):
		crime, err := c.loadCurrentCrime()
		if err != nil {
			return err
		}
		c.crime = crime
		c.phase = PhaseInProgress
	}
	if !haveFire {
		return c.completeCurrent()
	}
	remaining := time.Until(fireAt)
	if remaining <= 0 {
		return c.completeCurrent()
	}
	return c.arm(remaining)
}

// resumeDistribution finishes a payout the crash interrupted. Retry is
// idempotent per user, so credits that landed before the crash stay put and
// only the missing ones are applied.
func (c *Controller) resumeDistribution(sess Session) error {
	c.sessionID = sess.ID
	c.phase = PhaseDistributing
	if crime, err := c.loadCurrentCrime(); err == nil {
		c.crime = crime
	} else {
		c.crime = Crime{ID: sess.CrimeID}
	}
	parts, err := c.deps.Sessions.Participants(sess.ID)
	if err != nil {
		return &PersistenceError{Op: "load participants", Err: err}
	}
	out := Outcome{Success: sess.Success, TotalPayout: sess.TotalPayout}
	if len(parts) > 0 {
		if sess.Success {
			out.TrustDelta = 1
		} else {
			out.TrustDelta = -1
		}
	}
	if err := c.dist.Retry(c.roomID, sess.ID, out); err != nil {
		return err
	}
	if err := c.deps.Sessions.Complete(sess.ID); err != nil {
		return &PersistenceError{Op: "complete session", Err: err}
	}
	log.Printf("[heist] room %d: finished interrupted distribution for session %d", c.roomID, sess.ID)
	c.deps.Announce.HeistResolved(c.roomID, c.crime, out, len(parts))
	c.clearCycleKeys()
	c.sessionID = 0
	c.crime = Crime{}
	c.phase = PhaseCooldown
	return c.arm(c.deps.Timing.Cooldown)
}

func (c *Controller) loadCurrentCrime() (Crime, error) {
	raw, ok, err := c.cfg.get(keyCurrentCrimeID)
	if err != nil {
		return Crime{}, &PersistenceError{Op: "read crime id", Err: err}
	}
	if !ok {
		return Crime{}, &NotFoundError{Kind: "crime", ID: 0}
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return Crime{}, &NotFoundError{Kind: "crime", ID: 0}
	}
	return c.deps.Catalog.CrimeByID(uint(id))
}
