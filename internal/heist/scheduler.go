package heist

import (
	"math/rand"
	"time"
)

// scheduler owns one room's timer handle and the persisted fire timestamp
// backing it. Exactly one timer is armed at a time; arming replaces any
// pending one. All methods are called under the owning controller's lock,
// which is what keeps the handle single-owner.
type scheduler struct {
	cfg      *roomConfig
	rng      *rand.Rand
	timer    *time.Timer
	nextFire time.Time
}

func newScheduler(cfg *roomConfig, rng *rand.Rand) *scheduler {
	return &scheduler{cfg: cfg, rng: rng}
}

// arm persists the fire timestamp and then starts the timer. Persisting
// first means a crash between the two steps re-arms on recovery instead of
// silently losing the cycle. fire runs on the timer's goroutine and must
// re-check generation before doing anything.
func (s *scheduler) arm(d time.Duration, fire func()) error {
	s.cancelPending()
	at := time.Now().Add(d)
	if err := s.cfg.set(keyNextHeistTime, at.UTC().Format(time.RFC3339Nano)); err != nil {
		return &PersistenceError{Op: "persist next fire time", Err: err}
	}
	s.nextFire = at
	s.timer = time.AfterFunc(d, fire)
	return nil
}

// scheduleRandom draws a uniform delay in [min, max] and arms it, returning
// the drawn delay so callers can log it.
func (s *scheduler) scheduleRandom(min, max time.Duration, fire func()) (time.Duration, error) {
	d := min
	if span := max - min; span > 0 {
		d += time.Duration(s.rng.Int63n(int64(span) + 1))
	}
	return d, s.arm(d, fire)
}

// cancelPending stops the armed timer if there is one. Safe no-op otherwise.
// The persisted fire time is left in place; the next arm overwrites it and
// the generation check handles anything that slipped through Stop.
func (s *scheduler) cancelPending() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.nextFire = time.Time{}
}

// persistedFire reads the fire timestamp written by a previous arm, for
// startup recovery. Absent or unparseable values report ok=false; a store
// failure is surfaced so the room's recovery can be isolated.
func (s *scheduler) persistedFire() (time.Time, bool, error) {
	raw, ok, err := s.cfg.get(keyNextHeistTime)
	if err != nil {
		return time.Time{}, false, &PersistenceError{Op: "read next fire time", Err: err}
	}
	if !ok {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, nil
	}
	return at, true, nil
}
