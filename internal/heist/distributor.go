package heist

import (
	"fmt"
	"sort"
	"strconv"
)

// Distributor applies resolved rewards to every participant exactly once.
type Distributor struct {
	sessions SessionStore
	config   ConfigStore
	economy  EconomyLedger
	trust    TrustLedger
}

func NewDistributor(sessions SessionStore, config ConfigStore, economy EconomyLedger, trust TrustLedger) *Distributor {
	return &Distributor{sessions: sessions, config: config, economy: economy, trust: trust}
}

// Distribute pays out one resolved session. The distributed flag is
// persisted before the first credit, so a crashed attempt can never pay
// twice: a call that finds the flag already set for this session returns
// ErrAlreadyDistributed and touches nothing.
func (d *Distributor) Distribute(roomID, sessionID uint, out Outcome) error {
	flag, ok, err := d.config.Get(roomID, keyDistributedFlag)
	if err != nil {
		return &PersistenceError{Op: "read distributed flag", Err: err}
	}
	if ok && flag == formatID(sessionID) {
		return ErrAlreadyDistributed
	}
	if err := d.config.Set(roomID, keyDistributedFlag, formatID(sessionID)); err != nil {
		return &PersistenceError{Op: "set distributed flag", Err: err}
	}
	return d.apply(sessionID, out)
}

// Retry replays a distribution whose first attempt may have died midway.
// It skips the flag guard; per-user credits and trust events are keyed by
// (session, username), so rows already applied are left untouched and only
// the missing ones land.
func (d *Distributor) Retry(roomID, sessionID uint, out Outcome) error {
	flag, ok, err := d.config.Get(roomID, keyDistributedFlag)
	if err != nil {
		return &PersistenceError{Op: "read distributed flag", Err: err}
	}
	if !ok || flag != formatID(sessionID) {
		if err := d.config.Set(roomID, keyDistributedFlag, formatID(sessionID)); err != nil {
			return &PersistenceError{Op: "set distributed flag", Err: err}
		}
	}
	return d.apply(sessionID, out)
}

func (d *Distributor) apply(sessionID uint, out Outcome) error {
	parts, err := d.sessions.Participants(sessionID)
	if err != nil {
		return &PersistenceError{Op: "load participants", Err: err}
	}
	if len(parts) == 0 {
		return nil
	}
	usernames := make([]string, len(parts))
	for i, p := range parts {
		usernames[i] = p.Username
	}
	sort.Strings(usernames)

	if out.Success && out.TotalPayout > 0 {
		shares := Shares(out.TotalPayout, usernames)
		for _, u := range usernames {
			if _, err := d.economy.Credit(sessionID, u, shares[u]); err != nil {
				return &PersistenceError{Op: fmt.Sprintf("credit %s", u), Err: err}
			}
			if err := d.sessions.SetPayout(sessionID, u, shares[u]); err != nil {
				return &PersistenceError{Op: fmt.Sprintf("record payout for %s", u), Err: err}
			}
		}
	}
	if out.TrustDelta != 0 {
		if err := d.trust.Adjust(usernames, out.TrustDelta, sessionID); err != nil {
			return &PersistenceError{Op: "adjust trust", Err: err}
		}
	}
	return nil
}

func formatID(id uint) string { return strconv.FormatUint(uint64(id), 10) }
