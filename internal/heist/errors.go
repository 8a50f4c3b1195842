package heist

import (
	"errors"
	"fmt"
)

// ErrAlreadyDistributed reports that a distribution found the session's
// distributed flag already set. Callers treat it as a detected no-op, not
// a failure.
var ErrAlreadyDistributed = errors.New("heist: payout already distributed")

var errNoCrimes = errors.New("no enabled crimes")

// WrongPhaseError rejects an operation that is invalid in the room's
// current phase. State is never mutated when it is returned.
type WrongPhaseError struct {
	RoomID uint
	Phase  Phase
	Op     string
}

func (e *WrongPhaseError) Error() string {
	return fmt.Sprintf("heist: %s not allowed in phase %s (room %d)", e.Op, e.Phase, e.RoomID)
}

// NotFoundError reports missing crime, session, or room data.
type NotFoundError struct {
	Kind string
	ID   uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("heist: %s %d not found", e.Kind, e.ID)
}

// PersistenceError wraps a store failure. It is fatal to the current cycle
// of the room it occurred in and must never spill into other rooms.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("heist: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
