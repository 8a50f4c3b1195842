package heist

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// Registry maps rooms to their controllers. Each controller owns its own
// timer, generation counter, and random source; rooms share nothing mutable,
// so one room's store failure or stuck cycle never leaks into another.
type Registry struct {
	deps Deps

	mu    sync.RWMutex
	rooms map[uint]*Controller
}

func NewRegistry(deps Deps) *Registry {
	if deps.Announce == nil {
		deps.Announce = NopAnnouncer{}
	}
	return &Registry{deps: deps, rooms: make(map[uint]*Controller)}
}

// Enable brings a room under management and recovers its cycle from
// persisted state — a fresh room just schedules its first heist. Calling it
// for an already-managed room is a no-op.
func (r *Registry) Enable(roomID uint) error {
	r.mu.Lock()
	if _, ok := r.rooms[roomID]; ok {
		r.mu.Unlock()
		return nil
	}
	deps := r.deps
	deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(roomID)<<32))
	ctrl := newController(roomID, deps)
	r.rooms[roomID] = ctrl
	r.mu.Unlock()

	// Recovery runs outside the registry lock: it may complete an overdue
	// phase synchronously, and other rooms should not wait on it.
	return ctrl.Recover()
}

// Disable stops a room's cycle and aborts any live session. The room drops
// out of management until the next Enable.
func (r *Registry) Disable(roomID uint) {
	r.mu.Lock()
	ctrl, ok := r.rooms[roomID]
	if ok {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()
	if ok {
		ctrl.Cancel("heists are off")
		log.Printf("[Registry] room %d disabled", roomID)
	}
}

// Restore reconciles every given room from the config store. It runs before
// the HTTP and chat surfaces start taking commands, and one room's recovery
// failure only logs — the rest keep restoring.
func (r *Registry) Restore(roomIDs []uint) {
	restored := 0
	for _, id := range roomIDs {
		if err := r.Enable(id); err != nil {
			log.Printf("[Registry] room %d recovery failed: %v", id, err)
			continue
		}
		restored++
	}
	log.Printf("[Registry] restored %d/%d rooms", restored, len(roomIDs))
}

// Stop cancels every room's pending timer. Persisted state is untouched so
// the next process picks every cycle back up.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ctrl := range r.rooms {
		ctrl.Stop()
	}
	r.rooms = make(map[uint]*Controller)
	log.Println("[Registry] stopped")
}

// Status reports one room's cycle snapshot.
func (r *Registry) Status(roomID uint) (Status, error) {
	ctrl, err := r.get(roomID)
	if err != nil {
		return Status{}, err
	}
	return ctrl.Status(), nil
}

// CastVote records a participant's vote in the room's current vote window.
func (r *Registry) CastVote(roomID uint, username string, crimeID uint) error {
	ctrl, err := r.get(roomID)
	if err != nil {
		return err
	}
	return ctrl.CastVote(username, crimeID)
}

// ForceAdvance skips the remaining wait of the room's current phase.
func (r *Registry) ForceAdvance(roomID uint, requestedBy string) error {
	ctrl, err := r.get(roomID)
	if err != nil {
		return err
	}
	return ctrl.ForceAdvance(requestedBy)
}

func (r *Registry) get(roomID uint) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.rooms[roomID]
	if !ok {
		return nil, &NotFoundError{Kind: "room", ID: roomID}
	}
	return ctrl, nil
}
