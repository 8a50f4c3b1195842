package heist

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// In-memory stores for exercising the controller without a database. All of
// them are mutex-guarded because timer fires run on their own goroutines.

type fakes struct {
	config   *fakeConfig
	sessions *fakeSessions
	catalog  *fakeCatalog
	economy  *fakeEconomy
	trust    *fakeTrust
}

func newFakes() *fakes {
	return &fakes{
		config:   newFakeConfig(),
		sessions: newFakeSessions(),
		catalog:  &fakeCatalog{},
		economy:  newFakeEconomy(),
		trust:    newFakeTrust(),
	}
}

func (f *fakes) deps(timing Timing) Deps {
	return Deps{
		Config:   f.config,
		Sessions: f.sessions,
		Catalog:  f.catalog,
		Economy:  f.economy,
		Trust:    f.trust,
		Timing:   timing,
	}
}

type fakeConfig struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{data: make(map[string]string)}
}

func configKey(roomID uint, key string) string {
	return fmt.Sprintf("%d/%s", roomID, key)
}

func (f *fakeConfig) Get(roomID uint, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[configKey(roomID, key)]
	return v, ok, nil
}

func (f *fakeConfig) Set(roomID uint, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[configKey(roomID, key)] = value
	return nil
}

func (f *fakeConfig) Delete(roomID uint, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, configKey(roomID, key))
	return nil
}

func (f *fakeConfig) value(roomID uint, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[configKey(roomID, key)]
	return v, ok
}

type fakeParticipant struct {
	crimeID uint
	votedAt time.Time
	payout  int64
}

type fakeSession struct {
	id          uint
	roomID      uint
	status      string
	crimeID     uint
	crimeName   string
	success     bool
	totalPayout int64
	parts       map[string]*fakeParticipant
}

type fakeSessions struct {
	mu          sync.Mutex
	nextID      uint
	sessions    map[uint]*fakeSession
	failSession map[uint]error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[uint]*fakeSession), failSession: make(map[uint]error)}
}

func (f *fakeSessions) CreateSession(roomID uint) (uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sessions[f.nextID] = &fakeSession{
		id:     f.nextID,
		roomID: roomID,
		status: string(PhaseAnnouncing),
		parts:  make(map[string]*fakeParticipant),
	}
	return f.nextID, nil
}

// seed installs a pre-existing session for recovery tests.
func (f *fakeSessions) seed(s *fakeSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.parts == nil {
		s.parts = make(map[string]*fakeParticipant)
	}
	f.sessions[s.id] = s
	if s.id > f.nextID {
		f.nextID = s.id
	}
}

func (f *fakeSessions) Session(sessionID uint) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSession[sessionID]; err != nil {
		return Session{}, err
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return Session{}, &NotFoundError{Kind: "session", ID: sessionID}
	}
	return Session{
		ID:          s.id,
		RoomID:      s.roomID,
		Status:      s.status,
		CrimeID:     s.crimeID,
		Success:     s.success,
		TotalPayout: s.totalPayout,
	}, nil
}

func (f *fakeSessions) UpdateStatus(sessionID uint, phase Phase) error {
	return f.mutate(sessionID, func(s *fakeSession) { s.status = string(phase) })
}

func (f *fakeSessions) SetCrime(sessionID uint, crimeID uint, crimeName string) error {
	return f.mutate(sessionID, func(s *fakeSession) {
		s.crimeID = crimeID
		s.crimeName = crimeName
	})
}

func (f *fakeSessions) UpsertVote(sessionID uint, username string, crimeID uint) error {
	return f.mutate(sessionID, func(s *fakeSession) {
		if p, ok := s.parts[username]; ok {
			p.crimeID = crimeID
			return
		}
		s.parts[username] = &fakeParticipant{crimeID: crimeID, votedAt: time.Now()}
	})
}

func (f *fakeSessions) Participants(sessionID uint) ([]Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, &NotFoundError{Kind: "session", ID: sessionID}
	}
	out := make([]Participant, 0, len(s.parts))
	for name, p := range s.parts {
		out = append(out, Participant{Username: name, CrimeID: p.crimeID, VotedAt: p.votedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].VotedAt.Equal(out[j].VotedAt) {
			return out[i].VotedAt.Before(out[j].VotedAt)
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (f *fakeSessions) SetPayout(sessionID uint, username string, amount int64) error {
	return f.mutate(sessionID, func(s *fakeSession) {
		if p, ok := s.parts[username]; ok {
			p.payout = amount
		}
	})
}

func (f *fakeSessions) RecordOutcome(sessionID uint, success bool, totalPayout int64) error {
	return f.mutate(sessionID, func(s *fakeSession) {
		s.success = success
		s.totalPayout = totalPayout
	})
}

func (f *fakeSessions) Complete(sessionID uint) error {
	return f.mutate(sessionID, func(s *fakeSession) { s.status = StatusComplete })
}

func (f *fakeSessions) Abort(sessionID uint) error {
	return f.mutate(sessionID, func(s *fakeSession) { s.status = StatusAborted })
}

func (f *fakeSessions) mutate(sessionID uint, fn func(*fakeSession)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionID]
	if !ok {
		return &NotFoundError{Kind: "session", ID: sessionID}
	}
	fn(s)
	return nil
}

func (f *fakeSessions) status(sessionID uint) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return s.status
	}
	return ""
}

func (f *fakeSessions) payout(sessionID uint, username string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		if p, ok := s.parts[username]; ok {
			return p.payout
		}
	}
	return 0
}

type fakeCatalog struct {
	mu     sync.Mutex
	crimes []Crime
}

func (f *fakeCatalog) set(crimes ...Crime) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.crimes = crimes
}

func (f *fakeCatalog) EnabledCrimes() ([]Crime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Crime, len(f.crimes))
	copy(out, f.crimes)
	return out, nil
}

func (f *fakeCatalog) CrimeByID(id uint) (Crime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.crimes {
		if c.ID == id {
			return c, nil
		}
	}
	return Crime{}, &NotFoundError{Kind: "crime", ID: id}
}

type fakeEconomy struct {
	mu       sync.Mutex
	balances map[string]int64
	applied  map[string]bool
	failFor  map[string]error
}

func newFakeEconomy() *fakeEconomy {
	return &fakeEconomy{
		balances: make(map[string]int64),
		applied:  make(map[string]bool),
		failFor:  make(map[string]error),
	}
}

func creditKey(sessionID uint, username string) string {
	return fmt.Sprintf("%d/%s", sessionID, username)
}

func (f *fakeEconomy) Credit(sessionID uint, username string, amount int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[username]; err != nil {
		return false, err
	}
	key := creditKey(sessionID, username)
	if f.applied[key] {
		return false, nil
	}
	f.applied[key] = true
	f.balances[username] += amount
	return true, nil
}

func (f *fakeEconomy) balance(username string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[username]
}

type fakeTrust struct {
	mu         sync.Mutex
	scores     map[string]int
	applied    map[string]bool
	failAdjust error
}

func newFakeTrust() *fakeTrust {
	return &fakeTrust{scores: make(map[string]int), applied: make(map[string]bool)}
}

func (f *fakeTrust) AverageScore(usernames []string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(usernames) == 0 {
		return 0, nil
	}
	var sum int
	for _, u := range usernames {
		sum += f.scores[u]
	}
	return float64(sum) / float64(len(usernames)), nil
}

func (f *fakeTrust) Adjust(usernames []string, delta int, heistID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdjust != nil {
		return f.failAdjust
	}
	for _, u := range usernames {
		key := creditKey(heistID, u)
		if f.applied[key] {
			continue
		}
		f.applied[key] = true
		next := f.scores[u] + delta
		if next > 10 {
			next = 10
		}
		if next < -10 {
			next = -10
		}
		f.scores[u] = next
	}
	return nil
}

func (f *fakeTrust) score(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[username]
}

// recordingAnnouncer captures cycle events for assertions.
type recordingAnnouncer struct {
	mu        sync.Mutex
	announced int
	votings   int
	chosen    []Crime
	resolved  []Outcome
	cancelled []string
}

func newRecordingAnnouncer() *recordingAnnouncer {
	return &recordingAnnouncer{}
}

func (r *recordingAnnouncer) HeistAnnounced(uint, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.announced++
}

func (r *recordingAnnouncer) VotingOpened(uint, []Crime, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.votings++
}

func (r *recordingAnnouncer) CrimeChosen(_ uint, crime Crime, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chosen = append(r.chosen, crime)
}

func (r *recordingAnnouncer) HeistResolved(_ uint, _ Crime, out Outcome, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, out)
}

func (r *recordingAnnouncer) HeistCancelled(_ uint, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, reason)
}

func (r *recordingAnnouncer) announcedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.announced
}

func (r *recordingAnnouncer) resolvedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resolved)
}

func (r *recordingAnnouncer) lastResolved() (Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resolved) == 0 {
		return Outcome{}, false
	}
	return r.resolved[len(r.resolved)-1], true
}

func (r *recordingAnnouncer) cancelledCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancelled)
}

// slowTiming keeps every timer far enough out that tests drive transitions
// themselves via ForceAdvance.
func slowTiming() Timing {
	return Timing{
		MinDelay:    time.Hour,
		MaxDelay:    time.Hour,
		AnnounceFor: time.Hour,
		VoteWindow:  time.Hour,
		HeistFor:    time.Hour,
		Cooldown:    time.Hour,
	}
}
