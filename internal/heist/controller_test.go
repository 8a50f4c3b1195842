package heist

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededController builds a controller over fresh fakes with a fixed random
// source so outcome rolls are reproducible.
func seededController(t *testing.T, roomID uint, f *fakes, ann *recordingAnnouncer, timing Timing) *Controller {
	t.Helper()
	deps := f.deps(timing)
	deps.Announce = ann
	deps.Rand = rand.New(rand.NewSource(1))
	ctrl := newController(roomID, deps)
	t.Cleanup(ctrl.Stop)
	return ctrl
}

func sureThing(id uint, name string, payout int) Crime {
	return Crime{ID: id, Name: name, Difficulty: 1, BaseProbability: 0.99, PayoutMin: payout, PayoutMax: payout}
}

func TestController_ForceAdvanceDrivesFullCycle(t *testing.T) {
	f := newFakes()
	f.catalog.set(
		sureThing(1, "servo snack run", 60),
		sureThing(2, "pokies skim", 100),
	)
	ann := newRecordingAnnouncer()
	ctrl := seededController(t, 42, f, ann, slowTiming())

	require.NoError(t, ctrl.Start())
	require.Equal(t, PhaseIdle, ctrl.Status().Phase)

	require.NoError(t, ctrl.ForceAdvance("test"))
	require.Equal(t, PhaseAnnouncing, ctrl.Status().Phase)
	assert.Equal(t, 1, ann.announcedCount())
	sid := ctrl.Status().SessionID
	require.NotZero(t, sid)

	require.NoError(t, ctrl.ForceAdvance("test"))
	require.Equal(t, PhaseVoting, ctrl.Status().Phase)

	require.NoError(t, ctrl.CastVote("shazza", 1))
	require.NoError(t, ctrl.CastVote("bazza", 2))
	require.NoError(t, ctrl.CastVote("davo", 1))
	assert.Equal(t, 3, ctrl.Status().Votes)

	require.NoError(t, ctrl.ForceAdvance("test"))
	st := ctrl.Status()
	require.Equal(t, PhaseInProgress, st.Phase)
	assert.Equal(t, uint(1), st.CrimeID, "two votes beat one")

	require.NoError(t, ctrl.ForceAdvance("test"))
	st = ctrl.Status()
	require.Equal(t, PhaseCooldown, st.Phase)
	assert.Zero(t, st.SessionID)

	// Seed 1's outcome roll is far below the clamped ceiling: guaranteed hit.
	require.Equal(t, 1, ann.resolvedCount())
	out, ok := ann.lastResolved()
	require.True(t, ok)
	assert.True(t, out.Success)
	assert.Equal(t, int64(180), out.TotalPayout)

	assert.Equal(t, int64(60), f.economy.balance("shazza"))
	assert.Equal(t, int64(60), f.economy.balance("bazza"))
	assert.Equal(t, int64(60), f.economy.balance("davo"))
	assert.Equal(t, 1, f.trust.score("shazza"))
	assert.Equal(t, StatusComplete, f.sessions.status(sid))

	_, ok = f.config.value(42, keyCurrentSessionID)
	assert.False(t, ok, "cycle keys cleared after completion")
	_, ok = f.config.value(42, keyDistributedFlag)
	assert.False(t, ok)
}

func TestController_ForceAdvanceRejectedInCooldown(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	ctrl := seededController(t, 42, f, ann, slowTiming())

	require.NoError(t, ctrl.Start())
	for i := 0; i < 4; i++ {
		require.NoError(t, ctrl.ForceAdvance("test"))
	}
	require.Equal(t, PhaseCooldown, ctrl.Status().Phase)

	err := ctrl.ForceAdvance("test")
	var wpe *WrongPhaseError
	require.ErrorAs(t, err, &wpe)
	assert.Equal(t, PhaseCooldown, wpe.Phase)
	assert.Equal(t, PhaseCooldown, ctrl.Status().Phase, "rejected advance mutates nothing")
}

func TestController_TimerDrivenCycle(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	timing := Timing{
		MinDelay:    20 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
		AnnounceFor: 20 * time.Millisecond,
		VoteWindow:  500 * time.Millisecond,
		HeistFor:    20 * time.Millisecond,
		Cooldown:    time.Hour,
	}
	ctrl := seededController(t, 7, f, ann, timing)

	require.NoError(t, ctrl.Start())

	require.Eventually(t, func() bool {
		return ctrl.Status().Phase == PhaseVoting
	}, 2*time.Second, 2*time.Millisecond, "cycle should reach voting on its own")
	sid := ctrl.Status().SessionID
	require.NotZero(t, sid)

	require.NoError(t, ctrl.CastVote("shazza", 1))
	require.NoError(t, ctrl.CastVote("bazza", 1))

	require.Eventually(t, func() bool {
		return ann.resolvedCount() >= 1
	}, 3*time.Second, 2*time.Millisecond, "cycle should resolve on its own")

	assert.Equal(t, int64(50), f.economy.balance("shazza"))
	assert.Equal(t, int64(50), f.economy.balance("bazza"))
	assert.Equal(t, 1, f.trust.score("shazza"))
	assert.Equal(t, StatusComplete, f.sessions.status(sid))
	assert.Equal(t, PhaseCooldown, ctrl.Status().Phase)
}

func TestController_VoteOutsideWindowRejected(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())
	require.NoError(t, ctrl.Start())

	err := ctrl.CastVote("shazza", 1)

	var wpe *WrongPhaseError
	require.ErrorAs(t, err, &wpe)
	assert.Equal(t, "vote", wpe.Op)
	assert.Equal(t, PhaseIdle, wpe.Phase)
	assert.Zero(t, ctrl.Status().Votes)
}

func TestController_VoteForUnknownCrimeRejected(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())
	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.ForceAdvance("test"))
	require.NoError(t, ctrl.ForceAdvance("test"))
	require.Equal(t, PhaseVoting, ctrl.Status().Phase)

	err := ctrl.CastVote("shazza", 99)

	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, "crime", nfe.Kind)
	assert.Zero(t, ctrl.Status().Votes, "rejected vote leaves no ballot behind")

	require.NoError(t, ctrl.CastVote("shazza", 1))
	assert.Equal(t, 1, ctrl.Status().Votes)
}

func TestController_ZeroVotesStillPicksACrime(t *testing.T) {
	f := newFakes()
	f.catalog.set(
		sureThing(1, "servo snack run", 50),
		sureThing(2, "pokies skim", 80),
		sureThing(3, "warehouse job", 120),
	)
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())
	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.ForceAdvance("test"))
	require.NoError(t, ctrl.ForceAdvance("test"))

	require.NoError(t, ctrl.ForceAdvance("test"))

	st := ctrl.Status()
	require.Equal(t, PhaseInProgress, st.Phase)
	assert.Contains(t, []uint{1, 2, 3}, st.CrimeID, "random pick must come from the pool")
}

func TestController_EmptyCatalogFallsBackToCooldown(t *testing.T) {
	f := newFakes()
	ann := newRecordingAnnouncer()
	ctrl := seededController(t, 42, f, ann, slowTiming())
	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.ForceAdvance("test"))
	sid := ctrl.Status().SessionID
	require.NotZero(t, sid)

	err := ctrl.ForceAdvance("test")

	require.Error(t, err)
	st := ctrl.Status()
	assert.Equal(t, PhaseCooldown, st.Phase)
	assert.Zero(t, st.SessionID)
	assert.Equal(t, StatusAborted, f.sessions.status(sid))
	assert.Equal(t, 1, ann.cancelledCount())
}

func TestController_ForceAdvanceInvalidatesPendingTimer(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	timing := slowTiming()
	timing.MinDelay = 250 * time.Millisecond
	timing.MaxDelay = 250 * time.Millisecond
	ctrl := seededController(t, 42, f, ann, timing)

	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.ForceAdvance("test"))
	require.Equal(t, PhaseAnnouncing, ctrl.Status().Phase)

	// Wait past the original idle fire time: the stale fire must be dropped,
	// not announce a second heist.
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 1, ann.announcedCount())
	assert.Equal(t, PhaseAnnouncing, ctrl.Status().Phase)
}

func TestController_CancelAbortsAndClearsState(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	ctrl := seededController(t, 42, f, ann, slowTiming())
	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.ForceAdvance("test"))
	sid := ctrl.Status().SessionID
	require.NoError(t, ctrl.ForceAdvance("test"))
	require.NoError(t, ctrl.CastVote("shazza", 1))

	ctrl.Cancel("heists are off")

	st := ctrl.Status()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Zero(t, st.SessionID)
	assert.Zero(t, st.Votes)
	assert.True(t, st.NextEvent.IsZero(), "no timer left armed")
	assert.Equal(t, StatusAborted, f.sessions.status(sid))
	assert.Equal(t, 1, ann.cancelledCount())
	for _, key := range []string{keyNextHeistTime, keyCurrentSessionID, keyCurrentCrimeID, keyDistributedFlag} {
		_, ok := f.config.value(42, key)
		assert.False(t, ok, "key %s should be cleared", key)
	}
}

func TestController_StopKeepsPersistedState(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())
	require.NoError(t, ctrl.Start())

	ctrl.Stop()

	_, ok := f.config.value(42, keyNextHeistTime)
	assert.True(t, ok, "stop must leave the fire time for the next process to recover")
}

func TestController_RecoverFreshRoomSchedules(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())

	require.NoError(t, ctrl.Recover())

	st := ctrl.Status()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.WithinDuration(t, time.Now().Add(time.Hour), st.NextEvent, time.Minute)
	_, ok := f.config.value(42, keyNextHeistTime)
	assert.True(t, ok, "fresh schedule persists its fire time")
}

func TestController_RecoverOverdueFireAnnouncesImmediately(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339Nano)
	require.NoError(t, f.config.Set(42, keyNextHeistTime, past))
	ctrl := seededController(t, 42, f, ann, slowTiming())

	require.NoError(t, ctrl.Recover())

	st := ctrl.Status()
	assert.Equal(t, PhaseAnnouncing, st.Phase)
	assert.NotZero(t, st.SessionID)
	assert.Equal(t, 1, ann.announcedCount())
}

func TestController_RecoverFutureFireKeepsWaiting(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	fireAt := time.Now().Add(30 * time.Minute)
	require.NoError(t, f.config.Set(42, keyNextHeistTime, fireAt.UTC().Format(time.RFC3339Nano)))
	ctrl := seededController(t, 42, f, ann, slowTiming())

	require.NoError(t, ctrl.Recover())

	st := ctrl.Status()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.WithinDuration(t, fireAt, st.NextEvent, 5*time.Second, "remaining wait honours the stored fire time")
	assert.Zero(t, ann.announcedCount())
}

func TestController_RecoverVotingRehydratesBallots(t *testing.T) {
	f := newFakes()
	f.catalog.set(
		sureThing(1, "servo snack run", 50),
		sureThing(2, "pokies skim", 80),
	)
	base := time.Now().Add(-time.Minute)
	f.sessions.seed(&fakeSession{
		id:     9,
		roomID: 42,
		status: string(PhaseVoting),
		parts: map[string]*fakeParticipant{
			"shazza": {crimeID: 2, votedAt: base},
			"bazza":  {crimeID: 1, votedAt: base.Add(time.Second)},
		},
	})
	require.NoError(t, f.config.Set(42, keyCurrentSessionID, "9"))
	fireAt := time.Now().Add(time.Hour)
	require.NoError(t, f.config.Set(42, keyNextHeistTime, fireAt.UTC().Format(time.RFC3339Nano)))
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())

	require.NoError(t, ctrl.Recover())

	st := ctrl.Status()
	require.Equal(t, PhaseVoting, st.Phase)
	assert.Equal(t, uint(9), st.SessionID)
	assert.Equal(t, 2, st.Votes)

	// The restart must not forget who voted first: 1v1 tie goes to shazza's
	// earlier ballot.
	require.NoError(t, ctrl.ForceAdvance("test"))
	assert.Equal(t, uint(2), ctrl.Status().CrimeID)
}

func TestController_RecoverInterruptedDistribution(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(2, "pokies skim", 50))
	ann := newRecordingAnnouncer()
	base := time.Now().Add(-time.Minute)
	f.sessions.seed(&fakeSession{
		id:          5,
		roomID:      42,
		status:      string(PhaseDistributing),
		crimeID:     2,
		success:     true,
		totalPayout: 100,
		parts: map[string]*fakeParticipant{
			"shazza": {crimeID: 2, votedAt: base},
			"bazza":  {crimeID: 2, votedAt: base.Add(time.Second)},
		},
	})
	require.NoError(t, f.config.Set(42, keyCurrentSessionID, "5"))
	require.NoError(t, f.config.Set(42, keyCurrentCrimeID, "2"))
	require.NoError(t, f.config.Set(42, keyDistributedFlag, "5"))
	// One credit landed before the crash.
	_, err := f.economy.Credit(5, "bazza", 50)
	require.NoError(t, err)
	ctrl := seededController(t, 42, f, ann, slowTiming())

	require.NoError(t, ctrl.Recover())

	assert.Equal(t, int64(50), f.economy.balance("bazza"), "pre-crash credit must not double")
	assert.Equal(t, int64(50), f.economy.balance("shazza"))
	assert.Equal(t, 1, f.trust.score("shazza"))
	assert.Equal(t, StatusComplete, f.sessions.status(5))
	assert.Equal(t, PhaseCooldown, ctrl.Status().Phase)
	assert.Equal(t, 1, ann.resolvedCount())
	_, ok := f.config.value(42, keyCurrentSessionID)
	assert.False(t, ok)
}

func TestController_RecoverTerminalSessionEntersCooldown(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	ann := newRecordingAnnouncer()
	f.sessions.seed(&fakeSession{id: 3, roomID: 42, status: StatusComplete})
	require.NoError(t, f.config.Set(42, keyCurrentSessionID, "3"))
	past := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339Nano)
	require.NoError(t, f.config.Set(42, keyNextHeistTime, past))
	ctrl := seededController(t, 42, f, ann, slowTiming())

	require.NoError(t, ctrl.Recover())

	// The crash hit between completion and cleanup; re-announcing off the
	// stale fire time would replay a finished heist.
	assert.Equal(t, PhaseCooldown, ctrl.Status().Phase)
	assert.Zero(t, ann.announcedCount())
	assert.Zero(t, ann.resolvedCount())
	_, ok := f.config.value(42, keyCurrentSessionID)
	assert.False(t, ok, "leftover key cleaned up")
}

func TestController_RecoverDanglingSessionIDTreatedAsFresh(t *testing.T) {
	f := newFakes()
	f.catalog.set(sureThing(1, "servo snack run", 50))
	require.NoError(t, f.config.Set(42, keyCurrentSessionID, "777"))
	ctrl := seededController(t, 42, f, newRecordingAnnouncer(), slowTiming())

	require.NoError(t, ctrl.Recover())

	assert.Equal(t, PhaseIdle, ctrl.Status().Phase)
	_, ok := f.config.value(42, keyCurrentSessionID)
	assert.False(t, ok, "dangling id cleaned up")
}
