package heist

import (
	"math/rand"
	"sort"
)

// vote is one participant's current choice. seq orders submissions so
// plurality ties break toward the earliest vote still standing.
type vote struct {
	crimeID uint
	seq     uint64
}

// voteCollector tallies one vote per participant during the voting window.
// A re-vote overwrites the earlier choice (last-vote-wins). The collector
// is not safe for concurrent use; the owning controller serializes access.
type voteCollector struct {
	votes map[string]vote
	seq   uint64
}

func newVoteCollector() *voteCollector {
	return &voteCollector{votes: make(map[string]vote)}
}

func (vc *voteCollector) cast(username string, crimeID uint) {
	vc.seq++
	vc.votes[username] = vote{crimeID: crimeID, seq: vc.seq}
}

func (vc *voteCollector) count() int { return len(vc.votes) }

func (vc *voteCollector) reset() {
	vc.votes = make(map[string]vote)
	vc.seq = 0
}

// rehydrate rebuilds the collector from persisted participant rows after a
// restart, replaying votes in submission order so tie-breaks survive the
// round trip.
func (vc *voteCollector) rehydrate(parts []Participant) {
	vc.reset()
	ordered := make([]Participant, len(parts))
	copy(ordered, parts)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].VotedAt.Before(ordered[j].VotedAt)
	})
	for _, p := range ordered {
		vc.cast(p.Username, p.CrimeID)
	}
}

// tally picks the winning crime: plurality, ties broken by the earliest
// vote still standing, and a uniform random pick from the pool when nobody
// voted. ok is false only when the pool itself is empty.
func (vc *voteCollector) tally(pool []Crime, rng *rand.Rand) (Crime, bool) {
	if len(pool) == 0 {
		return Crime{}, false
	}
	if len(vc.votes) == 0 {
		return pool[rng.Intn(len(pool))], true
	}
	counts := make(map[uint]int)
	earliest := make(map[uint]uint64)
	for _, v := range vc.votes {
		counts[v.crimeID]++
		if e, ok := earliest[v.crimeID]; !ok || v.seq < e {
			earliest[v.crimeID] = v.seq
		}
	}
	var winner uint
	best := -1
	var bestSeq uint64
	for id, n := range counts {
		switch {
		case n > best:
			winner, best, bestSeq = id, n, earliest[id]
		case n == best && earliest[id] < bestSeq:
			winner, bestSeq = id, earliest[id]
		}
	}
	for _, c := range pool {
		if c.ID == winner {
			return c, true
		}
	}
	// Votes are validated against the pool when cast, so the winner is
	// always present; this keeps the compiler honest.
	return pool[rng.Intn(len(pool))], true
}
