package heist

import "math/rand"

// Odds and payout shaping. Trust is bounded [-10, 10]; each point moves the
// odds by one percent and scales the payout by one percent.
const (
	MinSuccessProbability = 0.05
	MaxSuccessProbability = 0.95

	trustOddsPerPoint   = 0.01
	trustPayoutPerPoint = 0.01
	groupBonusPerMember = 0.02
	groupBonusCap       = 0.10
)

// SuccessProbability returns the clamped chance of a crew of the given
// size pulling off the crime. Solo crews get no group bonus.
func SuccessProbability(base, avgTrust float64, participants int) float64 {
	p := base + avgTrust*trustOddsPerPoint + groupBonus(participants)
	if p < MinSuccessProbability {
		return MinSuccessProbability
	}
	if p > MaxSuccessProbability {
		return MaxSuccessProbability
	}
	return p
}

func groupBonus(participants int) float64 {
	if participants <= 1 {
		return 0
	}
	b := groupBonusPerMember * float64(participants-1)
	if b > groupBonusCap {
		return groupBonusCap
	}
	return b
}

// Resolve draws one outcome for the crime. Zero participants is an
// automatic failure with no payout and no trust movement.
func Resolve(rng *rand.Rand, crime Crime, participants int, avgTrust float64) Outcome {
	if participants == 0 {
		return Outcome{}
	}
	p := SuccessProbability(crime.BaseProbability, avgTrust, participants)
	if rng.Float64() >= p {
		return Outcome{Success: false, TrustDelta: -1}
	}
	base := crime.PayoutMin
	if span := crime.PayoutMax - crime.PayoutMin; span > 0 {
		base += rng.Intn(span + 1)
	}
	total := int64(float64(base*participants) * (1 + avgTrust*trustPayoutPerPoint))
	return Outcome{Success: true, TotalPayout: total, TrustDelta: 1}
}

// Shares splits total into equal integer shares. The remainder goes to the
// alphabetically first username so the shares always sum to total.
func Shares(total int64, usernames []string) map[string]int64 {
	shares := make(map[string]int64, len(usernames))
	if len(usernames) == 0 {
		return shares
	}
	each := total / int64(len(usernames))
	rem := total % int64(len(usernames))
	first := usernames[0]
	for _, u := range usernames {
		shares[u] = each
		if u < first {
			first = u
		}
	}
	shares[first] += rem
	return shares
}
