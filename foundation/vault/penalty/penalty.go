// Package penalty implements the early-exit penalty curve. The penalty is a
// linear decay from the configured maximum at the instant of deposit to zero
// at maturity, with a treasury cut taken from whatever is forfeited.
package penalty

import "math/big"

// BasisPoints is the denominator for all rate math: 10000 bps = 100%.
const BasisPoints = 10_000

// Split describes how a forfeited penalty is divided.
type Split struct {
	PenaltyBps  uint64   // Effective penalty rate at the time of exit.
	Penalty     *big.Int // Total amount forfeited from the principal.
	TreasuryFee *big.Int // Portion of the penalty paid to the treasury.
	ToStakers   *big.Int // Portion socialized to the remaining stakers.
}

// Compute calculates the penalty for exiting a lock with the specified
// timing window before it matures. The caller guarantees now < unlockAt and
// unlockAt > start. Every division truncates toward zero.
func Compute(maxPenaltyBps uint64, treasuryFeeBps uint64, principal *big.Int, start uint64, unlockAt uint64, now uint64) Split {
	totalDuration := unlockAt - start
	remaining := unlockAt - now

	penaltyBps := maxPenaltyBps * remaining / totalDuration

	penalty := new(big.Int).Mul(principal, new(big.Int).SetUint64(penaltyBps))
	penalty.Quo(penalty, big.NewInt(BasisPoints))

	treasuryFee := new(big.Int).Mul(penalty, new(big.Int).SetUint64(treasuryFeeBps))
	treasuryFee.Quo(treasuryFee, big.NewInt(BasisPoints))

	toStakers := new(big.Int).Sub(penalty, treasuryFee)

	return Split{
		PenaltyBps:  penaltyBps,
		Penalty:     penalty,
		TreasuryFee: treasuryFee,
		ToStakers:   toStakers,
	}
}
