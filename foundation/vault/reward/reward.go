// Package reward implements the fixed-point math behind the global
// penalty-per-share accumulator. All values are raw integer units and every
// division is a floor division. The dust a floor division leaves behind is
// retained by the vault on purpose, it is never redistributed.
package reward

import "math/big"

// Precision is the fixed-point scale applied to the global accumulator.
// One full unit of per-share reward is represented as 10^18.
var Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Accrued returns the total reward attributed to a holding of the specified
// shares at the specified accumulator index: shares * index / Precision.
func Accrued(shares *big.Int, index *big.Int) *big.Int {
	acc := new(big.Int).Mul(shares, index)
	return acc.Quo(acc, Precision)
}

// Pending returns the unclaimed reward for a holding: the accrued amount
// minus the reward debt, clamped at zero. The clamp is a defined floor, not
// an error case: truncation in earlier settlements can leave the accrued
// value at or just below the recorded debt.
func Pending(shares *big.Int, rewardDebt *big.Int, index *big.Int) *big.Int {
	accrued := Accrued(shares, index)
	if accrued.Cmp(rewardDebt) <= 0 {
		return big.NewInt(0)
	}

	return accrued.Sub(accrued, rewardDebt)
}

// Settle returns the new reward debt that marks all currently accrued
// reward for the holding as claimed.
func Settle(shares *big.Int, index *big.Int) *big.Int {
	return Accrued(shares, index)
}

// IndexDelta returns the accumulator increase for socializing the specified
// amount across the remaining shares: amount * Precision / remaining. The
// caller guarantees remaining > 0.
func IndexDelta(amount *big.Int, remaining *big.Int) *big.Int {
	delta := new(big.Int).Mul(amount, Precision)
	return delta.Quo(delta, remaining)
}
