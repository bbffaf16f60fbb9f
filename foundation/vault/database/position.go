package database

import "math/big"

// Position represents a single locked stake inside the vault. A position
// exists in the ledger iff it was deposited and not yet withdrawn or
// ragequit. Shares equal the principal deposited: one raw unit of value is
// one unit of reward and penalty weighting.
type Position struct {
	Owner      AccountID
	Shares     *big.Int
	Start      uint64 // Unix seconds when the lock began.
	UnlockAt   uint64 // Unix seconds when the lock matures. Always > Start.
	RewardDebt *big.Int
}

// Matured reports whether the position can be withdrawn at the specified
// time. Maturity is the first instant ragequit becomes disallowed.
func (p Position) Matured(now uint64) bool {
	return now >= p.UnlockAt
}

// copy returns a position value whose big integers do not alias the
// originals.
func (p Position) copy() Position {
	p.Shares = new(big.Int).Set(p.Shares)
	p.RewardDebt = new(big.Int).Set(p.RewardDebt)
	return p
}
