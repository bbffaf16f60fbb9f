package database

import "math/big"

// Record represents one committed state transition as it is written to the
// operation journal. Records carry outcomes, not decisions: replaying a
// journal re-applies the exact ledger and settlement effects without
// consulting the clock or recomputing any split.
type Record struct {
	Seq         uint64    `json:"seq"`                    // Journal sequence number, starting at 1.
	Kind        OpKind    `json:"kind"`                   // Which transition was applied.
	ID          uint64    `json:"id"`                     // Position the transition acted on.
	Owner       AccountID `json:"owner"`                  // Account the value moved from or to.
	Shares      *big.Int  `json:"shares,omitempty"`       // Deposit: principal locked.
	Start       uint64    `json:"start,omitempty"`        // Deposit: when the lock began.
	UnlockAt    uint64    `json:"unlock_at,omitempty"`    // Deposit: when the lock matures.
	Paid        *big.Int  `json:"paid,omitempty"`         // Payout transferred to the owner.
	TreasuryFee *big.Int  `json:"treasury_fee,omitempty"` // Ragequit: fee transferred to the treasury.
	ToStakers   *big.Int  `json:"to_stakers,omitempty"`   // Ragequit: penalty portion socialized.
	TimeStamp   uint64    `json:"timestamp"`              // Unix seconds the transition was applied.
}
