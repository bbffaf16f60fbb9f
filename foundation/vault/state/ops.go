package state

import (
	"fmt"
	"math/big"

	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/penalty"
	"github.com/aayushmayush07/vault/foundation/vault/reward"
)

// Receipt reports the outcome of a successful operation.
type Receipt struct {
	Kind       database.OpKind
	PositionID uint64
	Owner      database.AccountID
	Paid       *big.Int // Amount transferred to the owner.
	Reward     *big.Int // Pending reward included in the payment.
	Penalty    *big.Int // Ragequit: amount forfeited from the principal.
}

// SubmitOperation validates a signed operation and dispatches it to the
// matching state transition.
func (s *State) SubmitOperation(signedOp database.SignedOp) (Receipt, error) {
	switch signedOp.Kind {
	case database.OpDeposit:
		return s.Deposit(signedOp)
	case database.OpWithdraw:
		return s.Withdraw(signedOp)
	case database.OpRagequit:
		return s.Ragequit(signedOp)
	case database.OpHarvest:
		return s.HarvestProfit(signedOp)
	}

	return Receipt{}, fmt.Errorf("unrecognized operation %q", signedOp.Kind)
}

// Deposit locks the signed value for the requested duration and creates a
// new position for the caller.
func (s *State) Deposit(signedOp database.SignedOp) (Receipt, error) {
	owner, err := s.authenticate(signedOp, database.OpDeposit)
	if err != nil {
		return Receipt{}, err
	}

	// Take the vault guard for the full life of the operation, including
	// the value collection. Concurrent callers queue here; a nested
	// invocation from inside the gateway is rejected by the guard rather
	// than allowed to observe partial state.
	if err := s.acquire(); err != nil {
		return Receipt{}, err
	}
	defer s.mu.Unlock()

	if signedOp.Value.Sign() <= 0 {
		return Receipt{}, ErrZeroDeposit
	}
	if signedOp.Duration == 0 {
		return Receipt{}, ErrZeroDuration
	}

	now := s.timeNow()
	record := database.Record{
		Kind:      database.OpDeposit,
		ID:        s.db.NextID(),
		Owner:     owner,
		Shares:    signedOp.Value,
		Start:     now,
		UnlockAt:  now + signedOp.Duration,
		TimeStamp: now,
	}

	// Effects before interactions: the position exists in the ledger
	// before the gateway runs, and is removed again if collection fails.
	snap := s.db.Snapshot(record.ID)
	if err := s.db.Apply(record); err != nil {
		return Receipt{}, err
	}

	if err := s.collect(owner, signedOp.Value); err != nil {
		s.db.Rollback(snap)
		return Receipt{}, fmt.Errorf("collecting deposit: %w", err)
	}

	s.journal(record)
	s.evHandler("state: Deposited: id[%d] owner[%s] amount[%s] duration[%d]", record.ID, owner, signedOp.Value, signedOp.Duration)

	receipt := Receipt{
		Kind:       database.OpDeposit,
		PositionID: record.ID,
		Owner:      owner,
		Paid:       big.NewInt(0),
		Reward:     big.NewInt(0),
	}

	return receipt, nil
}

// Withdraw pays out the principal plus any accrued reward for a matured
// position and removes the position from the ledger.
func (s *State) Withdraw(signedOp database.SignedOp) (Receipt, error) {
	owner, err := s.authenticate(signedOp, database.OpWithdraw)
	if err != nil {
		return Receipt{}, err
	}

	if err := s.acquire(); err != nil {
		return Receipt{}, err
	}
	defer s.mu.Unlock()

	position, exists := s.db.QueryPosition(signedOp.ID)
	if !exists {
		return Receipt{}, ErrPositionDoesNotExist
	}
	if position.Owner != owner {
		return Receipt{}, ErrNotOwner
	}

	now := s.timeNow()
	if !position.Matured(now) {
		return Receipt{}, ErrStakeNotMatured
	}

	pending := reward.Pending(position.Shares, position.RewardDebt, s.db.AccPenaltyPerShare())
	payout := new(big.Int).Add(position.Shares, pending)

	record := database.Record{
		Kind:      database.OpWithdraw,
		ID:        signedOp.ID,
		Owner:     owner,
		Paid:      payout,
		TimeStamp: now,
	}

	snap := s.db.Snapshot(signedOp.ID)
	if err := s.db.Apply(record); err != nil {
		return Receipt{}, err
	}

	if err := s.transfer(owner, payout); err != nil {
		s.db.Rollback(snap)
		return Receipt{}, fmt.Errorf("transfer to owner: %w", err)
	}

	s.journal(record)
	s.evHandler("state: Withdrawn: id[%d] owner[%s] principal[%s] reward[%s]", signedOp.ID, owner, position.Shares, pending)

	receipt := Receipt{
		Kind:       database.OpWithdraw,
		PositionID: signedOp.ID,
		Owner:      owner,
		Paid:       payout,
		Reward:     pending,
	}

	return receipt, nil
}

// Ragequit exits a position before maturity, forfeiting a time-decaying
// penalty that is split between the treasury and the remaining stakers.
func (s *State) Ragequit(signedOp database.SignedOp) (Receipt, error) {
	owner, err := s.authenticate(signedOp, database.OpRagequit)
	if err != nil {
		return Receipt{}, err
	}

	if err := s.acquire(); err != nil {
		return Receipt{}, err
	}
	defer s.mu.Unlock()

	position, exists := s.db.QueryPosition(signedOp.ID)
	if !exists {
		return Receipt{}, ErrPositionDoesNotExist
	}
	if position.Owner != owner {
		return Receipt{}, ErrNotOwner
	}

	now := s.timeNow()
	if position.Matured(now) {
		return Receipt{}, ErrAlreadyMatured
	}

	// The quitter's pending reward is based on the accumulator before this
	// penalty is socialized. Their own shares never earn from their own exit.
	index := s.db.AccPenaltyPerShare()
	pending := reward.Pending(position.Shares, position.RewardDebt, index)

	split := penalty.Compute(s.genesis.MaxPenaltyBps, s.genesis.TreasuryFeeBps, position.Shares, position.Start, position.UnlockAt, now)

	// When no other shares remain there is no one to socialize the penalty
	// to, so the whole forfeited amount goes to the treasury.
	remaining := new(big.Int).Sub(s.db.TotalShares(), position.Shares)
	treasuryFee := split.TreasuryFee
	toStakers := split.ToStakers
	if remaining.Sign() == 0 {
		treasuryFee = new(big.Int).Add(treasuryFee, toStakers)
		toStakers = big.NewInt(0)
	}

	payout := new(big.Int).Sub(position.Shares, split.Penalty)
	payout.Add(payout, pending)

	record := database.Record{
		Kind:        database.OpRagequit,
		ID:          signedOp.ID,
		Owner:       owner,
		Paid:        payout,
		TreasuryFee: treasuryFee,
		ToStakers:   toStakers,
		TimeStamp:   now,
	}

	snap := s.db.Snapshot(signedOp.ID)
	if err := s.db.Apply(record); err != nil {
		return Receipt{}, err
	}

	// Two payments leave the vault. The substrate has no transactional
	// transfers, so if the second payment fails the first is clawed back
	// before the ledger is rolled back.
	if err := s.transfer(owner, payout); err != nil {
		s.db.Rollback(snap)
		return Receipt{}, fmt.Errorf("transfer to owner: %w", err)
	}

	if treasuryFee.Sign() > 0 {
		if err := s.transfer(s.treasury, treasuryFee); err != nil {
			if cerr := s.collect(owner, payout); cerr != nil {
				s.evHandler("state: Ragequit: claw back of %s from %s failed: ERROR: %s", payout, owner, cerr)
			}
			s.db.Rollback(snap)
			return Receipt{}, fmt.Errorf("transfer to treasury: %w", err)
		}
	}

	s.journal(record)
	s.evHandler("state: Ragequit: id[%d] owner[%s] penalty[%s] payout[%s]", signedOp.ID, owner, split.Penalty, payout)

	if remaining.Sign() > 0 {
		s.evHandler("state: PenaltyDistributed: toStakers[%s] newIndex[%s]", toStakers, s.db.AccPenaltyPerShare())
	}

	receipt := Receipt{
		Kind:       database.OpRagequit,
		PositionID: signedOp.ID,
		Owner:      owner,
		Paid:       payout,
		Reward:     pending,
		Penalty:    split.Penalty,
	}

	return receipt, nil
}

// HarvestProfit pays out the accrued reward for a position and resets its
// reward baseline. The position itself stays live.
func (s *State) HarvestProfit(signedOp database.SignedOp) (Receipt, error) {
	owner, err := s.authenticate(signedOp, database.OpHarvest)
	if err != nil {
		return Receipt{}, err
	}

	if err := s.acquire(); err != nil {
		return Receipt{}, err
	}
	defer s.mu.Unlock()

	position, exists := s.db.QueryPosition(signedOp.ID)
	if !exists {
		return Receipt{}, ErrPositionDoesNotExist
	}
	if position.Owner != owner {
		return Receipt{}, ErrNotOwner
	}

	pending := reward.Pending(position.Shares, position.RewardDebt, s.db.AccPenaltyPerShare())
	if pending.Sign() == 0 {
		return Receipt{}, ErrNothingToHarvest
	}

	record := database.Record{
		Kind:      database.OpHarvest,
		ID:        signedOp.ID,
		Owner:     owner,
		Paid:      pending,
		TimeStamp: s.timeNow(),
	}

	snap := s.db.Snapshot(signedOp.ID)
	if err := s.db.Apply(record); err != nil {
		return Receipt{}, err
	}

	if err := s.transfer(owner, pending); err != nil {
		s.db.Rollback(snap)
		return Receipt{}, fmt.Errorf("transfer to owner: %w", err)
	}

	s.journal(record)
	s.evHandler("state: Harvested: id[%d] owner[%s] reward[%s]", signedOp.ID, owner, pending)

	receipt := Receipt{
		Kind:       database.OpHarvest,
		PositionID: signedOp.ID,
		Owner:      owner,
		Paid:       pending,
		Reward:     pending,
	}

	return receipt, nil
}

// =============================================================================

// authenticate checks the signed operation names the expected transition
// and recovers the caller identity from the signature.
func (s *State) authenticate(signedOp database.SignedOp, kind database.OpKind) (database.AccountID, error) {
	if signedOp.Kind != kind {
		return "", fmt.Errorf("operation kind %q does not match %q", signedOp.Kind, kind)
	}

	if err := signedOp.Validate(); err != nil {
		return "", err
	}

	owner, err := signedOp.FromAccount()
	if err != nil {
		return "", fmt.Errorf("invalid signature, %w", err)
	}

	return owner, nil
}
