package state

import (
	"math/big"

	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/genesis"
	"github.com/aayushmayush07/vault/foundation/vault/reward"
)

// PendingReward returns the unclaimed reward for the specified position.
// The query takes no guard and returns zero for an absent position.
func (s *State) PendingReward(id uint64) *big.Int {
	position, exists := s.db.QueryPosition(id)
	if !exists {
		return big.NewInt(0)
	}

	return reward.Pending(position.Shares, position.RewardDebt, s.db.AccPenaltyPerShare())
}

// QueryPosition returns the position for the specified id.
func (s *State) QueryPosition(id uint64) (database.Position, bool) {
	return s.db.QueryPosition(id)
}

// QueryPositionsByAccount returns the live positions owned by the specified
// account. If the account is empty, all positions are returned.
func (s *State) QueryPositionsByAccount(accountID database.AccountID) map[uint64]database.Position {
	positions := s.db.CopyPositions()

	if accountID != "" {
		for id, position := range positions {
			if position.Owner != accountID {
				delete(positions, id)
			}
		}
	}

	return positions
}

// RetrieveGenesis returns a copy of the construction-time configuration.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveTreasury returns the treasury account.
func (s *State) RetrieveTreasury() database.AccountID {
	return s.treasury
}

// RetrieveTotalShares returns the sum of shares over all live positions.
func (s *State) RetrieveTotalShares() *big.Int {
	return s.db.TotalShares()
}

// RetrieveAccPenaltyPerShare returns the current global accumulator value.
func (s *State) RetrieveAccPenaltyPerShare() *big.Int {
	return s.db.AccPenaltyPerShare()
}

// RetrieveNextID returns the identifier the next deposit will receive.
func (s *State) RetrieveNextID() uint64 {
	return s.db.NextID()
}
