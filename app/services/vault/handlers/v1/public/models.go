package public

import (
	"math/big"

	"github.com/aayushmayush07/vault/foundation/nameservice"
	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/state"
)

// position represents one live position in the ledger. Amounts are decimal
// strings since they routinely exceed what a JSON number can carry.
type position struct {
	ID         uint64 `json:"id"`
	Owner      string `json:"owner"`
	Name       string `json:"name"`
	Shares     string `json:"shares"`
	Start      uint64 `json:"start"`
	UnlockAt   uint64 `json:"unlock_at"`
	RewardDebt string `json:"reward_debt"`
	Pending    string `json:"pending"`
}

func toPosition(id uint64, p database.Position, pending *big.Int, ns *nameservice.NameService) position {
	return position{
		ID:         id,
		Owner:      string(p.Owner),
		Name:       ns.Lookup(p.Owner),
		Shares:     p.Shares.String(),
		Start:      p.Start,
		UnlockAt:   p.UnlockAt,
		RewardDebt: p.RewardDebt.String(),
		Pending:    pending.String(),
	}
}

// positions is the response form for the positions listing.
type positions struct {
	Positions []position `json:"positions"`
}

// vaultStatus is the response form for the vault status query.
type vaultStatus struct {
	TotalShares        string `json:"total_shares"`
	AccPenaltyPerShare string `json:"acc_penalty_per_share"`
	NextID             uint64 `json:"next_id"`
	Treasury           string `json:"treasury"`
	Pool               string `json:"pool"`
}

// balance represents one settlement account balance.
type balance struct {
	Account string `json:"account"`
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

// balances is the response form for the balances listing.
type balances struct {
	Balances []balance `json:"balances"`
}

// receipt is the response form for a submitted operation.
type receipt struct {
	Kind       string `json:"kind"`
	PositionID uint64 `json:"position_id"`
	Owner      string `json:"owner"`
	Paid       string `json:"paid"`
	Reward     string `json:"reward"`
	Penalty    string `json:"penalty,omitempty"`
}

func toReceipt(r state.Receipt) receipt {
	rcpt := receipt{
		Kind:       string(r.Kind),
		PositionID: r.PositionID,
		Owner:      string(r.Owner),
		Paid:       r.Paid.String(),
		Reward:     r.Reward.String(),
	}

	if r.Penalty != nil {
		rcpt.Penalty = r.Penalty.String()
	}

	return rcpt
}
