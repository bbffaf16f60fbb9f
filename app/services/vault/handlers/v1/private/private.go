// Package private maintains the group of handlers for operator access.
package private

import (
	"context"
	"errors"
	"math/big"
	"net/http"

	v1 "github.com/aayushmayush07/vault/business/web/v1"
	"github.com/aayushmayush07/vault/foundation/nameservice"
	"github.com/aayushmayush07/vault/foundation/vault/bank"
	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/state"
	"github.com/aayushmayush07/vault/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Bank  *bank.Bank
	NS    *nameservice.NameService
}

// Status returns the vault internals an operator cares about.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()

	resp := struct {
		Name               string `json:"name"`
		TotalShares        string `json:"total_shares"`
		AccPenaltyPerShare string `json:"acc_penalty_per_share"`
		NextID             uint64 `json:"next_id"`
		Pool               string `json:"pool"`
		TreasuryBalance    string `json:"treasury_balance"`
	}{
		Name:               gen.Name,
		TotalShares:        h.State.RetrieveTotalShares().String(),
		AccPenaltyPerShare: h.State.RetrieveAccPenaltyPerShare().String(),
		NextID:             h.State.RetrieveNextID(),
		Pool:               h.Bank.Pool().String(),
		TreasuryBalance:    h.Bank.Balance(h.State.RetrieveTreasury()).String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Credit adds settlement funds to an account. This only exists for
// development networks where the operator seeds stakers with value.
func (h Handlers) Credit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req struct {
		Account string `json:"account" validate:"required"`
		Amount  string `json:"amount" validate:"required"`
	}
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	accountID, err := database.ToAccountID(req.Account)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		return v1.NewRequestError(errors.New("amount is not a base 10 integer"), http.StatusBadRequest)
	}

	if err := h.Bank.Credit(accountID, amount); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("bank credit", "traceid", v.TraceID, "account", h.NS.Lookup(accountID), "amount", req.Amount)

	resp := struct {
		Account string `json:"account"`
		Balance string `json:"balance"`
	}{
		Account: req.Account,
		Balance: h.Bank.Balance(accountID).String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
