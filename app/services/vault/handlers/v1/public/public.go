// Package public maintains the group of handlers for public access to the
// vault.
package public

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	v1 "github.com/aayushmayush07/vault/business/web/v1"
	"github.com/aayushmayush07/vault/foundation/events"
	"github.com/aayushmayush07/vault/foundation/nameservice"
	"github.com/aayushmayush07/vault/foundation/vault/bank"
	"github.com/aayushmayush07/vault/foundation/vault/database"
	"github.com/aayushmayush07/vault/foundation/vault/state"
	"github.com/aayushmayush07/vault/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of vault endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Bank  *bank.Bank
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide notifications to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("events", "traceid", v.TraceID, "status", "websocket open")

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the construction-time configuration.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Status returns the global vault state.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status := vaultStatus{
		TotalShares:        h.State.RetrieveTotalShares().String(),
		AccPenaltyPerShare: h.State.RetrieveAccPenaltyPerShare().String(),
		NextID:             h.State.RetrieveNextID(),
		Treasury:           string(h.State.RetrieveTreasury()),
		Pool:               h.Bank.Pool().String(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Positions returns the live positions, optionally filtered by account.
func (h Handlers) Positions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if account := web.Param(r, "account"); account != "" {
		var err error
		accountID, err = database.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	all := h.State.QueryPositionsByAccount(accountID)

	ids := make([]uint64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	resp := positions{Positions: make([]position, 0, len(ids))}
	for _, id := range ids {
		resp.Positions = append(resp.Positions, toPosition(id, all[id], h.State.PendingReward(id), h.NS))
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Position returns the single position for the specified id.
func (h Handlers) Position(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	pos, exists := h.State.QueryPosition(id)
	if !exists {
		return v1.NewRequestError(state.ErrPositionDoesNotExist, http.StatusNotFound)
	}

	return web.Respond(ctx, w, toPosition(id, pos, h.State.PendingReward(id), h.NS), http.StatusOK)
}

// PendingReward returns the unclaimed reward for the specified position.
// An absent position reports zero.
func (h Handlers) PendingReward(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(web.Param(r, "id"), 10, 64)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		ID      uint64 `json:"id"`
		Pending string `json:"pending"`
	}{
		ID:      id,
		Pending: h.State.PendingReward(id).String(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balances returns the settlement balances, optionally for one account.
func (h Handlers) Balances(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	all := h.Bank.CopyBalances()

	if account := web.Param(r, "account"); account != "" {
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		for id := range all {
			if id != accountID {
				delete(all, id)
			}
		}
	}

	resp := balances{Balances: make([]balance, 0, len(all))}
	for accountID, amount := range all {
		resp.Balances = append(resp.Balances, balance{
			Account: string(accountID),
			Name:    h.NS.Lookup(accountID),
			Balance: amount.String(),
		})
	}
	sort.Slice(resp.Balances, func(i, j int) bool { return resp.Balances[i].Account < resp.Balances[j].Account })

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitOperation accepts a signed operation for execution against the
// vault and returns the resulting receipt.
func (h Handlers) SubmitOperation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var signedOp database.SignedOp
	if err := web.Decode(r, &signedOp); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("op submit", "traceid", v.TraceID, "op", signedOp)

	rcpt, err := h.State.SubmitOperation(signedOp)
	if err != nil {
		return v1.NewRequestError(err, errStatusCode(err))
	}

	return web.Respond(ctx, w, toReceipt(rcpt), http.StatusOK)
}

// =============================================================================

// errStatusCode maps the vault failure taxonomy onto HTTP status codes.
func errStatusCode(err error) int {
	switch {
	case errors.Is(err, state.ErrPositionDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, state.ErrNotOwner):
		return http.StatusUnauthorized
	case errors.Is(err, state.ErrReentrancy):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
