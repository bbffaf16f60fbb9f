// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/aayushmayush07/vault/app/services/vault/handlers/v1/private"
	"github.com/aayushmayush07/vault/app/services/vault/handlers/v1/public"
	"github.com/aayushmayush07/vault/foundation/events"
	"github.com/aayushmayush07/vault/foundation/nameservice"
	"github.com/aayushmayush07/vault/foundation/vault/bank"
	"github.com/aayushmayush07/vault/foundation/vault/state"
	"github.com/aayushmayush07/vault/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Bank  *bank.Bank
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Bank:  cfg.Bank,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/vault/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/positions/list", pbl.Positions)
	app.Handle(http.MethodGet, version, "/positions/list/:account", pbl.Positions)
	app.Handle(http.MethodGet, version, "/positions/view/:id", pbl.Position)
	app.Handle(http.MethodGet, version, "/rewards/pending/:id", pbl.PendingReward)
	app.Handle(http.MethodGet, version, "/balances/list", pbl.Balances)
	app.Handle(http.MethodGet, version, "/balances/list/:account", pbl.Balances)
	app.Handle(http.MethodPost, version, "/op/submit", pbl.SubmitOperation)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Bank:  cfg.Bank,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/bank/credit", prv.Credit)
}
