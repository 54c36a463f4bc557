// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/cometchain/comet/app/services/node/handlers/v1/public"
	"github.com/cometchain/comet/foundation/blockchain/state"
	"github.com/cometchain/comet/foundation/events"
	"github.com/cometchain/comet/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)

	app.Handle(http.MethodGet, version, "/node/template", pbl.BlockTemplate)
	app.Handle(http.MethodPost, version, "/block/submit", pbl.SubmitBlock)
	app.Handle(http.MethodGet, version, "/block/count", pbl.BlockCount)
	app.Handle(http.MethodGet, version, "/block/list/:from/:to", pbl.BlocksByNumber)

	app.Handle(http.MethodGet, version, "/mining/info", pbl.MiningInfo)
	app.Handle(http.MethodGet, version, "/chain/info", pbl.ChainInfo)

	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/mempool/list", pbl.Mempool)
}
