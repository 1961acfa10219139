package public

import (
	"net/http"
	"os"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/state"
	"github.com/ardanlabs/utxocoin/foundation/events"
	"github.com/ardanlabs/utxocoin/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
	Evts     *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Shutdown: cfg.Shutdown,
		Log:      cfg.Log,
		State:    cfg.State,
		WS:       websocket.Upgrader{},
		Evts:     cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/blocks", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/block/:hash", pbl.Block)
	app.Handle(http.MethodGet, version, "/transaction/:id", pbl.Transaction)
	app.Handle(http.MethodGet, version, "/address/:address", pbl.AddressUTXOs)
	app.Handle(http.MethodGet, version, "/utxos", pbl.UTXOs)
	app.Handle(http.MethodGet, version, "/utxos/mine", pbl.MyUTXOs)
	app.Handle(http.MethodPost, version, "/mine/raw", pbl.MineRawBlock)
	app.Handle(http.MethodPost, version, "/mine", pbl.MineBlock)
	app.Handle(http.MethodPost, version, "/mine/transaction", pbl.MineTransaction)
	app.Handle(http.MethodPost, version, "/tx/send", pbl.SendTransaction)
	app.Handle(http.MethodGet, version, "/tx/pool", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/balance", pbl.Balance)
	app.Handle(http.MethodGet, version, "/address", pbl.Address)
	app.Handle(http.MethodGet, version, "/peers", pbl.Peers)
	app.Handle(http.MethodPost, version, "/peers", pbl.AddPeer)
	app.Handle(http.MethodPost, version, "/stop", pbl.Stop)
}
