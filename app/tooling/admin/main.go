// This program performs administrative tasks against the storage of a
// stopped node.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxocoin/app/tooling/admin/commands"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database/storage"
	"github.com/ardanlabs/utxocoin/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args     conf.Args
		DBPath   string `conf:"default:zblock/blocks"`
		UTXOPath string `conf:"default:zblock/utxos.db"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "utxo ledger administration",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Args.Num(0) == "utxos" {
		snapshots, err := storage.NewBolt(cfg.UTXOPath, 0)
		if err != nil {
			return err
		}
		defer snapshots.Close()

		return commands.Snapshot(snapshots)
	}

	disk, err := storage.NewDisk(cfg.DBPath)
	if err != nil {
		return err
	}
	defer disk.Close()

	chain, err := commands.LoadChain(disk)
	if err != nil {
		return err
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	utxos, err := database.ValidateChain(chain, time.Now(), ev)
	if err != nil {
		return fmt.Errorf("replaying chain: %w", err)
	}

	return processCommands(cfg.Args, chain, utxos)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, chain []database.Block, utxos database.UTXOSet) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(args.Num(1), chain, utxos); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "trans":
		if err := commands.Transactions(args.Num(1), chain); err != nil {
			return fmt.Errorf("getting transaction: %w", err)
		}
	default:
		fmt.Println("commands: bals [address] | trans [address] | utxos")
	}

	return nil
}
