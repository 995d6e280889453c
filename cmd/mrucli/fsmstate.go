package mrucli

import (
	"fmt"

	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/stores/blockchain"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/urfave/cli/v2"
)

func fsmStateCommand() *cli.Command {
	return &cli.Command{
		Name:  "getfsmstate",
		Usage: "Print the last sequencer state and best block recorded in the blockchain store",
		Action: func(c *cli.Context) error {
			tSettings := settings.NewSettings()
			logger := ulogger.New("cli", ulogger.WithLevel("WARN"))

			store, err := blockchain.NewStore(logger, tSettings.BlockChain.StoreURL, tSettings.DataFolder)
			if err != nil {
				return err
			}

			defer func() {
				_ = store.Close()
			}()

			state, err := store.GetFSMState(c.Context)
			if err != nil {
				return err
			}

			best, err := store.GetBestBlock(c.Context)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(c.App.Writer, "state: %s\nheight: %d\nroot: %s\n", state, best.Height, best.StateRoot)

			return err
		},
	}
}
