package mrucli

import (
	"fmt"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
)

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:      "root",
		Usage:     "Print the state commitment of a genesis file",
		ArgsUsage: "<genesis.json>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.NewInvalidArgumentError("usage: root <genesis.json>")
			}

			state, err := ledger.LoadGenesisFile(c.Args().First())
			if err != nil {
				return err
			}

			data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(state.Roots(), "", "  ")
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.App.Writer, string(data))

			return err
		},
	}
}
