// Package mrucli is the command line of the node: it starts the daemon and offers a few offline tools
// for genesis files and operator keys.
package mrucli

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func NewApp(progname, version, commit string) *cli.App {
	return &cli.App{
		Name:    progname,
		Usage:   "bitcoin style UTXO ledger sequenced as a rollup",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Commands: []*cli.Command{
			startCommand(progname, version, commit),
			genesisCommand(),
			rootCommand(),
			keygenCommand(),
			fsmStateCommand(),
			settingsCommand(version, commit),
		},
	}
}
