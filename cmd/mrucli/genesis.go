package mrucli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/urfave/cli/v2"
)

func genesisCommand() *cli.Command {
	return &cli.Command{
		Name:  "genesis",
		Usage: "Write a genesis file",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "admin",
				Usage:    "Ethereum address allowed to mint and submit transactions, repeatable",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:  "fund",
				Usage: "address:satoshis paid by the genesis transaction, repeatable",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output file, stdout when empty",
			},
		},
		Action: func(c *cli.Context) error {
			funds, err := parseFunding(c.StringSlice("fund"))
			if err != nil {
				return err
			}

			data, err := buildGenesis(settings.NewSettings().ChainCfgParams, c.StringSlice("admin"), funds)
			if err != nil {
				return err
			}

			if out := c.String("out"); out != "" {
				return os.WriteFile(out, data, 0o600)
			}

			_, err = fmt.Fprintln(c.App.Writer, string(data))

			return err
		},
	}
}

func parseFunding(values []string) ([]ledger.Funding, error) {
	funds := make([]ledger.Funding, 0, len(values))

	for _, v := range values {
		address, amount, ok := strings.Cut(v, ":")
		if !ok {
			return nil, errors.NewInvalidArgumentError("fund %q is not address:satoshis", v)
		}

		sats, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("fund %q has an invalid amount", v, err)
		}

		funds = append(funds, ledger.Funding{Address: address, Satoshis: sats})
	}

	return funds, nil
}

func buildGenesis(params *bitcoin.Params, admins []string, funds []ledger.Funding) ([]byte, error) {
	genesis, err := ledger.GenerateGenesis(params, admins, funds)
	if err != nil {
		return nil, err
	}

	return genesis.Bytes()
}
