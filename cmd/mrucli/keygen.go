package mrucli

import (
	"encoding/hex"
	"fmt"

	"github.com/bitcoin-vm/mru/services/sequencer"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
)

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate an operator key for sequencer_operatorPrivateKey",
		Action: func(c *cli.Context) error {
			keyHex, address, err := generateOperatorKey()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(c.App.Writer, "private key: %s\naddress:     %s\n", keyHex, address)

			return err
		},
	}
}

func generateOperatorKey() (keyHex string, address string, err error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", err
	}

	return hex.EncodeToString(crypto.FromECDSA(key)), sequencer.NewOperatorFromKey(key).Address().Hex(), nil
}
