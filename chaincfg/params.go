// Package chaincfg resolves the configured network name to the Bitcoin chain parameters used for
// address decoding and script classification.
package chaincfg

import (
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	btcchaincfg "github.com/btcsuite/btcd/chaincfg"
)

type Params = btcchaincfg.Params

var (
	MainNetParams       = &btcchaincfg.MainNetParams
	TestNet3Params      = &btcchaincfg.TestNet3Params
	RegressionNetParams = &btcchaincfg.RegressionNetParams
	SigNetParams        = &btcchaincfg.SigNetParams
	SimNetParams        = &btcchaincfg.SimNetParams
)

// GetChainParams accepts the network names used in settings.conf as well as the btcd param names.
func GetChainParams(network string) (*Params, error) {
	switch strings.ToLower(network) {
	case "mainnet", "main":
		return MainNetParams, nil
	case "testnet", "testnet3":
		return TestNet3Params, nil
	case "regtest":
		return RegressionNetParams, nil
	case "signet":
		return SigNetParams, nil
	case "simnet":
		return SimNetParams, nil
	default:
		return nil, errors.NewConfigurationError("unknown network %q", network)
	}
}
