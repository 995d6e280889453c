package bitcoin

import (
	"encoding/hex"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

type Params = chaincfg.Params

// ScriptType values for the standard single address output types.
const (
	ScriptTypePubKeyHash          = "pubkeyhash"
	ScriptTypeScriptHash          = "scripthash"
	ScriptTypeWitnessV0KeyHash    = "witness_v0_keyhash"
	ScriptTypeWitnessV0ScriptHash = "witness_v0_scripthash"
	ScriptTypeWitnessV1Taproot    = "witness_v1_taproot"
	ScriptTypeNonStandard         = "nonstandard"
)

func isStandardClass(class txscript.ScriptClass) bool {
	switch class {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy, txscript.WitnessV0PubKeyHashTy,
		txscript.WitnessV0ScriptHashTy, txscript.WitnessV1TaprootTy:
		return true
	default:
		return false
	}
}

// ScriptAddress classifies a locking script. The address is empty for anything but the standard single
// address types.
func ScriptAddress(script []byte, params *Params) (scriptType string, address string) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(script, params)
	if err != nil || !isStandardClass(class) || len(addrs) != 1 {
		if err == nil && class != txscript.NonStandardTy {
			return class.String(), ""
		}

		return ScriptTypeNonStandard, ""
	}

	return class.String(), addrs[0].EncodeAddress()
}

// ScriptTypeOfHex is ScriptAddress for hex encoded scripts, returning only the type.
func ScriptTypeOfHex(scriptHex string, params *Params) string {
	script, err := hex.DecodeString(scriptHex)
	if err != nil {
		return ScriptTypeNonStandard
	}

	scriptType, _ := ScriptAddress(script, params)

	return scriptType
}

// DecodeAddress decodes a standard address of the given network.
func DecodeAddress(address string, params *Params) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid bitcoin address %q", address, err)
	}

	if !addr.IsForNet(params) {
		return nil, errors.NewInvalidArgumentError("address %q is not for network %s", address, params.Name)
	}

	switch addr.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash, *btcutil.AddressWitnessPubKeyHash,
		*btcutil.AddressWitnessScriptHash, *btcutil.AddressTaproot:
		return addr, nil
	default:
		return nil, errors.NewInvalidArgumentError("address %q is not a standard output type", address)
	}
}

// PayToAddrScript returns the locking script paying to a standard address of the given network.
func PayToAddrScript(address string, params *Params) ([]byte, error) {
	addr, err := DecodeAddress(address, params)
	if err != nil {
		return nil, err
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("failed to build script for %q", address, err)
	}

	return script, nil
}
