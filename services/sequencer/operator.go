package sequencer

import (
	"crypto/ecdsa"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Operator signs actions that originate inside the node: raw transactions posted to the API and bridge
// tickets. Its address has to be an admin of the ledger for those actions to be accepted.
type Operator struct {
	keyHex  string
	address common.Address
}

func NewOperator(keyHex string) (*Operator, error) {
	keyHex = strings.TrimPrefix(keyHex, "0x")

	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid operator private key", err)
	}

	return &Operator{
		keyHex:  keyHex,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewOperatorFromKey is used by tests that already hold a key.
func NewOperatorFromKey(key *ecdsa.PrivateKey) *Operator {
	return &Operator{
		keyHex:  common.Bytes2Hex(crypto.FromECDSA(key)),
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (o *Operator) Address() common.Address {
	return o.address
}

// NewAction builds and signs an action sent by the operator.
func (o *Operator) NewAction(name string, inputs interface{}) (*model.Action, error) {
	action, err := model.NewAction(name, inputs, o.address.Hex())
	if err != nil {
		return nil, err
	}

	if err = action.Sign(o.keyHex); err != nil {
		return nil, err
	}

	return action, nil
}
