package ledger

import (
	"encoding/hex"
	"os"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Genesis is the file format of the initial state: {"state": {...}}.
type Genesis struct {
	State *State `json:"state"`
}

// Funding is one output of a generated genesis.
type Funding struct {
	Address  string `json:"address"`
	Satoshis uint64 `json:"satoshis"`
}

func LoadGenesisFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to read genesis file %s", path, err)
	}

	return ParseGenesis(data)
}

// ParseGenesis decodes and validates a genesis document. Every recorded transaction must decode and
// hash to its key.
func ParseGenesis(data []byte) (*State, error) {
	var g Genesis
	if err := jsonAPI.Unmarshal(data, &g); err != nil {
		return nil, errors.NewConfigurationError("malformed genesis", err)
	}

	if g.State == nil {
		return nil, errors.NewConfigurationError("genesis has no state")
	}

	if err := g.State.normalize(); err != nil {
		return nil, err
	}

	if len(g.State.Admins) == 0 {
		return nil, errors.NewConfigurationError("genesis has no admins")
	}

	for txID, payload := range g.State.Transactions {
		id, err := bitcoin.TxIDFromHex(payload)
		if err != nil {
			return nil, errors.NewConfigurationError("genesis transaction %s does not decode", txID, err)
		}

		if id != txID {
			return nil, errors.NewConfigurationError("genesis transaction %s hashes to %s", txID, id)
		}
	}

	return g.State, nil
}

// GenerateGenesis funds every address from one transaction without inputs.
func GenerateGenesis(params *bitcoin.Params, admins []string, funds []Funding) (*Genesis, error) {
	state, err := NewState(admins...)
	if err != nil {
		return nil, err
	}

	if len(state.Admins) == 0 {
		return nil, errors.NewConfigurationError("at least one admin is required")
	}

	if len(funds) == 0 {
		return &Genesis{State: state}, nil
	}

	msg := wire.NewMsgTx(wire.TxVersion)
	scripts := make([][]byte, len(funds))
	addresses := make([]string, len(funds))

	var total uint64

	for i, f := range funds {
		if f.Satoshis == 0 || f.Satoshis > btcutil.MaxSatoshi-total {
			return nil, errors.NewConfigurationError("invalid funding amount %d for %s", f.Satoshis, f.Address)
		}

		total += f.Satoshis

		scripts[i], err = bitcoin.PayToAddrScript(f.Address, params)
		if err != nil {
			return nil, err
		}

		_, addresses[i] = bitcoin.ScriptAddress(scripts[i], params)

		msg.AddTxOut(wire.NewTxOut(int64(f.Satoshis), scripts[i]))
	}

	txID := msg.TxHash().String()

	for i, f := range funds {
		state.addUTXO(UTXO{
			TxID:        txID,
			OutputIndex: uint32(i),
			Address:     addresses[i],
			Script:      hex.EncodeToString(scripts[i]),
			Satoshis:    f.Satoshis,
		})
	}

	state.Transactions[txID] = bitcoin.EncodeTx(msg)

	return &Genesis{State: state}, nil
}

func (g *Genesis) Bytes() ([]byte, error) {
	return jsonAPI.MarshalIndent(g, "", "  ")
}
