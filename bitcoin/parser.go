package bitcoin

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Parser decodes serialized transactions. The ledger only depends on this interface.
type Parser interface {
	Parse(txHex string) (*Tx, error)
}

// BtcdParser is the Parser backed by btcd's wire package.
type BtcdParser struct {
	params *Params
}

func NewParser(params *Params) *BtcdParser {
	return &BtcdParser{params: params}
}

func (p *BtcdParser) Params() *Params {
	return p.params
}

// Parse accepts segwit and legacy encodings. Output values must be within the 21M BTC supply.
func (p *BtcdParser) Parse(txHex string) (*Tx, error) {
	msg, err := decode(txHex)
	if err != nil {
		return nil, err
	}

	for i, out := range msg.TxOut {
		if out.Value < 0 || out.Value > btcutil.MaxSatoshi {
			return nil, errors.NewTxInvalidError("output %d has an out of range value %d", i, out.Value)
		}
	}

	return newTx(msg, p.params), nil
}

// decode tries the witness encoding first. A transaction without inputs is ambiguous with the segwit
// marker, so when the witness decoding does not consume the whole payload or yields no inputs the legacy
// decoding is tried.
func decode(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(txHex))
	if err != nil {
		return nil, errors.NewTxInvalidError("transaction is not valid hex", err)
	}

	if len(raw) == 0 {
		return nil, errors.NewTxInvalidError("transaction is empty")
	}

	msg := wire.NewMsgTx(wire.TxVersion)

	r := bytes.NewReader(raw)
	if err = msg.Deserialize(r); err == nil && r.Len() == 0 && len(msg.TxIn) > 0 {
		return msg, nil
	}

	legacy := wire.NewMsgTx(wire.TxVersion)

	r = bytes.NewReader(raw)
	if legacyErr := legacy.DeserializeNoWitness(r); legacyErr != nil {
		if err == nil {
			err = legacyErr
		}

		return nil, errors.NewTxInvalidError("failed to decode transaction", err)
	}

	if r.Len() != 0 {
		return nil, errors.NewTxInvalidError("transaction has %d trailing bytes", r.Len())
	}

	return legacy, nil
}
