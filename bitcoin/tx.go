// Package bitcoin wraps btcd for everything the ledger needs to know about raw Bitcoin transactions:
// decoding, transaction ids, output address extraction and script verification.
package bitcoin

import (
	"bytes"
	"encoding/hex"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

type Input struct {
	PrevTxID    string
	OutputIndex uint32
	// Finalized is true when the input carries a scriptSig or a witness.
	Finalized bool
}

type Output struct {
	Value      uint64
	Script     []byte
	ScriptType string
	// Address is empty when the script is not one of the standard single address types.
	Address string
}

// Tx is a decoded transaction. It is immutable once returned by a Parser.
type Tx struct {
	msg     *wire.MsgTx
	id      string
	Inputs  []Input
	Outputs []Output
}

func (t *Tx) ID() string {
	return t.id
}

func (t *Tx) LockTime() uint32 {
	return t.msg.LockTime
}

func (t *Tx) Version() int32 {
	return t.msg.Version
}

func (t *Tx) MsgTx() *wire.MsgTx {
	return t.msg
}

func (t *Tx) IsCoinbase() bool {
	return blockchain.IsCoinBaseTx(t.msg)
}

// IsFinalized reports whether every input is signed.
func (t *Tx) IsFinalized() bool {
	for _, in := range t.Inputs {
		if !in.Finalized {
			return false
		}
	}

	return true
}

// Hex serializes the transaction, including witness data when present.
func (t *Tx) Hex() string {
	return EncodeTx(t.msg)
}

// PrevOut is the previous output an input spends, as recorded in the ledger.
type PrevOut struct {
	Script []byte
	Value  uint64
}

// Verify runs every input script against the output it spends with the standard btcd verification flags.
// prevOuts must hold one entry per input, in input order.
func (t *Tx) Verify(prevOuts []PrevOut) error {
	if len(prevOuts) != len(t.msg.TxIn) {
		return errors.NewTxInvalidError("expected %d previous outputs, got %d", len(t.msg.TxIn), len(prevOuts))
	}

	fetched := make(map[wire.OutPoint]*wire.TxOut, len(prevOuts))
	for i, in := range t.msg.TxIn {
		fetched[in.PreviousOutPoint] = wire.NewTxOut(int64(prevOuts[i].Value), prevOuts[i].Script)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(fetched)
	sigHashes := txscript.NewTxSigHashes(t.msg, fetcher)

	for i := range t.msg.TxIn {
		vm, err := txscript.NewEngine(prevOuts[i].Script, t.msg, i, txscript.StandardVerifyFlags, nil, sigHashes, int64(prevOuts[i].Value), fetcher)
		if err != nil {
			return errors.NewTxInvalidError("input %d: failed to create script engine", i, err)
		}

		if err = vm.Execute(); err != nil {
			return errors.NewTxInvalidError("input %d: script verification failed", i, err)
		}
	}

	return nil
}

// EncodeTx serializes msg as hex. Transactions without witness data use the legacy encoding, which is
// also the only valid encoding for a transaction without inputs.
func EncodeTx(msg *wire.MsgTx) string {
	var buf bytes.Buffer

	buf.Grow(msg.SerializeSize())

	var err error
	if msg.HasWitness() {
		err = msg.Serialize(&buf)
	} else {
		err = msg.SerializeNoWitness(&buf)
	}

	if err != nil {
		// writing to a bytes.Buffer only fails on out of memory
		panic(err)
	}

	return hex.EncodeToString(buf.Bytes())
}

func newTx(msg *wire.MsgTx, params *Params) *Tx {
	tx := &Tx{
		msg:     msg,
		id:      msg.TxHash().String(),
		Inputs:  make([]Input, len(msg.TxIn)),
		Outputs: make([]Output, len(msg.TxOut)),
	}

	for i, in := range msg.TxIn {
		tx.Inputs[i] = Input{
			PrevTxID:    in.PreviousOutPoint.Hash.String(),
			OutputIndex: in.PreviousOutPoint.Index,
			Finalized:   len(in.SignatureScript) > 0 || len(in.Witness) > 0,
		}
	}

	for i, out := range msg.TxOut {
		scriptType, address := ScriptAddress(out.PkScript, params)

		tx.Outputs[i] = Output{
			Value:      uint64(out.Value),
			Script:     out.PkScript,
			ScriptType: scriptType,
			Address:    address,
		}
	}

	return tx
}

// TxIDFromHex returns the id of a serialized transaction without classifying its outputs.
func TxIDFromHex(txHex string) (string, error) {
	msg, err := decode(txHex)
	if err != nil {
		return "", err
	}

	return msg.TxHash().String(), nil
}
