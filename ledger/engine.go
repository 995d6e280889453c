package ledger

import (
	"encoding/hex"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/common"
)

// Engine applies mintSats and runTx to a state.
type Engine struct {
	logger        ulogger.Logger
	params        *bitcoin.Params
	parser        bitcoin.Parser
	verifyScripts bool
}

type EngineOption func(*Engine)

// WithScriptVerification toggles execution of input scripts in RunTx. It is on by default.
func WithScriptVerification(enabled bool) EngineOption {
	return func(e *Engine) {
		e.verifyScripts = enabled
	}
}

// WithParser replaces the btcd parser.
func WithParser(parser bitcoin.Parser) EngineOption {
	return func(e *Engine) {
		e.parser = parser
	}
}

func NewEngine(logger ulogger.Logger, params *bitcoin.Params, opts ...EngineOption) *Engine {
	e := &Engine{
		logger:        logger,
		params:        params,
		parser:        bitcoin.NewParser(params),
		verifyScripts: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) Params() *bitcoin.Params {
	return e.params
}

func (e *Engine) Parser() bitcoin.Parser {
	return e.parser
}

// MintSats credits satoshis to btcAddress with a synthetic transaction without inputs. The nonce is split
// over the version (high word) and the locktime (low word) of that transaction so that it changes the id.
func (e *Engine) MintSats(state *State, sender string, inputs model.MintSatsInputs, _ model.BlockContext) (*State, error) {
	if !state.IsAdmin(sender) {
		return nil, errors.NewUnauthorizedError("mintSats: sender %s is not an admin", sender)
	}

	if inputs.Satoshis == 0 {
		return nil, errors.NewTxInvalidError("mintSats: satoshis must be positive")
	}

	if inputs.Satoshis > btcutil.MaxSatoshi {
		return nil, errors.NewTxInvalidError("mintSats: %d satoshis exceeds the maximum supply", inputs.Satoshis)
	}

	if !common.IsHexAddress(inputs.EthAddress) {
		return nil, errors.NewTxInvalidError("mintSats: %q is not an eth address", inputs.EthAddress)
	}

	script, err := bitcoin.PayToAddrScript(inputs.BtcAddress, e.params)
	if err != nil {
		return nil, errors.NewTxInvalidError("mintSats: invalid btc address", err)
	}

	// key the utxo by the canonical encoding, as RunTx does for its outputs
	_, address := bitcoin.ScriptAddress(script, e.params)

	msg := wire.NewMsgTx(int32(uint32(inputs.Timestamp >> 32)))
	msg.LockTime = uint32(inputs.Timestamp)
	msg.AddTxOut(wire.NewTxOut(int64(inputs.Satoshis), script))

	txID := msg.TxHash().String()

	if _, exists := state.Transactions[txID]; exists {
		return nil, errors.NewTxInvalidError("mintSats: transaction %s already recorded", txID, errors.ErrTxAlreadyExists)
	}

	next := state.Clone()
	next.addUTXO(UTXO{
		TxID:        txID,
		OutputIndex: 0,
		Address:     address,
		Script:      hex.EncodeToString(script),
		Satoshis:    inputs.Satoshis,
	})
	next.Transactions[txID] = bitcoin.EncodeTx(msg)

	e.logger.Debugf("[Engine] minted %d sats to %s for %s in %s", inputs.Satoshis, address, inputs.EthAddress, txID)

	return next, nil
}

// RunTx applies a signed Bitcoin transaction. Inputs and outputs must balance exactly and the locktime
// must be satisfied by the block context.
func (e *Engine) RunTx(state *State, sender string, inputs model.RunTxInputs, blockCtx model.BlockContext) (*State, error) {
	if !state.IsAdmin(sender) {
		return nil, errors.NewUnauthorizedError("runTx: sender %s is not an admin", sender)
	}

	tx, err := e.parser.Parse(inputs.SerializedTx)
	if err != nil {
		return nil, errors.NewTxInvalidError("runTx: malformed transaction", err)
	}

	if len(tx.Inputs) == 0 {
		return nil, errors.NewTxInvalidError("runTx: transaction %s has no inputs", tx.ID())
	}

	if tx.IsCoinbase() {
		return nil, errors.NewTxInvalidError("runTx: transaction %s is a coinbase", tx.ID())
	}

	if !tx.IsFinalized() {
		return nil, errors.NewTxInvalidError("runTx: transaction %s is not signed", tx.ID())
	}

	if _, exists := state.Transactions[tx.ID()]; exists {
		return nil, errors.NewTxInvalidError("runTx: transaction %s already recorded", tx.ID(), errors.ErrTxAlreadyExists)
	}

	next := state.Clone()

	var inputsSum, outputsSum uint64

	prevOuts := make([]bitcoin.PrevOut, len(tx.Inputs))

	for i, in := range tx.Inputs {
		spent, err := next.spend(in.PrevTxID, in.OutputIndex)
		if err != nil {
			return nil, err
		}

		script, err := hex.DecodeString(spent.Script)
		if err != nil {
			return nil, errors.NewProcessingError("runTx: stored script of %s:%d is not hex", spent.TxID, spent.OutputIndex, err)
		}

		if spent.Satoshis > btcutil.MaxSatoshi-inputsSum {
			return nil, errors.NewTxInvalidError("runTx: inputs of %s exceed the maximum supply", tx.ID())
		}

		prevOuts[i] = bitcoin.PrevOut{Script: script, Value: spent.Satoshis}
		inputsSum += spent.Satoshis
	}

	if e.verifyScripts {
		if err = tx.Verify(prevOuts); err != nil {
			return nil, errors.NewTxInvalidError("runTx: transaction %s failed script verification", tx.ID(), err)
		}
	}

	for i, out := range tx.Outputs {
		if out.Address == "" {
			return nil, errors.NewTxInvalidError("runTx: output %d of %s has a %s script", i, tx.ID(), out.ScriptType)
		}

		// each value is at most MaxSatoshi, so this also rules out wrapping the running total
		if out.Value > btcutil.MaxSatoshi-outputsSum {
			return nil, errors.NewTxInvalidError("runTx: outputs of %s exceed the maximum supply", tx.ID())
		}

		next.addUTXO(UTXO{
			TxID:        tx.ID(),
			OutputIndex: uint32(i),
			Address:     out.Address,
			Script:      hex.EncodeToString(out.Script),
			Satoshis:    out.Value,
		})

		outputsSum += out.Value
	}

	if inputsSum != outputsSum {
		return nil, errors.NewTxImbalanceError("runTx: inputs %d != outputs %d", inputsSum, outputsSum)
	}

	if !util.ValidLockTime(tx.LockTime(), blockCtx.Height, blockCtx.Timestamp) {
		return nil, errors.NewLockTimeError("runTx: locktime %d not reached at height %d, time %d", tx.LockTime(), blockCtx.Height, blockCtx.Timestamp)
	}

	next.Transactions[tx.ID()] = tx.Hex()

	e.logger.Debugf("[Engine] applied %s: %d inputs, %d outputs, %d sats", tx.ID(), len(tx.Inputs), len(tx.Outputs), outputsSum)

	return next, nil
}
