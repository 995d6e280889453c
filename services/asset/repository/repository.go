// Package repository is the read and submission side of the asset service. It answers queries from the
// committed ledger state and the block store and forwards submissions to the sequencer.
package repository

import (
	"context"
	"net/http"
	"time"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/stores/blockchain"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the part of the sequencer the repository needs.
type Ledger interface {
	View(fn func(state *ledger.State) error) error
	BestBlock() *model.Block
	SubmitAction(ctx context.Context, action *model.Action) (*model.ActionResult, error)
	SubmitRawTransaction(ctx context.Context, txHex string) (*model.ActionResult, error)
	GetResult(hash common.Hash) (*model.ActionResult, bool)
	WaitForConfirmation(ctx context.Context, hash common.Hash) (*model.ActionResult, error)
}

type ScriptPubKey struct {
	Hex  string `json:"hex"`
	Type string `json:"type"`
}

// UTXO is the wallet facing view of an unspent output.
type UTXO struct {
	TxID         string       `json:"txid"`
	N            uint32       `json:"n"`
	Sats         uint64       `json:"sats"`
	ScriptPubKey ScriptPubKey `json:"scriptPubKey"`
}

type Repository struct {
	logger ulogger.Logger
	ledger Ledger
	store  blockchain.Store
	params *bitcoin.Params
}

func NewRepository(logger ulogger.Logger, l Ledger, store blockchain.Store, params *bitcoin.Params) *Repository {
	return &Repository{
		logger: logger,
		ledger: l,
		store:  store,
		params: params,
	}
}

func (r *Repository) Health(ctx context.Context) (int, string, error) {
	if r.ledger.BestBlock() == nil {
		return http.StatusServiceUnavailable, "ledger not loaded", errors.NewServiceError("ledger not loaded")
	}

	return r.store.Health(ctx, false)
}

func (r *Repository) GetState() (*ledger.State, error) {
	var clone *ledger.State

	err := r.ledger.View(func(state *ledger.State) error {
		clone = state.Clone()
		return nil
	})

	return clone, err
}

func (r *Repository) GetRoots() (ledger.Roots, error) {
	var roots ledger.Roots

	err := r.ledger.View(func(state *ledger.State) error {
		roots = state.Roots()
		return nil
	})

	return roots, err
}

func (r *Repository) GetBalance(address string) (uint64, error) {
	var balance uint64

	err := r.ledger.View(func(state *ledger.State) error {
		balance = state.Balance(address)
		return nil
	})

	return balance, err
}

func (r *Repository) ListUTXOs(address string) ([]UTXO, error) {
	var utxos []ledger.UTXO

	err := r.ledger.View(func(state *ledger.State) error {
		utxos = state.UTXOsByAddress(address)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.toResponse(utxos), nil
}

// SelectUTXOsForAmount returns the smallest first selection covering amount, or an InsufficientFunds
// error naming the balance.
func (r *Repository) SelectUTXOsForAmount(address string, amount uint64) ([]UTXO, error) {
	var (
		selected []ledger.UTXO
		enough   bool
	)

	err := r.ledger.View(func(state *ledger.State) error {
		selected, enough = state.SelectUTXOsForAmount(address, amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !enough {
		var total uint64
		for _, u := range selected {
			total += u.Satoshis
		}

		return nil, errors.NewInsufficientFundsError("address %s holds %d sats, %d requested", address, total, amount)
	}

	return r.toResponse(selected), nil
}

func (r *Repository) toResponse(utxos []ledger.UTXO) []UTXO {
	out := make([]UTXO, len(utxos))

	for i, u := range utxos {
		out[i] = UTXO{
			TxID: u.TxID,
			N:    u.OutputIndex,
			Sats: u.Satoshis,
			ScriptPubKey: ScriptPubKey{
				Hex:  u.Script,
				Type: bitcoin.ScriptTypeOfHex(u.Script, r.params),
			},
		}
	}

	return out
}

func (r *Repository) GetTransaction(txID string) (string, error) {
	var payload string

	err := r.ledger.View(func(state *ledger.State) (err error) {
		payload, err = state.GetTransaction(txID)
		return err
	})

	return payload, err
}

func (r *Repository) GetBlock(ctx context.Context, height uint64) (*model.Block, error) {
	return r.store.GetBlock(ctx, height)
}

func (r *Repository) GetBestBlock() (*model.Block, error) {
	best := r.ledger.BestBlock()
	if best == nil {
		return nil, errors.NewBlockNotFoundError("no blocks yet")
	}

	return best, nil
}

func (r *Repository) GetLastNBlocks(ctx context.Context, n uint64) ([]*model.Block, error) {
	return r.store.GetLastNBlocks(ctx, n)
}

func (r *Repository) SubmitRawTransaction(ctx context.Context, txHex string) (*model.ActionResult, error) {
	return r.ledger.SubmitRawTransaction(ctx, txHex)
}

func (r *Repository) SubmitAction(ctx context.Context, action *model.Action) (*model.ActionResult, error) {
	return r.ledger.SubmitAction(ctx, action)
}

// GetActionResult returns the current result of an action. With a positive wait it blocks up to wait for
// the action to be included in a block.
func (r *Repository) GetActionResult(ctx context.Context, hash common.Hash, wait time.Duration) (*model.ActionResult, error) {
	if wait <= 0 {
		result, ok := r.ledger.GetResult(hash)
		if !ok {
			return nil, errors.NewNotFoundError("action %s is unknown", hash)
		}

		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	return r.ledger.WaitForConfirmation(ctx, hash)
}
