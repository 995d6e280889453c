// Package blockchain persists produced blocks together with the ledger state they commit to.
package blockchain

import (
	"context"

	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/model"
)

type Store interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	// StoreBlock saves the block and the state snapshot in one transaction. The block must extend the
	// best block and its state root must match the snapshot.
	StoreBlock(ctx context.Context, block *model.Block, state *ledger.State) error
	GetBlock(ctx context.Context, height uint64) (*model.Block, error)
	GetBestBlock(ctx context.Context) (*model.Block, error)
	GetLastNBlocks(ctx context.Context, n uint64) ([]*model.Block, error)
	GetState(ctx context.Context, height uint64) (*ledger.State, error)
	GetFSMState(ctx context.Context) (string, error)
	SetFSMState(ctx context.Context, fsmState string) error
	Close() error
}
