package sql

import (
	"context"
	"database/sql"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
)

// GetState returns the ledger state committed by the block at height. The state is decoded on every call
// so callers own the result.
func (s *SQL) GetState(ctx context.Context, height uint64) (*ledger.State, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx, `
		SELECT ls.data
		FROM ledger_states ls
		INNER JOIN blocks b ON b.id = ls.block_id
		WHERE b.height = $1
	`, height).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewBlockNotFoundError("no state for block %d", height)
		}

		return nil, errors.NewStorageError("failed to get state of block %d", height, err)
	}

	state, err := ledger.NewStateFromBytes(data)
	if err != nil {
		return nil, errors.NewStorageError("state of block %d is corrupt", height, err)
	}

	return state, nil
}
