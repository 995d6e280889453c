package sql

import (
	"bytes"
	"context"
	"database/sql"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/model"
	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("blockchain")

func (s *SQL) StoreBlock(ctx context.Context, block *model.Block, state *ledger.State) error {
	defer stat.NewStat("StoreBlock").AddTime(gocore.CurrentTime())

	if block == nil || state == nil {
		return errors.NewInvalidArgumentError("block and state are required")
	}

	if root := state.RootHash(); root != block.StateRoot {
		return errors.NewInvalidArgumentError("block %d commits to %s but the state hashes to %s", block.Height, block.StateRoot, root)
	}

	actions, err := jsonAPI.Marshal(block.Actions)
	if err != nil {
		return errors.NewProcessingError("failed to encode actions of block %d", block.Height, err)
	}

	stateData, err := state.Bytes()
	if err != nil {
		return errors.NewProcessingError("failed to encode state of block %d", block.Height, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var (
		bestHeight uint64
		bestRoot   []byte
	)

	err = tx.QueryRowContext(ctx, `SELECT height, state_root FROM blocks ORDER BY height DESC LIMIT 1`).Scan(&bestHeight, &bestRoot)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first block of the chain
	case err != nil:
		return errors.NewStorageError("failed to read best block", err)
	default:
		if block.Height != bestHeight+1 {
			return errors.NewInvalidArgumentError("block %d does not extend best block %d", block.Height, bestHeight)
		}

		if !bytes.Equal(bestRoot, block.ParentRoot[:]) {
			return errors.NewInvalidArgumentError("block %d parent root %s does not match best block %d", block.Height, block.ParentRoot, bestHeight)
		}
	}

	var id int64

	if err = tx.QueryRowContext(ctx, `
		INSERT INTO blocks (height, block_time, parent_root, state_root, action_count, actions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, block.Height, block.Timestamp, block.ParentRoot.Bytes(), block.StateRoot.Bytes(), len(block.Actions), actions).Scan(&id); err != nil {
		return errors.NewStorageError("failed to insert block %d", block.Height, err)
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO ledger_states (block_id, data) VALUES ($1, $2)`, id, stateData); err != nil {
		return errors.NewStorageError("failed to insert state of block %d", block.Height, err)
	}

	if err = tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit block %d", block.Height, err)
	}

	s.ResetResponseCache()

	s.logger.Debugf("[StoreBlock] stored block %d with %d actions, root %s", block.Height, len(block.Actions), block.StateRoot)

	return nil
}
