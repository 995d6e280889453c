package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ordishs/gocore"
)

const blockColumns = `height, block_time, parent_root, state_root, action_count, actions`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQL) GetBlock(ctx context.Context, height uint64) (*model.Block, error) {
	defer stat.NewStat("GetBlock").AddTime(gocore.CurrentTime())

	op := s.cache.Begin(fmt.Sprintf("block:%d", height))
	if item := op.Get(); item != nil {
		return item.Value().(*model.Block), nil
	}

	block, err := scanBlock(s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE height = $1`, height))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewBlockNotFoundError("block %d not found", height)
		}

		return nil, errors.NewStorageError("failed to get block %d", height, err)
	}

	op.Set(block, s.cacheTTL)

	return block, nil
}

func scanBlock(row rowScanner) (*model.Block, error) {
	var (
		block       model.Block
		parentRoot  []byte
		stateRoot   []byte
		actionCount int
		actions     []byte
	)

	if err := row.Scan(&block.Height, &block.Timestamp, &parentRoot, &stateRoot, &actionCount, &actions); err != nil {
		return nil, err
	}

	block.ParentRoot = common.BytesToHash(parentRoot)
	block.StateRoot = common.BytesToHash(stateRoot)

	if err := jsonAPI.Unmarshal(actions, &block.Actions); err != nil {
		return nil, errors.NewProcessingError("failed to decode actions of block %d", block.Height, err)
	}

	if len(block.Actions) != actionCount {
		return nil, errors.NewProcessingError("block %d has %d actions, expected %d", block.Height, len(block.Actions), actionCount)
	}

	return &block, nil
}
