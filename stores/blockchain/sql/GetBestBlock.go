package sql

import (
	"context"
	"database/sql"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
)

// GetBestBlock returns the highest block, or a BlockNotFound error on an empty chain.
func (s *SQL) GetBestBlock(ctx context.Context) (*model.Block, error) {
	op := s.cache.Begin("best")
	if item := op.Get(); item != nil {
		return item.Value().(*model.Block), nil
	}

	block, err := scanBlock(s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks ORDER BY height DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewBlockNotFoundError("no blocks stored")
		}

		return nil, errors.NewStorageError("failed to get best block", err)
	}

	op.Set(block, s.cacheTTL)

	return block, nil
}
