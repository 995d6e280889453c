package sql

import (
	"context"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
)

// GetLastNBlocks returns up to n blocks, highest first.
func (s *SQL) GetLastNBlocks(ctx context.Context, n uint64) ([]*model.Block, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+blockColumns+` FROM blocks ORDER BY height DESC LIMIT $1`, n)
	if err != nil {
		return nil, errors.NewStorageError("failed to get last %d blocks", n, err)
	}

	defer rows.Close()

	blocks := make([]*model.Block, 0)

	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, errors.NewStorageError("failed to scan block", err)
		}

		blocks = append(blocks, block)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to iterate blocks", err)
	}

	return blocks, nil
}
