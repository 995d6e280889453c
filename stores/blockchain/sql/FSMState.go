package sql

import (
	"context"
	"database/sql"

	"github.com/bitcoin-vm/mru/errors"
)

// GetFSMState returns the last persisted sequencer state, or "" when none was stored.
func (s *SQL) GetFSMState(ctx context.Context) (string, error) {
	var data []byte

	err := s.db.QueryRowContext(ctx, `SELECT data FROM state WHERE key = $1`, fsmStateKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", errors.NewStorageError("failed to get FSM state", err)
	}

	return string(data), nil
}

func (s *SQL) SetFSMState(ctx context.Context, fsmState string) error {
	const query = `
        INSERT INTO state (key, data, updated_at)
        VALUES ($1, $2, CURRENT_TIMESTAMP)
        ON CONFLICT (key) DO UPDATE SET
            data = EXCLUDED.data,
            updated_at = EXCLUDED.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, fsmStateKey, []byte(fsmState)); err != nil {
		return errors.NewStorageError("failed to set FSM state", err)
	}

	return nil
}
