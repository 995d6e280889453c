package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidLockTime(t *testing.T) {
	tests := []struct {
		name      string
		lockTime  uint32
		height    uint64
		timestamp uint64
		want      bool
	}{
		{"zero locktime is always valid", 0, 0, 0, true},
		{"height below locktime", 200, 199, 1_700_000_000, false},
		{"height equal to locktime", 200, 200, 0, true},
		{"height above locktime", 200, 201, 0, true},
		{"largest height locktime", LockTimeThreshold - 1, LockTimeThreshold - 2, 2_000_000_000, false},
		{"timestamp below locktime", 1_800_000_000, 10_000_000, 1_799_999_999, false},
		{"timestamp equal to locktime", 1_800_000_000, 0, 1_800_000_000, true},
		{"threshold is a timestamp", LockTimeThreshold, LockTimeThreshold, LockTimeThreshold - 1, false},
		{"threshold reached by timestamp", LockTimeThreshold, 0, LockTimeThreshold, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidLockTime(tt.lockTime, tt.height, tt.timestamp))
		})
	}
}
