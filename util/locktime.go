package util

// LockTimeThreshold separates height based locktimes (below) from unix timestamp locktimes (at or above).
const LockTimeThreshold = 500_000_000

// ValidLockTime reports whether a transaction with the given nLockTime may be included in a block with
// the given height and timestamp (unix seconds). It is evaluated against the block context only, never the
// wall clock, so the ordering policy and the transition engine always agree.
func ValidLockTime(lockTime uint32, blockHeight uint64, blockTimestamp uint64) bool {
	if lockTime == 0 {
		return true
	}

	if lockTime < LockTimeThreshold {
		return blockHeight >= uint64(lockTime)
	}

	return blockTimestamp >= uint64(lockTime)
}
