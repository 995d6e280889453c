package sequencer

import (
	"sort"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/util"
	"github.com/ethereum/go-ethereum/common"
)

// Strategy decides which pending actions go into the next block and in which order.
type Strategy interface {
	Order(actions []*model.Action, blockCtx model.BlockContext) []common.Hash
}

// LockTimeStrategy holds back runTx actions whose locktime is not reached at the block being built. Every
// other action, and runTx actions that do not parse, pass through so the engine can reject them. The result
// is sorted by acknowledgement time, ties keep pool order.
type LockTimeStrategy struct {
	parser bitcoin.Parser
}

func NewLockTimeStrategy(parser bitcoin.Parser) *LockTimeStrategy {
	return &LockTimeStrategy{parser: parser}
}

func (s *LockTimeStrategy) Order(actions []*model.Action, blockCtx model.BlockContext) []common.Hash {
	selected := make([]*model.Action, 0, len(actions))

	for _, a := range actions {
		if a.Name == model.ActionRunTx && !s.mature(a, blockCtx) {
			continue
		}

		selected = append(selected, a)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].AcknowledgementTimestamp < selected[j].AcknowledgementTimestamp
	})

	hashes := make([]common.Hash, len(selected))
	for i, a := range selected {
		hashes[i] = a.Hash
	}

	return hashes
}

func (s *LockTimeStrategy) mature(a *model.Action, blockCtx model.BlockContext) bool {
	var inputs model.RunTxInputs
	if err := a.DecodeInputs(&inputs); err != nil {
		return true
	}

	tx, err := s.parser.Parse(inputs.SerializedTx)
	if err != nil {
		return true
	}

	return util.ValidLockTime(tx.LockTime(), blockCtx.Height, blockCtx.Timestamp)
}
