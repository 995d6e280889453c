package sequencer

import (
	"sync"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/ethereum/go-ethereum/common"
)

// Pool holds acknowledged actions that were not executed yet, in arrival order.
type Pool struct {
	mu      sync.RWMutex
	actions map[common.Hash]*model.Action
	order   []common.Hash
	maxSize int
}

func NewPool(maxSize int) *Pool {
	return &Pool{
		actions: make(map[common.Hash]*model.Action),
		maxSize: maxSize,
	}
}

func (p *Pool) Add(action *model.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.actions[action.Hash]; ok {
		return errors.NewTxAlreadyExistsError("action %s is already pending", action.Hash)
	}

	if p.maxSize > 0 && len(p.actions) >= p.maxSize {
		return errors.NewServiceError("pending pool is full (%d actions)", p.maxSize)
	}

	p.actions[action.Hash] = action
	p.order = append(p.order, action.Hash)

	return nil
}

func (p *Pool) Get(hash common.Hash) (*model.Action, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	a, ok := p.actions[hash]

	return a, ok
}

// Snapshot returns the pending actions in arrival order.
func (p *Pool) Snapshot() []*model.Action {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*model.Action, 0, len(p.order))
	for _, h := range p.order {
		out = append(out, p.actions[h])
	}

	return out
}

func (p *Pool) Remove(hashes ...common.Hash) {
	if len(hashes) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, h := range hashes {
		delete(p.actions, h)
	}

	order := p.order[:0]

	for _, h := range p.order {
		if _, ok := p.actions[h]; ok {
			order = append(order, h)
		}
	}

	p.order = order
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.actions)
}
