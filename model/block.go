package model

import (
	"github.com/ethereum/go-ethereum/common"
)

// BlockContext is the only source of height and time for transitions and ordering.
type BlockContext struct {
	Height    uint64 `json:"height"`
	Timestamp uint64 `json:"timestamp"` // unix seconds
}

// ActionStatus is the outcome of an action in a block.
type ActionStatus string

const (
	ActionStatusPending  ActionStatus = "pending"
	ActionStatusAccepted ActionStatus = "accepted"
	ActionStatusRejected ActionStatus = "rejected"
)

type ActionResult struct {
	Hash   common.Hash  `json:"hash"`
	Name   string       `json:"name"`
	Sender string       `json:"sender"`
	Status ActionStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

type Block struct {
	Height     uint64         `json:"height"`
	Timestamp  uint64         `json:"timestamp"`
	ParentRoot common.Hash    `json:"parentRoot"`
	StateRoot  common.Hash    `json:"stateRoot"`
	Actions    []ActionResult `json:"actions"`
}

func (b *Block) Context() BlockContext {
	return BlockContext{Height: b.Height, Timestamp: b.Timestamp}
}

// Commitment is the message published for every produced block.
type Commitment struct {
	Height    uint64      `json:"height"`
	Timestamp uint64      `json:"timestamp"`
	StateRoot common.Hash `json:"stateRoot"`
	Actions   int         `json:"actions"`
}

func (b *Block) Commitment() Commitment {
	return Commitment{
		Height:    b.Height,
		Timestamp: b.Timestamp,
		StateRoot: b.StateRoot,
		Actions:   len(b.Actions),
	}
}

// Bytes encodes the block as JSON, the format used by the store and the API.
func (b *Block) Bytes() ([]byte, error) {
	return jsonAPI.Marshal(b)
}

func NewBlockFromBytes(data []byte) (*Block, error) {
	b := &Block{}
	if err := jsonAPI.Unmarshal(data, b); err != nil {
		return nil, err
	}

	return b, nil
}
