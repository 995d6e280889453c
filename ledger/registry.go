package ledger

import (
	"encoding/json"
	"sort"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
)

// Handler is a transition with a uniform signature.
type Handler func(state *State, sender string, inputs json.RawMessage, blockCtx model.BlockContext) (*State, error)

// Registry dispatches actions by name.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry registers mintSats and runTx of the engine.
func NewRegistry(engine *Engine) *Registry {
	r := &Registry{handlers: map[string]Handler{}}

	r.Register(model.ActionMintSats, func(state *State, sender string, raw json.RawMessage, blockCtx model.BlockContext) (*State, error) {
		var inputs model.MintSatsInputs
		if err := jsonAPI.Unmarshal(raw, &inputs); err != nil {
			return nil, errors.NewTxInvalidError("mintSats: malformed inputs", err)
		}

		return engine.MintSats(state, sender, inputs, blockCtx)
	})

	r.Register(model.ActionRunTx, func(state *State, sender string, raw json.RawMessage, blockCtx model.BlockContext) (*State, error) {
		var inputs model.RunTxInputs
		if err := jsonAPI.Unmarshal(raw, &inputs); err != nil {
			return nil, errors.NewTxInvalidError("runTx: malformed inputs", err)
		}

		return engine.RunTx(state, sender, inputs, blockCtx)
	})

	return r
}

func (r *Registry) Register(name string, handler Handler) {
	r.handlers[name] = handler
}

func (r *Registry) Has(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Apply runs the handler for the action. On error the returned state is nil and state is unchanged.
func (r *Registry) Apply(state *State, action *model.Action, blockCtx model.BlockContext) (*State, error) {
	handler, ok := r.handlers[action.Name]
	if !ok {
		return nil, errors.NewInvalidArgumentError("unknown action %q", action.Name)
	}

	return handler(state, action.Sender, action.Inputs, blockCtx)
}
