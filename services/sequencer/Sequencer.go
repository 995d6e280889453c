// Package sequencer owns the ledger state. It acknowledges signed actions into a pending pool, orders them
// with a Strategy at a fixed block time, applies them one by one and persists every block together with
// the state it commits to.
package sequencer

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/stores/blockchain"
	"github.com/bitcoin-vm/mru/tracing"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util/kafka"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jellydator/ttlcache/v3"
	jsoniter "github.com/json-iterator/go"
	"github.com/looplab/fsm"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type Option func(*Sequencer)

// WithGenesis sets the state used when the store holds no blocks yet, instead of ledger_genesisFile.
func WithGenesis(state *ledger.State) Option {
	return func(s *Sequencer) {
		s.genesis = state
	}
}

func WithStrategy(strategy Strategy) Option {
	return func(s *Sequencer) {
		s.strategy = strategy
	}
}

// WithProducer publishes a commitment for every block.
func WithProducer(producer kafka.KafkaProducerI) Option {
	return func(s *Sequencer) {
		s.producer = producer
	}
}

func WithOperator(operator *Operator) Option {
	return func(s *Sequencer) {
		s.operator = operator
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sequencer) {
		s.now = now
	}
}

type Sequencer struct {
	logger   ulogger.Logger
	settings *settings.Settings
	store    blockchain.Store
	engine   *ledger.Engine
	registry *ledger.Registry
	strategy Strategy
	pool     *Pool
	operator *Operator
	producer kafka.KafkaProducerI
	genesis  *ledger.State
	now      func() time.Time
	fsm      *fsm.FSM

	// mu guards the committed state and best block, blockMu serialises block production
	mu      sync.RWMutex
	state   *ledger.State
	best    *model.Block
	blockMu sync.Mutex

	results  *ttlcache.Cache[common.Hash, *model.ActionResult]
	waitMu   sync.Mutex
	waiters  map[common.Hash][]chan *model.ActionResult
	stopOnce sync.Once
}

func New(logger ulogger.Logger, tSettings *settings.Settings, store blockchain.Store, engine *ledger.Engine, opts ...Option) (*Sequencer, error) {
	initPrometheusMetrics()

	s := &Sequencer{
		logger:   logger,
		settings: tSettings,
		store:    store,
		engine:   engine,
		registry: ledger.NewRegistry(engine),
		strategy: NewLockTimeStrategy(engine.Parser()),
		pool:     NewPool(tSettings.Sequencer.MaxPoolSize),
		now:      time.Now,
		waiters:  make(map[common.Hash][]chan *model.ActionResult),
		results: ttlcache.New[common.Hash, *model.ActionResult](
			ttlcache.WithTTL[common.Hash, *model.ActionResult](tSettings.Sequencer.ConfirmationTTL),
		),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.operator == nil && tSettings.Sequencer.OperatorPrivateKey != "" {
		operator, err := NewOperator(tSettings.Sequencer.OperatorPrivateKey)
		if err != nil {
			return nil, err
		}

		s.operator = operator
	}

	s.fsm = NewFiniteStateMachine(s.persistFSMState)

	go s.results.Start()

	return s, nil
}

func (s *Sequencer) persistFSMState(ctx context.Context, state string) {
	s.logger.Infof("[Sequencer] state changed to %s", state)

	if err := s.store.SetFSMState(context.WithoutCancel(ctx), state); err != nil {
		s.logger.Warnf("[Sequencer] failed to persist state %s: %v", state, err)
	}
}

// loadChain resumes from the best stored block, or stores the genesis state as block 0.
func (s *Sequencer) loadChain(ctx context.Context) error {
	best, err := s.store.GetBestBlock(ctx)

	switch {
	case err == nil:
		state, err := s.store.GetState(ctx, best.Height)
		if err != nil {
			return err
		}

		s.setCommitted(state, best)
		s.logger.Infof("[Sequencer] resuming at block %d, root %s", best.Height, best.StateRoot)

		return nil

	case errors.Is(err, errors.ErrBlockNotFound):
		genesis := s.genesis
		if genesis == nil {
			if s.settings.Ledger.GenesisFile == "" {
				return errors.NewConfigurationError("empty chain and no ledger_genesisFile configured")
			}

			if genesis, err = ledger.LoadGenesisFile(s.settings.Ledger.GenesisFile); err != nil {
				return err
			}
		}

		block := &model.Block{
			Height:    0,
			Timestamp: uint64(s.now().Unix()),
			StateRoot: genesis.RootHash(),
			Actions:   []model.ActionResult{},
		}

		if err = s.store.StoreBlock(ctx, block, genesis); err != nil {
			return err
		}

		s.setCommitted(genesis, block)
		s.logger.Infof("[Sequencer] stored genesis block, root %s", block.StateRoot)

		return nil

	default:
		return err
	}
}

func (s *Sequencer) setCommitted(state *ledger.State, block *model.Block) {
	s.mu.Lock()
	s.state = state
	s.best = block
	s.mu.Unlock()

	prometheusSequencerBlockHeight.Set(float64(block.Height))
}

// SubmitAction acknowledges a signed action into the pool. The returned result is pending; the final
// outcome is delivered through WaitForConfirmation.
func (s *Sequencer) SubmitAction(ctx context.Context, action *model.Action) (_ *model.ActionResult, err error) {
	if action == nil {
		return nil, errors.NewInvalidArgumentError("missing action")
	}

	_, _, endSpan := tracing.StartTracing(ctx, "SubmitAction",
		tracing.WithParentStat(sequencerStat),
		tracing.WithTag("action", action.Name),
	)
	defer func() {
		endSpan(err)
	}()

	if !s.registry.Has(action.Name) {
		return nil, errors.NewInvalidArgumentError("unknown action %q", action.Name)
	}

	if err = action.VerifySignature(); err != nil {
		return nil, err
	}

	if r, ok := s.GetResult(action.Hash); ok && r.Status != model.ActionStatusPending {
		return nil, errors.NewTxAlreadyExistsError("action %s was already executed", action.Hash)
	}

	action.AcknowledgementTimestamp = s.now().UnixMilli()

	if err = s.pool.Add(action); err != nil {
		return nil, err
	}

	result := &model.ActionResult{
		Hash:   action.Hash,
		Name:   action.Name,
		Sender: action.Sender,
		Status: model.ActionStatusPending,
	}

	s.results.Set(action.Hash, result, ttlcache.DefaultTTL)

	prometheusSequencerSubmitted.Inc()
	prometheusSequencerPoolSize.Set(float64(s.pool.Len()))

	s.logger.Debugf("[Sequencer] acknowledged %s %s from %s", action.Name, action.Hash, action.Sender)

	r := *result

	return &r, nil
}

// SubmitOperatorAction signs inputs with the operator key and submits the action.
func (s *Sequencer) SubmitOperatorAction(ctx context.Context, name string, inputs interface{}) (*model.ActionResult, error) {
	if s.operator == nil {
		return nil, errors.NewConfigurationError("sequencer_operatorPrivateKey is not configured")
	}

	action, err := s.operator.NewAction(name, inputs)
	if err != nil {
		return nil, err
	}

	return s.SubmitAction(ctx, action)
}

// SubmitRawTransaction pre-validates a serialized transaction and submits it as an operator runTx.
// Transactions without inputs and coinbases never reach the pool.
func (s *Sequencer) SubmitRawTransaction(ctx context.Context, txHex string) (*model.ActionResult, error) {
	tx, err := s.engine.Parser().Parse(txHex)
	if err != nil {
		return nil, errors.NewTxInvalidError("malformed transaction", err)
	}

	if len(tx.Inputs) == 0 {
		return nil, errors.NewTxInvalidError("transaction %s has no inputs", tx.ID())
	}

	if tx.IsCoinbase() {
		return nil, errors.NewTxInvalidError("transaction %s is a coinbase", tx.ID())
	}

	return s.SubmitOperatorAction(ctx, model.ActionRunTx, model.RunTxInputs{SerializedTx: txHex})
}

func (s *Sequencer) GetResult(hash common.Hash) (*model.ActionResult, bool) {
	item := s.results.Get(hash)
	if item == nil {
		return nil, false
	}

	r := *item.Value()

	return &r, true
}

// WaitForConfirmation blocks until the action was included in a block or ctx is done.
func (s *Sequencer) WaitForConfirmation(ctx context.Context, hash common.Hash) (*model.ActionResult, error) {
	s.waitMu.Lock()

	r, ok := s.GetResult(hash)
	if !ok {
		// results of long deferred actions may have expired while they are still pooled
		if _, pooled := s.pool.Get(hash); !pooled {
			s.waitMu.Unlock()
			return nil, errors.NewNotFoundError("action %s is unknown", hash)
		}
	} else if r.Status != model.ActionStatusPending {
		s.waitMu.Unlock()
		return r, nil
	}

	ch := make(chan *model.ActionResult, 1)
	s.waiters[hash] = append(s.waiters[hash], ch)
	s.waitMu.Unlock()

	select {
	case r = <-ch:
		return r, nil
	case <-ctx.Done():
		s.removeWaiter(hash, ch)
		return nil, errors.NewContextCanceledError("stopped waiting for %s", hash, ctx.Err())
	}
}

func (s *Sequencer) removeWaiter(hash common.Hash, ch chan *model.ActionResult) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()

	waiters := s.waiters[hash]
	for i, w := range waiters {
		if w == ch {
			waiters = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}

	if len(waiters) == 0 {
		delete(s.waiters, hash)
	} else {
		s.waiters[hash] = waiters
	}
}

func (s *Sequencer) confirm(results []model.ActionResult) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()

	for i := range results {
		r := results[i]
		s.results.Set(r.Hash, &r, ttlcache.DefaultTTL)

		for _, ch := range s.waiters[r.Hash] {
			c := r
			ch <- &c
		}

		delete(s.waiters, r.Hash)
	}
}

// ProduceBlock runs one round: snapshot the pool, order it against the next block context, apply the
// ordered actions and persist the block. It returns nil without a block when nothing is ready and empty
// blocks are disabled.
func (s *Sequencer) ProduceBlock(ctx context.Context) (_ *model.Block, err error) {
	s.blockMu.Lock()
	defer s.blockMu.Unlock()

	ctx, _, endSpan := tracing.StartTracing(ctx, "ProduceBlock", tracing.WithParentStat(sequencerStat))
	defer func() {
		endSpan(err)
	}()

	start := time.Now()

	s.mu.RLock()
	state, parent := s.state, s.best
	s.mu.RUnlock()

	if parent == nil {
		return nil, errors.NewServiceError("sequencer is not initialised")
	}

	timestamp := uint64(s.now().Unix())
	if timestamp < parent.Timestamp {
		timestamp = parent.Timestamp
	}

	blockCtx := model.BlockContext{Height: parent.Height + 1, Timestamp: timestamp}

	pending := s.pool.Snapshot()
	ordered := s.strategy.Order(pending, blockCtx)

	if size := s.settings.Sequencer.BlockSize; size > 0 && len(ordered) > size {
		ordered = ordered[:size]
	}

	prometheusSequencerActionsDeferred.Set(float64(len(pending) - len(ordered)))

	if len(ordered) == 0 && !s.settings.Sequencer.AllowEmptyBlocks {
		return nil, nil
	}

	results := make([]model.ActionResult, 0, len(ordered))

	for _, hash := range ordered {
		action, ok := s.pool.Get(hash)
		if !ok {
			continue
		}

		result := model.ActionResult{
			Hash:   action.Hash,
			Name:   action.Name,
			Sender: action.Sender,
			Status: model.ActionStatusAccepted,
		}

		next, err := s.registry.Apply(state, action, blockCtx)
		if err != nil {
			result.Status = model.ActionStatusRejected
			result.Error = err.Error()

			prometheusSequencerActionsRejected.WithLabelValues(action.Name, errors.CodeOf(err).String()).Inc()
			s.logger.Infof("[Sequencer] block %d: rejected %s %s: %v", blockCtx.Height, action.Name, action.Hash, err)
		} else {
			state = next

			prometheusSequencerActionsApplied.WithLabelValues(action.Name).Inc()
		}

		results = append(results, result)
	}

	block := &model.Block{
		Height:     blockCtx.Height,
		Timestamp:  blockCtx.Timestamp,
		ParentRoot: parent.StateRoot,
		StateRoot:  state.RootHash(),
		Actions:    results,
	}

	if err = s.store.StoreBlock(ctx, block, state); err != nil {
		return nil, err
	}

	s.setCommitted(state, block)
	s.pool.Remove(ordered...)
	s.confirm(results)
	s.publish(block)

	prometheusSequencerBlocks.Inc()
	prometheusSequencerBlockActions.Observe(float64(len(results)))
	prometheusSequencerBlockDuration.Observe(time.Since(start).Seconds())
	prometheusSequencerPoolSize.Set(float64(s.pool.Len()))

	s.logger.Infof("[Sequencer] block %d: %d actions, root %s", block.Height, len(results), block.StateRoot)

	return block, nil
}

func (s *Sequencer) publish(block *model.Block) {
	if s.producer == nil {
		return
	}

	data, err := jsonAPI.Marshal(block.Commitment())
	if err != nil {
		s.logger.Errorf("[Sequencer] failed to encode commitment of block %d: %v", block.Height, err)
		return
	}

	key := binary.LittleEndian.AppendUint64(nil, block.Height)

	if err = s.producer.Send(key, data); err != nil {
		s.logger.Errorf("[Sequencer] failed to publish commitment of block %d: %v", block.Height, err)
	}
}

// State returns a copy of the committed state.
func (s *Sequencer) State() *ledger.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil
	}

	return s.state.Clone()
}

// View runs fn against the committed state under the read lock. fn must not keep the state.
func (s *Sequencer) View(fn func(state *ledger.State) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return errors.NewServiceError("sequencer is not initialised")
	}

	return fn(s.state)
}

func (s *Sequencer) BestBlock() *model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.best
}

func (s *Sequencer) Engine() *ledger.Engine {
	return s.engine
}

func (s *Sequencer) Operator() *Operator {
	return s.operator
}

func (s *Sequencer) PendingActions() int {
	return s.pool.Len()
}

func (s *Sequencer) CurrentState() string {
	return s.fsm.Current()
}
