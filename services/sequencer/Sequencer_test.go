package sequencer

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/bitcoin-vm/mru/bitcoin/bitcointest"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/ledger"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/stores/blockchain"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/bitcoin-vm/mru/util/kafka"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	seq      *Sequencer
	store    blockchain.Store
	operator *Operator
	settings *settings.Settings
	genesis  *ledger.State
	clock    time.Time
}

func testSettings() *settings.Settings {
	return &settings.Settings{
		Network:        "regtest",
		ChainCfgParams: &chaincfg.RegressionNetParams,
		Ledger:         settings.LedgerSettings{VerifyScripts: true},
		Sequencer: settings.SequencerSettings{
			BlockTime:       10 * time.Millisecond,
			BlockSize:       10,
			ConfirmationTTL: time.Minute,
			MaxPoolSize:     100,
		},
	}
}

func newHarness(t *testing.T, tSettings *settings.Settings, opts ...Option) *harness {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	operator := NewOperatorFromKey(key)

	genesis, err := ledger.NewState(operator.Address().Hex())
	require.NoError(t, err)

	storeURL, err := url.Parse("sqlitememory:///blockchain")
	require.NoError(t, err)

	store, err := blockchain.NewStore(ulogger.TestLogger{}, storeURL, t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	h := &harness{store: store, operator: operator, settings: tSettings, genesis: genesis, clock: time.Unix(1_700_000_000, 0)}
	h.seq = h.newSequencer(t, opts...)

	return h
}

func (h *harness) newSequencer(t *testing.T, opts ...Option) *Sequencer {
	engine := ledger.NewEngine(ulogger.TestLogger{}, h.settings.ChainCfgParams)

	opts = append([]Option{
		WithGenesis(h.genesis),
		WithOperator(h.operator),
		WithClock(func() time.Time { return h.clock }),
	}, opts...)

	seq, err := New(ulogger.TestLogger{}, h.settings, h.store, engine, opts...)
	require.NoError(t, err)

	require.NoError(t, seq.Init(context.Background()))

	t.Cleanup(func() {
		_ = seq.Stop(context.Background())
	})

	return seq
}

func (h *harness) mint(t *testing.T, address string, sats, nonce uint64) *model.ActionResult {
	r, err := h.seq.SubmitOperatorAction(context.Background(), model.ActionMintSats, model.MintSatsInputs{
		EthAddress: h.operator.Address().Hex(),
		BtcAddress: address,
		Satoshis:   sats,
		Timestamp:  nonce,
	})
	require.NoError(t, err)

	return r
}

func (h *harness) produce(t *testing.T) *model.Block {
	h.clock = h.clock.Add(time.Second)

	block, err := h.seq.ProduceBlock(context.Background())
	require.NoError(t, err)

	return block
}

func TestGenesisBlock(t *testing.T) {
	h := newHarness(t, testSettings())

	best := h.seq.BestBlock()
	require.NotNil(t, best)
	assert.Equal(t, uint64(0), best.Height)
	assert.Equal(t, h.genesis.RootHash(), best.StateRoot)

	stored, err := h.store.GetBestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, best.StateRoot, stored.StateRoot)
}

func TestMintAndTransfer(t *testing.T) {
	h := newHarness(t, testSettings())
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)
	y := bitcointest.NewSegwitWallet(t, h.settings.ChainCfgParams)

	ack := h.mint(t, x.Address, 500, 1)
	assert.Equal(t, model.ActionStatusPending, ack.Status)
	assert.Equal(t, 1, h.seq.PendingActions())

	block := h.produce(t)
	require.NotNil(t, block)
	assert.Equal(t, uint64(1), block.Height)
	require.Len(t, block.Actions, 1)
	assert.Equal(t, model.ActionStatusAccepted, block.Actions[0].Status)
	assert.Equal(t, 0, h.seq.PendingActions())

	confirmed, err := h.seq.WaitForConfirmation(context.Background(), ack.Hash)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusAccepted, confirmed.Status)

	state := h.seq.State()
	assert.Equal(t, uint64(500), state.Balance(x.Address))
	assert.Equal(t, block.StateRoot, state.RootHash())

	utxo := state.UTXOsByAddress(x.Address)[0]
	txHex := x.Spend(t, []bitcointest.Coin{{TxID: utxo.TxID, Value: 500}}, []bitcointest.Payment{
		{Address: y.Address, Value: 300},
		{Address: x.Address, Value: 200},
	}, 0)

	_, err = h.seq.SubmitRawTransaction(context.Background(), txHex)
	require.NoError(t, err)

	block = h.produce(t)
	require.NotNil(t, block)
	assert.Equal(t, model.ActionStatusAccepted, block.Actions[0].Status)

	require.NoError(t, h.seq.View(func(state *ledger.State) error {
		assert.Equal(t, uint64(300), state.Balance(y.Address))
		assert.Equal(t, uint64(200), state.Balance(x.Address))

		return nil
	}))
}

func TestRejectedActionKeepsState(t *testing.T) {
	h := newHarness(t, testSettings())
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)
	y := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	h.mint(t, x.Address, 100, 1)
	h.produce(t)

	before := h.seq.BestBlock().StateRoot
	utxo := h.seq.State().UTXOsByAddress(x.Address)[0]

	imbalanced := x.Spend(t, []bitcointest.Coin{{TxID: utxo.TxID, Value: 100}}, []bitcointest.Payment{{Address: y.Address, Value: 90}}, 0)

	ack, err := h.seq.SubmitRawTransaction(context.Background(), imbalanced)
	require.NoError(t, err)

	block := h.produce(t)
	require.NotNil(t, block)
	require.Len(t, block.Actions, 1)
	assert.Equal(t, model.ActionStatusRejected, block.Actions[0].Status)
	assert.Contains(t, block.Actions[0].Error, "TX_IMBALANCE")
	assert.Equal(t, before, block.StateRoot)

	result, ok := h.seq.GetResult(ack.Hash)
	require.True(t, ok)
	assert.Equal(t, model.ActionStatusRejected, result.Status)

	// executed actions cannot be resubmitted
	_, err = h.seq.SubmitRawTransaction(context.Background(), imbalanced)
	assert.True(t, errors.Is(err, errors.ErrTxAlreadyExists))
}

// Scenario C through the whole round: the locked transaction stays pooled until the chain reaches it.
func TestLockedTransactionIsDeferred(t *testing.T) {
	tSettings := testSettings()
	tSettings.Sequencer.AllowEmptyBlocks = true

	h := newHarness(t, tSettings)
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	h.mint(t, x.Address, 100, 1)
	h.produce(t)

	utxo := h.seq.State().UTXOsByAddress(x.Address)[0]
	locked := x.Spend(t, []bitcointest.Coin{{TxID: utxo.TxID, Value: 100}}, []bitcointest.Payment{{Address: x.Address, Value: 100}}, 5)

	ack, err := h.seq.SubmitRawTransaction(context.Background(), locked)
	require.NoError(t, err)

	for height := uint64(2); height < 5; height++ {
		block := h.produce(t)
		require.Equal(t, height, block.Height)
		assert.Empty(t, block.Actions)
		assert.Equal(t, 1, h.seq.PendingActions())
	}

	block := h.produce(t)
	require.Equal(t, uint64(5), block.Height)
	require.Len(t, block.Actions, 1)
	assert.Equal(t, ack.Hash, block.Actions[0].Hash)
	assert.Equal(t, model.ActionStatusAccepted, block.Actions[0].Status)
}

func TestNoEmptyBlocks(t *testing.T) {
	h := newHarness(t, testSettings())

	block, err := h.seq.ProduceBlock(context.Background())
	require.NoError(t, err)
	assert.Nil(t, block)
	assert.Equal(t, uint64(0), h.seq.BestBlock().Height)
}

func TestBlockSize(t *testing.T) {
	tSettings := testSettings()
	tSettings.Sequencer.BlockSize = 1

	h := newHarness(t, tSettings)
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	first := h.mint(t, x.Address, 1, 1)
	h.clock = h.clock.Add(time.Millisecond)
	second := h.mint(t, x.Address, 2, 2)

	block := h.produce(t)
	require.Len(t, block.Actions, 1)
	assert.Equal(t, first.Hash, block.Actions[0].Hash)

	block = h.produce(t)
	require.Len(t, block.Actions, 1)
	assert.Equal(t, second.Hash, block.Actions[0].Hash)
}

func TestSubmitActionValidation(t *testing.T) {
	h := newHarness(t, testSettings())
	ctx := context.Background()

	_, err := h.seq.SubmitAction(ctx, nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	unknown, err := h.operator.NewAction("burn", map[string]int{"sats": 1})
	require.NoError(t, err)

	_, err = h.seq.SubmitAction(ctx, unknown)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	unsigned, err := model.NewAction(model.ActionMintSats, model.MintSatsInputs{Satoshis: 1}, h.operator.Address().Hex())
	require.NoError(t, err)

	_, err = h.seq.SubmitAction(ctx, unsigned)
	assert.True(t, errors.Is(err, errors.ErrUnauthorized))

	_, err = h.seq.SubmitRawTransaction(ctx, "zz")
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))

	_, coinbase := bitcointest.FundingTx(t, h.settings.ChainCfgParams, bitcointest.Payment{Address: bitcointest.NewWallet(t, h.settings.ChainCfgParams).Address, Value: 1})

	_, err = h.seq.SubmitRawTransaction(ctx, coinbase)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	assert.Equal(t, 0, h.seq.PendingActions())
}

func TestWaitForConfirmation(t *testing.T) {
	h := newHarness(t, testSettings())
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	_, err := h.seq.WaitForConfirmation(context.Background(), [32]byte{1})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	ack := h.mint(t, x.Address, 1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = h.seq.WaitForConfirmation(ctx, ack.Hash)
	assert.True(t, errors.Is(err, errors.ErrContextCanceled))

	done := make(chan *model.ActionResult)

	go func() {
		r, err := h.seq.WaitForConfirmation(context.Background(), ack.Hash)
		assert.NoError(t, err)
		done <- r
	}()

	require.Eventually(t, func() bool {
		h.seq.waitMu.Lock()
		defer h.seq.waitMu.Unlock()

		return len(h.seq.waiters[ack.Hash]) == 1
	}, time.Second, time.Millisecond)

	h.produce(t)

	select {
	case r := <-done:
		assert.Equal(t, model.ActionStatusAccepted, r.Status)
	case <-time.After(time.Second):
		t.Fatal("confirmation not delivered")
	}
}

func TestResumeFromStore(t *testing.T) {
	h := newHarness(t, testSettings())
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	h.mint(t, x.Address, 42, 1)
	block := h.produce(t)

	// a new sequencer on the same store ignores genesis and continues from block 1
	h.genesis, _ = ledger.NewState(h.operator.Address().Hex(), "0x2222222222222222222222222222222222222222")
	resumed := h.newSequencer(t)

	assert.Equal(t, block.Height, resumed.BestBlock().Height)
	assert.Equal(t, block.StateRoot, resumed.State().RootHash())
	assert.Equal(t, uint64(42), resumed.State().Balance(x.Address))
}

func TestCommitmentsArePublished(t *testing.T) {
	config := mocks.NewTestConfig()
	config.Producer.Return.Successes = true

	mockProducer := mocks.NewSyncProducer(t, config)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var c model.Commitment
		if err := jsonAPI.Unmarshal(val, &c); err != nil {
			return err
		}

		if c.Height != 1 || c.Actions != 1 {
			return errors.NewProcessingError("unexpected commitment %+v", c)
		}

		return nil
	})

	h := newHarness(t, testSettings(), WithProducer(kafka.NewSyncKafkaProducer(mockProducer, "commitments", 1)))
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	h.mint(t, x.Address, 1, 1)
	h.produce(t)
}

func TestStartStop(t *testing.T) {
	h := newHarness(t, testSettings())
	x := bitcointest.NewWallet(t, h.settings.ChainCfgParams)

	status, _, err := h.seq.Health(context.Background(), false)
	assert.Error(t, err)
	assert.Equal(t, 503, status)

	ctx, cancel := context.WithCancel(context.Background())
	readyCh := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		errCh <- h.seq.Start(ctx, readyCh)
	}()

	<-readyCh
	assert.Equal(t, StateRunning, h.seq.CurrentState())

	ack := h.mint(t, x.Address, 5, 1)

	r, err := h.seq.WaitForConfirmation(context.Background(), ack.Hash)
	require.NoError(t, err)
	assert.Equal(t, model.ActionStatusAccepted, r.Status)

	status, body, err := h.seq.Health(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Contains(t, body, `"state":"RUNNING"`)

	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, h.seq.Stop(context.Background()))
	assert.Equal(t, StateStopped, h.seq.CurrentState())

	persisted, err := h.store.GetFSMState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateStopped, persisted)
}
