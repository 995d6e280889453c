package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/bitcoin-vm/mru/model"
	"github.com/bitcoin-vm/mru/settings"
	"github.com/bitcoin-vm/mru/ulogger"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	submitter  = "0x3333333333333333333333333333333333333333"
	btcAddress = "mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	mints []model.MintSatsInputs
	seen  map[uint64]bool
	err   error
}

func (f *fakeSubmitter) SubmitOperatorAction(_ context.Context, name string, inputs interface{}) (*model.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	mint, ok := inputs.(model.MintSatsInputs)
	if name != model.ActionMintSats || !ok {
		return nil, errors.NewInvalidArgumentError("unexpected action %s", name)
	}

	if f.seen == nil {
		f.seen = map[uint64]bool{}
	}

	if f.seen[mint.Timestamp] {
		return nil, errors.NewTxAlreadyExistsError("ticket %d", mint.Timestamp)
	}

	f.seen[mint.Timestamp] = true
	f.mints = append(f.mints, mint)

	return &model.ActionResult{Status: model.ActionStatusPending}, nil
}

func ticketJSON(t *testing.T, number uint64, from string, data []byte) []byte {
	t.Helper()

	return []byte(fmt.Sprintf(`{"handler":%q,"ticketNumber":%d,"submitter":%q,"data":%q}`,
		HandlerWBTC, number, from, hexutil.Encode(data)))
}

func wbtcData(t *testing.T, address string, sats uint64) []byte {
	t.Helper()

	data, err := EncodeWBTCData(address, sats)
	require.NoError(t, err)

	return data
}

func TestDecodeWBTC(t *testing.T) {
	ticket := Ticket{Handler: HandlerWBTC, TicketNumber: 4, Submitter: submitter, Data: wbtcData(t, btcAddress, 2500)}

	deposit, err := ticket.DecodeWBTC()
	require.NoError(t, err)
	assert.Equal(t, &Deposit{BtcAddress: btcAddress, Satoshis: 2500}, deposit)
}

func TestDecodeWBTCRejects(t *testing.T) {
	tests := map[string]Ticket{
		"unknown handler": {Handler: "BRIDGE_ETH", Submitter: submitter, Data: wbtcData(t, btcAddress, 1)},
		"bad submitter":   {Handler: HandlerWBTC, Submitter: "alice", Data: wbtcData(t, btcAddress, 1)},
		"truncated data":  {Handler: HandlerWBTC, Submitter: submitter, Data: []byte{0x01, 0x02}},
		"zero amount":     {Handler: HandlerWBTC, Submitter: submitter, Data: wbtcData(t, btcAddress, 0)},
	}

	for name, ticket := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ticket.DecodeWBTC()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		})
	}
}

func TestHandleTicket(t *testing.T) {
	fake := &fakeSubmitter{}
	s := New(ulogger.TestLogger{}, settings.NewSettings(), fake)
	ctx := context.Background()

	require.NoError(t, s.HandleTicket(ctx, ticketJSON(t, 1, submitter, wbtcData(t, btcAddress, 700))))

	require.Len(t, fake.mints, 1)
	assert.Equal(t, model.MintSatsInputs{EthAddress: submitter, BtcAddress: btcAddress, Satoshis: 700, Timestamp: 1}, fake.mints[0])

	t.Run("replayed ticket is acknowledged", func(t *testing.T) {
		require.NoError(t, s.HandleTicket(ctx, ticketJSON(t, 1, submitter, wbtcData(t, btcAddress, 700))))
		assert.Len(t, fake.mints, 1)
	})

	t.Run("malformed tickets are dropped", func(t *testing.T) {
		require.NoError(t, s.HandleTicket(ctx, []byte("not json")))
		require.NoError(t, s.HandleTicket(ctx, ticketJSON(t, 2, "nobody", wbtcData(t, btcAddress, 700))))
		assert.Len(t, fake.mints, 1)
	})

	t.Run("sequencer failures are retried", func(t *testing.T) {
		fake.err = errors.NewStorageError("disk full")

		err := s.HandleTicket(ctx, ticketJSON(t, 3, submitter, wbtcData(t, btcAddress, 700)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrServiceError))
	})
}

func TestInitRequiresTopic(t *testing.T) {
	tSettings := settings.NewSettings()
	tSettings.Kafka.BridgeTicketsURL = nil

	err := New(ulogger.TestLogger{}, tSettings, &fakeSubmitter{}).Init(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
