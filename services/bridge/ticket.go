package bridge

import (
	"math/big"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HandlerWBTC is the only ticket handler the bridge knows.
const HandlerWBTC = "BRIDGE_WBTC"

// Ticket is a deposit observed on the bridge contract. Data is the abi encoding of (string btcAddress,
// uint256 satoshis).
type Ticket struct {
	Handler      string        `json:"handler"`
	TicketNumber uint64        `json:"ticketNumber"`
	Submitter    string        `json:"submitter"`
	Data         hexutil.Bytes `json:"data"`
}

// Deposit is a decoded WBTC ticket.
type Deposit struct {
	BtcAddress string
	Satoshis   uint64
}

var wbtcArguments = mustArguments("string", "uint256")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))

	for i, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}

		args[i] = abi.Argument{Type: typ}
	}

	return args
}

// EncodeWBTCData is the inverse of DecodeWBTC, used to build tickets.
func EncodeWBTCData(btcAddress string, satoshis uint64) ([]byte, error) {
	data, err := wbtcArguments.Pack(btcAddress, new(big.Int).SetUint64(satoshis))
	if err != nil {
		return nil, errors.NewInvalidArgumentError("failed to encode ticket data", err)
	}

	return data, nil
}

// DecodeWBTC validates the ticket and unpacks its payload.
func (t *Ticket) DecodeWBTC() (*Deposit, error) {
	if !strings.EqualFold(t.Handler, HandlerWBTC) {
		return nil, errors.NewInvalidArgumentError("ticket %d has unknown handler %q", t.TicketNumber, t.Handler)
	}

	if !common.IsHexAddress(t.Submitter) {
		return nil, errors.NewInvalidArgumentError("ticket %d submitter %q is not an address", t.TicketNumber, t.Submitter)
	}

	values, err := wbtcArguments.Unpack(t.Data)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("ticket %d data is not (string, uint256)", t.TicketNumber, err)
	}

	btcAddress, ok := values[0].(string)
	if !ok {
		return nil, errors.NewInvalidArgumentError("ticket %d address is not a string", t.TicketNumber)
	}

	amount, ok := values[1].(*big.Int)
	if !ok || amount.Sign() <= 0 || !amount.IsUint64() {
		return nil, errors.NewInvalidArgumentError("ticket %d amount %v is out of range", t.TicketNumber, values[1])
	}

	return &Deposit{BtcAddress: btcAddress, Satoshis: amount.Uint64()}, nil
}
