package model

import (
	"testing"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActionHash(t *testing.T) {
	sender := "0x00000000000000000000000000000000000000aa"

	a, err := NewAction(ActionRunTx, RunTxInputs{SerializedTx: "00"}, sender)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress(sender).Hex(), a.Sender)
	assert.Equal(t, a.ComputeHash(), a.Hash)
	assert.JSONEq(t, `{"serializedTx":"00"}`, string(a.Inputs))

	// whitespace in the inputs does not change the hash
	b := *a
	b.Inputs = []byte(`{ "serializedTx" : "00" }`)
	assert.Equal(t, a.Hash, b.ComputeHash())

	// the acknowledgement timestamp is not part of the hash
	b.AcknowledgementTimestamp = 12345
	assert.Equal(t, a.Hash, b.ComputeHash())

	c, err := NewAction(ActionRunTx, RunTxInputs{SerializedTx: "01"}, sender)
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash, c.Hash)

	_, err = NewAction(ActionRunTx, RunTxInputs{}, "nope")
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestActionSignAndVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	keyHex := common.Bytes2Hex(crypto.FromECDSA(key))
	sender := crypto.PubkeyToAddress(key.PublicKey).Hex()

	a, err := NewAction(ActionMintSats, MintSatsInputs{EthAddress: sender, BtcAddress: "x", Satoshis: 1, Timestamp: 7}, sender)
	require.NoError(t, err)

	require.NoError(t, a.Sign(keyHex))
	require.NoError(t, a.VerifySignature())

	var inputs MintSatsInputs
	require.NoError(t, a.DecodeInputs(&inputs))
	assert.Equal(t, uint64(7), inputs.Timestamp)

	tampered := *a
	tampered.Inputs = []byte(`{"satoshis":2}`)
	assert.True(t, errors.Is(tampered.VerifySignature(), errors.ErrInvalidArgument))

	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	forged := *a
	forged.Sender = crypto.PubkeyToAddress(other.PublicKey).Hex()
	forged.Hash = forged.ComputeHash()
	assert.True(t, errors.Is(forged.VerifySignature(), errors.ErrUnauthorized))

	assert.True(t, errors.Is(forged.Sign(keyHex), errors.ErrUnauthorized))
}

func TestDecodeInputsMalformed(t *testing.T) {
	a := &Action{Name: ActionRunTx, Inputs: []byte(`[1,2`)}

	var inputs RunTxInputs
	err := a.DecodeInputs(&inputs)
	assert.True(t, errors.Is(err, errors.ErrTxInvalid))
}

func TestBlockBytes(t *testing.T) {
	b := &Block{
		Height:    3,
		Timestamp: 1_700_000_000,
		StateRoot: common.HexToHash("0x01"),
		Actions:   []ActionResult{{Name: ActionRunTx, Status: ActionStatusRejected, Error: "boom"}},
	}

	data, err := b.Bytes()
	require.NoError(t, err)

	decoded, err := NewBlockFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, b, decoded)
	assert.Equal(t, BlockContext{Height: 3, Timestamp: 1_700_000_000}, decoded.Context())
	assert.Equal(t, 1, decoded.Commitment().Actions)
}
