package bitcoin_test

import (
	"testing"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/bitcoin-vm/mru/bitcoin/bitcointest"
	"github.com/bitcoin-vm/mru/errors"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var params = &chaincfg.RegressionNetParams

func TestParseFundingTx(t *testing.T) {
	alice := bitcointest.NewWallet(t, params)
	bob := bitcointest.NewSegwitWallet(t, params)

	txID, txHex := bitcointest.FundingTx(t, params,
		bitcointest.Payment{Address: alice.Address, Value: 100_000},
		bitcointest.Payment{Address: bob.Address, Value: 1},
	)

	tx, err := bitcoin.NewParser(params).Parse(txHex)
	require.NoError(t, err)

	assert.Equal(t, txID, tx.ID())
	assert.Empty(t, tx.Inputs)
	assert.False(t, tx.IsCoinbase())
	require.Len(t, tx.Outputs, 2)

	assert.Equal(t, alice.Address, tx.Outputs[0].Address)
	assert.Equal(t, bitcoin.ScriptTypePubKeyHash, tx.Outputs[0].ScriptType)
	assert.Equal(t, uint64(100_000), tx.Outputs[0].Value)

	assert.Equal(t, bob.Address, tx.Outputs[1].Address)
	assert.Equal(t, bitcoin.ScriptTypeWitnessV0KeyHash, tx.Outputs[1].ScriptType)

	assert.Equal(t, txHex, tx.Hex())
}

func TestParseAndVerifySignedSpend(t *testing.T) {
	for _, segwit := range []bool{false, true} {
		var alice *bitcointest.Wallet
		if segwit {
			alice = bitcointest.NewSegwitWallet(t, params)
		} else {
			alice = bitcointest.NewWallet(t, params)
		}

		bob := bitcointest.NewWallet(t, params)

		fundID, _ := bitcointest.FundingTx(t, params, bitcointest.Payment{Address: alice.Address, Value: 5000})

		coins := []bitcointest.Coin{{TxID: fundID, Index: 0, Value: 5000}}
		txHex := alice.Spend(t, coins, []bitcointest.Payment{{Address: bob.Address, Value: 5000}}, 150)

		tx, err := bitcoin.NewParser(params).Parse(txHex)
		require.NoError(t, err)

		require.Len(t, tx.Inputs, 1)
		assert.Equal(t, fundID, tx.Inputs[0].PrevTxID)
		assert.Equal(t, uint32(0), tx.Inputs[0].OutputIndex)
		assert.True(t, tx.IsFinalized())
		assert.Equal(t, uint32(150), tx.LockTime())

		require.NoError(t, tx.Verify([]bitcoin.PrevOut{{Script: alice.PkScript, Value: 5000}}))

		// wrong previous script
		err = tx.Verify([]bitcoin.PrevOut{{Script: bob.PkScript, Value: 5000}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid))

		err = tx.Verify(nil)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid))
	}
}

func TestParseUnsigned(t *testing.T) {
	alice := bitcointest.NewWallet(t, params)
	fundID, _ := bitcointest.FundingTx(t, params, bitcointest.Payment{Address: alice.Address, Value: 10})

	txHex := alice.Unsigned(t, []bitcointest.Coin{{TxID: fundID, Value: 10}}, []bitcointest.Payment{{Address: alice.Address, Value: 10}}, 0)

	tx, err := bitcoin.NewParser(params).Parse(txHex)
	require.NoError(t, err)
	assert.False(t, tx.IsFinalized())
}

func TestParseMalformed(t *testing.T) {
	parser := bitcoin.NewParser(params)

	for _, in := range []string{"", "zz", "0200000001", "deadbeef"} {
		_, err := parser.Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, errors.ErrTxInvalid), in)
	}
}

func TestTxIDFromHex(t *testing.T) {
	alice := bitcointest.NewWallet(t, params)
	txID, txHex := bitcointest.FundingTx(t, params, bitcointest.Payment{Address: alice.Address, Value: 1})

	id, err := bitcoin.TxIDFromHex(txHex)
	require.NoError(t, err)
	assert.Equal(t, txID, id)
}

func TestAddresses(t *testing.T) {
	alice := bitcointest.NewWallet(t, params)

	script, err := bitcoin.PayToAddrScript(alice.Address, params)
	require.NoError(t, err)
	assert.Equal(t, alice.PkScript, script)

	scriptType, address := bitcoin.ScriptAddress(script, params)
	assert.Equal(t, bitcoin.ScriptTypePubKeyHash, scriptType)
	assert.Equal(t, alice.Address, address)

	// mainnet address on regtest
	_, err = bitcoin.PayToAddrScript("1BoatSLRHtKNngkdXEeobR76b53LETtpyT", params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = bitcoin.PayToAddrScript("not-an-address", params)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	scriptType, address = bitcoin.ScriptAddress([]byte{0x6a, 0x01, 0x01}, params)
	assert.Equal(t, "nulldata", scriptType)
	assert.Empty(t, address)

	assert.Equal(t, bitcoin.ScriptTypeNonStandard, bitcoin.ScriptTypeOfHex("zz", params))
}
