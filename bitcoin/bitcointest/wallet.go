// Package bitcointest builds signed transactions for tests of the ledger and its services.
package bitcointest

import (
	"testing"

	"github.com/bitcoin-vm/mru/bitcoin"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// Wallet is a single key with its P2PKH or P2WPKH address.
type Wallet struct {
	Key      *btcec.PrivateKey
	Address  string
	PkScript []byte
	Segwit   bool
	params   *bitcoin.Params
}

func NewWallet(t testing.TB, params *bitcoin.Params) *Wallet {
	return newWallet(t, params, false)
}

func NewSegwitWallet(t testing.TB, params *bitcoin.Params) *Wallet {
	return newWallet(t, params, true)
}

func newWallet(t testing.TB, params *bitcoin.Params, segwit bool) *Wallet {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	pubKeyHash := btcutil.Hash160(key.PubKey().SerializeCompressed())

	var addr btcutil.Address
	if segwit {
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, params)
	} else {
		addr, err = btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	}

	require.NoError(t, err)

	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	return &Wallet{
		Key:      key,
		Address:  addr.EncodeAddress(),
		PkScript: pkScript,
		Segwit:   segwit,
		params:   params,
	}
}

// Coin is an output owned by a Wallet.
type Coin struct {
	TxID  string
	Index uint32
	Value uint64
}

// Payment is an output of a transaction being built.
type Payment struct {
	Address string
	Value   uint64
}

// Spend builds and signs a transaction spending coins, all owned by w, to the payments.
func (w *Wallet) Spend(t testing.TB, coins []Coin, payments []Payment, lockTime uint32) string {
	t.Helper()

	msg := w.unsigned(t, coins, payments, lockTime)
	w.sign(t, msg, coins)

	return bitcoin.EncodeTx(msg)
}

// Unsigned builds the same transaction as Spend without any scriptSig or witness.
func (w *Wallet) Unsigned(t testing.TB, coins []Coin, payments []Payment, lockTime uint32) string {
	t.Helper()

	return bitcoin.EncodeTx(w.unsigned(t, coins, payments, lockTime))
}

func (w *Wallet) unsigned(t testing.TB, coins []Coin, payments []Payment, lockTime uint32) *wire.MsgTx {
	msg := wire.NewMsgTx(2)
	msg.LockTime = lockTime

	for _, c := range coins {
		hash, err := chainhash.NewHashFromStr(c.TxID)
		require.NoError(t, err)

		in := wire.NewTxIn(wire.NewOutPoint(hash, c.Index), nil, nil)
		if lockTime != 0 {
			// a final sequence disables nLockTime in Bitcoin, keep it enabled for realism
			in.Sequence = wire.MaxTxInSequenceNum - 1
		}

		msg.AddTxIn(in)
	}

	for _, p := range payments {
		script, err := bitcoin.PayToAddrScript(p.Address, w.params)
		require.NoError(t, err)

		msg.AddTxOut(wire.NewTxOut(int64(p.Value), script))
	}

	return msg
}

func (w *Wallet) sign(t testing.TB, msg *wire.MsgTx, coins []Coin) {
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(coins))
	for i, c := range coins {
		prevOuts[msg.TxIn[i].PreviousOutPoint] = wire.NewTxOut(int64(c.Value), w.PkScript)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(msg, fetcher)

	for i, c := range coins {
		if w.Segwit {
			witness, err := txscript.WitnessSignature(msg, sigHashes, i, int64(c.Value), w.PkScript, txscript.SigHashAll, w.Key, true)
			require.NoError(t, err)

			msg.TxIn[i].Witness = witness

			continue
		}

		sigScript, err := txscript.SignatureScript(msg, i, w.PkScript, txscript.SigHashAll, w.Key, true)
		require.NoError(t, err)

		msg.TxIn[i].SignatureScript = sigScript
	}
}

// FundingTx returns a transaction without inputs paying value to each address, the shape used for genesis
// funding and mints.
func FundingTx(t testing.TB, params *bitcoin.Params, payments ...Payment) (txID string, txHex string) {
	t.Helper()

	msg := wire.NewMsgTx(2)

	for _, p := range payments {
		script, err := bitcoin.PayToAddrScript(p.Address, params)
		require.NoError(t, err)

		msg.AddTxOut(wire.NewTxOut(int64(p.Value), script))
	}

	return msg.TxHash().String(), bitcoin.EncodeTx(msg)
}
