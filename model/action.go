package model

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Action names understood by the transition engine.
const (
	ActionMintSats = "mintSats"
	ActionRunTx    = "runTx"
)

// Action is the signed envelope submitted to the sequencer. AcknowledgementTimestamp is set by the
// sequencer, in unix milliseconds, when the action is accepted into the pool.
type Action struct {
	Name                     string          `json:"name"`
	Inputs                   json.RawMessage `json:"inputs"`
	Signature                string          `json:"signature,omitempty"`
	Sender                   string          `json:"sender"`
	AcknowledgementTimestamp int64           `json:"acknowledgementTimestamp"`
	Hash                     common.Hash     `json:"hash"`
}

type MintSatsInputs struct {
	EthAddress string `json:"ethAddress"`
	BtcAddress string `json:"btcAddress"`
	Satoshis   uint64 `json:"satoshis"`
	// Timestamp is the caller chosen nonce, distinct mints of the same amount to the same address need
	// distinct values.
	Timestamp uint64 `json:"timestamp"`
}

type RunTxInputs struct {
	SerializedTx string `json:"serializedTx"`
}

// NewAction encodes inputs, normalises the sender to its checksummed form and computes the hash.
func NewAction(name string, inputs interface{}, sender string) (*Action, error) {
	if !common.IsHexAddress(sender) {
		return nil, errors.NewInvalidArgumentError("sender %q is not an address", sender)
	}

	raw, err := jsonAPI.Marshal(inputs)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("failed to encode %s inputs", name, err)
	}

	a := &Action{
		Name:   name,
		Inputs: raw,
		Sender: common.HexToAddress(sender).Hex(),
	}

	a.Hash = a.ComputeHash()

	return a, nil
}

// ComputeHash is keccak256 over the length prefixed name, compacted inputs and lower cased sender.
// Neither the signature nor the acknowledgement timestamp are part of it.
func (a *Action) ComputeHash() common.Hash {
	var inputs bytes.Buffer
	if err := json.Compact(&inputs, a.Inputs); err != nil {
		inputs.Reset()
		inputs.Write(a.Inputs)
	}

	return crypto.Keccak256Hash(
		lengthPrefixed([]byte(a.Name)),
		lengthPrefixed(inputs.Bytes()),
		lengthPrefixed([]byte(strings.ToLower(a.Sender))),
	)
}

func lengthPrefixed(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)

	return out
}

// Sign sets the signature of the action hash. The key must belong to the sender.
func (a *Action) Sign(keyHex string) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return errors.NewConfigurationError("invalid signing key", err)
	}

	if crypto.PubkeyToAddress(key.PublicKey) != common.HexToAddress(a.Sender) {
		return errors.NewUnauthorizedError("signing key does not belong to sender %s", a.Sender)
	}

	a.Hash = a.ComputeHash()

	sig, err := crypto.Sign(a.Hash.Bytes(), key)
	if err != nil {
		return errors.NewProcessingError("failed to sign action", err)
	}

	a.Signature = "0x" + hex.EncodeToString(sig)

	return nil
}

// VerifySignature checks that the hash matches the content and that the signature recovers to the sender.
func (a *Action) VerifySignature() error {
	if a.Hash != a.ComputeHash() {
		return errors.NewInvalidArgumentError("action hash does not match its content")
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(a.Signature, "0x"))
	if err != nil || len(sig) != crypto.SignatureLength {
		return errors.NewUnauthorizedError("malformed action signature")
	}

	pub, err := crypto.SigToPub(a.Hash.Bytes(), sig)
	if err != nil {
		return errors.NewUnauthorizedError("failed to recover signer", err)
	}

	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(a.Sender) {
		return errors.NewUnauthorizedError("action is not signed by %s", a.Sender)
	}

	return nil
}

// DecodeInputs unmarshals the inputs into v.
func (a *Action) DecodeInputs(v interface{}) error {
	if err := jsonAPI.Unmarshal(a.Inputs, v); err != nil {
		return errors.NewTxInvalidError("malformed %s inputs", a.Name, err)
	}

	return nil
}
