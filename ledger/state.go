// Package ledger holds the rollup state and the transitions that change it. Transitions never mutate the
// state they receive: they work on a clone and return it on success.
package ledger

import (
	"sort"
	"strings"

	"github.com/bitcoin-vm/mru/errors"
	"github.com/ethereum/go-ethereum/common"
	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// UTXO is an unspent output. Script is the hex encoded locking script.
type UTXO struct {
	TxID        string `json:"txId"`
	OutputIndex uint32 `json:"outputIndex"`
	Address     string `json:"address"`
	Script      string `json:"script"`
	Satoshis    uint64 `json:"satoshis"`
}

// State is the whole ledger. UTXOs are grouped by the id of the transaction that created them and
// Transactions maps a transaction id to its hex serialization.
type State struct {
	Admins       []string          `json:"admins"`
	UTXOs        map[string][]UTXO `json:"utxos"`
	Transactions map[string]string `json:"transactions"`
}

// NewState returns an empty state owned by the given admins.
func NewState(admins ...string) (*State, error) {
	s := &State{
		Admins:       admins,
		UTXOs:        map[string][]UTXO{},
		Transactions: map[string]string{},
	}

	if err := s.normalize(); err != nil {
		return nil, err
	}

	return s, nil
}

// normalize checksums and sorts the admins and makes sure the maps are not nil.
func (s *State) normalize() error {
	seen := make(map[common.Address]struct{}, len(s.Admins))
	admins := make([]string, 0, len(s.Admins))

	for _, a := range s.Admins {
		if !common.IsHexAddress(a) {
			return errors.NewConfigurationError("admin %q is not an address", a)
		}

		addr := common.HexToAddress(a)
		if _, ok := seen[addr]; ok {
			continue
		}

		seen[addr] = struct{}{}
		admins = append(admins, addr.Hex())
	}

	sort.Slice(admins, func(i, j int) bool {
		return strings.ToLower(admins[i]) < strings.ToLower(admins[j])
	})

	s.Admins = admins

	if s.UTXOs == nil {
		s.UTXOs = map[string][]UTXO{}
	}

	if s.Transactions == nil {
		s.Transactions = map[string]string{}
	}

	for txID, utxos := range s.UTXOs {
		if len(utxos) == 0 {
			delete(s.UTXOs, txID)
			continue
		}

		for _, u := range utxos {
			if u.TxID != txID {
				return errors.NewConfigurationError("utxo %s:%d is listed under %s", u.TxID, u.OutputIndex, txID)
			}
		}
	}

	return nil
}

// IsAdmin accepts the sender in any letter case.
func (s *State) IsAdmin(sender string) bool {
	if !common.IsHexAddress(sender) {
		return false
	}

	addr := common.HexToAddress(sender)

	for _, a := range s.Admins {
		if common.HexToAddress(a) == addr {
			return true
		}
	}

	return false
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := &State{
		Admins:       append([]string(nil), s.Admins...),
		UTXOs:        make(map[string][]UTXO, len(s.UTXOs)),
		Transactions: make(map[string]string, len(s.Transactions)),
	}

	for txID, utxos := range s.UTXOs {
		c.UTXOs[txID] = append([]UTXO(nil), utxos...)
	}

	for txID, payload := range s.Transactions {
		c.Transactions[txID] = payload
	}

	return c
}

// addUTXO appends u under its transaction id.
func (s *State) addUTXO(u UTXO) {
	s.UTXOs[u.TxID] = append(s.UTXOs[u.TxID], u)
}

// spend removes the output and returns it. The list is dropped once empty.
func (s *State) spend(txID string, index uint32) (UTXO, error) {
	utxos := s.UTXOs[txID]
	if len(utxos) == 0 {
		return UTXO{}, errors.NewUtxoNotFoundError("no unspent outputs for transaction %s", txID)
	}

	for i, u := range utxos {
		if u.OutputIndex != index {
			continue
		}

		remaining := append(utxos[:i:i], utxos[i+1:]...)
		if len(remaining) == 0 {
			delete(s.UTXOs, txID)
		} else {
			s.UTXOs[txID] = remaining
		}

		return u, nil
	}

	return UTXO{}, errors.NewUtxoNotFoundError("output %s:%d is not unspent", txID, index)
}

func (s *State) Bytes() ([]byte, error) {
	return jsonAPI.Marshal(s)
}

func NewStateFromBytes(data []byte) (*State, error) {
	s := &State{}
	if err := jsonAPI.Unmarshal(data, s); err != nil {
		return nil, errors.NewProcessingError("failed to decode ledger state", err)
	}

	if err := s.normalize(); err != nil {
		return nil, err
	}

	return s, nil
}
