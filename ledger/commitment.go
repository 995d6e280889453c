package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/bitcoin-vm/mru/util"
	"github.com/ethereum/go-ethereum/common"
)

// Roots holds the three sub tree roots and the top level root of a state.
type Roots struct {
	Admins       common.Hash `json:"admins"`
	UTXOs        common.Hash `json:"utxos"`
	Transactions common.Hash `json:"transactions"`
	Root         common.Hash `json:"root"`
}

// RootHash is the commitment over the whole state.
func (s *State) RootHash() common.Hash {
	return s.Roots().Root
}

// Roots computes the admin, utxo and transaction trees and the top tree over [admins, utxos, transactions].
func (s *State) Roots() Roots {
	r := Roots{
		Admins:       util.MerkleRootOfData(s.adminLeaves()),
		UTXOs:        util.MerkleRootOfData(s.utxoLeaves()),
		Transactions: util.MerkleRootOfData(s.transactionLeaves()),
	}

	r.Root = util.MerkleRootOfData([][]byte{r.Admins[:], r.UTXOs[:], r.Transactions[:]})

	return r
}

// admins are ordered by their lower case hex form, each leaf is the 20 address bytes
func (s *State) adminLeaves() [][]byte {
	admins := append([]string(nil), s.Admins...)
	sort.Slice(admins, func(i, j int) bool {
		return strings.ToLower(admins[i]) < strings.ToLower(admins[j])
	})

	leaves := make([][]byte, len(admins))
	for i, a := range admins {
		leaves[i] = common.HexToAddress(a).Bytes()
	}

	return leaves
}

func (s *State) utxoLeaves() [][]byte {
	utxos := s.AllUTXOs()
	leaves := make([][]byte, len(utxos))

	for i, u := range utxos {
		leaves[i] = encodeUTXO(u)
	}

	return leaves
}

func (s *State) transactionLeaves() [][]byte {
	ids := make([]string, 0, len(s.Transactions))
	for id := range s.Transactions {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	leaves := make([][]byte, len(ids))
	for i, id := range ids {
		var buf []byte
		buf = appendField(buf, []byte(id))
		buf = appendField(buf, []byte(s.Transactions[id]))
		leaves[i] = buf
	}

	return leaves
}

// encodeUTXO: len|txId, outputIndex (4 bytes), len|address, len|script, satoshis (8 bytes), big endian
func encodeUTXO(u UTXO) []byte {
	script, err := hex.DecodeString(u.Script)
	if err != nil {
		script = []byte(u.Script)
	}

	var buf []byte
	buf = appendField(buf, []byte(u.TxID))
	buf = binary.BigEndian.AppendUint32(buf, u.OutputIndex)
	buf = appendField(buf, []byte(u.Address))
	buf = appendField(buf, script)
	buf = binary.BigEndian.AppendUint64(buf, u.Satoshis)

	return buf
}

func appendField(buf []byte, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}
