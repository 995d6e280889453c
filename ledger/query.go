package ledger

import (
	"sort"

	"github.com/bitcoin-vm/mru/errors"
)

// Balance is the sum of the unspent outputs paying to address.
func (s *State) Balance(address string) uint64 {
	var total uint64

	for _, utxos := range s.UTXOs {
		for _, u := range utxos {
			if u.Address == address {
				total += u.Satoshis
			}
		}
	}

	return total
}

// UTXOsByAddress lists the unspent outputs of address ordered by transaction id and output index.
func (s *State) UTXOsByAddress(address string) []UTXO {
	result := make([]UTXO, 0)

	for _, utxos := range s.UTXOs {
		for _, u := range utxos {
			if u.Address == address {
				result = append(result, u)
			}
		}
	}

	sortUTXOs(result)

	return result
}

// SelectUTXOsForAmount picks outputs smallest first until they cover amount. When the balance is too low
// it returns every output of the address and false.
func (s *State) SelectUTXOsForAmount(address string, amount uint64) ([]UTXO, bool) {
	candidates := s.UTXOsByAddress(address)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Satoshis < candidates[j].Satoshis
	})

	var total uint64

	for i, u := range candidates {
		if total >= amount {
			return candidates[:i], true
		}

		total += u.Satoshis
	}

	return candidates, total >= amount
}

// GetTransaction returns the hex serialization of a recorded transaction.
func (s *State) GetTransaction(txID string) (string, error) {
	payload, ok := s.Transactions[txID]
	if !ok {
		return "", errors.NewTxNotFoundError("transaction %s not found", txID)
	}

	return payload, nil
}

// AllUTXOs returns every unspent output ordered by transaction id and output index.
func (s *State) AllUTXOs() []UTXO {
	result := make([]UTXO, 0, len(s.UTXOs))

	for _, utxos := range s.UTXOs {
		result = append(result, utxos...)
	}

	sortUTXOs(result)

	return result
}

func sortUTXOs(utxos []UTXO) {
	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].TxID != utxos[j].TxID {
			return utxos[i].TxID < utxos[j].TxID
		}

		return utxos[i].OutputIndex < utxos[j].OutputIndex
	})
}
