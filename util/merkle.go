package util

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	merkleLeafPrefix = 0x00
	merkleNodePrefix = 0x01
)

// MerkleLeaf hashes an encoded leaf with the leaf domain prefix.
func MerkleLeaf(data []byte) common.Hash {
	return crypto.Keccak256Hash([]byte{merkleLeafPrefix}, data)
}

func merkleNode(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte{merkleNodePrefix}, left[:], right[:])
}

// MerkleRoot builds a binary tree over the already hashed leaves. An odd node at the end of a level is
// promoted unchanged to the next level. The root of an empty tree is the zero hash.
func MerkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}

	level := make([]common.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := level[:0]

		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}

			next = append(next, merkleNode(level[i], level[i+1]))
		}

		level = next
	}

	return level[0]
}

// MerkleRootOfData hashes every element as a leaf and returns the root.
func MerkleRootOfData(items [][]byte) common.Hash {
	leaves := make([]common.Hash, len(items))
	for i, item := range items {
		leaves[i] = MerkleLeaf(item)
	}

	return MerkleRoot(leaves)
}
