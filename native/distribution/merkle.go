package distribution

import (
	"bytes"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// LeafHash computes the commitment leaf for an account/amount pair. The
// encoding is the 20-byte account followed by the amount as a 32-byte
// big-endian integer, hashed with keccak256. The off-chain snapshot process
// must build its trees from the same encoding.
func LeafHash(account [20]byte, amount *big.Int) [32]byte {
	buf := make([]byte, 0, 52)
	buf = append(buf, account[:]...)
	encoded := make([]byte, 32)
	if amount != nil {
		amount.FillBytes(encoded)
	}
	buf = append(buf, encoded...)
	var leaf [32]byte
	copy(leaf[:], ethcrypto.Keccak256(buf))
	return leaf
}

// hashPair combines two nodes in sorted order, so proofs carry no direction
// bits.
func hashPair(a, b [32]byte) [32]byte {
	var out [32]byte
	if bytes.Compare(a[:], b[:]) <= 0 {
		copy(out[:], ethcrypto.Keccak256(a[:], b[:]))
	} else {
		copy(out[:], ethcrypto.Keccak256(b[:], a[:]))
	}
	return out
}

// VerifyProof folds the proof hashes into the leaf and compares the result to
// the committed root.
func VerifyProof(root, leaf [32]byte, proof [][32]byte) bool {
	node := leaf
	for _, sibling := range proof {
		node = hashPair(node, sibling)
	}
	return node == root
}

func foldLevel(level [][32]byte) [][32]byte {
	next := make([][32]byte, 0, (len(level)+1)/2)
	for i := 0; i < len(level); i += 2 {
		if i+1 == len(level) {
			// Odd node is promoted unchanged.
			next = append(next, level[i])
			continue
		}
		next = append(next, hashPair(level[i], level[i+1]))
	}
	return next
}

// ComputeRoot builds the commitment over the supplied leaves with the same
// pairing rule VerifyProof expects. It serves as the reference for the
// off-chain snapshot process; the engine itself only ever verifies proofs.
func ComputeRoot(leaves [][32]byte) [32]byte {
	if len(leaves) == 0 {
		return [32]byte{}
	}
	level := append([][32]byte(nil), leaves...)
	for len(level) > 1 {
		level = foldLevel(level)
	}
	return level[0]
}

// ComputeProof returns the sibling path proving membership of the leaf at
// index against ComputeRoot of the same leaves.
func ComputeProof(leaves [][32]byte, index int) [][32]byte {
	if index < 0 || index >= len(leaves) {
		return nil
	}
	proof := make([][32]byte, 0)
	level := append([][32]byte(nil), leaves...)
	for len(level) > 1 {
		if sibling := index ^ 1; sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
		level = foldLevel(level)
	}
	return proof
}
