// Package ethcrypto provides the hashing, address and secp256k1 primitives
// the ethwire codecs consume: Keccak-256, EIP-55 address handling, and
// signing/recovery over 32-byte digests.
package ethcrypto

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the Keccak-256 hash of the input data.
// This is the hash function used throughout Ethereum.
func Keccak256(data ...[]byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hasher.Write(b)
	}
	return hasher.Sum(nil)
}

// Keccak256Hash computes the Keccak-256 hash and returns it as a common.Hash.
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(Keccak256(data...))
}
