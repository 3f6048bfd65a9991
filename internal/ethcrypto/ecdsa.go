package ethcrypto

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

const (
	// SignatureLength is the length of an [R || S || V] signature.
	SignatureLength = 65

	// compactRecoveryBase is the recovery byte offset used by SignCompact.
	compactRecoveryBase = 27
)

var _ signature.Signer = KeySigner(nil)

// KeySigner is a signature.Signer backed by a raw secp256k1 private key.
type KeySigner []byte

// Sign implements signature.Signer.
func (k KeySigner) Sign(hash []byte) ([]byte, error) {
	return Sign(hash, k)
}

// Sign signs the given 32-byte hash with the private key and returns a 65-byte signature.
// The signature format is [R || S || V] where V is the recovery ID (0 or 1).
func Sign(hash, privateKey []byte) ([]byte, error) {
	if len(hash) != common.HashLength {
		return nil, wireerr.Detail(wireerr.ErrInvalidInput, "reason", "hash must be 32 bytes")
	}
	privKey, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	// SignCompact returns [V || R || S] where V is recovery ID + 27
	sig := ecdsa.SignCompact(privKey, hash, false)
	if len(sig) != SignatureLength {
		return nil, wireerr.ErrInvalidSignature
	}

	result := make([]byte, SignatureLength)
	copy(result[0:32], sig[1:33])
	copy(result[32:64], sig[33:65])
	result[64] = sig[0] - compactRecoveryBase
	return result, nil
}

// RecoverPublicKey recovers the uncompressed public key that produced an
// [R || S || V] signature over hash.
func RecoverPublicKey(hash, sig []byte) ([]byte, error) {
	if len(hash) != common.HashLength {
		return nil, wireerr.Detail(wireerr.ErrInvalidInput, "reason", "hash must be 32 bytes")
	}
	if len(sig) != SignatureLength {
		return nil, wireerr.ErrInvalidSerializedSize
	}
	if sig[64] > 1 {
		return nil, wireerr.ErrInvalidYParity
	}

	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + compactRecoveryBase
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidSignature, map[string]string{"reason": err.Error()})
	}
	return pub.SerializeUncompressed(), nil
}

// RecoverAddress recovers the address that produced an [R || S || V] signature over hash.
func RecoverAddress(hash, sig []byte) (common.Address, error) {
	pub, err := RecoverPublicKey(hash, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PublicKeyToAddress(pub)
}

// PrivateKeyToPublicKey derives the public key from a private key.
// Returns the uncompressed public key (65 bytes: 0x04 || X || Y).
func PrivateKeyToPublicKey(privateKey []byte) ([]byte, error) {
	privKey, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return privKey.PubKey().SerializeUncompressed(), nil
}

// PublicKeyToAddress derives an Ethereum address from an uncompressed public key.
// The public key should be 65 bytes (0x04 prefix + 64 bytes X,Y coordinates)
// or 64 bytes (just the X,Y coordinates without prefix).
func PublicKeyToAddress(publicKey []byte) (common.Address, error) {
	var pubKeyBytes []byte

	switch len(publicKey) {
	case 65:
		if publicKey[0] != 0x04 {
			return common.Address{}, wireerr.Detail(wireerr.ErrInvalidInput, "reason", "invalid public key prefix")
		}
		pubKeyBytes = publicKey[1:]
	case 64:
		pubKeyBytes = publicKey
	default:
		return common.Address{}, wireerr.Detail(wireerr.ErrInvalidInput, "reason", "invalid public key length")
	}

	// The address is the last 20 bytes of the hash
	return common.BytesToAddress(Keccak256(pubKeyBytes)[12:]), nil
}

// DeriveAddress derives an Ethereum address from a private key.
func DeriveAddress(privateKey []byte) (common.Address, error) {
	pubKey, err := PrivateKeyToPublicKey(privateKey)
	if err != nil {
		return common.Address{}, err
	}
	return PublicKeyToAddress(pubKey)
}

func parsePrivateKey(privateKey []byte) (*secp256k1.PrivateKey, error) {
	if len(privateKey) != 32 {
		return nil, wireerr.ErrInvalidKey
	}
	privKey := secp256k1.PrivKeyFromBytes(privateKey)
	if privKey == nil || privKey.Key.IsZero() {
		return nil, wireerr.ErrInvalidKey
	}
	return privKey, nil
}
