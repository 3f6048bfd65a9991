package envelope

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// Hash returns the Keccak-256 of the serialized envelope. With presign the
// signature is stripped, giving the digest a signer signs; without it the
// result is the transaction hash. Blob sidecars never contribute.
func Hash(e Envelope, presign bool) (common.Hash, error) {
	b, err := serialize(e, !presign, false)
	if err != nil {
		return common.Hash{}, err
	}
	return ethcrypto.Keccak256Hash(b), nil
}

// SigningHash is Hash(e, true).
func SigningHash(e Envelope) (common.Hash, error) {
	return Hash(e, true)
}

// WithSignature returns a copy of e carrying sig. A legacy envelope's raw V
// is cleared so that v is derived from the new parity.
func WithSignature(e Envelope, sig *signature.Signature) (Envelope, error) {
	if sig == nil {
		return nil, wireerr.Detail(wireerr.ErrInvalidSignature, "reason", "missing signature")
	}
	if err := signature.Assert(sig); err != nil {
		return nil, err
	}

	out := Copy(e)
	switch tx := out.(type) {
	case *Legacy:
		tx.Signature, tx.V = sig.Copy(), nil
	case *EIP2930:
		tx.Signature = sig.Copy()
	case *EIP1559:
		tx.Signature = sig.Copy()
	case *EIP4844:
		tx.Signature = sig.Copy()
	case *EIP7702:
		tx.Signature = sig.Copy()
	default:
		return nil, unknownEnvelope(e)
	}
	if err := Assert(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sign signs the presign hash of e with signer and returns the signed copy.
func Sign(e Envelope, signer signature.Signer) (Envelope, error) {
	h, err := SigningHash(e)
	if err != nil {
		return nil, err
	}
	raw, err := signer.Sign(h.Bytes())
	if err != nil {
		return nil, err
	}
	sig, err := signature.FromBytes(raw)
	if err != nil {
		return nil, err
	}
	return WithSignature(e, sig)
}

// Sender recovers the address that signed e.
func Sender(e Envelope) (common.Address, error) {
	sig := SignatureOf(e)
	if sig == nil {
		return common.Address{}, wireerr.Detail(wireerr.ErrInvalidSignature, "reason", "transaction is not signed")
	}

	recoverable := sig.Copy()
	if tx, ok := e.(*Legacy); ok {
		y, err := legacyYParity(tx)
		if err != nil {
			return common.Address{}, err
		}
		recoverable.YParity = y
	}

	h, err := SigningHash(e)
	if err != nil {
		return common.Address{}, err
	}
	return ethcrypto.RecoverAddress(h.Bytes(), signature.ToBytes(recoverable))
}
