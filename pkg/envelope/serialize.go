package envelope

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/ethwire/pkg/accesslist"
	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// Serialize asserts e and returns its wire encoding: a bare RLP list for
// legacy transactions, type ∥ rlp(fields) otherwise. EIP-4844 envelopes with
// sidecars serialize in the network form
// 0x03 ∥ rlp([fields, blobs, commitments, proofs]).
func Serialize(e Envelope) ([]byte, error) {
	return serialize(e, true, true)
}

func serialize(e Envelope, withSignature, withSidecars bool) ([]byte, error) {
	if err := Assert(e); err != nil {
		return nil, err
	}

	switch tx := e.(type) {
	case *Legacy:
		fields, err := legacyFields(tx, withSignature)
		if err != nil {
			return nil, err
		}
		return rlp.Encode(fields), nil

	case *EIP2930:
		fields := rlp.List{
			rlp.Big(tx.ChainID),
			rlp.Uint(tx.Nonce),
			rlp.Big(tx.GasPrice),
			rlp.Uint(tx.Gas),
			addressField(tx.To),
			rlp.Big(tx.Value),
			rlp.String(tx.Data),
			accesslist.ToTuple(tx.AccessList),
		}
		return typed(TypeEIP2930, withTrailingSignature(fields, tx.Signature, withSignature)), nil

	case *EIP1559:
		fields := dynamicFeeFields(tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas,
			tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList)
		return typed(TypeEIP1559, withTrailingSignature(fields, tx.Signature, withSignature)), nil

	case *EIP4844:
		fields := dynamicFeeFields(tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas,
			tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList)
		fields = append(fields, rlp.Big(tx.MaxFeePerBlobGas), hashesField(tx.BlobVersionedHashes))
		fields = withTrailingSignature(fields, tx.Signature, withSignature)
		if withSidecars && len(tx.Sidecars) > 0 {
			blobs, commitments, proofs := sidecarFields(tx.Sidecars)
			return typed(TypeEIP4844, rlp.List{fields, blobs, commitments, proofs}), nil
		}
		return typed(TypeEIP4844, fields), nil

	case *EIP7702:
		fields := dynamicFeeFields(tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas,
			tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList)
		fields = append(fields, authorization.ListToTuple(tx.AuthorizationList))
		return typed(TypeEIP7702, withTrailingSignature(fields, tx.Signature, withSignature)), nil

	default:
		return nil, unknownEnvelope(e)
	}
}

// legacyFields builds [nonce, gasPrice, gas, to, value, data] followed by
// [v, r, s] when signed, or by the EIP-155 [chainId, '', ''] when unsigned
// with a chain ID.
func legacyFields(tx *Legacy, withSignature bool) (rlp.List, error) {
	fields := rlp.List{
		rlp.Uint(tx.Nonce),
		rlp.Big(tx.GasPrice),
		rlp.Uint(tx.Gas),
		addressField(tx.To),
		rlp.Big(tx.Value),
		rlp.String(tx.Data),
	}

	switch {
	case withSignature && tx.Signature != nil:
		v, err := legacyV(tx)
		if err != nil {
			return nil, err
		}
		fields = append(fields, rlp.Big(v), rlp.U256(&tx.Signature.R), rlp.U256(&tx.Signature.S))
	case tx.ChainID != nil && tx.ChainID.Sign() > 0:
		fields = append(fields, rlp.Big(tx.ChainID), rlp.String{}, rlp.String{})
	}
	return fields, nil
}

// legacyV returns the v emitted for a signed legacy transaction.
//   - V unset: derived from the parity, EIP-155 encoded when a chain ID is set.
//   - V >= 35: kept when it encodes a chain ID, otherwise folded to 27/28.
//   - V 27/28: re-encoded with the chain ID when one is set.
func legacyV(tx *Legacy) (*big.Int, error) {
	if tx.V == nil {
		return signature.YParityToV(tx.Signature.YParity, tx.ChainID), nil
	}

	if tx.V.Cmp(big.NewInt(35)) >= 0 {
		inferred := new(big.Int).Sub(tx.V, big.NewInt(35))
		inferred.Rsh(inferred, 1)
		if inferred.Sign() > 0 {
			return new(big.Int).Set(tx.V), nil
		}
		if tx.V.Cmp(big.NewInt(35)) == 0 {
			return big.NewInt(27), nil
		}
		return big.NewInt(28), nil
	}

	if !tx.V.IsUint64() || (tx.V.Uint64() != 27 && tx.V.Uint64() != 28) {
		return nil, wireerr.Detail(wireerr.ErrInvalidV, "v", tx.V.String())
	}
	if tx.ChainID != nil && tx.ChainID.Sign() > 0 {
		return signature.YParityToV(uint8(tx.V.Uint64()-27), tx.ChainID), nil //nolint:gosec // G115: 0 or 1
	}
	return new(big.Int).Set(tx.V), nil
}

// legacyYParity returns the recovery parity of a signed legacy transaction,
// preferring the raw V when it is set.
func legacyYParity(tx *Legacy) (uint8, error) {
	if tx.V == nil {
		return tx.Signature.YParity, nil
	}
	return signature.VToYParity(tx.V)
}

func dynamicFeeFields(chainID *big.Int, nonce uint64, tip, maxFee *big.Int, gas uint64,
	to *common.Address, value *big.Int, data []byte, al accesslist.List,
) rlp.List {
	return rlp.List{
		rlp.Big(chainID),
		rlp.Uint(nonce),
		rlp.Big(tip),
		rlp.Big(maxFee),
		rlp.Uint(gas),
		addressField(to),
		rlp.Big(value),
		rlp.String(data),
		accesslist.ToTuple(al),
	}
}

func withTrailingSignature(fields rlp.List, sig *signature.Signature, include bool) rlp.List {
	if !include || sig == nil {
		return fields
	}
	return append(fields, signature.ToTuple(sig)...)
}

func addressField(to *common.Address) rlp.String {
	if to == nil {
		return rlp.String{}
	}
	return rlp.String(to.Bytes())
}

func hashesField(hashes []common.Hash) rlp.List {
	out := make(rlp.List, len(hashes))
	for i, h := range hashes {
		out[i] = rlp.String(h.Bytes())
	}
	return out
}

func typed(t Type, fields rlp.List) []byte {
	payload := rlp.Encode(fields)
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(t))
	return append(out, payload...)
}
