// Package authorization implements EIP-7702 set-code authorizations: their
// RLP tuple, signing hash, JSON-RPC form and signing.
package authorization

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// Magic is the domain separator prepended to the authorization payload
// before hashing.
const Magic byte = 0x05

// Field counts of the unsigned and signed tuples.
const (
	unsignedFields = 3
	signedFields   = 6
)

// Authorization delegates an account's code to ContractAddress on ChainID.
// A zero ChainID is valid on every chain.
type Authorization struct {
	ContractAddress common.Address
	ChainID         uint256.Int
	Nonce           uint64
	Signature       *signature.Signature
}

// List is an ordered authorization list.
type List []*Authorization

// Signed reports whether a carries a signature.
func (a *Authorization) Signed() bool {
	return a.Signature != nil
}

// Copy returns a deep copy of a.
func (a *Authorization) Copy() *Authorization {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Signature = a.Signature.Copy()
	return &cp
}

// Copy returns a deep copy of l.
func (l List) Copy() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, a := range l {
		out[i] = a.Copy()
	}
	return out
}

// Assert checks the shape of the signature, if any.
func Assert(a *Authorization) error {
	return signature.Assert(a.Signature)
}

// ToTuple returns [chainId, address, nonce] followed by [yParity, r, s]
// when the authorization is signed.
func ToTuple(a *Authorization) rlp.List {
	out := unsignedTuple(a)
	if a.Signature != nil {
		out = append(out, signature.ToTuple(a.Signature)...)
	}
	return out
}

func unsignedTuple(a *Authorization) rlp.List {
	return rlp.List{
		rlp.U256(&a.ChainID),
		rlp.String(a.ContractAddress.Bytes()),
		rlp.Uint(a.Nonce),
	}
}

// FromTuple parses a 3-element unsigned or 6-element signed tuple.
func FromTuple(v rlp.Value) (*Authorization, error) {
	fields, err := rlp.AsList(v)
	if err != nil {
		return nil, err
	}
	if len(fields) != unsignedFields && len(fields) != signedFields {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidSerialized, map[string]string{
			"kind":   "authorization",
			"fields": strconv.Itoa(len(fields)),
		})
	}

	chainID, err := rlp.AsString(fields[0])
	if err != nil {
		return nil, err
	}
	cid, err := chainID.U256()
	if err != nil {
		return nil, wireerr.Detail(err, "field", "chainId")
	}

	addr, err := rlp.AsString(fields[1])
	if err != nil {
		return nil, err
	}
	if len(addr) != common.AddressLength {
		return nil, wireerr.Detail(wireerr.ErrInvalidAddress, "address", hexutil.Encode(addr))
	}

	nonceField, err := rlp.AsString(fields[2])
	if err != nil {
		return nil, err
	}
	nonce, err := nonceField.Uint64()
	if err != nil {
		return nil, wireerr.Detail(err, "field", "nonce")
	}

	a := &Authorization{
		ContractAddress: common.BytesToAddress(addr),
		ChainID:         *cid,
		Nonce:           nonce,
	}
	if len(fields) == signedFields {
		if a.Signature, err = signature.FromTuple(fields[unsignedFields:]); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Hash returns the digest an authority signs:
// keccak256(0x05 || rlp([chainId, address, nonce])).
func Hash(a *Authorization) common.Hash {
	return ethcrypto.Keccak256Hash([]byte{Magic}, rlp.Encode(unsignedTuple(a)))
}

// Sign returns a copy of a signed by signer over Hash(a).
func Sign(a *Authorization, signer signature.Signer) (*Authorization, error) {
	h := Hash(a)
	raw, err := signer.Sign(h.Bytes())
	if err != nil {
		return nil, err
	}
	sig, err := signature.FromBytes(raw)
	if err != nil {
		return nil, err
	}
	out := a.Copy()
	out.Signature = sig
	return out, nil
}

// Authority recovers the address that signed a.
func Authority(a *Authorization) (common.Address, error) {
	if a.Signature == nil {
		return common.Address{}, wireerr.Detail(wireerr.ErrInvalidSignature, "reason", "authorization is not signed")
	}
	if err := Assert(a); err != nil {
		return common.Address{}, err
	}
	h := Hash(a)
	return ethcrypto.RecoverAddress(h.Bytes(), signature.ToBytes(a.Signature))
}

// ListToTuple returns the RLP form of an authorization list.
func ListToTuple(l List) rlp.List {
	out := make(rlp.List, len(l))
	for i, a := range l {
		out[i] = ToTuple(a)
	}
	return out
}

// ListFromTuple parses the RLP form of an authorization list. An empty
// list decodes as nil.
func ListFromTuple(v rlp.Value) (List, error) {
	items, err := rlp.AsList(v)
	if err != nil {
		return nil, err
	}
	var out List
	for i, item := range items {
		a, err := FromTuple(item)
		if err != nil {
			return nil, wireerr.Detail(err, "authorization_index", strconv.Itoa(i))
		}
		out = append(out, a)
	}
	return out, nil
}
