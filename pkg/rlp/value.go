package rlp

import (
	"math/big"
	"strconv"

	"github.com/holiman/uint256"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// Value is a decoded or to-be-encoded RLP item. It is either a String or a List.
type Value interface {
	isValue()
}

// String is an RLP byte string.
type String []byte

// List is an ordered RLP list of items.
type List []Value

func (String) isValue() {}
func (List) isValue()   {}

// Uint returns the canonical RLP string for an unsigned integer.
// Zero is the empty string.
func Uint(i uint64) String {
	return String(bigEndianBytes(i))
}

// Big returns the canonical RLP string for a big integer.
// Nil and zero are the empty string; the sign is ignored.
func Big(i *big.Int) String {
	if i == nil || i.Sign() == 0 {
		return String{}
	}
	return String(new(big.Int).Abs(i).Bytes())
}

// U256 returns the canonical RLP string for a 256-bit integer.
// Nil and zero are the empty string.
func U256(i *uint256.Int) String {
	if i == nil || i.IsZero() {
		return String{}
	}
	return String(i.Bytes())
}

// Uint64 interprets the string as a canonical big-endian unsigned integer.
func (s String) Uint64() (uint64, error) {
	if err := s.checkCanonicalInt(8); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range s {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// Big interprets the string as a canonical big-endian unsigned integer.
// The empty string decodes to nil, meaning the field is absent.
func (s String) Big() (*big.Int, error) {
	if err := s.checkCanonicalInt(0); err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, nil //nolint:nilnil // empty string is an absent integer
	}
	return new(big.Int).SetBytes(s), nil
}

// U256 interprets the string as a canonical big-endian 256-bit unsigned integer.
func (s String) U256() (*uint256.Int, error) {
	if err := s.checkCanonicalInt(32); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(s), nil
}

// checkCanonicalInt rejects integers with leading zero bytes and, when
// maxSize is positive, integers wider than maxSize bytes.
func (s String) checkCanonicalInt(maxSize int) error {
	if maxSize > 0 && len(s) > maxSize {
		return wireerr.WithDetails(wireerr.ErrSizeOverflow, map[string]string{
			"size":     strconv.Itoa(len(s)),
			"max_size": strconv.Itoa(maxSize),
		})
	}
	if len(s) > 0 && s[0] == 0 {
		return wireerr.Detail(wireerr.ErrMalformedRLP, "reason", "integer has leading zero bytes")
	}
	return nil
}

// AsString returns v as a String, failing when v is a list.
func AsString(v Value) (String, error) {
	s, ok := v.(String)
	if !ok {
		return nil, wireerr.Detail(wireerr.ErrMalformedRLP, "reason", "expected string, got list")
	}
	return s, nil
}

// AsList returns v as a List, failing when v is a string.
func AsList(v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return nil, wireerr.Detail(wireerr.ErrMalformedRLP, "reason", "expected list, got string")
	}
	return l, nil
}
