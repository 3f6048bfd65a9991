// Package rlp implements Recursive Length Prefix encoding and strict decoding
// of arbitrarily nested byte strings and lists.
// See: https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp/
package rlp

import "math/bits"

// Prefix offsets. Payloads of up to 55 bytes use a single header byte.
const (
	stringOffset = 0x80
	listOffset   = 0xc0
	maxShortLen  = 55
)

// Encode returns the canonical RLP encoding of v. A nil value encodes as the
// empty string.
func Encode(v Value) []byte {
	return appendValue(make([]byte, 0, encodedSize(v)), v)
}

// EncodeList is shorthand for Encode(List(items)).
func EncodeList(items ...Value) []byte {
	return Encode(List(items))
}

// encodedSize is the length of the encoding of v.
func encodedSize(v Value) int {
	switch val := v.(type) {
	case String:
		if len(val) == 1 && val[0] < stringOffset {
			return 1
		}
		return headerSize(len(val)) + len(val)
	case List:
		n := payloadSize(val)
		return headerSize(n) + n
	default:
		return 1
	}
}

func payloadSize(items List) int {
	n := 0
	for _, item := range items {
		n += encodedSize(item)
	}
	return n
}

func headerSize(payload int) int {
	if payload <= maxShortLen {
		return 1
	}
	return 1 + byteLen(uint64(payload))
}

// appendValue appends the encoding of v to dst. A byte below 0x80 is its own
// encoding; everything else gets a header.
func appendValue(dst []byte, v Value) []byte {
	switch val := v.(type) {
	case String:
		if len(val) == 1 && val[0] < stringOffset {
			return append(dst, val[0])
		}
		dst = appendHeader(dst, stringOffset, len(val))
		return append(dst, val...)
	case List:
		dst = appendHeader(dst, listOffset, payloadSize(val))
		for _, item := range val {
			dst = appendValue(dst, item)
		}
		return dst
	default:
		return append(dst, stringOffset)
	}
}

// appendHeader writes offset+len for short payloads, and offset+55+len(len)
// followed by the big-endian length otherwise.
func appendHeader(dst []byte, offset byte, payload int) []byte {
	if payload <= maxShortLen {
		return append(dst, offset+byte(payload)) //nolint:gosec // G115: payload <= 55
	}
	n := uint64(payload)
	width := byteLen(n)
	dst = append(dst, offset+maxShortLen+byte(width)) //nolint:gosec // G115: width <= 8
	return appendBigEndian(dst, n, width)
}

// byteLen is the number of bytes in the minimal big-endian form of i.
func byteLen(i uint64) int {
	return (bits.Len64(i) + 7) / 8
}

func appendBigEndian(dst []byte, i uint64, width int) []byte {
	for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
		dst = append(dst, byte(i>>shift))
	}
	return dst
}

// bigEndianBytes converts a uint64 to minimal big-endian bytes (no leading zeros).
func bigEndianBytes(i uint64) []byte {
	width := byteLen(i)
	return appendBigEndian(make([]byte, 0, width), i, width)
}
