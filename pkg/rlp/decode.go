package rlp

import (
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// Decode parses exactly one canonical RLP item from b. Trailing bytes,
// truncated payloads and non-minimal length prefixes are rejected with
// ErrMalformedRLP. The returned strings never alias b.
func Decode(b []byte) (Value, error) {
	v, rest, err := decodeItem(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, malformed("trailing bytes after item")
	}
	return v, nil
}

// DecodeList decodes b and requires the top-level item to be a list.
func DecodeList(b []byte) (List, error) {
	v, err := Decode(b)
	if err != nil {
		return nil, err
	}
	return AsList(v)
}

func decodeItem(b []byte) (Value, []byte, error) {
	isList, content, rest, err := split(b)
	if err != nil {
		return nil, nil, err
	}
	if !isList {
		s := make(String, len(content))
		copy(s, content)
		return s, rest, nil
	}

	items := List{}
	for len(content) > 0 {
		var item Value
		item, content, err = decodeItem(content)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return items, rest, nil
}

// split reads the header of the first item in b and returns its kind,
// payload and the bytes following it.
func split(b []byte) (isList bool, content, rest []byte, err error) {
	if len(b) == 0 {
		return false, nil, nil, malformed("unexpected end of input")
	}

	prefix := b[0]
	switch {
	case prefix < 0x80:
		return false, b[:1], b[1:], nil

	case prefix < 0xb8:
		size := int(prefix - 0x80)
		if len(b)-1 < size {
			return false, nil, nil, malformed("string payload truncated")
		}
		if size == 1 && b[1] < 0x80 {
			return false, nil, nil, malformed("single byte below 0x80 must not be prefixed")
		}
		return false, b[1 : 1+size], b[1+size:], nil

	case prefix < 0xc0:
		size, headerLen, err := readLongLength(b, int(prefix-0xb7))
		if err != nil {
			return false, nil, nil, err
		}
		return false, b[headerLen : headerLen+size], b[headerLen+size:], nil

	case prefix < 0xf8:
		size := int(prefix - 0xc0)
		if len(b)-1 < size {
			return false, nil, nil, malformed("list payload truncated")
		}
		return true, b[1 : 1+size], b[1+size:], nil

	default:
		size, headerLen, err := readLongLength(b, int(prefix-0xf7))
		if err != nil {
			return false, nil, nil, err
		}
		return true, b[headerLen : headerLen+size], b[headerLen+size:], nil
	}
}

// readLongLength decodes the big-endian length that follows a long-form
// prefix and checks that the whole payload is present.
func readLongLength(b []byte, lenOfLen int) (size, headerLen int, err error) {
	headerLen = 1 + lenOfLen
	if len(b) < headerLen {
		return 0, 0, malformed("length prefix truncated")
	}
	if b[1] == 0 {
		return 0, 0, malformed("length prefix has leading zero bytes")
	}

	var length uint64
	for _, c := range b[1:headerLen] {
		length = length<<8 | uint64(c)
	}
	if length < 56 {
		return 0, 0, malformed("long form used for a length below 56")
	}
	if length > uint64(len(b)-headerLen) {
		return 0, 0, malformed("payload truncated")
	}
	return int(length), headerLen, nil //nolint:gosec // G115: bounded by len(b)
}

func malformed(reason string) error {
	return wireerr.Detail(wireerr.ErrMalformedRLP, "reason", reason)
}
