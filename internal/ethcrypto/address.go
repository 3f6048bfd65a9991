package ethcrypto

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// AddressLength is the expected length of an Ethereum address.
const AddressLength = common.AddressLength

// AssertAddress parses a 0x-prefixed 20-byte hex address.
// With strict set, a mixed-case address must carry a valid EIP-55 checksum;
// all-lowercase and all-uppercase addresses are accepted either way.
func AssertAddress(s string, strict bool) (common.Address, error) {
	if !strings.HasPrefix(s, "0x") || len(s) != 2+AddressLength*2 {
		return common.Address{}, wireerr.Detail(wireerr.ErrInvalidAddress, "address", s)
	}

	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return common.Address{}, wireerr.Detail(wireerr.ErrInvalidAddress, "address", s)
	}

	if strict && isMixedCase(s[2:]) && ToChecksumAddress(s) != s {
		return common.Address{}, wireerr.Detail(wireerr.ErrInvalidChecksum, "address", s)
	}

	return common.BytesToAddress(b), nil
}

// IsValidAddress reports whether s passes AssertAddress.
func IsValidAddress(s string, strict bool) bool {
	_, err := AssertAddress(s, strict)
	return err == nil
}

// BytesToAddress converts a wire value to an address. Empty input is reported
// as absent; any length other than 20 bytes is an invalid address.
func BytesToAddress(b []byte) (*common.Address, error) {
	switch len(b) {
	case 0:
		return nil, nil //nolint:nilnil // absent address is a valid result
	case AddressLength:
		addr := common.BytesToAddress(b)
		return &addr, nil
	default:
		return nil, wireerr.Detail(wireerr.ErrInvalidAddress, "address", "0x"+hex.EncodeToString(b))
	}
}

// ToChecksumAddress converts an Ethereum address to EIP-55 checksum format.
func ToChecksumAddress(address string) string {
	// Remove 0x prefix and lowercase
	addr := strings.ToLower(strings.TrimPrefix(address, "0x"))
	if len(addr) != 40 {
		return address
	}

	hash := hex.EncodeToString(Keccak256([]byte(addr)))

	result := make([]byte, 42)
	result[0] = '0'
	result[1] = 'x'

	for i := 0; i < 40; i++ {
		c := addr[i]
		// If the hash nibble is >= 8, uppercase the character
		if hash[i] >= '8' && c >= 'a' && c <= 'f' {
			result[i+2] = c - 32 //nolint:gosec // Safe: i bounded by loop [0,40), result size is 42
		} else {
			result[i+2] = c //nolint:gosec // Safe: i bounded by loop [0,40), result size is 42
		}
	}

	return string(result)
}

func isMixedCase(s string) bool {
	return strings.ToLower(s) != s && strings.ToUpper(s) != s
}
