// Package signature converts secp256k1 signatures between the RLP tuple,
// 65-byte, DER and EIP-2098 compact forms, and normalizes legacy v values
// to a y parity.
package signature

import (
	"math/big"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/mrz1836/ethwire/pkg/rlp"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// Sizes of the fixed-width byte forms.
const (
	Length        = 65
	CompactLength = 64
)

// Signer produces a 65-byte [R || S || V] signature over a 32-byte digest,
// with V the recovery id 0 or 1.
type Signer interface {
	Sign(hash []byte) ([]byte, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(hash []byte) ([]byte, error)

// Sign calls f(hash).
func (f SignerFunc) Sign(hash []byte) ([]byte, error) {
	return f(hash)
}

// Signature is an ECDSA signature with its recovery parity.
type Signature struct {
	R       uint256.Int
	S       uint256.Int
	YParity uint8
}

// New builds a signature from big-endian r and s. Values wider than
// 32 bytes fail with ErrInvalidR or ErrInvalidS.
func New(r, s []byte, yParity uint8) (*Signature, error) {
	sig := &Signature{YParity: yParity}
	if len(r) > 32 {
		return nil, sizeErr(wireerr.ErrInvalidR, len(r))
	}
	if len(s) > 32 {
		return nil, sizeErr(wireerr.ErrInvalidS, len(s))
	}
	sig.R.SetBytes(r)
	sig.S.SetBytes(s)
	if err := Assert(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// Copy returns a deep copy of sig, or nil.
func (sig *Signature) Copy() *Signature {
	if sig == nil {
		return nil
	}
	cp := *sig
	return &cp
}

// Assert checks that the y parity is 0 or 1.
func Assert(sig *Signature) error {
	if sig == nil {
		return nil
	}
	if sig.YParity > 1 {
		return wireerr.Detail(wireerr.ErrInvalidYParity, "y_parity", strconv.Itoa(int(sig.YParity)))
	}
	return nil
}

// ToTuple returns the RLP fields [yParity, r, s] with zero values as empty
// strings.
func ToTuple(sig *Signature) rlp.List {
	return rlp.List{
		rlp.Uint(uint64(sig.YParity)),
		rlp.U256(&sig.R),
		rlp.U256(&sig.S),
	}
}

// FromTuple parses the three RLP fields [yParity, r, s].
func FromTuple(v rlp.Value) (*Signature, error) {
	fields, err := rlp.AsList(v)
	if err != nil {
		return nil, err
	}
	if len(fields) != 3 {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidSerialized, map[string]string{
			"kind":   "signature",
			"fields": strconv.Itoa(len(fields)),
		})
	}

	y, err := rlp.AsString(fields[0])
	if err != nil {
		return nil, err
	}
	yParity, err := y.Uint64()
	if err != nil {
		return nil, err
	}
	if yParity > 1 {
		return nil, wireerr.Detail(wireerr.ErrInvalidYParity, "y_parity", strconv.FormatUint(yParity, 10))
	}

	sig := &Signature{YParity: uint8(yParity)}
	if err := readScalar(fields[1], &sig.R, wireerr.ErrInvalidR); err != nil {
		return nil, err
	}
	if err := readScalar(fields[2], &sig.S, wireerr.ErrInvalidS); err != nil {
		return nil, err
	}
	return sig, nil
}

func readScalar(v rlp.Value, out *uint256.Int, sizeSentinel error) error {
	s, err := rlp.AsString(v)
	if err != nil {
		return err
	}
	if len(s) > 32 {
		return sizeErr(sizeSentinel, len(s))
	}
	u, err := s.U256()
	if err != nil {
		return err
	}
	out.Set(u)
	return nil
}

// VToYParity normalizes a legacy v value: 0 and 27 map to 0, 1 and 28 map
// to 1, and EIP-155 values (v >= 35) map by parity, even to 1 and odd to 0.
func VToYParity(v *big.Int) (uint8, error) {
	if v == nil || v.Sign() < 0 {
		return 0, wireerr.Detail(wireerr.ErrInvalidV, "v", "<nil>")
	}
	if v.IsUint64() {
		switch v.Uint64() {
		case 0, 27:
			return 0, nil
		case 1, 28:
			return 1, nil
		}
	}
	if v.Cmp(big.NewInt(35)) >= 0 {
		if v.Bit(0) == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 0, wireerr.Detail(wireerr.ErrInvalidV, "v", v.String())
}

// YParityToV returns the legacy v for a parity: 27 or 28 without a chain ID,
// chainID*2+35+yParity with one.
func YParityToV(yParity uint8, chainID *big.Int) *big.Int {
	if chainID == nil || chainID.Sign() == 0 {
		return big.NewInt(27 + int64(yParity))
	}
	v := new(big.Int).Lsh(chainID, 1)
	return v.Add(v, big.NewInt(35+int64(yParity)))
}

func sizeErr(sentinel error, size int) error {
	return wireerr.Detail(sentinel, "size", strconv.Itoa(size))
}
