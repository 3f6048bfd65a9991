package signature

import (
	"strconv"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

var topBit = new(uint256.Int).Lsh(uint256.NewInt(1), 255) //nolint:gochecknoglobals // read-only mask

// Compact is the EIP-2098 representation: the y parity is folded into the
// top bit of s.
type Compact struct {
	R           uint256.Int
	YParityAndS uint256.Int
}

// ToCompact folds the signature into its EIP-2098 form. It fails with
// ErrInvalidS when the top bit of s is set.
func ToCompact(sig *Signature) (Compact, error) {
	if err := Assert(sig); err != nil {
		return Compact{}, err
	}
	if sig.S.BitLen() == 256 {
		return Compact{}, wireerr.Detail(wireerr.ErrInvalidS, "reason", "s has its top bit set")
	}
	c := Compact{R: sig.R, YParityAndS: sig.S}
	if sig.YParity == 1 {
		c.YParityAndS.Or(&c.YParityAndS, topBit)
	}
	return c, nil
}

// FromCompact unfolds an EIP-2098 signature.
func FromCompact(c Compact) *Signature {
	sig := &Signature{R: c.R, S: c.YParityAndS}
	if c.YParityAndS.BitLen() == 256 {
		sig.YParity = 1
		sig.S.Xor(&sig.S, topBit)
	}
	return sig
}

// ToBytes returns the 65-byte r ∥ s ∥ v form with v as the raw parity.
func ToBytes(sig *Signature) []byte {
	out := make([]byte, Length)
	sig.R.WriteToSlice(out[:32])
	sig.S.WriteToSlice(out[32:64])
	out[64] = sig.YParity
	return out
}

// ToCompactBytes returns the 64-byte EIP-2098 form r ∥ yParityAndS.
func ToCompactBytes(sig *Signature) ([]byte, error) {
	c, err := ToCompact(sig)
	if err != nil {
		return nil, err
	}
	out := make([]byte, CompactLength)
	c.R.WriteToSlice(out[:32])
	c.YParityAndS.WriteToSlice(out[32:])
	return out, nil
}

// FromBytes parses a 65-byte r ∥ s ∥ v signature (v in 0, 1, 27 or 28) or a
// 64-byte EIP-2098 signature.
func FromBytes(b []byte) (*Signature, error) {
	switch len(b) {
	case Length:
		var yParity uint8
		switch v := b[64]; v {
		case 0, 1:
			yParity = v
		case 27, 28:
			yParity = v - 27
		default:
			return nil, wireerr.Detail(wireerr.ErrInvalidV, "v", strconv.Itoa(int(v)))
		}
		sig := &Signature{YParity: yParity}
		sig.R.SetBytes(b[:32])
		sig.S.SetBytes(b[32:64])
		return sig, nil
	case CompactLength:
		var c Compact
		c.R.SetBytes(b[:32])
		c.YParityAndS.SetBytes(b[32:])
		return FromCompact(c), nil
	default:
		return nil, wireerr.Detail(wireerr.ErrInvalidSerializedSize, "size", strconv.Itoa(len(b)))
	}
}

// ToDER encodes r and s as an ASN.1 SEQUENCE of two INTEGERs. The parity is
// not part of the encoding.
func ToDER(sig *Signature) []byte {
	b := cryptobyte.NewBuilder(nil)
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(sig.R.ToBig())
		b.AddASN1BigInt(sig.S.ToBig())
	})
	return b.BytesOrPanic()
}

// FromDER decodes an ASN.1 SEQUENCE{INTEGER r, INTEGER s}. Sign padding is
// stripped; negative integers and trailing data are rejected. The returned
// signature has parity 0 unless one is supplied.
func FromDER(der []byte, yParity uint8) (*Signature, error) {
	var (
		input = cryptobyte.String(der)
		inner cryptobyte.String
		r, s  []byte
	)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() {
		return nil, wireerr.Detail(wireerr.ErrInvalidSerialized, "reason", "not a DER sequence")
	}
	if !inner.ReadASN1Integer(&r) {
		return nil, wireerr.Detail(wireerr.ErrInvalidR, "reason", "not a non-negative DER integer")
	}
	if !inner.ReadASN1Integer(&s) {
		return nil, wireerr.Detail(wireerr.ErrInvalidS, "reason", "not a non-negative DER integer")
	}
	if !inner.Empty() {
		return nil, wireerr.Detail(wireerr.ErrInvalidSerialized, "reason", "trailing data in DER sequence")
	}
	return New(r, s, yParity)
}
