// Package envelope implements the EIP-2718 transaction envelope engine for
// the legacy, EIP-2930, EIP-1559, EIP-4844 and EIP-7702 formats: validation,
// serialization, deserialization, hashing and signature attachment.
//
// Envelopes are values. Every operation that attaches or changes data
// returns a new envelope and leaves its input untouched.
package envelope

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/ethwire/pkg/accesslist"
	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// Type is the EIP-2718 transaction type tag.
type Type byte

// Transaction types.
const (
	TypeLegacy  Type = 0x00
	TypeEIP2930 Type = 0x01
	TypeEIP1559 Type = 0x02
	TypeEIP4844 Type = 0x03
	TypeEIP7702 Type = 0x04
)

// MaxTypoDistance is the largest edit distance for which ParseType suggests
// a type name.
const MaxTypoDistance = 3

//nolint:gochecknoglobals // immutable lookup table
var typeNames = map[Type]string{
	TypeLegacy:  "legacy",
	TypeEIP2930: "eip2930",
	TypeEIP1559: "eip1559",
	TypeEIP4844: "eip4844",
	TypeEIP7702: "eip7702",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "0x" + strconv.FormatUint(uint64(t), 16)
}

// ParseType accepts a type name ("eip1559"), a hex tag ("0x2") or a decimal
// tag ("2"). Unknown names fail with ErrTransactionTypeNotImplemented and,
// when a known name is close, a suggestion.
func ParseType(name string) (Type, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	for t, n := range typeNames {
		if s == n {
			return t, nil
		}
	}

	base := 10
	if strings.HasPrefix(s, "0x") {
		s, base = s[2:], 16
	}
	if n, err := strconv.ParseUint(s, base, 8); err == nil {
		if _, ok := typeNames[Type(n)]; ok {
			return Type(n), nil
		}
	}

	err := wireerr.Detail(wireerr.ErrTransactionTypeNotImplemented, "type", name)
	if suggestion := suggestType(strings.ToLower(name)); suggestion != "" {
		err = wireerr.WithSuggestion(err, "did you mean "+suggestion+"?")
	}
	return 0, err
}

func suggestType(input string) string {
	minDist := math.MaxInt
	var suggestion string
	for t := TypeLegacy; t <= TypeEIP7702; t++ {
		name := typeNames[t]
		if dist := levenshtein.ComputeDistance(input, name); dist < minDist {
			minDist, suggestion = dist, name
		}
	}
	if minDist <= MaxTypoDistance {
		return suggestion
	}
	return ""
}

// Envelope is one of *Legacy, *EIP2930, *EIP1559, *EIP4844 or *EIP7702.
type Envelope interface {
	Type() Type
	isEnvelope()
}

// Legacy is a pre-EIP-2718 transaction. V, when set, is the raw v value
// (27/28 or EIP-155 encoded) and takes precedence over Signature.YParity
// on the wire.
type Legacy struct {
	ChainID   *big.Int
	Nonce     uint64
	GasPrice  *big.Int
	Gas       uint64
	To        *common.Address
	Value     *big.Int
	Data      []byte
	V         *big.Int
	Signature *signature.Signature
}

// EIP2930 is an access-list transaction (type 0x01).
type EIP2930 struct {
	ChainID    *big.Int
	Nonce      uint64
	GasPrice   *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	AccessList accesslist.List
	Signature  *signature.Signature
}

// EIP1559 is a dynamic-fee transaction (type 0x02).
type EIP1559 struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	Gas                  uint64
	To                   *common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           accesslist.List
	Signature            *signature.Signature
}

// EIP4844 is a blob transaction (type 0x03). When Sidecars is non-empty the
// envelope serializes in its network form.
type EIP4844 struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	Gas                  uint64
	To                   *common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           accesslist.List
	MaxFeePerBlobGas     *big.Int
	BlobVersionedHashes  []common.Hash
	Sidecars             []Sidecar
	Signature            *signature.Signature
}

// EIP7702 is a set-code transaction (type 0x04).
type EIP7702 struct {
	ChainID              *big.Int
	Nonce                uint64
	MaxPriorityFeePerGas *big.Int
	MaxFeePerGas         *big.Int
	Gas                  uint64
	To                   *common.Address
	Value                *big.Int
	Data                 []byte
	AccessList           accesslist.List
	AuthorizationList    authorization.List
	Signature            *signature.Signature
}

func (*Legacy) Type() Type  { return TypeLegacy }
func (*EIP2930) Type() Type { return TypeEIP2930 }
func (*EIP1559) Type() Type { return TypeEIP1559 }
func (*EIP4844) Type() Type { return TypeEIP4844 }
func (*EIP7702) Type() Type { return TypeEIP7702 }

func (*Legacy) isEnvelope()  {}
func (*EIP2930) isEnvelope() {}
func (*EIP1559) isEnvelope() {}
func (*EIP4844) isEnvelope() {}
func (*EIP7702) isEnvelope() {}

// SignatureOf returns the signature attached to e, or nil.
func SignatureOf(e Envelope) *signature.Signature {
	switch tx := e.(type) {
	case *Legacy:
		return tx.Signature
	case *EIP2930:
		return tx.Signature
	case *EIP1559:
		return tx.Signature
	case *EIP4844:
		return tx.Signature
	case *EIP7702:
		return tx.Signature
	default:
		return nil
	}
}

// Signed reports whether e carries a signature.
func Signed(e Envelope) bool {
	return SignatureOf(e) != nil
}

// Copy returns a deep copy of e.
func Copy(e Envelope) Envelope {
	switch tx := e.(type) {
	case *Legacy:
		cp := *tx
		cp.ChainID, cp.GasPrice, cp.Value, cp.V = copyBig(tx.ChainID), copyBig(tx.GasPrice), copyBig(tx.Value), copyBig(tx.V)
		cp.To, cp.Data, cp.Signature = copyAddress(tx.To), copyBytes(tx.Data), tx.Signature.Copy()
		return &cp
	case *EIP2930:
		cp := *tx
		cp.ChainID, cp.GasPrice, cp.Value = copyBig(tx.ChainID), copyBig(tx.GasPrice), copyBig(tx.Value)
		cp.To, cp.Data, cp.Signature = copyAddress(tx.To), copyBytes(tx.Data), tx.Signature.Copy()
		cp.AccessList = tx.AccessList.Copy()
		return &cp
	case *EIP1559:
		cp := *tx
		cp.ChainID, cp.Value = copyBig(tx.ChainID), copyBig(tx.Value)
		cp.MaxPriorityFeePerGas, cp.MaxFeePerGas = copyBig(tx.MaxPriorityFeePerGas), copyBig(tx.MaxFeePerGas)
		cp.To, cp.Data, cp.Signature = copyAddress(tx.To), copyBytes(tx.Data), tx.Signature.Copy()
		cp.AccessList = tx.AccessList.Copy()
		return &cp
	case *EIP4844:
		cp := *tx
		cp.ChainID, cp.Value = copyBig(tx.ChainID), copyBig(tx.Value)
		cp.MaxPriorityFeePerGas, cp.MaxFeePerGas = copyBig(tx.MaxPriorityFeePerGas), copyBig(tx.MaxFeePerGas)
		cp.MaxFeePerBlobGas = copyBig(tx.MaxFeePerBlobGas)
		cp.To, cp.Data, cp.Signature = copyAddress(tx.To), copyBytes(tx.Data), tx.Signature.Copy()
		cp.AccessList = tx.AccessList.Copy()
		if tx.BlobVersionedHashes != nil {
			cp.BlobVersionedHashes = append([]common.Hash{}, tx.BlobVersionedHashes...)
		}
		if tx.Sidecars != nil {
			cp.Sidecars = append([]Sidecar{}, tx.Sidecars...)
		}
		return &cp
	case *EIP7702:
		cp := *tx
		cp.ChainID, cp.Value = copyBig(tx.ChainID), copyBig(tx.Value)
		cp.MaxPriorityFeePerGas, cp.MaxFeePerGas = copyBig(tx.MaxPriorityFeePerGas), copyBig(tx.MaxFeePerGas)
		cp.To, cp.Data, cp.Signature = copyAddress(tx.To), copyBytes(tx.Data), tx.Signature.Copy()
		cp.AccessList = tx.AccessList.Copy()
		cp.AuthorizationList = tx.AuthorizationList.Copy()
		return &cp
	default:
		return nil
	}
}

func copyBig(i *big.Int) *big.Int {
	if i == nil {
		return nil
	}
	return new(big.Int).Set(i)
}

func copyAddress(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

func unknownEnvelope(e Envelope) error {
	if e == nil {
		return wireerr.Detail(wireerr.ErrTransactionTypeNotImplemented, "type", "<nil>")
	}
	return wireerr.Detail(wireerr.ErrTransactionTypeNotImplemented, "type", e.Type().String())
}
