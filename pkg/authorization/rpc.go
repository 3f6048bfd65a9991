package authorization

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// RPC is the JSON-RPC form of an authorization.
type RPC struct {
	ChainID hexutil.U256    `json:"chainId"`
	Address string          `json:"address"`
	Nonce   hexutil.Uint64  `json:"nonce"`
	YParity *hexutil.Uint64 `json:"yParity,omitempty"`
	R       *hexutil.U256   `json:"r,omitempty"`
	S       *hexutil.U256   `json:"s,omitempty"`
}

// ToRPC returns the JSON-RPC form of a.
func ToRPC(a *Authorization) RPC {
	r := RPC{
		ChainID: hexutil.U256(a.ChainID),
		Address: hexutil.Encode(a.ContractAddress.Bytes()),
		Nonce:   hexutil.Uint64(a.Nonce),
	}
	if a.Signature != nil {
		y := hexutil.Uint64(a.Signature.YParity)
		sr := hexutil.U256(a.Signature.R)
		ss := hexutil.U256(a.Signature.S)
		r.YParity, r.R, r.S = &y, &sr, &ss
	}
	return r
}

// FromRPC parses the JSON-RPC form. The address is accepted in any casing.
// Signature fields are all present or all absent.
func FromRPC(r RPC) (*Authorization, error) {
	addr, err := ethcrypto.AssertAddress(r.Address, false)
	if err != nil {
		return nil, err
	}

	a := &Authorization{
		ContractAddress: addr,
		ChainID:         uint256.Int(r.ChainID),
		Nonce:           uint64(r.Nonce),
	}

	switch {
	case r.YParity == nil && r.R == nil && r.S == nil:
	case r.YParity != nil && r.R != nil && r.S != nil:
		if uint64(*r.YParity) > 1 {
			return nil, wireerr.Detail(wireerr.ErrInvalidYParity, "y_parity", r.YParity.String())
		}
		a.Signature = &signature.Signature{
			R:       uint256.Int(*r.R),
			S:       uint256.Int(*r.S),
			YParity: uint8(*r.YParity),
		}
	default:
		return nil, wireerr.Detail(wireerr.ErrInvalidSerialized, "reason", "incomplete authorization signature")
	}
	return a, nil
}

// ListToRPC returns the JSON-RPC form of l.
func ListToRPC(l List) []RPC {
	out := make([]RPC, len(l))
	for i, a := range l {
		out[i] = ToRPC(a)
	}
	return out
}

// ListFromRPC parses a JSON-RPC authorization list.
func ListFromRPC(rs []RPC) (List, error) {
	var out List
	for _, r := range rs {
		a, err := FromRPC(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
