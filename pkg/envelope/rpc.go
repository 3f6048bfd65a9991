package envelope

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	"github.com/mrz1836/ethwire/pkg/accesslist"
	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// RPC is the JSON-RPC form of an envelope, using the field names of
// eth_getTransactionByHash. Sidecars have no RPC form.
type RPC struct {
	Type                 hexutil.Uint64      `json:"type"`
	ChainID              *hexutil.Big        `json:"chainId,omitempty"`
	Nonce                hexutil.Uint64      `json:"nonce"`
	To                   *string             `json:"to"`
	Gas                  hexutil.Uint64      `json:"gas"`
	GasPrice             *hexutil.Big        `json:"gasPrice,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big        `json:"maxPriorityFeePerGas,omitempty"`
	MaxFeePerGas         *hexutil.Big        `json:"maxFeePerGas,omitempty"`
	MaxFeePerBlobGas     *hexutil.Big        `json:"maxFeePerBlobGas,omitempty"`
	Value                *hexutil.Big        `json:"value"`
	Input                hexutil.Bytes       `json:"input"`
	AccessList           *accesslist.RPC     `json:"accessList,omitempty"`
	BlobVersionedHashes  []common.Hash       `json:"blobVersionedHashes,omitempty"`
	AuthorizationList    []authorization.RPC `json:"authorizationList,omitempty"`
	V                    *hexutil.Big        `json:"v,omitempty"`
	R                    *hexutil.U256       `json:"r,omitempty"`
	S                    *hexutil.U256       `json:"s,omitempty"`
	YParity              *hexutil.Uint64     `json:"yParity,omitempty"`
	Hash                 *common.Hash        `json:"hash,omitempty"`
}

// ToRPC returns the JSON-RPC form of e, including its transaction hash.
func ToRPC(e Envelope) (*RPC, error) {
	h, err := Hash(e, false)
	if err != nil {
		return nil, err
	}

	r := &RPC{Type: hexutil.Uint64(e.Type()), Hash: &h}
	switch tx := e.(type) {
	case *Legacy:
		r.ChainID, r.Nonce, r.Gas = hexBig(tx.ChainID), hexutil.Uint64(tx.Nonce), hexutil.Uint64(tx.Gas)
		r.GasPrice = hexBigOrZero(tx.GasPrice)
		r.To, r.Value, r.Input = hexAddress(tx.To), hexBigOrZero(tx.Value), hexBytes(tx.Data)
		if tx.Signature != nil {
			v, err := legacyV(tx)
			if err != nil {
				return nil, err
			}
			r.V = (*hexutil.Big)(v)
			r.R, r.S = hexU256(&tx.Signature.R), hexU256(&tx.Signature.S)
		}
		return r, nil

	case *EIP2930:
		r.ChainID, r.Nonce, r.Gas = hexBigOrZero(tx.ChainID), hexutil.Uint64(tx.Nonce), hexutil.Uint64(tx.Gas)
		r.GasPrice = hexBigOrZero(tx.GasPrice)
		r.To, r.Value, r.Input = hexAddress(tx.To), hexBigOrZero(tx.Value), hexBytes(tx.Data)
		r.AccessList = accessListRPC(tx.AccessList)
		setTypedSignature(r, tx.Signature)

	case *EIP1559:
		setDynamicFee(r, tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList)
		setTypedSignature(r, tx.Signature)

	case *EIP4844:
		setDynamicFee(r, tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList)
		r.MaxFeePerBlobGas = hexBigOrZero(tx.MaxFeePerBlobGas)
		r.BlobVersionedHashes = append([]common.Hash{}, tx.BlobVersionedHashes...)
		setTypedSignature(r, tx.Signature)

	case *EIP7702:
		setDynamicFee(r, tx.ChainID, tx.Nonce, tx.MaxPriorityFeePerGas, tx.MaxFeePerGas, tx.Gas, tx.To, tx.Value, tx.Data, tx.AccessList)
		r.AuthorizationList = authorization.ListToRPC(tx.AuthorizationList)
		setTypedSignature(r, tx.Signature)
	}
	return r, nil
}

// FromRPC builds an envelope from its JSON-RPC form and asserts it.
// Addresses are accepted in any casing. Zero numerics become absent fields.
func FromRPC(r *RPC) (Envelope, error) {
	if r == nil {
		return nil, wireerr.Detail(wireerr.ErrInvalidInput, "reason", "missing transaction object")
	}
	if uint64(r.Type) > uint64(TypeEIP7702) {
		return nil, wireerr.Detail(wireerr.ErrTransactionTypeNotImplemented, "type", hexutil.EncodeUint64(uint64(r.Type)))
	}
	t := Type(r.Type) //nolint:gosec // G115: bounded above

	to, err := parseTo(r.To)
	if err != nil {
		return nil, err
	}
	al, err := parseAccessList(r.AccessList)
	if err != nil {
		return nil, err
	}

	var e Envelope
	switch t {
	case TypeLegacy:
		tx := &Legacy{
			ChainID:  fromHexBig(r.ChainID),
			Nonce:    uint64(r.Nonce),
			GasPrice: fromHexBig(r.GasPrice),
			Gas:      uint64(r.Gas),
			To:       to,
			Value:    fromHexBig(r.Value),
			Data:     fromHexBytes(r.Input),
		}
		if err := setLegacySignature(tx, r); err != nil {
			return nil, err
		}
		e = tx

	case TypeEIP2930:
		sig, err := typedSignature(r)
		if err != nil {
			return nil, err
		}
		e = &EIP2930{
			ChainID:    fromHexBig(r.ChainID),
			Nonce:      uint64(r.Nonce),
			GasPrice:   fromHexBig(r.GasPrice),
			Gas:        uint64(r.Gas),
			To:         to,
			Value:      fromHexBig(r.Value),
			Data:       fromHexBytes(r.Input),
			AccessList: al,
			Signature:  sig,
		}

	case TypeEIP1559:
		sig, err := typedSignature(r)
		if err != nil {
			return nil, err
		}
		e = &EIP1559{
			ChainID:              fromHexBig(r.ChainID),
			Nonce:                uint64(r.Nonce),
			MaxPriorityFeePerGas: fromHexBig(r.MaxPriorityFeePerGas),
			MaxFeePerGas:         fromHexBig(r.MaxFeePerGas),
			Gas:                  uint64(r.Gas),
			To:                   to,
			Value:                fromHexBig(r.Value),
			Data:                 fromHexBytes(r.Input),
			AccessList:           al,
			Signature:            sig,
		}

	case TypeEIP4844:
		sig, err := typedSignature(r)
		if err != nil {
			return nil, err
		}
		tx := &EIP4844{
			ChainID:              fromHexBig(r.ChainID),
			Nonce:                uint64(r.Nonce),
			MaxPriorityFeePerGas: fromHexBig(r.MaxPriorityFeePerGas),
			MaxFeePerGas:         fromHexBig(r.MaxFeePerGas),
			Gas:                  uint64(r.Gas),
			To:                   to,
			Value:                fromHexBig(r.Value),
			Data:                 fromHexBytes(r.Input),
			AccessList:           al,
			MaxFeePerBlobGas:     fromHexBig(r.MaxFeePerBlobGas),
			Signature:            sig,
		}
		if r.BlobVersionedHashes != nil {
			tx.BlobVersionedHashes = append([]common.Hash{}, r.BlobVersionedHashes...)
		}
		e = tx

	case TypeEIP7702:
		sig, err := typedSignature(r)
		if err != nil {
			return nil, err
		}
		auths, err := authorization.ListFromRPC(r.AuthorizationList)
		if err != nil {
			return nil, err
		}
		e = &EIP7702{
			ChainID:              fromHexBig(r.ChainID),
			Nonce:                uint64(r.Nonce),
			MaxPriorityFeePerGas: fromHexBig(r.MaxPriorityFeePerGas),
			MaxFeePerGas:         fromHexBig(r.MaxFeePerGas),
			Gas:                  uint64(r.Gas),
			To:                   to,
			Value:                fromHexBig(r.Value),
			Data:                 fromHexBytes(r.Input),
			AccessList:           al,
			AuthorizationList:    auths,
			Signature:            sig,
		}
	}

	if err := Assert(e); err != nil {
		return nil, err
	}
	return e, nil
}

// setLegacySignature reads r and s with v, or with yParity when v is
// absent; v is then derived from the chain id on serialization.
func setLegacySignature(tx *Legacy, r *RPC) error {
	if r.R == nil || r.S == nil {
		return nil
	}
	sig := &signature.Signature{R: uint256.Int(*r.R), S: uint256.Int(*r.S)}

	switch {
	case r.V != nil:
		v := (*big.Int)(r.V)
		y, err := signature.VToYParity(v)
		if err != nil {
			return err
		}
		sig.YParity = y
		tx.V = new(big.Int).Set(v)
		if tx.ChainID == nil && v.Cmp(big.NewInt(35)) >= 0 {
			chainID := new(big.Int).Rsh(new(big.Int).Sub(v, big.NewInt(35)), 1)
			tx.ChainID = nonZero(chainID)
		}
	case r.YParity != nil:
		if uint64(*r.YParity) > 1 {
			return wireerr.Detail(wireerr.ErrInvalidYParity, "y_parity", r.YParity.String())
		}
		sig.YParity = uint8(*r.YParity)
	default:
		return wireerr.Detail(wireerr.ErrInvalidV, "reason", "missing v and yParity")
	}
	tx.Signature = sig
	return nil
}

func setDynamicFee(r *RPC, chainID *big.Int, nonce uint64, tip, maxFee *big.Int, gas uint64,
	to *common.Address, value *big.Int, data []byte, al accesslist.List,
) {
	r.ChainID, r.Nonce, r.Gas = hexBigOrZero(chainID), hexutil.Uint64(nonce), hexutil.Uint64(gas)
	r.MaxPriorityFeePerGas, r.MaxFeePerGas = hexBigOrZero(tip), hexBigOrZero(maxFee)
	r.To, r.Value, r.Input = hexAddress(to), hexBigOrZero(value), hexBytes(data)
	r.AccessList = accessListRPC(al)
}

func setTypedSignature(r *RPC, sig *signature.Signature) {
	if sig == nil {
		return
	}
	y := hexutil.Uint64(sig.YParity)
	r.YParity = &y
	r.V = (*hexutil.Big)(big.NewInt(int64(sig.YParity)))
	r.R, r.S = hexU256(&sig.R), hexU256(&sig.S)
}

// typedSignature reads r, s and the parity, preferring yParity over v.
func typedSignature(r *RPC) (*signature.Signature, error) {
	if r.R == nil || r.S == nil {
		return nil, nil //nolint:nilnil // unsigned envelope
	}

	var y uint8
	switch {
	case r.YParity != nil:
		if uint64(*r.YParity) > 1 {
			return nil, wireerr.Detail(wireerr.ErrInvalidYParity, "y_parity", r.YParity.String())
		}
		y = uint8(*r.YParity)
	case r.V != nil:
		var err error
		if y, err = signature.VToYParity((*big.Int)(r.V)); err != nil {
			return nil, err
		}
	default:
		return nil, wireerr.Detail(wireerr.ErrInvalidYParity, "reason", "missing yParity and v")
	}
	return &signature.Signature{R: uint256.Int(*r.R), S: uint256.Int(*r.S), YParity: y}, nil
}

func parseTo(to *string) (*common.Address, error) {
	if to == nil || *to == "" {
		return nil, nil //nolint:nilnil // contract creation
	}
	addr, err := ethcrypto.AssertAddress(*to, false)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func parseAccessList(r *accesslist.RPC) (accesslist.List, error) {
	if r == nil {
		return nil, nil
	}
	return accesslist.FromRPC(*r)
}

func accessListRPC(l accesslist.List) *accesslist.RPC {
	r := accesslist.ToRPC(l)
	return &r
}

func hexAddress(a *common.Address) *string {
	if a == nil {
		return nil
	}
	s := hexutil.Encode(a.Bytes())
	return &s
}

func hexBig(i *big.Int) *hexutil.Big {
	if i == nil {
		return nil
	}
	return (*hexutil.Big)(new(big.Int).Set(i))
}

func hexBigOrZero(i *big.Int) *hexutil.Big {
	return hexBig(orZero(i))
}

func hexU256(i *uint256.Int) *hexutil.U256 {
	return (*hexutil.U256)(i.Clone())
}

func hexBytes(b []byte) hexutil.Bytes {
	if b == nil {
		return hexutil.Bytes{}
	}
	return append(hexutil.Bytes{}, b...)
}

func fromHexBig(h *hexutil.Big) *big.Int {
	if h == nil {
		return nil
	}
	return nonZero(new(big.Int).Set((*big.Int)(h)))
}

func fromHexBytes(b hexutil.Bytes) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte{}, b...)
}

func nonZero(i *big.Int) *big.Int {
	if i == nil || i.Sign() == 0 {
		return nil
	}
	return i
}
