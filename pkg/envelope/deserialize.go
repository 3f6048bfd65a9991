package envelope

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mrz1836/ethwire/pkg/accesslist"
	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// Unsigned field counts per type. A signed envelope carries three more.
const (
	legacyFieldCount  = 6
	eip2930FieldCount = 8
	eip1559FieldCount = 9
	eip4844FieldCount = 11
	eip7702FieldCount = 10

	signatureFieldCount = 3
	networkWrapperCount = 4
)

// Deserialize parses a wire transaction and asserts the result. A first
// byte of 0xc0 or above is a legacy transaction; 0x01 through 0x04 are
// typed envelopes. Anything else fails with ErrTransactionTypeNotImplemented.
func Deserialize(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return nil, wireerr.Detail(wireerr.ErrMalformedRLP, "reason", "empty transaction")
	}

	var (
		e   Envelope
		err error
	)
	switch prefix := b[0]; {
	case prefix >= 0xc0:
		e, err = deserializeLegacy(b)
	case prefix == byte(TypeEIP2930):
		e, err = deserializeEIP2930(b[1:])
	case prefix == byte(TypeEIP1559):
		e, err = deserializeEIP1559(b[1:])
	case prefix == byte(TypeEIP4844):
		e, err = deserializeEIP4844(b[1:])
	case prefix == byte(TypeEIP7702):
		e, err = deserializeEIP7702(b[1:])
	default:
		return nil, wireerr.Detail(wireerr.ErrTransactionTypeNotImplemented, "type", Type(prefix).String())
	}
	if err != nil {
		return nil, err
	}
	if err := Assert(e); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeFields(b []byte, t Type, unsigned int) (rlp.List, error) {
	fields, err := rlp.DecodeList(b)
	if err != nil {
		return nil, err
	}
	if err := checkFieldCount(fields, t, unsigned); err != nil {
		return nil, err
	}
	return fields, nil
}

func checkFieldCount(fields rlp.List, t Type, unsigned int) error {
	if len(fields) != unsigned && len(fields) != unsigned+signatureFieldCount {
		return wireerr.WithDetails(wireerr.ErrInvalidSerialized, map[string]string{
			"type":     t.String(),
			"fields":   strconv.Itoa(len(fields)),
			"expected": strconv.Itoa(unsigned) + " or " + strconv.Itoa(unsigned+signatureFieldCount),
		})
	}
	return nil
}

func deserializeLegacy(b []byte) (Envelope, error) {
	fields, err := decodeFields(b, TypeLegacy, legacyFieldCount)
	if err != nil {
		return nil, err
	}

	r := &fieldReader{fields: fields}
	tx := &Legacy{
		Nonce:    r.num(0, "nonce"),
		GasPrice: r.bigInt(1, "gasPrice"),
		Gas:      r.num(2, "gas"),
		To:       r.address(3, "to"),
		Value:    r.bigInt(4, "value"),
		Data:     r.data(5, "data"),
	}
	if r.err != nil || len(fields) == legacyFieldCount {
		return tx, r.err
	}

	v := r.bigInt(6, "v")
	sigR, sigS := r.str(7, "r"), r.str(8, "s")
	if r.err != nil {
		return nil, r.err
	}

	// EIP-155 presign form [.., chainId, '', ''].
	if len(sigR) == 0 && len(sigS) == 0 {
		tx.ChainID = v
		return tx, nil
	}

	vv := orZero(v)
	if vv.Cmp(big.NewInt(35)) >= 0 {
		chainID := new(big.Int).Sub(vv, big.NewInt(35))
		chainID.Rsh(chainID, 1)
		if chainID.Sign() > 0 {
			tx.ChainID = chainID
		}
	}
	if tx.ChainID == nil && (!vv.IsUint64() || (vv.Uint64() != 27 && vv.Uint64() != 28)) {
		return nil, wireerr.Detail(wireerr.ErrInvalidV, "v", vv.String())
	}

	yParity, err := signature.VToYParity(vv)
	if err != nil {
		return nil, err
	}
	tx.V = vv
	tx.Signature, err = signature.FromTuple(rlp.List{rlp.Uint(uint64(yParity)), sigR, sigS})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func deserializeEIP2930(b []byte) (Envelope, error) {
	fields, err := decodeFields(b, TypeEIP2930, eip2930FieldCount)
	if err != nil {
		return nil, err
	}
	r := &fieldReader{fields: fields}
	tx := &EIP2930{
		ChainID:    r.bigInt(0, "chainId"),
		Nonce:      r.num(1, "nonce"),
		GasPrice:   r.bigInt(2, "gasPrice"),
		Gas:        r.num(3, "gas"),
		To:         r.address(4, "to"),
		Value:      r.bigInt(5, "value"),
		Data:       r.data(6, "data"),
		AccessList: r.accessList(7),
		Signature:  r.sig(eip2930FieldCount),
	}
	return tx, r.err
}

func deserializeEIP1559(b []byte) (Envelope, error) {
	fields, err := decodeFields(b, TypeEIP1559, eip1559FieldCount)
	if err != nil {
		return nil, err
	}
	r := &fieldReader{fields: fields}
	c := r.dynamicFee()
	tx := &EIP1559{
		ChainID:              c.chainID,
		Nonce:                c.nonce,
		MaxPriorityFeePerGas: c.tip,
		MaxFeePerGas:         c.maxFee,
		Gas:                  c.gas,
		To:                   c.to,
		Value:                c.value,
		Data:                 c.data,
		AccessList:           c.accessList,
	}
	tx.Signature = r.sig(eip1559FieldCount)
	return tx, r.err
}

func deserializeEIP4844(b []byte) (Envelope, error) {
	outer, err := rlp.DecodeList(b)
	if err != nil {
		return nil, err
	}

	var sidecars []Sidecar
	fields := outer
	if len(outer) > 0 {
		if inner, ok := outer[0].(rlp.List); ok {
			if len(outer) != networkWrapperCount {
				return nil, wireerr.WithDetails(wireerr.ErrInvalidSerialized, map[string]string{
					"type":     TypeEIP4844.String(),
					"reason":   "network wrapper",
					"fields":   strconv.Itoa(len(outer)),
					"expected": strconv.Itoa(networkWrapperCount),
				})
			}
			if sidecars, err = sidecarsFromFields(outer[1], outer[2], outer[3]); err != nil {
				return nil, err
			}
			fields = inner
		}
	}
	if err := checkFieldCount(fields, TypeEIP4844, eip4844FieldCount); err != nil {
		return nil, err
	}

	r := &fieldReader{fields: fields}
	c := r.dynamicFee()
	tx := &EIP4844{
		ChainID:              c.chainID,
		Nonce:                c.nonce,
		MaxPriorityFeePerGas: c.tip,
		MaxFeePerGas:         c.maxFee,
		Gas:                  c.gas,
		To:                   c.to,
		Value:                c.value,
		Data:                 c.data,
		AccessList:           c.accessList,
	}
	tx.MaxFeePerBlobGas = r.bigInt(9, "maxFeePerBlobGas")
	tx.BlobVersionedHashes = r.hashes(10, "blobVersionedHashes")
	tx.Signature = r.sig(eip4844FieldCount)
	tx.Sidecars = sidecars
	return tx, r.err
}

func deserializeEIP7702(b []byte) (Envelope, error) {
	fields, err := decodeFields(b, TypeEIP7702, eip7702FieldCount)
	if err != nil {
		return nil, err
	}
	r := &fieldReader{fields: fields}
	c := r.dynamicFee()
	tx := &EIP7702{
		ChainID:              c.chainID,
		Nonce:                c.nonce,
		MaxPriorityFeePerGas: c.tip,
		MaxFeePerGas:         c.maxFee,
		Gas:                  c.gas,
		To:                   c.to,
		Value:                c.value,
		Data:                 c.data,
		AccessList:           c.accessList,
	}
	tx.AuthorizationList = r.authorizations(9)
	tx.Signature = r.sig(eip7702FieldCount)
	return tx, r.err
}

// fieldReader maps positional RLP fields to typed values. The first error
// is kept and every later read becomes a no-op.
type fieldReader struct {
	fields rlp.List
	err    error
}

func (r *fieldReader) fail(err error, field string) {
	if r.err == nil {
		r.err = wireerr.Detail(err, "field", field)
	}
}

func (r *fieldReader) str(i int, field string) rlp.String {
	if r.err != nil {
		return nil
	}
	s, err := rlp.AsString(r.fields[i])
	if err != nil {
		r.fail(err, field)
		return nil
	}
	return s
}

func (r *fieldReader) num(i int, field string) uint64 {
	s := r.str(i, field)
	if r.err != nil {
		return 0
	}
	v, err := s.Uint64()
	if err != nil {
		r.fail(err, field)
	}
	return v
}

// bigInt decodes an integer field; zero decodes as nil.
func (r *fieldReader) bigInt(i int, field string) *big.Int {
	s := r.str(i, field)
	if r.err != nil {
		return nil
	}
	v, err := s.Big()
	if err != nil {
		r.fail(err, field)
		return nil
	}
	return v
}

func (r *fieldReader) data(i int, field string) []byte {
	s := r.str(i, field)
	if len(s) == 0 {
		return nil
	}
	return []byte(s)
}

func (r *fieldReader) address(i int, field string) *common.Address {
	s := r.str(i, field)
	if r.err != nil || len(s) == 0 {
		return nil
	}
	if len(s) != common.AddressLength {
		r.fail(wireerr.Detail(wireerr.ErrInvalidAddress, "size", strconv.Itoa(len(s))), field)
		return nil
	}
	addr := common.BytesToAddress(s)
	return &addr
}

func (r *fieldReader) hashes(i int, field string) []common.Hash {
	if r.err != nil {
		return nil
	}
	items, err := rlp.AsList(r.fields[i])
	if err != nil {
		r.fail(err, field)
		return nil
	}
	var out []common.Hash
	for _, item := range items {
		s, err := rlp.AsString(item)
		if err != nil {
			r.fail(err, field)
			return nil
		}
		if len(s) != common.HashLength {
			r.fail(wireerr.Detail(wireerr.ErrInvalidVersionedHash, "size", strconv.Itoa(len(s))), field)
			return nil
		}
		out = append(out, common.BytesToHash(s))
	}
	return out
}

func (r *fieldReader) accessList(i int) accesslist.List {
	if r.err != nil {
		return nil
	}
	l, err := accesslist.FromTuple(r.fields[i])
	if err != nil {
		r.fail(err, "accessList")
	}
	return l
}

func (r *fieldReader) authorizations(i int) authorization.List {
	if r.err != nil {
		return nil
	}
	l, err := authorization.ListFromTuple(r.fields[i])
	if err != nil {
		r.fail(err, "authorizationList")
		return nil
	}
	for j, a := range l {
		if !a.Signed() {
			r.fail(wireerr.WithDetails(wireerr.ErrInvalidSerialized, map[string]string{
				"authorization_index": strconv.Itoa(j),
				"reason":              "unsigned authorization tuple",
			}), "authorizationList")
			return nil
		}
	}
	return l
}

// sig reads [yParity, r, s] at offset when the list is long enough.
func (r *fieldReader) sig(offset int) *signature.Signature {
	if r.err != nil || len(r.fields) < offset+signatureFieldCount {
		return nil
	}
	sig, err := signature.FromTuple(r.fields[offset : offset+signatureFieldCount])
	if err != nil {
		r.fail(err, "signature")
		return nil
	}
	return sig
}

// dynamicFeeCommon holds the nine leading fields shared by the EIP-1559 family.
type dynamicFeeCommon struct {
	chainID, tip, maxFee, value *big.Int
	nonce, gas                  uint64
	to                          *common.Address
	data                        []byte
	accessList                  accesslist.List
}

func (r *fieldReader) dynamicFee() dynamicFeeCommon {
	return dynamicFeeCommon{
		chainID:    r.bigInt(0, "chainId"),
		nonce:      r.num(1, "nonce"),
		tip:        r.bigInt(2, "maxPriorityFeePerGas"),
		maxFee:     r.bigInt(3, "maxFeePerGas"),
		gas:        r.num(4, "gas"),
		to:         r.address(5, "to"),
		value:      r.bigInt(6, "value"),
		data:       r.data(7, "data"),
		accessList: r.accessList(8),
	}
}
