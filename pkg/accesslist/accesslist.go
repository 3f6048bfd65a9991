// Package accesslist converts EIP-2930 access lists to and from their RLP
// and JSON-RPC forms.
package accesslist

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
)

// Entry is one address and the storage slots it pre-declares.
type Entry struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// List is an ordered access list. Order and duplicates are preserved.
type List []Entry

// Copy returns a deep copy of l.
func (l List) Copy() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, e := range l {
		out[i] = Entry{
			Address:     e.Address,
			StorageKeys: append([]common.Hash(nil), e.StorageKeys...),
		}
	}
	return out
}

// StorageKeyCount returns the total number of storage keys in l.
func StorageKeyCount(l List) int {
	n := 0
	for _, e := range l {
		n += len(e.StorageKeys)
	}
	return n
}

// ToTuple returns the RLP form [[address, [key, ...]], ...].
func ToTuple(l List) rlp.List {
	out := make(rlp.List, len(l))
	for i, e := range l {
		keys := make(rlp.List, len(e.StorageKeys))
		for j, k := range e.StorageKeys {
			keys[j] = rlp.String(k.Bytes())
		}
		out[i] = rlp.List{rlp.String(e.Address.Bytes()), keys}
	}
	return out
}

// FromTuple parses the RLP form of an access list. Addresses must be 20
// bytes and storage keys exactly 32 bytes. Empty lists decode as nil.
func FromTuple(v rlp.Value) (List, error) {
	entries, err := rlp.AsList(v)
	if err != nil {
		return nil, err
	}

	var out List
	for i, item := range entries {
		pair, err := rlp.AsList(item)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, wireerr.WithDetails(wireerr.ErrInvalidSerialized, map[string]string{
				"kind":   "access list entry",
				"index":  strconv.Itoa(i),
				"fields": strconv.Itoa(len(pair)),
			})
		}

		addr, err := rlp.AsString(pair[0])
		if err != nil {
			return nil, err
		}
		if len(addr) != common.AddressLength {
			return nil, wireerr.Detail(wireerr.ErrInvalidAddress, "address", hexutil.Encode(addr))
		}

		rawKeys, err := rlp.AsList(pair[1])
		if err != nil {
			return nil, err
		}
		var keys []common.Hash
		for _, rk := range rawKeys {
			key, err := rlp.AsString(rk)
			if err != nil {
				return nil, err
			}
			if len(key) != common.HashLength {
				return nil, storageKeyErr(hexutil.Encode(key))
			}
			keys = append(keys, common.BytesToHash(key))
		}

		out = append(out, Entry{Address: common.BytesToAddress(addr), StorageKeys: keys})
	}
	return out, nil
}

// RPCEntry is the JSON-RPC form of an access-list entry.
type RPCEntry struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

// RPC is the JSON-RPC form of an access list.
type RPC []RPCEntry

// FromRPC parses a JSON-RPC access list. Addresses are accepted in any
// casing; storage keys must decode to exactly 32 bytes.
func FromRPC(r RPC) (List, error) {
	var out List
	for _, e := range r {
		addr, err := ethcrypto.AssertAddress(e.Address, false)
		if err != nil {
			return nil, err
		}

		var keys []common.Hash
		for _, k := range e.StorageKeys {
			b, err := hexutil.Decode(k)
			if err != nil || len(b) != common.HashLength {
				return nil, storageKeyErr(k)
			}
			keys = append(keys, common.BytesToHash(b))
		}
		out = append(out, Entry{Address: addr, StorageKeys: keys})
	}
	return out, nil
}

// ToRPC returns the JSON-RPC form with lowercase addresses and full-width keys.
func ToRPC(l List) RPC {
	out := make(RPC, len(l))
	for i, e := range l {
		keys := make([]string, len(e.StorageKeys))
		for j, k := range e.StorageKeys {
			keys[j] = k.Hex()
		}
		out[i] = RPCEntry{Address: hexutil.Encode(e.Address.Bytes()), StorageKeys: keys}
	}
	return out
}

func storageKeyErr(key string) error {
	return wireerr.Detail(wireerr.ErrInvalidStorageKeySize, "storage_key", key)
}
