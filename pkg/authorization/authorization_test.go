package authorization

import (
	"encoding/hex"
	"encoding/json"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
	"github.com/mrz1836/ethwire/pkg/signature"
)

const (
	testContract   = "0xbe95c3f554e9fc85ec51be69a3d807a0d55bcf2c"
	testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAuthority  = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

func fixture() *Authorization {
	return &Authorization{
		ContractAddress: common.HexToAddress(testContract),
		ChainID:         *uint256.NewInt(1),
		Nonce:           40,
	}
}

func testKey(t *testing.T) ethcrypto.KeySigner {
	t.Helper()
	b, err := hex.DecodeString(testPrivateKey)
	require.NoError(t, err)
	return ethcrypto.KeySigner(b)
}

func TestHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"0x5919da563810a99caf657d42bd10905adbd28b3b89b8a4577efa471e5e4b3914",
		Hash(fixture()).Hex(),
	)
}

func TestHashIgnoresSignature(t *testing.T) {
	t.Parallel()

	signed := fixture()
	signed.Signature = &signature.Signature{R: *uint256.NewInt(1), S: *uint256.NewInt(2), YParity: 1}
	assert.Equal(t, Hash(fixture()), Hash(signed))
}

func TestHashMatchesGeth(t *testing.T) {
	t.Parallel()

	for _, a := range []*Authorization{
		fixture(),
		{ContractAddress: common.HexToAddress(testContract)},
		{ContractAddress: common.HexToAddress(testAuthority), ChainID: *uint256.NewInt(11155111), Nonce: 1 << 40},
	} {
		gethAuth := types.SetCodeAuthorization{
			ChainID: a.ChainID,
			Address: a.ContractAddress,
			Nonce:   a.Nonce,
		}
		assert.Equal(t, gethAuth.SigHash(), Hash(a))
	}
}

func TestToTuple(t *testing.T) {
	t.Parallel()

	t.Run("unsigned", func(t *testing.T) {
		t.Parallel()
		got := hex.EncodeToString(rlp.Encode(ToTuple(fixture())))
		assert.Equal(t, "d70194"+testContract[2:]+"28", got)
	})

	t.Run("zero chain id and nonce are empty strings", func(t *testing.T) {
		t.Parallel()
		a := &Authorization{ContractAddress: common.HexToAddress(testContract)}
		got := hex.EncodeToString(rlp.Encode(ToTuple(a)))
		assert.Equal(t, "d78094"+testContract[2:]+"80", got)
	})

	t.Run("signed has six fields", func(t *testing.T) {
		t.Parallel()
		a := fixture()
		a.Signature = &signature.Signature{R: *uint256.NewInt(1), S: *uint256.NewInt(2)}
		assert.Len(t, ToTuple(a), 6)
	})
}

func TestTupleRoundTrip(t *testing.T) {
	t.Parallel()

	signed, err := Sign(fixture(), testKey(t))
	require.NoError(t, err)

	for _, a := range []*Authorization{fixture(), signed} {
		decoded, err := rlp.Decode(rlp.Encode(ToTuple(a)))
		require.NoError(t, err)
		back, err := FromTuple(decoded)
		require.NoError(t, err)
		assert.Equal(t, a, back)
	}
}

func TestFromTupleErrors(t *testing.T) {
	t.Parallel()

	addr := rlp.String(common.HexToAddress(testContract).Bytes())

	tests := []struct {
		name  string
		input rlp.Value
		err   error
	}{
		{"not a list", rlp.String{}, wireerr.ErrMalformedRLP},
		{"two fields", rlp.List{rlp.String{}, addr}, wireerr.ErrInvalidSerialized},
		{"four fields", rlp.List{rlp.String{}, addr, rlp.String{}, rlp.String{}}, wireerr.ErrInvalidSerialized},
		{"short address", rlp.List{rlp.String{}, rlp.String{0x01}, rlp.String{}}, wireerr.ErrInvalidAddress},
		{"wide chain id", rlp.List{rlp.String(make([]byte, 33)), addr, rlp.String{}}, wireerr.ErrSizeOverflow},
		{"wide nonce", rlp.List{rlp.String{}, addr, rlp.String{1, 2, 3, 4, 5, 6, 7, 8, 9}}, wireerr.ErrSizeOverflow},
		{"chain id as list", rlp.List{rlp.List{}, addr, rlp.String{}}, wireerr.ErrMalformedRLP},
		{"bad parity", rlp.List{rlp.String{}, addr, rlp.String{}, rlp.String{0x02}, rlp.String{}, rlp.String{}}, wireerr.ErrInvalidYParity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := FromTuple(tc.input)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestListTuple(t *testing.T) {
	t.Parallel()

	signed, err := Sign(fixture(), testKey(t))
	require.NoError(t, err)
	l := List{fixture(), signed}

	back, err := ListFromTuple(ListToTuple(l))
	require.NoError(t, err)
	assert.Equal(t, l, back)

	empty, err := ListFromTuple(ListToTuple(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ListFromTuple(rlp.List{rlp.List{}})
	require.ErrorIs(t, err, wireerr.ErrInvalidSerialized)
}

func TestSignAuthority(t *testing.T) {
	t.Parallel()

	unsigned := fixture()
	signed, err := Sign(unsigned, testKey(t))
	require.NoError(t, err)
	require.True(t, signed.Signed())
	assert.False(t, unsigned.Signed(), "input must not be mutated")

	authority, err := Authority(signed)
	require.NoError(t, err)
	assert.Equal(t, testAuthority, authority.Hex())

	gethAuth := types.SetCodeAuthorization{
		ChainID: signed.ChainID,
		Address: signed.ContractAddress,
		Nonce:   signed.Nonce,
		V:       signed.Signature.YParity,
		R:       signed.Signature.R,
		S:       signed.Signature.S,
	}
	gethAuthority, err := gethAuth.Authority()
	require.NoError(t, err)
	assert.Equal(t, gethAuthority, authority)
}

func TestSignPropagatesSignerError(t *testing.T) {
	t.Parallel()

	failing := signature.SignerFunc(func([]byte) ([]byte, error) {
		return nil, wireerr.ErrInvalidKey
	})
	_, err := Sign(fixture(), failing)
	require.ErrorIs(t, err, wireerr.ErrInvalidKey)

	short := signature.SignerFunc(func([]byte) ([]byte, error) {
		return make([]byte, 10), nil
	})
	_, err = Sign(fixture(), short)
	require.ErrorIs(t, err, wireerr.ErrInvalidSerializedSize)
}

func TestAuthorityErrors(t *testing.T) {
	t.Parallel()

	_, err := Authority(fixture())
	require.ErrorIs(t, err, wireerr.ErrInvalidSignature)

	a := fixture()
	a.Signature = &signature.Signature{R: *uint256.NewInt(1), S: *uint256.NewInt(1), YParity: 4}
	_, err = Authority(a)
	require.ErrorIs(t, err, wireerr.ErrInvalidYParity)
}

func TestAssert(t *testing.T) {
	t.Parallel()

	require.NoError(t, Assert(fixture()))

	a := fixture()
	a.Signature = &signature.Signature{YParity: 2}
	require.ErrorIs(t, Assert(a), wireerr.ErrInvalidYParity)
}

func TestCopy(t *testing.T) {
	t.Parallel()

	signed, err := Sign(fixture(), testKey(t))
	require.NoError(t, err)

	cp := signed.Copy()
	cp.Signature.YParity ^= 1
	cp.Nonce++
	assert.NotEqual(t, cp.Signature.YParity, signed.Signature.YParity)
	assert.Equal(t, uint64(40), signed.Nonce)

	assert.Nil(t, (*Authorization)(nil).Copy())
	assert.Nil(t, List(nil).Copy())
}

func TestRPC(t *testing.T) {
	t.Parallel()

	t.Run("unsigned json", func(t *testing.T) {
		t.Parallel()
		r := ToRPC(fixture())
		b, err := json.Marshal(&r)
		require.NoError(t, err)
		assert.JSONEq(t, `{"chainId":"0x1","address":"`+testContract+`","nonce":"0x28"}`, string(b))
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		signed, err := Sign(fixture(), testKey(t))
		require.NoError(t, err)

		for _, a := range []*Authorization{fixture(), signed} {
			r := ToRPC(a)
			b, err := json.Marshal(&r)
			require.NoError(t, err)

			var parsed RPC
			require.NoError(t, json.Unmarshal(b, &parsed))
			back, err := FromRPC(parsed)
			require.NoError(t, err)
			assert.Equal(t, a, back)
		}
	})

	t.Run("list round trip", func(t *testing.T) {
		t.Parallel()
		l := List{fixture()}
		back, err := ListFromRPC(ListToRPC(l))
		require.NoError(t, err)
		assert.Equal(t, l, back)
	})
}

func TestFromRPCErrors(t *testing.T) {
	t.Parallel()

	y := func(v uint64) *hexutil.Uint64 { return (*hexutil.Uint64)(&v) }
	one := (*hexutil.U256)(uint256.NewInt(1))

	tests := []struct {
		name  string
		input RPC
		err   error
	}{
		{"bad address", RPC{Address: "0x12"}, wireerr.ErrInvalidAddress},
		{"partial signature", RPC{Address: testContract, YParity: y(0), R: one}, wireerr.ErrInvalidSerialized},
		{"bad parity", RPC{Address: testContract, YParity: y(2), R: one, S: one}, wireerr.ErrInvalidYParity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := FromRPC(tc.input)
			require.ErrorIs(t, err, tc.err)
		})
	}

	_, err := ListFromRPC([]RPC{{Address: "nope"}})
	require.ErrorIs(t, err, wireerr.ErrInvalidAddress)
}

func TestConcurrentHashing(t *testing.T) {
	t.Parallel()

	want := Hash(fixture())
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Hash(fixture()))
		}()
	}
	wg.Wait()
}
