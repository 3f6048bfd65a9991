package envelope

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	"github.com/mrz1836/ethwire/pkg/accesslist"
	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

const (
	testPrivateKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testSenderHex  = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	testToHex      = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
	testContract   = "0xbe95c3f554e9fc85ec51be69a3d807a0d55bcf2c"
)

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000_000_000_000))
}

func testTo() *common.Address {
	a := common.HexToAddress(testToHex)
	return &a
}

func testSigner(t testing.TB) ethcrypto.KeySigner {
	t.Helper()
	b, err := hex.DecodeString(testPrivateKey)
	require.NoError(t, err)
	return ethcrypto.KeySigner(b)
}

func mustU256(t *testing.T, s string) uint256.Int {
	t.Helper()
	v, err := uint256.FromHex(s)
	require.NoError(t, err)
	return *v
}

func sampleAccessList() accesslist.List {
	return accesslist.List{
		{
			Address: common.HexToAddress(testContract),
			StorageKeys: []common.Hash{
				common.HexToHash("0x01"),
				common.HexToHash("0x0200000000000000000000000000000000000000000000000000000000000000"),
			},
		},
		{Address: common.HexToAddress(testToHex)},
	}
}

// zeroSidecar is the all-zero blob; its commitment and proof are the
// compressed point at infinity.
func zeroSidecar() Sidecar {
	var sc Sidecar
	sc.Commitment[0] = 0xc0
	sc.Proof[0] = 0xc0
	return sc
}

func signedAuthorization(t testing.TB, nonce uint64) *authorization.Authorization {
	t.Helper()
	a, err := authorization.Sign(&authorization.Authorization{
		ContractAddress: common.HexToAddress(testContract),
		ChainID:         *uint256.NewInt(1),
		Nonce:           nonce,
	}, testSigner(t))
	require.NoError(t, err)
	return a
}

// sampleEnvelopes returns one unsigned envelope per wire shape.
func sampleEnvelopes(t testing.TB) map[string]Envelope {
	t.Helper()
	sidecars := []Sidecar{zeroSidecar()}

	return map[string]Envelope{
		"legacy": &Legacy{
			Nonce:    665,
			GasPrice: gwei(1),
			Gas:      21000,
			To:       testTo(),
			Value:    ether(1),
		},
		"legacy eip155": &Legacy{
			ChainID:  big.NewInt(1),
			Nonce:    665,
			GasPrice: gwei(1),
			Gas:      21000,
			To:       testTo(),
			Value:    ether(1),
			Data:     []byte{0xde, 0xad, 0xbe, 0xef},
		},
		"legacy contract creation": &Legacy{
			ChainID:  big.NewInt(5),
			GasPrice: gwei(2),
			Gas:      1_000_000,
			Data:     []byte{0x60, 0x80, 0x60, 0x40},
		},
		"eip2930": &EIP2930{
			ChainID:    big.NewInt(1),
			Nonce:      1,
			GasPrice:   gwei(3),
			Gas:        50000,
			To:         testTo(),
			Value:      big.NewInt(7),
			Data:       []byte{0x01},
			AccessList: sampleAccessList(),
		},
		"eip1559": &EIP1559{
			ChainID:              big.NewInt(1),
			Nonce:                665,
			MaxPriorityFeePerGas: gwei(1),
			MaxFeePerGas:         gwei(13),
			Gas:                  21000,
			To:                   testTo(),
			Value:                ether(1),
		},
		"eip1559 with access list": &EIP1559{
			ChainID:              big.NewInt(11155111),
			Nonce:                3,
			MaxPriorityFeePerGas: gwei(2),
			MaxFeePerGas:         gwei(40),
			Gas:                  90000,
			To:                   testTo(),
			Data:                 []byte("hello"),
			AccessList:           sampleAccessList(),
		},
		"eip4844": &EIP4844{
			ChainID:              big.NewInt(1),
			Nonce:                9,
			MaxPriorityFeePerGas: gwei(1),
			MaxFeePerGas:         gwei(20),
			Gas:                  21000,
			To:                   testTo(),
			MaxFeePerBlobGas:     gwei(5),
			BlobVersionedHashes:  BlobHashes(sidecars),
		},
		"eip4844 with sidecars": &EIP4844{
			ChainID:              big.NewInt(1),
			Nonce:                10,
			MaxPriorityFeePerGas: gwei(1),
			MaxFeePerGas:         gwei(20),
			Gas:                  21000,
			To:                   testTo(),
			MaxFeePerBlobGas:     gwei(5),
			BlobVersionedHashes:  BlobHashes(sidecars),
			Sidecars:             sidecars,
		},
		"eip7702": &EIP7702{
			ChainID:              big.NewInt(1),
			Nonce:                11,
			MaxPriorityFeePerGas: gwei(1),
			MaxFeePerGas:         gwei(30),
			Gas:                  100000,
			To:                   testTo(),
			AccessList:           sampleAccessList(),
			AuthorizationList:    authorization.List{signedAuthorization(t, 40), signedAuthorization(t, 41)},
		},
	}
}

func TestTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "legacy", TypeLegacy.String())
	assert.Equal(t, "eip2930", TypeEIP2930.String())
	assert.Equal(t, "eip1559", TypeEIP1559.String())
	assert.Equal(t, "eip4844", TypeEIP4844.String())
	assert.Equal(t, "eip7702", TypeEIP7702.String())
	assert.Equal(t, "0x7f", Type(0x7f).String())
}

func TestParseType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected Type
	}{
		{"legacy", TypeLegacy},
		{"EIP1559", TypeEIP1559},
		{" eip4844 ", TypeEIP4844},
		{"eip7702", TypeEIP7702},
		{"0x1", TypeEIP2930},
		{"0x02", TypeEIP1559},
		{"3", TypeEIP4844},
		{"0", TypeLegacy},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseType(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input      string
		suggestion string
	}{
		{"eip1599", "did you mean eip1559?"},
		{"legasy", "did you mean legacy?"},
		{"0x05", ""},
		{"completely-unknown", ""},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			_, err := ParseType(tc.input)
			require.ErrorIs(t, err, wireerr.ErrTransactionTypeNotImplemented)

			var we *wireerr.WireError
			require.ErrorAs(t, err, &we)
			assert.Equal(t, tc.suggestion, we.Suggestion)
		})
	}
}

func TestEnvelopeTypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeLegacy, (&Legacy{}).Type())
	assert.Equal(t, TypeEIP2930, (&EIP2930{}).Type())
	assert.Equal(t, TypeEIP1559, (&EIP1559{}).Type())
	assert.Equal(t, TypeEIP4844, (&EIP4844{}).Type())
	assert.Equal(t, TypeEIP7702, (&EIP7702{}).Type())
}

func TestCopyIsDeep(t *testing.T) {
	t.Parallel()

	for name, e := range sampleEnvelopes(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			signed, err := WithSignature(e, &signature.Signature{R: *uint256.NewInt(1), S: *uint256.NewInt(2)})
			require.NoError(t, err)

			before, err := Serialize(signed)
			require.NoError(t, err)

			cp := Copy(signed)
			assert.Equal(t, signed, cp)
			mutate(cp)

			after, err := Serialize(signed)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

// mutate scribbles over every reference-typed field of e.
func mutate(e Envelope) {
	switch tx := e.(type) {
	case *Legacy:
		tx.GasPrice.SetInt64(1)
		if tx.To != nil {
			tx.To[0] = 0xff
		}
		tx.Signature.R.SetUint64(99)
		if len(tx.Data) > 0 {
			tx.Data[0] = 0xff
		}
	case *EIP2930:
		tx.ChainID.SetInt64(77)
		tx.AccessList[0].StorageKeys[0] = common.Hash{}
		tx.Signature.S.SetUint64(99)
	case *EIP1559:
		tx.MaxFeePerGas.SetInt64(1)
		tx.To[0] = 0xff
		tx.Signature.YParity = 1
	case *EIP4844:
		tx.BlobVersionedHashes[0][5] ^= 0xff
		tx.MaxFeePerBlobGas.SetInt64(1)
		if len(tx.Sidecars) > 0 {
			tx.Sidecars[0].Blob[0] = 0xff
		}
	case *EIP7702:
		tx.AuthorizationList[0].Nonce = 1
		tx.AuthorizationList[1].Signature.R.SetUint64(5)
		tx.AccessList[1].Address[0] = 0xff
	}
}

func TestSignatureOf(t *testing.T) {
	t.Parallel()

	for name, e := range sampleEnvelopes(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Nil(t, SignatureOf(e))
			assert.False(t, Signed(e))

			sig := &signature.Signature{R: *uint256.NewInt(1), S: *uint256.NewInt(2), YParity: 1}
			signed, err := WithSignature(e, sig)
			require.NoError(t, err)
			assert.Equal(t, sig, SignatureOf(signed))
			assert.True(t, Signed(signed))
			assert.Nil(t, SignatureOf(e), "input must not be mutated")
		})
	}

	assert.Nil(t, SignatureOf(nil))
}

func TestZeroSidecarIsConsistent(t *testing.T) {
	t.Parallel()

	hashes := BlobHashes([]Sidecar{zeroSidecar()})
	require.Len(t, hashes, 1)
	assert.Equal(t, BlobHashVersion, hashes[0][0])

	var blob kzg4844.Blob
	sc, err := NewSidecar(&blob)
	require.NoError(t, err)
	assert.Equal(t, zeroSidecar(), sc)
}
