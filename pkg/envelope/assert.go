package envelope

import (
	"math/big"
	"strconv"

	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// BlobHashVersion is the only supported blob versioned-hash version byte.
const BlobHashVersion byte = 0x01

//nolint:gochecknoglobals // read-only bound
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Assert checks the per-type invariants of e and returns the first violation.
func Assert(e Envelope) error {
	switch tx := e.(type) {
	case *Legacy:
		return assertLegacy(tx)
	case *EIP2930:
		return firstErr(
			assertNonNegative("value", tx.Value),
			assertGasPrice(tx.GasPrice),
			assertOptionalChainID(tx.ChainID),
			signature.Assert(tx.Signature),
		)
	case *EIP1559:
		return firstErr(
			assertNonNegative("value", tx.Value),
			assertFees(tx.MaxFeePerGas, tx.MaxPriorityFeePerGas),
			assertChainID(tx.ChainID),
			signature.Assert(tx.Signature),
		)
	case *EIP4844:
		return assertEIP4844(tx)
	case *EIP7702:
		if err := firstErr(
			assertNonNegative("value", tx.Value),
			assertFees(tx.MaxFeePerGas, tx.MaxPriorityFeePerGas),
			assertChainID(tx.ChainID),
			signature.Assert(tx.Signature),
		); err != nil {
			return err
		}
		return assertAuthorizations(tx.AuthorizationList)
	default:
		return unknownEnvelope(e)
	}
}

// Validate reports whether Assert(e) succeeds.
func Validate(e Envelope) bool {
	return Assert(e) == nil
}

func assertLegacy(tx *Legacy) error {
	if err := firstErr(
		assertNonNegative("value", tx.Value),
		assertGasPrice(tx.GasPrice),
		assertOptionalChainID(tx.ChainID),
		signature.Assert(tx.Signature),
	); err != nil {
		return err
	}
	if tx.Signature != nil && tx.V != nil {
		if _, err := legacyV(tx); err != nil {
			return err
		}
	}
	return nil
}

func assertEIP4844(tx *EIP4844) error {
	if err := firstErr(
		assertNonNegative("value", tx.Value),
		assertFees(tx.MaxFeePerGas, tx.MaxPriorityFeePerGas),
		assertChainID(tx.ChainID),
		assertFeeCap("maxFeePerBlobGas", tx.MaxFeePerBlobGas),
		signature.Assert(tx.Signature),
	); err != nil {
		return err
	}

	if len(tx.BlobVersionedHashes) == 0 {
		return wireerr.Detail(wireerr.ErrInvalidVersionedHash, "reason", "no blob versioned hashes")
	}
	for i, h := range tx.BlobVersionedHashes {
		if h[0] != BlobHashVersion {
			return wireerr.WithDetails(wireerr.ErrInvalidVersionedHash, map[string]string{
				"index": strconv.Itoa(i),
				"hash":  h.Hex(),
			})
		}
	}

	if len(tx.Sidecars) == 0 {
		return nil
	}
	if len(tx.Sidecars) != len(tx.BlobVersionedHashes) {
		return wireerr.WithDetails(wireerr.ErrInvalidSidecar, map[string]string{
			"sidecars": strconv.Itoa(len(tx.Sidecars)),
			"hashes":   strconv.Itoa(len(tx.BlobVersionedHashes)),
		})
	}
	for i, h := range BlobHashes(tx.Sidecars) {
		if h != tx.BlobVersionedHashes[i] {
			return wireerr.WithDetails(wireerr.ErrInvalidSidecar, map[string]string{
				"index":  strconv.Itoa(i),
				"reason": "commitment does not match versioned hash",
			})
		}
	}
	return nil
}

// assertAuthorizations requires every entry of a set-code transaction to be
// signed; an unsigned authorization has no authority to delegate.
func assertAuthorizations(l authorization.List) error {
	for i, a := range l {
		if a == nil || !a.Signed() {
			return wireerr.WithDetails(wireerr.ErrInvalidSignature, map[string]string{
				"authorization_index": strconv.Itoa(i),
				"reason":              "authorization is not signed",
			})
		}
		if err := authorization.Assert(a); err != nil {
			return wireerr.Detail(err, "authorization_index", strconv.Itoa(i))
		}
	}
	return nil
}

func assertGasPrice(gasPrice *big.Int) error {
	if gasPrice == nil {
		return nil
	}
	if gasPrice.Cmp(maxUint256) > 0 {
		return wireerr.Detail(wireerr.ErrGasPriceTooHigh, "gasPrice", gasPrice.String())
	}
	return assertNonNegative("gasPrice", gasPrice)
}

func assertFeeCap(field string, feeCap *big.Int) error {
	if feeCap == nil {
		return nil
	}
	if feeCap.Cmp(maxUint256) > 0 {
		return wireerr.Detail(wireerr.ErrFeeCapTooHigh, field, feeCap.String())
	}
	return assertNonNegative(field, feeCap)
}

// assertFees treats an absent maxFeePerGas as zero, so any tip without a
// fee cap fails.
func assertFees(maxFee, tip *big.Int) error {
	if err := firstErr(
		assertFeeCap("maxFeePerGas", maxFee),
		assertNonNegative("maxPriorityFeePerGas", tip),
	); err != nil {
		return err
	}
	if tip != nil && tip.Cmp(orZero(maxFee)) > 0 {
		return wireerr.WithDetails(wireerr.ErrTipAboveFeeCap, map[string]string{
			"maxPriorityFeePerGas": tip.String(),
			"maxFeePerGas":         orZero(maxFee).String(),
		})
	}
	return nil
}

func assertChainID(chainID *big.Int) error {
	if chainID == nil || chainID.Sign() <= 0 {
		return wireerr.Detail(wireerr.ErrInvalidChainID, "chainId", orZero(chainID).String())
	}
	return nil
}

func assertOptionalChainID(chainID *big.Int) error {
	if chainID == nil {
		return nil
	}
	return assertChainID(chainID)
}

func assertNonNegative(field string, v *big.Int) error {
	if v != nil && v.Sign() < 0 {
		return wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{
			"field":  field,
			"reason": "negative value",
		})
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

//nolint:gochecknoglobals // shared zero, never written
var bigZero = new(big.Int)

func orZero(i *big.Int) *big.Int {
	if i == nil {
		return bigZero
	}
	return i
}
