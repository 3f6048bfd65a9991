// Package errors provides the structured error taxonomy for ethwire.
// It defines sentinel errors for every codec failure, exit codes for the CLI,
// and helpers for adding context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// Exit codes returned by the ethwire CLI.
const (
	ExitSuccess = 0 // Successful execution
	ExitGeneral = 1 // General/unknown error
	ExitInput   = 2 // Invalid input
)

// WireError is the structured error type for ethwire.
type WireError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *WireError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *WireError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for WireError. Two errors match when their codes match.
func (e *WireError) Is(target error) bool {
	var t *WireError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// General errors.
var (
	ErrGeneral = &WireError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &WireError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrInvalidKey = &WireError{
		Code:     "INVALID_KEY",
		Message:  "invalid private key",
		ExitCode: ExitInput,
	}

	ErrConfigInvalid = &WireError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration file is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &WireError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown configuration key",
		ExitCode: ExitInput,
	}
)

// Structural errors.
var (
	ErrMalformedRLP = &WireError{
		Code:     "MALFORMED_RLP",
		Message:  "malformed RLP input",
		ExitCode: ExitInput,
	}

	ErrInvalidSerialized = &WireError{
		Code:     "INVALID_SERIALIZED",
		Message:  "serialized value has an invalid shape",
		ExitCode: ExitInput,
	}

	ErrInvalidStorageKeySize = &WireError{
		Code:     "INVALID_STORAGE_KEY_SIZE",
		Message:  "storage key must be exactly 32 bytes",
		ExitCode: ExitInput,
	}

	ErrTransactionTypeNotImplemented = &WireError{
		Code:     "TRANSACTION_TYPE_NOT_IMPLEMENTED",
		Message:  "transaction type is not implemented",
		ExitCode: ExitInput,
	}

	ErrInvalidVersionedHash = &WireError{
		Code:     "INVALID_VERSIONED_HASH",
		Message:  "blob versioned hash has an unsupported version",
		ExitCode: ExitInput,
	}

	ErrInvalidSidecar = &WireError{
		Code:     "INVALID_SIDECAR",
		Message:  "invalid blob sidecar",
		ExitCode: ExitInput,
	}
)

// Numeric-bound errors.
var (
	ErrFeeCapTooHigh = &WireError{
		Code:     "FEE_CAP_TOO_HIGH",
		Message:  "fee cap is higher than 2^256-1",
		ExitCode: ExitInput,
	}

	ErrTipAboveFeeCap = &WireError{
		Code:     "TIP_ABOVE_FEE_CAP",
		Message:  "max priority fee per gas cannot be higher than max fee per gas",
		ExitCode: ExitInput,
	}

	ErrGasPriceTooHigh = &WireError{
		Code:     "GAS_PRICE_TOO_HIGH",
		Message:  "gas price is higher than 2^256-1",
		ExitCode: ExitInput,
	}

	ErrInvalidChainID = &WireError{
		Code:     "INVALID_CHAIN_ID",
		Message:  "chain ID must be greater than zero",
		ExitCode: ExitInput,
	}

	ErrSizeOverflow = &WireError{
		Code:     "SIZE_OVERFLOW",
		Message:  "value exceeds the size of its field",
		ExitCode: ExitInput,
	}
)

// Signature-shape errors.
var (
	ErrInvalidV = &WireError{
		Code:     "INVALID_V",
		Message:  "invalid signature v value",
		ExitCode: ExitInput,
	}

	ErrInvalidYParity = &WireError{
		Code:     "INVALID_Y_PARITY",
		Message:  "signature y parity must be 0 or 1",
		ExitCode: ExitInput,
	}

	ErrInvalidR = &WireError{
		Code:     "INVALID_R",
		Message:  "signature r value is not a 256-bit unsigned integer",
		ExitCode: ExitInput,
	}

	ErrInvalidS = &WireError{
		Code:     "INVALID_S",
		Message:  "signature s value is not a 256-bit unsigned integer",
		ExitCode: ExitInput,
	}

	ErrInvalidSerializedSize = &WireError{
		Code:     "INVALID_SERIALIZED_SIZE",
		Message:  "serialized signature has an invalid size",
		ExitCode: ExitInput,
	}

	ErrInvalidSignature = &WireError{
		Code:     "INVALID_SIGNATURE",
		Message:  "signature does not recover a public key",
		ExitCode: ExitInput,
	}
)

// Address-shape errors.
var (
	ErrInvalidAddress = &WireError{
		Code:     "INVALID_ADDRESS",
		Message:  "invalid address format",
		ExitCode: ExitInput,
	}

	ErrInvalidChecksum = &WireError{
		Code:     "INVALID_CHECKSUM",
		Message:  "invalid address checksum",
		ExitCode: ExitInput,
	}
)

// New creates a new WireError with the given code and message.
func New(code, message string) *WireError {
	return &WireError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var we *WireError
	if errors.As(err, &we) {
		return &WireError{
			Code:       we.Code,
			Message:    fmt.Sprintf("%s: %s", msg, we.Message),
			Details:    we.Details,
			Suggestion: we.Suggestion,
			Cause:      err,
			ExitCode:   we.ExitCode,
		}
	}

	return &WireError{
		Code:     "GENERAL_ERROR",
		Message:  msg,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var we *WireError
	if errors.As(err, &we) {
		return &WireError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    details,
			Suggestion: we.Suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WireError{
		Code:     "GENERAL_ERROR",
		Message:  err.Error(),
		Details:  details,
		Cause:    err,
		ExitCode: ExitGeneral,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var we *WireError
	if errors.As(err, &we) {
		return &WireError{
			Code:       we.Code,
			Message:    we.Message,
			Details:    we.Details,
			Suggestion: suggestion,
			Cause:      we.Cause,
			ExitCode:   we.ExitCode,
		}
	}

	return &WireError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
		ExitCode:   ExitGeneral,
	}
}

// Detail returns a copy of err with a single key/value detail added to any
// details it already carries.
func Detail(err error, key, value string) error {
	if err == nil {
		return nil
	}

	details := map[string]string{key: value}
	var we *WireError
	if errors.As(err, &we) {
		for k, v := range we.Details {
			if _, ok := details[k]; !ok {
				details[k] = v
			}
		}
	}
	return WithDetails(err, details)
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var we *WireError
	if errors.As(err, &we) {
		return we.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var we *WireError
	if errors.As(err, &we) {
		return we.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
