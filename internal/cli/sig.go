package cli

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/output"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/signature"
)

// Signature encodings accepted by --to.
const (
	sigFormatBytes   = "bytes"
	sigFormatCompact = "compact"
	sigFormatDER     = "der"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// sigTo is the target encoding.
	sigTo string
	// sigYParity is the parity attached to DER input, which carries none.
	sigYParity uint8
)

// sigCmd is the parent command for signature conversions.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sigCmd = &cobra.Command{
	Use:     "sig",
	Short:   "Convert secp256k1 signatures between encodings",
	GroupID: groupCodec,
	Long: `Convert secp256k1 signatures between the 65-byte r||s||v form, the
64-byte EIP-2098 compact form and ASN.1 DER.`,
}

// sigConvertCmd converts a signature.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sigConvertCmd = &cobra.Command{
	Use:   "convert [hex|-]",
	Short: "Convert a signature to another encoding",
	Long: `Convert a signature to another encoding.

The input encoding is detected: 65 bytes is r||s||v with v in 0, 1, 27 or 28,
64 bytes is EIP-2098 compact, and anything else starting with 0x30 is DER.
DER carries no parity, so --y-parity supplies it.`,
	Example: `  ethwire sig convert 0x3045022100... --to bytes --y-parity 1
  ethwire sig convert 0x<65 bytes> --to compact`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSigConvert,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sigCmd)
	sigCmd.AddCommand(sigConvertCmd)

	sigConvertCmd.Flags().StringVar(&sigTo, "to", sigFormatBytes, "target encoding: bytes, compact or der")
	sigConvertCmd.Flags().Uint8Var(&sigYParity, "y-parity", 0, "y parity for DER input (0 or 1)")
}

type sigResult struct {
	Format    string `json:"format"`
	Signature string `json:"signature"`
	R         string `json:"r"`
	S         string `json:"s"`
	YParity   uint8  `json:"yParity"`
}

func (r sigResult) Text() string {
	var f output.Fields
	f.Add("Format", r.Format)
	f.Add("Signature", r.Signature)
	f.Add("r", r.R)
	f.Add("s", r.S)
	f.Addf("y parity", "%d", r.YParity)
	return f.Text()
}

func runSigConvert(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	to := strings.ToLower(strings.TrimSpace(sigTo))
	switch to {
	case sigFormatBytes, sigFormatCompact, sigFormatDER:
	default:
		return wireerr.WithSuggestion(
			wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{"field": "to", "value": sigTo}),
			"use bytes, compact or der",
		)
	}
	if sigYParity > 1 {
		return wireerr.Detail(wireerr.ErrInvalidYParity, "y_parity", hexutil.EncodeUint64(uint64(sigYParity)))
	}

	in, err := readArg(cmd, args, "signature")
	if err != nil {
		return err
	}
	b, err := decodeHex(in, "signature")
	if err != nil {
		return err
	}

	done := cc.track("sig_convert")
	res, err := convertSignature(b, to, sigYParity)
	done("", len(b), err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(res)
}

// convertSignature parses b in whichever encoding it is in and re-encodes it.
func convertSignature(b []byte, to string, derParity uint8) (sigResult, error) {
	var (
		sig *signature.Signature
		err error
	)
	if isDER(b) {
		sig, err = signature.FromDER(b, derParity)
	} else {
		sig, err = signature.FromBytes(b)
	}
	if err != nil {
		return sigResult{}, err
	}

	var encoded []byte
	switch to {
	case sigFormatCompact:
		if encoded, err = signature.ToCompactBytes(sig); err != nil {
			return sigResult{}, err
		}
	case sigFormatDER:
		encoded = signature.ToDER(sig)
	default:
		encoded = signature.ToBytes(sig)
	}

	return sigResult{
		Format:    to,
		Signature: hexutil.Encode(encoded),
		R:         sig.R.Hex(),
		S:         sig.S.Hex(),
		YParity:   sig.YParity,
	}, nil
}

func isDER(b []byte) bool {
	return len(b) > 0 && b[0] == 0x30 && len(b) != signature.Length && len(b) != signature.CompactLength
}
