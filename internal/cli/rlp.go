package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
)

// rlpCmd is the parent command for raw RLP operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rlpCmd = &cobra.Command{
	Use:     "rlp",
	Short:   "Encode and decode raw RLP",
	GroupID: groupCodec,
	Long: `Convert between RLP bytes and a JSON tree.

In the tree every byte string is a 0x-prefixed hex string and every list is a
JSON array. Decoding is strict: non-canonical encodings are rejected.`,
}

// rlpDecodeCmd decodes RLP bytes.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rlpDecodeCmd = &cobra.Command{
	Use:   "decode [hex|-]",
	Short: "Decode RLP bytes into a JSON tree",
	Long: `Decode hex-encoded RLP into a tree of hex strings and lists.

The input is read from stdin when the argument is omitted or "-".`,
	Example: `  ethwire rlp decode 0xc88363617483646f67
  echo c88363617483646f67 | ethwire rlp decode -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRLPDecode,
}

// rlpEncodeCmd encodes a JSON tree as RLP.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var rlpEncodeCmd = &cobra.Command{
	Use:   "encode [json|-]",
	Short: "Encode a JSON tree as RLP",
	Long: `Encode a JSON tree as RLP.

Strings starting with 0x are hex bytes, other strings are taken as UTF-8
text, non-negative integers become canonical big-endian integers and arrays
become lists.`,
	Example: `  ethwire rlp encode '["cat","dog"]'
  ethwire rlp encode '[1024, "0x", []]'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRLPEncode,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(rlpCmd)
	rlpCmd.AddCommand(rlpDecodeCmd)
	rlpCmd.AddCommand(rlpEncodeCmd)
}

func runRLPDecode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	in, err := readArg(cmd, args, "rlp")
	if err != nil {
		return err
	}
	b, err := decodeHex(in, "rlp")
	if err != nil {
		return err
	}

	done := cc.track("rlp_decode")
	v, err := rlp.Decode(b)
	done("", len(b), err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(rlpTree{value: v})
}

func runRLPEncode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	in, err := readArg(cmd, args, "json")
	if err != nil {
		return err
	}

	done := cc.track("rlp_encode")
	v, err := parseRLPTree(in)
	if err != nil {
		done("", 0, err)
		return err
	}
	b := rlp.Encode(v)
	done("", len(b), nil)

	return cc.printer(cmd).Print(rlpEncodeResult{RLP: hexutil.Encode(b), Size: len(b)})
}

type rlpEncodeResult struct {
	RLP  string `json:"rlp"`
	Size int    `json:"size"`
}

func (r rlpEncodeResult) Text() string { return r.RLP }

// rlpTree renders a decoded value as nested JSON arrays of hex strings, or as
// an indented tree in text mode.
type rlpTree struct {
	value rlp.Value
}

func (t rlpTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(rlpToJSON(t.value))
}

func (t rlpTree) Text() string {
	var sb strings.Builder
	writeRLPTree(&sb, t.value, 0)
	return sb.String()
}

func writeRLPTree(sb *strings.Builder, v rlp.Value, depth int) {
	indent := strings.Repeat("  ", depth)
	switch x := v.(type) {
	case rlp.String:
		fmt.Fprintf(sb, "%s%s\n", indent, hexutil.Encode(x))
	case rlp.List:
		if len(x) == 0 {
			fmt.Fprintf(sb, "%s[]\n", indent)
			return
		}
		fmt.Fprintf(sb, "%s[\n", indent)
		for _, item := range x {
			writeRLPTree(sb, item, depth+1)
		}
		fmt.Fprintf(sb, "%s]\n", indent)
	}
}

func rlpToJSON(v rlp.Value) any {
	switch x := v.(type) {
	case rlp.String:
		return hexutil.Encode(x)
	case rlp.List:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = rlpToJSON(item)
		}
		return items
	}
	return nil
}

// parseRLPTree parses the JSON tree accepted by rlp encode.
func parseRLPTree(s string) (rlp.Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{
			"field":  "json",
			"reason": err.Error(),
		})
	}
	if dec.More() {
		return nil, wireerr.Detail(wireerr.ErrInvalidInput, "reason", "trailing data after JSON value")
	}
	return jsonToRLP(raw, "$")
}

func jsonToRLP(v any, path string) (rlp.Value, error) {
	switch x := v.(type) {
	case string:
		if strings.HasPrefix(x, "0x") || strings.HasPrefix(x, "0X") {
			b, err := decodeHex(x, path)
			if err != nil {
				return nil, err
			}
			return rlp.String(b), nil
		}
		return rlp.String(x), nil
	case json.Number:
		i, ok := new(big.Int).SetString(x.String(), 10)
		if !ok || i.Sign() < 0 {
			return nil, wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{
				"field":  path,
				"reason": "numbers must be non-negative integers",
			})
		}
		return rlp.Big(i), nil
	case []any:
		list := make(rlp.List, len(x))
		for i, item := range x {
			child, err := jsonToRLP(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list[i] = child
		}
		return list, nil
	default:
		return nil, wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{
			"field":  path,
			"reason": fmt.Sprintf("unsupported JSON value %s", jsonKind(v)),
		})
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
