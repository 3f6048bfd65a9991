package cli

import (
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	"github.com/mrz1836/ethwire/internal/output"
	"github.com/mrz1836/ethwire/pkg/envelope"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// defaultDecodeTimeout bounds a batch decode unless --timeout says otherwise.
const defaultDecodeTimeout = 30 * time.Second

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// txExpectType fails decode when the transaction is of another type.
	txExpectType string
	// txPresign selects the signing hash instead of the transaction hash.
	txPresign bool
	// txKey is the hex private key used by tx sign.
	txKey string
	// txTimeout bounds a batch decode; zero disables the bound.
	txTimeout time.Duration
)

// txCmd is the parent command for transaction envelope operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txCmd = &cobra.Command{
	Use:     "tx",
	Short:   "Decode, hash and sign typed transactions",
	GroupID: groupCodec,
	Long: `Work with raw EIP-2718 transaction envelopes.

Supported types are legacy, eip2930 (0x01), eip1559 (0x02), eip4844 (0x03,
including the network form carrying blob sidecars) and eip7702 (0x04).`,
}

// txDecodeCmd decodes raw transactions.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txDecodeCmd = &cobra.Command{
	Use:   "decode [raw...|-]",
	Short: "Decode raw transactions",
	Long: `Decode one or more raw transactions and show their type, hashes, sender
and JSON-RPC form.

With no argument, or "-", one raw transaction is read per stdin line.
Transactions carrying blob sidecars have their KZG proofs verified.`,
	Example: `  ethwire tx decode 0x02f8...
  ethwire tx decode --expect eip1559 0x02f8...
  cat raw.txt | ethwire tx decode -o json`,
	RunE: runTxDecode,
}

// txHashCmd hashes a raw transaction.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txHashCmd = &cobra.Command{
	Use:   "hash [raw|-]",
	Short: "Compute a transaction or signing hash",
	Long: `Compute the Keccak-256 hash of a raw transaction.

With --presign the signature is stripped first, giving the digest a signer
signs. Blob sidecars never contribute to either hash.`,
	Example: `  ethwire tx hash 0x02f8...
  ethwire tx hash --presign 0x02f8...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTxHash,
}

// txSignCmd signs a raw transaction.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txSignCmd = &cobra.Command{
	Use:   "sign [raw|-]",
	Short: "Sign a raw transaction",
	Long: `Sign the presign hash of a raw transaction and print the signed raw
transaction. Any existing signature is replaced.

The key is taken from --key, then ETHWIRE_PRIVATE_KEY, then a hidden prompt.`,
	Example: `  ethwire tx sign 0x02e9... --key 0x4c08...
  ETHWIRE_PRIVATE_KEY=0x4c08... ethwire tx sign 0x02e9...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTxSign,
}

// txSenderCmd recovers the sender of a raw transaction.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txSenderCmd = &cobra.Command{
	Use:     "sender [raw|-]",
	Short:   "Recover the sender of a signed transaction",
	Long:    `Recover the address that signed a raw transaction.`,
	Example: `  ethwire tx sender 0xf86c...`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runTxSender,
}

// txEncodeCmd serializes a JSON-RPC transaction object.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var txEncodeCmd = &cobra.Command{
	Use:   "encode [json|-]",
	Short: "Serialize a JSON-RPC transaction object",
	Long: `Serialize a transaction given in the JSON-RPC form returned by
eth_getTransactionByHash. The object is validated before encoding.`,
	Example: `  ethwire tx encode '{"type":"0x2","chainId":"0x1","nonce":"0x0",...}'
  ethwire tx decode -o json 0x02f8... | jq .transaction | ethwire tx encode`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTxEncode,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txDecodeCmd)
	txCmd.AddCommand(txHashCmd)
	txCmd.AddCommand(txSignCmd)
	txCmd.AddCommand(txSenderCmd)
	txCmd.AddCommand(txEncodeCmd)

	txDecodeCmd.Flags().StringVar(&txExpectType, "expect", "", "fail unless every transaction has this type (legacy, eip2930, eip1559, eip4844, eip7702)")
	txDecodeCmd.Flags().DurationVar(&txTimeout, "timeout", defaultDecodeTimeout, "give up on a batch after this long (0 waits forever)")
	txHashCmd.Flags().BoolVar(&txPresign, "presign", false, "hash without the signature")
	txSignCmd.Flags().StringVar(&txKey, "key", "", "hex private key")
}

// txSummary is the decoded view of one raw transaction.
type txSummary struct {
	Type        string          `json:"type"`
	Hash        common.Hash     `json:"hash"`
	SigningHash common.Hash     `json:"signingHash"`
	Signed      bool            `json:"signed"`
	Sender      *common.Address `json:"sender,omitempty"`
	Size        int             `json:"size"`
	Sidecars    int             `json:"sidecars,omitempty"`
	Transaction *envelope.RPC   `json:"transaction"`

	tx envelope.Envelope
}

// Text renders the summary as aligned fields.
func (s *txSummary) Text() string {
	var f output.Fields
	f.Add("Type", s.Type)
	f.Add("Hash", s.Hash.Hex())
	f.Add("Signing hash", s.SigningHash.Hex())
	f.Add("Signed", strconv.FormatBool(s.Signed))
	if s.Sender != nil {
		f.Add("Sender", s.Sender.Hex())
	}
	f.Addf("Size", "%d bytes", s.Size)

	r := s.Transaction
	f.Add("Chain ID", hexBigString(r.ChainID))
	f.Addf("Nonce", "%d", uint64(r.Nonce))
	if r.To != nil {
		f.Add("To", ethcrypto.ToChecksumAddress(*r.To))
	} else {
		f.Add("To", "(contract creation)")
	}
	f.Add("Value", hexBigString(r.Value))
	f.Addf("Gas", "%d", uint64(r.Gas))
	if r.GasPrice != nil {
		f.Add("Gas price", hexBigString(r.GasPrice))
	}
	if r.MaxFeePerGas != nil {
		f.Add("Max fee", hexBigString(r.MaxFeePerGas))
		f.Add("Max priority fee", hexBigString(r.MaxPriorityFeePerGas))
	}
	if r.MaxFeePerBlobGas != nil {
		f.Add("Max blob fee", hexBigString(r.MaxFeePerBlobGas))
		f.Addf("Blob hashes", "%d", len(r.BlobVersionedHashes))
	}
	if s.Sidecars > 0 {
		f.Addf("Sidecars", "%d (verified)", s.Sidecars)
	}
	if r.AccessList != nil {
		f.Addf("Access list", "%d entries", len(*r.AccessList))
	}
	if r.AuthorizationList != nil {
		f.Addf("Authorizations", "%d", len(r.AuthorizationList))
	}
	f.Addf("Input", "%d bytes", len(r.Input))
	return f.Text()
}

// txSummaries renders a batch; text mode separates entries with a blank line.
type txSummaries []*txSummary

func (s txSummaries) Text() string {
	parts := make([]string, len(s))
	for i, sum := range s {
		parts[i] = sum.Text()
	}
	return strings.Join(parts, "\n")
}

func hexBigString(h *hexutil.Big) string {
	if h == nil {
		return ""
	}
	return (*big.Int)(h).String()
}

func runTxDecode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	var expect *envelope.Type
	if txExpectType != "" {
		t, err := envelope.ParseType(txExpectType)
		if err != nil {
			return err
		}
		expect = &t
	}

	raws, err := readArgs(cmd, args, "raw transaction")
	if err != nil {
		return err
	}

	summaries := make(txSummaries, len(raws))
	err = runBatch(cmd, len(raws), txTimeout, func(_ context.Context, i int) error {
		sum, err := decodeSummary(cc, raws[i])
		if err != nil {
			return err
		}
		if expect != nil && sum.tx.Type() != *expect {
			return wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{
				"expected": expect.String(),
				"actual":   sum.Type,
			})
		}
		summaries[i] = sum
		return nil
	})
	if err != nil {
		return err
	}

	p := cc.printer(cmd)
	if len(summaries) == 1 {
		return p.Print(summaries[0])
	}
	return p.Print(summaries)
}

func decodeSummary(cc *CommandContext, raw string) (*txSummary, error) {
	b, err := decodeHex(raw, "raw transaction")
	if err != nil {
		return nil, err
	}

	done := cc.track("tx_decode")
	e, err := envelope.Deserialize(b)
	if err != nil {
		done("", len(b), err)
		return nil, err
	}
	txType := e.Type().String()

	sum, err := summarize(e, len(b))
	done(txType, len(b), err)
	return sum, err
}

func summarize(e envelope.Envelope, size int) (*txSummary, error) {
	rpc, err := envelope.ToRPC(e)
	if err != nil {
		return nil, err
	}
	signingHash, err := envelope.SigningHash(e)
	if err != nil {
		return nil, err
	}

	sum := &txSummary{
		Type:        e.Type().String(),
		Hash:        *rpc.Hash,
		SigningHash: signingHash,
		Signed:      envelope.Signed(e),
		Size:        size,
		Transaction: rpc,
		tx:          e,
	}
	if sum.Signed {
		sender, err := envelope.Sender(e)
		if err != nil {
			return nil, err
		}
		sum.Sender = &sender
	}
	if blob, ok := e.(*envelope.EIP4844); ok && len(blob.Sidecars) > 0 {
		if err := envelope.VerifySidecars(blob.Sidecars); err != nil {
			return nil, err
		}
		sum.Sidecars = len(blob.Sidecars)
	}
	return sum, nil
}

type txHashResult struct {
	Hash    common.Hash `json:"hash"`
	Presign bool        `json:"presign"`
	Type    string      `json:"type"`
}

func (r txHashResult) Text() string { return r.Hash.Hex() }

func runTxHash(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	done := cc.track("tx_hash")
	e, size, err := readEnvelope(cmd, args)
	if err != nil {
		done("", size, err)
		return err
	}

	h, err := envelope.Hash(e, txPresign)
	done(e.Type().String(), size, err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(txHashResult{Hash: h, Presign: txPresign, Type: e.Type().String()})
}

type txRawResult struct {
	Type   string          `json:"type"`
	Raw    hexutil.Bytes   `json:"raw"`
	Hash   common.Hash     `json:"hash"`
	Sender *common.Address `json:"sender,omitempty"`
}

func (r txRawResult) Text() string {
	var f output.Fields
	f.Add("Type", r.Type)
	f.Add("Hash", r.Hash.Hex())
	if r.Sender != nil {
		f.Add("Sender", r.Sender.Hex())
	}
	f.Add("Raw", r.Raw.String())
	return f.Text()
}

func runTxSign(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	key, err := loadKey(txKey)
	if err != nil {
		return err
	}
	defer key.Destroy()

	done := cc.track("tx_sign")
	e, size, err := readEnvelope(cmd, args)
	if err != nil {
		done("", size, err)
		return err
	}

	txType := e.Type().String()
	signed, err := envelope.Sign(e, ethcrypto.KeySigner(key.Bytes()))
	if err != nil {
		done(txType, 0, err)
		return err
	}
	res, err := rawResult(signed)
	done(txType, len(res.Raw), err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(res)
}

func rawResult(e envelope.Envelope) (txRawResult, error) {
	raw, err := envelope.Serialize(e)
	if err != nil {
		return txRawResult{}, err
	}
	h, err := envelope.Hash(e, false)
	if err != nil {
		return txRawResult{}, err
	}
	res := txRawResult{Type: e.Type().String(), Raw: raw, Hash: h}
	if envelope.Signed(e) {
		sender, err := envelope.Sender(e)
		if err != nil {
			return txRawResult{}, err
		}
		res.Sender = &sender
	}
	return res, nil
}

type txSenderResult struct {
	Sender common.Address `json:"sender"`
	Type   string         `json:"type"`
}

func (r txSenderResult) Text() string { return r.Sender.Hex() }

func runTxSender(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	done := cc.track("tx_sender")
	e, size, err := readEnvelope(cmd, args)
	if err != nil {
		done("", size, err)
		return err
	}

	sender, err := envelope.Sender(e)
	done(e.Type().String(), size, err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(txSenderResult{Sender: sender, Type: e.Type().String()})
}

func runTxEncode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	in, err := readArg(cmd, args, "json")
	if err != nil {
		return err
	}

	done := cc.track("tx_encode")
	var r envelope.RPC
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		err = wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{"field": "json", "reason": err.Error()})
		done("", 0, err)
		return err
	}
	e, err := envelope.FromRPC(&r)
	if err != nil {
		done("", 0, err)
		return err
	}
	res, err := rawResult(e)
	done(e.Type().String(), len(res.Raw), err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(res)
}

// readEnvelope reads and deserializes the raw transaction argument. The size
// of the raw bytes is returned even when deserialization fails.
func readEnvelope(cmd *cobra.Command, args []string) (envelope.Envelope, int, error) {
	in, err := readArg(cmd, args, "raw transaction")
	if err != nil {
		return nil, 0, err
	}
	b, err := decodeHex(in, "raw transaction")
	if err != nil {
		return nil, 0, err
	}
	e, err := envelope.Deserialize(b)
	if err != nil {
		return nil, len(b), err
	}
	return e, len(b), nil
}
