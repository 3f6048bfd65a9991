package cli

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	"github.com/mrz1836/ethwire/internal/output"
	"github.com/mrz1836/ethwire/pkg/authorization"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// authChainID is the chain ID, decimal or 0x hex. Empty uses codec.default_chain_id.
	authChainID string
	// authAddress is the delegated contract address.
	authAddress string
	// authNonce is the authority's account nonce.
	authNonce uint64
	// authKey is the hex private key of the authority.
	authKey string
)

// authCmd is the parent command for EIP-7702 authorizations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var authCmd = &cobra.Command{
	Use:     "auth",
	Short:   "Hash and sign EIP-7702 authorizations",
	GroupID: groupCodec,
	Long: `Work with EIP-7702 set-code authorizations.

An authorization delegates the authority's code to a contract address on one
chain, or on every chain when the chain ID is 0. The authority signs
keccak256(0x05 || rlp([chain_id, address, nonce])).`,
}

// authHashCmd computes the signing hash of an authorization.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var authHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute the digest an authority signs",
	Long: `Compute the digest an authority signs for an authorization.

When --chain-id is omitted the configured codec.default_chain_id is used.`,
	Example: `  ethwire auth hash --address 0x... --nonce 7
  ethwire auth hash --chain-id 0 --address 0x... --nonce 0`,
	Args: cobra.NoArgs,
	RunE: runAuthHash,
}

// authSignCmd signs an authorization.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var authSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an authorization",
	Long: `Sign an authorization and print it in its JSON-RPC form, ready for the
authorizationList of an EIP-7702 transaction.

The key is taken from --key, then ETHWIRE_PRIVATE_KEY, then a hidden prompt.`,
	Example: `  ethwire auth sign --chain-id 1 --address 0x... --nonce 0 --key 0x4c08...`,
	Args:    cobra.NoArgs,
	RunE:    runAuthSign,
}

// authAuthorityCmd recovers the signer of an authorization.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var authAuthorityCmd = &cobra.Command{
	Use:   "authority [json|-]",
	Short: "Recover the authority of a signed authorization",
	Long: `Recover the address that signed an authorization given in its JSON-RPC
form.`,
	Example: `  ethwire auth authority '{"chainId":"0x1","address":"0x...","nonce":"0x0","yParity":"0x1","r":"0x...","s":"0x..."}'`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runAuthAuthority,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authHashCmd)
	authCmd.AddCommand(authSignCmd)
	authCmd.AddCommand(authAuthorityCmd)

	for _, c := range []*cobra.Command{authHashCmd, authSignCmd} {
		c.Flags().StringVar(&authChainID, "chain-id", "", "chain ID, decimal or 0x hex; 0 is valid on every chain")
		c.Flags().StringVar(&authAddress, "address", "", "delegated contract address (required)")
		c.Flags().Uint64Var(&authNonce, "nonce", 0, "authority account nonce")
		_ = c.MarkFlagRequired("address")
	}
	authSignCmd.Flags().StringVar(&authKey, "key", "", "hex private key of the authority")
}

// authResult is an authorization with its digest and, once signed, authority.
type authResult struct {
	authorization.RPC
	Hash      common.Hash     `json:"hash"`
	Authority *common.Address `json:"authority,omitempty"`
}

func (r authResult) Text() string {
	var f output.Fields
	f.Add("Chain ID", (*uint256.Int)(&r.ChainID).Dec())
	f.Add("Address", ethcrypto.ToChecksumAddress(r.Address))
	f.Addf("Nonce", "%d", uint64(r.Nonce))
	f.Add("Hash", r.Hash.Hex())
	if r.Authority != nil {
		f.Add("Authority", r.Authority.Hex())
		f.Addf("y parity", "%d", uint64(*r.YParity))
		f.Add("r", r.R.String())
		f.Add("s", r.S.String())
	}
	return f.Text()
}

type authHashResult struct {
	Hash common.Hash `json:"hash"`
}

func (r authHashResult) Text() string { return r.Hash.Hex() }

func runAuthHash(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	a, err := authFromFlags(cmd, cc)
	if err != nil {
		return err
	}

	done := cc.track("auth_hash")
	h := authorization.Hash(a)
	done("", 0, nil)

	return cc.printer(cmd).Print(authHashResult{Hash: h})
}

func runAuthSign(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	a, err := authFromFlags(cmd, cc)
	if err != nil {
		return err
	}

	key, err := loadKey(authKey)
	if err != nil {
		return err
	}
	defer key.Destroy()

	done := cc.track("auth_sign")
	signed, err := authorization.Sign(a, ethcrypto.KeySigner(key.Bytes()))
	if err != nil {
		done("", 0, err)
		return err
	}
	res, err := newAuthResult(signed)
	done("", 0, err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(res)
}

func runAuthAuthority(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	in, err := readArg(cmd, args, "json")
	if err != nil {
		return err
	}

	done := cc.track("auth_authority")
	var r authorization.RPC
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		err = wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{"field": "json", "reason": err.Error()})
		done("", 0, err)
		return err
	}
	a, err := authorization.FromRPC(r)
	if err != nil {
		done("", 0, err)
		return err
	}
	res, err := newAuthResult(a)
	if err == nil && res.Authority == nil {
		err = wireerr.Detail(wireerr.ErrInvalidSignature, "reason", "authorization is not signed")
	}
	done("", 0, err)
	if err != nil {
		return err
	}
	return cc.printer(cmd).Print(res)
}

func newAuthResult(a *authorization.Authorization) (authResult, error) {
	res := authResult{RPC: authorization.ToRPC(a), Hash: authorization.Hash(a)}
	if a.Signed() {
		authority, err := authorization.Authority(a)
		if err != nil {
			return authResult{}, err
		}
		res.Authority = &authority
	}
	return res, nil
}

// authFromFlags builds the unsigned authorization described by the flags.
func authFromFlags(cmd *cobra.Command, cc *CommandContext) (*authorization.Authorization, error) {
	strict := true
	var defaultChainID uint64
	if cc.Cfg != nil {
		strict = cc.Cfg.IsStrictAddresses()
		defaultChainID = cc.Cfg.GetDefaultChainID()
	}

	addr, err := ethcrypto.AssertAddress(strings.TrimSpace(authAddress), strict)
	if err != nil {
		return nil, err
	}

	a := &authorization.Authorization{ContractAddress: addr, Nonce: authNonce}
	if cmd.Flags().Changed("chain-id") {
		id, err := parseChainID(authChainID)
		if err != nil {
			return nil, err
		}
		a.ChainID = *id
	} else {
		a.ChainID.SetUint64(defaultChainID)
	}
	return a, nil
}

// parseChainID parses a decimal or 0x-prefixed chain ID of at most 256 bits.
func parseChainID(s string) (*uint256.Int, error) {
	i, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok || i.Sign() < 0 {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidChainID, map[string]string{"chain_id": s})
	}
	id, overflow := uint256.FromBig(i)
	if overflow {
		return nil, wireerr.WithDetails(wireerr.ErrSizeOverflow, map[string]string{
			"chain_id": s,
			"bits":     strconv.Itoa(i.BitLen()),
		})
	}
	return id, nil
}
