package cli

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/ethcrypto"
	"github.com/mrz1836/ethwire/internal/keymem"
	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// EnvPrivateKey supplies the signing key when --key is not given.
const EnvPrivateKey = "ETHWIRE_PRIVATE_KEY"

// maxStdinSize bounds what a command reads from stdin.
const maxStdinSize = 16 << 20

// readArg returns the single positional argument, or stdin when the argument
// is missing or "-".
func readArg(cmd *cobra.Command, args []string, what string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}

	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdinSize))
	if err != nil {
		return "", wireerr.Wrap(wireerr.ErrInvalidInput, "reading %s from stdin: %v", what, err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", wireerr.WithSuggestion(
			wireerr.Detail(wireerr.ErrInvalidInput, "field", what),
			"pass the "+what+" as an argument or on stdin",
		)
	}
	return s, nil
}

// readArgs returns the positional arguments, or the non-empty lines of stdin
// when there are none or the only one is "-".
func readArgs(cmd *cobra.Command, args []string, what string) ([]string, error) {
	if len(args) > 0 && (len(args) > 1 || args[0] != "-") {
		out := make([]string, len(args))
		for i, a := range args {
			out[i] = strings.TrimSpace(a)
		}
		return out, nil
	}

	var lines []string
	sc := bufio.NewScanner(io.LimitReader(cmd.InOrStdin(), maxStdinSize))
	sc.Buffer(make([]byte, 0, 64*1024), maxStdinSize)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, wireerr.Wrap(wireerr.ErrInvalidInput, "reading %s from stdin: %v", what, err)
	}
	if len(lines) == 0 {
		return nil, wireerr.WithSuggestion(
			wireerr.Detail(wireerr.ErrInvalidInput, "field", what),
			"pass one "+what+" per argument or per stdin line",
		)
	}
	return lines, nil
}

// decodeHex decodes hex input with or without a 0x prefix.
func decodeHex(s, what string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidInput, map[string]string{
			"field":  what,
			"reason": err.Error(),
		})
	}
	return b, nil
}

// loadKey resolves the signing key from the flag, the environment, or a
// hidden prompt, in that order. The caller must Destroy the returned key.
func loadKey(flagValue string) (*keymem.Key, error) {
	s := flagValue
	if s == "" {
		s = os.Getenv(EnvPrivateKey)
	}
	if s == "" {
		if !stdinIsTermFn() {
			return nil, wireerr.WithSuggestion(wireerr.ErrInvalidKey,
				"pass --key or set "+EnvPrivateKey)
		}
		raw, err := promptKeyFn("Enter private key: ")
		if err != nil {
			return nil, err
		}
		s = string(raw)
		keymem.Zero(raw)
	}

	b, err := decodeHex(s, "key")
	defer keymem.Zero(b)
	if err != nil || len(b) != 32 {
		return nil, wireerr.WithSuggestion(wireerr.ErrInvalidKey, "the private key must be 32 bytes of hex")
	}
	if _, err := ethcrypto.DeriveAddress(b); err != nil {
		return nil, err
	}
	return keymem.Copy(b), nil
}
