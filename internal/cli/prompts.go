package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

// Terminal seams, swapped out in tests.
//
//nolint:gochecknoglobals // test seams
var (
	promptKeyFn   = promptKey
	stdinIsTermFn = stdinIsTerminal
)

// out is a helper for CLI output that ignores write errors (standard pattern for CLI tools).
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func out(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

// outln is a helper for CLI output with newline.
//
//nolint:errcheck // CLI output writes to stdout are intentionally unchecked
func outln(w io.Writer, args ...any) {
	fmt.Fprintln(w, args...)
}

// promptKey prompts for a private key with hidden input.
// The caller is responsible for zeroing the returned bytes after use.
func promptKey(prompt string) ([]byte, error) {
	out(os.Stderr, "%s", prompt)

	key, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
	outln(os.Stderr) // Add newline after hidden input

	if err != nil {
		return nil, wireerr.Wrap(wireerr.ErrInvalidKey, "reading private key: %v", err)
	}
	return key, nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // G115: Fd() fits in int
}
