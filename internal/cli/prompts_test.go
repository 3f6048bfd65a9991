package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
)

func TestOutHelpers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	out(&buf, "%s=%d", "n", 1)
	outln(&buf)
	outln(&buf, "done")
	assert.Equal(t, "n=1\ndone\n", buf.String())
}

// The loadKey tests swap the prompt seams and set the environment, so they
// are not parallel.

func TestLoadKey_Flag(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	withMockPrompt(t, "", false)

	key, err := loadKey(testPrivateKey)
	require.NoError(t, err)
	defer key.Destroy()
	assert.Equal(t, 32, key.Len())
}

func TestLoadKey_FlagWithoutPrefix(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	withMockPrompt(t, "", false)

	key, err := loadKey(testPrivateKey[2:])
	require.NoError(t, err)
	defer key.Destroy()
	assert.Equal(t, 32, key.Len())
}

func TestLoadKey_Environment(t *testing.T) {
	t.Setenv(EnvPrivateKey, testPrivateKey)
	withMockPrompt(t, "", false)

	key, err := loadKey("")
	require.NoError(t, err)
	defer key.Destroy()
	assert.Equal(t, 32, key.Len())
}

func TestLoadKey_Prompt(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	withMockPrompt(t, testPrivateKey, true)

	key, err := loadKey("")
	require.NoError(t, err)
	defer key.Destroy()
	assert.Equal(t, 32, key.Len())
}

func TestLoadKey_PromptError(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	withMockPrompt(t, "", true)
	promptKeyFn = func(_ string) ([]byte, error) {
		return nil, wireerr.Wrap(wireerr.ErrInvalidKey, "reading private key: %v", errors.New("terminal error")) //nolint:err113 // test error
	}

	_, err := loadKey("")
	require.Error(t, err)
	require.ErrorIs(t, err, wireerr.ErrInvalidKey)
	assert.Contains(t, err.Error(), "terminal error")
}

func TestLoadKey_NoTerminal(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	withMockPrompt(t, testPrivateKey, false)

	_, err := loadKey("")
	require.Error(t, err)
	require.ErrorIs(t, err, wireerr.ErrInvalidKey)

	var we *wireerr.WireError
	require.ErrorAs(t, err, &we)
	assert.Contains(t, we.Suggestion, EnvPrivateKey)
}

func TestLoadKey_Invalid(t *testing.T) {
	t.Setenv(EnvPrivateKey, "")
	withMockPrompt(t, "", false)

	tests := []struct {
		name string
		key  string
	}{
		{"not hex", "0xzz"},
		{"too short", "0x0102"},
		{"too long", testPrivateKey + "00"},
		{"zero scalar", "0x0000000000000000000000000000000000000000000000000000000000000000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadKey(tc.key)
			require.Error(t, err)
			require.ErrorIs(t, err, wireerr.ErrInvalidKey)
		})
	}
}
