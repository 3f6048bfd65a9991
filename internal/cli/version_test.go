package cli

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/ethwire/internal/output"
	"github.com/mrz1836/ethwire/internal/version"
)

func TestRunVersion(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()
		env := newTestCmd(t, output.FormatText)
		require.NoError(t, runVersion(env.cmd, nil))

		text := env.out.String()
		assert.Contains(t, text, "Version:")
		assert.Contains(t, text, "go-ethereum:")
		assert.Contains(t, text, runtime.Version())
		assert.Contains(t, text, runtime.GOOS+"/"+runtime.GOARCH)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		env := newTestCmd(t, output.FormatJSON)
		require.NoError(t, runVersion(env.cmd, nil))

		var got version.Info
		require.NoError(t, json.Unmarshal(env.out.Bytes(), &got))
		assert.Equal(t, runtime.Version(), got.GoVersion)
		assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, got.Platform)
	})
}
