package cli

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/metrics"
	"github.com/mrz1836/ethwire/internal/output"
)

// testPrivateKey signs as testSender.
const (
	testPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testSender     = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
	testContract   = "0xbe95c3f554e9fc85ec51be69a3d807a0d55bcf2c"
)

// mockConfigProvider implements ConfigProvider for testing.
type mockConfigProvider struct {
	home            string
	logLevel        string
	logFile         string
	format          string
	verbose         bool
	chainID         uint64
	strictAddresses bool
	textfile        string
}

func newMockConfig() *mockConfigProvider {
	return &mockConfigProvider{
		home:            "/tmp/ethwire-test",
		logLevel:        "off",
		format:          "text",
		chainID:         1,
		strictAddresses: true,
	}
}

func (m *mockConfigProvider) GetHome() string            { return m.home }
func (m *mockConfigProvider) GetLoggingLevel() string    { return m.logLevel }
func (m *mockConfigProvider) GetLoggingFile() string     { return m.logFile }
func (m *mockConfigProvider) GetOutputFormat() string    { return m.format }
func (m *mockConfigProvider) IsVerbose() bool            { return m.verbose }
func (m *mockConfigProvider) GetDefaultChainID() uint64  { return m.chainID }
func (m *mockConfigProvider) IsStrictAddresses() bool    { return m.strictAddresses }
func (m *mockConfigProvider) GetMetricsTextfile() string { return m.textfile }

// mockLogWriter records log lines.
type mockLogWriter struct {
	mu     sync.Mutex
	debugs []string
	errors []string
	closed bool
}

func (m *mockLogWriter) Debug(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugs = append(m.debugs, fmt.Sprintf(format, args...))
}

func (m *mockLogWriter) Error(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

func (m *mockLogWriter) Close() error {
	m.closed = true
	return nil
}

func (m *mockLogWriter) errorLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errors...)
}

// mockFormatProvider implements FormatProvider for testing.
type mockFormatProvider struct {
	format output.Format
}

func (m *mockFormatProvider) Format() output.Format { return m.format }

// testEnv is a command wired to mocks, capturing its output.
type testEnv struct {
	cmd     *cobra.Command
	out     *bytes.Buffer
	cfg     *mockConfigProvider
	log     *mockLogWriter
	metrics *metrics.Metrics
}

// newTestCmd returns a bare command carrying a CommandContext backed by
// mocks and a private metrics registry.
func newTestCmd(t *testing.T, format output.Format) *testEnv {
	t.Helper()

	env := &testEnv{
		cmd:     &cobra.Command{Use: "test"},
		out:     new(bytes.Buffer),
		cfg:     newMockConfig(),
		log:     &mockLogWriter{},
		metrics: metrics.New(),
	}
	env.cmd.SetOut(env.out)
	env.cmd.SetErr(env.out)
	env.cmd.SetIn(new(bytes.Buffer))

	cc := NewCommandContext(env.cfg, env.log, &mockFormatProvider{format: format}).WithMetrics(env.metrics)
	SetCmdContext(env.cmd, cc)
	return env
}

// withStdin feeds s to the command's stdin.
func (e *testEnv) withStdin(s string) *testEnv {
	e.cmd.SetIn(bytes.NewBufferString(s))
	return e
}

// withMockPrompt replaces the key prompt and terminal check and restores
// them on cleanup.
func withMockPrompt(t *testing.T, key string, isTerminal bool) {
	t.Helper()
	origPrompt := promptKeyFn
	origTerm := stdinIsTermFn
	t.Cleanup(func() {
		promptKeyFn = origPrompt
		stdinIsTermFn = origTerm
	})
	promptKeyFn = func(_ string) ([]byte, error) {
		return []byte(key), nil
	}
	stdinIsTermFn = func() bool { return isTerminal }
}
