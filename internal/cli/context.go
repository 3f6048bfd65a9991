package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/ethwire/internal/config"
	"github.com/mrz1836/ethwire/internal/metrics"
	"github.com/mrz1836/ethwire/internal/output"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg     ConfigProvider
	Log     LogWriter
	Fmt     FormatProvider
	Metrics *metrics.Metrics
}

// NewCommandContext creates a context with the given dependencies, recording
// into the global metrics registry.
func NewCommandContext(cfg ConfigProvider, log LogWriter, fmtp FormatProvider) *CommandContext {
	return &CommandContext{
		Cfg:     cfg,
		Log:     log,
		Fmt:     fmtp,
		Metrics: metrics.Global,
	}
}

// WithMetrics sets the metrics registry.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

type cmdContextKey struct{}

// SetCmdContext attaches cc to the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the CommandContext attached to cmd. Commands run
// outside Execute fall back to the global context, then to defaults.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok && cc != nil {
			return cc
		}
	}
	if cmdCtx != nil {
		return cmdCtx
	}
	return NewCommandContext(config.Defaults(), config.NullLogger(), output.NewFormatter(output.FormatText, nil))
}

// printer returns a formatter writing to the command's output stream.
func (c *CommandContext) printer(cmd *cobra.Command) *output.Formatter {
	format := output.FormatText
	if c.Fmt != nil {
		format = c.Fmt.Format()
	}
	return output.NewFormatter(format, cmd.OutOrStdout())
}

// track times a codec operation and returns the function that records it in
// the metrics registry and the log. txType may be empty.
func (c *CommandContext) track(op string) func(txType string, wireBytes int, err error) {
	start := time.Now()
	c.debug("%s start", op)

	return func(txType string, wireBytes int, err error) {
		if c.Metrics != nil {
			c.Metrics.RecordOp(op, txType, wireBytes, time.Since(start), err)
		}
		switch {
		case err != nil:
			c.logError("%s failed: %v", op, err)
		case txType != "":
			c.debug("%s ok type=%s bytes=%d", op, txType, wireBytes)
		default:
			c.debug("%s ok bytes=%d", op, wireBytes)
		}
	}
}

func (c *CommandContext) debug(format string, args ...any) {
	if c.Log != nil {
		c.Log.Debug(format, args...)
	}
}

func (c *CommandContext) logError(format string, args ...any) {
	if c.Log != nil {
		c.Log.Error(format, args...)
	}
}
