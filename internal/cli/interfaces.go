package cli

import (
	"github.com/mrz1836/ethwire/internal/config"
	"github.com/mrz1836/ethwire/internal/output"
)

var (
	_ ConfigProvider = (*config.Config)(nil)
	_ LogWriter      = (*config.Logger)(nil)
	_ FormatProvider = (*output.Formatter)(nil)
)

// CodecSettings are the configuration values that change how commands build
// and validate transactions.
type CodecSettings interface {
	// GetDefaultChainID is used when a command omits --chain-id.
	GetDefaultChainID() uint64
	// IsStrictAddresses reports whether mixed-case addresses must carry a
	// valid EIP-55 checksum.
	IsStrictAddresses() bool
}

// ConfigProvider is the read-only view of the configuration commands use.
// Tests substitute a mock.
type ConfigProvider interface {
	CodecSettings

	GetHome() string
	GetLoggingLevel() string
	GetLoggingFile() string
	GetOutputFormat() string
	IsVerbose() bool
	// GetMetricsTextfile returns "" when the export is disabled.
	GetMetricsTextfile() string
}

// LogWriter is the leveled logger commands write to.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
	Close() error
}

// FormatProvider reports the resolved output format.
type FormatProvider interface {
	Format() output.Format
}
