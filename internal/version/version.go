// Package version reports build metadata for the ethwire binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at link time:
//
//	go build -ldflags "-X github.com/mrz1836/ethwire/internal/version.Version=v1.0.0 ..."
//
//nolint:gochecknoglobals // ldflags targets must be package-level variables
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

const (
	devVersion = "dev"
	unknown    = "unknown"

	gethModule     = "github.com/ethereum/go-ethereum"
	shortCommitLen = 7
)

// Info contains version information.
type Info struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Date        string `json:"date"`
	GoVersion   string `json:"go_version"`
	GethVersion string `json:"geth_version,omitempty"`
	Platform    string `json:"platform"`
}

// Get returns the build information of the running binary. Values injected
// with ldflags win over what the Go toolchain embedded.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = merge(info, fromBuildInfo(bi))
	}
	return info
}

// fromBuildInfo extracts what it can from the toolchain's embedded build info.
func fromBuildInfo(bi *debug.BuildInfo) Info {
	var info Info
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}

	var dirty bool
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > shortCommitLen {
				info.Commit = info.Commit[:shortCommitLen]
			}
		case "vcs.time":
			info.Date = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && info.Commit != "" {
		info.Commit += "-dirty"
	}

	for _, dep := range bi.Deps {
		if dep.Path != gethModule {
			continue
		}
		info.GethVersion = dep.Version
		if dep.Replace != nil {
			info.GethVersion = dep.Replace.Version
		}
	}
	return info
}

func merge(primary, fallback Info) Info {
	if primary.Version == "" {
		primary.Version = fallback.Version
	}
	if primary.Commit == "" {
		primary.Commit = fallback.Commit
	}
	if primary.Date == "" {
		primary.Date = fallback.Date
	}
	if primary.GethVersion == "" {
		primary.GethVersion = fallback.GethVersion
	}
	return primary
}

// String renders the one-line form, e.g. "v1.2.3 (commit: abc1234, built: 2024-01-15)".
func (i Info) String() string {
	v := i.Version
	if v == "" {
		v = devVersion
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, orUnknown(i.Commit), orUnknown(i.Date))
}

// IsDev reports whether the binary was built without a release version.
func (i Info) IsDev() bool {
	return IsDevVersion(i.Version)
}

// IsDevVersion reports whether v names a development build rather than a release.
func IsDevVersion(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	return v == "" || v == devVersion || isCommitHash(v)
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// isCommitHash checks if a string looks like a git commit hash.
// It requires the string to:
// - Be 7-40 characters long (short to full SHA-1)
// - Contain only hex characters (0-9, a-f, A-F)
// - Contain at least one letter (to distinguish from pure numeric versions)
func isCommitHash(s string) bool {
	s = strings.TrimSuffix(s, "-dirty")

	if len(s) < 7 || len(s) > 40 {
		return false
	}

	hasLetter := false
	for _, c := range s {
		isDigit := c >= '0' && c <= '9'
		isLowerHex := c >= 'a' && c <= 'f'
		isUpperHex := c >= 'A' && c <= 'F'

		if !isDigit && !isLowerHex && !isUpperHex {
			return false
		}
		if isLowerHex || isUpperHex {
			hasLetter = true
		}
	}
	return hasLetter
}
