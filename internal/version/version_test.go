package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	restore := snapshot()
	defer restore()

	Version = "0.2.0"
	GitCommit = "unknown"
	require.Equal(t, "0.2.0", String())

	GitCommit = "0123456789abcdef"
	require.Equal(t, "0.2.0-01234567", String())
}

func TestStringFull(t *testing.T) {
	restore := snapshot()
	defer restore()

	Version = "0.2.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
	require.Equal(t, "Version=0.2.0", StringFull())

	GitCommit = "0123456789abcdef"
	BuildTime = "2026-08-25T00:00:00Z"
	require.Equal(t, "Version=0.2.0 Commit=01234567 BuildTime=2026-08-25T00:00:00Z", StringFull())
}

func TestGetCurrentVersion(t *testing.T) {
	restore := snapshot()
	defer restore()

	Version = "0.2.0"
	DevVersion = "0.3.0-dev"
	require.Equal(t, "0.3.0-dev", GetCurrentVersion("dev"))
	require.Equal(t, "0.3.0-dev", GetCurrentVersion("demo"))
	require.Equal(t, "0.2.0", GetCurrentVersion("prod"))
}

func snapshot() func() {
	v, dv, c, b := Version, DevVersion, GitCommit, BuildTime
	return func() {
		Version, DevVersion, GitCommit, BuildTime = v, dv, c, b
	}
}
