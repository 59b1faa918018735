package agent

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSeenLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_uris.txt")

	seen, err := OpenSeenLog(path)
	require.NoError(t, err)
	require.Zero(t, seen.Len())

	require.NoError(t, seen.Add("at://a"))
	require.NoError(t, seen.Add("at://b"))
	require.NoError(t, seen.Add("at://a")) // duplicate is a no-op
	require.True(t, seen.Contains("at://a"))
	require.False(t, seen.Contains("at://c"))
	require.Equal(t, 2, seen.Len())
	require.NoError(t, seen.Close())

	// Reopening reloads the durable set.
	reopened, err := OpenSeenLog(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, 2, reopened.Len())
	require.True(t, reopened.Contains("at://b"))
}

func TestRealWorldContext(t *testing.T) {
	text := realWorldContext(time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC))
	require.Contains(t, text, "2026-01-15")
	require.Contains(t, text, "Thursday")
	require.Contains(t, text, "Winter")
}

func TestSeason(t *testing.T) {
	require.Equal(t, "Summer", season(time.July))
	require.Equal(t, "Autumn", season(time.October))
	require.Equal(t, "Spring", season(time.April))
	require.Equal(t, "Winter", season(time.December))
}
