package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"AURA_BLUESKY_HANDLE",
		"AURA_BLUESKY_PASSWORD",
		"AURA_BLUESKY_SERVICE",
		"AURA_LLM_API_KEY",
		"AURA_LLM_BASE_URL",
		"AURA_LLM_MODEL",
		"AURA_LLM_TIMEOUT_SECONDS",
		"AURA_BOT_NAME",
		"AURA_ADMIN_DIDS",
		"AURA_POLL_INTERVAL_SECONDS",
		"AURA_FETCH_LIMIT",
		"AURA_STREAK_LIMIT",
		"AURA_POST_MAX_BYTES",
		"AURA_CONCURRENCY",
		"AURA_METRICS_ADDR",
	} {
		os.Unsetenv(key)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "https://bsky.social", p.BlueskyService)
	require.Equal(t, "https://openrouter.ai/api/v1", p.LLMBaseURL)
	require.Equal(t, "Aura", p.BotName)
	require.Equal(t, 120, p.LLMTimeout)
	require.Equal(t, 25, p.FetchLimit)
	require.Equal(t, 10, p.StreakLimit)
	require.Equal(t, 300, p.PostMaxBytes)
	require.Empty(t, p.AdminDIDs)
}

func TestFromEnvAdminDIDs(t *testing.T) {
	clearEnv(t)
	t.Setenv("AURA_ADMIN_DIDS", "did:plc:abc, did:plc:def ,")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, []string{"did:plc:abc", "did:plc:def"}, p.AdminDIDs)
}

func TestValidateRequiresCredentials(t *testing.T) {
	clearEnv(t)

	p := &Profile{Mode: "dev", Data: t.TempDir()}
	err := p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "AURA_BLUESKY_HANDLE")

	p.BlueskyHandle = "aura.bsky.social"
	p.BlueskyPassword = "app-password"
	err = p.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "AURA_LLM_API_KEY")
}

func TestValidateDerivesDSN(t *testing.T) {
	clearEnv(t)
	dataDir := t.TempDir()

	p := &Profile{
		Mode:            "dev",
		Data:            dataDir,
		BlueskyHandle:   "aura.bsky.social",
		BlueskyPassword: "app-password",
		LLMAPIKey:       "test-key",
	}
	require.NoError(t, p.Validate())

	require.Equal(t, "sqlite", p.Driver)
	require.Equal(t, filepath.Join(dataDir, "aura_dev.db"), p.DSN)
	require.Equal(t, filepath.Join(dataDir, "processed_uris.txt"), p.SeenLogPath())
}

func TestValidateNormalizesMode(t *testing.T) {
	clearEnv(t)

	p := &Profile{
		Mode:            "bogus",
		Data:            t.TempDir(),
		BlueskyHandle:   "aura.bsky.social",
		BlueskyPassword: "app-password",
		LLMAPIKey:       "test-key",
	}
	require.NoError(t, p.Validate())
	require.Equal(t, "demo", p.Mode)
}
