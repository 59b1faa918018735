package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start the agent.
type Profile struct {
	// Bluesky account credentials. The password should be an app
	// password, not the account password.
	BlueskyHandle   string
	BlueskyPassword string
	BlueskyService  string

	// LLM configuration (OpenAI-compatible protocol)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string
	LLMTimeout int // seconds

	// BotName is the persona name used in prompts.
	BotName string
	// AdminDIDs lists the DIDs allowed to issue post and directive
	// commands, comma-separated in the environment.
	AdminDIDs []string

	PollInterval time.Duration
	FetchLimit   int
	StreakLimit  int
	PostMaxBytes int
	Concurrency  int

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string

	Mode    string
	Data    string
	DSN     string
	Driver  string
	Version string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// SeenLogPath is the path of the processed-notification log inside the
// data directory.
func (p *Profile) SeenLogPath() string {
	return filepath.Join(p.Data, "processed_uris.txt")
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.BlueskyHandle = getEnvOrDefault("AURA_BLUESKY_HANDLE", "")
	p.BlueskyPassword = getEnvOrDefault("AURA_BLUESKY_PASSWORD", "")
	p.BlueskyService = getEnvOrDefault("AURA_BLUESKY_SERVICE", "https://bsky.social")

	p.LLMAPIKey = getEnvOrDefault("AURA_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("AURA_LLM_BASE_URL", "https://openrouter.ai/api/v1")
	p.LLMModel = getEnvOrDefault("AURA_LLM_MODEL", "deepseek/deepseek-chat")
	p.LLMTimeout = getEnvOrDefaultInt("AURA_LLM_TIMEOUT_SECONDS", 120)

	p.BotName = getEnvOrDefault("AURA_BOT_NAME", "Aura")
	if dids := getEnvOrDefault("AURA_ADMIN_DIDS", ""); dids != "" {
		for _, did := range strings.Split(dids, ",") {
			if did = strings.TrimSpace(did); did != "" {
				p.AdminDIDs = append(p.AdminDIDs, did)
			}
		}
	}

	p.PollInterval = time.Duration(getEnvOrDefaultInt("AURA_POLL_INTERVAL_SECONDS", 60)) * time.Second
	p.FetchLimit = getEnvOrDefaultInt("AURA_FETCH_LIMIT", 25)
	p.StreakLimit = getEnvOrDefaultInt("AURA_STREAK_LIMIT", 10)
	p.PostMaxBytes = getEnvOrDefaultInt("AURA_POST_MAX_BYTES", 300)
	p.Concurrency = getEnvOrDefaultInt("AURA_CONCURRENCY", 4)

	p.MetricsAddr = getEnvOrDefault("AURA_METRICS_ADDR", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.BlueskyHandle == "" || p.BlueskyPassword == "" {
		return errors.New("AURA_BLUESKY_HANDLE and AURA_BLUESKY_PASSWORD must be set")
	}
	if p.LLMAPIKey == "" {
		return errors.New("AURA_LLM_API_KEY must be set")
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "aura")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/aura"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("aura_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
