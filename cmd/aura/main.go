package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/4uffin/aura-bot/agent"
	"github.com/4uffin/aura-bot/ai/llm"
	"github.com/4uffin/aura-bot/bsky"
	"github.com/4uffin/aura-bot/internal/metrics"
	"github.com/4uffin/aura-bot/internal/profile"
	"github.com/4uffin/aura-bot/internal/version"
	"github.com/4uffin/aura-bot/store"
	"github.com/4uffin/aura-bot/store/db/sqlite"
)

var rootCmd = &cobra.Command{
	Use:     "aura",
	Short:   `An AI-powered Bluesky agent. Replies to mentions, learns from conversations, and writes threads on request.`,
	Version: version.String(),
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Only load .env for direct binary execution (not when running as systemd service)
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), terminationSignals...)
		defer stop()

		dbDriver, err := sqlite.NewDB(instanceProfile.DSN)
		if err != nil {
			slog.Error("failed to open database", "dsn", instanceProfile.DSN, "error", err)
			return err
		}
		storeInstance := store.New(dbDriver)
		defer storeInstance.Close()
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return err
		}

		service, err := llm.NewService(&llm.Config{
			APIKey:  instanceProfile.LLMAPIKey,
			BaseURL: instanceProfile.LLMBaseURL,
			Model:   instanceProfile.LLMModel,
			Timeout: instanceProfile.LLMTimeout,
		})
		if err != nil {
			slog.Error("failed to create llm service", "error", err)
			return err
		}

		client := bsky.NewClient(instanceProfile.BlueskyService)
		if err := client.Login(ctx, instanceProfile.BlueskyHandle, instanceProfile.BlueskyPassword); err != nil {
			slog.Error("failed to log in to bluesky", "handle", instanceProfile.BlueskyHandle, "error", err)
			return err
		}

		seen, err := agent.OpenSeenLog(instanceProfile.SeenLogPath())
		if err != nil {
			slog.Error("failed to open seen log", "error", err)
			return err
		}
		defer seen.Close()

		bot := agent.New(agent.Config{
			Name:         instanceProfile.BotName,
			AdminDIDs:    instanceProfile.AdminDIDs,
			PollInterval: instanceProfile.PollInterval,
			FetchLimit:   instanceProfile.FetchLimit,
			StreakLimit:  instanceProfile.StreakLimit,
			PostMaxBytes: instanceProfile.PostMaxBytes,
			Concurrency:  instanceProfile.Concurrency,
		}, storeInstance, service, client, seen)

		if instanceProfile.MetricsAddr != "" {
			go func() {
				if err := metrics.Serve(instanceProfile.MetricsAddr); err != nil && err != http.ErrServerClosed {
					slog.Error("metrics endpoint failed", "addr", instanceProfile.MetricsAddr, "error", err)
				}
			}()
		}

		printGreetings(instanceProfile)

		go func() {
			if err := bot.RunSummarizer(ctx); err != nil {
				slog.Error("summarizer stopped", "error", err)
			}
		}()
		return bot.Run(ctx)
	},
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of agent, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, flag := range []string{"mode", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("aura")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Aura %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		fmt.Fprintf(os.Stderr, "Build: %s\n", version.StringFull())
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Bluesky handle: %s\n", profile.BlueskyHandle)
	fmt.Printf("Mode: %s\n", profile.Mode)
	if profile.MetricsAddr != "" {
		fmt.Printf("Metrics at: http://%s/metrics\n", profile.MetricsAddr)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("agent exited", "error", err)
		os.Exit(1)
	}
}
