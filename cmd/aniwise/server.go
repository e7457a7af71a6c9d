package aniwise

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	root "github.com/aniwise/aniwise"
	"github.com/aniwise/aniwise/pkg/anilist"
	"github.com/aniwise/aniwise/pkg/cache"
	"github.com/aniwise/aniwise/pkg/config"
	"github.com/aniwise/aniwise/pkg/llm"
	"github.com/aniwise/aniwise/pkg/logger"
	"github.com/aniwise/aniwise/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Aniwise webhook server",
	Long: `Start the Aniwise HTTP server.

The server provides:
- POST /webhook   conversational recommendation endpoint
- GET  /health    liveness check
- GET  /ready     readiness check

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	serverCmd.Flags().String("llm-model", "", "Language model name")
	serverCmd.Flags().String("llm-api-key", "", "Language model API key")
	serverCmd.Flags().String("llm-base-url", "", "Language model base URL")

	serverCmd.Flags().String("anilist-url", "", "Metadata service URL")

	serverCmd.Flags().Bool("no-cache", false, "Disable the response cache")
	serverCmd.Flags().String("cache-dir", "", "Response cache directory")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideConfigWithFlags(cmd, cfg)

	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))

	llmClient := llm.NewOpenAIClient(cfg.LLM.APIKey, llm.Config{
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: &cfg.LLM.Temperature,
		MaxTokens:   &cfg.LLM.MaxTokens,
	})
	defer llmClient.Close()

	metadata := anilist.NewClient(cfg.AniList.URL, time.Duration(cfg.AniList.TimeoutSeconds)*time.Second, log)

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		badgerCache, err := cache.NewBadgerCache(cfg.Cache.Dir)
		if err != nil {
			return fmt.Errorf("failed to open response cache: %w", err)
		}
		defer badgerCache.Close()
		responseCache = badgerCache
	}

	pipeline := root.New(llmClient, metadata, responseCache, log, &root.Config{
		LLMTimeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		ServiceTimeout: time.Duration(cfg.AniList.TimeoutSeconds) * time.Second,
		CacheTTL:       time.Duration(cfg.Cache.TTLSeconds) * time.Second,
	})

	srv := server.New(cfg, pipeline, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		log.Info("server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("llm-model") {
		cfg.LLM.Model, _ = cmd.Flags().GetString("llm-model")
	}
	if cmd.Flags().Changed("llm-api-key") {
		cfg.LLM.APIKey, _ = cmd.Flags().GetString("llm-api-key")
	}
	if cmd.Flags().Changed("llm-base-url") {
		cfg.LLM.BaseURL, _ = cmd.Flags().GetString("llm-base-url")
	}

	if cmd.Flags().Changed("anilist-url") {
		cfg.AniList.URL, _ = cmd.Flags().GetString("anilist-url")
	}

	if cmd.Flags().Changed("no-cache") {
		disabled, _ := cmd.Flags().GetBool("no-cache")
		cfg.Cache.Enabled = !disabled
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.Cache.Dir, _ = cmd.Flags().GetString("cache-dir")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required")
	}

	if cfg.AniList.URL == "" {
		return fmt.Errorf("metadata service URL is required")
	}

	return nil
}
