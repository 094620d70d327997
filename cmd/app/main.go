package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"contribution-scout/internal/adapter/analyzer"
	"contribution-scout/internal/adapter/filter"
	"contribution-scout/internal/adapter/gemini"
	"contribution-scout/internal/adapter/github"
	"contribution-scout/internal/adapter/openai"
	"contribution-scout/internal/adapter/recommender"
	"contribution-scout/internal/adapter/repository"
	"contribution-scout/internal/api"
	"contribution-scout/internal/config"
	"contribution-scout/internal/logging"
	"contribution-scout/internal/port"
	"contribution-scout/internal/service"
	"contribution-scout/internal/session"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "contribution-scout",
		Short:        "Recommend open-source projects to contribute to",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file")

	root.AddCommand(serveCmd(&configPath), analyzeCmd(&configPath))
	return root
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logging.New(cfg.LogLevel)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, log)
		},
	}
}

func analyzeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <repo-url> [repo-type]",
		Short: "Profile a single repository and print the result as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel)
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			gen, closeGen, err := newGenerator(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeGen()

			repoType := ""
			if len(args) > 1 {
				repoType = args[1]
			}

			a := analyzer.NewRepoAnalyzer(gen, log)
			a.SetTimeout(cfg.AnalyzerTimeout)
			profile := a.Analyze(ctx, args[0], repoType)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}
}

// newGenerator builds the configured AI client. A missing credential yields a
// nil generator so callers fall back to their not-configured results.
func newGenerator(ctx context.Context, cfg *config.Config, log *logging.Logger) (port.Generator, func(), error) {
	noop := func() {}
	if cfg.AIKey() == "" {
		log.Warn("AI credential not configured", "provider", cfg.AIProvider)
		return nil, noop, nil
	}

	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		g, err := openai.NewGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		return g, noop, nil
	default:
		g, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return g, func() { _ = g.Close() }, nil
	}
}

func runServer(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	store, err := repository.NewPostgresRepo(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = store.Close() }()

	gen, closeGen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init AI client: %w", err)
	}
	defer closeGen()

	repoAnalyzer := analyzer.NewRepoAnalyzer(gen, log)
	repoAnalyzer.SetMaxGoroutines(cfg.AnalyzerConcurrency)
	repoAnalyzer.SetTimeout(cfg.AnalyzerTimeout)

	recommendations := service.NewRecommendationService(
		repoAnalyzer,
		recommender.NewSynthesizer(gen, log),
		filter.NewComplianceAuditor(),
		store,
		log,
	)
	chat := service.NewChatService(gen, store, log)

	cache := session.NewCache()
	sessions := session.NewManager(cache, store, log)
	sweeper, err := session.NewSweeper(cfg.SessionSweepSpec, cache, store, log)
	if err != nil {
		return fmt.Errorf("init session sweeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	handler := api.NewHandler(recommendations, chat, github.NewChecker(cfg.GitHubToken), sessions, log)
	e := api.NewServer(handler, log, api.ServerOptions{
		AllowedOrigins:  cfg.CORSOrigins,
		RequireClientID: cfg.RequireClientID,
	})

	addr := ":" + strconv.Itoa(cfg.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "provider", cfg.AIProvider, "requireClientId", cfg.RequireClientID)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
