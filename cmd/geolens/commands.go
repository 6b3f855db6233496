package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"geolens/internal/archive"
	"geolens/internal/config"
	"geolens/internal/crawler"
	server "geolens/internal/http"
	"geolens/internal/jobs"
	"geolens/internal/llm"
	"geolens/internal/logging"
	"geolens/internal/migrate"
	"geolens/internal/services"
	"geolens/internal/store"
	"geolens/internal/urlutil"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closeLog := logging.New(cfg.Logging)
		defer closeLog.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var sinks []services.AnalysisSink
		var history server.History
		if cfg.Database.DSN != "" {
			if err := migrate.Run(cfg.Database.DSN); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
			st, err := store.Open(cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer st.Close()

			sinks = append(sinks, st)
			history = st
			go jobs.RunRetention(ctx, cfg, st, logger)
		}
		if cfg.Archive.Enabled {
			arch, err := archive.New(ctx, cfg.Archive)
			if err != nil {
				return fmt.Errorf("archive: %w", err)
			}
			sinks = append(sinks, arch)
		}

		client, configured := llm.New(cfg)
		if !configured {
			logger.Warn("no llm provider configured, every analysis will use fallback data",
				"provider", cfg.LLM.DefaultProvider)
		}
		svc := services.NewAnalysisService(cfg, crawler.NewFromConfig(cfg.Crawler, logger), client, logger, sinks...)
		s := server.NewServer(cfg, svc, history, configured, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- s.Listen() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = s.Shutdown(shutdownCtx)
		svc.Wait()
		return err
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [URL]",
	Short: "Run a full analysis once and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// stdout carries the JSON result.
		logger := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())

		client, configured := llm.New(cfg)
		if !configured {
			logger.Warn("no llm provider configured", "provider", cfg.LLM.DefaultProvider)
		}
		svc := services.NewAnalysisService(cfg, crawler.NewFromConfig(cfg.Crawler, logger), client, logger)

		fa, err := svc.RunFullAnalysis(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), fa)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [URL]",
	Short: "Normalize a URL and report its domain facts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := urlutil.Normalize(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), u)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, closeLog := logging.New(cfg.Logging)
		defer closeLog.Close()

		if cfg.Database.DSN == "" {
			return errors.New("database.dsn is not set")
		}
		if err := migrate.Run(cfg.Database.DSN); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
