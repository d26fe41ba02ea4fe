package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/relaywave/balance-proxy/internal/autostart"
	"github.com/relaywave/balance-proxy/internal/config"
	"github.com/relaywave/balance-proxy/internal/control"
	"github.com/relaywave/balance-proxy/internal/proxy"
	"github.com/relaywave/balance-proxy/internal/status"
)

var watchConfig bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the firecrawl and tavily listeners",
	Long: `Start every enabled provider's listener and block until interrupted,
draining in-flight requests on shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&watchConfig, "watch-config", false,
		"log when the config file changes on disk, without reloading it")
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := proxy.NewLogger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrInit(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		return err
	}

	logs := status.NewLogRing()
	ctrl := control.New(configPath, cfg, logs, logger, autostart.NewSystemd(os.Args[0]))

	if watchConfig {
		watcher, err := config.NewWatcher(configPath)
		if err != nil {
			logger.Error().Err(err).Msg("failed to start config watcher")
		} else {
			watcher.OnChange(func() {
				logger.Info().Msg("config file changed externally, run `balance-proxy config show` to compare, then restart to apply")
			})
			watchCtx, cancelWatch := context.WithCancel(context.Background())
			go func() {
				if err := watcher.Watch(watchCtx); err != nil {
					logger.Error().Err(err).Msg("config watcher stopped")
				}
			}()
			defer cancelWatch()
			defer watcher.Close()
		}
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStart()
	if _, err := ctrl.Start(startCtx); err != nil {
		logger.Error().Err(err).Msg("one or more listeners failed to start")
	}

	return runWithGracefulShutdown(ctrl, logger)
}

// runWithGracefulShutdown blocks until SIGINT/SIGTERM, then drains every
// running listener before returning.
func runWithGracefulShutdown(ctrl *control.Controller, logger zerolog.Logger) error {
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	logger.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := ctrl.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
