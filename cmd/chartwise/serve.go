package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/chartwise/internal/api"
	"github.com/newthinker/chartwise/internal/notifier/webhook"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chartwise HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults and environment")
	}

	a, reg, err := buildApp(cfg, log)
	if err != nil {
		return err
	}

	deps := api.Dependencies{App: a, Metrics: reg}
	if hook := cfg.Notify.Webhook; hook.URL != "" {
		wh, err := webhook.New(webhook.Options{
			URL:        hook.URL,
			Headers:    hook.Headers,
			Timeout:    hook.Timeout,
			MaxRetries: hook.MaxRetries,
		})
		if err != nil {
			return err
		}
		deps.Notifier = wh
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		MetricsPath:  metricsPath,
		WriteTimeout: cfg.Analysis.Timeout + cfg.Server.ShutdownTimeout,
	}, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("starting chartwise server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("collector", cfg.Collector.Provider),
		zap.Strings("agents", cfg.Analysis.Agents),
		zap.Bool("auth", cfg.Server.APIKey != ""),
		zap.Bool("webhook", deps.Notifier != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down chartwise server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(ctx)
}
