package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/budget-tripwire/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run evaluations on a schedule and serve the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
	serveCmd.Flags().String("interval", "", "Time between runs, e.g. 30m (default from config)")
	serveCmd.Flags().Bool("dry-run", false, "Scheduled runs neither notify nor write state")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Serve.Listen = listen
	}
	if interval, _ := cmd.Flags().GetString("interval"); interval != "" {
		cfg.Serve.Interval = interval
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	interval, err := time.ParseDuration(cfg.Serve.Interval)
	if err != nil || interval <= 0 {
		return fmt.Errorf("invalid serve interval %q", cfg.Serve.Interval)
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	runner, store, err := initRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	readTimeout, _ := time.ParseDuration(cfg.Serve.ReadTimeout)
	if readTimeout == 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout, _ := time.ParseDuration(cfg.Serve.WriteTimeout)
	if writeTimeout == 0 {
		writeTimeout = 60 * time.Second
	}

	srv := &http.Server{
		Addr:         cfg.Serve.Listen,
		Handler:      server.NewServer(runner, logger).Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Scheduler
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			// Errors are logged and counted by the runner.
			_, _ = runner.Run(ctx, time.Now().UTC(), dryRun)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "listen", cfg.Serve.Listen, "interval", interval.String(), "dry_run", dryRun)
		fmt.Fprintf(cmd.ErrOrStderr(), "Tripwire listening on %s, evaluating every %s\n", cfg.Serve.Listen, interval)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		cancel()
		<-done
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		<-done
	}

	logger.Info("server stopped")
	return nil
}
