package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-newsletter/internal/ai"
	"ai-newsletter/internal/httpapi"
	"ai-newsletter/internal/listmonk"
	"ai-newsletter/internal/redisclient"
	"ai-newsletter/internal/scheduler"
	"ai-newsletter/internal/storage"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the newsletter API server and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		// Redis client
		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		genTimeout, err := time.ParseDuration(cfg.Perplexity.Timeout)
		if err != nil {
			return fmt.Errorf("invalid perplexity.timeout: %w", err)
		}
		generator := ai.NewPerplexity(ai.Config{
			APIKey:  cfg.Perplexity.APIKey,
			Model:   cfg.Perplexity.Model,
			BaseURL: cfg.Perplexity.BaseURL,
			Timeout: genTimeout,
		})

		mailer := listmonk.New(cfg.Listmonk.BaseURL, cfg.Listmonk.Username, cfg.Listmonk.Password, 15*time.Second)

		pollInterval, err := time.ParseDuration(cfg.Scheduler.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid scheduler.poll_interval: %w", err)
		}
		sched := scheduler.New(store, generator, mailer, scheduler.Options{
			CronSpec:     cfg.Scheduler.Cron,
			PollInterval: pollInterval,
			ListID:       cfg.Listmonk.ListID,
		})
		if cfg.Scheduler.AutoStart {
			if err := sched.Start(); err != nil {
				return err
			}
		}

		api := &httpapi.Server{
			Store:     store,
			Generator: generator,
			Scheduler: sched,
			MailStatus: func(r *http.Request) bool {
				return mailer.IsConfigured(r.Context())
			},
			ListmonkURL: cfg.Listmonk.BaseURL,
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			log.Printf("received signal: %s, shutting down", s)
			cancel()
		}()

		errc := make(chan error, 1)
		go func() {
			slog.Info("serving newsletter API", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
		}

		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrNotRunning) {
			slog.Warn("scheduler stop on shutdown", "err", err)
		}
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
