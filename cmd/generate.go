package cmd

import (
	"context"
	"fmt"
	"time"

	"ai-newsletter/internal/ai"
	"ai-newsletter/internal/listmonk"
	"ai-newsletter/internal/redisclient"
	"ai-newsletter/internal/scheduler"
	"ai-newsletter/internal/storage"

	"github.com/spf13/cobra"
)

var genSkipDispatch bool

// generateCmd runs one generation pass for all active subscribers, ignoring
// the recurring schedule.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate newsletters for all active subscribers now",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

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

		var mailer scheduler.Dispatcher
		if !genSkipDispatch {
			mailer = listmonk.New(cfg.Listmonk.BaseURL, cfg.Listmonk.Username, cfg.Listmonk.Password, 15*time.Second)
		}

		sched := scheduler.New(store, generator, mailer, scheduler.Options{
			CronSpec: cfg.Scheduler.Cron,
			ListID:   cfg.Listmonk.ListID,
		})

		rep, err := sched.RunNow(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %d newsletters (%d unique topic sets), %d subscribers reached today\n",
			rep.NewslettersGenerated, rep.UniqueContentGenerated, rep.SubscribersReached)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&genSkipDispatch, "skip-dispatch", false, "generate and log without sending email")
}
