package cmd

import (
	"context"
	"fmt"
	"time"

	"ai-newsletter/internal/listmonk"
	"ai-newsletter/internal/redisclient"
	"ai-newsletter/internal/storage"

	"github.com/spf13/cobra"
)

// syncCmd pushes local subscribers into Listmonk.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync local subscribers to Listmonk",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()
		store := storage.NewRedisStore(rdb)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		subs, err := store.ListActiveSubscribers(ctx)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No active subscribers to sync.")
			return nil
		}

		cli := listmonk.New(cfg.Listmonk.BaseURL, cfg.Listmonk.Username, cfg.Listmonk.Password, 15*time.Second)
		if !cli.IsConfigured(ctx) {
			return fmt.Errorf("listmonk not reachable at %s", cfg.Listmonk.BaseURL)
		}

		res := cli.SyncSubscribers(ctx, subs)
		fmt.Fprintf(cmd.OutOrStdout(), "Synced %d subscribers, %d failed\n", res.Success, res.Failed)
		for _, e := range res.Errors {
			fmt.Fprintln(cmd.ErrOrStderr(), e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
