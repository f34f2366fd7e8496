package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var syncFull bool

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "push local changes, then replace the local store with the full server state")
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize with the configured server once",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		client, err := newSyncClient(store)
		if err != nil {
			return err
		}
		if !client.Health(cmd.Context()) {
			return fmt.Errorf("server %s is not reachable", viper.GetString("server_url"))
		}

		if syncFull {
			if err := client.FullResync(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("full resync done")
		} else {
			n, err := client.SyncOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("sync done, %d record(s) received\n", n)
		}
		if ls := client.LastSync(); ls != nil {
			saveLastSync(*ls)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync periodically until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := viper.GetDuration("sync_interval")
		if interval <= 0 {
			return fmt.Errorf("sync_interval must be positive, got %q", viper.GetString("sync_interval"))
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		client, err := newSyncClient(store)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("syncing every %s, Ctrl-C to stop", interval)
		client.Run(ctx, interval)

		if ls := client.LastSync(); ls != nil {
			saveLastSync(*ls)
		}
		return nil
	},
}
