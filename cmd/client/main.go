package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"todosync/internal/local"
	"todosync/internal/syncer"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "todosync",
	Short:         "Local-first todo list with optional server sync",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/todosync/config.yaml)")

	rootCmd.AddCommand(listCmd, addCmd, editCmd, doneCmd, rmCmd, clearCmd, syncCmd, watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var cfgFile string

func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("home dir: %v", err)
	}
	dir := filepath.Join(home, ".config", "todosync")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	// The database default applies whether or not --config is used.
	viper.SetDefault("database", filepath.Join(dir, "todo.db"))
	viper.SetDefault("server_url", "")
	viper.SetDefault("user_id", "default-user")
	viper.SetDefault("sync_interval", "5m")
	viper.SetEnvPrefix("todosync")
	viper.AutomaticEnv()

	// Missing config file is fine, defaults apply.
	_ = viper.ReadInConfig()
}

func openStore() (local.Store, error) {
	path := viper.GetString("database")
	if path == "" {
		return nil, fmt.Errorf("database path is not configured")
	}
	return local.OpenSQLite(path)
}

func newSyncClient(store local.Store) (*syncer.Client, error) {
	serverURL := viper.GetString("server_url")
	if serverURL == "" {
		return nil, fmt.Errorf("server_url is not configured, set it in the config file or TODOSYNC_SERVER_URL")
	}
	c := syncer.New(store, serverURL, viper.GetString("user_id"), nil)
	if raw := viper.GetString("last_sync"); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			c.SetLastSync(t)
		}
	}
	return c, nil
}

// saveLastSync persists the baseline so incremental syncs survive restarts.
func saveLastSync(t time.Time) {
	viper.Set("last_sync", t.UTC().Format(time.RFC3339Nano))
	if err := viper.WriteConfig(); err != nil {
		if err := viper.SafeWriteConfig(); err != nil {
			log.Printf("could not persist last_sync: %v", err)
		}
	}
}
