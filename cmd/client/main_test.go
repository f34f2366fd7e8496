package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInitConfigKeepsDatabaseDefaultWithExplicitConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("server_url: http://localhost:8080\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfgFile = cfgPath
	t.Cleanup(func() { cfgFile = "" })

	initConfig()

	if got := viper.GetString("database"); got == "" {
		t.Fatal("database default must apply when --config omits it")
	}
	if got := viper.GetString("server_url"); got != "http://localhost:8080" {
		t.Errorf("server_url = %q", got)
	}
}

func TestOpenStoreRejectsEmptyPath(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("database", "")

	if _, err := openStore(); err == nil {
		t.Fatal("openStore with empty database path should fail")
	}
}
