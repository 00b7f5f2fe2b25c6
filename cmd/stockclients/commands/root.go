package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"stockclients/internal/components/respcache"
	"stockclients/internal/components/telemetry"
	"stockclients/pkg/configutil"
	"stockclients/pkg/table"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type ZacksConfig struct {
	Username         string  `json:"username"`
	Password         string  `json:"password"`
	Proxy            string  `json:"proxy"`
	BypassCloudflare bool    `json:"bypass_cloudflare"`
	RequestsPerSec   float64 `json:"requests_per_second"`
}

type WSHConfig struct {
	CustomerID string `json:"customer_id"`
	Password   string `json:"password"`
	// Cache is "", "json" or "sqlite".
	Cache     string `json:"cache"`
	CachePath string `json:"cache_path"`
	MaxDays   int    `json:"max_days"`
}

type Config struct {
	Zacks ZacksConfig `json:"zacks"`
	WSH   WSHConfig   `json:"wsh"`
}

var (
	configPath *string
	debug      *bool
	csvOutput  *bool
	dumpDir    *string
)

var rootCmd = &cobra.Command{
	Use:   "stockclients",
	Short: "stockclients scrapes screener results, earnings releases and event calendars.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read credentials from.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log every request.")
	csvOutput = rootCmd.PersistentFlags().Bool("csv", false, "Write results as csv instead of a table.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "Write every request and response to this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env (if any), the config file (if any) and applies the
// environment overrides on top.
func loadConfig() (Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using the environment only", "path", *configPath)
	}

	configutil.EnvOverride(&cfg.Zacks.Username, "ZACKS_USERNAME")
	configutil.EnvOverride(&cfg.Zacks.Password, "ZACKS_PASSWORD")
	configutil.EnvOverride(&cfg.WSH.CustomerID, "WSH_CUSTOMER_ID")
	configutil.EnvOverride(&cfg.WSH.Password, "WSH_PASSWORD")
	return cfg, nil
}

// openCache returns nil when caching is disabled, close must always be called.
func openCache(cfg WSHConfig) (respcache.Store, func(), error) {
	switch cfg.Cache {
	case "":
		return nil, func() {}, nil
	case "json":
		path := cfg.CachePath
		if path == "" {
			path = respcache.DefaultFilename
		}
		return respcache.NewFileStore(path), func() {}, nil
	case "sqlite":
		path := cfg.CachePath
		if path == "" {
			path = "cache.db"
		}
		sqlite, err := respcache.OpenSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite, func() { sqlite.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown cache kind %q, expected json or sqlite", cfg.Cache)
}

// dumpOutput returns nil unless --dump was given.
func dumpOutput() telemetry.DumpOutput {
	if *dumpDir == "" {
		return nil
	}
	output, err := telemetry.NewFilesystemOutput(*dumpDir)
	if err != nil {
		slog.Warn("failed to create dump directory, not dumping", "dir", *dumpDir, "err", err)
		return nil
	}
	return output
}

func writeTable(w io.Writer, t *table.Table) error {
	if *csvOutput {
		return table.WriteCSV(w, t)
	}
	table.Render(w, t)
	return nil
}
