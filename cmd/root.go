package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/procd/internal/console"
	"github.com/joescharf/procd/internal/output"
	"github.com/joescharf/procd/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "procd",
	Short: "Run commands as background loops or detached daemons",
	Long: `procd runs a unit of work repeatedly until told to stop, either in the
foreground or as a detached daemon tracked by a PID file.

  procd background            loop in the foreground until interrupted
  procd daemon start -d       detach and loop in the background
  procd daemon status         check whether the daemon is running
  procd daemon stop           send SIGTERM and wait for it to exit`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		var exitErr *console.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/procd/config.yaml)")
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := configDirFunc(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PROCD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults()

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func setConfigDefaults() {
	dir, err := configDirFunc()
	if err != nil {
		dir = "."
	}
	viper.SetDefault("processing_delay", 500*time.Millisecond)
	viper.SetDefault("stop_poll_interval", 500*time.Millisecond)
	viper.SetDefault("db_path", filepath.Join(dir, "procd.db"))
	viper.SetDefault("journal.enabled", true)
	viper.SetDefault("metrics.addr", "")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.Quiet = quiet
}

// currentUI is handed to the runner and daemon commands so they pick up the
// UI built in initDeps at execution time.
func currentUI() *output.UI {
	if ui == nil {
		initDeps()
	}
	return ui
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}
