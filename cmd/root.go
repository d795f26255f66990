package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"stagelights/internal/config"
)

// Set at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "stagelights",
	Short:         "stagelights drives DMX lighting fixtures over Art-Net, OSC or MQTT",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stagelights %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is ./stagelights.toml, then ~/.stagelights/stagelights.toml)")

	rootCmd.AddCommand(runCmd, kelvinCmd, checkCmd, versionCmd)
}

// loadConfig reads .env, the config file and the environment, in that order.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	path, err := findConfig(configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, fmt.Errorf("configuration file read error: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfig returns explicit when set, otherwise the first default
// location that exists. An empty result means built-in defaults.
func findConfig(explicit string) (string, error) {
	if explicit != "" {
		return homedir.Expand(explicit)
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	candidates := []string{
		"stagelights.toml",
		filepath.Join(home, ".stagelights", "stagelights.toml"),
		"/etc/stagelights/stagelights.toml",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}
