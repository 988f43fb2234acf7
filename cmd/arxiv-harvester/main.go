// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxiv-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-harvester/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds session credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// rootCmd is the base command for the arxiv-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "arxiv-harvester",
	Short: "Replay a captured arXiv search session and archive the results",
	Long: `arxiv-harvester replays a captured browser search session against the
arXiv search listing, pages through all results while evolving the session
headers the way a browser would, and archives structured metadata plus each
paper's PDF into a deterministic output tree.

The session cookie must be captured from a logged-in browser session and
supplied via ARXIV_COOKIE, a .env file, or .secrets/arxiv-cookie. When the
cookie goes stale the endpoint serves a challenge page instead of results;
the collect command surfaces that condition so the cookie can be refreshed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxiv-harvester.yaml or ~/.config/arxiv-harvester/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxiv-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxiv-harvester"))
		}
	}

	viper.SetEnvPrefix("ARXIV")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	loadDotenv()
}

// loadDotenv merges a local .env file, where captured session values
// usually live, below environment variables and the config file.
func loadDotenv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	env := viper.New()
	env.SetConfigFile(".env")
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
		return
	}
	for _, key := range env.AllKeys() {
		viper.SetDefault(key, env.Get(key))
	}
}

// sessionValue resolves a session setting: environment (ARXIV_<KEY>),
// then .env / config file, then fallback.
func sessionValue(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	// .env keys arrive fully qualified (ARXIV_COOKIE → arxiv_cookie).
	if v := viper.GetString("arxiv_" + key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
