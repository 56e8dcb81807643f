// Package cmd implements the fscrawl command-line surface: run, resume,
// checkpoint, and version, wired the way the teacher's cmd/goarchive/cmd
// wires its own subcommands against a shared root and a CLIOverrides struct.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time).
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// Global (persistent) CLI flags shared by every subcommand.
var (
	cfgFile   string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "fscrawl",
	Short: "FamilySearch Tree BFS crawler",
	Long: `fscrawl performs a breadth-first crawl of a FamilySearch family tree,
persisting the discovered graph to a durable, resumable embedded store.

Features:
  - Concurrent, rate-limited, retrying fetch pipeline
  - Durable frontier/processing queues surviving restarts
  - A resolution pass that disambiguates parent relationship types
  - Pause/resume via OS signals or a watched control file`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to a YAML configuration file (optional; built-in defaults otherwise)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")
}

// GetConfigFile returns the configured config file path.
func GetConfigFile() string { return cfgFile }
