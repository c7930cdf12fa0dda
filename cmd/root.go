package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcanaland/proxier/internal/config"
)

// Version is the proxier release
const Version = "1.0.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "proxier",
	Short: "Tool for turning deck lists into printable card sheets",
	Long: `Proxier is a command-line tool that turns a deck description into a printable
PDF of card images laid out in a grid.

It reads Tabletop Simulator save files, exported deck lists and decklist JSON
endpoints, either from a local file or from a URL. Links to GitHub, Gist,
Pastebin, Dropbox and Google Drive pages are rewritten to their raw downloads.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	RootCmd.PersistentFlags().String("config", "", "Path to a config file (default is the XDG config path)")

	RootCmd.AddCommand(generateCmd)
	RootCmd.AddCommand(deckCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(serveCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}

// commandLogger builds the logger for cmd from the persistent verbose flag
func commandLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return setupLogger(verbose)
}

// loadConfig reads the file named by --config, or the default config file
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetConfigFilePath()
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
