package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/proxier/internal/config"
	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/proxier"
)

var generateCmd = &cobra.Command{
	Use:   "generate [source]",
	Short: "Generate a printable PDF from a deck file or URL",
	Long: `Generate loads a deck, normalizes it to a uniform card list and writes a PDF
with every copy of every card laid out in a grid, row by row.

Cards whose image cannot be fetched are left as blank cells so the sheet still
cuts cleanly. A deck with no copies to print produces no document.

Examples:
  proxier generate deck.json
  proxier generate https://gist.github.com/user/abc123 -o proxies.pdf
  proxier generate deck.json --page-size a4 --rows 3 --cols 3 --export deck.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := commandLogger(cmd)

		opts, err := buildOptions(cmd, args[0])
		if err != nil {
			return err
		}
		if opts.ExportPath, err = cmd.Flags().GetString("export"); err != nil {
			return err
		}
		if opts.DeckListPath, err = cmd.Flags().GetString("list"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := proxier.Generate(ctx, opts, logger)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}

		if result.Empty {
			colorize.Yellow("No cards found in %s, nothing to print.", opts.Source)
			return nil
		}

		colorize.Green("✅ Wrote %s", result.Output)
		fmt.Printf("   %d cards (%d unique) on %d pages, %d blank cells\n",
			result.Stats.Cells, result.Deck.Unique(), result.Stats.Pages, result.Stats.Blank)
		if opts.ExportPath != "" {
			fmt.Printf("   deck exported to %s\n", opts.ExportPath)
		}
		if opts.DeckListPath != "" {
			fmt.Printf("   deck list written to %s\n", opts.DeckListPath)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringP("output", "o", "", "Output PDF path (default <output_dir>/cards_printable.pdf)")
	generateCmd.Flags().String("export", "", "Also write the normalized deck (.json, .yaml or .md)")
	generateCmd.Flags().String("list", "", "Also write a deck list table PDF")
	addLayoutFlags(generateCmd)
}

// addLayoutFlags registers the flags that override config file values
func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().String("page-size", "", "Page size (letter, legal, a3, a4, a5)")
	cmd.Flags().Float64("margin", 0, "Page margin in inches")
	cmd.Flags().Int("rows", 0, "Cards per column of the grid")
	cmd.Flags().Int("cols", 0, "Cards per row of the grid")
	cmd.Flags().Duration("timeout", 0, "Timeout for each download")
	cmd.Flags().String("user-agent", "", "User agent sent with downloads")
}

// buildOptions merges the config file with any flags that were set
func buildOptions(cmd *cobra.Command, src string) (proxier.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return proxier.Options{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("page-size") {
		cfg.PageSize, _ = flags.GetString("page-size")
	}
	if flags.Changed("margin") {
		cfg.MarginInches, _ = flags.GetFloat64("margin")
	}
	if flags.Changed("rows") {
		cfg.CardsPerColumn, _ = flags.GetInt("rows")
	}
	if flags.Changed("cols") {
		cfg.CardsPerRow, _ = flags.GetInt("cols")
	}
	if flags.Changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		cfg.FetchTimeout = timeout.String()
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent, _ = flags.GetString("user-agent")
	}

	return optionsFromConfig(cfg, src, outputFlag(cmd))
}

func outputFlag(cmd *cobra.Command) string {
	if cmd.Flags().Lookup("output") == nil {
		return ""
	}
	output, _ := cmd.Flags().GetString("output")
	return output
}

func optionsFromConfig(cfg *config.Config, src, output string) (proxier.Options, error) {
	grid, err := cfg.Grid()
	if err != nil {
		return proxier.Options{}, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return proxier.Options{}, err
	}

	return proxier.Options{
		Source:       src,
		Output:       cfg.OutputPath(output),
		Grid:         grid,
		FetchTimeout: timeout,
		UserAgent:    cfg.UserAgent,
	}, nil
}

// fetchSettings returns the timeout and user agent for commands that only
// load a deck
func fetchSettings(cmd *cobra.Command) (time.Duration, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return 0, "", err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return 0, "", err
	}
	return timeout, cfg.UserAgent, nil
}

// loadDeckArg loads the deck named by a command argument
func loadDeckArg(cmd *cobra.Command, src string) (*deck.Deck, error) {
	timeout, userAgent, err := fetchSettings(cmd)
	if err != nil {
		return nil, err
	}
	d, err := proxier.Load(cmd.Context(), src, timeout, userAgent, commandLogger(cmd))
	if err != nil {
		return nil, fmt.Errorf("error loading deck: %w", err)
	}
	return d, nil
}
