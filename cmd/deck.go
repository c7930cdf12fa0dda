package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/proxier/internal/config"
	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/imagefetch"
	"github.com/arcanaland/proxier/internal/layout"
	"github.com/arcanaland/proxier/internal/render"
	"github.com/arcanaland/proxier/internal/source"
)

// deckCmd represents the deck command group
var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Inspect, convert and list decks",
	Long:  `Commands for inspecting a deck, converting it to the uniform format and writing deck lists.`,
}

// deckShowCmd represents the deck show command
var deckShowCmd = &cobra.Command{
	Use:   "show [source]",
	Short: "Print the normalized card list of a deck",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDeckArg(cmd, args[0])
		if err != nil {
			return err
		}
		printDeck(os.Stdout, d, terminalWidth())
		return nil
	},
}

// deckExportCmd represents the deck export command
var deckExportCmd = &cobra.Command{
	Use:   "export [source]",
	Short: "Write the normalized deck as JSON, YAML or Markdown",
	Long: `Export normalizes a deck and writes it in the uniform format. The result can be
fed back to any proxier command.

The format is taken from --format, or from the extension of --output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		d, err := loadDeckArg(cmd, args[0])
		if err != nil {
			return err
		}

		if output != "" && !cmd.Flags().Changed("format") {
			if err := d.SaveFile(output); err != nil {
				return err
			}
			colorize.Green("✅ Deck exported to %s", output)
			return nil
		}

		w := io.Writer(os.Stdout)
		if output != "" {
			if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("error creating export file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return writeDeck(w, d, format)
	},
}

// deckListPDFCmd represents the deck list-pdf command
var deckListPDFCmd = &cobra.Command{
	Use:   "list-pdf [source]",
	Short: "Write a deck list table as a PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		noQR, _ := cmd.Flags().GetBool("no-qr")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		page, err := layout.ParsePageSize(cfg.PageSize)
		if err != nil {
			return err
		}
		if output == "" {
			output = filepath.Join(cfg.OutputDir, "deck_list.pdf")
		}

		d, err := loadDeckArg(cmd, args[0])
		if err != nil {
			return err
		}

		opts := render.DeckListOptions{Page: page}
		if !noQR && source.IsRemote(args[0]) {
			opts.SourceURL = source.RewriteURL(args[0])
		}
		if err := render.WriteDeckList(d, output, opts); err != nil {
			return err
		}

		colorize.Green("✅ Deck list written to %s", output)
		return nil
	},
}

// deckInitCmd represents the deck init command
var deckInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.Init()
		if err != nil {
			return fmt.Errorf("error initializing config: %w", err)
		}

		fmt.Println("Config file initialized at:", configPath)
		fmt.Println("Edit it to change the default page size, grid and output directory.")
		return nil
	},
}

func init() {
	deckCmd.AddCommand(deckShowCmd)
	deckCmd.AddCommand(deckExportCmd)
	deckCmd.AddCommand(deckListPDFCmd)
	deckCmd.AddCommand(deckInitCmd)

	deckExportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	deckExportCmd.Flags().StringP("format", "f", "json", "Output format: json, yaml or md")

	deckListPDFCmd.Flags().StringP("output", "o", "", "Output PDF path (default <output_dir>/deck_list.pdf)")
	deckListPDFCmd.Flags().Bool("no-qr", false, "Do not print a QR code of the source URL")
}

func writeDeck(w io.Writer, d *deck.Deck, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return d.WriteJSON(w)
	case "yaml", "yml":
		return d.WriteYAML(w)
	case "md", "markdown":
		return d.WriteMarkdown(w)
	default:
		return fmt.Errorf("unknown export format %q (expected json, yaml or md)", format)
	}
}

// terminalWidth returns the stdout width, 80 when it cannot be read
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// printDeck writes the deck as an aligned, colored listing
func printDeck(w io.Writer, d *deck.Deck, width int) {
	nameWidth := len("Name")
	for _, c := range d.Cards {
		if n := len([]rune(c.Name)); n > nameWidth {
			nameWidth = n
		}
	}
	if nameWidth > 40 {
		nameWidth = 40
	}

	fmt.Fprintln(w, colorize.CyanString("Deck: ")+colorize.HiWhiteString("%s", d.Name))
	fmt.Fprintln(w, colorize.CyanString("Cards: ")+
		colorize.HiWhiteString("%d copies of %d cards", d.TotalQuantity(), d.Unique()))
	fmt.Fprintln(w)

	// qty column, two spaces, name, two spaces, image
	imageWidth := width - 4 - 2 - nameWidth - 2
	if imageWidth < 10 {
		imageWidth = 10
	}

	for _, c := range d.Cards {
		qty := colorize.HiWhiteString("%3dx", c.Quantity)
		if c.Quantity == 0 {
			qty = colorize.HiBlackString("%3dx", c.Quantity)
		}
		name := fmt.Sprintf("%-*s", nameWidth, clip(c.Name, nameWidth))

		image := colorize.YellowString("no image")
		if c.HasImage() {
			image = colorize.HiBlackString("%s", clip(c.ImageURL, imageWidth))
		}
		fmt.Fprintf(w, "%s  %s  %s\n", qty, name, image)
	}
}

// clip shortens s to at most n columns including the ellipsis
func clip(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return imagefetch.Truncate(s, n-3)
}
