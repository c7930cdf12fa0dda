package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/proxier/internal/card"
	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/layout"
)

func init() {
	colorize.NoColor = true
}

func TestRootCmd(t *testing.T) {
	t.Parallel()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if RootCmd.Use != "proxier" {
			t.Errorf("expected use 'proxier', got %q", RootCmd.Use)
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if RootCmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := RootCmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{"generate": false, "deck": false, "validate": false, "show": false, "serve": false}
		for _, sub := range RootCmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected subcommand %s", name)
			}
		}
	})

	t.Run("deck subcommands", func(t *testing.T) {
		t.Parallel()
		names := make(map[string]bool)
		for _, sub := range deckCmd.Commands() {
			names[sub.Name()] = true
		}
		for _, name := range []string{"show", "export", "list-pdf", "init"} {
			if !names[name] {
				t.Errorf("expected deck subcommand %s", name)
			}
		}
	})
}

func TestGenerateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		flag      string
		shorthand string
	}{
		{"output", "o"},
		{"export", ""},
		{"list", ""},
		{"page-size", ""},
		{"margin", ""},
		{"rows", ""},
		{"cols", ""},
		{"timeout", ""},
		{"user-agent", ""},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			t.Parallel()
			flag := generateCmd.Flags().Lookup(tt.flag)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.flag)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
		})
	}
}

// newOptionsCmd builds a standalone command carrying the flags buildOptions reads
func newOptionsCmd(t *testing.T, configBody string, args ...string) *cobra.Command {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if configBody != "" {
		if err := os.WriteFile(configPath, []byte(configBody), 0600); err != nil {
			t.Fatal(err)
		}
	}

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Bool("verbose", false, "")
	cmd.Flags().String("config", configPath, "")
	cmd.Flags().StringP("output", "o", "", "")
	addLayoutFlags(cmd)
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestBuildOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		opts, err := buildOptions(newOptionsCmd(t, ""), "deck.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Source != "deck.json" {
			t.Errorf("expected source deck.json, got %s", opts.Source)
		}
		if opts.Output != filepath.Join("output", "cards_printable.pdf") {
			t.Errorf("unexpected output %s", opts.Output)
		}
		if opts.Grid != layout.DefaultGrid() {
			t.Errorf("expected the default grid, got %+v", opts.Grid)
		}
		if opts.FetchTimeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", opts.FetchTimeout)
		}
	})

	t.Run("flags override the config file", func(t *testing.T) {
		t.Parallel()

		cmd := newOptionsCmd(t, "page_size = \"a4\"\ncards_per_row = 2\n",
			"--cols", "4", "--rows", "2", "--margin", "0.25", "--timeout", "3s", "-o", "out.pdf")
		opts, err := buildOptions(cmd, "deck.json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.Grid.Page != layout.A4 {
			t.Errorf("expected A4 from the config file, got %+v", opts.Grid.Page)
		}
		if opts.Grid.CardsPerRow != 4 || opts.Grid.CardsPerColumn != 2 {
			t.Errorf("expected a 4x2 grid, got %dx%d", opts.Grid.CardsPerRow, opts.Grid.CardsPerColumn)
		}
		if opts.Grid.Margin != 18 {
			t.Errorf("expected an 18pt margin, got %v", opts.Grid.Margin)
		}
		if opts.FetchTimeout != 3*time.Second || opts.Output != "out.pdf" {
			t.Errorf("unexpected options %+v", opts)
		}
	})

	t.Run("invalid flag values", func(t *testing.T) {
		t.Parallel()

		if _, err := buildOptions(newOptionsCmd(t, "", "--page-size", "napkin"), "deck.json"); err == nil {
			t.Error("expected an error for an unknown page size")
		}
		if _, err := buildOptions(newOptionsCmd(t, "", "--cols=-1"), "deck.json"); err == nil {
			t.Error("expected an error for a negative column count")
		}
	})
}

func TestWriteDeck(t *testing.T) {
	t.Parallel()

	d := deck.New("Fmt")
	d.Add(card.New("Alpha"))

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"deck_name": "Fmt"`},
		{"YAML", "deck_name: Fmt"},
		{"md", "# Fmt"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := writeDeck(&buf, d, tt.format); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in output:\n%s", tt.want, buf.String())
			}
		})
	}

	if err := writeDeck(&bytes.Buffer{}, d, "csv"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestPrintDeck(t *testing.T) {
	t.Parallel()

	d := deck.New("Listing")
	a := card.New("Alpha")
	a.Quantity = 3
	a.ImageURL = "https://example.com/" + strings.Repeat("a", 200) + ".png"
	d.Add(a)
	d.Add(card.New("Bare"))

	var buf bytes.Buffer
	printDeck(&buf, d, 60)
	out := buf.String()

	for _, want := range []string{"Listing", "4 copies of 2 cards", "  3x  Alpha", "no image", "..."} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if n := len([]rune(line)); n > 60 {
			t.Errorf("expected lines within 60 columns, got %d: %q", n, line)
		}
	}
}

func TestDisplayCard(t *testing.T) {
	t.Parallel()

	c := card.New("Bolt")
	c.Type = "Instant"
	c.Cost = 1
	c.Ability = "Deal three damage to any target."

	var buf bytes.Buffer
	displayCard(&buf, c, "▀▀\n▀▀\n", "Burn", 80)
	out := buf.String()

	for _, want := range []string{"Bolt", "Burn", "Instant", "Ability:", "Deal three damage", "No image"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "  ▀▀    ") {
		t.Errorf("expected art on the left with spacing, got:\n%s", out)
	}
}

func TestClip(t *testing.T) {
	t.Parallel()

	if got := clip("short", 10); got != "short" {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if got := clip("abcdefghijkl", 8); got != "abcde..." {
		t.Errorf("expected %q, got %q", "abcde...", got)
	}
}
