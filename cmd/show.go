package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/proxier/internal/card"
	"github.com/arcanaland/proxier/internal/config"
	"github.com/arcanaland/proxier/internal/imagefetch"
	"github.com/arcanaland/proxier/internal/preview"
)

var showCmd = &cobra.Command{
	Use:   "show [source] [card_name]",
	Short: "Display a card from a deck with ANSI art",
	Long: `Show looks up a card by name in a deck and prints its image as ANSI terminal
art next to its details. Generated art is cached under the XDG cache directory.

Examples:
  proxier show deck.json "Lightning Bolt"
  proxier show https://gist.github.com/user/abc123 "[sideboard] Negate"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, name := args[0], args[1]
		plain, _ := cmd.Flags().GetBool("plain")

		d, err := loadDeckArg(cmd, src)
		if err != nil {
			return err
		}

		c, ok := d.Find(name)
		if !ok {
			return fmt.Errorf("card %q not found in deck %s", name, d.Name)
		}

		art := ""
		if c.HasImage() {
			art, err = cardArt(cmd, c, !plain)
			if err != nil {
				colorize.Yellow("Could not render image: %v", err)
			}
		}

		displayCard(os.Stdout, c, art, d.Name, terminalWidth())
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("plain", false, "Draw the art without colors")
}

// cardArt returns cached ANSI art for the card's image, generating it on a miss
func cardArt(cmd *cobra.Command, c card.Card, trueColor bool) (string, error) {
	timeout, userAgent, err := fetchSettings(cmd)
	if err != nil {
		return "", err
	}

	key := c.ImageURL
	if !trueColor {
		key += "#plain"
	}

	cache := preview.NewCache(filepath.Join(config.GetCacheDir(), "ansi_cache"))
	return cache.Load(key, func() (string, error) {
		fetcher := imagefetch.NewFetcher(timeout, userAgent, commandLogger(cmd))
		cell := fetcher.Get(cmd.Context(), c.ImageURL)
		if !cell.Filled() {
			return "", fmt.Errorf("%s", cell.Reason)
		}
		return preview.ImageToAnsi(cell.Image, preview.DefaultWidth, preview.DefaultHeight, trueColor)
	})
}

// displayCard prints the ANSI art on the left and the card details on the right
func displayCard(w io.Writer, c card.Card, ansiArt, deckName string, width int) {
	ansiLines := strings.Split(strings.TrimSuffix(ansiArt, "\n"), "\n")
	maxAnsiWidth := 0
	for _, line := range ansiLines {
		if v := preview.VisibleWidth(line); v > maxAnsiWidth {
			maxAnsiWidth = v
		}
	}

	var infoLines []string
	infoLines = append(infoLines, colorize.CyanString("Card: ")+colorize.HiWhiteString("%s", c.Name))
	infoLines = append(infoLines, colorize.CyanString("Deck: ")+colorize.HiWhiteString("%s", deckName))
	infoLines = append(infoLines, colorize.CyanString("Type: ")+colorize.HiWhiteString("%s", c.Type))
	infoLines = append(infoLines, colorize.CyanString("Qty:  ")+colorize.HiWhiteString("%d", c.Quantity))
	if c.Cost != 0 || c.Power != 0 || c.Toughness != 0 {
		infoLines = append(infoLines, colorize.CyanString("Cost: ")+colorize.HiWhiteString("%d", c.Cost))
		infoLines = append(infoLines, colorize.CyanString("P/T:  ")+
			colorize.HiWhiteString("%d/%d", c.Power, c.Toughness))
	}
	if !c.HasImage() {
		infoLines = append(infoLines, colorize.YellowString("No image, prints as a blank cell"))
	}

	spacing := 4
	infoStartCol := maxAnsiWidth + spacing
	if maxAnsiWidth == 0 {
		infoStartCol = 0
	}

	infoWidth := width - infoStartCol - 2
	if infoWidth < 20 {
		infoWidth = 20
	}

	if c.Ability != "" {
		infoLines = append(infoLines, "")
		infoLines = append(infoLines, colorize.CyanString("Ability:"))
		infoLines = append(infoLines, preview.WrapText(c.Ability, infoWidth)...)
	}

	fmt.Fprintln(w)

	maxLines := max(len(ansiLines), len(infoLines))
	for i := 0; i < maxLines; i++ {
		fmt.Fprint(w, "  ")
		if i < len(ansiLines) {
			fmt.Fprint(w, ansiLines[i])
			fmt.Fprint(w, strings.Repeat(" ", infoStartCol-preview.VisibleWidth(ansiLines[i])))
		} else {
			fmt.Fprint(w, strings.Repeat(" ", infoStartCol))
		}

		if i < len(infoLines) {
			fmt.Fprint(w, infoLines[i])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
}
