package deck

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/arcanaland/proxier/internal/card"
)

// parseExport reads the uniform {deck_name, cards} layout. Records already
// carry card fields, so nothing is merged.
func parseExport(root gjson.Result) *Deck {
	d := New(root.Get("deck_name").String())

	root.Get("cards").ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			return true
		}

		c := card.Card{
			Name:      rec.Get("name").String(),
			Type:      firstString(rec, "type", "card_type"),
			Cost:      int(rec.Get("cost").Int()),
			Power:     int(rec.Get("power").Int()),
			Toughness: int(rec.Get("toughness").Int()),
			Ability:   rec.Get("ability").String(),
			Quantity:  1,
			ImageURL:  rec.Get("image_url").String(),
		}
		if q := rec.Get("quantity"); q.Exists() && q.Type != gjson.Null {
			c.Quantity = int(q.Int())
		}

		d.Add(c)
		return true
	})

	return d
}

// ParseSource decodes deck data read from src. Previously exported YAML
// decks are read back directly; everything else goes through Normalize.
func ParseSource(src string, data []byte) (*Deck, error) {
	if !isYAML(src) {
		return Normalize(data)
	}

	var d Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := New(d.Name)
	for _, c := range d.Cards {
		out.Add(c)
	}
	out.Shape = ShapeExport
	return out, nil
}

// WriteJSON writes the deck in the uniform export layout
func (d *Deck) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// WriteYAML writes the deck as YAML
func (d *Deck) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

// WriteMarkdown writes the deck as a Markdown table
func (d *Deck) WriteMarkdown(w io.Writer) error {
	rows := make([][]string, 0, len(d.Cards))
	for _, c := range d.Cards {
		rows = append(rows, []string{
			c.Name,
			c.Type,
			strconv.Itoa(c.Quantity),
			c.ImageURL,
		})
	}

	md := markdown.NewMarkdown(w)
	md.H1(d.Name)
	md.PlainText("")
	md.PlainText(fmt.Sprintf("Total cards: %d | Unique cards: %d", d.TotalQuantity(), d.Unique()))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Type", "Quantity", "Image"},
		Rows:   rows,
	})
	return md.Build()
}

// SaveFile writes the deck to path, choosing the format from its extension:
// .yaml/.yml, .md, anything else is JSON.
func (d *Deck) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %v", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %v", path, err)
	}
	defer file.Close()

	switch {
	case isYAML(path):
		err = d.WriteYAML(file)
	case strings.EqualFold(filepath.Ext(path), ".md"):
		err = d.WriteMarkdown(file)
	default:
		err = d.WriteJSON(file)
	}
	if err != nil {
		return fmt.Errorf("error writing %s: %v", path, err)
	}
	return file.Close()
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
