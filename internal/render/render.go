// Package render draws paginated card grids into a PDF document.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/imagefetch"
	"github.com/arcanaland/proxier/internal/layout"
)

// creator is written into the document metadata
const creator = "proxier"

// ImageSource resolves an image reference to a cell outcome
type ImageSource interface {
	Get(ctx context.Context, ref string) imagefetch.Cell
}

// Stats summarizes one rendered document
type Stats struct {
	Pages  int
	Cells  int
	Filled int
	Blank  int
}

// Renderer lays out a deck on a grid and draws each card image full-bleed
// into its cell.
type Renderer struct {
	Grid   layout.Grid
	Images ImageSource
	Logger *slog.Logger

	// registered maps an image reference to its name in the document
	registered map[string]string
}

// NewRenderer creates a Renderer for one generation run
func NewRenderer(grid layout.Grid, images ImageSource, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		Grid:   grid,
		Images: images,
		Logger: logger,
	}
}

// Render writes the printable sheet for d to path. A deck without copies
// returns deck.ErrNoCards and writes nothing. Image failures leave their
// cells blank and never fail the run.
func (r *Renderer) Render(ctx context.Context, d *deck.Deck, path string) (Stats, error) {
	var stats Stats

	if err := d.CheckNotEmpty(); err != nil {
		return stats, err
	}
	pages, err := layout.Paginate(d, r.Grid)
	if err != nil {
		return stats, err
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: r.Grid.Page.Width, Ht: r.Grid.Page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(creator, true)
	pdf.SetTitle(d.Name, true)
	r.registered = make(map[string]string)

	r.Logger.Info("generating printable PDF", "cards", d.TotalQuantity(), "pages", len(pages))
	for _, page := range pages {
		pdf.AddPage()
		r.Logger.Debug("drawing page", "page", page.Number+1, "cells", len(page.Placements))

		for _, p := range page.Placements {
			stats.Cells++
			if r.drawCell(ctx, pdf, p) {
				stats.Filled++
			} else {
				stats.Blank++
			}
		}
		stats.Pages++
	}

	if err := pdf.Error(); err != nil {
		return stats, fmt.Errorf("error building PDF: %w", err)
	}
	if err := writeFile(pdf, path); err != nil {
		return stats, err
	}

	r.Logger.Info("printable PDF created", "path", path, "pages", stats.Pages,
		"filled", stats.Filled, "blank", stats.Blank)
	return stats, nil
}

// drawCell fills one cell with its card image and reports whether anything
// was drawn. Cells without an image stay blank: no border, no text.
func (r *Renderer) drawCell(ctx context.Context, pdf *fpdf.Fpdf, p layout.Placement) bool {
	cell := r.Images.Get(ctx, p.Card.ImageURL)
	if !cell.Filled() {
		r.Logger.Debug("blank cell", "card", p.Card.Name, "page", p.Page+1,
			"index", p.Index, "reason", cell.Reason)
		return false
	}

	name, err := r.register(pdf, p.Card.ImageURL, cell.Image)
	if err != nil {
		r.Logger.Warn("could not embed image", "card", p.Card.Name,
			"ref", imagefetch.Truncate(p.Card.ImageURL, 60), "error", err)
		return false
	}

	// fpdf measures y from the top of the page
	x, y := r.Grid.TopLeft(p.Row, p.Col)
	pdf.ImageOptions(name, x, y, p.Width, p.Height, false, fpdf.ImageOptions{}, 0, "")
	return pdf.Ok()
}

// register embeds img once per reference and returns its document name.
func (r *Renderer) register(pdf *fpdf.Fpdf, ref string, img image.Image) (string, error) {
	if name, ok := r.registered[ref]; ok {
		return name, nil
	}

	data, imageType, err := encode(img)
	if err != nil {
		return "", err
	}

	name := "card-" + strconv.Itoa(len(r.registered))
	pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return "", err
	}
	r.registered[ref] = name
	return name, nil
}

// encode re-encodes a decoded raster for embedding: JPEG for opaque images,
// PNG when transparency has to survive.
func encode(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if o, ok := img.(interface{ Opaque() bool }); ok && !o.Opaque() {
		// fpdf only reads 8-bit PNGs
		if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "PNG", nil
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(92)); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "JPG", nil
}

// writeFile creates the parent directory and flushes the document.
func writeFile(pdf *fpdf.Fpdf, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %v", err)
		}
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}
