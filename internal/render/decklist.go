package render

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/arcanaland/proxier/internal/card"
	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/imagefetch"
	"github.com/arcanaland/proxier/internal/layout"
)

// DeckListOptions configures the deck list document
type DeckListOptions struct {
	Page layout.PageSize

	// SourceURL, when set, is printed as a QR code under the title.
	SourceURL string
}

const (
	listMargin  = 36.0
	listRowH    = 16.0
	listHeaderH = 22.0
	qrSize      = 72.0
	imageChars  = 50 // characters of the image reference shown in the table
)

// listColumn is one table column, width in points
type listColumn struct {
	title string
	width float64
	value func(c card.Card) string
}

var listColumns = []listColumn{
	{"Card Name", 1.5 * layout.PointsPerInch, func(c card.Card) string { return c.Name }},
	{"Type", 1.0 * layout.PointsPerInch, func(c card.Card) string { return c.Type }},
	{"Cost", 0.6 * layout.PointsPerInch, func(c card.Card) string { return strconv.Itoa(c.Cost) }},
	{"Power", 0.6 * layout.PointsPerInch, func(c card.Card) string { return strconv.Itoa(c.Power) }},
	{"Toughness", 0.8 * layout.PointsPerInch, func(c card.Card) string { return strconv.Itoa(c.Toughness) }},
	{"Quantity", 0.6 * layout.PointsPerInch, func(c card.Card) string { return strconv.Itoa(c.Quantity) }},
	{"Image URL", 1.2 * layout.PointsPerInch, func(c card.Card) string { return imagefetch.Truncate(c.ImageURL, imageChars) }},
}

// WriteDeckList writes a table of the deck's cards with totals to path.
func WriteDeckList(d *deck.Deck, path string, opts DeckListOptions) error {
	if opts.Page.Width <= 0 || opts.Page.Height <= 0 {
		opts.Page = layout.Letter
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: opts.Page.Width, Ht: opts.Page.Height},
	})
	pdf.SetMargins(listMargin, listMargin, listMargin)
	pdf.SetAutoPageBreak(false, listMargin)
	pdf.SetCreator(creator, true)
	pdf.SetTitle(d.Name+" - Deck List", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	tableW := 0.0
	for _, col := range listColumns {
		tableW += col.width
	}
	left := (opts.Page.Width - tableW) / 2
	if left < listMargin {
		left = listMargin
	}

	pdf.AddPage()

	// Title
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(0x1f, 0x47, 0x88)
	pdf.CellFormat(0, 36, tr(d.Name+" - Deck List"), "", 1, "C", false, 0, "")

	// Statistics
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	stats := fmt.Sprintf("Total Cards: %d | Unique Cards: %d", d.TotalQuantity(), d.Unique())
	pdf.CellFormat(0, 20, stats, "", 1, "C", false, 0, "")

	if opts.SourceURL != "" {
		if err := drawQR(pdf, opts.SourceURL, (opts.Page.Width-qrSize)/2, pdf.GetY()+4); err != nil {
			return fmt.Errorf("error generating QR code: %w", err)
		}
		pdf.SetY(pdf.GetY() + qrSize + 8)
	}
	pdf.Ln(10)

	drawListHeader(pdf, left)
	pdf.SetFont("Helvetica", "", 8)
	bottom := opts.Page.Height - listMargin
	for i, c := range d.Cards {
		if pdf.GetY()+listRowH > bottom {
			pdf.AddPage()
			drawListHeader(pdf, left)
			pdf.SetFont("Helvetica", "", 8)
		}

		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(211, 211, 211)
		}
		pdf.SetX(left)
		for _, col := range listColumns {
			text := tr(fit(pdf, col.value(c), col.width-4))
			pdf.CellFormat(col.width, listRowH, text, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("error building deck list: %w", err)
	}
	return writeFile(pdf, path)
}

func drawListHeader(pdf *fpdf.Fpdf, left float64) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(0x1f, 0x47, 0x88)
	pdf.SetTextColor(245, 245, 245)
	pdf.SetX(left)
	for _, col := range listColumns {
		pdf.CellFormat(col.width, listHeaderH, fit(pdf, col.title, col.width-4), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
}

// drawQR places a QR code for text with its top-left corner at x, y.
func drawQR(pdf *fpdf.Fpdf, text string, x, y float64) error {
	png, err := qrcode.Encode(text, qrcode.Medium, 256)
	if err != nil {
		return err
	}
	pdf.RegisterImageOptionsReader("source-qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions("source-qr", x, y, qrSize, qrSize, false, fpdf.ImageOptions{}, 0, "")
	return pdf.Error()
}

// fit trims s until it is at most w points wide in the current font.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
