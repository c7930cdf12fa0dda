// Package layout computes where every physical card copy lands on a
// paginated grid. It does no I/O: a Grid is a pure function of page size,
// margin and cell counts.
package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/arcanaland/proxier/internal/card"
	"github.com/arcanaland/proxier/internal/deck"
)

// PointsPerInch converts inches to PDF points.
const PointsPerInch = 72.0

var (
	// ErrInvalidGrid is returned when a grid cannot hold any card.
	ErrInvalidGrid = errors.New("invalid grid")

	// ErrUnknownPageSize is returned for page size names that are not known.
	ErrUnknownPageSize = errors.New("unknown page size")
)

// PageSize is a page in points
type PageSize struct {
	Name   string
	Width  float64
	Height float64
}

// Named page sizes
var (
	Letter = PageSize{Name: "letter", Width: 612, Height: 792}
	Legal  = PageSize{Name: "legal", Width: 612, Height: 1008}
	A3     = PageSize{Name: "a3", Width: 841.89, Height: 1190.55}
	A4     = PageSize{Name: "a4", Width: 595.28, Height: 841.89}
	A5     = PageSize{Name: "a5", Width: 419.53, Height: 595.28}
)

var pageSizes = map[string]PageSize{
	Letter.Name: Letter,
	Legal.Name:  Legal,
	A3.Name:     A3,
	A4.Name:     A4,
	A5.Name:     A5,
}

// ParsePageSize looks up a named page size, case-insensitively
func ParsePageSize(name string) (PageSize, error) {
	if size, ok := pageSizes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return size, nil
	}
	return PageSize{}, fmt.Errorf("%w: %q (known: letter, legal, a3, a4, a5)", ErrUnknownPageSize, name)
}

// Grid describes how cards are tiled on every page. Margin is in points.
type Grid struct {
	Page           PageSize
	Margin         float64
	CardsPerRow    int
	CardsPerColumn int
}

// DefaultGrid is a 3x3 letter sheet with half-inch margins
func DefaultGrid() Grid {
	return Grid{
		Page:           Letter,
		Margin:         0.5 * PointsPerInch,
		CardsPerRow:    3,
		CardsPerColumn: 3,
	}
}

// Validate checks that the grid leaves room for at least one cell
func (g Grid) Validate() error {
	if g.CardsPerRow <= 0 || g.CardsPerColumn <= 0 {
		return fmt.Errorf("%w: cards per row and column must be positive (got %dx%d)",
			ErrInvalidGrid, g.CardsPerRow, g.CardsPerColumn)
	}
	if g.Page.Width <= 0 || g.Page.Height <= 0 {
		return fmt.Errorf("%w: page size must be positive", ErrInvalidGrid)
	}
	if g.Margin < 0 {
		return fmt.Errorf("%w: margin must not be negative", ErrInvalidGrid)
	}
	if 2*g.Margin >= g.Page.Width || 2*g.Margin >= g.Page.Height {
		return fmt.Errorf("%w: margin %.1fpt leaves no printable area", ErrInvalidGrid, g.Margin)
	}
	return nil
}

// Capacity is the number of cells on one page
func (g Grid) Capacity() int {
	return g.CardsPerRow * g.CardsPerColumn
}

// CellWidth is (page width - 2 margins) / cards per row
func (g Grid) CellWidth() float64 {
	return (g.Page.Width - 2*g.Margin) / float64(g.CardsPerRow)
}

// CellHeight is (page height - 2 margins) / cards per column
func (g Grid) CellHeight() float64 {
	return (g.Page.Height - 2*g.Margin) / float64(g.CardsPerColumn)
}

// Origin returns the bottom-left corner of a cell, with the page origin at
// the bottom-left as in PDF user space.
func (g Grid) Origin(row, col int) (x, y float64) {
	x = g.Margin + float64(col)*g.CellWidth()
	y = g.Page.Height - g.Margin - float64(row+1)*g.CellHeight()
	return x, y
}

// TopLeft returns the top-left corner of a cell measured from the top of
// the page, the convention of the PDF writer.
func (g Grid) TopLeft(row, col int) (x, y float64) {
	x, bottom := g.Origin(row, col)
	return x, g.Page.Height - bottom - g.CellHeight()
}

// PageCount returns ceil(copies / capacity); zero copies need zero pages
func (g Grid) PageCount(copies int) int {
	if copies <= 0 || g.Capacity() <= 0 {
		return 0
	}
	return int(math.Ceil(float64(copies) / float64(g.Capacity())))
}

// Placement is one physical card copy in one cell
type Placement struct {
	Page  int // zero-based page number
	Index int // zero-based cell index on the page, row-major
	Row   int
	Col   int

	// Bottom-left origin and size of the cell, in points
	X, Y          float64
	Width, Height float64

	Card card.Card
}

// Page holds the placements of one sheet
type Page struct {
	Number     int
	Placements []Placement
}

// Paginate lays out every copy of every card, in deck order, left to right
// and top to bottom. A new page starts whenever the current one is full.
// Decks past deck.MaxCopies are rejected before anything is allocated.
func Paginate(d *deck.Deck, g Grid) ([]Page, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := d.CheckCopyLimit(); err != nil {
		return nil, err
	}

	pages := make([]Page, 0, g.PageCount(d.TotalQuantity()))
	capacity := g.Capacity()
	cw, ch := g.CellWidth(), g.CellHeight()

	slot := 0
	for _, c := range d.Cards {
		for i := 0; i < c.Quantity; i++ {
			pageNum, index := slot/capacity, slot%capacity
			if index == 0 {
				pages = append(pages, Page{Number: pageNum})
			}

			row, col := index/g.CardsPerRow, index%g.CardsPerRow
			x, y := g.Origin(row, col)
			pages[pageNum].Placements = append(pages[pageNum].Placements, Placement{
				Page:   pageNum,
				Index:  index,
				Row:    row,
				Col:    col,
				X:      x,
				Y:      y,
				Width:  cw,
				Height: ch,
				Card:   c,
			})
			slot++
		}
	}

	return pages, nil
}
