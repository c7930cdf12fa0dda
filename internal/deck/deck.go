package deck

import (
	"errors"
	"fmt"

	"github.com/arcanaland/proxier/internal/card"
)

// DefaultName is used when the source carries no deck name
const DefaultName = "Deck"

// MaxCopies bounds the physical copies one deck may print
const MaxCopies = 10000

var (
	// ErrMalformed is returned when the source is not valid JSON.
	ErrMalformed = errors.New("malformed deck JSON")

	// ErrNoCards signals a deck with zero total copies. It is an outcome,
	// not a failure: callers report it and produce no document.
	ErrNoCards = errors.New("no cards found")

	// ErrTooManyCopies is returned when a deck asks for more than MaxCopies.
	ErrTooManyCopies = errors.New("too many copies")
)

// Deck represents a uniform, ordered deck list
type Deck struct {
	Name  string      `json:"deck_name" yaml:"deck_name"`
	Cards []card.Card `json:"cards" yaml:"cards"`

	// Shape records which input layout the deck was normalized from
	Shape Shape `json:"-" yaml:"-"`
}

// New creates an empty deck with the given name
func New(name string) *Deck {
	if name == "" {
		name = DefaultName
	}
	return &Deck{Name: name, Cards: []card.Card{}}
}

// Add appends a card without merging
func (d *Deck) Add(c card.Card) {
	if c.Quantity < 0 {
		c.Quantity = 0
	}
	if c.Type == "" {
		c.Type = card.DefaultType
	}
	d.Cards = append(d.Cards, c)
}

// AddOrIncrement merges c into an existing entry with exactly the same name,
// accumulating quantity, or appends it when no such entry exists.
func (d *Deck) AddOrIncrement(c card.Card) {
	if i := d.index(c.Name); i >= 0 {
		if c.Quantity > 0 {
			d.Cards[i].Quantity += c.Quantity
		}
		return
	}
	d.Add(c)
}

// Find returns the first entry named name
func (d *Deck) Find(name string) (card.Card, bool) {
	if i := d.index(name); i >= 0 {
		return d.Cards[i], true
	}
	return card.Card{}, false
}

func (d *Deck) index(name string) int {
	for i := range d.Cards {
		if d.Cards[i].Name == name {
			return i
		}
	}
	return -1
}

// TotalQuantity returns the number of physical copies in the deck
func (d *Deck) TotalQuantity() int {
	total := 0
	for _, c := range d.Cards {
		total += c.Quantity
	}
	return total
}

// Unique returns the number of entries in the deck
func (d *Deck) Unique() int {
	return len(d.Cards)
}

// CheckNotEmpty returns ErrNoCards when the deck has nothing to print
func (d *Deck) CheckNotEmpty() error {
	if d == nil || d.TotalQuantity() == 0 {
		return ErrNoCards
	}
	return nil
}

// CheckCopyLimit returns ErrTooManyCopies when the deck would print more
// than MaxCopies copies. The running total stops at the first entry past the
// limit so huge quantities cannot overflow it.
func (d *Deck) CheckCopyLimit() error {
	if d == nil {
		return nil
	}
	total := 0
	for _, c := range d.Cards {
		if c.Quantity <= 0 {
			continue
		}
		if c.Quantity > MaxCopies || total+c.Quantity > MaxCopies {
			return fmt.Errorf("%w: %q asks for %d copies, at most %d can be printed",
				ErrTooManyCopies, c.Name, c.Quantity, MaxCopies)
		}
		total += c.Quantity
	}
	return nil
}
