package validator

import (
	"fmt"
	"os"
	"strings"

	"github.com/arcanaland/proxier/internal/deck"
	"github.com/arcanaland/proxier/internal/imagefetch"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found
func (r ValidationResults) Valid() bool {
	return len(r.Errors) == 0
}

type Validator struct {
	Deck    *deck.Deck
	Results ValidationResults
}

func NewValidator(d *deck.Deck) *Validator {
	return &Validator{
		Deck:    d,
		Results: ValidationResults{},
	}
}

func (v *Validator) Validate() ValidationResults {
	if v.Deck == nil || len(v.Deck.Cards) == 0 {
		v.Results.Errors = append(v.Results.Errors, "deck has no cards")
		return v.Results
	}

	v.validateQuantities()
	v.validateImages()
	v.validateNames()

	return v.Results
}

// validateQuantities checks copy counts and that something will be printed
func (v *Validator) validateQuantities() {
	for i, c := range v.Deck.Cards {
		switch {
		case c.Quantity < 0:
			v.Results.Errors = append(v.Results.Errors,
				fmt.Sprintf("card %d (%s) has a negative quantity: %d", i+1, c.Name, c.Quantity))
		case c.Quantity == 0:
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("card %d (%s) has quantity 0 and will not be printed", i+1, c.Name))
		}
	}

	if v.Deck.TotalQuantity() == 0 {
		v.Results.Errors = append(v.Results.Errors, "deck has no copies to print")
	}
	if err := v.Deck.CheckCopyLimit(); err != nil {
		v.Results.Errors = append(v.Results.Errors, err.Error())
	}
}

// validateImages flags cards that will render as blank cells
func (v *Validator) validateImages() {
	for i, c := range v.Deck.Cards {
		if !c.HasImage() {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("card %d (%s) has no image and will print blank", i+1, c.Name))
			continue
		}

		ref := strings.TrimSpace(c.ImageURL)
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
			continue
		}

		path := strings.TrimPrefix(ref, "file://")
		if _, err := os.Stat(path); err != nil {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("card %d (%s) has an image that is neither a URL nor an existing file: %s",
					i+1, c.Name, imagefetch.Truncate(ref, 60)))
		}
	}
}

// validateNames reports names that appear on more than one entry
func (v *Validator) validateNames() {
	seen := make(map[string]int)
	var order []string
	for _, c := range v.Deck.Cards {
		if seen[c.Name] == 0 {
			order = append(order, c.Name)
		}
		seen[c.Name]++
	}

	for _, name := range order {
		if seen[name] > 1 {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("card name %q appears in %d entries", name, seen[name]))
		}
	}
}
