package card

// DefaultType is used when a record carries no category.
const DefaultType = "Card"

// Card represents one entry of a uniform deck list
type Card struct {
	Name string `json:"name" yaml:"name"` // Display name, not unique
	Type string `json:"type" yaml:"type"` // Free-text category

	// Gameplay attributes, carried through but never used for layout
	Cost      int    `json:"cost" yaml:"cost"`
	Power     int    `json:"power" yaml:"power"`
	Toughness int    `json:"toughness" yaml:"toughness"`
	Ability   string `json:"ability" yaml:"ability"`

	Quantity int    `json:"quantity" yaml:"quantity"`   // Physical copies to print
	ImageURL string `json:"image_url" yaml:"image_url"` // URL or local path of the face image
}

// New returns a card with the default type and a single copy
func New(name string) Card {
	return Card{Name: name, Type: DefaultType, Quantity: 1}
}

// HasImage reports whether the card has an image reference
func (c Card) HasImage() bool {
	return c.ImageURL != ""
}
