package deck

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Shape identifies the layout of a deck source
type Shape int

const (
	// ShapeFallback treats the root as a bare list or mapping of card records.
	ShapeFallback Shape = iota
	// ShapeSaveFile is a Tabletop Simulator save with an ObjectStates list.
	ShapeSaveFile
	// ShapeExport is the uniform {deck_name, cards: [...]} export.
	ShapeExport
	// ShapeAggregate is a third-party {cards: {subdeck: records}} decklist.
	ShapeAggregate
)

func (s Shape) String() string {
	switch s {
	case ShapeSaveFile:
		return "save-file"
	case ShapeExport:
		return "export"
	case ShapeAggregate:
		return "aggregate"
	default:
		return "fallback"
	}
}

// shapeRule pairs a structural predicate with the parser for that shape.
type shapeRule struct {
	shape Shape
	match func(root gjson.Result) bool
	parse func(root gjson.Result) *Deck
}

// shapeRules are evaluated in order; the first match wins.
var shapeRules = []shapeRule{
	{
		shape: ShapeSaveFile,
		match: func(root gjson.Result) bool {
			return root.IsObject() && root.Get("ObjectStates").IsArray()
		},
		parse: parseSaveFile,
	},
	{
		shape: ShapeExport,
		match: func(root gjson.Result) bool {
			return root.IsObject() && root.Get("cards").IsArray()
		},
		parse: parseExport,
	},
	{
		shape: ShapeAggregate,
		match: func(root gjson.Result) bool {
			return root.IsObject() && root.Get("cards").IsObject()
		},
		parse: parseAggregate,
	},
	{
		shape: ShapeFallback,
		match: func(gjson.Result) bool { return true },
		parse: parseFallback,
	},
}

// DetectShape returns the shape of a parsed JSON root
func DetectShape(root gjson.Result) Shape {
	return matchRule(root).shape
}

// matchRule returns the first rule whose predicate accepts root
func matchRule(root gjson.Result) shapeRule {
	for _, rule := range shapeRules {
		if rule.match(root) {
			return rule
		}
	}
	return shapeRules[len(shapeRules)-1]
}

// Normalize parses raw JSON of any supported shape into a uniform deck.
// Malformed JSON aborts with ErrMalformed and no partial deck.
func Normalize(data []byte) (*Deck, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: input is not valid JSON", ErrMalformed)
	}

	root := gjson.ParseBytes(data)
	rule := matchRule(root)
	d := rule.parse(root)
	d.Shape = rule.shape
	return d, nil
}
