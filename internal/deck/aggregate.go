package deck

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/arcanaland/proxier/internal/card"
)

// mainSubDeck is the only sub-deck whose names are left untagged
const mainSubDeck = "main"

// preferredSubDecks are read before any other sub-deck, in this order
var preferredSubDecks = []string{mainSubDeck, "material", "sideboard"}

// Field fallbacks for third-party card records, tried in order
var (
	nameKeys     = []string{"name", "title", "card_name"}
	quantityKeys = []string{"quantity", "qty"}
	imageKeys    = []string{"image", "image_url", "img", "FaceURL", "face"}
	abilityKeys  = []string{"ability", "text", "description"}
	deckNameKeys = []string{"deck_name", "name", "title"}
)

// unknownRecord names records that resolve no name at all
const unknownRecord = "Unknown"

type subDeck struct {
	name  string
	value gjson.Result
}

// parseAggregate reads a decklist whose cards value maps sub-deck names to
// lists or mappings of card records.
func parseAggregate(root gjson.Result) *Deck {
	d := New(firstString(root, deckNameKeys...))

	var subs []subDeck
	root.Get("cards").ForEach(func(key, value gjson.Result) bool {
		subs = append(subs, subDeck{name: key.String(), value: value})
		return true
	})

	seen := make(map[string]bool, len(preferredSubDecks))
	for _, pref := range preferredSubDecks {
		seen[pref] = true
		for _, s := range subs {
			if s.name == pref && !isEmptyContainer(s.value) {
				addSubDeck(d, s.name, s.value)
				break
			}
		}
	}
	for _, s := range subs {
		if !seen[s.name] {
			addSubDeck(d, s.name, s.value)
		}
	}

	return d
}

// parseFallback treats the root itself as the main sub-deck.
func parseFallback(root gjson.Result) *Deck {
	name := ""
	if root.IsObject() {
		name = firstString(root, deckNameKeys...)
	}
	d := New(name)
	addSubDeck(d, mainSubDeck, root)
	return d
}

// addSubDeck merges every record of one sub-deck into d. List elements are
// records; for mappings the key supplies the name when the record has none.
func addSubDeck(d *Deck, subName string, value gjson.Result) {
	switch {
	case value.IsArray():
		value.ForEach(func(_, rec gjson.Result) bool {
			if rec.IsObject() {
				d.AddOrIncrement(resolveRecord(subName, "", rec))
			}
			return true
		})
	case value.IsObject():
		value.ForEach(func(key, rec gjson.Result) bool {
			if rec.IsObject() {
				d.AddOrIncrement(resolveRecord(subName, key.String(), rec))
			}
			return true
		})
	}
}

// resolveRecord turns one third-party record into a card, tagging names
// from sub-decks other than main.
func resolveRecord(subName, key string, rec gjson.Result) card.Card {
	name := firstString(rec, nameKeys...)
	if name == "" {
		name = key
	}
	if name == "" {
		name = unknownRecord
	}
	if subName != mainSubDeck {
		name = fmt.Sprintf("[%s] %s", subName, name)
	}

	c := card.New(name)
	c.Quantity = resolveQuantity(rec)
	c.ImageURL = firstString(rec, imageKeys...)
	c.Ability = firstString(rec, abilityKeys...)
	if t := firstString(rec, "type"); t != "" {
		c.Type = t
	}
	c.Cost = int(rec.Get("cost").Int())
	c.Power = int(rec.Get("power").Int())
	c.Toughness = int(rec.Get("toughness").Int())
	return c
}

// resolveQuantity coerces the first truthy quantity field to an integer.
// Missing, null, zero or non-numeric values yield a single copy; negative
// values clamp to 0 as they do for every other shape.
func resolveQuantity(rec gjson.Result) int {
	for _, key := range quantityKeys {
		v := rec.Get(key)
		if !truthy(v) {
			continue
		}
		switch n := int(v.Int()); {
		case n > 0:
			return n
		case n < 0:
			return 0
		}
		return 1
	}
	return 1
}

// firstString returns the first non-empty scalar among keys.
func firstString(rec gjson.Result, keys ...string) string {
	for _, key := range keys {
		v := rec.Get(key)
		if v.Type == gjson.String || v.Type == gjson.Number {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return v.Num != 0
	case gjson.String:
		return v.Str != ""
	}
	return v.Exists()
}

func isEmptyContainer(v gjson.Result) bool {
	switch {
	case v.IsArray():
		return len(v.Array()) == 0
	case v.IsObject():
		return len(v.Map()) == 0
	}
	return true
}
