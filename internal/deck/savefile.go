package deck

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/arcanaland/proxier/internal/card"
)

// unknownCard names contained objects that carry no nickname
const unknownCard = "Unknown Card"

// parseSaveFile reads a Tabletop Simulator save. The first object state is
// the deck container; its contained objects are merged by nickname.
func parseSaveFile(root gjson.Result) *Deck {
	states := root.Get("ObjectStates").Array()
	if len(states) == 0 || !states[0].IsObject() {
		return New("")
	}
	container := states[0]

	d := New(container.Get("Nickname").String())

	// Map deck ids to face images
	faces := make(map[string]string)
	container.Get("CustomDeck").ForEach(func(id, info gjson.Result) bool {
		if info.IsObject() {
			faces[id.String()] = info.Get("FaceURL").String()
		}
		return true
	})

	container.Get("ContainedObjects").ForEach(func(_, obj gjson.Result) bool {
		if !obj.IsObject() {
			return true
		}

		name := unknownCard
		if nick := obj.Get("Nickname"); nick.Exists() {
			name = nick.String()
		}

		c := card.New(name)
		c.Ability = obj.Get("Description").String()
		c.ImageURL = faces[deckIDKey(obj.Get("CardID").Int())]

		d.AddOrIncrement(c)
		return true
	})

	return d
}

// deckIDKey returns the CustomDeck key for a card id. Ids encode the deck id
// in all but their last two digits; the convention is not validated.
func deckIDKey(cardID int64) string {
	q := cardID / 100
	if cardID%100 != 0 && cardID < 0 {
		q-- // floor division
	}
	return strconv.FormatInt(q, 10)
}
