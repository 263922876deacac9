// Package catalog reads card and deck lists from CSV exports.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thraizz/commander-table/internal/game"
)

// Record is one parsed CSV row. Rows that name a deck also contribute a deck
// list entry for that card.
type Record struct {
	Card      game.Card
	Deck      string
	Quantity  int
	Commander bool
}

// DeckList is a deck assembled from records; entries refer to records by
// index until the cards have ids.
type DeckList struct {
	Name       string
	Entries    []DeckEntry
	Commanders []int
}

// DeckEntry is one line of a DeckList.
type DeckEntry struct {
	Record   int
	Quantity int
}

// Catalog is the result of parsing an export.
type Catalog struct {
	Records []Record
	Decks   []DeckList
}

var requiredColumns = []string{"name"}

// Parse reads a CSV export with a header row. Recognized columns are name,
// mana_cost, type_line (or types, subtypes and supertypes), oracle_text (or
// rules), image_url, is_token, deck, quantity and commander. Unknown columns
// are ignored. Rows with an empty name are skipped and reported in the
// returned warnings.
func Parse(r io.Reader) (*Catalog, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("catalog is empty")
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", name)
		}
	}

	cat := &Catalog{}
	decks := make(map[string]int)
	var warnings []string
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		rec := Record{
			Card: game.Card{
				Name:       get("name"),
				ManaCost:   get("mana_cost"),
				TypeLine:   get("type_line"),
				OracleText: get("oracle_text"),
				ImageURL:   get("image_url"),
				IsToken:    parseBool(get("is_token")),
			},
			Deck:      get("deck"),
			Quantity:  1,
			Commander: parseBool(get("commander")),
		}
		if rec.Card.Name == "" {
			warnings = append(warnings, fmt.Sprintf("line %d: skipped, name is empty", line))
			continue
		}
		if rec.Card.TypeLine == "" {
			rec.Card.TypeLine = BuildTypeLine(get("types"), get("subtypes"), get("supertypes"))
		}
		if rec.Card.OracleText == "" {
			rec.Card.OracleText = get("rules")
		}
		if raw := get("quantity"); raw != "" {
			q, err := strconv.Atoi(raw)
			if err != nil || q < 1 {
				warnings = append(warnings, fmt.Sprintf("line %d: invalid quantity %q, using 1", line, raw))
			} else {
				rec.Quantity = q
			}
		}

		cat.Records = append(cat.Records, rec)
		if rec.Deck == "" {
			continue
		}
		idx, ok := decks[rec.Deck]
		if !ok {
			idx = len(cat.Decks)
			decks[rec.Deck] = idx
			cat.Decks = append(cat.Decks, DeckList{Name: rec.Deck})
		}
		recIdx := len(cat.Records) - 1
		deck := &cat.Decks[idx]
		deck.Entries = append(deck.Entries, DeckEntry{Record: recIdx, Quantity: rec.Quantity})
		if rec.Commander {
			deck.Commanders = append(deck.Commanders, recIdx)
		}
	}
	return cat, warnings, nil
}

// Resolve builds game decks once every record has a card id; ids[i] is the id
// of Records[i].
func (c *Catalog) Resolve(ids []int64) ([]game.Deck, error) {
	if len(ids) != len(c.Records) {
		return nil, fmt.Errorf("expected %d card ids, got %d", len(c.Records), len(ids))
	}
	decks := make([]game.Deck, 0, len(c.Decks))
	for _, list := range c.Decks {
		deck := game.Deck{Name: list.Name}
		for _, entry := range list.Entries {
			deck.Cards = append(deck.Cards, game.DeckCard{CardID: ids[entry.Record], Quantity: entry.Quantity})
		}
		for _, rec := range list.Commanders {
			deck.CommanderIDs = append(deck.CommanderIDs, ids[rec])
		}
		decks = append(decks, deck)
	}
	return decks, nil
}

// BuildTypeLine joins split type columns into "Supertypes Types — Subtypes".
func BuildTypeLine(types, subtypes, supertypes string) string {
	var parts []string
	if supertypes != "" {
		parts = append(parts, supertypes)
	}
	if types != "" {
		parts = append(parts, types)
	}
	result := strings.Join(parts, " ")
	if subtypes != "" {
		result += " — " + subtypes
	}
	return result
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}
