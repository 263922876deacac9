package game

import (
	"context"
	"fmt"
	"strings"
)

// TokenTable is a read-only index of token cards, built once at startup and
// handed to the engine. It is never mutated after construction.
type TokenTable struct {
	byID   map[int64]*Card
	byName map[string]*Card
}

// NewTokenTable indexes cards by id and by case-insensitive name. Non-token
// cards are skipped. When names collide the lowest id wins.
func NewTokenTable(cards []*Card) *TokenTable {
	t := &TokenTable{
		byID:   make(map[int64]*Card, len(cards)),
		byName: make(map[string]*Card, len(cards)),
	}
	for _, card := range cards {
		if card == nil || !card.IsToken {
			continue
		}
		c := *card
		t.byID[c.ID] = &c
		key := normalizeName(c.Name)
		if existing, ok := t.byName[key]; !ok || c.ID < existing.ID {
			t.byName[key] = &c
		}
	}
	return t
}

// LoadTokenTable reads every token card from the store.
func LoadTokenTable(ctx context.Context, store Store) (*TokenTable, error) {
	var cards []*Card
	err := readOnly(ctx, store, func(tx Tx) error {
		var err error
		cards, err = tx.TokenCards(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load token cards: %w", err)
	}
	return NewTokenTable(cards), nil
}

// Lookup returns a copy of the token card with id.
func (t *TokenTable) Lookup(id int64) (Card, bool) {
	card, ok := t.byID[id]
	if !ok {
		return Card{}, false
	}
	return *card, true
}

// LookupName returns a copy of the token card called name.
func (t *TokenTable) LookupName(name string) (Card, bool) {
	card, ok := t.byName[normalizeName(name)]
	if !ok {
		return Card{}, false
	}
	return *card, true
}

// Len returns the number of indexed tokens.
func (t *TokenTable) Len() int {
	return len(t.byID)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
