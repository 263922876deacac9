package game_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thraizz/commander-table/internal/game"
	"github.com/thraizz/commander-table/internal/repository"
	"go.uber.org/zap/zaptest"
)

// libraryPerSeat is the number of non-commander cards each test deck holds.
// After the default opening hand of 7 every library holds 5 cards.
const libraryPerSeat = 12

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type table struct {
	t        *testing.T
	ctx      context.Context
	store    *repository.MemoryStore
	engine   *game.Engine
	session  *game.Session
	decks    []int64
	goblinID int64
}

// newTable seats players at an initialized table. Every deck has one
// commander and libraryPerSeat other cards.
func newTable(t *testing.T, players int, opts ...game.Option) *table {
	t.Helper()
	tb := newEmptyTable(t, players, opts...)
	require.NoError(t, tb.engine.InitializeSession(tb.ctx, tb.session.ID, nil))
	return tb
}

// newEmptyTable creates the session without dealing.
func newEmptyTable(t *testing.T, players int, opts ...game.Option) *table {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryStore(logger)

	goblinID := store.AddCard(game.Card{Name: "Goblin", TypeLine: "Token Creature — Goblin", IsToken: true})
	store.AddCard(game.Card{Name: "Treasure", TypeLine: "Token Artifact — Treasure", IsToken: true})

	var decks []int64
	for seat := 1; seat <= players; seat++ {
		decks = append(decks, addDeck(store, fmt.Sprintf("seat %d", seat)))
	}

	tokens, err := game.LoadTokenTable(ctx, store)
	require.NoError(t, err)

	all := append([]game.Option{
		game.WithRand(game.NewSeededRand(42)),
		game.WithClock(func() time.Time { return testNow }),
		game.WithTokens(tokens),
	}, opts...)
	engine := game.NewEngine(store, logger, all...)

	session, err := engine.CreateSession(ctx, "test table", decks)
	require.NoError(t, err)

	return &table{t: t, ctx: ctx, store: store, engine: engine, session: session, decks: decks, goblinID: goblinID}
}

func addDeck(store *repository.MemoryStore, name string) int64 {
	commander := store.AddCard(game.Card{Name: name + " commander", TypeLine: "Legendary Creature"})
	deck := game.Deck{Name: name, CommanderIDs: []int64{commander}}
	// the commander listed among the cards must still not reach the library
	deck.Cards = append(deck.Cards, game.DeckCard{CardID: commander, Quantity: 1})
	for i := 0; i < libraryPerSeat-2; i++ {
		id := store.AddCard(game.Card{Name: fmt.Sprintf("%s card %d", name, i)})
		deck.Cards = append(deck.Cards, game.DeckCard{CardID: id, Quantity: 1})
	}
	basic := store.AddCard(game.Card{Name: name + " basic land", TypeLine: "Basic Land"})
	deck.Cards = append(deck.Cards, game.DeckCard{CardID: basic, Quantity: 2})
	return store.AddDeck(deck)
}

func (tb *table) do(seat int, kind string, metadata string) (int64, error) {
	var raw json.RawMessage
	if metadata != "" {
		raw = json.RawMessage(metadata)
	}
	return tb.engine.ExecuteAction(tb.ctx, tb.session.ID, seat, kind, raw)
}

func (tb *table) mustDo(seat int, kind string, metadata string) int64 {
	tb.t.Helper()
	id, err := tb.do(seat, kind, metadata)
	require.NoError(tb.t, err, "%s %s", kind, metadata)
	return id
}

func (tb *table) tx(fn func(tx game.Tx) error) {
	tb.t.Helper()
	require.NoError(tb.t, tb.store.InTx(tb.ctx, fn))
}

func (tb *table) zone(seat int, zone game.Zone) []*game.Object {
	tb.t.Helper()
	var objs []*game.Object
	tb.tx(func(tx game.Tx) error {
		var err error
		objs, err = tx.ZoneObjects(tb.ctx, tb.session.ID, seat, zone)
		return err
	})
	return objs
}

func (tb *table) object(id int64) (*game.Object, error) {
	var obj *game.Object
	err := tb.store.InTx(tb.ctx, func(tx game.Tx) error {
		var err error
		obj, err = tx.Object(tb.ctx, tb.session.ID, id)
		return err
	})
	return obj, err
}

func (tb *table) mustObject(id int64) *game.Object {
	tb.t.Helper()
	obj, err := tb.object(id)
	require.NoError(tb.t, err)
	return obj
}

func (tb *table) state() *game.State {
	tb.t.Helper()
	var st *game.State
	tb.tx(func(tx game.Tx) error {
		var err error
		st, err = tx.State(tb.ctx, tb.session.ID)
		return err
	})
	return st
}

func (tb *table) audit() []*game.AuditEntry {
	tb.t.Helper()
	var rows []*game.AuditEntry
	tb.tx(func(tx game.Tx) error {
		var err error
		rows, err = tx.AuditEntries(tb.ctx, tb.session.ID)
		return err
	})
	return rows
}

func (tb *table) allObjects() []*game.Object {
	tb.t.Helper()
	var objs []*game.Object
	tb.tx(func(tx game.Tx) error {
		var err error
		objs, err = tx.Objects(tb.ctx, tb.session.ID)
		return err
	})
	return objs
}

// onBattlefield puts the top card of seat's hand onto the battlefield.
func (tb *table) onBattlefield(seat int) *game.Object {
	tb.t.Helper()
	hand := tb.zone(seat, game.ZoneHand)
	require.NotEmpty(tb.t, hand)
	tb.mustDo(seat, "move_to_battlefield", fmt.Sprintf(`{"object_id":%d,"position":{"x":5,"y":5}}`, hand[0].ID))
	return tb.mustObject(hand[0].ID)
}

func ids(objs []*game.Object) []int64 {
	out := make([]int64, len(objs))
	for i, obj := range objs {
		out[i] = obj.ID
	}
	return out
}

func kinds(rows []*game.AuditEntry) []game.ActionKind {
	out := make([]game.ActionKind, len(rows))
	for i, row := range rows {
		out[i] = row.Kind
	}
	return out
}
