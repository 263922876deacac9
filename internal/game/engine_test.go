package game_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thraizz/commander-table/internal/game"
)

func TestScryArrangesTopAndBottom(t *testing.T) {
	tb := newTable(t, 2)
	library := ids(tb.zone(1, game.ZoneLibrary))
	require.Len(t, library, 5)
	a, b, c, d, e := library[0], library[1], library[2], library[3], library[4]

	tb.mustDo(1, "scry", fmt.Sprintf(`{"count":5,"top":[%d,%d],"bottom":[%d]}`, c, a, e))

	assert.Equal(t, []int64{c, a, b, d, e}, ids(tb.zone(1, game.ZoneLibrary)))
}

func TestScryWithoutArrangementIsNoOp(t *testing.T) {
	tb := newTable(t, 1)
	before := ids(tb.zone(1, game.ZoneLibrary))

	tb.mustDo(1, "scry", `{"count":3}`)

	assert.Equal(t, before, ids(tb.zone(1, game.ZoneLibrary)))
	assert.Len(t, tb.audit(), 1)
}

func TestScryRejectsCardsBeyondCount(t *testing.T) {
	tb := newTable(t, 1)
	library := ids(tb.zone(1, game.ZoneLibrary))

	_, err := tb.do(1, "scry", fmt.Sprintf(`{"count":2,"top":[%d]}`, library[3]))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)

	_, err = tb.do(1, "scry", fmt.Sprintf(`{"top":[%d],"bottom":[%d]}`, library[0], library[0]))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)

	hand := tb.zone(1, game.ZoneHand)
	_, err = tb.do(1, "scry", fmt.Sprintf(`{"top":[%d]}`, hand[0].ID))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)

	assert.Equal(t, library, ids(tb.zone(1, game.ZoneLibrary)))
	assert.Empty(t, tb.audit())
}

func TestSurveilBinsAndReorders(t *testing.T) {
	tb := newTable(t, 1)
	library := ids(tb.zone(1, game.ZoneLibrary))
	a, b, c := library[0], library[1], library[2]

	tb.mustDo(1, "surveil", fmt.Sprintf(`{"count":3,"top":[%d],"graveyard":[%d]}`, b, a))

	after := ids(tb.zone(1, game.ZoneLibrary))
	assert.Equal(t, []int64{b, c, library[3], library[4]}, after)
	graveyard := ids(tb.zone(1, game.ZoneGraveyard))
	assert.Equal(t, []int64{a}, graveyard)
}

func TestCounterRemovedAtZero(t *testing.T) {
	tb := newTable(t, 1)
	obj := tb.onBattlefield(1)

	tb.mustDo(1, "add_counter", fmt.Sprintf(`{"object_id":%d,"counter_type":"charge"}`, obj.ID))
	assert.Equal(t, 1, tb.mustObject(obj.ID).Counters["charge"])

	tb.mustDo(1, "remove_counter", fmt.Sprintf(`{"object_id":%d,"counter_type":"charge"}`, obj.ID))
	got := tb.mustObject(obj.ID)
	_, present := got.Counters["charge"]
	assert.False(t, present)

	// removing past zero clamps instead of going negative
	tb.mustDo(1, "add_counter", fmt.Sprintf(`{"object_id":%d,"counter_type":"+1/+1","amount":2}`, obj.ID))
	tb.mustDo(1, "remove_counter", fmt.Sprintf(`{"object_id":%d,"counter_type":"+1/+1","amount":5}`, obj.ID))
	assert.Empty(t, tb.mustObject(obj.ID).Counters)

	_, err := tb.do(1, "add_counter", fmt.Sprintf(`{"object_id":%d}`, obj.ID))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
	_, err = tb.do(1, "add_counter", fmt.Sprintf(`{"object_id":%d,"counter_type":"charge","amount":0}`, obj.ID))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestCreateTokenCopiesOffsetsPositions(t *testing.T) {
	tb := newTable(t, 1)

	tb.mustDo(1, "create_token_copy", fmt.Sprintf(`{"token_card_id":%d,"quantity":3,"position":{"x":10,"y":10}}`, tb.goblinID))

	tokens := tb.zone(1, game.ZoneBattlefield)
	require.Len(t, tokens, 3)
	for i, token := range tokens {
		assert.True(t, token.IsToken)
		assert.Equal(t, tb.goblinID, token.CardID)
		require.NotNil(t, token.Position)
		if i > 0 {
			assert.Greater(t, token.Position.X, tokens[i-1].Position.X)
			assert.Greater(t, token.Position.Y, tokens[i-1].Position.Y)
		}
	}
	assert.Equal(t, game.Position{X: 10, Y: 10}, *tokens[0].Position)

	tb.mustDo(1, "move_to_graveyard", fmt.Sprintf(`{"object_id":%d}`, tokens[1].ID))
	_, err := tb.object(tokens[1].ID)
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.Empty(t, tb.zone(1, game.ZoneGraveyard))

	tb.mustDo(1, "move_to_hand", fmt.Sprintf(`{"object_id":%d}`, tokens[2].ID))
	_, err = tb.object(tokens[2].ID)
	assert.ErrorIs(t, err, game.ErrNotFound)

	// exile is a real zone change for tokens
	tb.mustDo(1, "move_to_exile", fmt.Sprintf(`{"object_id":%d}`, tokens[0].ID))
	exiled := tb.mustObject(tokens[0].ID)
	assert.Equal(t, game.ZoneExile, exiled.Zone)
	assert.Nil(t, exiled.Position)
}

func TestCreateTokenCopyResolution(t *testing.T) {
	tb := newTable(t, 2)
	source := tb.onBattlefield(2)

	tb.mustDo(1, "create_token_copy", fmt.Sprintf(`{"source_object_id":%d}`, source.ID))
	mine := tb.zone(1, game.ZoneBattlefield)
	require.Len(t, mine, 1)
	assert.Equal(t, source.CardID, mine[0].CardID)
	assert.Equal(t, game.Position{X: 100, Y: 100}, *mine[0].Position)

	tb.mustDo(1, "create_token_copy", `{"token_name":"  goblin "}`)
	assert.Len(t, tb.zone(1, game.ZoneBattlefield), 2)

	hand := tb.zone(2, game.ZoneHand)
	_, err := tb.do(1, "create_token_copy", fmt.Sprintf(`{"source_object_id":%d}`, hand[0].ID))
	assert.ErrorIs(t, err, game.ErrInvalidState)

	_, err = tb.do(1, "create_token_copy", `{"token_name":"Dragon"}`)
	assert.ErrorIs(t, err, game.ErrNotFound)

	_, err = tb.do(1, "create_token_copy", `{"token_card_id":999999}`)
	assert.ErrorIs(t, err, game.ErrNotFound)

	_, err = tb.do(1, "create_token_copy", `{}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)

	_, err = tb.do(1, "create_token_copy", fmt.Sprintf(`{"token_card_id":%d,"quantity":0}`, tb.goblinID))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestRemoveTokenRequiresToken(t *testing.T) {
	tb := newTable(t, 1)
	card := tb.onBattlefield(1)
	auditBefore := len(tb.audit())

	_, err := tb.do(1, "remove_token", fmt.Sprintf(`{"object_id":%d}`, card.ID))
	assert.ErrorIs(t, err, game.ErrInvalidState)
	_, err = tb.do(1, "remove_token", `{"object_id":424242}`)
	assert.ErrorIs(t, err, game.ErrNotFound)
	assert.Len(t, tb.audit(), auditBefore)

	tb.mustDo(1, "create_token_copy", fmt.Sprintf(`{"token_card_id":%d}`, tb.goblinID))
	var token *game.Object
	for _, obj := range tb.zone(1, game.ZoneBattlefield) {
		if obj.IsToken {
			token = obj
		}
	}
	require.NotNil(t, token)
	tb.mustDo(1, "remove_token", fmt.Sprintf(`{"object_id":%d}`, token.ID))
	_, err = tb.object(token.ID)
	assert.ErrorIs(t, err, game.ErrNotFound)
}

func TestEndTurnCascade(t *testing.T) {
	tb := newTable(t, 3)
	tapped := tb.onBattlefield(2)
	tb.mustDo(2, "tap", fmt.Sprintf(`{"object_id":%d}`, tapped.ID))

	// move to seat 1 on turn 3 without cascading
	tb.tx(func(tx game.Tx) error {
		if _, err := tx.AdvanceTurn(tb.ctx, tb.session.ID, 1, 1); err != nil {
			return err
		}
		_, err := tx.AdvanceTurn(tb.ctx, tb.session.ID, 2, 1)
		return err
	})
	require.Equal(t, 3, tb.state().TurnNumber)

	handBefore := len(tb.zone(2, game.ZoneHand))
	auditBefore := len(tb.audit())

	rootID := tb.mustDo(1, "end_turn", "")

	st := tb.state()
	assert.Equal(t, 2, st.ActiveSeat)
	assert.Equal(t, 4, st.TurnNumber)
	for _, obj := range tb.zone(2, game.ZoneBattlefield) {
		assert.False(t, obj.IsTapped)
	}
	assert.Len(t, tb.zone(2, game.ZoneHand), handBefore+1)

	rows := tb.audit()[auditBefore:]
	require.Len(t, rows, 3)
	assert.Equal(t, []game.ActionKind{game.ActionEndTurn, game.ActionUntapAll, game.ActionDraw}, kinds(rows))
	assert.Equal(t, rootID, rows[0].ID)
	assert.Equal(t, 1, rows[0].Seat)
	assert.Equal(t, 2, rows[1].Seat)
	assert.Equal(t, 2, rows[2].Seat)
	assert.NotEmpty(t, rows[0].TransactionID)
	assert.Equal(t, rows[0].TransactionID, rows[1].TransactionID)
	assert.Equal(t, rows[0].TransactionID, rows[2].TransactionID)
	assert.JSONEq(t, `{"count":1}`, string(rows[2].Metadata))
}

func TestEndTurnWrapsAround(t *testing.T) {
	tb := newTable(t, 2)
	tb.mustDo(1, "end_turn", "")
	tb.mustDo(2, "end_turn", "")

	st := tb.state()
	assert.Equal(t, 1, st.ActiveSeat)
	assert.Equal(t, 3, st.TurnNumber)
}

func TestDrawMoreThanLibrary(t *testing.T) {
	tb := newTable(t, 1)
	library := tb.zone(1, game.ZoneLibrary)
	handBefore := len(tb.zone(1, game.ZoneHand))

	tb.mustDo(1, "draw", `{"count":50}`)

	assert.Empty(t, tb.zone(1, game.ZoneLibrary))
	assert.Len(t, tb.zone(1, game.ZoneHand), handBefore+len(library))

	// an empty library still draws without error
	tb.mustDo(1, "draw", "")
	assert.Len(t, tb.zone(1, game.ZoneHand), handBefore+len(library))
}

func TestMillAndExileFromTop(t *testing.T) {
	tb := newTable(t, 2)
	library := ids(tb.zone(2, game.ZoneLibrary))

	tb.mustDo(1, "mill", `{"count":2,"target_seat":2}`)
	assert.ElementsMatch(t, library[:2], ids(tb.zone(2, game.ZoneGraveyard)))

	tb.mustDo(2, "exile_from_top", "")
	assert.Equal(t, library[2:3], ids(tb.zone(2, game.ZoneExile)))
	assert.Equal(t, library[3:], ids(tb.zone(2, game.ZoneLibrary)))

	_, err := tb.do(1, "mill", `{"count":-1}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
	_, err = tb.do(1, "mill", `{"target_seat":3}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestTapUntapToggle(t *testing.T) {
	tb := newTable(t, 1)
	obj := tb.onBattlefield(1)
	md := fmt.Sprintf(`{"object_id":%d}`, obj.ID)

	tb.mustDo(1, "tap", md)
	assert.True(t, tb.mustObject(obj.ID).IsTapped)
	tb.mustDo(1, "tap", md)
	assert.True(t, tb.mustObject(obj.ID).IsTapped)
	tb.mustDo(1, "toggle_tap", md)
	assert.False(t, tb.mustObject(obj.ID).IsTapped)
	tb.mustDo(1, "toggle_tap", md)
	tb.mustDo(1, "untap", md)
	assert.False(t, tb.mustObject(obj.ID).IsTapped)

	_, err := tb.do(1, "tap", "")
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestCastPlacesOnBattlefield(t *testing.T) {
	tb := newTable(t, 1)
	commander := tb.zone(1, game.ZoneCommand)[0]

	tb.mustDo(1, "cast", fmt.Sprintf(`{"object_id":%d}`, commander.ID))
	got := tb.mustObject(commander.ID)
	assert.Equal(t, game.ZoneBattlefield, got.Zone)
	assert.Equal(t, game.Position{X: 100, Y: 100}, *got.Position)

	hand := tb.zone(1, game.ZoneHand)
	tb.mustDo(1, "cast", fmt.Sprintf(`{"object_id":%d,"position":{"x":1,"y":2}}`, hand[0].ID))
	assert.Equal(t, game.Position{X: 1, Y: 2}, *tb.mustObject(hand[0].ID).Position)

	library := tb.zone(1, game.ZoneLibrary)
	_, err := tb.do(1, "cast", fmt.Sprintf(`{"object_id":%d}`, library[0].ID))
	assert.ErrorIs(t, err, game.ErrInvalidState)
}

func TestMoveToLibraryTopAndBottom(t *testing.T) {
	tb := newTable(t, 1)
	hand := tb.zone(1, game.ZoneHand)
	before := ids(tb.zone(1, game.ZoneLibrary))

	tb.mustDo(1, "move_to_library", fmt.Sprintf(`{"object_id":%d}`, hand[0].ID))
	tb.mustDo(1, "move_to_library", fmt.Sprintf(`{"object_id":%d,"library_position":"bottom"}`, hand[1].ID))

	after := ids(tb.zone(1, game.ZoneLibrary))
	want := append([]int64{hand[0].ID}, before...)
	want = append(want, hand[1].ID)
	assert.Equal(t, want, after)

	_, err := tb.do(1, "move_to_library", fmt.Sprintf(`{"object_id":%d,"library_position":"middle"}`, hand[2].ID))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestShuffleLibraryKeepsCards(t *testing.T) {
	tb := newTable(t, 1)
	before := ids(tb.zone(1, game.ZoneLibrary))

	tb.mustDo(1, "shuffle_library", "")

	after := tb.zone(1, game.ZoneLibrary)
	assert.ElementsMatch(t, before, ids(after))
	for i, obj := range after {
		assert.Equal(t, i, obj.Order)
	}
}

func TestLifeChangeAndCommanderDamage(t *testing.T) {
	tb := newTable(t, 2)

	tb.mustDo(1, "life_change", `{"amount":-3}`)
	tb.mustDo(1, "life_change", `{"amount":-7,"target_seat":2,"commander_seat":1}`)
	tb.mustDo(1, "life_change", `{"amount":-2,"target_seat":2,"commander_seat":1}`)
	tb.mustDo(2, "life_change", `{"amount":4}`)

	st := tb.state()
	assert.Equal(t, 37, st.LifeOf(1))
	assert.Equal(t, 35, st.LifeOf(2))
	assert.Equal(t, 9, st.CommanderDamage[2][1])

	_, err := tb.do(1, "life_change", `{}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
	_, err = tb.do(1, "life_change", `{"amount":-1,"commander_seat":4}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestIndicatorsAreSeatScoped(t *testing.T) {
	tb := newTable(t, 2)

	tb.mustDo(1, "create_indicator", `{"position":{"x":3,"y":4}}`)
	view, err := tb.engine.ProjectedState(tb.ctx, tb.session.ID, 2)
	require.NoError(t, err)
	require.Len(t, view.Indicators, 1)
	ind := view.Indicators[0]
	assert.Equal(t, game.DefaultIndicatorColor, ind.Color)
	assert.Equal(t, 1, ind.Seat)

	_, err = tb.do(2, "move_indicator", fmt.Sprintf(`{"indicator_id":%d,"position":{"x":9,"y":9}}`, ind.ID))
	assert.ErrorIs(t, err, game.ErrNotFound)
	_, err = tb.do(2, "delete_indicator", fmt.Sprintf(`{"indicator_id":%d}`, ind.ID))
	assert.ErrorIs(t, err, game.ErrNotFound)

	tb.mustDo(1, "move_indicator", fmt.Sprintf(`{"indicator_id":%d,"position":{"x":9,"y":9}}`, ind.ID))
	view, err = tb.engine.ProjectedState(tb.ctx, tb.session.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, game.Position{X: 9, Y: 9}, view.Indicators[0].Position)

	tb.mustDo(1, "delete_indicator", fmt.Sprintf(`{"indicator_id":%d}`, ind.ID))
	view, err = tb.engine.ProjectedState(tb.ctx, tb.session.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Indicators)

	_, err = tb.do(1, "create_indicator", `{"color":"blue"}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
}

func TestFailedActionLeavesNoTrace(t *testing.T) {
	tb := newTable(t, 2)
	objectsBefore := tb.allObjects()
	stateBefore := tb.state()

	_, err := tb.do(1, "fireball", `{}`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
	_, err = tb.do(1, "tap", `{"object_id":`)
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
	_, err = tb.do(3, "draw", "")
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)
	_, err = tb.engine.ExecuteAction(tb.ctx, tb.session.ID+100, 1, "draw", nil)
	assert.ErrorIs(t, err, game.ErrNotFound)

	// surveil fails on the second listed id after validating the first
	library := tb.zone(1, game.ZoneLibrary)
	_, err = tb.do(1, "surveil", fmt.Sprintf(`{"graveyard":[%d,%d]}`, library[0].ID, 999999))
	assert.ErrorIs(t, err, game.ErrInvalidMetadata)

	assert.Empty(t, tb.audit())
	assert.Equal(t, objectsBefore, tb.allObjects())
	assert.Equal(t, stateBefore, tb.state())
}

func TestActionOnUninitializedSession(t *testing.T) {
	tb := newEmptyTable(t, 2)

	_, err := tb.do(1, "draw", "")
	assert.ErrorIs(t, err, game.ErrInvalidState)
	assert.Equal(t, game.KindInvalidState, game.KindOf(err))
}

func TestEveryActionKindDispatches(t *testing.T) {
	cases := map[game.ActionKind]func(tb *table) string{
		game.ActionTap:        func(tb *table) string { return objectMD(tb.onBattlefield(1)) },
		game.ActionUntap:      func(tb *table) string { return objectMD(tb.onBattlefield(1)) },
		game.ActionToggleTap:  func(tb *table) string { return objectMD(tb.onBattlefield(1)) },
		game.ActionUntapAll:   func(tb *table) string { return "" },
		game.ActionShuffleLibrary: func(tb *table) string { return "" },
		game.ActionMill:         func(tb *table) string { return `{"count":2}` },
		game.ActionDraw:         func(tb *table) string { return "" },
		game.ActionLifeChange:   func(tb *table) string { return `{"amount":-1}` },
		game.ActionExileFromTop: func(tb *table) string { return `{"count":1}` },
		game.ActionScry: func(tb *table) string {
			return fmt.Sprintf(`{"count":1,"bottom":[%d]}`, tb.zone(1, game.ZoneLibrary)[0].ID)
		},
		game.ActionSurveil: func(tb *table) string {
			return fmt.Sprintf(`{"count":1,"graveyard":[%d]}`, tb.zone(1, game.ZoneLibrary)[0].ID)
		},
		game.ActionMoveToExile:       func(tb *table) string { return objectMD(tb.zone(1, game.ZoneHand)[0]) },
		game.ActionMoveToLibrary:     func(tb *table) string { return objectMD(tb.zone(1, game.ZoneHand)[0]) },
		game.ActionMoveToHand:        func(tb *table) string { return objectMD(tb.onBattlefield(1)) },
		game.ActionMoveToBattlefield: func(tb *table) string { return objectMD(tb.zone(1, game.ZoneHand)[0]) },
		game.ActionMoveToGraveyard:   func(tb *table) string { return objectMD(tb.zone(1, game.ZoneHand)[0]) },
		game.ActionDiscard:           func(tb *table) string { return objectMD(tb.zone(1, game.ZoneHand)[0]) },
		game.ActionAddCounter: func(tb *table) string {
			return fmt.Sprintf(`{"object_id":%d,"counter_type":"loyalty"}`, tb.onBattlefield(1).ID)
		},
		game.ActionRemoveCounter: func(tb *table) string {
			return fmt.Sprintf(`{"object_id":%d,"counter_type":"loyalty"}`, tb.onBattlefield(1).ID)
		},
		game.ActionCreateTokenCopy: func(tb *table) string { return `{"token_name":"Treasure","quantity":2}` },
		game.ActionRemoveToken: func(tb *table) string {
			tb.mustDo(1, "create_token_copy", `{"token_name":"Goblin"}`)
			return objectMD(tb.zone(1, game.ZoneBattlefield)[0])
		},
		game.ActionCreateIndicator: func(tb *table) string { return `{"position":{"x":1,"y":1},"color":"green"}` },
		game.ActionMoveIndicator: func(tb *table) string {
			tb.mustDo(1, "create_indicator", `{"position":{"x":1,"y":1}}`)
			return `{"indicator_id":1,"position":{"x":2,"y":2}}`
		},
		game.ActionDeleteIndicator: func(tb *table) string {
			tb.mustDo(1, "create_indicator", `{"position":{"x":1,"y":1}}`)
			return `{"indicator_id":1}`
		},
		game.ActionCast:    func(tb *table) string { return objectMD(tb.zone(1, game.ZoneCommand)[0]) },
		game.ActionEndTurn: func(tb *table) string { return "" },
	}
	require.Len(t, cases, len(game.AllActionKinds()))

	for _, kind := range game.AllActionKinds() {
		setup, ok := cases[kind]
		require.True(t, ok, "no case for %s", kind)
		t.Run(kind.String(), func(t *testing.T) {
			tb := newTable(t, 2)
			md := setup(tb)
			before := len(tb.audit())

			id := tb.mustDo(1, kind.String(), md)

			rows := tb.audit()[before:]
			require.NotEmpty(t, rows)
			assert.Equal(t, id, rows[0].ID)
			assert.Equal(t, kind, rows[0].Kind)
			assert.Equal(t, 1, rows[0].Seat)
		})
	}
}

func objectMD(obj *game.Object) string {
	return fmt.Sprintf(`{"object_id":%d}`, obj.ID)
}

func TestAuditRowCarriesTargetAndMetadata(t *testing.T) {
	tb := newTable(t, 1)
	obj := tb.onBattlefield(1)

	id := tb.mustDo(1, "tap", fmt.Sprintf(`{"object_id":%d}`, obj.ID))
	rows := tb.audit()
	last := rows[len(rows)-1]
	assert.Equal(t, id, last.ID)
	require.NotNil(t, last.TargetObjectID)
	assert.Equal(t, obj.ID, *last.TargetObjectID)
	assert.JSONEq(t, fmt.Sprintf(`{"object_id":%d}`, obj.ID), string(last.Metadata))
	assert.Equal(t, testNow, last.CreatedAt)

	tb.mustDo(1, "untap_all", "")
	rows = tb.audit()
	assert.JSONEq(t, `{}`, string(rows[len(rows)-1].Metadata))
	assert.Nil(t, rows[len(rows)-1].TargetObjectID)
}
