package game_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thraizz/commander-table/internal/game"
)

func TestAuditHistoryGroupsCascades(t *testing.T) {
	tb := newTable(t, 2)
	tb.mustDo(1, "life_change", `{"amount":-2}`)
	tb.mustDo(1, "end_turn", "")
	tb.mustDo(2, "draw", "")

	turns, err := tb.engine.AuditHistory(tb.ctx, tb.session.ID)
	require.NoError(t, err)
	require.Len(t, turns, 3)

	assert.Equal(t, game.ActionLifeChange, turns[0].Root)
	assert.Len(t, turns[0].Entries, 1)

	assert.Equal(t, game.ActionEndTurn, turns[1].Root)
	assert.Equal(t, 1, turns[1].Seat)
	assert.Equal(t, []game.ActionKind{game.ActionEndTurn, game.ActionUntapAll, game.ActionDraw}, kinds(turns[1].Entries))

	assert.Equal(t, game.ActionDraw, turns[2].Root)
	assert.NotEqual(t, turns[1].TransactionID, turns[2].TransactionID)
}

func TestGroupByTransactionWithoutIDs(t *testing.T) {
	rows := []*game.AuditEntry{
		{ID: 1, Kind: game.ActionTap},
		{ID: 2, Kind: game.ActionUntap},
		{ID: 3, Kind: game.ActionEndTurn, TransactionID: "t"},
		{ID: 4, Kind: game.ActionDraw, TransactionID: "t"},
	}

	turns := game.GroupByTransaction(rows)
	require.Len(t, turns, 3)
	assert.Len(t, turns[0].Entries, 1)
	assert.Len(t, turns[1].Entries, 1)
	assert.Len(t, turns[2].Entries, 2)
}

func TestArchiveAuditLog(t *testing.T) {
	tb := newTable(t, 2)
	tb.mustDo(1, "create_indicator", `{"position":{"x":1,"y":2},"color":"blue"}`)
	tb.mustDo(1, "end_turn", "")

	var buf bytes.Buffer
	n, err := tb.engine.ArchiveAuditLog(tb.ctx, tb.session.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	archive, err := game.ReadArchive(&buf)
	require.NoError(t, err)
	assert.Equal(t, tb.session.ID, archive.SessionID)
	assert.Equal(t, testNow, archive.CreatedAt.UTC())
	require.Len(t, archive.Entries, 4)
	assert.Equal(t, tb.audit()[3].TransactionID, archive.Entries[3].TransactionID)
	assert.Equal(t, game.ActionDraw, archive.Entries[3].Kind)
	assert.JSONEq(t, `{"position":{"x":1,"y":2},"color":"blue"}`, string(archive.Entries[0].Metadata))
}

func TestReadArchiveRejectsGarbage(t *testing.T) {
	_, err := game.ReadArchive(bytes.NewReader([]byte("not an archive")))
	assert.Error(t, err)
}
