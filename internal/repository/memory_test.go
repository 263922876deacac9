package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thraizz/commander-table/internal/game"
	"github.com/thraizz/commander-table/internal/game/counters"
	"go.uber.org/zap/zaptest"
)

func seededMemoryStore(t *testing.T) (*MemoryStore, int64, int64) {
	t.Helper()
	store := NewMemoryStore(zaptest.NewLogger(t))
	cardID := store.AddCard(game.Card{Name: "Sol Ring"})
	var sessionID int64
	err := store.InTx(context.Background(), func(tx game.Tx) error {
		var err error
		sessionID, err = tx.CreateSession(context.Background(), &game.Session{
			Name: "table", Status: game.SessionActive, PlayerCount: 2, CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		return err
	})
	require.NoError(t, err)
	return store, sessionID, cardID
}

func TestMemoryStoreRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	store, sessionID, cardID := seededMemoryStore(t)

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx game.Tx) error {
		objs := []*game.Object{{SessionID: sessionID, Seat: 1, Zone: game.ZoneHand, CardID: cardID}}
		require.NoError(t, tx.InsertObjects(ctx, objs))
		_, err := tx.AppendAudit(ctx, &game.AuditEntry{SessionID: sessionID, Seat: 1, Kind: game.ActionDraw, Metadata: json.RawMessage(`{}`)})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.InTx(ctx, func(tx game.Tx) error {
		objs, err := tx.Objects(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, objs)
		rows, err := tx.AuditEntries(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, rows)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreLibraryOrdering(t *testing.T) {
	ctx := context.Background()
	store, sessionID, cardID := seededMemoryStore(t)

	err := store.InTx(ctx, func(tx game.Tx) error {
		objs := []*game.Object{
			{SessionID: sessionID, Seat: 1, Zone: game.ZoneLibrary, CardID: cardID, Order: 2},
			{SessionID: sessionID, Seat: 1, Zone: game.ZoneLibrary, CardID: cardID, Order: 0},
			{SessionID: sessionID, Seat: 1, Zone: game.ZoneLibrary, CardID: cardID, Order: 0},
			{SessionID: sessionID, Seat: 2, Zone: game.ZoneLibrary, CardID: cardID, Order: -1},
		}
		require.NoError(t, tx.InsertObjects(ctx, objs))

		library, err := tx.ZoneObjects(ctx, sessionID, 1, game.ZoneLibrary)
		require.NoError(t, err)
		require.Len(t, library, 3)
		// ties on order fall back to id
		assert.Equal(t, []int64{objs[1].ID, objs[2].ID, objs[0].ID}, []int64{library[0].ID, library[1].ID, library[2].ID})

		require.NoError(t, tx.UpdateOrders(ctx, sessionID, []int64{objs[0].ID, objs[1].ID, objs[2].ID}, []int{0, 1, 2}))
		library, err = tx.ZoneObjects(ctx, sessionID, 1, game.ZoneLibrary)
		require.NoError(t, err)
		assert.Equal(t, objs[0].ID, library[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, sessionID, cardID := seededMemoryStore(t)

	err := store.InTx(ctx, func(tx game.Tx) error {
		objs := []*game.Object{{SessionID: sessionID, Seat: 1, Zone: game.ZoneBattlefield, CardID: cardID, Counters: counters.New()}}
		require.NoError(t, tx.InsertObjects(ctx, objs))

		got, err := tx.Object(ctx, sessionID, objs[0].ID)
		require.NoError(t, err)
		got.IsTapped = true
		got.Counters["charge"] = 3

		again, err := tx.Object(ctx, sessionID, objs[0].ID)
		require.NoError(t, err)
		assert.False(t, again.IsTapped)
		assert.NotContains(t, again.Counters, "charge")
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreScopesBySession(t *testing.T) {
	ctx := context.Background()
	store, sessionID, cardID := seededMemoryStore(t)

	err := store.InTx(ctx, func(tx game.Tx) error {
		objs := []*game.Object{{SessionID: sessionID, Seat: 1, Zone: game.ZoneHand, CardID: cardID}}
		require.NoError(t, tx.InsertObjects(ctx, objs))

		_, err := tx.Object(ctx, sessionID+1, objs[0].ID)
		assert.ErrorIs(t, err, game.ErrNotFound)

		ind := &game.Indicator{SessionID: sessionID, Seat: 1, Color: "red"}
		require.NoError(t, tx.InsertIndicator(ctx, ind))
		err = tx.DeleteIndicator(ctx, sessionID, 2, ind.ID)
		assert.ErrorIs(t, err, game.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store, sessionID, cardID := seededMemoryStore(t)

	assert.Panics(t, func() {
		_ = store.InTx(ctx, func(tx game.Tx) error {
			objs := []*game.Object{{SessionID: sessionID, Seat: 1, Zone: game.ZoneHand, CardID: cardID}}
			require.NoError(t, tx.InsertObjects(ctx, objs))
			panic("handler bug")
		})
	})

	err := store.View(ctx, func(tx game.Tx) error {
		objs, err := tx.Objects(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, objs)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreViewSeesCommittedData(t *testing.T) {
	ctx := context.Background()
	store, sessionID, _ := seededMemoryStore(t)

	err := store.View(ctx, func(tx game.Tx) error {
		s, err := tx.Session(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "table", s.Name)
		return nil
	})
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, store.View(cancelled, func(game.Tx) error { return nil }), context.Canceled)
}

func TestMemoryStoreAuditPageNewestFirst(t *testing.T) {
	ctx := context.Background()
	store, sessionID, _ := seededMemoryStore(t)

	err := store.InTx(ctx, func(tx game.Tx) error {
		for i := 0; i < 5; i++ {
			_, err := tx.AppendAudit(ctx, &game.AuditEntry{SessionID: sessionID, Seat: 1, Kind: game.ActionTap, Metadata: json.RawMessage(`{}`)})
			require.NoError(t, err)
		}
		page, total, err := tx.AuditPage(ctx, sessionID, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, page, 2)
		assert.Equal(t, int64(4), page[0].ID)
		assert.Equal(t, int64(3), page[1].ID)

		page, _, err = tx.AuditPage(ctx, sessionID, 10, 4)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, int64(1), page[0].ID)

		for _, offset := range []int{5, math.MaxInt, -3} {
			page, total, err = tx.AuditPage(ctx, sessionID, 10, offset)
			require.NoError(t, err)
			assert.Equal(t, 5, total)
			assert.Empty(t, page, "offset %d", offset)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreAdvanceTurnCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store, sessionID, _ := seededMemoryStore(t)

	err := store.InTx(ctx, func(tx game.Tx) error {
		require.NoError(t, tx.InsertState(ctx, &game.State{SessionID: sessionID, ActiveSeat: 1, TurnNumber: 3}))

		ok, err := tx.AdvanceTurn(ctx, sessionID, 3, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.AdvanceTurn(ctx, sessionID, 3, 2)
		require.NoError(t, err)
		assert.False(t, ok)

		st, err := tx.State(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 2, st.ActiveSeat)
		assert.Equal(t, 4, st.TurnNumber)
		return nil
	})
	require.NoError(t, err)
}
