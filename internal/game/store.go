package game

import (
	"context"
	"time"

	"github.com/thraizz/commander-table/internal/game/counters"
)

// Store is the engine's view of the relational store. Every engine operation
// runs inside exactly one InTx call; an error returned by fn rolls back every
// write fn made.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Viewer is implemented by stores with a cheaper read-only transaction.
// fn must not write.
type Viewer interface {
	View(ctx context.Context, fn func(tx Tx) error) error
}

// readOnly runs fn read-only when store supports it, else in a regular transaction.
func readOnly(ctx context.Context, store Store, fn func(tx Tx) error) error {
	if v, ok := store.(Viewer); ok {
		return v.View(ctx, fn)
	}
	return store.InTx(ctx, fn)
}

// Tx is the set of reads and writes available inside a store transaction.
// Object, indicator and audit lookups are always scoped to a session.
type Tx interface {
	CatalogReader

	CreateSession(ctx context.Context, s *Session) (int64, error)
	Session(ctx context.Context, id int64) (*Session, error)
	SetSessionDecks(ctx context.Context, id int64, deckIDs []int64) error
	SetSessionStatus(ctx context.Context, id int64, status SessionStatus) error
	TouchSession(ctx context.Context, id int64, at time.Time) error

	// LockState returns the session's state row and holds it until the
	// transaction ends, serializing concurrent actions on one session.
	LockState(ctx context.Context, sessionID int64) (*State, error)
	State(ctx context.Context, sessionID int64) (*State, error)
	InsertState(ctx context.Context, st *State) error
	DeleteState(ctx context.Context, sessionID int64) error
	AddLife(ctx context.Context, sessionID int64, seat, delta int) error
	SetCommanderDamage(ctx context.Context, sessionID int64, damage map[int]map[int]int) error
	// AdvanceTurn moves the turn to nextSeat/fromTurn+1 only when the stored
	// turn number still equals fromTurn. It reports whether the row changed.
	AdvanceTurn(ctx context.Context, sessionID int64, fromTurn, nextSeat int) (bool, error)

	Object(ctx context.Context, sessionID, objectID int64) (*Object, error)
	Objects(ctx context.Context, sessionID int64) ([]*Object, error)
	// ZoneObjects lists a seat's objects in zone. Library results are sorted
	// top first (ascending order, then id); other zones by id.
	ZoneObjects(ctx context.Context, sessionID int64, seat int, zone Zone) ([]*Object, error)
	InsertObjects(ctx context.Context, objs []*Object) error
	UpdateZone(ctx context.Context, sessionID, objectID int64, zone Zone, pos *Position) error
	UpdateFlag(ctx context.Context, sessionID, objectID int64, flag Flag, value bool) error
	UpdateCounters(ctx context.Context, sessionID, objectID int64, c counters.Counters) error
	// UpdateOrders sets order = orders[i] for ids[i] in one statement.
	UpdateOrders(ctx context.Context, sessionID int64, ids []int64, orders []int) error
	UntapAll(ctx context.Context, sessionID int64, seat int) (int64, error)
	DeleteObject(ctx context.Context, sessionID, objectID int64) error
	DeleteObjects(ctx context.Context, sessionID int64) error

	InsertIndicator(ctx context.Context, ind *Indicator) error
	MoveIndicator(ctx context.Context, sessionID int64, seat int, id int64, pos Position) error
	DeleteIndicator(ctx context.Context, sessionID int64, seat int, id int64) error
	Indicators(ctx context.Context, sessionID int64) ([]*Indicator, error)
	DeleteIndicators(ctx context.Context, sessionID int64) error

	AppendAudit(ctx context.Context, entry *AuditEntry) (int64, error)
	// AuditPage returns one page of rows newest first plus the total row count.
	AuditPage(ctx context.Context, sessionID int64, limit, offset int) ([]*AuditEntry, int, error)
	// AuditEntries returns every row oldest first.
	AuditEntries(ctx context.Context, sessionID int64) ([]*AuditEntry, error)
	DeleteAudit(ctx context.Context, sessionID int64) error
}

// CatalogReader is the read-only card and deck lookup.
type CatalogReader interface {
	Card(ctx context.Context, id int64) (*Card, error)
	Cards(ctx context.Context, ids []int64) (map[int64]*Card, error)
	Deck(ctx context.Context, id int64) (*Deck, error)
	TokenCards(ctx context.Context) ([]*Card, error)
}
