package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thraizz/commander-table/internal/game"
	"github.com/thraizz/commander-table/internal/game/counters"
	"go.uber.org/zap"
)

// MemoryStore is an in-process game.Store. Transactions are serialized by a
// mutex and a failed transaction restores the data it started from.
type MemoryStore struct {
	mu     sync.Mutex
	data   *memData
	logger *zap.Logger
}

type memData struct {
	cards      map[int64]*game.Card
	decks      map[int64]*game.Deck
	sessions   map[int64]*game.Session
	states     map[int64]*game.State
	objects    map[int64]*game.Object
	indicators map[int64]*game.Indicator
	audit      []*game.AuditEntry

	lastCard, lastDeck, lastSession, lastObject, lastIndicator, lastAudit int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		data: &memData{
			cards:      make(map[int64]*game.Card),
			decks:      make(map[int64]*game.Deck),
			sessions:   make(map[int64]*game.Session),
			states:     make(map[int64]*game.State),
			objects:    make(map[int64]*game.Object),
			indicators: make(map[int64]*game.Indicator),
		},
		logger: logger,
	}
}

// AddCard adds a catalog card, assigning an id when c.ID is zero.
func (s *MemoryStore) AddCard(c game.Card) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		s.data.lastCard++
		c.ID = s.data.lastCard
	} else if c.ID > s.data.lastCard {
		s.data.lastCard = c.ID
	}
	s.data.cards[c.ID] = &c
	return c.ID
}

// AddDeck adds a catalog deck, assigning an id when d.ID is zero.
func (s *MemoryStore) AddDeck(d game.Deck) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		s.data.lastDeck++
		d.ID = s.data.lastDeck
	} else if d.ID > s.data.lastDeck {
		s.data.lastDeck = d.ID
	}
	s.data.decks[d.ID] = cloneDeck(&d)
	return d.ID
}

// InTx runs fn with exclusive access to the store.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	committed := false
	defer func() {
		// also runs when fn panics
		if !committed {
			s.data = snapshot
		}
	}()
	if err := fn(&memTx{d: s.data}); err != nil {
		s.logger.Debug("memory transaction rolled back", zap.Error(err))
		return err
	}
	committed = true
	return nil
}

var _ game.Viewer = (*MemoryStore)(nil)

// View runs a read-only fn without taking a rollback snapshot.
func (s *MemoryStore) View(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{d: s.data})
}

func (d *memData) clone() *memData {
	out := *d
	out.cards = d.cards
	out.decks = d.decks
	out.sessions = make(map[int64]*game.Session, len(d.sessions))
	for id, v := range d.sessions {
		out.sessions[id] = cloneSession(v)
	}
	out.states = make(map[int64]*game.State, len(d.states))
	for id, v := range d.states {
		out.states[id] = cloneState(v)
	}
	out.objects = make(map[int64]*game.Object, len(d.objects))
	for id, v := range d.objects {
		out.objects[id] = cloneObject(v)
	}
	out.indicators = make(map[int64]*game.Indicator, len(d.indicators))
	for id, v := range d.indicators {
		c := *v
		out.indicators[id] = &c
	}
	out.audit = make([]*game.AuditEntry, len(d.audit))
	for i, v := range d.audit {
		out.audit[i] = cloneAudit(v)
	}
	return &out
}

func cloneSession(s *game.Session) *game.Session {
	c := *s
	c.DeckIDs = append([]int64(nil), s.DeckIDs...)
	return &c
}

func cloneState(st *game.State) *game.State {
	c := *st
	c.CommanderDamage = make(map[int]map[int]int, len(st.CommanderDamage))
	for target, bySource := range st.CommanderDamage {
		inner := make(map[int]int, len(bySource))
		for source, amount := range bySource {
			inner[source] = amount
		}
		c.CommanderDamage[target] = inner
	}
	return &c
}

func cloneObject(o *game.Object) *game.Object {
	c := *o
	c.Counters = o.Counters.Copy()
	if o.Position != nil {
		p := *o.Position
		c.Position = &p
	}
	return &c
}

func cloneAudit(a *game.AuditEntry) *game.AuditEntry {
	c := *a
	c.Metadata = append(json.RawMessage(nil), a.Metadata...)
	if a.TargetObjectID != nil {
		id := *a.TargetObjectID
		c.TargetObjectID = &id
	}
	return &c
}

func cloneDeck(d *game.Deck) *game.Deck {
	c := *d
	c.CommanderIDs = append([]int64(nil), d.CommanderIDs...)
	c.Cards = append([]game.DeckCard(nil), d.Cards...)
	return &c
}

func missing(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, game.ErrNotFound)
}

type memTx struct {
	d *memData
}

var _ game.Tx = (*memTx)(nil)

func (t *memTx) Card(_ context.Context, id int64) (*game.Card, error) {
	c, ok := t.d.cards[id]
	if !ok {
		return nil, missing("card", id)
	}
	out := *c
	return &out, nil
}

func (t *memTx) Cards(_ context.Context, ids []int64) (map[int64]*game.Card, error) {
	out := make(map[int64]*game.Card, len(ids))
	for _, id := range ids {
		if c, ok := t.d.cards[id]; ok {
			cc := *c
			out[id] = &cc
		}
	}
	return out, nil
}

func (t *memTx) Deck(_ context.Context, id int64) (*game.Deck, error) {
	d, ok := t.d.decks[id]
	if !ok {
		return nil, missing("deck", id)
	}
	return cloneDeck(d), nil
}

func (t *memTx) TokenCards(_ context.Context) ([]*game.Card, error) {
	var out []*game.Card
	for _, c := range t.d.cards {
		if c.IsToken {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) CreateSession(_ context.Context, s *game.Session) (int64, error) {
	t.d.lastSession++
	c := cloneSession(s)
	c.ID = t.d.lastSession
	t.d.sessions[c.ID] = c
	return c.ID, nil
}

func (t *memTx) session(id int64) (*game.Session, error) {
	s, ok := t.d.sessions[id]
	if !ok {
		return nil, missing("session", id)
	}
	return s, nil
}

func (t *memTx) Session(_ context.Context, id int64) (*game.Session, error) {
	s, err := t.session(id)
	if err != nil {
		return nil, err
	}
	return cloneSession(s), nil
}

func (t *memTx) SetSessionDecks(_ context.Context, id int64, deckIDs []int64) error {
	s, err := t.session(id)
	if err != nil {
		return err
	}
	s.DeckIDs = append([]int64(nil), deckIDs...)
	return nil
}

func (t *memTx) SetSessionStatus(_ context.Context, id int64, status game.SessionStatus) error {
	s, err := t.session(id)
	if err != nil {
		return err
	}
	s.Status = status
	return nil
}

func (t *memTx) TouchSession(_ context.Context, id int64, at time.Time) error {
	s, err := t.session(id)
	if err != nil {
		return err
	}
	s.UpdatedAt = at
	return nil
}

func (t *memTx) state(sessionID int64) (*game.State, error) {
	st, ok := t.d.states[sessionID]
	if !ok {
		return nil, missing("state", sessionID)
	}
	return st, nil
}

// LockState needs no lock: the whole transaction already holds the store mutex.
func (t *memTx) LockState(ctx context.Context, sessionID int64) (*game.State, error) {
	return t.State(ctx, sessionID)
}

func (t *memTx) State(_ context.Context, sessionID int64) (*game.State, error) {
	st, err := t.state(sessionID)
	if err != nil {
		return nil, err
	}
	return cloneState(st), nil
}

func (t *memTx) InsertState(_ context.Context, st *game.State) error {
	if _, ok := t.d.states[st.SessionID]; ok {
		return fmt.Errorf("state for session %d already exists", st.SessionID)
	}
	t.d.states[st.SessionID] = cloneState(st)
	return nil
}

func (t *memTx) DeleteState(_ context.Context, sessionID int64) error {
	delete(t.d.states, sessionID)
	return nil
}

func (t *memTx) AddLife(_ context.Context, sessionID int64, seat, delta int) error {
	if seat < 1 || seat > game.MaxSeats {
		return fmt.Errorf("seat %d out of range", seat)
	}
	st, err := t.state(sessionID)
	if err != nil {
		return err
	}
	st.Life[seat-1] += delta
	return nil
}

func (t *memTx) SetCommanderDamage(_ context.Context, sessionID int64, damage map[int]map[int]int) error {
	st, err := t.state(sessionID)
	if err != nil {
		return err
	}
	st.CommanderDamage = cloneState(&game.State{CommanderDamage: damage}).CommanderDamage
	return nil
}

func (t *memTx) AdvanceTurn(_ context.Context, sessionID int64, fromTurn, nextSeat int) (bool, error) {
	st, err := t.state(sessionID)
	if err != nil {
		return false, err
	}
	if st.TurnNumber != fromTurn {
		return false, nil
	}
	st.ActiveSeat = nextSeat
	st.TurnNumber++
	return true, nil
}

func (t *memTx) object(sessionID, objectID int64) (*game.Object, error) {
	obj, ok := t.d.objects[objectID]
	if !ok || obj.SessionID != sessionID {
		return nil, missing("object", objectID)
	}
	return obj, nil
}

func (t *memTx) Object(_ context.Context, sessionID, objectID int64) (*game.Object, error) {
	obj, err := t.object(sessionID, objectID)
	if err != nil {
		return nil, err
	}
	return cloneObject(obj), nil
}

func (t *memTx) Objects(_ context.Context, sessionID int64) ([]*game.Object, error) {
	var out []*game.Object
	for _, obj := range t.d.objects {
		if obj.SessionID == sessionID {
			out = append(out, cloneObject(obj))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) ZoneObjects(_ context.Context, sessionID int64, seat int, zone game.Zone) ([]*game.Object, error) {
	var out []*game.Object
	for _, obj := range t.d.objects {
		if obj.SessionID == sessionID && obj.Seat == seat && obj.Zone == zone {
			out = append(out, cloneObject(obj))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if zone == game.ZoneLibrary && out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) InsertObjects(_ context.Context, objs []*game.Object) error {
	for _, obj := range objs {
		if _, ok := t.d.cards[obj.CardID]; !ok {
			return fmt.Errorf("object references unknown card %d", obj.CardID)
		}
		t.d.lastObject++
		obj.ID = t.d.lastObject
		t.d.objects[obj.ID] = cloneObject(obj)
	}
	return nil
}

func (t *memTx) UpdateZone(_ context.Context, sessionID, objectID int64, zone game.Zone, pos *game.Position) error {
	obj, err := t.object(sessionID, objectID)
	if err != nil {
		return err
	}
	obj.Zone = zone
	obj.Position = nil
	if pos != nil {
		p := *pos
		obj.Position = &p
	}
	return nil
}

func (t *memTx) UpdateFlag(_ context.Context, sessionID, objectID int64, flag game.Flag, value bool) error {
	obj, err := t.object(sessionID, objectID)
	if err != nil {
		return err
	}
	switch flag {
	case game.FlagTapped:
		obj.IsTapped = value
	case game.FlagFlipped:
		obj.IsFlipped = value
	default:
		return fmt.Errorf("unknown flag %q", flag)
	}
	return nil
}

func (t *memTx) UpdateCounters(_ context.Context, sessionID, objectID int64, c counters.Counters) error {
	obj, err := t.object(sessionID, objectID)
	if err != nil {
		return err
	}
	obj.Counters = c.Copy()
	return nil
}

func (t *memTx) UpdateOrders(_ context.Context, sessionID int64, ids []int64, orders []int) error {
	if len(ids) != len(orders) {
		return fmt.Errorf("ids and orders differ in length: %d != %d", len(ids), len(orders))
	}
	for i, id := range ids {
		if obj, err := t.object(sessionID, id); err == nil {
			obj.Order = orders[i]
		}
	}
	return nil
}

func (t *memTx) UntapAll(_ context.Context, sessionID int64, seat int) (int64, error) {
	var n int64
	for _, obj := range t.d.objects {
		if obj.SessionID == sessionID && obj.Seat == seat && obj.Zone == game.ZoneBattlefield && obj.IsTapped {
			obj.IsTapped = false
			n++
		}
	}
	return n, nil
}

func (t *memTx) DeleteObject(_ context.Context, sessionID, objectID int64) error {
	if _, err := t.object(sessionID, objectID); err != nil {
		return err
	}
	delete(t.d.objects, objectID)
	return nil
}

func (t *memTx) DeleteObjects(_ context.Context, sessionID int64) error {
	for id, obj := range t.d.objects {
		if obj.SessionID == sessionID {
			delete(t.d.objects, id)
		}
	}
	return nil
}

func (t *memTx) indicator(sessionID int64, seat int, id int64) (*game.Indicator, error) {
	ind, ok := t.d.indicators[id]
	if !ok || ind.SessionID != sessionID || ind.Seat != seat {
		return nil, missing("indicator", id)
	}
	return ind, nil
}

func (t *memTx) InsertIndicator(_ context.Context, ind *game.Indicator) error {
	t.d.lastIndicator++
	ind.ID = t.d.lastIndicator
	c := *ind
	t.d.indicators[c.ID] = &c
	return nil
}

func (t *memTx) MoveIndicator(_ context.Context, sessionID int64, seat int, id int64, pos game.Position) error {
	ind, err := t.indicator(sessionID, seat, id)
	if err != nil {
		return err
	}
	ind.Position = pos
	return nil
}

func (t *memTx) DeleteIndicator(_ context.Context, sessionID int64, seat int, id int64) error {
	if _, err := t.indicator(sessionID, seat, id); err != nil {
		return err
	}
	delete(t.d.indicators, id)
	return nil
}

func (t *memTx) Indicators(_ context.Context, sessionID int64) ([]*game.Indicator, error) {
	var out []*game.Indicator
	for _, ind := range t.d.indicators {
		if ind.SessionID == sessionID {
			c := *ind
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) DeleteIndicators(_ context.Context, sessionID int64) error {
	for id, ind := range t.d.indicators {
		if ind.SessionID == sessionID {
			delete(t.d.indicators, id)
		}
	}
	return nil
}

func (t *memTx) AppendAudit(_ context.Context, entry *game.AuditEntry) (int64, error) {
	t.d.lastAudit++
	entry.ID = t.d.lastAudit
	t.d.audit = append(t.d.audit, cloneAudit(entry))
	return entry.ID, nil
}

func (t *memTx) sessionAudit(sessionID int64) []*game.AuditEntry {
	var out []*game.AuditEntry
	for _, entry := range t.d.audit {
		if entry.SessionID == sessionID {
			out = append(out, entry)
		}
	}
	return out
}

func (t *memTx) AuditPage(_ context.Context, sessionID int64, limit, offset int) ([]*game.AuditEntry, int, error) {
	rows := t.sessionAudit(sessionID)
	total := len(rows)
	if offset < 0 || offset >= total {
		return nil, total, nil
	}
	var out []*game.AuditEntry
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneAudit(rows[i]))
	}
	return out, total, nil
}

func (t *memTx) AuditEntries(_ context.Context, sessionID int64) ([]*game.AuditEntry, error) {
	rows := t.sessionAudit(sessionID)
	out := make([]*game.AuditEntry, len(rows))
	for i, entry := range rows {
		out[i] = cloneAudit(entry)
	}
	return out, nil
}

func (t *memTx) DeleteAudit(_ context.Context, sessionID int64) error {
	kept := t.d.audit[:0:0]
	for _, entry := range t.d.audit {
		if entry.SessionID != sessionID {
			kept = append(kept, entry)
		}
	}
	t.d.audit = kept
	return nil
}
