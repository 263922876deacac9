package game

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"
)

// AuditPage is one page of a session's audit log, newest first.
type AuditPage struct {
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Entries  []*AuditEntry `json:"entries"`
}

// CreateSession registers a new table with one deck per seat. The session
// has no state until it is initialized.
func (e *Engine) CreateSession(ctx context.Context, name string, deckIDs []int64) (*Session, error) {
	const op = "create_session"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidMetadata(op, "name is required")
	}
	if len(deckIDs) < 1 || len(deckIDs) > MaxSeats {
		return nil, invalidMetadata(op, "between 1 and %d decks are required, got %d", MaxSeats, len(deckIDs))
	}

	now := e.now()
	session := &Session{
		Name:        name,
		Status:      SessionActive,
		PlayerCount: len(deckIDs),
		DeckIDs:     append([]int64(nil), deckIDs...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := e.store.InTx(ctx, func(tx Tx) error {
		for _, id := range deckIDs {
			if _, err := e.loadDeck(ctx, tx, op, id); err != nil {
				return err
			}
		}
		id, err := tx.CreateSession(ctx, session)
		if err != nil {
			return storeError(op, err)
		}
		session.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("session created",
		zap.Int64("session_id", session.ID),
		zap.String("name", session.Name),
		zap.Int("players", session.PlayerCount),
	)
	return session, nil
}

// Session returns a session by id.
func (e *Engine) Session(ctx context.Context, sessionID int64) (*Session, error) {
	var session *Session
	err := readOnly(ctx, e.store, func(tx Tx) error {
		s, err := loadSession(ctx, tx, "session", sessionID)
		session = s
		return err
	})
	return session, err
}

// SetSessionStatus changes the lifecycle status of a session.
func (e *Engine) SetSessionStatus(ctx context.Context, sessionID int64, status SessionStatus) error {
	const op = "set_session_status"
	if !status.Valid() {
		return invalidMetadata(op, "unknown status %q", status)
	}
	err := e.store.InTx(ctx, func(tx Tx) error {
		if _, err := loadSession(ctx, tx, op, sessionID); err != nil {
			return err
		}
		if err := tx.SetSessionStatus(ctx, sessionID, status); err != nil {
			return storeError(op, err)
		}
		if err := tx.TouchSession(ctx, sessionID, e.now()); err != nil {
			return storeError(op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Info("session status changed",
		zap.Int64("session_id", sessionID),
		zap.String("status", string(status)),
	)
	return nil
}

// InitializeSession deals the decks onto the table: every seat gets its
// commanders in the command zone and the rest of its deck as a shuffled
// library, then draws an opening hand. When deckIDs is empty the decks
// stored on the session are used.
func (e *Engine) InitializeSession(ctx context.Context, sessionID int64, deckIDs []int64) error {
	const op = "initialize_session"
	err := e.store.InTx(ctx, func(tx Tx) error {
		session, err := loadSession(ctx, tx, op, sessionID)
		if err != nil {
			return err
		}
		if _, err := tx.State(ctx, sessionID); err == nil {
			return invalidState(op, "session %d is already initialized", sessionID)
		} else if err = storeError(op, err); KindOf(err) != KindNotFound {
			return err
		}
		return e.deal(ctx, tx, session, deckIDs)
	})
	if err != nil {
		return err
	}
	e.logger.Info("session initialized", zap.Int64("session_id", sessionID))
	return nil
}

// RestartSession wipes a session's objects, indicators, audit log and state
// and deals again, all in one transaction.
func (e *Engine) RestartSession(ctx context.Context, sessionID int64, deckIDs []int64) error {
	const op = "restart_session"
	err := e.store.InTx(ctx, func(tx Tx) error {
		session, err := loadSession(ctx, tx, op, sessionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteObjects(ctx, sessionID); err != nil {
			return storeError(op, err)
		}
		if err := tx.DeleteAudit(ctx, sessionID); err != nil {
			return storeError(op, err)
		}
		if err := tx.DeleteIndicators(ctx, sessionID); err != nil {
			return storeError(op, err)
		}
		if err := tx.DeleteState(ctx, sessionID); err != nil {
			return storeError(op, err)
		}
		return e.deal(ctx, tx, session, deckIDs)
	})
	if err != nil {
		return err
	}
	e.logger.Info("session restarted", zap.Int64("session_id", sessionID))
	return nil
}

func (e *Engine) deal(ctx context.Context, tx Tx, session *Session, deckIDs []int64) error {
	const op = "deal"
	if len(deckIDs) == 0 {
		deckIDs = session.DeckIDs
	}
	if len(deckIDs) != session.PlayerCount {
		return invalidMetadata(op, "session %d seats %d players, got %d decks", session.ID, session.PlayerCount, len(deckIDs))
	}

	objects := newObjectModel(tx, session.ID, e.logger)
	for i, deckID := range deckIDs {
		seat := i + 1
		deck, err := e.loadDeck(ctx, tx, op, deckID)
		if err != nil {
			return err
		}
		if err := objects.Create(ctx, deckObjects(deck, seat)); err != nil {
			return err
		}
		if err := e.shuffleLibrary(ctx, objects, seat); err != nil {
			return err
		}
		if _, err := e.moveFromTop(ctx, objects, seat, e.settings.OpeningHand, ZoneHand); err != nil {
			return err
		}
	}

	st := &State{
		SessionID:       session.ID,
		CommanderDamage: make(map[int]map[int]int),
		ActiveSeat:      1,
		TurnNumber:      1,
	}
	for seat := 1; seat <= session.PlayerCount; seat++ {
		st.Life[seat-1] = e.settings.StartingLife
	}
	if err := tx.InsertState(ctx, st); err != nil {
		return storeError(op, err)
	}
	if err := tx.SetSessionDecks(ctx, session.ID, deckIDs); err != nil {
		return storeError(op, err)
	}
	if err := tx.TouchSession(ctx, session.ID, e.now()); err != nil {
		return storeError(op, err)
	}
	return nil
}

// deckObjects lays out one seat's deck: commanders into the command zone,
// every other card (repeated by quantity) into the library in list order.
func deckObjects(deck *Deck, seat int) []*Object {
	var objs []*Object
	for _, id := range deck.CommanderIDs {
		objs = append(objs, &Object{Seat: seat, Zone: ZoneCommand, CardID: id})
	}
	order := 0
	for _, line := range deck.Cards {
		if deck.IsCommander(line.CardID) {
			continue
		}
		for n := 0; n < line.Quantity; n++ {
			objs = append(objs, &Object{Seat: seat, Zone: ZoneLibrary, CardID: line.CardID, Order: order})
			order++
		}
	}
	return objs
}

func (e *Engine) loadDeck(ctx context.Context, tx Tx, op string, deckID int64) (*Deck, error) {
	deck, err := tx.Deck(ctx, deckID)
	if err != nil {
		err = storeError(op, err)
		if KindOf(err) == KindNotFound {
			return nil, notFound(op, "deck %d not found", deckID)
		}
		return nil, err
	}
	return deck, nil
}

// AuditLog returns one page of the audit log, newest first. Pages start at 1;
// a zero page size selects the configured default.
func (e *Engine) AuditLog(ctx context.Context, sessionID int64, page, pageSize int) (*AuditPage, error) {
	const op = "audit_log"
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = e.settings.DefaultPageSize
	}
	if pageSize > e.settings.MaxPageSize {
		pageSize = e.settings.MaxPageSize
	}

	offset := math.MaxInt
	if page-1 <= math.MaxInt/pageSize {
		offset = (page - 1) * pageSize
	}

	result := &AuditPage{Page: page, PageSize: pageSize}
	err := readOnly(ctx, e.store, func(tx Tx) error {
		if _, err := loadSession(ctx, tx, op, sessionID); err != nil {
			return err
		}
		entries, total, err := tx.AuditPage(ctx, sessionID, pageSize, offset)
		if err != nil {
			return storeError(op, err)
		}
		result.Entries = entries
		result.Total = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Entries == nil {
		result.Entries = []*AuditEntry{}
	}
	return result, nil
}
