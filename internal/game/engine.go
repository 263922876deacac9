package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings are the table defaults the engine applies.
type Settings struct {
	StartingLife        int
	OpeningHand         int
	ShufflePasses       int
	DefaultCastPosition Position
	TokenOffset         float64
	MaxTokenCopies      int
	DefaultPageSize     int
	MaxPageSize         int
}

// DefaultSettings returns the Commander table defaults.
func DefaultSettings() Settings {
	return Settings{
		StartingLife:        40,
		OpeningHand:         7,
		ShufflePasses:       DefaultShufflePasses,
		DefaultCastPosition: Position{X: 100, Y: 100},
		TokenOffset:         20,
		MaxTokenCopies:      100,
		DefaultPageSize:     50,
		MaxPageSize:         200,
	}
}

// Engine applies actions to sessions held in a Store.
type Engine struct {
	store    Store
	tokens   *TokenTable
	settings Settings
	rng      Rand
	now      func() time.Time
	newTxnID func() string
	logger   *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSettings overrides the table defaults.
func WithSettings(s Settings) Option {
	return func(e *Engine) { e.settings = s }
}

// WithRand sets the shuffle randomness.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock sets the time source used for session and audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTokens sets the token lookup table used by create_token_copy.
func WithTokens(t *TokenTable) Option {
	return func(e *Engine) { e.tokens = t }
}

// NewEngine creates a new engine instance.
func NewEngine(store Store, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		tokens:   NewTokenTable(nil),
		settings: DefaultSettings(),
		rng:      globalRand{},
		now:      time.Now,
		newTxnID: func() string { return uuid.NewString() },
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// actionContext carries everything a handler needs for one action.
type actionContext struct {
	ctx     context.Context
	tx      Tx
	session *Session
	seat    int
	kind    ActionKind
	md      Metadata
	objects *objectModel
}

func (ac *actionContext) op() string {
	return ac.kind.String()
}

// targetSeat returns metadata target_seat, defaulting to the acting seat.
func (ac *actionContext) targetSeat() (int, error) {
	seat := intOr(ac.md.TargetSeat, ac.seat)
	if !ac.session.ValidSeat(seat) {
		return 0, invalidMetadata(ac.op(), "target_seat %d is not at this table", seat)
	}
	return seat, nil
}

// ExecuteAction resolves kindName and executes it for seat. It returns the id
// of the audit row written for the action.
func (e *Engine) ExecuteAction(ctx context.Context, sessionID int64, seat int, kindName string, metadata json.RawMessage) (int64, error) {
	kind, err := ParseActionKind(kindName)
	if err != nil {
		return 0, err
	}
	return e.Execute(ctx, sessionID, Action{Kind: kind, Seat: seat, Metadata: metadata})
}

// Execute runs one action and everything it cascades into inside a single
// store transaction. The handler runs first, then the session is stamped and
// an audit row appended; sub-actions emitted by the handler (end_turn's
// untap_all and draw) follow in order, each with its own audit row sharing
// the root action's transaction id. Any error rolls the whole transaction
// back, so a failed action leaves neither mutations nor audit rows.
func (e *Engine) Execute(ctx context.Context, sessionID int64, action Action) (int64, error) {
	if !action.Kind.Valid() {
		return 0, invalidMetadata("execute", "unknown action kind %d", int(action.Kind))
	}

	txnID := e.newTxnID()
	var rootID int64
	err := e.store.InTx(ctx, func(tx Tx) error {
		session, err := loadSession(ctx, tx, action.Kind.String(), sessionID)
		if err != nil {
			return err
		}
		if !session.ValidSeat(action.Seat) {
			return invalidMetadata(action.Kind.String(), "seat %d is not at this table", action.Seat)
		}
		if _, err := tx.LockState(ctx, sessionID); err != nil {
			err = storeError(action.Kind.String(), err)
			if KindOf(err) == KindNotFound {
				return invalidState(action.Kind.String(), "session %d has not been initialized", sessionID)
			}
			return err
		}

		queue := []Action{action}
		for i := 0; i < len(queue); i++ {
			act := queue[i]
			md, err := DecodeMetadata(act.Kind.String(), act.Metadata)
			if err != nil {
				return err
			}
			ac := &actionContext{
				ctx:     ctx,
				tx:      tx,
				session: session,
				seat:    act.Seat,
				kind:    act.Kind,
				md:      md,
				objects: newObjectModel(tx, sessionID, e.logger),
			}
			followUps, err := e.dispatch(ac)
			if err != nil {
				return err
			}
			if i == 0 {
				if err := tx.TouchSession(ctx, sessionID, e.now()); err != nil {
					return storeError("touch_session", err)
				}
			}
			id, err := e.appendAudit(ctx, tx, sessionID, act, md, txnID)
			if err != nil {
				return err
			}
			if i == 0 {
				rootID = id
			}
			queue = append(queue, followUps...)
		}
		return nil
	})
	if err != nil {
		e.logger.Debug("action failed",
			zap.Int64("session_id", sessionID),
			zap.Int("seat", action.Seat),
			zap.String("kind", action.Kind.String()),
			zap.Error(err),
		)
		return 0, err
	}

	e.logger.Info("action executed",
		zap.Int64("session_id", sessionID),
		zap.Int("seat", action.Seat),
		zap.String("kind", action.Kind.String()),
		zap.Int64("audit_id", rootID),
		zap.String("transaction_id", txnID),
	)
	return rootID, nil
}

// dispatch routes an action to its handler. Every member of the vocabulary
// has a case; handlers return the sub-actions they cascade into.
func (e *Engine) dispatch(ac *actionContext) ([]Action, error) {
	switch ac.kind {
	case ActionTap:
		return nil, e.handleSetTapped(ac, tapOn)
	case ActionUntap:
		return nil, e.handleSetTapped(ac, tapOff)
	case ActionToggleTap:
		return nil, e.handleSetTapped(ac, tapToggle)
	case ActionUntapAll:
		return nil, e.handleUntapAll(ac)
	case ActionShuffleLibrary:
		return nil, e.handleShuffleLibrary(ac)
	case ActionMill:
		return nil, e.handleFromTop(ac, ZoneGraveyard)
	case ActionDraw:
		return nil, e.handleFromTop(ac, ZoneHand)
	case ActionExileFromTop:
		return nil, e.handleFromTop(ac, ZoneExile)
	case ActionLifeChange:
		return nil, e.handleLifeChange(ac)
	case ActionScry:
		return nil, e.handleScry(ac)
	case ActionSurveil:
		return nil, e.handleSurveil(ac)
	case ActionMoveToExile:
		return nil, e.handleMove(ac, ZoneExile)
	case ActionMoveToLibrary:
		return nil, e.handleMoveToLibrary(ac)
	case ActionMoveToHand:
		return nil, e.handleMove(ac, ZoneHand)
	case ActionMoveToBattlefield:
		return nil, e.handleMove(ac, ZoneBattlefield)
	case ActionMoveToGraveyard, ActionDiscard:
		return nil, e.handleMove(ac, ZoneGraveyard)
	case ActionAddCounter:
		return nil, e.handleCounter(ac, 1)
	case ActionRemoveCounter:
		return nil, e.handleCounter(ac, -1)
	case ActionCreateTokenCopy:
		return nil, e.handleCreateTokenCopy(ac)
	case ActionRemoveToken:
		return nil, e.handleRemoveToken(ac)
	case ActionCreateIndicator:
		return nil, e.handleCreateIndicator(ac)
	case ActionMoveIndicator:
		return nil, e.handleMoveIndicator(ac)
	case ActionDeleteIndicator:
		return nil, e.handleDeleteIndicator(ac)
	case ActionCast:
		return nil, e.handleCast(ac)
	case ActionEndTurn:
		return e.handleEndTurn(ac)
	}
	return nil, invalidMetadata("dispatch", "no handler for action kind %s", ac.kind)
}

func (e *Engine) appendAudit(ctx context.Context, tx Tx, sessionID int64, act Action, md Metadata, txnID string) (int64, error) {
	payload := act.Metadata
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage(`{}`)
	}
	entry := &AuditEntry{
		SessionID:      sessionID,
		Seat:           act.Seat,
		Kind:           act.Kind,
		TargetObjectID: md.ObjectID,
		Metadata:       payload,
		TransactionID:  txnID,
		CreatedAt:      e.now(),
	}
	id, err := tx.AppendAudit(ctx, entry)
	if err != nil {
		return 0, storeError("append_audit", err)
	}
	return id, nil
}

func loadSession(ctx context.Context, tx Tx, op string, sessionID int64) (*Session, error) {
	session, err := tx.Session(ctx, sessionID)
	if err != nil {
		err = storeError(op, err)
		if KindOf(err) == KindNotFound {
			return nil, notFound(op, "session %d not found", sessionID)
		}
		return nil, err
	}
	return session, nil
}
