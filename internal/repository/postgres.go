package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/thraizz/commander-table/internal/game"
	"github.com/thraizz/commander-table/internal/game/counters"
	"go.uber.org/zap"
)

// PostgresStore implements game.Store on a pgx pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a store on db.
func NewPostgresStore(db *DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: db.pool, logger: logger}
}

// InTx runs fn in one database transaction, committing when fn returns nil.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx game.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

var _ game.Viewer = (*PostgresStore)(nil)

// View runs fn in a read-only transaction.
func (s *PostgresStore) View(ctx context.Context, fn func(tx game.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

type pgTx struct {
	tx pgx.Tx
}

var _ game.Tx = (*pgTx)(nil)

// notFoundIfNone turns an update that matched no rows into game.ErrNotFound.
func notFoundIfNone(rows int64, what string, id int64) error {
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", what, id, game.ErrNotFound)
	}
	return nil
}

// ---- catalog ----

const cardColumns = `id, name, mana_cost, type_line, oracle_text, image_url, is_token`

func scanCard(row pgx.Row) (*game.Card, error) {
	var c game.Card
	if err := row.Scan(&c.ID, &c.Name, &c.ManaCost, &c.TypeLine, &c.OracleText, &c.ImageURL, &c.IsToken); err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *pgTx) Card(ctx context.Context, id int64) (*game.Card, error) {
	return scanCard(t.tx.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
}

func (t *pgTx) Cards(ctx context.Context, ids []int64) (map[int64]*game.Card, error) {
	out := make(map[int64]*game.Card, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := t.tx.Query(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (t *pgTx) TokenCards(ctx context.Context) ([]*game.Card, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+cardColumns+` FROM cards WHERE is_token ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query token cards: %w", err)
	}
	defer rows.Close()
	var out []*game.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *pgTx) Deck(ctx context.Context, id int64) (*game.Deck, error) {
	var d game.Deck
	err := t.tx.QueryRow(ctx, `SELECT id, name, commander_ids FROM decks WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.CommanderIDs)
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, `SELECT card_id, quantity FROM deck_cards WHERE deck_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query deck cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line game.DeckCard
		if err := rows.Scan(&line.CardID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan deck card: %w", err)
		}
		d.Cards = append(d.Cards, line)
	}
	return &d, rows.Err()
}

// ---- sessions ----

func (t *pgTx) CreateSession(ctx context.Context, s *game.Session) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO game_sessions (name, status, player_count, deck_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		s.Name, string(s.Status), s.PlayerCount, s.DeckIDs, s.CreatedAt, s.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

func (t *pgTx) Session(ctx context.Context, id int64) (*game.Session, error) {
	var s game.Session
	var status string
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, status, player_count, deck_ids, created_at, updated_at
		FROM game_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &status, &s.PlayerCount, &s.DeckIDs, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = game.SessionStatus(status)
	return &s, nil
}

func (t *pgTx) SetSessionDecks(ctx context.Context, id int64, deckIDs []int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE game_sessions SET deck_ids = $2 WHERE id = $1`, id, deckIDs)
	if err != nil {
		return fmt.Errorf("failed to update session decks: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "session", id)
}

func (t *pgTx) SetSessionStatus(ctx context.Context, id int64, status game.SessionStatus) error {
	tag, err := t.tx.Exec(ctx, `UPDATE game_sessions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "session", id)
}

func (t *pgTx) TouchSession(ctx context.Context, id int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE game_sessions SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "session", id)
}

// ---- state ----

const stateColumns = `session_id, life_seat1, life_seat2, life_seat3, life_seat4, commander_damage, active_seat, turn_number`

func scanState(row pgx.Row) (*game.State, error) {
	var st game.State
	var damage []byte
	err := row.Scan(&st.SessionID, &st.Life[0], &st.Life[1], &st.Life[2], &st.Life[3], &damage, &st.ActiveSeat, &st.TurnNumber)
	if err != nil {
		return nil, err
	}
	st.CommanderDamage = make(map[int]map[int]int)
	if len(damage) > 0 {
		if err := json.Unmarshal(damage, &st.CommanderDamage); err != nil {
			return nil, fmt.Errorf("failed to decode commander damage: %w", err)
		}
	}
	return &st, nil
}

func (t *pgTx) LockState(ctx context.Context, sessionID int64) (*game.State, error) {
	return scanState(t.tx.QueryRow(ctx, `SELECT `+stateColumns+` FROM game_states WHERE session_id = $1 FOR UPDATE`, sessionID))
}

func (t *pgTx) State(ctx context.Context, sessionID int64) (*game.State, error) {
	return scanState(t.tx.QueryRow(ctx, `SELECT `+stateColumns+` FROM game_states WHERE session_id = $1`, sessionID))
}

func (t *pgTx) InsertState(ctx context.Context, st *game.State) error {
	damage, err := json.Marshal(st.CommanderDamage)
	if err != nil {
		return fmt.Errorf("failed to encode commander damage: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO game_states (`+stateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		st.SessionID, st.Life[0], st.Life[1], st.Life[2], st.Life[3], string(damage), st.ActiveSeat, st.TurnNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to insert state: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteState(ctx context.Context, sessionID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM game_states WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// lifeColumns keeps seat numbers out of SQL text.
var lifeColumns = [game.MaxSeats]string{"life_seat1", "life_seat2", "life_seat3", "life_seat4"}

func (t *pgTx) AddLife(ctx context.Context, sessionID int64, seat, delta int) error {
	if seat < 1 || seat > game.MaxSeats {
		return fmt.Errorf("seat %d out of range", seat)
	}
	col := lifeColumns[seat-1]
	tag, err := t.tx.Exec(ctx, `UPDATE game_states SET `+col+` = `+col+` + $2 WHERE session_id = $1`, sessionID, delta)
	if err != nil {
		return fmt.Errorf("failed to update life: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "state", sessionID)
}

func (t *pgTx) SetCommanderDamage(ctx context.Context, sessionID int64, damage map[int]map[int]int) error {
	raw, err := json.Marshal(damage)
	if err != nil {
		return fmt.Errorf("failed to encode commander damage: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `UPDATE game_states SET commander_damage = $2::jsonb WHERE session_id = $1`, sessionID, string(raw))
	if err != nil {
		return fmt.Errorf("failed to update commander damage: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "state", sessionID)
}

func (t *pgTx) AdvanceTurn(ctx context.Context, sessionID int64, fromTurn, nextSeat int) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE game_states SET active_seat = $3, turn_number = turn_number + 1
		WHERE session_id = $1 AND turn_number = $2`,
		sessionID, fromTurn, nextSeat,
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance turn: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ---- objects ----

const objectColumns = `id, session_id, seat, zone, card_id, is_token, is_tapped, is_flipped, counters, pos_x, pos_y, "order"`

func scanObject(row pgx.Row) (*game.Object, error) {
	var obj game.Object
	var zone string
	var rawCounters []byte
	var x, y *float64
	err := row.Scan(&obj.ID, &obj.SessionID, &obj.Seat, &zone, &obj.CardID,
		&obj.IsToken, &obj.IsTapped, &obj.IsFlipped, &rawCounters, &x, &y, &obj.Order)
	if err != nil {
		return nil, err
	}
	obj.Zone = game.Zone(zone)
	obj.Counters = counters.New()
	if len(rawCounters) > 0 {
		if err := json.Unmarshal(rawCounters, &obj.Counters); err != nil {
			return nil, fmt.Errorf("failed to decode counters: %w", err)
		}
	}
	if x != nil && y != nil {
		obj.Position = &game.Position{X: *x, Y: *y}
	}
	return &obj, nil
}

func collectObjects(rows pgx.Rows) ([]*game.Object, error) {
	defer rows.Close()
	var out []*game.Object
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

func positionArgs(pos *game.Position) (x, y *float64) {
	if pos == nil {
		return nil, nil
	}
	px, py := pos.X, pos.Y
	return &px, &py
}

func (t *pgTx) Object(ctx context.Context, sessionID, objectID int64) (*game.Object, error) {
	return scanObject(t.tx.QueryRow(ctx,
		`SELECT `+objectColumns+` FROM game_objects WHERE session_id = $1 AND id = $2`, sessionID, objectID))
}

func (t *pgTx) Objects(ctx context.Context, sessionID int64) ([]*game.Object, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+objectColumns+` FROM game_objects WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	return collectObjects(rows)
}

func (t *pgTx) ZoneObjects(ctx context.Context, sessionID int64, seat int, zone game.Zone) ([]*game.Object, error) {
	orderBy := `id`
	if zone == game.ZoneLibrary {
		orderBy = `"order", id`
	}
	rows, err := t.tx.Query(ctx,
		`SELECT `+objectColumns+` FROM game_objects
		WHERE session_id = $1 AND seat = $2 AND zone = $3
		ORDER BY `+orderBy, sessionID, seat, string(zone))
	if err != nil {
		return nil, fmt.Errorf("failed to query zone: %w", err)
	}
	return collectObjects(rows)
}

// InsertObjects sends every insert in one batch and fills in the new ids.
func (t *pgTx) InsertObjects(ctx context.Context, objs []*game.Object) error {
	batch := &pgx.Batch{}
	for _, obj := range objs {
		raw, err := json.Marshal(obj.Counters.Copy())
		if err != nil {
			return fmt.Errorf("failed to encode counters: %w", err)
		}
		x, y := positionArgs(obj.Position)
		batch.Queue(`
			INSERT INTO game_objects (session_id, seat, zone, card_id, is_token, is_tapped, is_flipped, counters, pos_x, pos_y, "order")
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11)
			RETURNING id`,
			obj.SessionID, obj.Seat, string(obj.Zone), obj.CardID, obj.IsToken, obj.IsTapped, obj.IsFlipped,
			string(raw), x, y, obj.Order,
		)
	}

	results := t.tx.SendBatch(ctx, batch)
	for i, obj := range objs {
		if err := results.QueryRow().Scan(&obj.ID); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert object %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to insert objects: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateZone(ctx context.Context, sessionID, objectID int64, zone game.Zone, pos *game.Position) error {
	x, y := positionArgs(pos)
	tag, err := t.tx.Exec(ctx, `
		UPDATE game_objects SET zone = $3, pos_x = $4, pos_y = $5
		WHERE session_id = $1 AND id = $2`,
		sessionID, objectID, string(zone), x, y,
	)
	if err != nil {
		return fmt.Errorf("failed to update zone: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "object", objectID)
}

func (t *pgTx) UpdateFlag(ctx context.Context, sessionID, objectID int64, flag game.Flag, value bool) error {
	var col string
	switch flag {
	case game.FlagTapped:
		col = "is_tapped"
	case game.FlagFlipped:
		col = "is_flipped"
	default:
		return fmt.Errorf("unknown flag %q", flag)
	}
	tag, err := t.tx.Exec(ctx, `UPDATE game_objects SET `+col+` = $3 WHERE session_id = $1 AND id = $2`, sessionID, objectID, value)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", col, err)
	}
	return notFoundIfNone(tag.RowsAffected(), "object", objectID)
}

func (t *pgTx) UpdateCounters(ctx context.Context, sessionID, objectID int64, c counters.Counters) error {
	raw, err := json.Marshal(c.Copy())
	if err != nil {
		return fmt.Errorf("failed to encode counters: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `UPDATE game_objects SET counters = $3::jsonb WHERE session_id = $1 AND id = $2`, sessionID, objectID, string(raw))
	if err != nil {
		return fmt.Errorf("failed to update counters: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "object", objectID)
}

// UpdateOrders writes every order in one statement.
func (t *pgTx) UpdateOrders(ctx context.Context, sessionID int64, ids []int64, orders []int) error {
	if len(ids) != len(orders) {
		return fmt.Errorf("ids and orders differ in length: %d != %d", len(ids), len(orders))
	}
	ords := make([]int32, len(orders))
	for i, o := range orders {
		ords[i] = int32(o)
	}
	_, err := t.tx.Exec(ctx, `
		UPDATE game_objects AS o SET "order" = v.ord
		FROM unnest($2::bigint[], $3::int[]) AS v(id, ord)
		WHERE o.session_id = $1 AND o.id = v.id`,
		sessionID, ids, ords,
	)
	if err != nil {
		return fmt.Errorf("failed to update library order: %w", err)
	}
	return nil
}

func (t *pgTx) UntapAll(ctx context.Context, sessionID int64, seat int) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
		UPDATE game_objects SET is_tapped = FALSE
		WHERE session_id = $1 AND seat = $2 AND zone = 'battlefield' AND is_tapped`,
		sessionID, seat,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to untap: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) DeleteObject(ctx context.Context, sessionID, objectID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM game_objects WHERE session_id = $1 AND id = $2`, sessionID, objectID)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "object", objectID)
}

func (t *pgTx) DeleteObjects(ctx context.Context, sessionID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM game_objects WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}
	return nil
}

// ---- indicators ----

func (t *pgTx) InsertIndicator(ctx context.Context, ind *game.Indicator) error {
	err := t.tx.QueryRow(ctx, `
		INSERT INTO indicators (session_id, seat, pos_x, pos_y, color)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		ind.SessionID, ind.Seat, ind.Position.X, ind.Position.Y, ind.Color,
	).Scan(&ind.ID)
	if err != nil {
		return fmt.Errorf("failed to insert indicator: %w", err)
	}
	return nil
}

func (t *pgTx) MoveIndicator(ctx context.Context, sessionID int64, seat int, id int64, pos game.Position) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE indicators SET pos_x = $4, pos_y = $5
		WHERE session_id = $1 AND seat = $2 AND id = $3`,
		sessionID, seat, id, pos.X, pos.Y,
	)
	if err != nil {
		return fmt.Errorf("failed to move indicator: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "indicator", id)
}

func (t *pgTx) DeleteIndicator(ctx context.Context, sessionID int64, seat int, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM indicators WHERE session_id = $1 AND seat = $2 AND id = $3`, sessionID, seat, id)
	if err != nil {
		return fmt.Errorf("failed to delete indicator: %w", err)
	}
	return notFoundIfNone(tag.RowsAffected(), "indicator", id)
}

func (t *pgTx) Indicators(ctx context.Context, sessionID int64) ([]*game.Indicator, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, session_id, seat, pos_x, pos_y, color
		FROM indicators WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicators: %w", err)
	}
	defer rows.Close()
	var out []*game.Indicator
	for rows.Next() {
		var ind game.Indicator
		if err := rows.Scan(&ind.ID, &ind.SessionID, &ind.Seat, &ind.Position.X, &ind.Position.Y, &ind.Color); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		out = append(out, &ind)
	}
	return out, rows.Err()
}

func (t *pgTx) DeleteIndicators(ctx context.Context, sessionID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM indicators WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete indicators: %w", err)
	}
	return nil
}

// ---- audit ----

const auditColumns = `id, session_id, seat, action_type, target_object_id, metadata::text, COALESCE(transaction_id::text, ''), created_at`

func scanAudit(row pgx.Row) (*game.AuditEntry, error) {
	var entry game.AuditEntry
	var kind, metadata string
	err := row.Scan(&entry.ID, &entry.SessionID, &entry.Seat, &kind, &entry.TargetObjectID,
		&metadata, &entry.TransactionID, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := entry.Kind.UnmarshalText([]byte(kind)); err != nil {
		return nil, fmt.Errorf("audit row %d: %w", entry.ID, err)
	}
	entry.Metadata = json.RawMessage(metadata)
	return &entry, nil
}

func collectAudit(rows pgx.Rows) ([]*game.AuditEntry, error) {
	defer rows.Close()
	var out []*game.AuditEntry
	for rows.Next() {
		entry, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (t *pgTx) AppendAudit(ctx context.Context, entry *game.AuditEntry) (int64, error) {
	var txnID *string
	if entry.TransactionID != "" {
		txnID = &entry.TransactionID
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO game_actions (session_id, seat, action_type, target_object_id, metadata, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::text::uuid, $7)
		RETURNING id`,
		entry.SessionID, entry.Seat, entry.Kind.String(), entry.TargetObjectID, string(entry.Metadata), txnID, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to append audit row: %w", err)
	}
	return entry.ID, nil
}

func (t *pgTx) AuditPage(ctx context.Context, sessionID int64, limit, offset int) ([]*game.AuditEntry, int, error) {
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM game_actions WHERE session_id = $1`, sessionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit rows: %w", err)
	}
	if offset < 0 || offset >= total {
		return nil, total, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT `+auditColumns+` FROM game_actions
		WHERE session_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		sessionID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audit page: %w", err)
	}
	entries, err := collectAudit(rows)
	return entries, total, err
}

func (t *pgTx) AuditEntries(ctx context.Context, sessionID int64) ([]*game.AuditEntry, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+auditColumns+` FROM game_actions WHERE session_id = $1 ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	return collectAudit(rows)
}

func (t *pgTx) DeleteAudit(ctx context.Context, sessionID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM game_actions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete audit rows: %w", err)
	}
	return nil
}
