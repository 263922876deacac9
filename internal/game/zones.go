package game

import (
	"context"

	"github.com/thraizz/commander-table/internal/game/counters"
	"go.uber.org/zap"
)

// objectModel is the only path through which action handlers change objects.
// Zone changes never touch library order; callers that care about order set
// it explicitly through the transaction.
type objectModel struct {
	tx        Tx
	sessionID int64
	logger    *zap.Logger
}

func newObjectModel(tx Tx, sessionID int64, logger *zap.Logger) *objectModel {
	return &objectModel{tx: tx, sessionID: sessionID, logger: logger}
}

// get loads an object of the model's session.
func (m *objectModel) get(ctx context.Context, op string, objectID int64) (*Object, error) {
	obj, err := m.tx.Object(ctx, m.sessionID, objectID)
	if err != nil {
		err = storeError(op, err)
		if KindOf(err) == KindNotFound {
			return nil, notFound(op, "object %d not found", objectID)
		}
		return nil, err
	}
	return obj, nil
}

// Move rewrites the object's zone. pos is kept only for the battlefield;
// any other destination clears the position.
func (m *objectModel) Move(ctx context.Context, obj *Object, zone Zone, pos *Position) error {
	if zone != ZoneBattlefield {
		pos = nil
	}
	if err := m.tx.UpdateZone(ctx, m.sessionID, obj.ID, zone, pos); err != nil {
		return storeError("move", err)
	}
	if m.logger != nil {
		m.logger.Debug("moved object",
			zap.Int64("session_id", m.sessionID),
			zap.Int64("object_id", obj.ID),
			zap.String("source_zone", string(obj.Zone)),
			zap.String("target_zone", string(zone)),
		)
	}
	obj.Zone = zone
	obj.Position = pos
	return nil
}

// Relocate moves obj to zone, destroying it instead when it is a token
// headed for a hand or graveyard. It reports whether the object was destroyed.
func (m *objectModel) Relocate(ctx context.Context, obj *Object, zone Zone, pos *Position) (bool, error) {
	if obj.IsToken && (zone == ZoneHand || zone == ZoneGraveyard) {
		return true, m.Destroy(ctx, obj)
	}
	return false, m.Move(ctx, obj, zone, pos)
}

// SetFlag sets a boolean flag. Setting a flag to its current value is a no-op.
func (m *objectModel) SetFlag(ctx context.Context, obj *Object, flag Flag, value bool) error {
	current := obj.IsTapped
	if flag == FlagFlipped {
		current = obj.IsFlipped
	}
	if current == value {
		return nil
	}
	if err := m.tx.UpdateFlag(ctx, m.sessionID, obj.ID, flag, value); err != nil {
		return storeError("set_flag", err)
	}
	switch flag {
	case FlagTapped:
		obj.IsTapped = value
	case FlagFlipped:
		obj.IsFlipped = value
	}
	return nil
}

// AddCounter adds delta (possibly negative) counters of the given type.
// Counts clamp at zero and a type at zero is removed.
func (m *objectModel) AddCounter(ctx context.Context, obj *Object, counterType string, delta int) error {
	next := obj.Counters.Apply(counterType, delta)
	if err := m.tx.UpdateCounters(ctx, m.sessionID, obj.ID, next); err != nil {
		return storeError("set_counter", err)
	}
	obj.Counters = next
	return nil
}

// Destroy removes the object row.
func (m *objectModel) Destroy(ctx context.Context, obj *Object) error {
	if err := m.tx.DeleteObject(ctx, m.sessionID, obj.ID); err != nil {
		return storeError("destroy", err)
	}
	if m.logger != nil {
		m.logger.Debug("destroyed object",
			zap.Int64("session_id", m.sessionID),
			zap.Int64("object_id", obj.ID),
			zap.Bool("token", obj.IsToken),
		)
	}
	return nil
}

// library returns a seat's library, top first.
func (m *objectModel) library(ctx context.Context, seat int) ([]*Object, error) {
	objs, err := m.tx.ZoneObjects(ctx, m.sessionID, seat, ZoneLibrary)
	if err != nil {
		return nil, storeError("library", err)
	}
	return objs, nil
}

// reorderLibrary writes order = index for every id in one batched statement.
func (m *objectModel) reorderLibrary(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	orders := make([]int, len(ids))
	for i := range ids {
		orders[i] = i
	}
	if err := m.tx.UpdateOrders(ctx, m.sessionID, ids, orders); err != nil {
		return storeError("reorder_library", err)
	}
	return nil
}

// SetOrder places a library object at order.
func (m *objectModel) SetOrder(ctx context.Context, obj *Object, order int) error {
	if err := m.tx.UpdateOrders(ctx, m.sessionID, []int64{obj.ID}, []int{order}); err != nil {
		return storeError("set_order", err)
	}
	obj.Order = order
	return nil
}

// UntapAll clears is_tapped on every battlefield object of seat in one write.
func (m *objectModel) UntapAll(ctx context.Context, seat int) (int64, error) {
	n, err := m.tx.UntapAll(ctx, m.sessionID, seat)
	if err != nil {
		return 0, storeError("untap_all", err)
	}
	return n, nil
}

// Create inserts new objects and fills in their ids.
func (m *objectModel) Create(ctx context.Context, objs []*Object) error {
	if len(objs) == 0 {
		return nil
	}
	for _, obj := range objs {
		obj.SessionID = m.sessionID
		if obj.Counters == nil {
			obj.Counters = counters.New()
		}
	}
	if err := m.tx.InsertObjects(ctx, objs); err != nil {
		return storeError("create_objects", err)
	}
	return nil
}
