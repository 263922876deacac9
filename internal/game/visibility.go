package game

import (
	"context"
	"sort"

	"github.com/thraizz/commander-table/internal/game/counters"
)

// ProjectedObject is an object as one viewer may see it. Card and CardID are
// nil when the object sits in another seat's hand or library.
type ProjectedObject struct {
	ID        int64                  `json:"id"`
	Seat      int                    `json:"seat"`
	Zone      Zone                   `json:"zone"`
	CardID    *int64                 `json:"card_id"`
	Card      *Card                  `json:"card"`
	IsToken   bool                   `json:"is_token"`
	IsTapped  bool                   `json:"is_tapped"`
	IsFlipped bool                   `json:"is_flipped"`
	Counters  []counters.CounterView `json:"counters"`
	Position  *Position              `json:"position,omitempty"`
	Order     *int                   `json:"order,omitempty"`
}

// SeatView is the public per-seat summary.
type SeatView struct {
	Seat            int         `json:"seat"`
	Life            int         `json:"life"`
	CommanderDamage map[int]int `json:"commander_damage"`
	HandCount       int         `json:"hand_count"`
	LibraryCount    int         `json:"library_count"`
}

// ProjectedState is the full table as seen from one seat.
type ProjectedState struct {
	SessionID  int64             `json:"session_id"`
	Status     SessionStatus     `json:"status"`
	ViewerSeat int               `json:"viewer_seat"`
	ActiveSeat int               `json:"active_seat"`
	TurnNumber int               `json:"turn_number"`
	Seats      []SeatView        `json:"seats"`
	Objects    []ProjectedObject `json:"objects"`
	Indicators []Indicator       `json:"indicators"`
	Checksum   string            `json:"checksum"`
}

// Visible reports whether viewer may see the card identity of obj. Hands and
// libraries are private to their owner; every other zone is public.
func Visible(obj *Object, viewer int) bool {
	return obj.Seat == viewer || !obj.Zone.Hidden()
}

// Project redacts objects for viewer. Identity, zone, flags, counters and
// position always pass through; card data and library order only when
// Visible.
func Project(objs []*Object, cards map[int64]*Card, viewer int) []ProjectedObject {
	out := make([]ProjectedObject, 0, len(objs))
	for _, obj := range objs {
		po := ProjectedObject{
			ID:        obj.ID,
			Seat:      obj.Seat,
			Zone:      obj.Zone,
			IsToken:   obj.IsToken,
			IsTapped:  obj.IsTapped,
			IsFlipped: obj.IsFlipped,
			Counters:  obj.Counters.ToView(),
		}
		if obj.Position != nil {
			p := *obj.Position
			po.Position = &p
		}
		if Visible(obj, viewer) {
			if obj.Zone == ZoneLibrary {
				order := obj.Order
				po.Order = &order
			}
			cardID := obj.CardID
			po.CardID = &cardID
			if card, ok := cards[obj.CardID]; ok {
				c := *card
				po.Card = &c
			}
		}
		out = append(out, po)
	}
	return out
}

// ProjectedState loads a session and projects it for viewerSeat.
func (e *Engine) ProjectedState(ctx context.Context, sessionID int64, viewerSeat int) (*ProjectedState, error) {
	const op = "projected_state"
	var view *ProjectedState
	err := readOnly(ctx, e.store, func(tx Tx) error {
		session, err := loadSession(ctx, tx, op, sessionID)
		if err != nil {
			return err
		}
		if !session.ValidSeat(viewerSeat) {
			return invalidMetadata(op, "seat %d is not at this table", viewerSeat)
		}
		st, err := tx.State(ctx, sessionID)
		if err != nil {
			err = storeError(op, err)
			if KindOf(err) == KindNotFound {
				return invalidState(op, "session %d has not been initialized", sessionID)
			}
			return err
		}
		objs, err := tx.Objects(ctx, sessionID)
		if err != nil {
			return storeError(op, err)
		}
		indicators, err := tx.Indicators(ctx, sessionID)
		if err != nil {
			return storeError(op, err)
		}

		// only fetch cards the viewer is allowed to see
		needed := make(map[int64]bool)
		for _, obj := range objs {
			if Visible(obj, viewerSeat) {
				needed[obj.CardID] = true
			}
		}
		ids := make([]int64, 0, len(needed))
		for id := range needed {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		cards, err := tx.Cards(ctx, ids)
		if err != nil {
			return storeError(op, err)
		}

		view = &ProjectedState{
			SessionID:  session.ID,
			Status:     session.Status,
			ViewerSeat: viewerSeat,
			ActiveSeat: st.ActiveSeat,
			TurnNumber: st.TurnNumber,
			Seats:      seatViews(session, st, objs),
			Objects:    Project(objs, cards, viewerSeat),
			Indicators: make([]Indicator, 0, len(indicators)),
		}
		for _, ind := range indicators {
			view.Indicators = append(view.Indicators, *ind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view.Checksum = view.ComputeChecksum()
	return view, nil
}

func seatViews(session *Session, st *State, objs []*Object) []SeatView {
	views := make([]SeatView, session.PlayerCount)
	for i := range views {
		seat := i + 1
		damage := make(map[int]int, len(st.CommanderDamage[seat]))
		for source, amount := range st.CommanderDamage[seat] {
			damage[source] = amount
		}
		views[i] = SeatView{Seat: seat, Life: st.LifeOf(seat), CommanderDamage: damage}
	}
	for _, obj := range objs {
		if obj.Seat < 1 || obj.Seat > len(views) {
			continue
		}
		switch obj.Zone {
		case ZoneHand:
			views[obj.Seat-1].HandCount++
		case ZoneLibrary:
			views[obj.Seat-1].LibraryCount++
		}
	}
	return views
}
