package game

import (
	"encoding/json"
	"strings"
)

// DefaultIndicatorColor is used when create_indicator names no color.
const DefaultIndicatorColor = "red"

// handleLifeChange adds a signed amount to a seat's life total. When
// commander_seat is set, life lost is also recorded as commander damage from
// that seat.
func (e *Engine) handleLifeChange(ac *actionContext) error {
	if ac.md.Amount == nil {
		return invalidMetadata(ac.op(), "amount is required")
	}
	amount := *ac.md.Amount
	seat, err := ac.targetSeat()
	if err != nil {
		return err
	}
	if ac.md.CommanderSeat != nil && !ac.session.ValidSeat(*ac.md.CommanderSeat) {
		return invalidMetadata(ac.op(), "commander_seat %d is not at this table", *ac.md.CommanderSeat)
	}

	if err := ac.tx.AddLife(ac.ctx, ac.session.ID, seat, amount); err != nil {
		return storeError(ac.op(), err)
	}
	if ac.md.CommanderSeat == nil || amount >= 0 {
		return nil
	}

	st, err := ac.tx.State(ac.ctx, ac.session.ID)
	if err != nil {
		return storeError(ac.op(), err)
	}
	damage := copyCommanderDamage(st.CommanderDamage)
	if damage[seat] == nil {
		damage[seat] = make(map[int]int)
	}
	damage[seat][*ac.md.CommanderSeat] += -amount
	if err := ac.tx.SetCommanderDamage(ac.ctx, ac.session.ID, damage); err != nil {
		return storeError(ac.op(), err)
	}
	return nil
}

func copyCommanderDamage(src map[int]map[int]int) map[int]map[int]int {
	out := make(map[int]map[int]int, len(src))
	for target, bySource := range src {
		inner := make(map[int]int, len(bySource))
		for source, amount := range bySource {
			inner[source] = amount
		}
		out[target] = inner
	}
	return out
}

func (e *Engine) handleCreateIndicator(ac *actionContext) error {
	if ac.md.Position == nil {
		return invalidMetadata(ac.op(), "position is required")
	}
	color := strings.TrimSpace(ac.md.Color)
	if color == "" {
		color = DefaultIndicatorColor
	}
	ind := &Indicator{
		SessionID: ac.session.ID,
		Seat:      ac.seat,
		Position:  *ac.md.Position,
		Color:     color,
	}
	if err := ac.tx.InsertIndicator(ac.ctx, ind); err != nil {
		return storeError(ac.op(), err)
	}
	return nil
}

// handleMoveIndicator only moves indicators owned by the acting seat.
func (e *Engine) handleMoveIndicator(ac *actionContext) error {
	if ac.md.IndicatorID == nil {
		return invalidMetadata(ac.op(), "indicator_id is required")
	}
	if ac.md.Position == nil {
		return invalidMetadata(ac.op(), "position is required")
	}
	err := ac.tx.MoveIndicator(ac.ctx, ac.session.ID, ac.seat, *ac.md.IndicatorID, *ac.md.Position)
	return indicatorError(ac, err)
}

// handleDeleteIndicator only deletes indicators owned by the acting seat.
func (e *Engine) handleDeleteIndicator(ac *actionContext) error {
	if ac.md.IndicatorID == nil {
		return invalidMetadata(ac.op(), "indicator_id is required")
	}
	err := ac.tx.DeleteIndicator(ac.ctx, ac.session.ID, ac.seat, *ac.md.IndicatorID)
	return indicatorError(ac, err)
}

func indicatorError(ac *actionContext, err error) error {
	err = storeError(ac.op(), err)
	if KindOf(err) == KindNotFound {
		return notFound(ac.op(), "indicator %d not found for seat %d", *ac.md.IndicatorID, ac.seat)
	}
	return err
}

// handleEndTurn passes the turn to the next seat and cascades into untapping
// and drawing for the new active seat. The turn advance is a compare-and-swap
// on turn_number, so two racing end_turn calls cannot both advance.
func (e *Engine) handleEndTurn(ac *actionContext) ([]Action, error) {
	st, err := ac.tx.State(ac.ctx, ac.session.ID)
	if err != nil {
		return nil, storeError(ac.op(), err)
	}
	next := st.ActiveSeat%ac.session.PlayerCount + 1

	advanced, err := ac.tx.AdvanceTurn(ac.ctx, ac.session.ID, st.TurnNumber, next)
	if err != nil {
		return nil, storeError(ac.op(), err)
	}
	if !advanced {
		return nil, invalidState(ac.op(), "turn %d was already ended", st.TurnNumber)
	}

	return []Action{
		{Kind: ActionUntapAll, Seat: next, Metadata: json.RawMessage(`{}`)},
		{Kind: ActionDraw, Seat: next, Metadata: json.RawMessage(`{"count":1}`)},
	}, nil
}
