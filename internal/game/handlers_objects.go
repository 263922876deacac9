package game

import "strings"

type tapMode int

const (
	tapOn tapMode = iota
	tapOff
	tapToggle
)

func (e *Engine) handleSetTapped(ac *actionContext, mode tapMode) error {
	objectID, err := ac.md.requireObject(ac.op())
	if err != nil {
		return err
	}
	obj, err := ac.objects.get(ac.ctx, ac.op(), objectID)
	if err != nil {
		return err
	}
	value := mode == tapOn
	if mode == tapToggle {
		value = !obj.IsTapped
	}
	return ac.objects.SetFlag(ac.ctx, obj, FlagTapped, value)
}

func (e *Engine) handleUntapAll(ac *actionContext) error {
	seat, err := ac.targetSeat()
	if err != nil {
		return err
	}
	_, err = ac.objects.UntapAll(ac.ctx, seat)
	return err
}

// handleMove covers move_to_hand, move_to_graveyard, discard, move_to_exile
// and move_to_battlefield. Tokens sent to a hand or graveyard are destroyed.
func (e *Engine) handleMove(ac *actionContext, dest Zone) error {
	objectID, err := ac.md.requireObject(ac.op())
	if err != nil {
		return err
	}
	obj, err := ac.objects.get(ac.ctx, ac.op(), objectID)
	if err != nil {
		return err
	}

	var pos *Position
	if dest == ZoneBattlefield {
		pos = e.placement(ac.md.Position, obj.Position)
	}
	_, err = ac.objects.Relocate(ac.ctx, obj, dest, pos)
	return err
}

// handleCast puts a card from the command zone or a hand onto the battlefield.
func (e *Engine) handleCast(ac *actionContext) error {
	objectID, err := ac.md.requireObject(ac.op())
	if err != nil {
		return err
	}
	obj, err := ac.objects.get(ac.ctx, ac.op(), objectID)
	if err != nil {
		return err
	}
	if obj.Zone != ZoneCommand && obj.Zone != ZoneHand {
		return invalidState(ac.op(), "object %d is in %s, only command_zone or hand can be cast", obj.ID, obj.Zone)
	}
	return ac.objects.Move(ac.ctx, obj, ZoneBattlefield, e.placement(ac.md.Position, nil))
}

// placement picks the requested position, then the current one, then the
// configured default.
func (e *Engine) placement(requested, current *Position) *Position {
	switch {
	case requested != nil:
		p := *requested
		return &p
	case current != nil:
		p := *current
		return &p
	}
	p := e.settings.DefaultCastPosition
	return &p
}

// handleCounter adds (sign 1) or removes (sign -1) counters; amount defaults to 1.
func (e *Engine) handleCounter(ac *actionContext, sign int) error {
	objectID, err := ac.md.requireObject(ac.op())
	if err != nil {
		return err
	}
	counterType := strings.TrimSpace(ac.md.CounterType)
	if counterType == "" {
		return invalidMetadata(ac.op(), "counter_type is required")
	}
	amount := intOr(ac.md.Amount, 1)
	if amount < 1 {
		return invalidMetadata(ac.op(), "amount must be positive, got %d", amount)
	}
	obj, err := ac.objects.get(ac.ctx, ac.op(), objectID)
	if err != nil {
		return err
	}
	return ac.objects.AddCounter(ac.ctx, obj, counterType, sign*amount)
}

// handleCreateTokenCopy creates quantity battlefield tokens of a resolved
// card, each placed one offset step further from the requested position.
// Repeating the action creates more tokens.
func (e *Engine) handleCreateTokenCopy(ac *actionContext) error {
	quantity := intOr(ac.md.Quantity, 1)
	if quantity < 1 || quantity > e.settings.MaxTokenCopies {
		return invalidMetadata(ac.op(), "quantity must be between 1 and %d, got %d", e.settings.MaxTokenCopies, quantity)
	}
	cardID, err := e.resolveTokenCard(ac)
	if err != nil {
		return err
	}

	base := *e.placement(ac.md.Position, nil)
	tokens := make([]*Object, quantity)
	for i := range tokens {
		pos := base.Offset(float64(i) * e.settings.TokenOffset)
		tokens[i] = &Object{
			SessionID: ac.session.ID,
			Seat:      ac.seat,
			Zone:      ZoneBattlefield,
			CardID:    cardID,
			IsToken:   true,
			Position:  &pos,
		}
	}
	return ac.objects.Create(ac.ctx, tokens)
}

// resolveTokenCard finds the card a token copy should use: the card of a
// battlefield source object, an explicit card id or a token name.
func (e *Engine) resolveTokenCard(ac *actionContext) (int64, error) {
	switch {
	case ac.md.SourceObjectID != nil:
		src, err := ac.objects.get(ac.ctx, ac.op(), *ac.md.SourceObjectID)
		if err != nil {
			return 0, err
		}
		if src.Zone != ZoneBattlefield {
			return 0, invalidState(ac.op(), "source object %d is not on the battlefield", src.ID)
		}
		return src.CardID, nil
	case ac.md.TokenCardID != nil:
		if card, ok := e.tokens.Lookup(*ac.md.TokenCardID); ok {
			return card.ID, nil
		}
		card, err := ac.tx.Card(ac.ctx, *ac.md.TokenCardID)
		if err != nil {
			err = storeError(ac.op(), err)
			if KindOf(err) == KindNotFound {
				return 0, notFound(ac.op(), "card %d not found", *ac.md.TokenCardID)
			}
			return 0, err
		}
		return card.ID, nil
	case ac.md.TokenName != "":
		card, ok := e.tokens.LookupName(ac.md.TokenName)
		if !ok {
			return 0, notFound(ac.op(), "token %q not found", ac.md.TokenName)
		}
		return card.ID, nil
	}
	return 0, invalidMetadata(ac.op(), "source_object_id, token_card_id or token_name is required")
}

func (e *Engine) handleRemoveToken(ac *actionContext) error {
	objectID, err := ac.md.requireObject(ac.op())
	if err != nil {
		return err
	}
	obj, err := ac.objects.get(ac.ctx, ac.op(), objectID)
	if err != nil {
		return err
	}
	if !obj.IsToken {
		return invalidState(ac.op(), "object %d is not a token", obj.ID)
	}
	return ac.objects.Destroy(ac.ctx, obj)
}
