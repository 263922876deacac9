package game

import "context"

// handleFromTop moves the top count cards of the target seat's library to
// dest. Asking for more cards than remain moves what is there.
func (e *Engine) handleFromTop(ac *actionContext, dest Zone) error {
	count, err := ac.md.countOr(ac.op(), 1)
	if err != nil {
		return err
	}
	seat, err := ac.targetSeat()
	if err != nil {
		return err
	}
	_, err = e.moveFromTop(ac.ctx, ac.objects, seat, count, dest)
	return err
}

// moveFromTop returns the number of cards actually moved.
func (e *Engine) moveFromTop(ctx context.Context, m *objectModel, seat, count int, dest Zone) (int, error) {
	if count == 0 {
		return 0, nil
	}
	library, err := m.library(ctx, seat)
	if err != nil {
		return 0, err
	}
	if count > len(library) {
		count = len(library)
	}
	for _, obj := range library[:count] {
		if _, err := m.Relocate(ctx, obj, dest, nil); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (e *Engine) handleShuffleLibrary(ac *actionContext) error {
	seat, err := ac.targetSeat()
	if err != nil {
		return err
	}
	return e.shuffleLibrary(ac.ctx, ac.objects, seat)
}

func (e *Engine) shuffleLibrary(ctx context.Context, m *objectModel, seat int) error {
	library, err := m.library(ctx, seat)
	if err != nil {
		return err
	}
	ids := make([]int64, len(library))
	for i, obj := range library {
		ids[i] = obj.ID
	}
	return m.reorderLibrary(ctx, Riffle(ids, e.settings.ShufflePasses, e.rng))
}

// handleScry rearranges the top of the library: cards listed in top take the
// first positions in the given sequence, unlisted cards keep their relative
// order right after them and cards listed in bottom take the last positions.
func (e *Engine) handleScry(ac *actionContext) error {
	if len(ac.md.Top) == 0 && len(ac.md.Bottom) == 0 {
		return nil
	}
	library, err := e.lookedAt(ac, ac.md.Top, ac.md.Bottom)
	if err != nil {
		return err
	}
	return ac.objects.reorderLibrary(ac.ctx, arrange(library, ac.md.Top, ac.md.Bottom))
}

// handleSurveil is scry with a graveyard instead of a bottom: listed
// graveyard cards leave the library, the rest is ordered as for scry.
func (e *Engine) handleSurveil(ac *actionContext) error {
	if len(ac.md.Top) == 0 && len(ac.md.Graveyard) == 0 {
		return nil
	}
	library, err := e.lookedAt(ac, ac.md.Top, ac.md.Graveyard)
	if err != nil {
		return err
	}

	binned := make(map[int64]bool, len(ac.md.Graveyard))
	for _, id := range ac.md.Graveyard {
		binned[id] = true
	}
	remaining := make([]*Object, 0, len(library))
	var toGraveyard []*Object
	for _, obj := range library {
		if binned[obj.ID] {
			toGraveyard = append(toGraveyard, obj)
			continue
		}
		remaining = append(remaining, obj)
	}

	if err := ac.objects.reorderLibrary(ac.ctx, arrange(remaining, ac.md.Top, nil)); err != nil {
		return err
	}
	for _, obj := range toGraveyard {
		if _, err := ac.objects.Relocate(ac.ctx, obj, ZoneGraveyard, nil); err != nil {
			return err
		}
	}
	return nil
}

// lookedAt loads the acting seat's library and checks that every listed id
// is a distinct card of it and, when count is given, among the top count.
func (e *Engine) lookedAt(ac *actionContext, groups ...[]int64) ([]*Object, error) {
	count := -1
	if ac.md.Count != nil {
		c, err := ac.md.countOr(ac.op(), 0)
		if err != nil {
			return nil, err
		}
		count = c
	}
	seat, err := ac.targetSeat()
	if err != nil {
		return nil, err
	}
	library, err := ac.objects.library(ac.ctx, seat)
	if err != nil {
		return nil, err
	}

	depth := make(map[int64]int, len(library))
	for i, obj := range library {
		depth[obj.ID] = i
	}
	seen := make(map[int64]bool)
	for _, ids := range groups {
		for _, id := range ids {
			d, ok := depth[id]
			if !ok {
				return nil, invalidMetadata(ac.op(), "object %d is not in the library of seat %d", id, seat)
			}
			if count >= 0 && d >= count {
				return nil, invalidMetadata(ac.op(), "object %d is not among the top %d cards", id, count)
			}
			if seen[id] {
				return nil, invalidMetadata(ac.op(), "object %d is listed more than once", id)
			}
			seen[id] = true
		}
	}
	return library, nil
}

// arrange returns library ids as top ++ untouched (in current order) ++ bottom.
func arrange(library []*Object, top, bottom []int64) []int64 {
	placed := make(map[int64]bool, len(top)+len(bottom))
	for _, id := range top {
		placed[id] = true
	}
	for _, id := range bottom {
		placed[id] = true
	}
	ids := make([]int64, 0, len(library))
	ids = append(ids, top...)
	for _, obj := range library {
		if !placed[obj.ID] {
			ids = append(ids, obj.ID)
		}
	}
	return append(ids, bottom...)
}

// handleMoveToLibrary puts an object on top of (default) or under its
// owner's library.
func (e *Engine) handleMoveToLibrary(ac *actionContext) error {
	objectID, err := ac.md.requireObject(ac.op())
	if err != nil {
		return err
	}
	placement := ac.md.LibraryPosition
	if placement == "" {
		placement = "top"
	}
	if placement != "top" && placement != "bottom" {
		return invalidMetadata(ac.op(), "library_position must be top or bottom, got %q", placement)
	}

	obj, err := ac.objects.get(ac.ctx, ac.op(), objectID)
	if err != nil {
		return err
	}
	library, err := ac.objects.library(ac.ctx, obj.Seat)
	if err != nil {
		return err
	}

	order := 0
	others := make([]*Object, 0, len(library))
	for _, other := range library {
		if other.ID != obj.ID {
			others = append(others, other)
		}
	}
	if len(others) > 0 {
		if placement == "top" {
			order = others[0].Order - 1
		} else {
			order = others[len(others)-1].Order + 1
		}
	}

	if err := ac.objects.Move(ac.ctx, obj, ZoneLibrary, nil); err != nil {
		return err
	}
	return ac.objects.SetOrder(ac.ctx, obj, order)
}
