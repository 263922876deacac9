package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// ComputeChecksum hashes a canonical rendering of the projected state.
// Polling clients compare checksums to skip unchanged tables. The rendering
// is independent of map iteration order and of the checksum field itself.
func (v *ProjectedState) ComputeChecksum() string {
	sum := sha256.Sum256(v.canonical())
	return hex.EncodeToString(sum[:])
}

func (v *ProjectedState) canonical() []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "TABLE:%d|%s|%d|%d|%d\n", v.SessionID, v.Status, v.ViewerSeat, v.ActiveSeat, v.TurnNumber)

	for _, seat := range v.Seats {
		fmt.Fprintf(&buf, "SEAT:%d|%d|%d|%d", seat.Seat, seat.Life, seat.HandCount, seat.LibraryCount)
		sources := make([]int, 0, len(seat.CommanderDamage))
		for source := range seat.CommanderDamage {
			sources = append(sources, source)
		}
		sort.Ints(sources)
		for _, source := range sources {
			fmt.Fprintf(&buf, "|cmd%d=%d", source, seat.CommanderDamage[source])
		}
		buf.WriteByte('\n')
	}

	objs := append([]ProjectedObject(nil), v.Objects...)
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	for _, obj := range objs {
		fmt.Fprintf(&buf, "OBJ:%d|%d|%s|%t|%t|%t", obj.ID, obj.Seat, obj.Zone, obj.IsToken, obj.IsTapped, obj.IsFlipped)
		if obj.CardID != nil {
			fmt.Fprintf(&buf, "|card=%d", *obj.CardID)
		}
		if obj.Position != nil {
			fmt.Fprintf(&buf, "|pos=%g,%g", obj.Position.X, obj.Position.Y)
		}
		if obj.Order != nil {
			fmt.Fprintf(&buf, "|order=%d", *obj.Order)
		}
		for _, c := range obj.Counters {
			fmt.Fprintf(&buf, "|%s=%d", c.Name, c.Count)
		}
		buf.WriteByte('\n')
	}

	inds := append([]Indicator(nil), v.Indicators...)
	sort.Slice(inds, func(i, j int) bool { return inds[i].ID < inds[j].ID })
	for _, ind := range inds {
		fmt.Fprintf(&buf, "IND:%d|%d|%g,%g|%s\n", ind.ID, ind.Seat, ind.Position.X, ind.Position.Y, ind.Color)
	}

	return buf.Bytes()
}
