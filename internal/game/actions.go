package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionKind is the closed set of actions a seat can request.
type ActionKind int

const (
	ActionTap ActionKind = iota + 1
	ActionUntap
	ActionToggleTap
	ActionUntapAll
	ActionShuffleLibrary
	ActionMill
	ActionDraw
	ActionLifeChange
	ActionExileFromTop
	ActionScry
	ActionSurveil
	ActionMoveToExile
	ActionMoveToLibrary
	ActionMoveToHand
	ActionMoveToBattlefield
	ActionMoveToGraveyard
	ActionDiscard
	ActionAddCounter
	ActionRemoveCounter
	ActionCreateTokenCopy
	ActionRemoveToken
	ActionCreateIndicator
	ActionMoveIndicator
	ActionDeleteIndicator
	ActionCast
	ActionEndTurn
)

var actionNames = map[ActionKind]string{
	ActionTap:               "tap",
	ActionUntap:             "untap",
	ActionToggleTap:         "toggle_tap",
	ActionUntapAll:          "untap_all",
	ActionShuffleLibrary:    "shuffle_library",
	ActionMill:              "mill",
	ActionDraw:              "draw",
	ActionLifeChange:        "life_change",
	ActionExileFromTop:      "exile_from_top",
	ActionScry:              "scry",
	ActionSurveil:           "surveil",
	ActionMoveToExile:       "move_to_exile",
	ActionMoveToLibrary:     "move_to_library",
	ActionMoveToHand:        "move_to_hand",
	ActionMoveToBattlefield: "move_to_battlefield",
	ActionMoveToGraveyard:   "move_to_graveyard",
	ActionDiscard:           "discard",
	ActionAddCounter:        "add_counter",
	ActionRemoveCounter:     "remove_counter",
	ActionCreateTokenCopy:   "create_token_copy",
	ActionRemoveToken:       "remove_token",
	ActionCreateIndicator:   "create_indicator",
	ActionMoveIndicator:     "move_indicator",
	ActionDeleteIndicator:   "delete_indicator",
	ActionCast:              "cast",
	ActionEndTurn:           "end_turn",
}

var actionsByName = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(actionNames))
	for kind, name := range actionNames {
		m[name] = kind
	}
	return m
}()

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ACTION_%d", int(k))
}

// Valid reports whether k is a member of the closed vocabulary.
func (k ActionKind) Valid() bool {
	_, ok := actionNames[k]
	return ok
}

// ParseActionKind resolves a wire name such as "end_turn".
func ParseActionKind(name string) (ActionKind, error) {
	kind, ok := actionsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, invalidMetadata("parse_action", "unknown action kind %q", name)
	}
	return kind, nil
}

// AllActionKinds lists the vocabulary in declaration order.
func AllActionKinds() []ActionKind {
	kinds := make([]ActionKind, 0, len(actionNames))
	for k := ActionTap; k <= ActionEndTurn; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// MarshalText encodes the kind by wire name.
func (k ActionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid action kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a wire name.
func (k *ActionKind) UnmarshalText(text []byte) error {
	kind, err := ParseActionKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Metadata is the decoded action payload. All fields are optional on the
// wire; each handler validates the ones it needs.
type Metadata struct {
	Count           *int      `json:"count,omitempty"`
	Amount          *int      `json:"amount,omitempty"`
	Quantity        *int      `json:"quantity,omitempty"`
	ObjectID        *int64    `json:"object_id,omitempty"`
	SourceObjectID  *int64    `json:"source_object_id,omitempty"`
	TokenCardID     *int64    `json:"token_card_id,omitempty"`
	TokenName       string    `json:"token_name,omitempty"`
	IndicatorID     *int64    `json:"indicator_id,omitempty"`
	CounterType     string    `json:"counter_type,omitempty"`
	Position        *Position `json:"position,omitempty"`
	Color           string    `json:"color,omitempty"`
	Top             []int64   `json:"top,omitempty"`
	Bottom          []int64   `json:"bottom,omitempty"`
	Graveyard       []int64   `json:"graveyard,omitempty"`
	TargetSeat      *int      `json:"target_seat,omitempty"`
	CommanderSeat   *int      `json:"commander_seat,omitempty"`
	LibraryPosition string    `json:"library_position,omitempty"`
}

// DecodeMetadata parses a raw payload. An empty payload decodes to zero Metadata.
func DecodeMetadata(op string, raw json.RawMessage) (Metadata, error) {
	var md Metadata
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return md, nil
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return md, &Error{Kind: KindInvalidMetadata, Op: op, Message: "malformed metadata", Err: err}
	}
	return md, nil
}

// Action is one requested (or cascaded) action.
type Action struct {
	Kind     ActionKind
	Seat     int
	Metadata json.RawMessage
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func (md Metadata) requireObject(op string) (int64, error) {
	if md.ObjectID == nil {
		return 0, invalidMetadata(op, "object_id is required")
	}
	return *md.ObjectID, nil
}

// countOr returns count, or def when absent. Negative counts are rejected.
func (md Metadata) countOr(op string, def int) (int, error) {
	count := intOr(md.Count, def)
	if count < 0 {
		return 0, invalidMetadata(op, "count must not be negative")
	}
	return count, nil
}
