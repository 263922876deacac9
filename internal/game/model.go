package game

import (
	"encoding/json"
	"time"

	"github.com/thraizz/commander-table/internal/game/counters"
)

// MaxSeats is the largest table the engine supports.
const MaxSeats = 4

// Zone is the location of a game object.
type Zone string

const (
	ZoneLibrary     Zone = "library"
	ZoneHand        Zone = "hand"
	ZoneBattlefield Zone = "battlefield"
	ZoneGraveyard   Zone = "graveyard"
	ZoneExile       Zone = "exile"
	ZoneCommand     Zone = "command_zone"
	ZoneStack       Zone = "stack"
)

// Valid reports whether z is one of the known zones.
func (z Zone) Valid() bool {
	switch z {
	case ZoneLibrary, ZoneHand, ZoneBattlefield, ZoneGraveyard, ZoneExile, ZoneCommand, ZoneStack:
		return true
	}
	return false
}

// Hidden reports whether card identities in z are private to the owner.
func (z Zone) Hidden() bool {
	return z == ZoneHand || z == ZoneLibrary
}

// SessionStatus is the lifecycle status of a session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// Valid reports whether s is a known status.
func (s SessionStatus) Valid() bool {
	return s == SessionActive || s == SessionPaused || s == SessionCompleted
}

// Position is a point on the shared table surface.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset returns p moved by d on both axes.
func (p Position) Offset(d float64) Position {
	return Position{X: p.X + d, Y: p.Y + d}
}

// Session is a single table.
type Session struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Status      SessionStatus `json:"status"`
	PlayerCount int           `json:"player_count"`
	DeckIDs     []int64       `json:"deck_ids"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ValidSeat reports whether seat is occupied at this table.
func (s *Session) ValidSeat(seat int) bool {
	return seat >= 1 && seat <= s.PlayerCount
}

// State holds the per-session counters that are not attached to objects.
type State struct {
	SessionID int64 `json:"session_id"`
	// Life is indexed by seat-1.
	Life [MaxSeats]int `json:"life"`
	// CommanderDamage maps a damaged seat to the damage taken from each source seat.
	CommanderDamage map[int]map[int]int `json:"commander_damage"`
	ActiveSeat      int                 `json:"active_seat"`
	TurnNumber      int                 `json:"turn_number"`
}

// LifeOf returns the life total of seat.
func (s *State) LifeOf(seat int) int {
	if seat < 1 || seat > MaxSeats {
		return 0
	}
	return s.Life[seat-1]
}

// Object is a card or token instance owned by a seat.
type Object struct {
	ID        int64             `json:"id"`
	SessionID int64             `json:"session_id"`
	Seat      int               `json:"seat"`
	Zone      Zone              `json:"zone"`
	CardID    int64             `json:"card_id"`
	IsToken   bool              `json:"is_token"`
	IsTapped  bool              `json:"is_tapped"`
	IsFlipped bool              `json:"is_flipped"`
	Counters  counters.Counters `json:"counters"`
	Position  *Position         `json:"position,omitempty"`
	Order     int               `json:"order"`
}

// Flag names an object boolean.
type Flag string

const (
	FlagTapped  Flag = "is_tapped"
	FlagFlipped Flag = "is_flipped"
)

// Indicator is a seat-owned marker placed on the table.
type Indicator struct {
	ID        int64    `json:"id"`
	SessionID int64    `json:"session_id"`
	Seat      int      `json:"seat"`
	Position  Position `json:"position"`
	Color     string   `json:"color"`
}

// AuditEntry is one immutable row of the action log.
type AuditEntry struct {
	ID             int64           `json:"id"`
	SessionID      int64           `json:"session_id"`
	Seat           int             `json:"seat"`
	Kind           ActionKind      `json:"action_type"`
	TargetObjectID *int64          `json:"target_object_id,omitempty"`
	Metadata       json.RawMessage `json:"metadata"`
	TransactionID  string          `json:"transaction_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Card is a read-only catalog record.
type Card struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ManaCost   string `json:"mana_cost"`
	TypeLine   string `json:"type_line"`
	OracleText string `json:"oracle_text"`
	ImageURL   string `json:"image_url"`
	IsToken    bool   `json:"is_token"`
}

// DeckCard is one line of a deck list.
type DeckCard struct {
	CardID   int64 `json:"card_id"`
	Quantity int   `json:"quantity"`
}

// Deck is a read-only catalog deck.
type Deck struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	CommanderIDs []int64    `json:"commander_ids"`
	Cards        []DeckCard `json:"cards"`
}

// IsCommander reports whether cardID is one of the deck's commanders.
func (d *Deck) IsCommander(cardID int64) bool {
	for _, id := range d.CommanderIDs {
		if id == cardID {
			return true
		}
	}
	return false
}
