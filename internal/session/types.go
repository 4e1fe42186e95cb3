package session

import (
	"time"
)

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Valid() bool { return c == White || c == Black }

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Status is a session lifecycle state. A session starts as a pending
// challenge, becomes active on acceptance and ends in one of the terminal
// states. Pending sessions with no moves can instead be deleted outright.
type Status string

const (
	StatusPending    Status = "pending"
	StatusActive     Status = "active"
	StatusCheckmated Status = "checkmated"
	StatusDrawn      Status = "drawn"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether the state has no outgoing transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCheckmated, StatusDrawn, StatusAbandoned:
		return true
	}
	return false
}

// Open reports whether the session still occupies its players' single
// pending-or-active slot.
func (s Status) Open() bool { return s == StatusPending || s == StatusActive }

// Result is the recorded outcome, in PGN result notation.
type Result string

const (
	ResultWhiteWins Result = "1-0"
	ResultBlackWins Result = "0-1"
	ResultDraw      Result = "1/2-1/2"
	ResultNone      Result = ""
)

func (r Result) Valid() bool {
	switch r {
	case ResultWhiteWins, ResultBlackWins, ResultDraw, ResultNone:
		return true
	}
	return false
}

// Move is one entry of the append-only ledger.
type Move struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Piece     string    `json:"piece"`
	Captured  string    `json:"captured,omitempty"`
	Promotion string    `json:"promotion,omitempty"`
	SAN       string    `json:"san"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one chess match record, stored as JSON in Redis while live and
// archived to Postgres once accepted. A color slot with an empty ID is
// unset, which is only permitted for open challenges before acceptance.
type Session struct {
	ID string `json:"id"`

	WhiteID   string `json:"white_id,omitempty"`
	WhiteName string `json:"white_name,omitempty"`
	BlackID   string `json:"black_id,omitempty"`
	BlackName string `json:"black_name,omitempty"`

	CreatedBy   string `json:"created_by"`
	CreatorName string `json:"creator_name"`

	IsOpenChallenge bool `json:"is_open_challenge"`
	Accepted        bool `json:"accepted"`

	Status Status `json:"status"`
	Moves  []Move `json:"moves"`

	// CurrentPosition is the canonical FEN after the last accepted move.
	CurrentPosition string `json:"current_position"`

	Result   Result `json:"result,omitempty"`
	WinnerID string `json:"winner_id,omitempty"`

	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// IsPlayer reports whether the user occupies a color slot.
func (s *Session) IsPlayer(userID string) bool {
	if userID == "" {
		return false
	}
	return s.WhiteID == userID || s.BlackID == userID
}

// PlayerColor returns the user's color, or "" if they are not slotted.
func (s *Session) PlayerColor(userID string) Color {
	switch {
	case userID != "" && s.WhiteID == userID:
		return White
	case userID != "" && s.BlackID == userID:
		return Black
	}
	return ""
}

// OpponentOf returns the other player's ID, or "" when unknown.
func (s *Session) OpponentOf(userID string) string {
	switch {
	case userID != "" && s.WhiteID == userID:
		return s.BlackID
	case userID != "" && s.BlackID == userID:
		return s.WhiteID
	}
	return ""
}

// participantIDs returns the distinct user IDs indexed for this session:
// both color slots plus the creator.
func (s *Session) participantIDs() []string {
	seen := map[string]bool{}
	var out []string
	for _, id := range []string{s.WhiteID, s.BlackID, s.CreatedBy} {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
