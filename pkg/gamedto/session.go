package gamedto

import "time"

// PlayerView is the public identity of a session participant.
type PlayerView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// StatsView mirrors the aggregate counters on a user.
type StatsView struct {
	GamesPlayed int `json:"gamesPlayed"`
	GamesWon    int `json:"gamesWon"`
	GamesLost   int `json:"gamesLost"`
	GamesDraw   int `json:"gamesDraw"`
}

// UserView is a user as returned by the auth and search endpoints.
type UserView struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Stats    *StatsView `json:"stats,omitempty"`
}

// MoveView is one ledger entry.
type MoveView struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Piece     string    `json:"piece"`
	Captured  string    `json:"captured,omitempty"`
	Promotion string    `json:"promotion,omitempty"`
	SAN       string    `json:"san"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionView is a serialized session. Player slots are null while an open
// challenge still waits for an acceptor.
type SessionView struct {
	ID              string      `json:"id"`
	WhitePlayer     *PlayerView `json:"whitePlayer"`
	BlackPlayer     *PlayerView `json:"blackPlayer"`
	CreatedBy       *PlayerView `json:"createdBy"`
	IsOpenChallenge bool        `json:"isOpenChallenge"`
	Accepted        bool        `json:"accepted"`
	Status          string      `json:"status"`
	Moves           []MoveView  `json:"moves"`
	CurrentPosition string      `json:"currentPosition"`
	Result          string      `json:"result,omitempty"`
	Winner          *PlayerView `json:"winner,omitempty"`
	StartedAt       time.Time   `json:"startedAt"`
	EndedAt         *time.Time  `json:"endedAt,omitempty"`
}

// VerdictView is the rules engine's report for an applied move. The client
// uses the flags to decide whether to follow up with an end-session call.
type VerdictView struct {
	SAN                  string `json:"san"`
	FEN                  string `json:"fen"`
	Check                bool   `json:"check"`
	Checkmate            bool   `json:"checkmate"`
	Stalemate            bool   `json:"stalemate"`
	InsufficientMaterial bool   `json:"insufficientMaterial"`
	Repetition           bool   `json:"repetition"`
	Draw                 bool   `json:"draw"`
}

// PendingResponse bundles every matchmaking view one poll needs.
type PendingResponse struct {
	DirectChallenges []SessionView `json:"directChallenges"`
	OpenChallenges   []SessionView `json:"openChallenges"`
	MyChallenges     []SessionView `json:"myChallenges"`
	ActiveGames      []SessionView `json:"activeGames"`
}

// HistoryResponse is one page of past games with count metadata.
type HistoryResponse struct {
	Games       []SessionView `json:"games"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalGames  int           `json:"totalGames"`
}

// MoveResponse returns the updated session plus the rules verdict.
type MoveResponse struct {
	Session SessionView  `json:"session"`
	Verdict *VerdictView `json:"verdict"`
}
