package httpapi

import (
	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/rules"
	"github.com/neumannchess/server/internal/session"
	"github.com/neumannchess/server/pkg/gamedto"
)

func playerView(id, name string) *gamedto.PlayerView {
	if id == "" {
		return nil
	}
	return &gamedto.PlayerView{ID: id, Username: name}
}

func sessionView(s *session.Session) gamedto.SessionView {
	moves := make([]gamedto.MoveView, 0, len(s.Moves))
	for _, m := range s.Moves {
		moves = append(moves, gamedto.MoveView{
			From:      m.From,
			To:        m.To,
			Piece:     m.Piece,
			Captured:  m.Captured,
			Promotion: m.Promotion,
			SAN:       m.SAN,
			Timestamp: m.Timestamp,
		})
	}

	var winner *gamedto.PlayerView
	switch s.WinnerID {
	case "":
	case s.WhiteID:
		winner = playerView(s.WhiteID, s.WhiteName)
	case s.BlackID:
		winner = playerView(s.BlackID, s.BlackName)
	default:
		winner = playerView(s.WinnerID, "")
	}

	return gamedto.SessionView{
		ID:              s.ID,
		WhitePlayer:     playerView(s.WhiteID, s.WhiteName),
		BlackPlayer:     playerView(s.BlackID, s.BlackName),
		CreatedBy:       playerView(s.CreatedBy, s.CreatorName),
		IsOpenChallenge: s.IsOpenChallenge,
		Accepted:        s.Accepted,
		Status:          string(s.Status),
		Moves:           moves,
		CurrentPosition: s.CurrentPosition,
		Result:          string(s.Result),
		Winner:          winner,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}

func sessionViews(list []*session.Session) []gamedto.SessionView {
	out := make([]gamedto.SessionView, 0, len(list))
	for _, s := range list {
		out = append(out, sessionView(s))
	}
	return out
}

func verdictView(v *rules.Verdict) *gamedto.VerdictView {
	if v == nil {
		return nil
	}
	return &gamedto.VerdictView{
		SAN:                  v.SAN,
		FEN:                  v.FEN,
		Check:                v.Check,
		Checkmate:            v.Checkmate,
		Stalemate:            v.Stalemate,
		InsufficientMaterial: v.InsufficientMaterial,
		Repetition:           v.Repetition,
		Draw:                 v.Draw,
	}
}

func statsView(s identity.Stats) *gamedto.StatsView {
	return &gamedto.StatsView{
		GamesPlayed: s.GamesPlayed,
		GamesWon:    s.GamesWon,
		GamesLost:   s.GamesLost,
		GamesDraw:   s.GamesDraw,
	}
}

func userView(u *identity.User) gamedto.UserView {
	return gamedto.UserView{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Stats:    statsView(u.Stats),
	}
}
