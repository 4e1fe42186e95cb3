// Package settle applies the one-time stat updates when a session reaches a
// terminal state. Both players' counters move in a single transaction so a
// crash cannot leave one side updated and the other not.
package settle

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/neumannchess/server/internal/obslog"
	"github.com/neumannchess/server/internal/session"
)

type Engine struct {
	db *sql.DB
}

func NewEngine(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// Delta is the stat increment for one user.
type Delta struct {
	UserID string
	Played int
	Won    int
	Lost   int
	Draw   int
}

// Plan computes the stat deltas for a terminal session.
//
// Checkmate with a winner: winner +played/+won, loser +played/+lost.
// Draw: both +played/+draw.
// Abandonment: counted as a decisive result when a winner was reported
// (the abandoning side takes the loss); with no winner, no stats change.
func Plan(s *session.Session) []Delta {
	if s == nil || !s.Status.Terminal() {
		return nil
	}

	winner := s.WinnerID
	if winner == "" {
		switch s.Result {
		case session.ResultWhiteWins:
			winner = s.WhiteID
		case session.ResultBlackWins:
			winner = s.BlackID
		}
	}

	switch s.Status {
	case session.StatusDrawn:
		if s.WhiteID == "" || s.BlackID == "" {
			return nil
		}
		return []Delta{
			{UserID: s.WhiteID, Played: 1, Draw: 1},
			{UserID: s.BlackID, Played: 1, Draw: 1},
		}
	case session.StatusCheckmated, session.StatusAbandoned:
		loser := s.OpponentOf(winner)
		if winner == "" || loser == "" {
			return nil
		}
		return []Delta{
			{UserID: winner, Played: 1, Won: 1},
			{UserID: loser, Played: 1, Lost: 1},
		}
	}
	return nil
}

// Settle applies the plan for a session in one transaction.
func (e *Engine) Settle(ctx context.Context, s *session.Session) error {
	deltas := Plan(s)
	if len(deltas) == 0 {
		return nil
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE users SET
			games_played = games_played + $2,
			games_won    = games_won + $3,
			games_lost   = games_lost + $4,
			games_draw   = games_draw + $5
		WHERE id = $1`
	for _, d := range deltas {
		if _, err := tx.ExecContext(ctx, q, d.UserID, d.Played, d.Won, d.Lost, d.Draw); err != nil {
			return fmt.Errorf("apply stats for %s: %w", d.UserID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settlement: %w", err)
	}

	obslog.L().Info("settle_apply",
		zap.String("session_id", s.ID),
		zap.String("status", string(s.Status)),
		zap.String("result", string(s.Result)),
		zap.Int("updates", len(deltas)),
	)
	return nil
}
