package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository archives sessions in Postgres. Rows appear at acceptance and
// are finalized at termination, so the table holds exactly the sessions the
// history view must serve: accepted ones, whether still active or finished.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordAccepted upserts the session at the moment it becomes active.
func (r *Repository) RecordAccepted(ctx context.Context, s *Session) error {
	if r == nil || r.db == nil || s == nil {
		return nil
	}
	const q = `
		INSERT INTO sessions (
			id, white_id, white_name, black_id, black_name,
			created_by, creator_name, is_open_challenge, accepted,
			status, current_position, moves, started_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12::jsonb,$13)
		ON CONFLICT (id) DO UPDATE SET
			white_id=EXCLUDED.white_id,
			white_name=EXCLUDED.white_name,
			black_id=EXCLUDED.black_id,
			black_name=EXCLUDED.black_name,
			accepted=EXCLUDED.accepted,
			status=EXCLUDED.status,
			current_position=EXCLUDED.current_position`
	moves, err := json.Marshal(s.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q,
		s.ID, nullable(s.WhiteID), s.WhiteName, nullable(s.BlackID), s.BlackName,
		s.CreatedBy, s.CreatorName, s.IsOpenChallenge, s.Accepted,
		string(s.Status), s.CurrentPosition, string(moves), s.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("archive accepted session: %w", err)
	}
	return nil
}

// RecordFinished upserts the terminal state: result, winner, full ledger,
// PGN text and duration.
func (r *Repository) RecordFinished(ctx context.Context, s *Session) error {
	if r == nil || r.db == nil || s == nil {
		return nil
	}
	moves, err := json.Marshal(s.Moves)
	if err != nil {
		return fmt.Errorf("marshal moves: %w", err)
	}
	endedAt := time.Now()
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
	}
	duration := endedAt.Sub(s.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `
		INSERT INTO sessions (
			id, white_id, white_name, black_id, black_name,
			created_by, creator_name, is_open_challenge, accepted,
			status, result, winner_id, current_position, moves, pgn,
			started_at, ended_at, duration_ms
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14::jsonb,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			status=EXCLUDED.status,
			result=EXCLUDED.result,
			winner_id=EXCLUDED.winner_id,
			current_position=EXCLUDED.current_position,
			moves=EXCLUDED.moves,
			pgn=EXCLUDED.pgn,
			ended_at=EXCLUDED.ended_at,
			duration_ms=EXCLUDED.duration_ms`
	_, err = r.db.ExecContext(ctx, q,
		s.ID, nullable(s.WhiteID), s.WhiteName, nullable(s.BlackID), s.BlackName,
		s.CreatedBy, s.CreatorName, s.IsOpenChallenge, s.Accepted,
		string(s.Status), string(s.Result), nullable(s.WinnerID), s.CurrentPosition,
		string(moves), buildPGN(s), s.StartedAt, endedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("archive finished session: %w", err)
	}
	return nil
}

// HistoryPage is one page of a user's session history with count metadata.
type HistoryPage struct {
	Games      []*Session
	Page       int
	TotalPages int
	Total      int
}

// History returns the user's archived sessions newest first, optionally
// filtered by status, paginated with total counts.
func (r *Repository) History(ctx context.Context, userID string, status Status, limit, page int) (*HistoryPage, error) {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	where := `(white_id = $1 OR black_id = $1)`
	args := []any{userID}
	if status != "" {
		args = append(args, string(status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`
		SELECT id, white_id, white_name, black_id, black_name,
			created_by, creator_name, is_open_challenge, accepted,
			status, result, winner_id, current_position, moves,
			started_at, ended_at
		FROM sessions
		WHERE %s
		ORDER BY started_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	defer rows.Close()

	games := make([]*Session, 0, limit)
	for rows.Next() {
		var (
			s         Session
			whiteID   sql.NullString
			blackID   sql.NullString
			winnerID  sql.NullString
			result    sql.NullString
			movesJSON []byte
			endedAt   sql.NullTime
		)
		if err := rows.Scan(
			&s.ID, &whiteID, &s.WhiteName, &blackID, &s.BlackName,
			&s.CreatedBy, &s.CreatorName, &s.IsOpenChallenge, &s.Accepted,
			&s.Status, &result, &winnerID, &s.CurrentPosition, &movesJSON,
			&s.StartedAt, &endedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.WhiteID = whiteID.String
		s.BlackID = blackID.String
		s.WinnerID = winnerID.String
		s.Result = Result(result.String)
		if endedAt.Valid {
			t := endedAt.Time
			s.EndedAt = &t
		}
		if err := json.Unmarshal(movesJSON, &s.Moves); err != nil {
			return nil, fmt.Errorf("unmarshal moves: %w", err)
		}
		games = append(games, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &HistoryPage{Games: games, Page: page, TotalPages: totalPages, Total: total}, nil
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

// buildPGN renders the finished game as PGN text from the SAN ledger.
func buildPGN(s *Session) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	date := s.StartedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"Neumann Chess\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(s.WhiteName)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(s.BlackName)))
	if term := terminationFor(s.Status); term != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", term))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", pgnResult(s.Result)))

	for i := 0; i < len(s.Moves); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", (i/2)+1, strings.TrimSpace(s.Moves[i].SAN)))
		if i+1 < len(s.Moves) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(s.Moves[i+1].SAN))
		}
		b.WriteString(" ")
	}
	b.WriteString(pgnResult(s.Result))
	return b.String()
}

func pgnResult(r Result) string {
	if r == ResultNone {
		return "*"
	}
	return string(r)
}

func terminationFor(status Status) string {
	switch status {
	case StatusCheckmated:
		return "checkmate"
	case StatusDrawn:
		return "draw"
	case StatusAbandoned:
		return "abandoned"
	}
	return ""
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
