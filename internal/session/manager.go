package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/obslog"
	"github.com/neumannchess/server/internal/rules"
)

// RulesEngine is the external legality collaborator. The session layer does
// not re-derive chess consequences beyond what the engine reports.
type RulesEngine interface {
	SideToMove(fen string) (string, error)
	Apply(fen, from, to, promotion string) (*rules.Verdict, error)
}

// UserDirectory resolves opponent IDs at challenge creation.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*identity.User, error)
}

// Archiver persists accepted and finished sessions durably.
type Archiver interface {
	RecordAccepted(ctx context.Context, s *Session) error
	RecordFinished(ctx context.Context, s *Session) error
}

// Settler applies the stat updates for a terminal session.
type Settler interface {
	Settle(ctx context.Context, s *Session) error
}

// Manager is the session state machine. Every mutation of an existing
// session runs as a WATCH transaction on that session's key, so concurrent
// writers get at most one winner and the loser sees a typed conflict.
type Manager struct {
	rdb     *redis.Client
	store   *Store
	engine  RulesEngine
	users   UserDirectory
	archive Archiver
	settler Settler
}

func NewManager(rdb *redis.Client, store *Store, engine RulesEngine, users UserDirectory) *Manager {
	return &Manager{rdb: rdb, store: store, engine: engine, users: users}
}

// AttachArchive wires the durable store for accepted/finished sessions.
func (m *Manager) AttachArchive(a Archiver) {
	if m != nil {
		m.archive = a
	}
}

// AttachSettler wires the settlement engine invoked on termination.
func (m *Manager) AttachSettler(s Settler) {
	if m != nil {
		m.settler = s
	}
}

// busySession returns the user's pending-or-active session, excluding
// excludeID, or nil. Enforces the one-live-session-per-user invariant.
func (m *Manager) busySession(ctx context.Context, userID, excludeID string) (*Session, error) {
	list, err := m.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		if s.ID != excludeID && s.Status.Open() {
			return s, nil
		}
	}
	return nil, nil
}

// CreateChallenge creates a pending session. With an opponent ID it is a
// direct challenge with both color slots assigned; without one it is an open
// challenge whose unchosen slot stays empty until acceptance.
func (m *Manager) CreateChallenge(ctx context.Context, creatorID, creatorName, opponentID string, color Color) (*Session, error) {
	if !color.Valid() {
		return nil, ErrInvalidColor
	}
	if busy, err := m.busySession(ctx, creatorID, ""); err != nil {
		return nil, err
	} else if busy != nil {
		return nil, ErrAlreadyInSession
	}

	now := time.Now()
	s := &Session{
		ID:              uuid.NewString(),
		CreatedBy:       creatorID,
		CreatorName:     strings.TrimSpace(creatorName),
		Status:          StatusPending,
		Moves:           []Move{},
		CurrentPosition: rules.StartingFEN,
		StartedAt:       now,
		UpdatedAt:       now,
	}

	if strings.TrimSpace(opponentID) == "" {
		s.IsOpenChallenge = true
		if color == White {
			s.WhiteID, s.WhiteName = creatorID, s.CreatorName
		} else {
			s.BlackID, s.BlackName = creatorID, s.CreatorName
		}
	} else {
		if opponentID == creatorID {
			return nil, ErrSelfChallenge
		}
		opponent, err := m.users.GetByID(ctx, opponentID)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return nil, ErrOpponentNotFound
			}
			return nil, err
		}
		if busy, err := m.busySession(ctx, opponentID, ""); err != nil {
			return nil, err
		} else if busy != nil {
			return nil, ErrOpponentBusy
		}
		if color == White {
			s.WhiteID, s.WhiteName = creatorID, s.CreatorName
			s.BlackID, s.BlackName = opponent.ID, opponent.Username
		} else {
			s.WhiteID, s.WhiteName = opponent.ID, opponent.Username
			s.BlackID, s.BlackName = creatorID, s.CreatorName
		}
	}

	if err := m.store.Save(ctx, s); err != nil {
		return nil, err
	}
	obslog.L().Info("session_create",
		zap.String("session_id", s.ID),
		zap.String("creator_id", creatorID),
		zap.Bool("open", s.IsOpenChallenge),
		zap.String("white_id", s.WhiteID),
		zap.String("black_id", s.BlackID),
	)
	return s, nil
}

// AcceptChallenge flips a pending session to active. For open challenges the
// acceptor fills whichever color slot is empty. Exactly one concurrent
// accept can succeed; the loser gets AlreadyAccepted or NotAvailable.
func (m *Manager) AcceptChallenge(ctx context.Context, acceptorID, acceptorName, sessionID string) (*Session, error) {
	var out *Session
	key := gameKey(sessionID)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeSession(raw)
		if err != nil {
			return err
		}

		if cur.Accepted {
			return ErrAlreadyAccepted
		}
		if cur.Status != StatusPending {
			return ErrNotAvailable
		}
		if cur.CreatedBy == acceptorID {
			return ErrSelfAccept
		}
		if busy, berr := m.busySession(ctx, acceptorID, cur.ID); berr != nil {
			return berr
		} else if busy != nil {
			return ErrAcceptorBusy
		}

		if cur.IsOpenChallenge && !cur.IsPlayer(acceptorID) {
			switch {
			case cur.WhiteID == "":
				cur.WhiteID, cur.WhiteName = acceptorID, strings.TrimSpace(acceptorName)
			case cur.BlackID == "":
				cur.BlackID, cur.BlackName = acceptorID, strings.TrimSpace(acceptorName)
			default:
				return ErrBothSlotsFilled
			}
		} else if !cur.IsPlayer(acceptorID) {
			return ErrNotYourChallenge
		}

		cur.Accepted = true
		cur.Status = StatusActive
		cur.UpdatedAt = time.Now()

		newRaw, merr := json.Marshal(cur)
		if merr != nil {
			return merr
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, m.store.TTL())
		m.store.IndexInPipe(ctx, pipe, cur)
		pipe.SRem(ctx, openIdxKey(), cur.ID)
		if _, perr := pipe.Exec(ctx); perr != nil {
			return perr
		}
		out = cur
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			// lost the race; report what the winner did
			if cur, gerr := m.store.Get(ctx, sessionID); gerr == nil && cur != nil && cur.Accepted {
				return nil, ErrAlreadyAccepted
			}
			return nil, ErrNotAvailable
		}
		return nil, err
	}

	obslog.L().Info("session_accept",
		zap.String("session_id", out.ID),
		zap.String("acceptor_id", acceptorID),
		zap.String("white_id", out.WhiteID),
		zap.String("black_id", out.BlackID),
	)
	if m.archive != nil {
		if aerr := m.archive.RecordAccepted(ctx, out); aerr != nil {
			obslog.L().Error("session_archive_error", zap.String("session_id", out.ID), zap.Error(aerr))
		}
	}
	return out, nil
}

// SubmitMove validates the move against the canonical position and appends
// it to the ledger. It never changes the session status: terminal detection
// is reported in the verdict and termination stays an explicit EndSession.
func (m *Manager) SubmitMove(ctx context.Context, actorID, sessionID, from, to, promotion string) (*Session, *rules.Verdict, error) {
	var (
		out     *Session
		verdict *rules.Verdict
	)
	key := gameKey(sessionID)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeSession(raw)
		if err != nil {
			return err
		}

		if cur.Status != StatusActive {
			return ErrGameFinished
		}
		color := cur.PlayerColor(actorID)
		if color == "" {
			return ErrNotAPlayer
		}
		side, serr := m.engine.SideToMove(cur.CurrentPosition)
		if serr != nil {
			return serr
		}
		if string(color) != side {
			return ErrNotYourTurn
		}

		v, aerr := m.engine.Apply(cur.CurrentPosition, from, to, promotion)
		if aerr != nil {
			if errors.Is(aerr, rules.ErrIllegalMove) {
				return ErrIllegalMove
			}
			return aerr
		}

		cur.Moves = append(cur.Moves, Move{
			From:      strings.ToLower(strings.TrimSpace(from)),
			To:        strings.ToLower(strings.TrimSpace(to)),
			Piece:     v.Piece,
			Captured:  v.Captured,
			Promotion: v.Promotion,
			SAN:       v.SAN,
			Timestamp: time.Now(),
		})
		cur.CurrentPosition = v.FEN
		cur.UpdatedAt = time.Now()

		newRaw, merr := json.Marshal(cur)
		if merr != nil {
			return merr
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, m.store.TTL())
		m.store.IndexInPipe(ctx, pipe, cur)
		if _, perr := pipe.Exec(ctx); perr != nil {
			return perr
		}
		out = cur
		verdict = v
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, nil, ErrConflict
		}
		return nil, nil, err
	}

	obslog.L().Info("session_move",
		zap.String("session_id", out.ID),
		zap.String("actor_id", actorID),
		zap.String("san", verdict.SAN),
		zap.Int("ply", len(out.Moves)),
		zap.Bool("checkmate", verdict.Checkmate),
	)
	return out, verdict, nil
}

// EndSession moves an active session to a terminal state, records the
// result and invokes settlement. The active-status guard makes a repeated
// call fail instead of re-running settlement.
func (m *Manager) EndSession(ctx context.Context, actorID, sessionID string, status Status, result Result, winnerID string) (*Session, error) {
	if !status.Terminal() {
		return nil, ErrInvalidStatus
	}
	if !result.Valid() {
		return nil, ErrInvalidResult
	}

	var out *Session
	key := gameKey(sessionID)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeSession(raw)
		if err != nil {
			return err
		}

		if !cur.IsPlayer(actorID) {
			return ErrNotAPlayer
		}
		if cur.Status != StatusActive {
			return ErrGameFinished
		}
		if winnerID != "" && !cur.IsPlayer(winnerID) {
			return ErrNotAPlayer
		}

		now := time.Now()
		cur.Status = status
		cur.Result = result
		cur.WinnerID = winnerID
		cur.UpdatedAt = now
		cur.EndedAt = &now

		newRaw, merr := json.Marshal(cur)
		if merr != nil {
			return merr
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, m.store.TTL())
		m.store.IndexInPipe(ctx, pipe, cur)
		if _, perr := pipe.Exec(ctx); perr != nil {
			return perr
		}
		out = cur
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			if cur, gerr := m.store.Get(ctx, sessionID); gerr == nil && cur != nil && cur.Status != StatusActive {
				return nil, ErrGameFinished
			}
			return nil, ErrConflict
		}
		return nil, err
	}

	obslog.L().Info("session_end",
		zap.String("session_id", out.ID),
		zap.String("actor_id", actorID),
		zap.String("status", string(out.Status)),
		zap.String("result", string(out.Result)),
		zap.String("winner_id", out.WinnerID),
	)
	if m.archive != nil {
		if aerr := m.archive.RecordFinished(ctx, out); aerr != nil {
			obslog.L().Error("session_archive_error", zap.String("session_id", out.ID), zap.Error(aerr))
		}
	}
	if m.settler != nil {
		if serr := m.settler.Settle(ctx, out); serr != nil {
			obslog.L().Error("settle_error", zap.String("session_id", out.ID), zap.Error(serr))
			return out, serr
		}
	}
	return out, nil
}

// DeclineOrCancel removes a session that has no moves yet. Either player or
// the creator may do it; the record is deleted outright, not soft-deleted.
func (m *Manager) DeclineOrCancel(ctx context.Context, actorID, sessionID string) error {
	key := gameKey(sessionID)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeSession(raw)
		if err != nil {
			return err
		}

		if !cur.IsPlayer(actorID) && cur.CreatedBy != actorID {
			return ErrNotAuthorized
		}
		if len(cur.Moves) > 0 {
			return ErrAlreadyStarted
		}

		pipe := tx.TxPipeline()
		pipe.Del(ctx, key)
		for _, id := range cur.participantIDs() {
			pipe.SRem(ctx, userIdxKey(id), cur.ID)
		}
		pipe.SRem(ctx, openIdxKey(), cur.ID)
		_, perr := pipe.Exec(ctx)
		return perr
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return ErrConflict
		}
		return err
	}

	obslog.L().Info("session_decline",
		zap.String("session_id", sessionID),
		zap.String("actor_id", actorID),
	)
	return nil
}

// GetSession fetches one session for a caller who is a slotted player or
// the creator; anyone else gets Forbidden.
func (m *Manager) GetSession(ctx context.Context, callerID, sessionID string) (*Session, error) {
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNotFound
	}
	if !s.IsPlayer(callerID) && s.CreatedBy != callerID {
		return nil, ErrForbidden
	}
	return s, nil
}
