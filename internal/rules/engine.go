// Package rules wraps the chess legality library behind the narrow contract
// the session layer needs: side to move for a position, and applying a
// from/to/promotion move to produce the resulting position plus outcome flags.
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// StartingFEN is the canonical initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
)

// Verdict is the rules engine's report for one applied move.
type Verdict struct {
	FEN       string // position after the move
	SAN       string // algebraic notation of the move
	Piece     string // moved piece, lowercase letter (p n b r q k)
	Captured  string // captured piece letter, empty when none
	Promotion string // promotion piece letter, empty when none

	Check                bool
	Checkmate            bool
	Stalemate            bool
	InsufficientMaterial bool
	Repetition           bool
	Draw                 bool
}

// Engine applies moves with the corentings/chess library. The zero value is
// ready to use.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// SideToMove reports "white" or "black" for the given position.
func (e *Engine) SideToMove(fen string) (string, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return "", err
	}
	if game.Position().Turn() == nchess.White {
		return "white", nil
	}
	return "black", nil
}

// Apply validates and applies a single move against the given position.
// Returns ErrIllegalMove when the move is not legal in that position.
func (e *Engine) Apply(fen, from, to, promotion string) (*Verdict, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return nil, err
	}
	pos := game.Position()

	uci := strings.ToLower(strings.TrimSpace(from) + strings.TrimSpace(to) + strings.TrimSpace(promotion))
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	v := &Verdict{
		SAN:   nchess.AlgebraicNotation{}.Encode(pos, mv),
		Piece: pieceLetter(pos.Board().Piece(mv.S1()).Type()),
	}
	if mv.HasTag(nchess.EnPassant) {
		v.Captured = "p"
	} else if captured := pos.Board().Piece(mv.S2()); captured != nchess.NoPiece {
		v.Captured = pieceLetter(captured.Type())
	}
	if promo := mv.Promo(); promo != nchess.NoPieceType {
		v.Promotion = pieceLetter(promo)
	}

	if err := game.Move(mv, nil); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	v.FEN = game.FEN()
	v.Check = mv.HasTag(nchess.Check)

	switch game.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		v.Checkmate = game.Method() == nchess.Checkmate
	case nchess.Draw:
		v.Draw = true
		switch game.Method() {
		case nchess.Stalemate:
			v.Stalemate = true
		case nchess.InsufficientMaterial:
			v.InsufficientMaterial = true
		case nchess.ThreefoldRepetition, nchess.FivefoldRepetition:
			v.Repetition = true
		}
	}

	return v, nil
}

func gameFromFEN(fen string) (*nchess.Game, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		fen = StartingFEN
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return nchess.NewGame(opt), nil
}

func pieceLetter(t nchess.PieceType) string {
	switch t {
	case nchess.Pawn:
		return "p"
	case nchess.Knight:
		return "n"
	case nchess.Bishop:
		return "b"
	case nchess.Rook:
		return "r"
	case nchess.Queen:
		return "q"
	case nchess.King:
		return "k"
	default:
		return ""
	}
}
