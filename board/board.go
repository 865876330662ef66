// Package board adapts a chess rules engine to the handful of operations the
// repertoire optimizer needs: parse a position, list its legal moves, play a
// move and describe the result.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/domino14/repopt/move"
)

// StartingFEN is the initial position of standard chess.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid position description")
	ErrIllegalCode = errors.New("no legal move for code")
)

// Color is a side in the game.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "Black"
	}
	return "White"
}

// Other returns the opposing side.
func (c Color) Other() Color {
	return 1 - c
}

// ParseColor accepts white/black/w/b in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(s) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("unknown color %q", s)
}

// Board is an immutable chess position.
type Board struct {
	pos *chess.Position
}

// FromFEN parses a full position description.
func FromFEN(fen string) (*Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidFEN, fen, err)
	}
	return &Board{pos: chess.NewGame(opt).Position()}, nil
}

// Start returns the initial position.
func Start() *Board {
	return &Board{pos: chess.NewGame().Position()}
}

func (b *Board) Turn() Color {
	if b.pos.Turn() == chess.Black {
		return Black
	}
	return White
}

// FEN returns the full description, including the move counters. The
// en-passant square is only given when an en-passant capture is legal, so
// move orders that transpose produce the same description.
func (b *Board) FEN() string {
	fen := b.pos.String()
	fields := strings.Fields(fen)
	if len(fields) < 4 || fields[3] == "-" {
		return fen
	}
	for _, mv := range b.pos.ValidMoves() {
		if mv.HasTag(chess.EnPassant) {
			return fen
		}
	}
	fields[3] = "-"
	return strings.Join(fields, " ")
}

// Candidate is a legal move described by the features a game score can
// mention.
type Candidate struct {
	Piece     move.Piece
	From      string
	To        string
	Capture   bool
	Promotion move.Piece
	Castle    move.Castle

	mv *chess.Move
}

// Code renders the candidate as a coordinate move code (e2e4, e7e8q). Castles
// are given as king moves (e1g1).
func (c Candidate) Code() string {
	code := c.From + c.To
	switch c.Promotion {
	case move.Knight:
		code += "n"
	case move.Bishop:
		code += "b"
	case move.Rook:
		code += "r"
	case move.Queen:
		code += "q"
	}
	return code
}

// Matches reports whether the candidate agrees with every feature that s
// specifies.
func (c Candidate) Matches(s move.Structured) bool {
	if s.Castle != move.NoCastle {
		return c.Castle == s.Castle
	}
	if c.Piece != s.Piece || c.To != s.To || c.Capture != s.Capture {
		return false
	}
	if s.FromFile != 0 && c.From[0] != s.FromFile {
		return false
	}
	if s.FromRank != 0 && c.From[1] != s.FromRank {
		return false
	}
	if s.Promotes() {
		return c.Promotion == s.Promotion
	}
	return c.Promotion == move.NoPiece
}

func convertPieceType(pt chess.PieceType) move.Piece {
	switch pt {
	case chess.Pawn:
		return move.Pawn
	case chess.Knight:
		return move.Knight
	case chess.Bishop:
		return move.Bishop
	case chess.Rook:
		return move.Rook
	case chess.Queen:
		return move.Queen
	case chess.King:
		return move.King
	}
	return move.NoPiece
}

// LegalMoves enumerates every legal move in the position.
func (b *Board) LegalMoves() []Candidate {
	valid := b.pos.ValidMoves()
	cands := make([]Candidate, 0, len(valid))
	brd := b.pos.Board()
	for _, mv := range valid {
		c := Candidate{
			Piece:     convertPieceType(brd.Piece(mv.S1()).Type()),
			From:      mv.S1().String(),
			To:        mv.S2().String(),
			Capture:   mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant),
			Promotion: convertPieceType(mv.Promo()),
			mv:        mv,
		}
		switch {
		case mv.HasTag(chess.KingSideCastle):
			c.Castle = move.KingSide
		case mv.HasTag(chess.QueenSideCastle):
			c.Castle = move.QueenSide
		}
		cands = append(cands, c)
	}
	return cands
}

// Play applies a candidate obtained from LegalMoves of this board.
func (b *Board) Play(c Candidate) *Board {
	return &Board{pos: b.pos.Update(c.mv)}
}

// PlayCode applies a coordinate move code.
func (b *Board) PlayCode(code string) (*Board, error) {
	for _, c := range b.LegalMoves() {
		if c.Code() == code {
			return b.Play(c), nil
		}
	}
	return nil, fmt.Errorf("%w %q in %q", ErrIllegalCode, code, b.FEN())
}
