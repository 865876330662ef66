package move

import (
	"fmt"
	"strings"
)

// Piece is the kind of chessman that makes a move. The zero value is a pawn,
// since SAN omits the letter for pawn moves.
type Piece uint8

const (
	Pawn Piece = iota
	Knight
	Bishop
	Rook
	Queen
	King
	// NoPiece is only meaningful as a promotion target.
	NoPiece
)

var pieceLetters = map[Piece]string{
	Pawn:   "",
	Knight: "N",
	Bishop: "B",
	Rook:   "R",
	Queen:  "Q",
	King:   "K",
}

func (p Piece) String() string {
	switch p {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// Castle is the side a castling move goes to.
type Castle uint8

const (
	NoCastle Castle = iota
	KingSide
	QueenSide
)

// Structured is a move as it is recorded in a game score. Origin file and
// rank are only set when the notation disambiguates with them; a zero byte
// means "any".
type Structured struct {
	Piece     Piece
	FromFile  byte
	FromRank  byte
	To        string
	Capture   bool
	Promotion Piece
	Castle    Castle
	// Text is the notation the move was parsed from, if any.
	Text string
}

// SAN renders the move in standard algebraic notation, without check marks.
func (s Structured) SAN() string {
	switch s.Castle {
	case KingSide:
		return "O-O"
	case QueenSide:
		return "O-O-O"
	}
	var sb strings.Builder
	sb.WriteString(pieceLetters[s.Piece])
	if s.FromFile != 0 {
		sb.WriteByte(s.FromFile)
	}
	if s.FromRank != 0 {
		sb.WriteByte(s.FromRank)
	}
	if s.Capture {
		sb.WriteByte('x')
	}
	sb.WriteString(s.To)
	if s.Promotes() {
		sb.WriteByte('=')
		sb.WriteString(pieceLetters[s.Promotion])
	}
	return sb.String()
}

// Promotes reports whether the move names a promotion piece.
func (s Structured) Promotes() bool {
	return s.Promotion != NoPiece && s.Promotion != Pawn
}

func (s Structured) String() string {
	if s.Text != "" {
		return s.Text
	}
	return s.SAN()
}

// Kind says which representation a Move carries.
type Kind uint8

const (
	// KindStructured moves come from a repertoire game score.
	KindStructured Kind = iota
	// KindCode moves are raw coordinate codes (e2e4, e7e8q) from an
	// opening book.
	KindCode
)

// Move is either a structured repertoire move or a raw book move code.
type Move struct {
	kind       Kind
	structured Structured
	code       string
}

func FromStructured(s Structured) Move {
	return Move{kind: KindStructured, structured: s}
}

func FromCode(code string) Move {
	return Move{kind: KindCode, code: code}
}

func (m Move) Kind() Kind {
	return m.kind
}

// Structured returns the structured form, if this move has one.
func (m Move) Structured() (Structured, bool) {
	return m.structured, m.kind == KindStructured
}

// Code returns the raw book code, if this move has one.
func (m Move) Code() (string, bool) {
	return m.code, m.kind == KindCode
}

func (m Move) String() string {
	if m.kind == KindCode {
		return m.code
	}
	return m.structured.String()
}

// Equal reports whether two moves have the same kind and render identically.
func (m Move) Equal(o Move) bool {
	return m.kind == o.kind && m.String() == o.String()
}

// Sequence is a line of moves from the initial position together with the
// probability of reaching its end along exactly that line.
type Sequence struct {
	Moves       []Move
	Probability float64
}

// Extend returns a copy of the sequence with mv appended. The receiver is
// never modified, so sequences can be shared between work items.
func (s Sequence) Extend(mv Move, probability float64) Sequence {
	moves := make([]Move, len(s.Moves), len(s.Moves)+1)
	copy(moves, s.Moves)
	return Sequence{Moves: append(moves, mv), Probability: probability}
}

func (s Sequence) Len() int {
	return len(s.Moves)
}

// String numbers the moves as in a game score: "1. e4 e5 2. Nf3".
func (s Sequence) String() string {
	var sb strings.Builder
	for i, mv := range s.Moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. ", i/2+1)
		}
		sb.WriteString(mv.String())
	}
	return sb.String()
}
