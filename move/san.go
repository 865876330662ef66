package move

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrBadNotation = errors.New("unrecognized move notation")

var reSAN, reCastle *regexp.Regexp

func init() {
	reSAN = regexp.MustCompile(`^(?P<piece>[KQRBN])?(?P<file>[a-h])?(?P<rank>[1-8])?(?P<capture>[x:])?(?P<to>[a-h][1-8])(?:=?(?P<promo>[QRBN]))?$`)
	reCastle = regexp.MustCompile(`^(?:O-O(?P<long>-O)?|0-0(?P<zlong>-0)?)$`)
}

var letterPieces = map[string]Piece{
	"":  Pawn,
	"N": Knight,
	"B": Bishop,
	"R": Rook,
	"Q": Queen,
	"K": King,
}

// ParseSAN parses a move in standard algebraic notation. Check and mate
// marks and annotation glyphs (!, ?, !?, ...) are accepted and ignored.
func ParseSAN(text string) (Structured, error) {
	bare := strings.TrimRight(text, "+#!?")
	if bare == "" {
		return Structured{}, fmt.Errorf("%w: %q", ErrBadNotation, text)
	}

	if m := reCastle.FindStringSubmatch(bare); m != nil {
		s := Structured{Piece: King, Castle: KingSide, Promotion: NoPiece, Text: bare}
		if m[1] != "" || m[2] != "" {
			s.Castle = QueenSide
		}
		return s, nil
	}

	m := reSAN.FindStringSubmatch(bare)
	if m == nil {
		return Structured{}, fmt.Errorf("%w: %q", ErrBadNotation, text)
	}
	s := Structured{
		Piece:     letterPieces[m[1]],
		To:        m[5],
		Capture:   m[4] != "",
		Promotion: NoPiece,
		Text:      bare,
	}
	if m[2] != "" {
		s.FromFile = m[2][0]
	}
	if m[3] != "" {
		s.FromRank = m[3][0]
	}
	if m[6] != "" {
		if s.Piece != Pawn {
			return Structured{}, fmt.Errorf("%w: only pawns promote: %q", ErrBadNotation, text)
		}
		s.Promotion = letterPieces[m[6]]
	}
	return s, nil
}
