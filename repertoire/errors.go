package repertoire

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrAmbiguousMove = errors.New("ambiguous move")
)

// IllegalMoveError is returned when a move matches no legal move of the
// position it is played in.
type IllegalMoveError struct {
	FEN  string
	Move string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %s in position %s", e.Move, e.FEN)
}

func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}

// AmbiguousMoveError is returned when a move matches more than one legal
// move.
type AmbiguousMoveError struct {
	FEN  string
	Move string
}

func (e *AmbiguousMoveError) Error() string {
	return fmt.Sprintf("ambiguous move %s in position %s", e.Move, e.FEN)
}

func (e *AmbiguousMoveError) Is(target error) bool {
	return target == ErrAmbiguousMove
}
