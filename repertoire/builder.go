package repertoire

import (
	"github.com/samber/lo"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/move"
)

// AddGame adds one prepared line, replayed from the initial position. Each
// move must resolve to exactly one legal move. On error the moves before the
// offending one stay in the graph; the caller can go on with the next line.
func (o *Optimizer) AddGame(moves []move.Structured) error {
	b := board.Start()
	node := o.root
	for _, s := range moves {
		matches := lo.Filter(b.LegalMoves(), func(c board.Candidate, _ int) bool {
			return c.Matches(s)
		})
		switch len(matches) {
		case 0:
			return &IllegalMoveError{FEN: b.FEN(), Move: s.String()}
		case 1:
		default:
			return &AmbiguousMoveError{FEN: b.FEN(), Move: s.String()}
		}
		b = b.Play(matches[0])
		// The weight is set by SetOwnMoveFrequencies or AddOpponentMoves.
		node = o.graph.Link(node, b.FEN(), move.FromStructured(s), 0)
	}
	return nil
}
