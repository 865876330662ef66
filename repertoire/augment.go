package repertoire

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/book"
	"github.com/domino14/repopt/move"
)

// AddOpponentMoves asks the provider for the replies played in every position
// where the opponent is to move, and links them with their frequencies.
// Positions created here are not queried themselves; the owner moves in
// them.
func (o *Optimizer) AddOpponentMoves(ctx context.Context, provider book.Provider) error {
	queried := 0
	for _, n := range o.graph.MutableNodes() {
		if o.owns(n) {
			continue
		}
		moves, err := provider.Moves(ctx, n.FEN())
		if err != nil {
			return fmt.Errorf("book moves for %s: %w", n.FEN(), err)
		}
		b, err := board.FromFEN(n.FEN())
		if err != nil {
			return err
		}
		for _, bm := range moves {
			next, err := b.PlayCode(bm.Code)
			if err != nil {
				return &IllegalMoveError{FEN: n.FEN(), Move: bm.Code}
			}
			o.graph.Link(n, next.FEN(), move.FromCode(bm.Code), bm.Frequency)
		}
		queried++
		log.Debug().Str("fen", n.FEN()).Int("replies", len(moves)).Msg("added-book-moves")
	}
	log.Info().Str("owner", o.owner.String()).Int("queried", queried).
		Int("positions", o.graph.Len()).Msg("book-augmentation-done")
	return nil
}
