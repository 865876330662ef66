package repertoire

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/book"
	"github.com/domino14/repopt/position"
	"github.com/domino14/repopt/stats"
)

func TestSingleLineWithBookReply(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "e4 e5")
	bt := newBookTable()
	bt.set(fenAfter(t, "e2e4"), book.Move{Code: "e7e5", Frequency: 1.0})
	finalize(t, o, bt)

	is.Equal(o.Root().Frequency(), 1.0)
	afterE4 := node(t, o, fenAfter(t, "e2e4"))
	afterE5 := node(t, o, fenAfter(t, "e2e4", "e7e5"))
	is.Equal(afterE4.Frequency(), 1.0)
	is.Equal(afterE5.Frequency(), 1.0)
	is.Equal(o.AverageBookLength, 1.0)

	add := RecommendForAddition(o.OwnPositions(), 10)
	is.Equal(len(add), 1)
	is.Equal(add[0].Key(), afterE5.Key())
	is.Equal(add[0].Frequency(), 1.0)

	// The book overwrote the placeholder edge from the game.
	tr, ok := afterE4.Transition(afterE5.Key())
	is.True(ok)
	is.Equal(tr.Frequency, 1.0)
	is.Equal(tr.Move.String(), "e7e5")
}

func TestAugmentationQueriesOpponentPositionsOnly(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "e4 e5 Nf3", "d4")
	bt := newBookTable()
	finalize(t, o, bt)
	// after 1.e4, after 1.e4 e5 2.Nf3 and after 1.d4
	is.Equal(bt.calls, 3)
}

func TestEquallyWeightedChildren(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "e4", "d4")
	finalize(t, o, newBookTable())

	is.Equal(o.Root().Frequency(), 1.0)
	is.Equal(node(t, o, fenAfter(t, "e2e4")).Frequency(), 0.5)
	is.Equal(node(t, o, fenAfter(t, "d2d4")).Frequency(), 0.5)
	is.Equal(o.AverageBookLength, 0.0)
}

func TestUnpreparedRoot(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	finalize(t, o, newBookTable())
	is.Equal(o.Root().Frequency(), 1.0)
	is.Equal(o.AverageBookLength, 0.0)
	add := RecommendForAddition(o.OwnPositions(), 3)
	is.Equal(len(add), 1)
	is.Equal(add[0].Key(), o.Root().Key())
}

func TestTranspositionsSum(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "Nf3 Nf6 Nc3", "Nc3 Nf6 Nf3")
	bt := newBookTable()
	bt.set(fenAfter(t, "g1f3"), book.Move{Code: "g8f6", Frequency: 1.0})
	bt.set(fenAfter(t, "b1c3"), book.Move{Code: "g8f6", Frequency: 1.0})
	finalize(t, o, bt)

	both := fenAfter(t, "g1f3", "g8f6", "b1c3")
	is.Equal(position.Canonicalize(both), position.Canonicalize(fenAfter(t, "b1c3", "g8f6", "g1f3")))
	is.True(stats.FuzzyEqual(node(t, o, both).Frequency(), 1.0))
	// root, two first moves, two replies, one shared position
	is.Equal(o.Graph().Len(), 6)
}

func TestTranspositionEndingInDoublePush(t *testing.T) {
	is := is.New(t)
	o := New(board.Black)
	addLines(t, o, "e4 c5 c3", "c3 c5 e4")
	bt := newBookTable()
	bt.set(board.StartingFEN,
		book.Move{Code: "e2e4", Frequency: 0.5},
		book.Move{Code: "c2c3", Frequency: 0.5})
	bt.set(fenAfter(t, "e2e4", "c7c5"), book.Move{Code: "c2c3", Frequency: 1.0})
	bt.set(fenAfter(t, "c2c3", "c7c5"), book.Move{Code: "e2e4", Frequency: 1.0})
	finalize(t, o, bt)

	is.Equal(fenAfter(t, "c2c3", "c7c5", "e2e4"), fenAfter(t, "e2e4", "c7c5", "c2c3"))
	add := RecommendForAddition(o.OwnPositions(), 10)
	is.Equal(len(add), 1)
	is.True(stats.FuzzyEqual(add[0].Frequency(), 1.0))
	is.Equal(add[0].Key(), position.Canonicalize(fenAfter(t, "e2e4", "c7c5", "c2c3")))
}

func TestLikeliestPathKeepsHighestMass(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "Nf3 Nf6 Nc3", "Nc3 Nf6 Nf3", "e4")
	bt := newBookTable()
	bt.set(fenAfter(t, "g1f3"), book.Move{Code: "g8f6", Frequency: 1.0})
	bt.set(fenAfter(t, "b1c3"), book.Move{Code: "g8f6", Frequency: 0.5})
	finalize(t, o, bt)

	n := node(t, o, fenAfter(t, "g1f3", "g8f6", "b1c3"))
	is.True(stats.FuzzyEqual(n.Frequency(), 0.5))
	seq := n.Sequence()
	is.Equal(seq.Len(), 3)
	is.True(stats.FuzzyEqual(seq.Probability, 1.0/3))
	is.True(strings.HasPrefix(seq.String(), "1. Nf3"))
	is.Equal(o.Root().Sequence().Len(), 0)
	is.Equal(o.Root().Sequence().Probability, 1.0)
}

func TestRepetitionTerminates(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "Nf3 Nf6 Ng1 Ng8")
	bt := newBookTable()
	bt.set(fenAfter(t, "g1f3"), book.Move{Code: "g8f6", Frequency: 1.0})
	bt.set(fenAfter(t, "g1f3", "g8f6", "f3g1"), book.Move{Code: "f6g8", Frequency: 1.0})
	finalize(t, o, bt)

	_, ok := o.Root().Transition(position.Canonicalize(fenAfter(t, "g1f3")))
	is.True(ok)
	is.Equal(o.Root().Frequency(), 1.0)
	is.Equal(o.RepetitionMass, 1.0)
	is.Equal(o.Graph().Len(), 4)
}

func TestMaxPlyTruncates(t *testing.T) {
	is := is.New(t)
	o := New(board.White, WithMaxPly(1))
	addLines(t, o, "e4 e5 Nf3")
	bt := newBookTable()
	bt.set(fenAfter(t, "e2e4"), book.Move{Code: "e7e5", Frequency: 0.75})
	finalize(t, o, bt)

	is.Equal(node(t, o, fenAfter(t, "e2e4")).Frequency(), 1.0)
	is.Equal(node(t, o, fenAfter(t, "e2e4", "e7e5")).Frequency(), 0.0)
	is.Equal(o.TruncatedMass, 0.75)
}

func TestIllegalMove(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	err := o.AddGame(line(t, "e4 e5 Ke3"))
	is.True(errors.Is(err, ErrIllegalMove))
	var ime *IllegalMoveError
	is.True(errors.As(err, &ime))
	is.Equal(ime.Move, "Ke3")
	is.Equal(ime.FEN, fenAfter(t, "e2e4", "e7e5"))
	// Moves before the bad one were kept.
	is.Equal(o.Graph().Len(), 3)

	// The next line is unaffected.
	is.NoErr(o.AddGame(line(t, "d4")))
}

func TestAmbiguousMove(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	err := o.AddGame(line(t, "d4 d5 Nf3 Nf6 Nd2"))
	is.True(errors.Is(err, ErrAmbiguousMove))
	is.True(!errors.Is(err, ErrIllegalMove))
	var ame *AmbiguousMoveError
	is.True(errors.As(err, &ame))
	is.Equal(ame.Move, "Nd2")
	is.NoErr(o.AddGame(line(t, "d4 d5 Nf3 Nf6 Nbd2")))
}

func TestBookCodeIllegal(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "e4")
	bt := newBookTable()
	bt.set(fenAfter(t, "e2e4"), book.Move{Code: "e2e4", Frequency: 0.5})
	err := o.AddOpponentMoves(context.Background(), bt)
	is.True(errors.Is(err, ErrIllegalMove))
}

func TestProviderErrorIsReturned(t *testing.T) {
	is := is.New(t)
	o := New(board.Black)
	boom := errors.New("boom")
	err := o.AddOpponentMoves(context.Background(), book.ProviderFunc(
		func(ctx context.Context, fen string) (book.Moves, error) {
			return nil, boom
		}))
	is.True(errors.Is(err, boom))
}

func TestOwnMovesShareWeight(t *testing.T) {
	is := is.New(t)
	o := New(board.Black)
	addLines(t, o, "e4 e5", "e4 c5", "e4 e6")
	o.SetOwnMoveFrequencies()
	afterE4 := node(t, o, fenAfter(t, "e2e4"))
	is.Equal(afterE4.TransitionCount(), 3)
	for _, tr := range afterE4.Transitions() {
		is.Equal(tr.Frequency, 1.0/3)
	}
	// Opponent edges are left alone.
	for _, tr := range o.Root().Transitions() {
		is.Equal(tr.Frequency, 0.0)
	}
}

// threeReplies builds a Black repertoire where the position after 1.e4 has
// three prepared replies and is reached with probability 0.6.
func threeReplies(t *testing.T) *Optimizer {
	o := New(board.Black)
	addLines(t, o, "e4 e5", "e4 c5", "e4 e6", "d4 d5")
	bt := newBookTable()
	bt.set(board.StartingFEN,
		book.Move{Code: "e2e4", Frequency: 0.6},
		book.Move{Code: "d2d4", Frequency: 0.4})
	finalize(t, o, bt)
	return o
}

func TestRankingKeys(t *testing.T) {
	is := is.New(t)
	o := threeReplies(t)
	afterE4 := node(t, o, fenAfter(t, "e2e4"))
	afterD4 := node(t, o, fenAfter(t, "d2d4"))
	is.True(stats.FuzzyEqual(afterE4.Frequency(), 0.6))
	is.True(stats.FuzzyEqual(narrowingScore(afterE4), 0.2))
	is.True(stats.FuzzyEqual(reductionScore(afterE4), 1.8))

	positions := o.OwnPositions()
	is.Equal(len(positions), 2)

	narrow := RecommendForNarrowing(positions, 5)
	is.Equal(len(narrow), 1)
	is.Equal(narrow[0].Key(), afterE4.Key())
	is.Equal(RecommendForReduction(positions, 5)[0].Key(), afterE4.Key())

	removal := RecommendForRemoval(positions, 5)
	is.Equal(len(removal), 2)
	is.Equal(removal[0].Key(), afterD4.Key())
	is.Equal(len(RecommendForRemoval(positions, 1)), 1)
	is.Equal(len(RecommendForAddition(positions, 5)), 0)
	is.Equal(len(RecommendForAddition(positions, 0)), 0)
}

func TestRankingIsRepeatable(t *testing.T) {
	is := is.New(t)
	o := New(board.White)
	addLines(t, o, "e4", "d4", "c4", "Nf3")
	finalize(t, o, newBookTable())
	o2 := New(board.Black)
	addLines(t, o2, "e4 e5", "e4 c5", "d4 d5", "c4 e5")
	finalize(t, o2, newBookTable())
	positions := Positions(o, o2)

	for _, pick := range []func([]*position.Node, int) []*position.Node{
		RecommendForAddition, RecommendForRemoval, RecommendForNarrowing, RecommendForReduction,
	} {
		first := pick(positions, 3)
		second := pick(positions, 3)
		is.Equal(len(first), len(second))
		for i := range first {
			is.Equal(first[i].Key(), second[i].Key())
		}
		// Reversing the input does not change the result.
		reversed := make([]*position.Node, len(positions))
		for i, n := range positions {
			reversed[len(positions)-1-i] = n
		}
		third := pick(reversed, 3)
		for i := range first {
			is.Equal(first[i].Key(), third[i].Key())
		}
	}
}

func TestFrequenciesStayFinite(t *testing.T) {
	is := is.New(t)
	o := threeReplies(t)
	for _, n := range o.Graph().Nodes() {
		f := n.Frequency()
		is.True(!math.IsNaN(f) && !math.IsInf(f, 0))
		is.True(f >= 0 && f <= 1+stats.Epsilon)
	}
	assert.NotPanics(t, func() {
		RecommendForReduction(o.OwnPositions(), 10)
	})
}

func TestNonFiniteScorePanics(t *testing.T) {
	o := threeReplies(t)
	assert.Panics(t, func() {
		rank(o.OwnPositions(), 1, false,
			func(*position.Node) bool { return true },
			func(*position.Node) float64 { return math.NaN() })
	})
}
