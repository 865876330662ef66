package repertoire

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/domino14/repopt/position"
)

// OwnPositions returns the positions where the owner is to move, in the
// order they were first reached.
func (o *Optimizer) OwnPositions() []*position.Node {
	return lo.Filter(o.graph.Nodes(), func(n *position.Node, _ int) bool {
		return o.owns(n)
	})
}

// RecommendForAddition returns the k most frequent positions without a
// prepared reply.
func RecommendForAddition(positions []*position.Node, k int) []*position.Node {
	return rank(positions, k, true,
		func(n *position.Node) bool { return n.TransitionCount() == 0 },
		(*position.Node).Frequency)
}

// RecommendForRemoval returns the k least frequent positions that have a
// prepared reply.
func RecommendForRemoval(positions []*position.Node, k int) []*position.Node {
	return rank(positions, k, false,
		func(n *position.Node) bool { return n.TransitionCount() > 0 },
		(*position.Node).Frequency)
}

// RecommendForNarrowing returns the k positions with several prepared
// replies where each reply is least likely to be needed.
func RecommendForNarrowing(positions []*position.Node, k int) []*position.Node {
	return rank(positions, k, false, hasChoices, narrowingScore)
}

// RecommendForReduction returns the k positions where keeping several
// prepared replies costs the most.
func RecommendForReduction(positions []*position.Node, k int) []*position.Node {
	return rank(positions, k, true, hasChoices, reductionScore)
}

func hasChoices(n *position.Node) bool {
	return n.TransitionCount() > 1
}

// narrowingScore is the chance that one particular prepared reply is needed.
func narrowingScore(n *position.Node) float64 {
	return n.Frequency() / float64(n.TransitionCount())
}

// reductionScore grows with both how often the position comes up and how
// many replies are kept for it.
func reductionScore(n *position.Node) float64 {
	return n.Frequency() * float64(n.TransitionCount())
}

// rank filters, sorts by score and keeps the first k. Equal scores are
// ordered by key so that the result does not depend on the input order.
// A non-finite score is a bug in propagation and panics.
func rank(positions []*position.Node, k int, descending bool,
	keep func(*position.Node) bool, score func(*position.Node) float64) []*position.Node {

	if k <= 0 {
		return nil
	}
	type scored struct {
		n     *position.Node
		score float64
	}
	sel := lo.FilterMap(positions, func(n *position.Node, _ int) (scored, bool) {
		if !keep(n) {
			return scored{}, false
		}
		s := score(n)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			panic(fmt.Sprintf("non-finite score %v for position %s", s, n.Key()))
		}
		return scored{n: n, score: s}, true
	})
	slices.SortStableFunc(sel, func(a, b scored) int {
		c := cmp.Compare(a.score, b.score)
		if descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.n.Key(), b.n.Key())
	})
	if k < len(sel) {
		sel = sel[:k]
	}
	return lo.Map(sel, func(s scored, _ int) *position.Node { return s.n })
}
