package repertoire

import (
	"github.com/samber/lo"

	"github.com/domino14/repopt/position"
	"github.com/domino14/repopt/stats"
)

// Summary describes a whole repertoire, usually both colors together.
type Summary struct {
	// AverageBookLength is the mean over the optimizers of their expected
	// in-book length in full moves.
	AverageBookLength   float64 `yaml:"average_book_length"`
	PreparedPositions   int     `yaml:"prepared_positions"`
	UnpreparedPositions int     `yaml:"unprepared_positions"`
	// ImpactPerMove is AverageBookLength in thousandths per prepared
	// position.
	ImpactPerMove   float64 `yaml:"impact_per_move"`
	BookDepthMean   float64 `yaml:"book_depth_mean"`
	BookDepthStdDev float64 `yaml:"book_depth_stddev"`
	BranchingMean   float64 `yaml:"branching_mean"`
	BranchingMax    int     `yaml:"branching_max"`
	RepetitionMass  float64 `yaml:"repetition_mass"`
	TruncatedMass   float64 `yaml:"truncated_mass"`
}

// Positions concatenates the own positions of every optimizer.
func Positions(optimizers ...*Optimizer) []*position.Node {
	return lo.FlatMap(optimizers, func(o *Optimizer, _ int) []*position.Node {
		return o.OwnPositions()
	})
}

// Summarize computes repertoire statistics after propagation.
func Summarize(optimizers ...*Optimizer) Summary {
	var s Summary
	if len(optimizers) == 0 {
		return s
	}
	s.AverageBookLength = lo.SumBy(optimizers, func(o *Optimizer) float64 {
		return o.AverageBookLength
	}) / float64(len(optimizers))
	s.RepetitionMass = lo.SumBy(optimizers, func(o *Optimizer) float64 { return o.RepetitionMass })
	s.TruncatedMass = lo.SumBy(optimizers, func(o *Optimizer) float64 { return o.TruncatedMass })

	positions := Positions(optimizers...)
	prepared, unprepared := lo.FilterReject(positions, func(n *position.Node, _ int) bool {
		return n.TransitionCount() > 0
	})
	s.PreparedPositions = len(prepared)
	s.UnpreparedPositions = len(unprepared)
	if s.PreparedPositions > 0 {
		s.ImpactPerMove = s.AverageBookLength * 1000 / float64(s.PreparedPositions)
	}

	var branching stats.Statistic
	for _, n := range prepared {
		branching.Push(float64(n.TransitionCount()))
	}
	s.BranchingMean = branching.Mean()
	s.BranchingMax = int(branching.Max())

	var depths stats.Weighted
	for _, o := range optimizers {
		depths.Merge(o.Depths())
	}
	s.BookDepthMean, s.BookDepthStdDev = depths.MeanStdDev()
	return s
}
