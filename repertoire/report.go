package repertoire

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/position"
)

const (
	histogramBins  = 10
	histogramWidth = 40
)

// Limits is how many positions each report section lists. Sections with a
// zero limit are left out.
type Limits struct {
	Best   int
	Worst  int
	Most   int
	Costly int
}

// PositionReport describes one recommended position.
type PositionReport struct {
	FEN       string  `yaml:"fen"`
	Side      string  `yaml:"side"`
	Frequency float64 `yaml:"frequency"`
	// OnceIn is roughly how many games pass per encounter; zero if the
	// position is never reached.
	OnceIn          float64 `yaml:"once_in_games"`
	Prepared        int     `yaml:"prepared_moves"`
	Usefulness      float64 `yaml:"usefulness,omitempty"`
	Line            string  `yaml:"likeliest_line"`
	LineProbability float64 `yaml:"likeliest_line_probability"`

	diagram string
}

type Section struct {
	Title     string           `yaml:"title"`
	Advice    string           `yaml:"advice"`
	Positions []PositionReport `yaml:"positions"`
}

type Report struct {
	Summary  Summary   `yaml:"summary"`
	Sections []Section `yaml:"sections"`

	unprepared []float64
}

func describe(n *position.Node) (PositionReport, error) {
	b, err := board.FromFEN(n.FEN())
	if err != nil {
		return PositionReport{}, err
	}
	seq := n.Sequence()
	pr := PositionReport{
		FEN:             n.FEN(),
		Side:            b.Turn().String(),
		Frequency:       n.Frequency(),
		Prepared:        n.TransitionCount(),
		Line:            seq.String(),
		LineProbability: seq.Probability,
		diagram:         b.Draw(b.Turn() == board.Black),
	}
	if pr.Frequency > 0 {
		pr.OnceIn = math.Round(1 / pr.Frequency)
	}
	if pr.Prepared > 0 {
		pr.Usefulness = pr.Frequency / float64(pr.Prepared)
	}
	return pr, nil
}

// BuildReport summarizes the optimizers and selects the recommended
// positions over the own positions of all of them.
func BuildReport(optimizers []*Optimizer, limits Limits) (*Report, error) {
	positions := Positions(optimizers...)
	r := &Report{Summary: Summarize(optimizers...)}
	sections := []struct {
		limit  int
		title  string
		advice string
		pick   func([]*position.Node, int) []*position.Node
	}{
		{limits.Best,
			"Positions you are most likely to encounter where you are out-of-book",
			"Consider adding these to your repertoire, as it will improve it the most",
			RecommendForAddition},
		{limits.Worst,
			"Positions you are least likely to encounter where you have a line prepared",
			"Consider removing these from your repertoire, as it will have the least impact",
			RecommendForRemoval},
		{limits.Most,
			"Positions where your prepared moves are least likely to be used",
			"Consider reducing the number of different moves you play here",
			RecommendForNarrowing},
		{limits.Costly,
			"Most frequent positions where you have more than one move prepared",
			"Reducing your options here would reduce your workload the most, while still keeping you prepared",
			RecommendForReduction},
	}
	for _, sc := range sections {
		if sc.limit <= 0 {
			continue
		}
		sec := Section{Title: sc.title, Advice: sc.advice}
		for _, n := range sc.pick(positions, sc.limit) {
			pr, err := describe(n)
			if err != nil {
				return nil, err
			}
			sec.Positions = append(sec.Positions, pr)
		}
		r.Sections = append(r.Sections, sec)
	}
	r.unprepared = lo.FilterMap(positions, func(n *position.Node, _ int) (float64, bool) {
		return n.Frequency(), n.TransitionCount() == 0
	})
	return r, nil
}

func (s Summary) writeText(w io.Writer) {
	fmt.Fprintln(w, "## Repertoire Statistics ##")
	fmt.Fprintf(w, "Average moves you stay in book per game: %.5f (higher is better)\n", s.AverageBookLength)
	fmt.Fprintf(w, "Your repertoire spans %d positions (lower is better)\n", s.PreparedPositions)
	fmt.Fprintf(w, "=> Average impact of each move in your repertoire: m%.5f (higher is better)\n", s.ImpactPerMove)
	fmt.Fprintf(w, "You have %d unprepared positions (lower is better)\n", s.UnpreparedPositions)
	fmt.Fprintf(w, "Moves in book until out of preparation: %.2f ± %.2f\n", s.BookDepthMean, s.BookDepthStdDev)
	fmt.Fprintf(w, "Prepared replies per position: %.2f on average, at most %d\n", s.BranchingMean, s.BranchingMax)
	if s.RepetitionMass > 0 {
		fmt.Fprintf(w, "Probability lost to repeated positions: %.6f%%\n", 100*s.RepetitionMass)
	}
	if s.TruncatedMass > 0 {
		fmt.Fprintf(w, "Probability beyond the ply limit: %.6f%%\n", 100*s.TruncatedMass)
	}
}

func (p PositionReport) writeText(w io.Writer) {
	fmt.Fprint(w, p.diagram)
	if p.Frequency > 0 {
		fmt.Fprintf(w, "Encountered once in ~%.0f %s games (%.6f%%)\n", p.OnceIn, p.Side, 100*p.Frequency)
	} else {
		fmt.Fprintln(w, "Never encountered")
	}
	fmt.Fprintf(w, "You have prepared %d moves here.\n", p.Prepared)
	if p.Prepared > 0 {
		fmt.Fprintf(w, "Likelihood for any single prepared move to be useful: %.6f%%\n", 100*p.Usefulness)
	}
	if p.Line != "" {
		fmt.Fprintf(w, "Likeliest line: %s (%.6f%%)\n", p.Line, 100*p.LineProbability)
	}
}

// WriteText prints the report the way it is shown on a terminal. With
// withHistogram set, the frequencies of unprepared positions are plotted
// after the summary.
func (r *Report) WriteText(w io.Writer, withHistogram bool) error {
	fmt.Fprintln(w)
	r.Summary.writeText(w)
	if withHistogram && plottable(r.unprepared) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "## Frequencies of unprepared positions ##")
		h := histogram.Hist(histogramBins, r.unprepared)
		if err := histogram.Fprint(w, h, histogram.Linear(histogramWidth)); err != nil {
			return err
		}
	}
	for _, sec := range r.Sections {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "## %s ##\n", sec.Title)
		fmt.Fprintln(w, sec.Advice)
		fmt.Fprintln(w)
		for _, p := range sec.Positions {
			p.writeText(w)
			fmt.Fprintln(w)
		}
	}
	return nil
}

// plottable is false for data a histogram cannot bin: fewer than two values
// or all of them equal.
func plottable(vals []float64) bool {
	if len(vals) < 2 {
		return false
	}
	return lo.Min(vals) < lo.Max(vals)
}

func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
