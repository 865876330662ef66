package stats

import (
	"gonum.org/v1/gonum/stat"
)

// Weighted collects values with probability weights, e.g. how deep a line
// stays in book weighted by how likely that line is.
type Weighted struct {
	values  []float64
	weights []float64
}

func (w *Weighted) Push(val, weight float64) {
	w.values = append(w.values, val)
	w.weights = append(w.weights, weight)
}

// TotalWeight sums the weights pushed so far.
func (w *Weighted) TotalWeight() float64 {
	var sum float64
	for _, wt := range w.weights {
		sum += wt
	}
	return sum
}

// MeanStdDev returns the weighted mean and the population standard deviation.
// Weights are probabilities, so no sample correction is applied. Both are zero
// when nothing was pushed.
func (w *Weighted) MeanStdDev() (float64, float64) {
	if len(w.values) == 0 || w.TotalWeight() == 0 {
		return 0, 0
	}
	if len(w.values) == 1 {
		return w.values[0], 0
	}
	return stat.PopMeanStdDev(w.values, w.weights)
}

func (w *Weighted) Len() int {
	return len(w.values)
}

// Merge appends everything collected by o.
func (w *Weighted) Merge(o *Weighted) {
	w.values = append(w.values, o.values...)
	w.weights = append(w.weights, o.weights...)
}
