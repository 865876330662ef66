package repertoire

// SetOwnMoveFrequencies gives each prepared reply of a position the same
// weight, 1/n for n prepared replies. There is no data on which of them the
// owner would pick, so all are assumed equally likely.
func (o *Optimizer) SetOwnMoveFrequencies() {
	for _, n := range o.graph.MutableNodes() {
		if !o.owns(n) || n.TransitionCount() == 0 {
			continue
		}
		n.SetAllFrequencies(1 / float64(n.TransitionCount()))
	}
}
