package repertoire

import (
	"github.com/rs/zerolog/log"

	"github.com/domino14/repopt/move"
	"github.com/domino14/repopt/position"
)

// trail is the chain of positions a work item passed through, newest first.
type trail struct {
	key    position.Key
	parent *trail
}

func (t *trail) contains(key position.Key) bool {
	for ; t != nil; t = t.parent {
		if t.key == key {
			return true
		}
	}
	return false
}

type workItem struct {
	key   position.Key
	mass  float64
	ply   int
	path  move.Sequence
	trail *trail
}

// UpdatePositionFrequencies pushes probability mass from the initial
// position along every transition, so that each position ends up with the
// probability of being reached. Arrivals over different move orders add up.
//
// A transition back to a position already on the current line is not
// followed; its mass goes to RepetitionMass. With a ply limit, mass that
// would go deeper goes to TruncatedMass. Run this once, after
// SetOwnMoveFrequencies.
func (o *Optimizer) UpdatePositionFrequencies() {
	stack := []workItem{{
		key:  o.root.Key(),
		mass: 1.0,
		path: move.Sequence{Probability: 1.0},
	}}
	processed := 0
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if item.mass == 0 {
			continue
		}
		n, ok := o.graph.Lookup(item.key)
		if !ok {
			// Link creates every destination, so this is only reachable
			// through a corrupted graph.
			log.Error().Str("key", string(item.key)).Msg("missing-position")
			continue
		}
		processed++
		n.AddFrequency(item.mass)
		if o.owns(n) && n.TransitionCount() == 0 {
			depth := float64(item.ply / 2)
			o.AverageBookLength += depth * item.mass
			o.depths.Push(depth, item.mass)
		}
		if item.mass > n.Sequence().Probability {
			n.SetSequence(item.path)
		}

		here := &trail{key: n.Key(), parent: item.trail}
		for _, t := range n.Transitions() {
			mass := item.mass * t.Frequency
			switch {
			case here.contains(t.To):
				o.RepetitionMass += mass
			case o.maxPly > 0 && item.ply+1 > o.maxPly:
				o.TruncatedMass += mass
			default:
				stack = append(stack, workItem{
					key:   t.To,
					mass:  mass,
					ply:   item.ply + 1,
					path:  item.path.Extend(t.Move, mass),
					trail: here,
				})
			}
		}
	}
	log.Info().Str("owner", o.owner.String()).Int("arrivals", processed).
		Float64("average-book-length", o.AverageBookLength).
		Float64("repetition-mass", o.RepetitionMass).
		Float64("truncated-mass", o.TruncatedMass).
		Msg("propagated-frequencies")
}
