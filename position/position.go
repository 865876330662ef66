// Package position holds the transposition-aware graph of chess positions
// that the repertoire optimizer propagates probabilities through.
package position

import (
	"strings"

	"github.com/domino14/repopt/move"
)

// Key identifies a position independent of its move counters. Two positions
// that differ only in halfmove clock and fullmove number share a key.
type Key string

// Canonicalize drops the trailing halfmove clock and fullmove number from a
// full position description. It never fails; descriptions with fewer than
// three fields are only trimmed.
func Canonicalize(fen string) Key {
	fields := strings.Fields(fen)
	if len(fields) < 3 {
		return Key(strings.Join(fields, " "))
	}
	return Key(strings.Join(fields[:len(fields)-2], " "))
}

// Transition is an edge to another position.
type Transition struct {
	To        Key
	Move      move.Move
	Frequency float64
}

// Node is a position in the graph.
type Node struct {
	key         Key
	fen         string
	frequency   float64
	transitions map[Key]*Transition
	// order keeps transitions in insertion order so that every pass over
	// them is reproducible.
	order    []Key
	sequence move.Sequence
}

func newNode(key Key, fen string) *Node {
	return &Node{
		key:         key,
		fen:         fen,
		transitions: make(map[Key]*Transition),
	}
}

func (n *Node) Key() Key {
	return n.key
}

// FEN is the full description the node was first created with.
func (n *Node) FEN() string {
	return n.fen
}

// Frequency is the accumulated probability of reaching this position.
func (n *Node) Frequency() float64 {
	return n.frequency
}

// AddFrequency accumulates probability mass. Negative deltas are ignored;
// mass is never taken away from a position.
func (n *Node) AddFrequency(delta float64) {
	if delta > 0 {
		n.frequency += delta
	}
}

// setTransition inserts the edge to key, or overwrites the move and
// frequency of an existing one.
func (n *Node) setTransition(to Key, mv move.Move, frequency float64) {
	if t, ok := n.transitions[to]; ok {
		t.Move = mv
		t.Frequency = frequency
		return
	}
	n.transitions[to] = &Transition{To: to, Move: mv, Frequency: frequency}
	n.order = append(n.order, to)
}

// Transition returns the edge to key, if any.
func (n *Node) Transition(to Key) (Transition, bool) {
	t, ok := n.transitions[to]
	if !ok {
		return Transition{}, false
	}
	return *t, true
}

// Transitions returns copies of all outgoing edges in insertion order.
func (n *Node) Transitions() []Transition {
	ts := make([]Transition, len(n.order))
	for i, k := range n.order {
		ts[i] = *n.transitions[k]
	}
	return ts
}

// SetAllFrequencies overwrites the frequency of every outgoing edge.
func (n *Node) SetAllFrequencies(frequency float64) {
	for _, t := range n.transitions {
		t.Frequency = frequency
	}
}

func (n *Node) TransitionCount() int {
	return len(n.order)
}

// Sequence is the likeliest known line leading to this position.
func (n *Node) Sequence() move.Sequence {
	return n.sequence
}

func (n *Node) SetSequence(seq move.Sequence) {
	n.sequence = seq
}
