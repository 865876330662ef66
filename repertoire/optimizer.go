// Package repertoire turns a player's prepared lines and opponent move
// statistics into encounter probabilities for every position of the
// repertoire, and ranks those positions for study decisions.
//
// An Optimizer is used in phases, in order: AddGame for every prepared line,
// AddOpponentMoves once, SetOwnMoveFrequencies, UpdatePositionFrequencies,
// and then the Recommend functions over OwnPositions.
package repertoire

import (
	"strings"

	"github.com/domino14/repopt/board"
	"github.com/domino14/repopt/position"
	"github.com/domino14/repopt/stats"
)

// Optimizer owns the position graph of one side's repertoire.
type Optimizer struct {
	owner board.Color
	graph *position.Graph
	root  *position.Node

	maxPly int

	// AverageBookLength is the expected number of full moves the owner stays
	// in book before reaching a position without a prepared reply.
	AverageBookLength float64
	// RepetitionMass is the probability that was not followed further
	// because a line returned to a position already on it.
	RepetitionMass float64
	// TruncatedMass is the probability cut off by the ply limit.
	TruncatedMass float64

	depths stats.Weighted
}

type Option func(*Optimizer)

// WithMaxPly stops propagation after n half-moves. Zero means no limit.
func WithMaxPly(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxPly = n
		}
	}
}

func New(owner board.Color, opts ...Option) *Optimizer {
	g := position.NewGraph()
	o := &Optimizer{
		owner: owner,
		graph: g,
		root:  g.GetOrCreate(board.StartingFEN),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Optimizer) Owner() board.Color {
	return o.owner
}

func (o *Optimizer) Graph() *position.Graph {
	return o.graph
}

func (o *Optimizer) Root() *position.Node {
	return o.root
}

// Depths returns the in-book depth of every unprepared arrival, weighted by
// its probability. It is filled by UpdatePositionFrequencies.
func (o *Optimizer) Depths() *stats.Weighted {
	return &o.depths
}

// sideToMove reads the active color straight from the position description.
func sideToMove(n *position.Node) board.Color {
	fields := strings.Fields(n.FEN())
	if len(fields) > 1 && fields[1] == "b" {
		return board.Black
	}
	return board.White
}

func (o *Optimizer) owns(n *position.Node) bool {
	return sideToMove(n) == o.owner
}
