// Package book provides opponent move statistics for chess positions.
package book

import (
	"context"
)

// Move is a reply seen in a position together with the share of games in
// which it was played.
type Move struct {
	Code      string
	Frequency float64
}

type Moves []Move

// Provider answers which moves are played in a position. The frequencies of
// the returned moves add up to at most 1.
type Provider interface {
	Moves(ctx context.Context, fen string) (Moves, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, fen string) (Moves, error)

func (f ProviderFunc) Moves(ctx context.Context, fen string) (Moves, error) {
	return f(ctx, fen)
}
