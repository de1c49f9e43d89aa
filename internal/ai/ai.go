// Package ai proposes actions for computer-controlled seats. Proposals are
// ordinary actions and go through the same checks as a human's.
package ai

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"arena/internal/game"
)

var ErrNoActions = errors.New("no legal actions")

// Suggester picks one action for a seat. view is what that seat may see and
// legal is its legal action set.
type Suggester interface {
	Suggest(ctx context.Context, view game.Snapshot, legal []game.Action) (game.Action, error)
}

// SuggesterFunc adapts a function to Suggester.
type SuggesterFunc func(ctx context.Context, view game.Snapshot, legal []game.Action) (game.Action, error)

func (f SuggesterFunc) Suggest(ctx context.Context, view game.Snapshot, legal []game.Action) (game.Action, error) {
	return f(ctx, view, legal)
}

// Random picks uniformly among legal actions. Raises get a random amount
// inside their bounds.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (r *Random) Suggest(ctx context.Context, _ game.Snapshot, legal []game.Action) (game.Action, error) {
	if err := ctx.Err(); err != nil {
		return game.Action{}, err
	}
	if len(legal) == 0 {
		return game.Action{}, ErrNoActions
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := legal[r.rng.IntN(len(legal))]
	if a.Poker != nil && a.Poker.Kind == game.Raise {
		p := *a.Poker
		if p.Max > p.Amount {
			p.Amount += r.rng.Int64N(p.Max - p.Amount + 1)
		}
		p.Max = 0
		a = game.Action{Poker: &p}
	}
	return a, nil
}

// Fallback is the action used when a suggester fails: check when possible,
// otherwise fold, and for chess the first legal move.
func Fallback(legal []game.Action) (game.Action, error) {
	if len(legal) == 0 {
		return game.Action{}, ErrNoActions
	}
	for _, kind := range []game.PokerKind{game.Check, game.Fold} {
		for _, a := range legal {
			if a.Poker != nil && a.Poker.Kind == kind {
				return a, nil
			}
		}
	}
	return legal[0], nil
}
