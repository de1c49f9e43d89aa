// Package engine runs games through their lifecycle. It is the only place
// that picks a rule module for a snapshot.
package engine

import (
	"fmt"

	"arena/internal/codec"
	"arena/internal/game"
)

// Engine dispatches to the registered rule modules and enforces the game
// lifecycle: waiting, in progress, then completed or aborted.
type Engine struct {
	registry *game.Registry
}

func New(registry *game.Registry) *Engine {
	return &Engine{registry: registry}
}

// Variants lists the playable variants.
func (e *Engine) Variants() []game.Info {
	return e.registry.List()
}

func (e *Engine) module(v game.Variant) (game.RuleModule, error) {
	m, ok := e.registry.Get(v)
	if !ok {
		return nil, fmt.Errorf("%w: no rules for variant %q", game.ErrUnsupportedSnapshot, v)
	}
	return m, nil
}

// Initial creates a new game in the waiting state.
func (e *Engine) Initial(v game.Variant, params game.Params) (game.Snapshot, error) {
	m, err := e.module(v)
	if err != nil {
		return game.Snapshot{}, err
	}
	s, err := m.Initial(params)
	if err != nil {
		return game.Snapshot{}, err
	}
	s.Status = game.StatusWaiting
	if s.Terminal {
		s.Status = game.StatusCompleted
	}
	return s, nil
}

// Start moves a waiting game to in progress.
func (e *Engine) Start(s game.Snapshot) (game.Snapshot, error) {
	if err := e.Validate(s); err != nil {
		return game.Snapshot{}, err
	}
	switch s.Status {
	case game.StatusWaiting:
	case game.StatusInProgress:
		return game.Snapshot{}, fmt.Errorf("%w: game already started", game.ErrIllegalAction)
	default:
		return game.Snapshot{}, game.ErrGameFinished
	}
	out := s.Clone()
	out.Status = game.StatusInProgress
	return out, nil
}

// Abort ends an unfinished game without a winner.
func (e *Engine) Abort(s game.Snapshot) (game.Snapshot, error) {
	if err := e.Validate(s); err != nil {
		return game.Snapshot{}, err
	}
	if s.Status.Finished() {
		return game.Snapshot{}, game.ErrGameFinished
	}
	out := s.Clone()
	out.Status = game.StatusAborted
	return out, nil
}

// Validate checks that s can be trusted by its rule module.
func (e *Engine) Validate(s game.Snapshot) error {
	m, err := e.module(s.Variant)
	if err != nil {
		return err
	}
	return m.Validate(s)
}

// ToMove returns the seat allowed to act, or "" once the game is finished.
func (e *Engine) ToMove(s game.Snapshot) (string, error) {
	m, err := e.module(s.Variant)
	if err != nil {
		return "", err
	}
	seat, err := m.ToMove(s)
	if err != nil || s.Status.Finished() {
		return "", err
	}
	return seat, nil
}

// LegalActions lists what the seat to move may do.
func (e *Engine) LegalActions(s game.Snapshot) ([]game.Action, error) {
	seat, err := e.ToMove(s)
	if err != nil {
		return nil, err
	}
	return e.LegalActionsFor(s, seat)
}

// LegalActionsFor lists what seat may do. It is empty for anyone but the
// seat to move and for finished games.
func (e *Engine) LegalActionsFor(s game.Snapshot, seat string) ([]game.Action, error) {
	m, err := e.module(s.Variant)
	if err != nil {
		return nil, err
	}
	actions, err := m.LegalActions(s, seat)
	if err != nil {
		return nil, err
	}
	if s.Status.Finished() {
		return []game.Action{}, nil
	}
	return actions, nil
}

// Apply performs one action for seat. The first action starts a waiting
// game and a terminal outcome completes it. s is never modified.
func (e *Engine) Apply(s game.Snapshot, seat string, a game.Action) (game.Outcome, error) {
	m, err := e.module(s.Variant)
	if err != nil {
		return game.Outcome{}, err
	}
	if s.Status.Finished() || s.Terminal {
		return game.Outcome{}, game.ErrGameFinished
	}
	if v, ok := a.Variant(); !ok || v != s.Variant {
		return game.Outcome{}, fmt.Errorf("%w: action %s is not a %s action", game.ErrIllegalAction, a, s.Variant)
	}
	toMove, err := m.ToMove(s)
	if err != nil {
		return game.Outcome{}, err
	}
	if seat != toMove {
		return game.Outcome{}, fmt.Errorf("%w: %q to move, not %q", game.ErrOutOfTurn, toMove, seat)
	}
	out, err := m.Apply(s, seat, a)
	if err != nil {
		return game.Outcome{}, err
	}
	out.Snapshot.Status = game.StatusInProgress
	if out.Terminal {
		out.Snapshot.Status = game.StatusCompleted
	}
	return out, nil
}

// View returns what seat is allowed to see of s.
func (e *Engine) View(s game.Snapshot, seat string) (game.Snapshot, error) {
	m, err := e.module(s.Variant)
	if err != nil {
		return game.Snapshot{}, err
	}
	return m.View(s, seat)
}

// Encode stores s in its canonical form.
func (e *Engine) Encode(s game.Snapshot) ([]byte, error) {
	return codec.Marshal(s)
}

// Decode loads a stored snapshot and validates it against its rules.
func (e *Engine) Decode(data []byte) (game.Snapshot, error) {
	s, err := codec.Unmarshal(data)
	if err != nil {
		return game.Snapshot{}, err
	}
	if err := e.Validate(s); err != nil {
		return game.Snapshot{}, err
	}
	return s, nil
}
