// Package poker implements a single hand of no-limit Texas Hold'em as a
// game.RuleModule.
package poker

import (
	"fmt"

	"arena/internal/game"
	"arena/internal/game/cards"
)

// Rules is the poker rule module. Seat tokens are the player ids.
type Rules struct {
	cfg Config
}

var _ game.RuleModule = Rules{}

// New returns poker rules dealing with cfg.
func New(cfg Config) (Rules, error) {
	if err := cfg.validate(); err != nil {
		return Rules{}, err
	}
	return Rules{cfg: cfg}, nil
}

func (r Rules) Info() game.Info {
	return game.Info{Variant: game.Poker, MinPlayers: MinPlayers, MaxPlayers: MaxPlayers}
}

// Initial shuffles with params.Seed, deals and posts the blinds.
func (r Rules) Initial(params game.Params) (game.Snapshot, error) {
	h, err := deal(params.Seats, r.cfg, cards.Shuffled(cards.NewRand(params.Seed)))
	if err != nil {
		return game.Snapshot{}, err
	}
	return h.Snapshot(), nil
}

func (r Rules) Validate(s game.Snapshot) error {
	_, err := Decode(s)
	return err
}

func (r Rules) ToMove(s game.Snapshot) (string, error) {
	h, err := Decode(s)
	if err != nil {
		return "", err
	}
	if h.Terminal {
		return "", nil
	}
	return h.Seats[h.Actor].ID, nil
}

func (r Rules) LegalActions(s game.Snapshot, seat string) ([]game.Action, error) {
	h, err := Decode(s)
	if err != nil {
		return nil, err
	}
	acts := h.legal(s.SeatIndex(seat))
	out := make([]game.Action, len(acts))
	for i := range acts {
		out[i] = game.Action{Poker: &acts[i]}
	}
	return out, nil
}

func (r Rules) Apply(s game.Snapshot, seat string, a game.Action) (game.Outcome, error) {
	h, err := Decode(s)
	if err != nil {
		return game.Outcome{}, err
	}
	if h.Terminal {
		return game.Outcome{}, game.ErrGameFinished
	}
	if a.Poker == nil || a.Chess != nil {
		return game.Outcome{}, fmt.Errorf("%w: expected a poker action", game.ErrIllegalAction)
	}
	i := s.SeatIndex(seat)
	if i != h.Actor {
		return game.Outcome{}, fmt.Errorf("%w: %s to act", game.ErrOutOfTurn, h.Seats[h.Actor].ID)
	}
	notation, err := h.act(i, *a.Poker)
	if err != nil {
		return game.Outcome{}, err
	}
	h.History = append(h.History, notation)
	h.progress(i)
	return game.Outcome{
		Snapshot: h.Snapshot(),
		Applied:  true,
		Notation: notation,
		Terminal: h.Terminal,
		Winner:   game.Winners(h.Winner.Seats...),
	}, nil
}

// View hides the deck and other players' hole cards. Cards of players still
// in the hand are shown once it reaches showdown.
func (r Rules) View(s game.Snapshot, seat string) (game.Snapshot, error) {
	if _, err := Decode(s); err != nil {
		return game.Snapshot{}, err
	}
	v := s.Clone()
	v.Poker.Deck = []string{}
	showdown := Stage(v.Poker.Stage) == StageShowdown
	for i := range v.Poker.Seats {
		ps := &v.Poker.Seats[i]
		if ps.ID == seat || (showdown && !ps.Folded) {
			continue
		}
		ps.Hole = []string{}
		ps.Hand = ""
	}
	return v, nil
}
