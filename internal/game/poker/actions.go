package poker

import (
	"fmt"

	"arena/internal/game"
)

// raiseBounds returns the smallest and largest raise increment seat i may
// make. A short stack may raise less than the minimum by going all in.
func (h *Hand) raiseBounds(i int) (lo, hi int64) {
	s := &h.Seats[i]
	hi = s.Stack + s.Bet - h.CurrentBet
	lo = min(h.MinRaise, hi)
	return lo, hi
}

// legal lists what seat i may do. It is empty unless i is the actor.
func (h *Hand) legal(i int) []game.PokerAction {
	if h.Terminal || i != h.Actor || i < 0 {
		return []game.PokerAction{}
	}
	s := &h.Seats[i]
	acts := []game.PokerAction{{Kind: game.Fold}}
	if s.Bet == h.CurrentBet {
		acts = append(acts, game.PokerAction{Kind: game.Check})
	}
	if s.Bet < h.CurrentBet && s.Stack > 0 {
		acts = append(acts, game.PokerAction{Kind: game.Call})
	}
	if s.Stack+s.Bet > h.CurrentBet {
		lo, hi := h.raiseBounds(i)
		acts = append(acts, game.PokerAction{Kind: game.Raise, Amount: lo, Max: hi})
	}
	if s.Stack > 0 {
		acts = append(acts, game.PokerAction{Kind: game.AllIn})
	}
	return acts
}

// act applies one betting action for seat i and returns its notation.
func (h *Hand) act(i int, a game.PokerAction) (string, error) {
	kind, err := game.ParsePokerKind(string(a.Kind))
	if err != nil {
		return "", err
	}
	s := &h.Seats[i]
	illegal := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", game.ErrIllegalAction, fmt.Sprintf(format, args...))
	}

	var notation string
	switch kind {
	case game.Fold:
		s.Folded = true
		notation = string(game.Fold)
	case game.Check:
		if s.Bet != h.CurrentBet {
			return "", illegal("cannot check facing a bet of %d", h.CurrentBet-s.Bet)
		}
		notation = string(game.Check)
	case game.Call:
		if s.Bet >= h.CurrentBet {
			return "", illegal("nothing to call")
		}
		if s.Stack == 0 {
			return "", illegal("no chips to call with")
		}
		paid := h.put(i, h.CurrentBet-s.Bet)
		notation = fmt.Sprintf("%s(%d)", game.Call, paid)
	case game.Raise:
		if s.Stack+s.Bet <= h.CurrentBet {
			return "", illegal("stack too small to raise")
		}
		lo, hi := h.raiseBounds(i)
		if a.Amount < lo || a.Amount > hi {
			return "", illegal("raise must be between %d and %d, got %d", lo, hi, a.Amount)
		}
		h.put(i, h.CurrentBet+a.Amount-s.Bet)
		h.raiseTo(i, s.Bet, a.Amount)
		notation = fmt.Sprintf("%s(%d)", game.Raise, a.Amount)
	case game.AllIn:
		if s.Stack == 0 {
			return "", illegal("no chips left")
		}
		moved := h.put(i, s.Stack)
		if s.Bet > h.CurrentBet {
			h.raiseTo(i, s.Bet, s.Bet-h.CurrentBet)
		}
		notation = fmt.Sprintf("%s(%d)", game.AllIn, moved)
	}
	s.Acted = true
	return notation, nil
}

// raiseTo records a new current bet. Everyone else who can still bet has to
// act again. The minimum raise only grows with full raises.
func (h *Hand) raiseTo(i int, bet, increment int64) {
	h.CurrentBet = bet
	if increment >= h.MinRaise {
		h.MinRaise = increment
	}
	for j := range h.Seats {
		if j != i {
			h.Seats[j].Acted = false
		}
	}
}
