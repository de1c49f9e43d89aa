package poker

import (
	"fmt"

	"arena/internal/game"
	"arena/internal/game/cards"
)

// Snapshot encodes h.
func (h *Hand) Snapshot() game.Snapshot {
	ids := make([]string, len(h.Seats))
	seats := make([]game.PokerSeat, len(h.Seats))
	for i, s := range h.Seats {
		ids[i] = s.ID
		seats[i] = game.PokerSeat{
			ID:          s.ID,
			Stack:       s.Stack,
			Bet:         s.Bet,
			Contributed: s.Contributed,
			Folded:      s.Folded,
			AllIn:       s.AllIn,
			Acted:       s.Acted,
			Hole:        cards.Strings(s.Hole),
			Hand:        s.Hand,
		}
	}
	toMove := ""
	if !h.Terminal && h.Actor >= 0 {
		toMove = h.Seats[h.Actor].ID
	}
	var payouts []game.Payout
	for _, p := range h.Payouts {
		payouts = append(payouts, game.Payout{Amount: p.Amount, Winners: append([]string(nil), p.Winners...), Hand: p.Hand})
	}
	return game.Snapshot{
		Variant:        game.Poker,
		Schema:         game.SchemaVersion,
		Status:         h.Status,
		Seats:          ids,
		ToMove:         toMove,
		Terminal:       h.Terminal,
		TerminalReason: h.Reason,
		Winner:         game.Winners(h.Winner.Seats...),
		History:        append([]string{}, h.History...),
		Poker: &game.PokerState{
			Stage:      string(h.Stage),
			Dealer:     h.Dealer,
			Actor:      h.Actor,
			SmallBlind: h.SmallBlind,
			BigBlind:   h.BigBlind,
			Pot:        h.Pot,
			CurrentBet: h.CurrentBet,
			MinRaise:   h.MinRaise,
			Seats:      seats,
			Community:  cards.Strings(h.Community),
			Deck:       cards.Strings(h.Deck),
			Payouts:    payouts,
		},
	}
}

// Decode rebuilds a hand from s and checks that its chips and cards are
// consistent.
func Decode(s game.Snapshot) (*Hand, error) {
	if s.Variant != game.Poker {
		return nil, fmt.Errorf("%w: variant %q is not poker", game.ErrUnsupportedSnapshot, s.Variant)
	}
	body := s.Poker
	if body == nil || body.Stage == "" {
		return nil, fmt.Errorf("%w: poker snapshot has no stage", game.ErrUnsupportedSnapshot)
	}
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", game.ErrCorruptSnapshot, fmt.Sprintf(format, args...))
	}
	if s.Chess != nil {
		return nil, corrupt("poker snapshot carries a chess body")
	}
	stage := Stage(body.Stage)
	want, ok := communityCount[stage]
	if !ok {
		return nil, corrupt("unknown stage %q", body.Stage)
	}
	n := len(body.Seats)
	if n < MinPlayers || n > MaxPlayers || len(s.Seats) != n {
		return nil, corrupt("seat count %d", n)
	}
	if body.Dealer < 0 || body.Dealer >= n || body.Actor < -1 || body.Actor >= n {
		return nil, corrupt("dealer %d or actor %d out of range", body.Dealer, body.Actor)
	}
	if body.SmallBlind <= 0 || body.BigBlind < body.SmallBlind || body.Pot < 0 || body.CurrentBet < 0 || body.MinRaise <= 0 {
		return nil, corrupt("invalid chip counters")
	}

	h := &Hand{
		Stage:      stage,
		Seats:      make([]Seat, n),
		Dealer:     body.Dealer,
		Actor:      body.Actor,
		SmallBlind: body.SmallBlind,
		BigBlind:   body.BigBlind,
		Pot:        body.Pot,
		CurrentBet: body.CurrentBet,
		MinRaise:   body.MinRaise,
		Status:     s.Status,
		History:    append([]string{}, s.History...),
		Terminal:   s.Terminal,
		Reason:     s.TerminalReason,
		Winner:     game.Winners(s.Winner.Seats...),
	}
	for _, p := range body.Payouts {
		h.Payouts = append(h.Payouts, game.Payout{Amount: p.Amount, Winners: append([]string(nil), p.Winners...), Hand: p.Hand})
	}

	seen := map[cards.Card]bool{}
	parse := func(what string, ss []string) ([]cards.Card, error) {
		cs, err := cards.ParseList(ss)
		if err != nil {
			return nil, corrupt("%s: %v", what, err)
		}
		for _, c := range cs {
			if seen[c] {
				return nil, corrupt("card %s appears twice", c)
			}
			seen[c] = true
		}
		return cs, nil
	}

	var err error
	var owed int64
	ids := map[string]bool{}
	for i, bs := range body.Seats {
		if bs.ID == "" || bs.ID != s.Seats[i] || ids[bs.ID] {
			return nil, corrupt("seat %d id %q does not match envelope", i, bs.ID)
		}
		ids[bs.ID] = true
		if bs.Stack < 0 || bs.Bet < 0 || bs.Bet > bs.Contributed || bs.Bet > h.CurrentBet {
			return nil, corrupt("seat %s has inconsistent chips", bs.ID)
		}
		if !s.Terminal && !bs.Folded && bs.AllIn != (bs.Stack == 0) {
			return nil, corrupt("seat %s all-in flag disagrees with stack", bs.ID)
		}
		if len(bs.Hole) != 2 {
			return nil, corrupt("seat %s has %d hole cards", bs.ID, len(bs.Hole))
		}
		seat := Seat{
			ID:          bs.ID,
			Stack:       bs.Stack,
			Bet:         bs.Bet,
			Contributed: bs.Contributed,
			Folded:      bs.Folded,
			AllIn:       bs.AllIn,
			Acted:       bs.Acted,
			Hand:        bs.Hand,
		}
		if seat.Hole, err = parse("hole cards", bs.Hole); err != nil {
			return nil, err
		}
		h.Seats[i] = seat
		owed += bs.Contributed - bs.Bet
	}
	if h.Community, err = parse("community", body.Community); err != nil {
		return nil, err
	}
	if h.Deck, err = parse("deck", body.Deck); err != nil {
		return nil, err
	}
	if len(h.Community) != want {
		return nil, corrupt("stage %s with %d community cards", stage, len(h.Community))
	}
	if len(seen) != 52 {
		return nil, corrupt("%d cards accounted for", len(seen))
	}

	if !s.Winner.Valid() {
		return nil, corrupt("invalid winner %+v", s.Winner)
	}
	if h.Terminal {
		if h.Actor != -1 || s.ToMove != "" || h.Pot != 0 {
			return nil, corrupt("finished hand still has an actor or a pot")
		}
		if h.Reason != ReasonShowdown && h.Reason != ReasonUncontested {
			return nil, corrupt("unknown terminal reason %q", h.Reason)
		}
		if (h.Reason == ReasonShowdown) != (stage == StageShowdown) || h.Winner.Kind == game.WinnerNone {
			return nil, corrupt("terminal reason %q at stage %s", h.Reason, stage)
		}
		for _, w := range h.Winner.Seats {
			if !ids[w] {
				return nil, corrupt("winner %q is not seated", w)
			}
		}
		return h, nil
	}

	if stage == StageShowdown || h.Reason != "" || h.Winner.Kind != game.WinnerNone || len(h.Payouts) > 0 {
		return nil, corrupt("unfinished hand carries a result")
	}
	if h.Pot != owed {
		return nil, corrupt("pot %d does not match contributions %d", h.Pot, owed)
	}
	if h.Actor < 0 || !h.needsAction(h.Actor) || s.ToMove != h.Seats[h.Actor].ID {
		return nil, corrupt("actor %d cannot act", h.Actor)
	}
	if h.live() < 2 {
		return nil, corrupt("unfinished hand with fewer than two players")
	}
	return h, nil
}
