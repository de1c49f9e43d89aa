package poker

import (
	"fmt"
	"sort"

	"arena/internal/game"
	"arena/internal/game/cards"
)

type Stage string

const (
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
)

// communityCount is the number of board cards visible at each stage.
var communityCount = map[Stage]int{
	StagePreflop:  0,
	StageFlop:     3,
	StageTurn:     4,
	StageRiver:    5,
	StageShowdown: 5,
}

const (
	ReasonShowdown    = "showdown"
	ReasonUncontested = "last_player_standing"
)

// Seat is one player's chips and cards. Bet is the amount put in during the
// current betting round and Contributed the total for the hand.
type Seat struct {
	ID          string
	Stack       int64
	Bet         int64
	Contributed int64
	Folded      bool
	AllIn       bool
	Acted       bool
	Hole        []cards.Card
	Hand        string
}

func (s *Seat) canBet() bool { return !s.Folded && !s.AllIn }

// Hand is a decoded poker snapshot. Pot holds chips from completed betting
// rounds; chips bet in the current round stay on the seats until the round
// closes.
type Hand struct {
	Stage      Stage
	Seats      []Seat
	Dealer     int
	Actor      int
	SmallBlind int64
	BigBlind   int64
	Pot        int64
	CurrentBet int64
	MinRaise   int64
	Community  []cards.Card
	Deck       []cards.Card
	Payouts    []game.Payout

	Status   game.Status
	History  []string
	Terminal bool
	Reason   string
	Winner   game.Winner
}

// deal seats ids with cfg, deals hole cards from deck, posts the blinds and
// finds the first player to act. The dealer is seat 0.
func deal(ids []string, cfg Config, deck []cards.Card) (*Hand, error) {
	n := len(ids)
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("%w: poker needs %d to %d players, got %d", game.ErrInvalidPlayerCount, MinPlayers, MaxPlayers, n)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] {
			return nil, fmt.Errorf("%w: player ids must be distinct and non-empty", game.ErrInvalidPlayerCount)
		}
		seen[id] = true
	}

	h := &Hand{
		Stage:      StagePreflop,
		Seats:      make([]Seat, n),
		Dealer:     0,
		Actor:      -1,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		MinRaise:   cfg.BigBlind,
		Community:  []cards.Card{},
		Deck:       append([]cards.Card(nil), deck...),
		Status:     game.StatusWaiting,
		History:    []string{},
		Winner:     game.NoWinner(),
	}
	for i, id := range ids {
		h.Seats[i] = Seat{ID: id, Stack: cfg.StartingStack}
	}
	for round := 0; round < 2; round++ {
		for k := 1; k <= n; k++ {
			i := (h.Dealer + k) % n
			h.Seats[i].Hole = append(h.Seats[i].Hole, h.draw())
		}
	}

	sb, bb := (h.Dealer+1)%n, (h.Dealer+2)%n
	h.put(sb, cfg.SmallBlind)
	h.put(bb, cfg.BigBlind)
	h.CurrentBet = cfg.BigBlind
	// Preflop the first seat after the dealer opens, whatever the table size.
	h.progress(h.Dealer)
	return h, nil
}

func (h *Hand) draw() cards.Card {
	c := h.Deck[0]
	h.Deck = h.Deck[1:]
	return c
}

// put moves up to amount from seat i's stack into its bet and returns the
// chips actually moved.
func (h *Hand) put(i int, amount int64) int64 {
	s := &h.Seats[i]
	if amount > s.Stack {
		amount = s.Stack
	}
	s.Stack -= amount
	s.Bet += amount
	s.Contributed += amount
	if s.Stack == 0 {
		s.AllIn = true
	}
	return amount
}

func (h *Hand) live() int {
	n := 0
	for i := range h.Seats {
		if !h.Seats[i].Folded {
			n++
		}
	}
	return n
}

func (h *Hand) open() int {
	n := 0
	for i := range h.Seats {
		if h.Seats[i].canBet() {
			n++
		}
	}
	return n
}

// needsAction reports whether seat i must still act in this round. A seat
// that has matched the bet but not acted only needs to when someone else can
// still respond.
func (h *Hand) needsAction(i int) bool {
	s := &h.Seats[i]
	switch {
	case !s.canBet():
		return false
	case s.Bet < h.CurrentBet:
		return true
	case s.Acted:
		return false
	}
	return h.open() > 1
}

func (h *Hand) roundComplete() bool {
	for i := range h.Seats {
		if h.needsAction(i) {
			return false
		}
	}
	return true
}

func (h *Hand) nextNeeding(from int) int {
	n := len(h.Seats)
	for k := 1; k <= n; k++ {
		if i := (from + k) % n; h.needsAction(i) {
			return i
		}
	}
	return -1
}

// progress moves play on after seat from acted: to the next player, the next
// street, or the end of the hand. Streets are dealt without betting while at
// most one player can still bet.
func (h *Hand) progress(from int) {
	if h.live() == 1 {
		h.finishUncontested()
		return
	}
	if !h.roundComplete() {
		h.Actor = h.nextNeeding(from)
		return
	}
	for {
		h.collectBets()
		if h.Stage == StageRiver {
			h.showdown()
			return
		}
		h.dealStreet()
		if !h.roundComplete() {
			h.Actor = h.nextNeeding(h.Dealer)
			return
		}
	}
}

func (h *Hand) collectBets() {
	for i := range h.Seats {
		h.Pot += h.Seats[i].Bet
		h.Seats[i].Bet = 0
		h.Seats[i].Acted = false
	}
	h.CurrentBet = 0
	h.MinRaise = h.BigBlind
}

func (h *Hand) dealStreet() {
	switch h.Stage {
	case StagePreflop:
		h.Stage = StageFlop
		h.Community = append(h.Community, h.draw(), h.draw(), h.draw())
	case StageFlop:
		h.Stage = StageTurn
		h.Community = append(h.Community, h.draw())
	case StageTurn:
		h.Stage = StageRiver
		h.Community = append(h.Community, h.draw())
	}
}

func (h *Hand) finishUncontested() {
	winner := -1
	total := h.Pot
	for i := range h.Seats {
		total += h.Seats[i].Bet
		h.Seats[i].Bet = 0
		if !h.Seats[i].Folded {
			winner = i
		}
	}
	h.Seats[winner].Stack += total
	h.Pot, h.CurrentBet, h.Actor = 0, 0, -1
	id := h.Seats[winner].ID
	h.Payouts = []game.Payout{{Amount: total, Winners: []string{id}}}
	h.Terminal, h.Reason, h.Winner = true, ReasonUncontested, game.Winners(id)
}

// pot is one main or side pot and the seats that can win it.
type pot struct {
	amount   int64
	eligible []int
}

// pots splits contributions into a main pot and side pots, one per distinct
// contribution level. Levels with the same eligible seats are merged.
func (h *Hand) pots() []pot {
	var levels []int64
	seen := map[int64]bool{}
	for _, s := range h.Seats {
		if s.Contributed > 0 && !seen[s.Contributed] {
			seen[s.Contributed] = true
			levels = append(levels, s.Contributed)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	var pots []pot
	prev := int64(0)
	for _, lvl := range levels {
		var amount int64
		var eligible []int
		for i, s := range h.Seats {
			amount += min(s.Contributed, lvl) - min(s.Contributed, prev)
			if !s.Folded && s.Contributed >= lvl {
				eligible = append(eligible, i)
			}
		}
		prev = lvl
		last := len(pots) - 1
		switch {
		case last >= 0 && (len(eligible) == 0 || equalInts(pots[last].eligible, eligible)):
			pots[last].amount += amount
		case len(eligible) == 0:
			for i, s := range h.Seats {
				if !s.Folded {
					eligible = append(eligible, i)
				}
			}
			pots = append(pots, pot{amount: amount, eligible: eligible})
		default:
			pots = append(pots, pot{amount: amount, eligible: eligible})
		}
	}
	return pots
}

// showdown pays every pot to the best hands among its eligible seats. Chips
// that do not split evenly go one each to the winners closest to the left of
// the dealer.
func (h *Hand) showdown() {
	h.Stage = StageShowdown
	h.Actor = -1
	values := make(map[int]HandValue)
	for i := range h.Seats {
		s := &h.Seats[i]
		if s.Folded {
			continue
		}
		v := Best(append(append([]cards.Card{}, s.Hole...), h.Community...))
		values[i] = v
		s.Hand = v.String()
	}

	var overall []string
	h.Payouts = nil
	for k, p := range h.pots() {
		var winners []int
		var best HandValue
		for _, i := range h.clockwise(p.eligible) {
			v := values[i]
			switch c := v.Compare(best); {
			case len(winners) == 0 || c > 0:
				winners, best = []int{i}, v
			case c == 0:
				winners = append(winners, i)
			}
		}
		share := p.amount / int64(len(winners))
		rem := p.amount % int64(len(winners))
		ids := make([]string, len(winners))
		for j, i := range winners {
			won := share
			if int64(j) < rem {
				won++
			}
			h.Seats[i].Stack += won
			ids[j] = h.Seats[i].ID
		}
		h.Payouts = append(h.Payouts, game.Payout{Amount: p.amount, Winners: ids, Hand: best.String()})
		if k == 0 {
			overall = ids
		}
	}
	h.Pot = 0
	h.Terminal, h.Reason, h.Winner = true, ReasonShowdown, game.Winners(overall...)
}

// clockwise orders seats starting left of the dealer.
func (h *Hand) clockwise(seats []int) []int {
	n := len(h.Seats)
	out := append([]int(nil), seats...)
	sort.Slice(out, func(a, b int) bool {
		return (out[a]-h.Dealer-1+n)%n < (out[b]-h.Dealer-1+n)%n
	})
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
