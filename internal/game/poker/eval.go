package poker

import (
	"sort"
	"strings"

	"arena/internal/game/cards"
)

// Category ranks hand types from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

var categoryNames = [...]string{
	"high card", "one pair", "two pair", "three of a kind", "straight",
	"flush", "full house", "four of a kind", "straight flush", "royal flush",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// HandValue orders five-card hands: category first, then tiebreak ranks.
type HandValue struct {
	Category Category
	Ranks    [5]cards.Rank
}

// Compare returns -1, 0 or 1.
func (h HandValue) Compare(o HandValue) int {
	if h.Category != o.Category {
		if h.Category < o.Category {
			return -1
		}
		return 1
	}
	for i := range h.Ranks {
		if h.Ranks[i] != o.Ranks[i] {
			if h.Ranks[i] < o.Ranks[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (h HandValue) String() string {
	var b strings.Builder
	b.WriteString(h.Category.String())
	for _, r := range h.Ranks {
		if r == 0 {
			break
		}
		b.WriteByte(' ')
		b.WriteString(r.String())
	}
	return b.String()
}

// Best returns the strongest five-card hand that can be made from cs. It
// tries every combination, which is at most 21 for seven cards.
func Best(cs []cards.Card) HandValue {
	var best HandValue
	var hand [5]cards.Card
	found := false
	n := len(cs)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for c := b + 1; c < n; c++ {
				for d := c + 1; d < n; d++ {
					for e := d + 1; e < n; e++ {
						hand = [5]cards.Card{cs[a], cs[b], cs[c], cs[d], cs[e]}
						v := Evaluate5(hand)
						if !found || v.Compare(best) > 0 {
							best, found = v, true
						}
					}
				}
			}
		}
	}
	return best
}

// Evaluate5 scores exactly five cards. A wheel (A-2-3-4-5) is the lowest
// straight.
func Evaluate5(hand [5]cards.Card) HandValue {
	ranks := make([]cards.Rank, 5)
	flush := true
	for i, c := range hand {
		ranks[i] = c.Rank
		if c.Suit != hand[0].Suit {
			flush = false
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] > ranks[j] })

	counts := map[cards.Rank]int{}
	for _, r := range ranks {
		counts[r]++
	}
	type group struct {
		rank  cards.Rank
		count int
	}
	groups := make([]group, 0, len(counts))
	for r, n := range counts {
		groups = append(groups, group{r, n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})

	straightHigh := cards.Rank(0)
	if len(groups) == 5 {
		switch {
		case ranks[0]-ranks[4] == 4:
			straightHigh = ranks[0]
		case ranks[0] == cards.Ace && ranks[1] == cards.Five:
			straightHigh = cards.Five
		}
	}

	var v HandValue
	switch {
	case straightHigh != 0 && flush:
		v.Category = StraightFlush
		if straightHigh == cards.Ace {
			v.Category = RoyalFlush
		}
		v.Ranks[0] = straightHigh
	case groups[0].count == 4:
		v.Category = FourOfAKind
	case groups[0].count == 3 && groups[1].count == 2:
		v.Category = FullHouse
	case flush:
		v.Category = Flush
		copy(v.Ranks[:], ranks)
	case straightHigh != 0:
		v.Category = Straight
		v.Ranks[0] = straightHigh
	case groups[0].count == 3:
		v.Category = ThreeOfAKind
	case groups[0].count == 2 && groups[1].count == 2:
		v.Category = TwoPair
	case groups[0].count == 2:
		v.Category = OnePair
	default:
		v.Category = HighCard
		copy(v.Ranks[:], ranks)
	}
	if v.Ranks[0] == 0 {
		for i, g := range groups {
			v.Ranks[i] = g.rank
		}
	}
	return v
}
