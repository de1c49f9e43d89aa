package poker

import (
	"strings"
	"testing"

	"arena/internal/game/cards"
)

func hand(t *testing.T, s string) []cards.Card {
	t.Helper()
	cs, err := cards.ParseList(strings.Fields(s))
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func TestBestCategories(t *testing.T) {
	cases := []struct {
		cards string
		want  Category
	}{
		{"As Ks Qs Js Ts 2d 3c", RoyalFlush},
		{"9h 8h 7h 6h 5h Ac Ad", StraightFlush},
		{"7c 7d 7h 7s 2c 3d 9h", FourOfAKind},
		{"Kc Kd Kh 2s 2c 3d 9h", FullHouse},
		{"2h 9h Jh Qh 4h Ac Ad", Flush},
		{"Ac 2d 3h 4s 5c 9d Jh", Straight},
		{"Qc Qd Qh 2s 5c 9d Jh", ThreeOfAKind},
		{"Qc Qd 5h 5s 2c 9d Jh", TwoPair},
		{"Qc Qd 5h 7s 2c 9d Jh", OnePair},
		{"Ac Qd 5h 7s 2c 9d Jh", HighCard},
	}
	for _, tc := range cases {
		if got := Best(hand(t, tc.cards)); got.Category != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.cards, tc.want, got.Category)
		}
	}
}

func TestCompareTiebreaks(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		// wheel is the lowest straight
		{"Ac 2d 3h 4s 5c", "2d 3h 4s 5c 6d", -1},
		// kicker decides between equal pairs
		{"Ac Ad Kh 4s 2c", "As Ah Qh 4d 2d", 1},
		// two pair: second pair then kicker
		{"Kc Kd 9h 9s 2c", "Ks Kh 8h 8d Ad", 1},
		{"Kc Kd 9h 9s 2c", "Ks Kh 9c 9d 3d", -1},
		// full house compares trips first
		{"3c 3d 3h 2s 2c", "2d 2h 2s Ac Ad", 1},
		// identical ranks in different suits tie
		{"Ac Kd Qh Js 9c", "Ad Kh Qs Jc 9d", 0},
		{"As Ks Qs Js Ts", "Kh Qh Jh Th 9h", 1},
	}
	for _, tc := range cases {
		a := Best(hand(t, tc.a))
		b := Best(hand(t, tc.b))
		if got := a.Compare(b); got != tc.want {
			t.Fatalf("%s (%s) vs %s (%s): expected %d, got %d", tc.a, a, tc.b, b, tc.want, got)
		}
	}
}

func TestBestPicksStrongestFive(t *testing.T) {
	v := Best(hand(t, "2c 2d 9h 9s 9c Kd Kh"))
	if v.Category != FullHouse || v.Ranks[0] != cards.Nine || v.Ranks[1] != cards.King {
		t.Fatalf("expected nines full of kings, got %s", v)
	}
	if v.String() != "full house 9 K" {
		t.Fatalf("unexpected description %q", v.String())
	}
}
