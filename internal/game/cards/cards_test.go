package cards

import "testing"

func TestParseAndString(t *testing.T) {
	cases := map[string]Card{
		"As":  {Ace, Spades},
		"td":  {Ten, Diamonds},
		"10h": {Ten, Hearts},
		"2C":  {Two, Clubs},
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}
	if s := (Card{Ten, Diamonds}).String(); s != "Td" {
		t.Fatalf("expected Td, got %s", s)
	}
	for _, bad := range []string{"", "A", "1s", "Ax", "Asx"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := NewDeck()
	if len(deck) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(deck))
	}
	seen := map[Card]bool{}
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %v", c)
		}
		seen[c] = true
		back, err := Parse(c.String())
		if err != nil || back != c {
			t.Fatalf("text form of %v does not round-trip", c)
		}
	}
}

func TestShuffledIsDeterministic(t *testing.T) {
	a := Strings(Shuffled(NewRand(42)))
	b := Strings(Shuffled(NewRand(42)))
	c := Strings(Shuffled(NewRand(43)))
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed gave different decks at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds gave the same deck")
	}
}
