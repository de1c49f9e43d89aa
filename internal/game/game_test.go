package game

import (
	"errors"
	"fmt"
	"testing"
)

func TestSnapshotCloneIsDeep(t *testing.T) {
	s := Snapshot{
		Variant: Poker,
		Seats:   []string{"a", "b"},
		History: []string{"call(10)"},
		Winner:  Winners("a", "b"),
		Poker: &PokerState{
			Seats:     []PokerSeat{{ID: "a", Hole: []string{"As", "Kd"}}, {ID: "b"}},
			Community: []string{"2c"},
			Deck:      []string{"3c"},
			Payouts:   []Payout{{Amount: 10, Winners: []string{"a"}}},
		},
	}
	c := s.Clone()
	c.Seats[0] = "x"
	c.History[0] = "x"
	c.Winner.Seats[0] = "x"
	c.Poker.Seats[0].Hole[0] = "x"
	c.Poker.Seats[1].Stack = 99
	c.Poker.Community[0] = "x"
	c.Poker.Payouts[0].Winners[0] = "x"

	if s.Seats[0] != "a" || s.History[0] != "call(10)" || s.Winner.Seats[0] != "a" {
		t.Fatal("envelope shares memory with clone")
	}
	if s.Poker.Seats[0].Hole[0] != "As" || s.Poker.Seats[1].Stack != 0 {
		t.Fatal("poker seats share memory with clone")
	}
	if s.Poker.Community[0] != "2c" || s.Poker.Payouts[0].Winners[0] != "a" {
		t.Fatal("poker body shares memory with clone")
	}
}

func TestWinners(t *testing.T) {
	if w := Winners(); w.Kind != WinnerNone || !w.Valid() {
		t.Fatalf("expected none, got %+v", w)
	}
	if w := Winners("a"); w.Kind != WinnerSingle || !w.Valid() {
		t.Fatalf("expected single, got %+v", w)
	}
	if w := Winners("a", "b"); w.Kind != WinnerSplit || !w.Valid() {
		t.Fatalf("expected split, got %+v", w)
	}
	if (Winner{Kind: WinnerSingle}).Valid() {
		t.Fatal("single winner without a seat should be invalid")
	}
	if !Winners("a", "b").Equal(Winners("a", "b")) || Winners("a").Equal(Winners("b")) {
		t.Fatal("Equal compares seats")
	}
}

func TestParseUCI(t *testing.T) {
	m, err := ParseUCI("e7e8q")
	if err != nil {
		t.Fatal(err)
	}
	if m.From != "e7" || m.To != "e8" || m.Promotion != "q" {
		t.Fatalf("unexpected move %+v", m)
	}
	if m.UCI() != "e7e8q" {
		t.Fatalf("expected e7e8q, got %s", m.UCI())
	}
	if _, err := ParseUCI("e2"); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected illegal action, got %v", err)
	}
}

func TestParsePokerKind(t *testing.T) {
	for in, want := range map[string]PokerKind{
		"fold": Fold, "CHECK": Check, "call": Call, "raise": Raise,
		"all-in": AllIn, "all_in": AllIn, "allin": AllIn,
	} {
		got, err := ParsePokerKind(in)
		if err != nil || got != want {
			t.Fatalf("ParsePokerKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePokerKind("bet"); !errors.Is(err, ErrIllegalAction) {
		t.Fatalf("expected illegal action, got %v", err)
	}
}

func TestActionVariant(t *testing.T) {
	if v, ok := (Action{Chess: &ChessMove{From: "e2", To: "e4"}}).Variant(); !ok || v != Chess {
		t.Fatalf("expected chess, got %q", v)
	}
	if v, ok := (Action{Poker: &PokerAction{Kind: Fold}}).Variant(); !ok || v != Poker {
		t.Fatalf("expected poker, got %q", v)
	}
	if _, ok := (Action{}).Variant(); ok {
		t.Fatal("empty action has no variant")
	}
	if s := (Action{Poker: &PokerAction{Kind: Raise, Amount: 40}}).String(); s != "raise(40)" {
		t.Fatalf("expected raise(40), got %s", s)
	}
}

func TestRecoverable(t *testing.T) {
	if !Recoverable(fmt.Errorf("%w: e2e5", ErrIllegalAction)) {
		t.Fatal("illegal action should be recoverable")
	}
	if Recoverable(ErrCorruptSnapshot) || Recoverable(ErrGameFinished) {
		t.Fatal("corrupt and finished should not be recoverable")
	}
}
