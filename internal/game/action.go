package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is a tagged union of the per-variant action payloads. Exactly one
// field is set.
type Action struct {
	Chess *ChessMove   `json:"chess,omitempty"`
	Poker *PokerAction `json:"poker,omitempty"`
}

// ChessMove names squares in algebraic form. Promotion is one of q, r, b, n
// and defaults to a queen when a pawn reaches the last rank without one.
type ChessMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ParseUCI splits a move like "e7e8q" into its parts. Squares are not
// checked here.
func ParseUCI(s string) (ChessMove, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return ChessMove{}, fmt.Errorf("%w: malformed move %q", ErrIllegalAction, s)
	}
	m := ChessMove{From: s[0:2], To: s[2:4]}
	if len(s) == 5 {
		m.Promotion = s[4:]
	}
	return m, nil
}

// UCI returns the move in coordinate form.
func (m ChessMove) UCI() string {
	return m.From + m.To + m.Promotion
}

// PokerKind is the kind of a betting action.
type PokerKind string

const (
	Fold  PokerKind = "fold"
	Check PokerKind = "check"
	Call  PokerKind = "call"
	Raise PokerKind = "raise"
	AllIn PokerKind = "all-in"
)

// ParsePokerKind accepts the canonical kinds plus the "all_in" and "allin"
// spellings.
func ParsePokerKind(s string) (PokerKind, error) {
	switch k := PokerKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Fold, Check, Call, Raise, AllIn:
		return k, nil
	case "all_in", "allin":
		return AllIn, nil
	}
	return "", fmt.Errorf("%w: unknown action kind %q", ErrIllegalAction, s)
}

// PokerAction is one betting decision. Amount is the raise increment above the
// current bet and is ignored for other kinds. When listed as a legal raise,
// Amount is the minimum increment and Max the maximum.
type PokerAction struct {
	Kind   PokerKind `json:"kind"`
	Amount int64     `json:"amount,omitempty"`
	Max    int64     `json:"max,omitempty"`
}

// Variant reports which variant the action is for.
func (a Action) Variant() (Variant, bool) {
	switch {
	case a.Chess != nil && a.Poker == nil:
		return Chess, true
	case a.Poker != nil && a.Chess == nil:
		return Poker, true
	}
	return "", false
}

func (a Action) String() string {
	switch {
	case a.Chess != nil:
		return a.Chess.UCI()
	case a.Poker != nil:
		if a.Poker.Amount > 0 {
			return string(a.Poker.Kind) + "(" + strconv.FormatInt(a.Poker.Amount, 10) + ")"
		}
		return string(a.Poker.Kind)
	}
	return "<empty>"
}
