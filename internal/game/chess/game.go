package chess

import (
	"fmt"

	"arena/internal/game"
)

var seats = []string{White.String(), Black.String()}

// Game is a decoded chess snapshot.
type Game struct {
	Position    Position
	Legal       []Move
	Repetitions []string
	Status      game.Status
	History     []string
}

// NewGame starts a game from pos.
func NewGame(pos Position, status game.Status) *Game {
	legal := pos.LegalMoves()
	return &Game{
		Position:    pos,
		Legal:       legal,
		Repetitions: []string{pos.repetitionKey(legal)},
		Status:      status,
		History:     []string{},
	}
}

// Result evaluates the end conditions of the current position.
func (g *Game) Result() Result {
	return evaluate(g.Position, g.Legal, g.Repetitions)
}

// play returns the game after m. Repetition history restarts after captures
// and pawn moves since no earlier position can recur.
func (g *Game) play(m Move, notation string) *Game {
	pos := g.Position.Play(m)
	legal := pos.LegalMoves()
	var reps []string
	if pos.halfmove > 0 {
		reps = append(reps, g.Repetitions...)
	}
	reps = append(reps, pos.repetitionKey(legal))
	history := make([]string, 0, len(g.History)+1)
	history = append(history, g.History...)
	return &Game{
		Position:    pos,
		Legal:       legal,
		Repetitions: reps,
		Status:      g.Status,
		History:     append(history, notation),
	}
}

func (g *Game) legal(m Move) bool {
	for _, l := range g.Legal {
		if l == m {
			return true
		}
	}
	return false
}

// Snapshot encodes g.
func (g *Game) Snapshot() game.Snapshot {
	res := g.Result()
	toMove := ""
	if !res.Terminal {
		toMove = g.Position.Turn().String()
	}
	inCheck := g.Position.InCheck()
	reps := make([]string, len(g.Repetitions))
	copy(reps, g.Repetitions)
	history := make([]string, len(g.History))
	copy(history, g.History)
	return game.Snapshot{
		Variant:        game.Chess,
		Schema:         game.SchemaVersion,
		Status:         g.Status,
		Seats:          []string{White.String(), Black.String()},
		ToMove:         toMove,
		Terminal:       res.Terminal,
		TerminalReason: res.Reason,
		Winner:         res.Winner,
		History:        history,
		Chess: &game.ChessState{
			FEN:         g.Position.FEN(),
			Castling:    g.Position.castling.String(),
			EnPassant:   g.Position.enPassant.String(),
			Halfmove:    g.Position.halfmove,
			Fullmove:    g.Position.fullmove,
			LegalMoves:  uciList(g.Legal),
			Check:       inCheck,
			Checkmate:   res.Reason == ReasonCheckmate,
			Stalemate:   res.Reason == ReasonStalemate,
			Repetitions: reps,
		},
	}
}

// Decode rebuilds a game from s. Every cached or derived field must agree
// with the position, otherwise the snapshot is reported corrupt.
func Decode(s game.Snapshot) (*Game, error) {
	if s.Variant != game.Chess {
		return nil, fmt.Errorf("%w: variant %q is not chess", game.ErrUnsupportedSnapshot, s.Variant)
	}
	body := s.Chess
	if body == nil || body.FEN == "" {
		return nil, fmt.Errorf("%w: chess snapshot has no fen", game.ErrUnsupportedSnapshot)
	}
	corrupt := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", game.ErrCorruptSnapshot, fmt.Sprintf(format, args...))
	}
	if s.Poker != nil {
		return nil, corrupt("chess snapshot carries a poker body")
	}
	pos, err := ParseFEN(body.FEN)
	if err != nil {
		return nil, corrupt("%v", err)
	}
	if body.Castling != pos.castling.String() || body.EnPassant != pos.enPassant.String() ||
		body.Halfmove != pos.halfmove || body.Fullmove != pos.fullmove {
		return nil, corrupt("fields disagree with fen %q", body.FEN)
	}
	if !equalStrings(s.Seats, seats) {
		return nil, corrupt("chess seats must be %v, got %v", seats, s.Seats)
	}
	if len(body.Repetitions) == 0 {
		return nil, corrupt("missing repetition history")
	}

	g := &Game{
		Position:    pos,
		Legal:       pos.LegalMoves(),
		Repetitions: append([]string(nil), body.Repetitions...),
		Status:      s.Status,
		History:     append([]string{}, s.History...),
	}
	if !equalStrings(uciList(g.Legal), body.LegalMoves) {
		return nil, corrupt("cached legal moves disagree with position")
	}
	if g.Repetitions[len(g.Repetitions)-1] != pos.repetitionKey(g.Legal) {
		return nil, corrupt("repetition history does not end at the current position")
	}

	want := g.Snapshot()
	switch {
	case body.Check != want.Chess.Check || body.Checkmate != want.Chess.Checkmate || body.Stalemate != want.Chess.Stalemate:
		return nil, corrupt("check flags disagree with position")
	case s.Terminal != want.Terminal || s.TerminalReason != want.TerminalReason || !s.Winner.Equal(want.Winner):
		return nil, corrupt("terminal state disagrees with position")
	case s.ToMove != want.ToMove:
		return nil, corrupt("side to move %q disagrees with position", s.ToMove)
	}
	return g, nil
}

func uciList(moves []Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.UCI()
	}
	return out
}

func equalStrings(a, b []string) bool {
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
