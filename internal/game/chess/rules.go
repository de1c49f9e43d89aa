package chess

import (
	"fmt"

	"arena/internal/game"
)

// Rules is the chess rule module. Seats are "white" and "black".
type Rules struct{}

var _ game.RuleModule = Rules{}

func (Rules) Info() game.Info {
	return game.Info{Variant: game.Chess, MinPlayers: 2, MaxPlayers: 2}
}

func (Rules) Initial(params game.Params) (game.Snapshot, error) {
	if n := len(params.Seats); n != 0 && n != 2 {
		return game.Snapshot{}, fmt.Errorf("%w: chess needs 2 players, got %d", game.ErrInvalidPlayerCount, n)
	}
	return NewGame(StartPosition(), game.StatusWaiting).Snapshot(), nil
}

func (Rules) Validate(s game.Snapshot) error {
	_, err := Decode(s)
	return err
}

func (Rules) ToMove(s game.Snapshot) (string, error) {
	g, err := Decode(s)
	if err != nil {
		return "", err
	}
	if g.Result().Terminal {
		return "", nil
	}
	return g.Position.Turn().String(), nil
}

func (Rules) LegalActions(s game.Snapshot, seat string) ([]game.Action, error) {
	g, err := Decode(s)
	if err != nil {
		return nil, err
	}
	if g.Result().Terminal || seat != g.Position.Turn().String() {
		return []game.Action{}, nil
	}
	actions := make([]game.Action, len(g.Legal))
	for i, m := range g.Legal {
		cm := game.ChessMove{From: m.From.String(), To: m.To.String()}
		if ch, ok := promotionChars[m.Promotion]; ok {
			cm.Promotion = string(ch)
		}
		actions[i] = game.Action{Chess: &cm}
	}
	return actions, nil
}

func (Rules) Apply(s game.Snapshot, seat string, a game.Action) (game.Outcome, error) {
	g, err := Decode(s)
	if err != nil {
		return game.Outcome{}, err
	}
	if g.Result().Terminal {
		return game.Outcome{}, game.ErrGameFinished
	}
	if a.Chess == nil || a.Poker != nil {
		return game.Outcome{}, fmt.Errorf("%w: expected a chess move", game.ErrIllegalAction)
	}
	if seat != g.Position.Turn().String() {
		return game.Outcome{}, fmt.Errorf("%w: %s to move", game.ErrOutOfTurn, g.Position.Turn())
	}
	m, err := ParseMove(a.Chess.From, a.Chess.To, a.Chess.Promotion)
	if err != nil {
		return game.Outcome{}, fmt.Errorf("%w: %v", game.ErrIllegalAction, err)
	}
	if pc := g.Position.PieceAt(m.From); m.Promotion == NoKind && pc.Kind() == Pawn && (m.To.Rank() == 0 || m.To.Rank() == 7) {
		m.Promotion = Queen
	}
	if !g.legal(m) {
		return game.Outcome{}, fmt.Errorf("%w: %s in %s", game.ErrIllegalAction, m, g.Position.FEN())
	}

	notation := g.Position.san(m, g.Legal)
	next := g.play(m, notation)
	res := next.Result()
	return game.Outcome{
		Snapshot: next.Snapshot(),
		Applied:  true,
		Notation: notation,
		Terminal: res.Terminal,
		Winner:   res.Winner,
	}, nil
}

// View returns s unchanged since chess has no hidden information.
func (Rules) View(s game.Snapshot, _ string) (game.Snapshot, error) {
	if _, err := Decode(s); err != nil {
		return game.Snapshot{}, err
	}
	return s.Clone(), nil
}
