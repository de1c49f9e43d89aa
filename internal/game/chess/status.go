package chess

import "arena/internal/game"

const (
	ReasonCheckmate            = "checkmate"
	ReasonStalemate            = "stalemate"
	ReasonInsufficientMaterial = "insufficient_material"
	ReasonFiftyMoves           = "fifty_move_rule"
	ReasonThreefold            = "threefold_repetition"
)

// Result describes whether a game has ended and how.
type Result struct {
	Terminal bool
	Reason   string
	Winner   game.Winner
}

// evaluate checks end conditions in a fixed order. Draw conditions end the
// game as soon as they hold; nobody has to claim them.
func evaluate(pos Position, legal []Move, reps []string) Result {
	if len(legal) == 0 {
		if pos.InCheck() {
			return Result{Terminal: true, Reason: ReasonCheckmate, Winner: game.Winners(pos.Turn().Other().String())}
		}
		return Result{Terminal: true, Reason: ReasonStalemate, Winner: game.NoWinner()}
	}
	draw := func(reason string) Result {
		return Result{Terminal: true, Reason: reason, Winner: game.NoWinner()}
	}
	if pos.insufficientMaterial() {
		return draw(ReasonInsufficientMaterial)
	}
	if pos.halfmove >= 100 {
		return draw(ReasonFiftyMoves)
	}
	if len(reps) > 0 {
		last, n := reps[len(reps)-1], 0
		for _, k := range reps {
			if k == last {
				n++
			}
		}
		if n >= 3 {
			return draw(ReasonThreefold)
		}
	}
	return Result{Winner: game.NoWinner()}
}

// insufficientMaterial reports positions where neither side can mate: bare
// kings, a single minor piece, or only bishops all on one square color.
func (p Position) insufficientMaterial() bool {
	knights := 0
	bishops := [2]int{}
	for sq := Square(0); sq < 64; sq++ {
		switch p.board[sq].Kind() {
		case Pawn, Rook, Queen:
			return false
		case Knight:
			knights++
		case Bishop:
			bishops[(sq.File()+sq.Rank())%2]++
		}
	}
	minors := knights + bishops[0] + bishops[1]
	switch {
	case minors <= 1:
		return true
	case knights == 0:
		return bishops[0] == 0 || bishops[1] == 0
	}
	return false
}

// repetitionKey identifies a position for repetition counting. The en passant
// square only counts when a capture there is actually legal.
func (p Position) repetitionKey(legal []Move) string {
	ep := "-"
	if p.enPassant != NoSquare {
		for _, m := range legal {
			if m.To == p.enPassant && p.board[m.From].Kind() == Pawn && m.From.File() != m.To.File() {
				ep = p.enPassant.String()
				break
			}
		}
	}
	side := "w"
	if p.turn == Black {
		side = "b"
	}
	return p.Placement() + " " + side + " " + p.castling.String() + " " + ep
}
