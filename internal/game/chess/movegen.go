package chess

import (
	"fmt"
	"sort"
)

// Move is a from/to pair. Promotion is set only for pawn moves to the last rank.
type Move struct {
	From      Square
	To        Square
	Promotion Kind
}

var promotionChars = map[Kind]byte{Queen: 'q', Rook: 'r', Bishop: 'b', Knight: 'n'}

// UCI returns the move in coordinate form, e.g. "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if ch, ok := promotionChars[m.Promotion]; ok {
		s += string(ch)
	}
	return s
}

func (m Move) String() string { return m.UCI() }

// ParseMove reads a move in coordinate form.
func ParseMove(from, to, promotion string) (Move, error) {
	f, err := ParseSquare(from)
	if err != nil {
		return Move{}, err
	}
	t, err := ParseSquare(to)
	if err != nil {
		return Move{}, err
	}
	m := Move{From: f, To: t}
	switch promotion {
	case "":
	case "q", "Q":
		m.Promotion = Queen
	case "r", "R":
		m.Promotion = Rook
	case "b", "B":
		m.Promotion = Bishop
	case "n", "N":
		m.Promotion = Knight
	default:
		return Move{}, fmt.Errorf("invalid promotion %q", promotion)
	}
	return m, nil
}

type offset struct{ df, dr int }

var (
	knightOffsets = []offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = []offset{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	bishopDirs    = []offset{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}
	rookDirs      = []offset{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
)

func pawnDir(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

// attacked reports whether any piece of color by attacks sq.
func (p Position) attacked(sq Square, by Color) bool {
	if sq == NoSquare {
		return false
	}
	f, r := sq.File(), sq.Rank()

	pr := r - pawnDir(by)
	for _, df := range []int{-1, 1} {
		if onBoard(f+df, pr) && p.board[NewSquare(f+df, pr)] == MakePiece(by, Pawn) {
			return true
		}
	}
	for _, o := range knightOffsets {
		if onBoard(f+o.df, r+o.dr) && p.board[NewSquare(f+o.df, r+o.dr)] == MakePiece(by, Knight) {
			return true
		}
	}
	for _, o := range kingOffsets {
		if onBoard(f+o.df, r+o.dr) && p.board[NewSquare(f+o.df, r+o.dr)] == MakePiece(by, King) {
			return true
		}
	}
	if p.slides(f, r, bishopDirs, MakePiece(by, Bishop), MakePiece(by, Queen)) {
		return true
	}
	return p.slides(f, r, rookDirs, MakePiece(by, Rook), MakePiece(by, Queen))
}

func (p Position) slides(f, r int, dirs []offset, a, b Piece) bool {
	for _, d := range dirs {
		for nf, nr := f+d.df, r+d.dr; onBoard(nf, nr); nf, nr = nf+d.df, nr+d.dr {
			pc := p.board[NewSquare(nf, nr)]
			if pc == NoPiece {
				continue
			}
			if pc == a || pc == b {
				return true
			}
			break
		}
	}
	return false
}

// LegalMoves returns every legal move, sorted by UCI text.
func (p Position) LegalMoves() []Move {
	pseudo := p.pseudoMoves()
	legal := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		next := p.Play(m)
		if !next.attacked(next.kingSquare(p.turn), p.turn.Other()) {
			legal = append(legal, m)
		}
	}
	sort.Slice(legal, func(i, j int) bool { return legal[i].UCI() < legal[j].UCI() })
	return legal
}

func (p Position) pseudoMoves() []Move {
	moves := make([]Move, 0, 48)
	for sq := Square(0); sq < 64; sq++ {
		pc := p.board[sq]
		if pc == NoPiece || pc.Color() != p.turn {
			continue
		}
		switch pc.Kind() {
		case Pawn:
			moves = p.pawnMoves(moves, sq)
		case Knight:
			moves = p.stepMoves(moves, sq, knightOffsets)
		case Bishop:
			moves = p.slideMoves(moves, sq, bishopDirs)
		case Rook:
			moves = p.slideMoves(moves, sq, rookDirs)
		case Queen:
			moves = p.slideMoves(moves, sq, bishopDirs)
			moves = p.slideMoves(moves, sq, rookDirs)
		case King:
			moves = p.stepMoves(moves, sq, kingOffsets)
			moves = p.castleMoves(moves, sq)
		}
	}
	return moves
}

func (p Position) pawnMoves(moves []Move, from Square) []Move {
	dir := pawnDir(p.turn)
	f, r := from.File(), from.Rank()
	startRank, lastRank := 1, 7
	if p.turn == Black {
		startRank, lastRank = 6, 0
	}
	add := func(to Square) {
		if to.Rank() == lastRank {
			for _, k := range []Kind{Queen, Rook, Bishop, Knight} {
				moves = append(moves, Move{From: from, To: to, Promotion: k})
			}
			return
		}
		moves = append(moves, Move{From: from, To: to})
	}

	one := NewSquare(f, r+dir)
	if p.board[one] == NoPiece {
		add(one)
		if r == startRank {
			two := NewSquare(f, r+2*dir)
			if p.board[two] == NoPiece {
				add(two)
			}
		}
	}
	for _, df := range []int{-1, 1} {
		if !onBoard(f+df, r+dir) {
			continue
		}
		to := NewSquare(f+df, r+dir)
		target := p.board[to]
		if (target != NoPiece && target.Color() != p.turn) || (target == NoPiece && to == p.enPassant) {
			add(to)
		}
	}
	return moves
}

func (p Position) stepMoves(moves []Move, from Square, offsets []offset) []Move {
	f, r := from.File(), from.Rank()
	for _, o := range offsets {
		if !onBoard(f+o.df, r+o.dr) {
			continue
		}
		to := NewSquare(f+o.df, r+o.dr)
		if target := p.board[to]; target == NoPiece || target.Color() != p.turn {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}

func (p Position) slideMoves(moves []Move, from Square, dirs []offset) []Move {
	f, r := from.File(), from.Rank()
	for _, d := range dirs {
		for nf, nr := f+d.df, r+d.dr; onBoard(nf, nr); nf, nr = nf+d.df, nr+d.dr {
			to := NewSquare(nf, nr)
			target := p.board[to]
			if target == NoPiece {
				moves = append(moves, Move{From: from, To: to})
				continue
			}
			if target.Color() != p.turn {
				moves = append(moves, Move{From: from, To: to})
			}
			break
		}
	}
	return moves
}

// castleMoves adds castling when the rights remain, the path is empty and
// the king does not start in or pass through check. Landing in check is
// filtered with the other moves.
func (p Position) castleMoves(moves []Move, from Square) []Move {
	home, kingside, queenside := E1, WhiteKingside, WhiteQueenside
	if p.turn == Black {
		home, kingside, queenside = E8, BlackKingside, BlackQueenside
	}
	if from != home {
		return moves
	}
	enemy := p.turn.Other()
	if p.castling&(kingside|queenside) == 0 || p.attacked(from, enemy) {
		return moves
	}
	rook := MakePiece(p.turn, Rook)
	if p.castling&kingside != 0 &&
		p.board[home+3] == rook &&
		p.board[home+1] == NoPiece && p.board[home+2] == NoPiece &&
		!p.attacked(home+1, enemy) {
		moves = append(moves, Move{From: from, To: home + 2})
	}
	if p.castling&queenside != 0 &&
		p.board[home-4] == rook &&
		p.board[home-1] == NoPiece && p.board[home-2] == NoPiece && p.board[home-3] == NoPiece &&
		!p.attacked(home-1, enemy) {
		moves = append(moves, Move{From: from, To: home - 2})
	}
	return moves
}

// Play returns the position after m. It does not check legality.
func (p Position) Play(m Move) Position {
	n := p
	pc := n.board[m.From]
	captured := n.board[m.To]
	kind := pc.Kind()
	n.enPassant = NoSquare

	if kind == Pawn && captured == NoPiece && m.From.File() != m.To.File() {
		victim := NewSquare(m.To.File(), m.From.Rank())
		captured = n.board[victim]
		n.board[victim] = NoPiece
	}
	n.board[m.To] = pc
	n.board[m.From] = NoPiece

	switch kind {
	case Pawn:
		if m.To.Rank() == 0 || m.To.Rank() == 7 {
			promo := m.Promotion
			if promo == NoKind {
				promo = Queen
			}
			n.board[m.To] = MakePiece(p.turn, promo)
		}
		if d := m.To.Rank() - m.From.Rank(); d == 2 || d == -2 {
			n.enPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
		}
	case King:
		switch int(m.To) - int(m.From) {
		case 2:
			n.board[m.From+1] = n.board[m.From+3]
			n.board[m.From+3] = NoPiece
		case -2:
			n.board[m.From-1] = n.board[m.From-4]
			n.board[m.From-4] = NoPiece
		}
	}

	n.castling &^= rightsLost(m.From) | rightsLost(m.To)
	if kind == Pawn || captured != NoPiece {
		n.halfmove = 0
	} else {
		n.halfmove++
	}
	if p.turn == Black {
		n.fullmove++
	}
	n.turn = p.turn.Other()
	return n
}

// isCapture reports whether m takes a piece, including en passant.
func (p Position) isCapture(m Move) bool {
	if p.board[m.To] != NoPiece {
		return true
	}
	return p.board[m.From].Kind() == Pawn && m.From.File() != m.To.File()
}

// Perft counts leaf nodes of the legal move tree to the given depth.
func (p Position) Perft(depth int) int {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return len(moves)
	}
	total := 0
	for _, m := range moves {
		total += p.Play(m).Perft(depth - 1)
	}
	return total
}
