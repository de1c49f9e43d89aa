package chess

import (
	"fmt"
	"strconv"
	"strings"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is a full board state. It is a value type: copying a Position
// copies the board.
type Position struct {
	board     [64]Piece
	turn      Color
	castling  CastlingRights
	enPassant Square
	halfmove  int
	fullmove  int
}

// StartPosition returns the standard initial position.
func StartPosition() Position {
	p, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Position) Turn() Color              { return p.turn }
func (p Position) Castling() CastlingRights { return p.castling }
func (p Position) EnPassant() Square        { return p.enPassant }
func (p Position) Halfmove() int            { return p.halfmove }
func (p Position) Fullmove() int            { return p.fullmove }
func (p Position) PieceAt(sq Square) Piece  { return p.board[sq] }

// ParseFEN reads all six FEN fields. Positions that cannot arise in play,
// such as a missing king or the side not to move being in check, are rejected.
func ParseFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return Position{}, fmt.Errorf("fen %q: expected 6 fields, got %d", fen, len(fields))
	}
	var p Position

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, fmt.Errorf("fen %q: expected 8 ranks", fen)
	}
	kings := [2]int{}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			pc, ok := pieceFromFEN(ch)
			if !ok || file > 7 {
				return Position{}, fmt.Errorf("fen %q: bad placement %q", fen, row)
			}
			if pc.Kind() == Pawn && (rank == 0 || rank == 7) {
				return Position{}, fmt.Errorf("fen %q: pawn on back rank", fen)
			}
			if pc.Kind() == King {
				kings[pc.Color()]++
			}
			p.board[NewSquare(file, rank)] = pc
			file++
		}
		if file != 8 {
			return Position{}, fmt.Errorf("fen %q: rank %d has %d files", fen, rank+1, file)
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return Position{}, fmt.Errorf("fen %q: each side needs exactly one king", fen)
	}

	switch fields[1] {
	case "w":
		p.turn = White
	case "b":
		p.turn = Black
	default:
		return Position{}, fmt.Errorf("fen %q: bad side to move %q", fen, fields[1])
	}

	c, err := parseCastling(fields[2])
	if err != nil {
		return Position{}, fmt.Errorf("fen %q: %w", fen, err)
	}
	p.castling = c
	if err := p.checkCastling(); err != nil {
		return Position{}, fmt.Errorf("fen %q: %w", fen, err)
	}

	p.enPassant = NoSquare
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Position{}, fmt.Errorf("fen %q: %w", fen, err)
		}
		want := 5
		if p.turn == Black {
			want = 2
		}
		if sq.Rank() != want {
			return Position{}, fmt.Errorf("fen %q: en passant square %s on wrong rank", fen, sq)
		}
		p.enPassant = sq
	}

	p.halfmove, err = strconv.Atoi(fields[4])
	if err != nil || p.halfmove < 0 {
		return Position{}, fmt.Errorf("fen %q: bad halfmove clock", fen)
	}
	p.fullmove, err = strconv.Atoi(fields[5])
	if err != nil || p.fullmove < 1 {
		return Position{}, fmt.Errorf("fen %q: bad fullmove number", fen)
	}

	if p.attacked(p.kingSquare(p.turn.Other()), p.turn) {
		return Position{}, fmt.Errorf("fen %q: side not to move is in check", fen)
	}
	return p, nil
}

func (p Position) checkCastling() error {
	need := []struct {
		right      CastlingRights
		king, rook Square
		color      Color
	}{
		{WhiteKingside, E1, H1, White},
		{WhiteQueenside, E1, A1, White},
		{BlackKingside, E8, H8, Black},
		{BlackQueenside, E8, A8, Black},
	}
	for _, n := range need {
		if p.castling&n.right == 0 {
			continue
		}
		if p.board[n.king] != MakePiece(n.color, King) || p.board[n.rook] != MakePiece(n.color, Rook) {
			return fmt.Errorf("castling right %s without king and rook in place", n.right)
		}
	}
	return nil
}

// Placement returns the first FEN field.
func (p Position) Placement() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(pc.FEN())
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	return b.String()
}

// FEN formats all six fields.
func (p Position) FEN() string {
	side := "w"
	if p.turn == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s %s %s %d %d", p.Placement(), side, p.castling, p.enPassant, p.halfmove, p.fullmove)
}

func (p Position) String() string { return p.FEN() }

func (p Position) kingSquare(c Color) Square {
	king := MakePiece(c, King)
	for sq := Square(0); sq < 64; sq++ {
		if p.board[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// InCheck reports whether the side to move is in check.
func (p Position) InCheck() bool {
	return p.attacked(p.kingSquare(p.turn), p.turn.Other())
}
