// Package chess implements standard chess rules as a game.RuleModule.
package chess

import (
	"fmt"
	"strings"
)

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Piece packs a color and a kind. The zero value is an empty square.
type Piece uint8

const NoPiece Piece = 0

func MakePiece(c Color, k Kind) Piece { return Piece(uint8(c)<<3 | uint8(k)) }

func (p Piece) Kind() Kind   { return Kind(p & 7) }
func (p Piece) Color() Color { return Color(p >> 3) }

const pieceChars = " pnbrqk"

// FEN returns the piece letter, upper case for white.
func (p Piece) FEN() byte {
	ch := pieceChars[p.Kind()]
	if p.Color() == White {
		ch -= 'a' - 'A'
	}
	return ch
}

func pieceFromFEN(ch byte) (Piece, bool) {
	c := White
	if ch >= 'a' && ch <= 'z' {
		c = Black
		ch -= 'a' - 'A'
	}
	i := strings.IndexByte(strings.ToUpper(pieceChars), ch)
	if i <= 0 {
		return NoPiece, false
	}
	return MakePiece(c, Kind(i)), true
}

// Square indexes the board from a1 = 0 to h8 = 63.
type Square int8

const NoSquare Square = -1

const (
	A1 Square = 0
	B1 Square = 1
	C1 Square = 2
	D1 Square = 3
	E1 Square = 4
	F1 Square = 5
	G1 Square = 6
	H1 Square = 7
	A8 Square = 56
	B8 Square = 57
	C8 Square = 58
	D8 Square = 59
	E8 Square = 60
	F8 Square = 61
	G8 Square = 62
	H8 Square = 63
)

func NewSquare(file, rank int) Square { return Square(rank*8 + file) }

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 3 }

func (s Square) String() string {
	if s < 0 || s > 63 {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare reads a square such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// CastlingRights is a bit set of the four castling options.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside
)

var castlingChars = []struct {
	right CastlingRights
	ch    byte
}{
	{WhiteKingside, 'K'},
	{WhiteQueenside, 'Q'},
	{BlackKingside, 'k'},
	{BlackQueenside, 'q'},
}

func (c CastlingRights) String() string {
	var b []byte
	for _, cc := range castlingChars {
		if c&cc.right != 0 {
			b = append(b, cc.ch)
		}
	}
	if len(b) == 0 {
		return "-"
	}
	return string(b)
}

func parseCastling(s string) (CastlingRights, error) {
	if s == "-" {
		return 0, nil
	}
	var c CastlingRights
	rest := s
	for _, cc := range castlingChars {
		if len(rest) > 0 && rest[0] == cc.ch {
			c |= cc.right
			rest = rest[1:]
		}
	}
	if s == "" || rest != "" {
		return 0, fmt.Errorf("invalid castling field %q", s)
	}
	return c, nil
}

// rightsLost returns the rights removed when a piece leaves or lands on sq.
func rightsLost(sq Square) CastlingRights {
	switch sq {
	case E1:
		return WhiteKingside | WhiteQueenside
	case H1:
		return WhiteKingside
	case A1:
		return WhiteQueenside
	case E8:
		return BlackKingside | BlackQueenside
	case H8:
		return BlackKingside
	case A8:
		return BlackQueenside
	}
	return 0
}
