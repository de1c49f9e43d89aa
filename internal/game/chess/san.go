package chess

import "strings"

var sanLetters = map[Kind]string{Knight: "N", Bishop: "B", Rook: "R", Queen: "Q", King: "K"}

// SAN returns m in standard algebraic notation. m must be legal in p.
func (p Position) SAN(m Move) string {
	return p.san(m, p.LegalMoves())
}

func (p Position) san(m Move, legal []Move) string {
	var b strings.Builder
	pc := p.board[m.From]

	switch {
	case pc.Kind() == King && int(m.To)-int(m.From) == 2:
		b.WriteString("O-O")
	case pc.Kind() == King && int(m.To)-int(m.From) == -2:
		b.WriteString("O-O-O")
	case pc.Kind() == Pawn:
		if p.isCapture(m) {
			b.WriteByte(byte('a' + m.From.File()))
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
		if m.Promotion != NoKind {
			b.WriteByte('=')
			b.WriteString(sanLetters[m.Promotion])
		}
	default:
		b.WriteString(sanLetters[pc.Kind()])
		b.WriteString(p.disambiguate(m, legal))
		if p.isCapture(m) {
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
	}

	next := p.Play(m)
	if next.InCheck() {
		if len(next.LegalMoves()) == 0 {
			b.WriteByte('#')
		} else {
			b.WriteByte('+')
		}
	}
	return b.String()
}

// disambiguate returns the file, rank or both needed to tell m apart from
// other legal moves of the same piece type to the same square.
func (p Position) disambiguate(m Move, legal []Move) string {
	pc := p.board[m.From]
	ambiguous, sameFile, sameRank := false, false, false
	for _, o := range legal {
		if o.To != m.To || o.From == m.From || p.board[o.From] != pc {
			continue
		}
		ambiguous = true
		if o.From.File() == m.From.File() {
			sameFile = true
		}
		if o.From.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	from := m.From.String()
	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return from[:1]
	case !sameRank:
		return from[1:]
	}
	return from
}
