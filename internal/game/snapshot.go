package game

// SchemaVersion is the snapshot layout written by this build.
const SchemaVersion = 1

// Snapshot is the complete serialisable state of one game. It is a value:
// rule modules return new snapshots and never modify the one passed in.
type Snapshot struct {
	Variant        Variant  `json:"variant"`
	Schema         int      `json:"schema"`
	Status         Status   `json:"status"`
	Seats          []string `json:"seats"`
	ToMove         string   `json:"toMove"`
	Terminal       bool     `json:"terminal"`
	TerminalReason string   `json:"terminalReason,omitempty"`
	Winner         Winner   `json:"winner"`
	History        []string `json:"history"`

	Chess *ChessState `json:"chess,omitempty"`
	Poker *PokerState `json:"poker,omitempty"`
}

// ChessState is the chess body. Legal moves are cached in sorted UCI form and
// checked against the position when decoded.
type ChessState struct {
	FEN         string   `json:"fen"`
	Castling    string   `json:"castling"`
	EnPassant   string   `json:"enPassant"`
	Halfmove    int      `json:"halfmove"`
	Fullmove    int      `json:"fullmove"`
	LegalMoves  []string `json:"legalMoves"`
	Check       bool     `json:"check"`
	Checkmate   bool     `json:"checkmate"`
	Stalemate   bool     `json:"stalemate"`
	Repetitions []string `json:"repetitions"`
}

// PokerState is the poker body. Cards use two-character text such as "As".
type PokerState struct {
	Stage      string      `json:"stage"`
	Dealer     int         `json:"dealer"`
	Actor      int         `json:"actor"`
	SmallBlind int64       `json:"smallBlind"`
	BigBlind   int64       `json:"bigBlind"`
	Pot        int64       `json:"pot"`
	CurrentBet int64       `json:"currentBet"`
	MinRaise   int64       `json:"minRaise"`
	Seats      []PokerSeat `json:"seats"`
	Community  []string    `json:"community"`
	Deck       []string    `json:"deck"`
	Payouts    []Payout    `json:"payouts,omitempty"`
}

// PokerSeat is one player at the table.
type PokerSeat struct {
	ID          string   `json:"id"`
	Stack       int64    `json:"stack"`
	Bet         int64    `json:"bet"`
	Contributed int64    `json:"contributed"`
	Folded      bool     `json:"folded"`
	AllIn       bool     `json:"allIn"`
	Acted       bool     `json:"acted"`
	Hole        []string `json:"hole"`
	Hand        string   `json:"hand,omitempty"`
}

// Payout records one pot paid at the end of a hand.
type Payout struct {
	Amount  int64    `json:"amount"`
	Winners []string `json:"winners"`
	Hand    string   `json:"hand,omitempty"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Seats = cloneStrings(s.Seats)
	c.History = cloneStrings(s.History)
	c.Winner = s.Winner.clone()
	if s.Chess != nil {
		cs := *s.Chess
		cs.LegalMoves = cloneStrings(s.Chess.LegalMoves)
		cs.Repetitions = cloneStrings(s.Chess.Repetitions)
		c.Chess = &cs
	}
	if s.Poker != nil {
		ps := *s.Poker
		ps.Seats = make([]PokerSeat, len(s.Poker.Seats))
		for i, seat := range s.Poker.Seats {
			seat.Hole = cloneStrings(seat.Hole)
			ps.Seats[i] = seat
		}
		ps.Community = cloneStrings(s.Poker.Community)
		ps.Deck = cloneStrings(s.Poker.Deck)
		if s.Poker.Payouts != nil {
			ps.Payouts = make([]Payout, len(s.Poker.Payouts))
			for i, p := range s.Poker.Payouts {
				p.Winners = cloneStrings(p.Winners)
				ps.Payouts[i] = p
			}
		}
		c.Poker = &ps
	}
	return c
}

// SeatIndex returns the position of seat in s.Seats, or -1.
func (s Snapshot) SeatIndex(seat string) int {
	for i, id := range s.Seats {
		if id == seat {
			return i
		}
	}
	return -1
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
