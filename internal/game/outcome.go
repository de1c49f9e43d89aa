package game

// WinnerKind classifies how a game ended.
type WinnerKind string

const (
	WinnerNone   WinnerKind = "none"
	WinnerSingle WinnerKind = "single"
	WinnerSplit  WinnerKind = "split"
)

// Winner names the seats that won. Kind is none for draws and unfinished games.
type Winner struct {
	Kind  WinnerKind `json:"kind"`
	Seats []string   `json:"seats,omitempty"`
}

// NoWinner is used for unfinished games and draws.
func NoWinner() Winner { return Winner{Kind: WinnerNone} }

// Winners builds a single or split winner depending on how many seats share it.
func Winners(seats ...string) Winner {
	switch len(seats) {
	case 0:
		return NoWinner()
	case 1:
		return Winner{Kind: WinnerSingle, Seats: []string{seats[0]}}
	}
	return Winner{Kind: WinnerSplit, Seats: cloneStrings(seats)}
}

// Valid reports whether the kind matches the number of seats.
func (w Winner) Valid() bool {
	switch w.Kind {
	case WinnerNone:
		return len(w.Seats) == 0
	case WinnerSingle:
		return len(w.Seats) == 1
	case WinnerSplit:
		return len(w.Seats) > 1
	}
	return false
}

// Equal compares kind and seats in order.
func (w Winner) Equal(o Winner) bool {
	if w.Kind != o.Kind || len(w.Seats) != len(o.Seats) {
		return false
	}
	for i := range w.Seats {
		if w.Seats[i] != o.Seats[i] {
			return false
		}
	}
	return true
}

func (w Winner) clone() Winner {
	return Winner{Kind: w.Kind, Seats: cloneStrings(w.Seats)}
}

// Outcome is the result of applying one action.
type Outcome struct {
	Snapshot Snapshot `json:"snapshot"`
	Applied  bool     `json:"applied"`
	Notation string   `json:"notation"`
	Terminal bool     `json:"terminal"`
	Winner   Winner   `json:"winner"`
}
