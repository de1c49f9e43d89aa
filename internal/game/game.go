package game

// Variant identifies a game type. It is fixed when a game is created.
type Variant string

const (
	Chess Variant = "chess"
	Poker Variant = "poker"
)

// Info describes a variant for the lobby.
type Info struct {
	Variant    Variant `json:"variant"`
	MinPlayers int     `json:"minPlayers"`
	MaxPlayers int     `json:"maxPlayers"`
}

// Status is the lifecycle of one game.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAborted    Status = "aborted"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusInProgress, StatusCompleted, StatusAborted:
		return true
	}
	return false
}

// Finished reports whether s is absorbing.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusAborted
}

// Params holds settings for creating a new game.
type Params struct {
	// Seats is the ordered list of actor ids. Chess accepts zero or two
	// entries and always seats "white" and "black".
	Seats []string
	// Seed drives any shuffling. The same seed deals the same cards.
	Seed uint64
}

// RuleModule is one variant's rules. Implementations hold no per-game state:
// every call takes a Snapshot and returns a new one without touching the input.
type RuleModule interface {
	Info() Info
	Initial(params Params) (Snapshot, error)
	// Validate decodes the variant body and reports ErrUnsupportedSnapshot or
	// ErrCorruptSnapshot when it cannot be trusted.
	Validate(s Snapshot) error
	// ToMove returns the seat token allowed to act, or "" when nobody is.
	ToMove(s Snapshot) (string, error)
	LegalActions(s Snapshot, seat string) ([]Action, error)
	Apply(s Snapshot, seat string, a Action) (Outcome, error)
	// View returns the part of s that seat is allowed to see.
	View(s Snapshot, seat string) (Snapshot, error)
}
