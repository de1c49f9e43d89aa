package poker

import "fmt"

const (
	MinPlayers = 2
	MaxPlayers = 10
)

type Config struct {
	// Chips each seat starts the hand with.
	StartingStack int64

	// Blinds
	SmallBlind int64
	BigBlind   int64
}

// DefaultConfig is 1000 chips with 10/20 blinds.
func DefaultConfig() Config {
	return Config{StartingStack: 1000, SmallBlind: 10, BigBlind: 20}
}

func (c Config) validate() error {
	if c.StartingStack <= 0 {
		return fmt.Errorf("StartingStack must be > 0")
	}
	if c.SmallBlind <= 0 || c.BigBlind <= 0 || c.SmallBlind > c.BigBlind {
		return fmt.Errorf("invalid blinds: sb=%d bb=%d", c.SmallBlind, c.BigBlind)
	}
	return nil
}
