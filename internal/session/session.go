package session

import (
	"sort"
	"sync"
)

// Player is one live connection watching a game. A player may also be a
// spectator without a seat.
type Player struct {
	ID   string
	Send chan []byte // outbound messages
}

// Session is the set of connections watching one game. It holds no game
// state: every request reloads the game from storage.
type Session struct {
	mu      sync.RWMutex
	GameID  string
	Players map[string]*Player
}

// NewSession creates an empty room for a game.
func NewSession(gameID string) *Session {
	return &Session{
		GameID:  gameID,
		Players: make(map[string]*Player),
	}
}

// Connect registers a connection for playerID. A reconnecting player
// replaces the previous connection, whose channel is closed.
func (s *Session) Connect(playerID string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.Players[playerID]; ok {
		close(old.Send)
	}
	p := &Player{ID: playerID, Send: make(chan []byte, 64)}
	s.Players[playerID] = p
	return p
}

// Disconnect removes p if it is still the player's current connection.
func (s *Session) Disconnect(p *Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.Players[p.ID]; ok && cur == p {
		close(p.Send)
		delete(s.Players, p.ID)
	}
}

// PlayerIDs returns the connected player IDs in sorted order.
func (s *Session) PlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Empty reports whether nobody is connected.
func (s *Session) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Players) == 0
}

// Send delivers msg to one player. It reports false if the player is not
// connected or its buffer is full.
func (s *Session) Send(playerID string, msg []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.Players[playerID]
	if !ok {
		return false
	}
	select {
	case p.Send <- msg:
		return true
	default:
		return false
	}
}

// Broadcast sends a message to all connected players.
func (s *Session) Broadcast(msg []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.Players {
		select {
		case p.Send <- msg:
		default:
			// drop message if buffer full
		}
	}
}
