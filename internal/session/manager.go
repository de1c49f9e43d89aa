package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"arena/internal/ai"
	"arena/internal/engine"
	"arena/internal/game"
	"arena/internal/storage"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrNotPlayer    = errors.New("not a player in this game")
	ErrNoSuggester  = errors.New("no move suggester configured")
)

// Seat maps a player onto a seat of the rule module.
type Seat struct {
	PlayerID string `json:"playerId"`
	Seat     string `json:"seat"`
}

// Game is a stored game with its decoded snapshot.
type Game struct {
	ID        string        `json:"id"`
	Variant   game.Variant  `json:"variant"`
	Status    game.Status   `json:"status"`
	Players   []Seat        `json:"players"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Snapshot  game.Snapshot `json:"-"`
}

// SeatOf returns the seat held by playerID.
func (g *Game) SeatOf(playerID string) (string, bool) {
	for _, p := range g.Players {
		if p.PlayerID == playerID {
			return p.Seat, true
		}
	}
	return "", false
}

// PlayerAt returns the player holding seat, or "".
func (g *Game) PlayerAt(seat string) string {
	for _, p := range g.Players {
		if p.Seat == seat {
			return p.PlayerID
		}
	}
	return ""
}

// ToMove returns the player whose turn it is, or "".
func (g *Game) ToMove() string {
	if g.Status.Finished() {
		return ""
	}
	return g.PlayerAt(g.Snapshot.ToMove)
}

// WinnerIDs maps the snapshot's winning seats to player IDs.
func (g *Game) WinnerIDs() []string {
	ids := make([]string, 0, len(g.Snapshot.Winner.Seats))
	for _, s := range g.Snapshot.Winner.Seats {
		ids = append(ids, g.PlayerAt(s))
	}
	return ids
}

func (g *Game) clone() *Game {
	c := *g
	c.Players = append([]Seat(nil), g.Players...)
	c.Snapshot = g.Snapshot.Clone()
	return &c
}

// View is what one player sees of a game.
type View struct {
	Game         *Game         `json:"game"`
	Seat         string        `json:"seat,omitempty"`
	ToMove       string        `json:"toMove,omitempty"`
	State        game.Snapshot `json:"state"`
	LegalActions []game.Action `json:"legalActions"`
}

// MoveResult describes an applied action.
type MoveResult struct {
	Game     *Game       `json:"game"`
	Number   int         `json:"number"`
	PlayerID string      `json:"playerId"`
	Action   game.Action `json:"action"`
	Notation string      `json:"notation"`
	Terminal bool        `json:"terminal"`
	Winner   game.Winner `json:"winner"`
}

// Move is one entry of a game's move log.
type Move struct {
	Number    int       `json:"number"`
	PlayerID  string    `json:"playerId"`
	Seat      string    `json:"seat"`
	Action    string    `json:"action"`
	Notation  string    `json:"notation"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest describes a new game. A zero Seed picks a random one.
type CreateRequest struct {
	Variant game.Variant
	Players []string
	Seed    uint64
	Start   bool
}

// Options tune a Manager. Zero values pick defaults.
type Options struct {
	CacheSize int
	Suggester ai.Suggester
	Logger    *zap.Logger
}

// Manager owns the lifecycle of stored games and the live rooms watching
// them. Writes to one game are serialised; different games proceed in
// parallel.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	engine   *engine.Engine
	store    *storage.Store
	cache    *lru.Cache[string, *Game]
	locks    *keyedMutex
	bot      ai.Suggester
	log      *zap.Logger
}

// NewManager creates a game manager.
func NewManager(eng *engine.Engine, store *storage.Store, opts Options) (*Manager, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cache, err := lru.New[string, *Game](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	return &Manager{
		sessions: make(map[string]*Session),
		engine:   eng,
		store:    store,
		cache:    cache,
		locks:    newKeyedMutex(),
		bot:      opts.Suggester,
		log:      opts.Logger,
	}, nil
}

// Variants lists the playable variants.
func (m *Manager) Variants() []game.Info {
	return m.engine.Variants()
}

// Create makes a new game and persists it.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Game, error) {
	seen := make(map[string]bool, len(req.Players))
	for _, p := range req.Players {
		if p == "" {
			return nil, fmt.Errorf("%w: empty player id", game.ErrInvalidPlayerCount)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: player %q listed twice", game.ErrInvalidPlayerCount, p)
		}
		seen[p] = true
	}
	seed := req.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	// Chess names its own seats; poker seats are the player ids.
	var seats []string
	if req.Variant == game.Poker {
		seats = req.Players
	}
	snap, err := m.engine.Initial(req.Variant, game.Params{Seats: seats, Seed: seed})
	if err != nil {
		return nil, err
	}
	if len(snap.Seats) != len(req.Players) {
		return nil, fmt.Errorf("%w: %s needs %d players, got %d",
			game.ErrInvalidPlayerCount, req.Variant, len(snap.Seats), len(req.Players))
	}
	if req.Start {
		if snap, err = m.engine.Start(snap); err != nil {
			return nil, err
		}
	}
	data, err := m.engine.Encode(snap)
	if err != nil {
		return nil, err
	}

	g := &Game{
		ID:       uuid.NewString(),
		Variant:  req.Variant,
		Status:   snap.Status,
		Version:  1,
		Snapshot: snap,
	}
	rows := make([]storage.PlayerRow, len(req.Players))
	for i, p := range req.Players {
		g.Players = append(g.Players, Seat{PlayerID: p, Seat: snap.Seats[i]})
		rows[i] = storage.PlayerRow{GameID: g.ID, PlayerID: p, Seat: snap.Seats[i], Position: i}
	}
	err = m.store.CreateGame(ctx, storage.GameRow{
		ID:       g.ID,
		Variant:  string(g.Variant),
		Status:   string(g.Status),
		Snapshot: string(data),
		Winner:   strings.Join(g.WinnerIDs(), ","),
	}, rows)
	if err != nil {
		return nil, fmt.Errorf("persist game: %w", err)
	}
	m.log.Info("game created",
		zap.String("game_id", g.ID),
		zap.String("variant", string(g.Variant)),
		zap.Strings("players", req.Players),
		zap.Uint64("seed", seed),
	)
	// Timestamps come from the database.
	return m.Get(ctx, g.ID)
}

// Get loads a game.
func (m *Manager) Get(ctx context.Context, id string) (*Game, error) {
	g, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return g.clone(), nil
}

func (m *Manager) load(ctx context.Context, id string) (*Game, error) {
	if g, ok := m.cache.Get(id); ok {
		return g, nil
	}
	row, err := m.store.GetGame(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	snap, err := m.engine.Decode([]byte(row.Snapshot))
	if err != nil {
		m.log.Error("stored snapshot rejected", zap.String("game_id", id), zap.Error(err))
		return nil, err
	}
	players, err := m.store.Players(ctx, id)
	if err != nil {
		return nil, err
	}
	g := &Game{
		ID:        row.ID,
		Variant:   snap.Variant,
		Status:    snap.Status,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Snapshot:  snap,
	}
	for _, p := range players {
		g.Players = append(g.Players, Seat{PlayerID: p.PlayerID, Seat: p.Seat})
	}
	m.cache.Add(id, g)
	return g, nil
}

// List returns the stored games, optionally filtered by status.
func (m *Manager) List(ctx context.Context, status game.Status) ([]*Game, error) {
	rows, err := m.store.ListGames(ctx, string(status))
	if err != nil {
		return nil, err
	}
	games := make([]*Game, 0, len(rows))
	for _, r := range rows {
		g, err := m.Get(ctx, r.ID)
		if err != nil {
			m.log.Warn("skipping unreadable game", zap.String("game_id", r.ID), zap.Error(err))
			continue
		}
		games = append(games, g)
	}
	return games, nil
}

// View returns the game as playerID may see it. Unknown players get the
// spectator view.
func (m *Manager) View(ctx context.Context, id, playerID string) (*View, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seat, _ := g.SeatOf(playerID)
	state, err := m.engine.View(g.Snapshot, seat)
	if err != nil {
		return nil, err
	}
	legal := []game.Action{}
	if seat != "" {
		if legal, err = m.engine.LegalActionsFor(g.Snapshot, seat); err != nil {
			return nil, err
		}
	}
	return &View{Game: g, Seat: seat, ToMove: g.ToMove(), State: state, LegalActions: legal}, nil
}

// LegalActions lists what playerID may do now.
func (m *Manager) LegalActions(ctx context.Context, id, playerID string) ([]game.Action, error) {
	g, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	seat, ok := g.SeatOf(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPlayer, playerID)
	}
	return m.engine.LegalActionsFor(g.Snapshot, seat)
}

// update runs fn on the current game under the game's lock and stores the
// snapshot it returns.
func (m *Manager) update(ctx context.Context, id string, fn func(g *Game) (game.Snapshot, *storage.MoveRow, error)) (*Game, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	g, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, move, err := fn(g)
	if err != nil {
		return nil, err
	}
	data, err := m.engine.Encode(snap)
	if err != nil {
		return nil, err
	}

	next := g.clone()
	next.Snapshot = snap
	next.Status = snap.Status
	winner := strings.Join(next.WinnerIDs(), ",")
	if move != nil {
		err = m.store.CommitMove(ctx, id, g.Version, string(snap.Status), string(data), winner, *move)
	} else {
		err = m.store.UpdateGame(ctx, id, g.Version, string(snap.Status), string(data), winner)
	}
	if err != nil {
		m.cache.Remove(id)
		return nil, err
	}
	// The version and timestamp come from the database so that cached and
	// reloaded games agree.
	row, err := m.store.GetGame(ctx, id)
	if err != nil {
		m.log.Warn("reload committed game", zap.String("game_id", id), zap.Error(err))
		m.cache.Remove(id)
		next.Version++
		return next.clone(), nil
	}
	next.Version = row.Version
	next.UpdatedAt = row.UpdatedAt
	m.cache.Add(id, next)
	return next.clone(), nil
}

// Start moves a waiting game to in progress.
func (m *Manager) Start(ctx context.Context, id string) (*Game, error) {
	g, err := m.update(ctx, id, func(g *Game) (game.Snapshot, *storage.MoveRow, error) {
		s, err := m.engine.Start(g.Snapshot)
		return s, nil, err
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("game started", zap.String("game_id", id))
	return g, nil
}

// Abort ends an unfinished game without a winner.
func (m *Manager) Abort(ctx context.Context, id, reason string) (*Game, error) {
	g, err := m.update(ctx, id, func(g *Game) (game.Snapshot, *storage.MoveRow, error) {
		s, err := m.engine.Abort(g.Snapshot)
		return s, nil, err
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("game aborted", zap.String("game_id", id), zap.String("reason", reason))
	return g, nil
}

// Submit applies an action on behalf of playerID.
func (m *Manager) Submit(ctx context.Context, id, playerID string, a game.Action) (*MoveResult, error) {
	var res MoveResult
	g, err := m.update(ctx, id, func(g *Game) (game.Snapshot, *storage.MoveRow, error) {
		seat, ok := g.SeatOf(playerID)
		if !ok {
			return game.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrNotPlayer, playerID)
		}
		out, err := m.engine.Apply(g.Snapshot, seat, a)
		if err != nil {
			return game.Snapshot{}, nil, err
		}
		res = MoveResult{
			Number:   len(g.Snapshot.History) + 1,
			PlayerID: playerID,
			Action:   a,
			Notation: out.Notation,
			Terminal: out.Terminal,
			Winner:   out.Winner,
		}
		return out.Snapshot, &storage.MoveRow{
			GameID:   id,
			Number:   res.Number,
			PlayerID: playerID,
			Seat:     seat,
			Action:   a.String(),
			Notation: out.Notation,
		}, nil
	})
	if err != nil {
		m.log.Debug("action rejected",
			zap.String("game_id", id),
			zap.String("player_id", playerID),
			zap.Stringer("action", a),
			zap.Error(err),
		)
		return nil, err
	}
	res.Game = g
	m.log.Info("action applied",
		zap.String("game_id", id),
		zap.String("player_id", playerID),
		zap.String("notation", res.Notation),
		zap.Int("move", res.Number),
	)
	if res.Terminal {
		m.log.Info("game completed",
			zap.String("game_id", id),
			zap.String("reason", g.Snapshot.TerminalReason),
			zap.Strings("winners", g.WinnerIDs()),
		)
	}
	return &res, nil
}

// SuggestMove asks the suggester for an action for the player to move and
// submits it. A failing suggester falls back to the simplest legal action.
func (m *Manager) SuggestMove(ctx context.Context, id string) (*MoveResult, error) {
	if m.bot == nil {
		return nil, ErrNoSuggester
	}
	g, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status.Finished() {
		return nil, game.ErrGameFinished
	}
	seat := g.Snapshot.ToMove
	legal, err := m.engine.LegalActionsFor(g.Snapshot, seat)
	if err != nil {
		return nil, err
	}
	view, err := m.engine.View(g.Snapshot, seat)
	if err != nil {
		return nil, err
	}
	a, err := m.bot.Suggest(ctx, view, legal)
	if err != nil {
		m.log.Warn("suggester failed, using fallback", zap.String("game_id", id), zap.Error(err))
		if a, err = ai.Fallback(legal); err != nil {
			return nil, err
		}
	}
	return m.Submit(ctx, id, g.PlayerAt(seat), a)
}

// Moves returns the move log of a game.
func (m *Manager) Moves(ctx context.Context, id string) ([]Move, error) {
	if _, err := m.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := m.store.Moves(ctx, id)
	if err != nil {
		return nil, err
	}
	moves := make([]Move, len(rows))
	for i, r := range rows {
		moves[i] = Move{
			Number:    r.Number,
			PlayerID:  r.PlayerID,
			Seat:      r.Seat,
			Action:    r.Action,
			Notation:  r.Notation,
			CreatedAt: r.CreatedAt,
		}
	}
	return moves, nil
}

// Delete removes a game, its moves and its room.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()

	if _, err := m.load(ctx, id); err != nil {
		return err
	}
	if err := m.store.DeleteGame(ctx, id); err != nil {
		return err
	}
	m.cache.Remove(id)
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.log.Info("game deleted", zap.String("game_id", id))
	return nil
}

// Room returns the live room for a game, creating it if needed.
func (m *Manager) Room(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = NewSession(id)
		m.sessions[id] = s
	}
	return s
}

// ActiveRoom returns the room for a game if anyone has opened one.
func (m *Manager) ActiveRoom(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// CleanupLoop periodically aborts games that never started and drops
// rooms nobody is watching. It returns when ctx is done.
func (m *Manager) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(ctx, maxAge)
		}
	}
}

func (m *Manager) cleanup(ctx context.Context, maxAge time.Duration) {
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.Empty() {
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	rows, err := m.store.ListGames(ctx, string(game.StatusWaiting))
	if err != nil {
		m.log.Warn("cleanup: list games", zap.Error(err))
		return
	}
	now := time.Now()
	for _, r := range rows {
		if now.Sub(r.CreatedAt) < maxAge {
			continue
		}
		if _, err := m.Abort(ctx, r.ID, "never started"); err != nil {
			m.log.Warn("cleanup: abort stale game", zap.String("game_id", r.ID), zap.Error(err))
		}
	}
}
