package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrStaleSnapshot means the game changed since it was loaded.
	ErrStaleSnapshot = errors.New("stale snapshot")
	// ErrDuplicate means a row with the same key already exists.
	ErrDuplicate = errors.New("duplicate row")
)

// GameRow is one game and its current snapshot.
type GameRow struct {
	ID        string
	Variant   string
	Status    string // "waiting", "in_progress", "completed", "aborted"
	Snapshot  string
	Winner    string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlayerRow maps a player onto a seat of a game.
type PlayerRow struct {
	GameID   string
	PlayerID string
	Seat     string
	Position int
}

// MoveRow is one applied action.
type MoveRow struct {
	GameID    string
	Number    int
	PlayerID  string
	Seat      string
	Action    string
	Notation  string
	CreatedAt time.Time
}

// Store persists games in SQLite or PostgreSQL.
type Store struct {
	db     *sql.DB
	driver string
}

// New opens (or creates) a SQLite database and runs migrations.
func New(path string) (*Store, error) {
	return Open(DriverSQLite, path)
}

// Open connects to driver at dsn and runs migrations. For SQLite the dsn
// is a file path or ":memory:".
func Open(driver, dsn string) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty %s dsn", driver)
	}
	var db *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" {
			if parent := filepath.Dir(dsn); parent != "" && parent != "." {
				if err := os.MkdirAll(parent, 0o755); err != nil {
					return nil, err
				}
			}
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// one connection: ":memory:" databases are per connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if driver == DriverSQLite {
		// WAL mode for better concurrent reads
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL: %w", err)
		}
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ts := "DATETIME"
	if s.driver == DriverPostgres {
		ts = "TIMESTAMPTZ"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id         TEXT PRIMARY KEY,
			variant    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'waiting',
			snapshot   TEXT NOT NULL,
			winner     TEXT NOT NULL DEFAULT '',
			version    BIGINT NOT NULL DEFAULT 1,
			created_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_players (
			game_id   TEXT NOT NULL REFERENCES games(id),
			player_id TEXT NOT NULL,
			seat      TEXT NOT NULL,
			position  INTEGER NOT NULL,
			PRIMARY KEY (game_id, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS moves (
			game_id     TEXT NOT NULL REFERENCES games(id),
			move_number INTEGER NOT NULL,
			player_id   TEXT NOT NULL,
			seat        TEXT NOT NULL,
			action      TEXT NOT NULL,
			notation    TEXT NOT NULL,
			created_at  ` + ts + ` NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (game_id, move_number)
		)`,
		`CREATE INDEX IF NOT EXISTS games_status_idx ON games (status, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateGame inserts a game at version 1 together with its players.
func (s *Store) CreateGame(ctx context.Context, g GameRow, players []PlayerRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		"INSERT INTO games (id, variant, status, snapshot, winner, version) VALUES (?, ?, ?, ?, ?, 1)"),
		g.ID, g.Variant, g.Status, g.Snapshot, g.Winner,
	)
	if isDuplicate(err) {
		return fmt.Errorf("%w: game %s", ErrDuplicate, g.ID)
	}
	if err != nil {
		return err
	}
	for _, p := range players {
		_, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO game_players (game_id, player_id, seat, position) VALUES (?, ?, ?, ?)"),
			g.ID, p.PlayerID, p.Seat, p.Position,
		)
		if isDuplicate(err) {
			return fmt.Errorf("%w: player %s in game %s", ErrDuplicate, p.PlayerID, g.ID)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

const gameColumns = "id, variant, status, snapshot, winner, version, created_at, updated_at"

func scanGame(row interface{ Scan(...any) error }) (*GameRow, error) {
	var g GameRow
	if err := row.Scan(&g.ID, &g.Variant, &g.Status, &g.Snapshot, &g.Winner, &g.Version, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGame retrieves a game by id. It returns sql.ErrNoRows when absent.
func (s *Store) GetGame(ctx context.Context, id string) (*GameRow, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+gameColumns+" FROM games WHERE id = ?"), id)
	return scanGame(row)
}

// ListGames returns all games with the given status (or all if status is empty).
func (s *Store) ListGames(ctx context.Context, status string) ([]GameRow, error) {
	var rows *sql.Rows
	var err error
	if status == "" {
		rows, err = s.db.QueryContext(ctx, "SELECT "+gameColumns+" FROM games ORDER BY created_at DESC, id")
	} else {
		rows, err = s.db.QueryContext(ctx, s.rebind("SELECT "+gameColumns+" FROM games WHERE status = ? ORDER BY created_at DESC, id"), status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []GameRow
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	return result, rows.Err()
}

// Players returns the seats of a game in seat order.
func (s *Store) Players(ctx context.Context, gameID string) ([]PlayerRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT game_id, player_id, seat, position FROM game_players WHERE game_id = ? ORDER BY position"), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.GameID, &p.PlayerID, &p.Seat, &p.Position); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdateGame replaces the snapshot of a game if it is still at version.
// It returns ErrStaleSnapshot when another writer got there first.
func (s *Store) UpdateGame(ctx context.Context, id string, version int64, status, snapshot, winner string) error {
	return s.commit(ctx, id, version, status, snapshot, winner, nil)
}

// CommitMove stores the snapshot produced by a move and records the move in
// one transaction. A move number that already exists is reported as stale.
func (s *Store) CommitMove(ctx context.Context, id string, version int64, status, snapshot, winner string, m MoveRow) error {
	return s.commit(ctx, id, version, status, snapshot, winner, &m)
}

func (s *Store) commit(ctx context.Context, id string, version int64, status, snapshot, winner string, m *MoveRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE games SET status = ?, snapshot = ?, winner = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`),
		status, snapshot, winner, id, version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: game %s is no longer at version %d", ErrStaleSnapshot, id, version)
	}
	if m != nil {
		_, err = tx.ExecContext(ctx, s.rebind(
			"INSERT INTO moves (game_id, move_number, player_id, seat, action, notation) VALUES (?, ?, ?, ?, ?, ?)"),
			id, m.Number, m.PlayerID, m.Seat, m.Action, m.Notation,
		)
		if isDuplicate(err) {
			return fmt.Errorf("%w: move %d of game %s", ErrStaleSnapshot, m.Number, id)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Moves returns the recorded moves of a game in order.
func (s *Store) Moves(ctx context.Context, gameID string) ([]MoveRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT game_id, move_number, player_id, seat, action, notation, created_at
		FROM moves WHERE game_id = ? ORDER BY move_number`), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []MoveRow
	for rows.Next() {
		var m MoveRow
		if err := rows.Scan(&m.GameID, &m.Number, &m.PlayerID, &m.Seat, &m.Action, &m.Notation, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// DeleteGame removes a game with its players and moves.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		"DELETE FROM moves WHERE game_id = ?",
		"DELETE FROM game_players WHERE game_id = ?",
		"DELETE FROM games WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, s.rebind(q), id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
