// Package store is the local match dataset: reference tables fetched from
// the API, participant rows extracted from match details, and finished
// ratings snapshots. SQLite keeps the whole corpus in one file next to the
// binaries.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/smitebuilds/recommender/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS gods (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	pantheon TEXT,
	roles TEXT,
	title TEXT
);

CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	tier INTEGER NOT NULL,
	root_id INTEGER,
	child_id INTEGER,
	starting INTEGER NOT NULL DEFAULT 0,
	type TEXT,
	active_flag TEXT,
	price INTEGER,
	restricted_roles TEXT
);

CREATE TABLE IF NOT EXISTS matches (
	id INTEGER PRIMARY KEY,
	queue_id INTEGER NOT NULL,
	fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
	match_id INTEGER NOT NULL,
	task_force INTEGER NOT NULL,
	god_id INTEGER NOT NULL,
	won INTEGER NOT NULL,
	item1 INTEGER, item2 INTEGER, item3 INTEGER,
	item4 INTEGER, item5 INTEGER, item6 INTEGER
);

CREATE INDEX IF NOT EXISTS idx_participants_god ON participants(god_id);
CREATE INDEX IF NOT EXISTS idx_participants_match ON participants(match_id);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	body BLOB NOT NULL
);
`

// Store wraps the SQLite dataset file.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// Open opens or creates the dataset at path and applies the schema.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;`); err != nil {
		logger.Warnw("Failed to set pragmas", "error", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database file is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ReplaceGods swaps the god reference table for a fresh API fetch.
func (s *Store) ReplaceGods(ctx context.Context, gods []models.God) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM gods"); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO gods (id, name, pantheon, roles, title) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, g := range gods {
		if _, err := stmt.ExecContext(ctx, g.ID, g.Name, g.Pantheon, g.Roles, g.Title); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert god %d: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

// ReplaceItems swaps the item reference table for a fresh API fetch.
func (s *Store) ReplaceItems(ctx context.Context, items []models.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, name, tier, root_id, child_id, starting, type, active_flag, price, restricted_roles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, it := range items {
		starting := 0
		if it.StartingItem {
			starting = 1
		}
		if _, err := stmt.ExecContext(ctx, it.ItemID, it.DeviceName, it.ItemTier, it.RootItemID,
			it.ChildItemID, starting, it.Type, it.ActiveFlag, it.Price, it.RestrictedRoles); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert item %d: %w", it.ItemID, err)
		}
	}
	return tx.Commit()
}

// Gods returns the god reference table ordered by name.
func (s *Store) Gods(ctx context.Context) ([]models.God, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, pantheon, roles, title FROM gods ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gods []models.God
	for rows.Next() {
		var g models.God
		if err := rows.Scan(&g.ID, &g.Name, &g.Pantheon, &g.Roles, &g.Title); err != nil {
			return nil, err
		}
		gods = append(gods, g)
	}
	return gods, rows.Err()
}

// Items returns the item reference table ordered by name.
func (s *Store) Items(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, tier, root_id, child_id, starting, type, active_flag, price, restricted_roles
		FROM items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		var starting int
		if err := rows.Scan(&it.ItemID, &it.DeviceName, &it.ItemTier, &it.RootItemID, &it.ChildItemID,
			&starting, &it.Type, &it.ActiveFlag, &it.Price, &it.RestrictedRoles); err != nil {
			return nil, err
		}
		it.StartingItem = starting != 0
		items = append(items, it)
	}
	return items, rows.Err()
}

// FilterNewMatchIDs returns the subset of ids not yet stored, so re-runs of
// the collector skip matches they already paid quota for.
func (s *Store) FilterNewMatchIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	seen := make(map[int64]bool, len(ids))
	// Chunked IN queries; SQLite's default parameter limit is 999.
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := start + chunk
		if end > len(ids) {
			end = len(ids)
		}
		part := ids[start:end]

		args := make([]interface{}, 0, len(part))
		for _, id := range part {
			n, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				continue
			}
			args = append(args, n)
		}
		if len(args) == 0 {
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")

		rows, err := s.db.QueryContext(ctx,
			"SELECT id FROM matches WHERE id IN ("+placeholders+")", args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			seen[id] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		if !seen[n] {
			out = append(out, id)
		}
	}
	return out, nil
}

// InsertParticipants stores participant records grouped under their matches.
// Matches already present are skipped whole, keeping re-runs idempotent.
func (s *Store) InsertParticipants(ctx context.Context, records []models.ParticipantRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	matchStmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO matches (id, queue_id, fetched_at) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer matchStmt.Close()

	partStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO participants (match_id, task_force, god_id, won, item1, item2, item3, item4, item5, item6)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer partStmt.Close()

	now := time.Now().Unix()
	newMatch := make(map[int64]bool)
	for _, r := range records {
		if _, ok := newMatch[r.MatchID]; !ok {
			res, err := matchStmt.ExecContext(ctx, r.MatchID, r.QueueID, now)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("insert match %d: %w", r.MatchID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				tx.Rollback()
				return err
			}
			newMatch[r.MatchID] = n > 0
		}
		if !newMatch[r.MatchID] {
			continue
		}

		var slots [6]interface{}
		for i := range slots {
			if i < len(r.ItemIDs) && r.ItemIDs[i] != 0 {
				slots[i] = r.ItemIDs[i]
			}
		}
		won := 0
		if r.Won {
			won = 1
		}
		if _, err := partStmt.ExecContext(ctx, r.MatchID, r.TaskForce, r.GodID, won,
			slots[0], slots[1], slots[2], slots[3], slots[4], slots[5]); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert participant match %d god %d: %w", r.MatchID, r.GodID, err)
		}
	}

	return tx.Commit()
}

// CountMatches returns the number of stored matches.
func (s *Store) CountMatches(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&n)
	return n, err
}

// CountParticipants returns the number of stored participant rows.
func (s *Store) CountParticipants(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM participants").Scan(&n)
	return n, err
}

// PruneBefore removes matches fetched before the cutoff along with their
// participants and returns how many matches went. Old patches drift out of
// the dataset this way instead of diluting the fit forever.
func (s *Store) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM participants WHERE match_id IN (SELECT id FROM matches WHERE fetched_at < ?)",
		cutoff.Unix()); err != nil {
		tx.Rollback()
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM matches WHERE fetched_at < ?", cutoff.Unix())
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Infow("Pruned old matches", "removed", n, "cutoff", cutoff.UTC())
	}
	return n, nil
}

// GodMatchCounts returns how many stored examples exist per god.
func (s *Store) GodMatchCounts(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT god_id, COUNT(*) FROM participants GROUP BY god_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var god, n int
		if err := rows.Scan(&god, &n); err != nil {
			return nil, err
		}
		counts[god] = n
	}
	return counts, rows.Err()
}

// GodExample is one training example: a participant's own final build, the
// union of the opposing team's builds, and the outcome.
type GodExample struct {
	MatchID    int64
	TaskForce  int
	Won        bool
	OwnItems   []int
	EnemyItems []int
}

// ExamplesByGod returns every stored example for one god, enemy builds
// joined in. Rows come back one per opposing participant and are folded
// into one example per (match, side).
func (s *Store) ExamplesByGod(ctx context.Context, godID int) ([]GodExample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.match_id, p.task_force, p.won,
		       p.item1, p.item2, p.item3, p.item4, p.item5, p.item6,
		       e.item1, e.item2, e.item3, e.item4, e.item5, e.item6
		FROM participants p
		JOIN participants e ON e.match_id = p.match_id AND e.task_force <> p.task_force
		WHERE p.god_id = ?
		ORDER BY p.match_id, p.task_force, e.god_id`, godID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var examples []GodExample
	last := -1
	for rows.Next() {
		var matchID int64
		var taskForce, won int
		var own, enemy [6]sql.NullInt64
		if err := rows.Scan(&matchID, &taskForce, &won,
			&own[0], &own[1], &own[2], &own[3], &own[4], &own[5],
			&enemy[0], &enemy[1], &enemy[2], &enemy[3], &enemy[4], &enemy[5]); err != nil {
			return nil, err
		}

		if last < 0 || examples[last].MatchID != matchID || examples[last].TaskForce != taskForce {
			examples = append(examples, GodExample{
				MatchID:   matchID,
				TaskForce: taskForce,
				Won:       won != 0,
				OwnItems:  collectItems(own),
			})
			last = len(examples) - 1
		}
		examples[last].EnemyItems = append(examples[last].EnemyItems, collectItems(enemy)...)
	}
	return examples, rows.Err()
}

func collectItems(slots [6]sql.NullInt64) []int {
	out := make([]int, 0, 6)
	for _, s := range slots {
		if s.Valid && s.Int64 != 0 {
			out = append(out, int(s.Int64))
		}
	}
	return out
}

// SaveSnapshot stores a finished ratings snapshot body under its run ID.
func (s *Store) SaveSnapshot(ctx context.Context, runID string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO snapshots (run_id, created_at, body) VALUES (?, ?, ?)",
		runID, time.Now().Unix(), body)
	return err
}

// LatestSnapshot returns the most recently saved snapshot body.
func (s *Store) LatestSnapshot(ctx context.Context) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM snapshots ORDER BY created_at DESC LIMIT 1").Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return body, err
}
