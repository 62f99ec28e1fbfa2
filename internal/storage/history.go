/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Postgres driver registered as "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/version"
)

const (
	HistoryFileName = "history.db"

	// historySchemaVersion tracks the history tables; bump it with a migration.
	historySchemaVersion = 1

	tsLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Dialect selects SQL flavour details.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Entry is one recorded slide value.
type Entry struct {
	ID      int64
	Project string
	SlideID string
	TS      time.Time
	Slide   domain.Slide
}

// SlideSummary aggregates the history of one slide.
type SlideSummary struct {
	SlideID string
	Count   int
	Latest  time.Time
	Header  string
}

// History stores slide snapshots keyed by project path and slide id.
type History struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	log     *slog.Logger
}

// language=SQL
const (
	insertEntrySQL   = `INSERT INTO slide_history(project, slide_id, ts, blob) VALUES (?, ?, ?, ?)`
	selectLatestSQL  = `SELECT id, ts, blob FROM slide_history WHERE project = ? AND slide_id = ? ORDER BY id DESC LIMIT 1`
	listEntriesSQL   = `SELECT id, ts, blob FROM slide_history WHERE project = ? AND slide_id = ? ORDER BY id DESC LIMIT ?`
	summarySQL       = `SELECT slide_id, COUNT(*), MAX(id) FROM slide_history WHERE project = ? GROUP BY slide_id ORDER BY MAX(id)`
	selectByIDSQL    = `SELECT ts, blob FROM slide_history WHERE id = ?`
	selectVersionSQL = `SELECT value FROM history_meta WHERE key = 'schema'`
	upsertMetaSQL    = `INSERT INTO history_meta(key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`
)

// language=SQL
const pruneEntriesSQL = `DELETE FROM slide_history WHERE project = ? AND slide_id = ? AND id NOT IN (
	SELECT id FROM slide_history WHERE project = ? AND slide_id = ? ORDER BY id DESC LIMIT ?
)`

// HistoryPath returns the default SQLite history file inside dir.
func HistoryPath(dir string) string { return filepath.Join(dir, HistoryFileName) }

// OpenHistory opens Postgres when dsn is set and the SQLite file in dir
// otherwise.
func OpenHistory(ctx context.Context, dir, dsn string) (*History, error) {
	if strings.TrimSpace(dsn) != "" {
		return OpenPostgresHistory(ctx, dsn)
	}
	return OpenSQLiteHistory(ctx, HistoryPath(dir))
}

// OpenSQLiteHistory opens or creates the embedded history database with WAL
// and a busy timeout.
func OpenSQLiteHistory(ctx context.Context, path string) (*History, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return newHistory(ctx, db, DialectSQLite)
}

// OpenPostgresHistory connects through the pgx stdlib driver.
func OpenPostgresHistory(ctx context.Context, dsn string) (*History, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newHistory(ctx, db, DialectPostgres)
}

func newHistory(ctx context.Context, db *sql.DB, d Dialect) (*History, error) {
	h := &History{db: db, dialect: d, now: time.Now, log: applog.WithComponent("history").With(slog.String("dialect", d.String()))}
	if err := h.ensureSchema(ctx); err != nil {
		_ = db.Close()
		h.log.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	h.log.Debug("history ready")
	return h, nil
}

func (h *History) ensureSchema(ctx context.Context) error {
	idCol, blobCol := "INTEGER PRIMARY KEY AUTOINCREMENT", "BLOB"
	if h.dialect == DialectPostgres {
		idCol, blobCol = "BIGSERIAL PRIMARY KEY", "BYTEA"
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS history_meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS slide_history (
			id       ` + idCol + `,
			project  TEXT NOT NULL,
			slide_id TEXT NOT NULL,
			ts       TEXT NOT NULL,
			blob     ` + blobCol + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_slide_history_key ON slide_history(project, slide_id)`,
	}
	for _, q := range ddl {
		if _, err := h.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create history table: %w", err)
		}
	}
	var cur string
	err := h.db.QueryRowContext(ctx, selectVersionSQL).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("read history version: %w", err)
	default:
		if n, _ := strconv.Atoi(cur); n > historySchemaVersion {
			// Do not downgrade; newer builds stay compatible with this layout
			return nil
		}
	}
	for k, v := range map[string]string{"schema": strconv.Itoa(historySchemaVersion), "app": version.String()} {
		if _, err := h.db.ExecContext(ctx, h.rebind(upsertMetaSQL), k, v); err != nil {
			return fmt.Errorf("write history meta: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (h *History) rebind(q string) string {
	if h.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Dialect reports the backing database flavour.
func (h *History) Dialect() Dialect { return h.dialect }

// Record stores s unless it equals the latest entry of that slide.
func (h *History) Record(ctx context.Context, project string, s domain.Slide) (bool, error) {
	blob, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("encode slide: %w", err)
	}
	var last []byte
	var id int64
	var ts string
	err = h.db.QueryRowContext(ctx, h.rebind(selectLatestSQL), project, s.ID).Scan(&id, &ts, &last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("read latest entry: %w", err)
	}
	if err == nil && string(last) == string(blob) {
		return false, nil
	}
	if _, err := h.db.ExecContext(ctx, h.rebind(insertEntrySQL), project, s.ID, h.now().UTC().Format(tsLayout), blob); err != nil {
		return false, fmt.Errorf("insert entry: %w", err)
	}
	return true, nil
}

// Latest returns the newest entry of a slide, or nil when there is none.
func (h *History) Latest(ctx context.Context, project, slideID string) (*Entry, error) {
	var (
		id   int64
		ts   string
		blob []byte
	)
	err := h.db.QueryRowContext(ctx, h.rebind(selectLatestSQL), project, slideID).Scan(&id, &ts, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest entry: %w", err)
	}
	e, err := decodeEntry(project, slideID, id, ts, blob)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get loads a single entry by id.
func (h *History) Get(ctx context.Context, id int64) (*Entry, error) {
	var (
		ts   string
		blob []byte
	)
	if err := h.db.QueryRowContext(ctx, h.rebind(selectByIDSQL), id).Scan(&ts, &blob); err != nil {
		return nil, fmt.Errorf("read entry %d: %w", id, err)
	}
	e, err := decodeEntry("", "", id, ts, blob)
	if err != nil {
		return nil, err
	}
	e.SlideID = e.Slide.ID
	return &e, nil
}

// List returns up to limit most recent entries of a slide, newest first.
func (h *History) List(ctx context.Context, project, slideID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, h.rebind(listEntriesSQL), project, slideID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var (
			id   int64
			ts   string
			blob []byte
		)
		if err := rows.Scan(&id, &ts, &blob); err != nil {
			return nil, err
		}
		e, err := decodeEntry(project, slideID, id, ts, blob)
		if err != nil {
			h.log.Warn("skipping unreadable history entry", slog.Int64("id", id), slog.Any("err", err))
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summary lists every slide of a project that has history, in order of
// the latest recording.
func (h *History) Summary(ctx context.Context, project string) ([]SlideSummary, error) {
	rows, err := h.db.QueryContext(ctx, h.rebind(summarySQL), project)
	if err != nil {
		return nil, fmt.Errorf("summarize history: %w", err)
	}
	type agg struct {
		id    string
		count int
		last  int64
	}
	var aggs []agg
	for rows.Next() {
		var a agg
		if err := rows.Scan(&a.id, &a.count, &a.last); err != nil {
			_ = rows.Close()
			return nil, err
		}
		aggs = append(aggs, a)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	out := make([]SlideSummary, 0, len(aggs))
	for _, a := range aggs {
		s := SlideSummary{SlideID: a.id, Count: a.count}
		if e, err := h.Get(ctx, a.last); err == nil {
			s.Latest, s.Header = e.TS, e.Slide.Header
		}
		out = append(out, s)
	}
	return out, nil
}

// Prune keeps at most keep entries of a slide and deletes older ones.
func (h *History) Prune(ctx context.Context, project, slideID string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := h.db.ExecContext(ctx, h.rebind(pruneEntriesSQL), project, slideID, project, slideID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune entries: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database.
func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

func decodeEntry(project, slideID string, id int64, ts string, blob []byte) (Entry, error) {
	var s domain.Slide
	if err := json.Unmarshal(blob, &s); err != nil {
		return Entry{}, fmt.Errorf("decode entry %d: %w", id, err)
	}
	t, _ := time.Parse(tsLayout, ts)
	return Entry{ID: id, Project: project, SlideID: slideID, TS: t, Slide: s}, nil
}
