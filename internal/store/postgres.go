package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"schoolbeat/internal/models"
)

// Postgres holds the database handle and hands out one Collection per source.
// Identity uniqueness is a UNIQUE index on the identity_key column, computed
// in Go from the record's identity tuple, so Insert can rely on
// ON CONFLICT DO NOTHING instead of racing a lookup.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects, pings and creates the schema if missing.
func OpenPostgres(connStr string) (*Postgres, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return p, nil
}

func (p *Postgres) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS announcements (
		id BIGSERIAL PRIMARY KEY,
		identity_key VARCHAR(64) UNIQUE NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS general_events (
		id BIGSERIAL PRIMARY KEY,
		identity_key VARCHAR(64) UNIQUE NOT NULL,
		event_date TEXT NOT NULL,
		event_time TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS athletics_schedule (
		id BIGSERIAL PRIMARY KEY,
		identity_key VARCHAR(64) UNIQUE NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		event_date TEXT NOT NULL,
		event_time TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL,
		sport TEXT NOT NULL,
		level TEXT NOT NULL,
		opponent TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL,
		home BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := p.db.Exec(schema)
	return err
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Announcements returns the announcements collection.
func (p *Postgres) Announcements() Collection[models.Announcement] {
	return &pgCollection[models.Announcement]{
		db:      p.db,
		table:   "announcements",
		columns: []string{"start_date", "end_date", "title", "description", "created_by", "created_at"},
		args: func(a models.Announcement) []any {
			return []any{a.StartDate, a.EndDate, a.Title, a.Description, a.CreatedBy, a.CreatedAt}
		},
		scan: func(rows *sql.Rows) (models.Announcement, error) {
			var a models.Announcement
			err := rows.Scan(&a.StartDate, &a.EndDate, &a.Title, &a.Description, &a.CreatedBy, &a.CreatedAt)
			return a, err
		},
	}
}

// Events returns the general events collection.
func (p *Postgres) Events() Collection[models.GeneralEvent] {
	return &pgCollection[models.GeneralEvent]{
		db:      p.db,
		table:   "general_events",
		columns: []string{"event_date", "event_time", "name", "description", "location", "created_by", "created_at"},
		args: func(e models.GeneralEvent) []any {
			return []any{e.Date, e.Time, e.Name, e.Description, e.Location, e.CreatedBy, e.CreatedAt}
		},
		scan: func(rows *sql.Rows) (models.GeneralEvent, error) {
			var e models.GeneralEvent
			err := rows.Scan(&e.Date, &e.Time, &e.Name, &e.Description, &e.Location, &e.CreatedBy, &e.CreatedAt)
			return e, err
		},
	}
}

// Fixtures returns the athletics schedule collection.
func (p *Postgres) Fixtures() Collection[models.AthleticsFixture] {
	return &pgCollection[models.AthleticsFixture]{
		db:      p.db,
		table:   "athletics_schedule",
		columns: []string{"name", "event_date", "event_time", "gender", "sport", "level", "opponent", "location", "home", "created_at"},
		args: func(f models.AthleticsFixture) []any {
			return []any{f.Name, f.Date, f.Time, f.Gender, f.Sport, f.Level, f.Opponent, f.Location, f.Home, f.CreatedAt}
		},
		scan: func(rows *sql.Rows) (models.AthleticsFixture, error) {
			var f models.AthleticsFixture
			err := rows.Scan(&f.Name, &f.Date, &f.Time, &f.Gender, &f.Sport, &f.Level, &f.Opponent, &f.Location, &f.Home, &f.CreatedAt)
			return f, err
		},
	}
}

// pgCollection implements Collection for one table. The table layout is
// described by the column list plus converter funcs, which keeps the SQL in
// one place for all three sources.
type pgCollection[T Record] struct {
	db      *sql.DB
	table   string
	columns []string
	args    func(T) []any
	scan    func(*sql.Rows) (T, error)
}

func (c *pgCollection[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

func (c *pgCollection[T]) Exists(ctx context.Context, rec T) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ` + c.table + ` WHERE identity_key = $1)`
	err := c.db.QueryRowContext(ctx, query, rec.IdentityKey()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", c.table, err)
	}
	return exists, nil
}

func (c *pgCollection[T]) Insert(ctx context.Context, rec T) error {
	_, err := c.db.ExecContext(ctx, c.insertQuery(), c.insertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", c.table, err)
	}
	return nil
}

func (c *pgCollection[T]) InsertAll(ctx context.Context, recs []T) error {
	return c.insertAllTx(ctx, recs, false)
}

func (c *pgCollection[T]) DropAll(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM `+c.table); err != nil {
		return fmt.Errorf("drop %s: %w", c.table, err)
	}
	return nil
}

// ReplaceAll swaps the collection contents in one transaction so readers
// never observe the emptied intermediate state.
func (c *pgCollection[T]) ReplaceAll(ctx context.Context, recs []T) error {
	return c.insertAllTx(ctx, recs, true)
}

func (c *pgCollection[T]) ListAll(ctx context.Context) ([]T, error) {
	query := `SELECT ` + strings.Join(c.columns, ", ") + ` FROM ` + c.table + ` ORDER BY id`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := c.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *pgCollection[T]) insertAllTx(ctx context.Context, recs []T, replace bool) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", c.table, err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+c.table); err != nil {
			return fmt.Errorf("drop %s: %w", c.table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, c.insertQuery())
	if err != nil {
		return fmt.Errorf("prepare %s: %w", c.table, err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, c.insertArgs(rec)...); err != nil {
			return fmt.Errorf("insert %s: %w", c.table, err)
		}
	}
	return tx.Commit()
}

func (c *pgCollection[T]) insertQuery() string {
	placeholders := make([]string, len(c.columns)+1)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return `INSERT INTO ` + c.table + ` (identity_key, ` + strings.Join(c.columns, ", ") + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (identity_key) DO NOTHING`
}

func (c *pgCollection[T]) insertArgs(rec T) []any {
	return append([]any{rec.IdentityKey()}, c.args(rec)...)
}
