package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/matzehuels/flowlens/pkg/flow"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps flows in a SQLite database in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageErr("connect database", err)
	}

	// One writer at a time; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, storageErr(fmt.Sprintf("apply %q", p), err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, storageErr("apply schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, doc *flow.Document, name string) (string, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return "", err
	}
	id := newID()
	t := now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows (id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, DisplayName(doc, name, id), string(data), t, t)
	if err != nil {
		return "", storageErr("insert flow", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	var (
		rec              Record
		data             string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, data, created_at, updated_at FROM flows WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &data, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("query flow", err)
	}
	rec.CreatedAt = fromMillis(created)
	rec.UpdatedAt = fromMillis(updated)
	if rec.Flow, err = decodeFlow([]byte(data)); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, doc *flow.Document) (bool, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE flows SET data = ?, updated_at = ? WHERE id = ?`,
		string(data), now().UnixMilli(), id)
	if err != nil {
		return false, storageErr("update flow", err)
	}
	return affected(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete flow", err)
	}
	return affected(res)
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM flows ORDER BY created_at, seq`)
	if err != nil {
		return nil, storageErr("list flows", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum              Summary
			created, updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &created, &updated); err != nil {
			return nil, storageErr("scan flow", err)
		}
		sum.CreatedAt = fromMillis(created)
		sum.UpdatedAt = fromMillis(updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list flows", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("rows affected", err)
	}
	return n > 0, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ Store = (*SQLiteStore)(nil)
