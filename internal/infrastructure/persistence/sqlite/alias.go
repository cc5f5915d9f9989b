package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"pladderBot/internal/domain"
)

// AliasStore guarda los alias en un archivo sqlite propio del plugin.
type AliasStore struct {
	db   *sql.DB
	pick func(n int) int
}

var _ domain.AliasRepository = (*AliasStore)(nil)

func NewAliasStore(dbPath string) (*AliasStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &AliasStore{db: db, pick: rand.IntN}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version string
	err := db.QueryRowContext(ctx, `SELECT value FROM config WHERE id = 1`).Scan(&version)
	if err == nil {
		return nil
	}

	// Sin tabla config: base nueva, se crea la versión 1.
	const schema = `
CREATE TABLE config (
	id INTEGER PRIMARY KEY,
	key TEXT NOT NULL UNIQUE,
	value TEXT
);
INSERT INTO config (id, key, value) VALUES (1, 'version', '1');

CREATE TABLE alias (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	data TEXT
);
INSERT INTO alias (name, data) VALUES ('hello', 'Hej!');`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin init: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: init alias schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit init: %w", err)
	}
	return nil
}

func (s *AliasStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *AliasStore) exists(ctx context.Context, name string) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM alias WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: alias exists: %w", err)
	}
	return true, nil
}

func (s *AliasStore) Add(ctx context.Context, name, data string) error {
	found, err := s.exists(ctx, name)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("sqlite: add %q: %w", name, domain.ErrAliasExists)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO alias (name, data) VALUES (?, ?)`, name, data); err != nil {
			return fmt.Errorf("sqlite: insert alias %q: %w: %w", name, domain.ErrAliasStore, err)
		}
		return nil
	})
}

func (s *AliasStore) Get(ctx context.Context, name string) (*domain.Alias, error) {
	const query = `
SELECT name, data
FROM alias
WHERE name = ?
LIMIT 1;
`

	var aliasName string
	var data sql.NullString
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&aliasName, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: get alias: %w", err)
	}

	return &domain.Alias{Name: aliasName, Data: data.String}, nil
}

func (s *AliasStore) Delete(ctx context.Context, name string) error {
	found, err := s.exists(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("sqlite: delete %q: %w", name, domain.ErrAliasNotFound)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM alias WHERE name = ?`, name); err != nil {
			return fmt.Errorf("sqlite: delete alias %q: %w: %w", name, domain.ErrAliasStore, err)
		}
		return nil
	})
}

// List devuelve los nombres que cumplen pattern con la semántica de LIKE
// (% y _). No agrega comodines por su cuenta.
func (s *AliasStore) List(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM alias WHERE name LIKE ? ORDER BY name`, pattern)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list alias: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: scan alias: %w", err)
		}
		out = append(out, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list rows error: %w", err)
	}

	return out, nil
}

func (s *AliasStore) Random(ctx context.Context, pattern string) (string, bool, error) {
	names, err := s.List(ctx, pattern)
	if err != nil {
		return "", false, err
	}
	if len(names) == 0 {
		return "", false, nil
	}
	return names[s.pick(len(names))], true, nil
}

func (s *AliasStore) All(ctx context.Context) ([]domain.Alias, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, data FROM alias ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: all alias: %w", err)
	}
	defer rows.Close()

	var out []domain.Alias
	for rows.Next() {
		var name string
		var data sql.NullString
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("sqlite: scan alias: %w", err)
		}
		out = append(out, domain.Alias{Name: name, Data: data.String})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: all rows error: %w", err)
	}

	return out, nil
}

func (s *AliasStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w: %w", domain.ErrAliasStore, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w: %w", domain.ErrAliasStore, err)
	}
	return nil
}
