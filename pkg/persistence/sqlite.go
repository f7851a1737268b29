package persistence

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/protflow/pkg/domain"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const (
	sqliteTable  = "scores"
	sqliteRowKey = "_row"
)

// SQLite stores a table in a single-table SQLite database file. Cells are kept
// as JSON text so every cell type round-trips; missing values are NULL.
type SQLite struct{}

func (SQLite) Name() string      { return "sqlite" }
func (SQLite) Extension() string { return ".db" }

func (SQLite) Save(path string, t *domain.Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := writeSQLite(tmpPath, t); err != nil {
		return err
	}
	return replaceFile(tmpPath, path)
}

func writeSQLite(path string, t *domain.Table) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cols := t.Columns()
	defs := make([]string, 0, len(cols)+1)
	defs = append(defs, quoteIdent(sqliteRowKey)+" INTEGER PRIMARY KEY")
	names := make([]string, 0, len(cols)+1)
	names = append(names, quoteIdent(sqliteRowKey))
	for _, c := range cols {
		defs = append(defs, quoteIdent(c)+" TEXT")
		names = append(names, quoteIdent(c))
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(sqliteTable), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(sqliteTable), strings.Join(names, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for i := 0; i < t.Len(); i++ {
		args[0] = i
		for j, c := range cols {
			v := t.Get(i, c)
			if v == nil {
				args[j+1] = nil
				continue
			}
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, c, err)
			}
			args[j+1] = string(data)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (SQLite) Load(path string) (*domain.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY %s", quoteIdent(sqliteTable), quoteIdent(sqliteRowKey)))
	if err != nil {
		return nil, fmt.Errorf("failed to query table: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var cols []string
	for _, n := range names {
		if n != sqliteRowKey {
			cols = append(cols, n)
		}
	}
	t := domain.NewTable(cols...)

	cells := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(domain.Row, len(cols))
		for i, n := range names {
			if n == sqliteRowKey {
				continue
			}
			if !cells[i].Valid {
				row[n] = nil
				continue
			}
			var v any
			dec := json.NewDecoder(bytes.NewReader([]byte(cells[i].String)))
			dec.UseNumber()
			if err := dec.Decode(&v); err != nil {
				return nil, fmt.Errorf("column %q: %w", n, err)
			}
			row[n] = v
		}
		t.AppendRow(row)
	}
	return t, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
