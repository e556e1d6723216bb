// Package sqlite provides the SQLite connection factories used by the dataset engine.
// Uses modernc.org/sqlite, a pure-Go SQLite driver (no CGO required).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// NewMemoryDB opens a private in-memory database for a loaded dataset.
//
// Every connection to ":memory:" gets its own empty database, so the pool is
// pinned to a single connection that is never recycled. Readers are serialised
// by database/sql, which is fine for a read-only table.
func NewMemoryDB() (*sql.DB, error) {
	dsn := ":memory:" +
		"?_pragma=foreign_keys(OFF)" +
		"&_pragma=temp_store(MEMORY)" +
		"&_pragma=cache_size(-64000)" // 64MB page cache (negative = KB)

	db, err := open(dsn, ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

// NewReadOnlyDB opens an existing SQLite file for queries only.
// query_only rejects any statement that would modify the file.
// Returns an error if the file does not exist (will not create it).
func NewReadOnlyDB(path string) (*sql.DB, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewReadOnlyDB: stat %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("sqlite.NewReadOnlyDB: %q is a directory", path)
	}

	dsn := path +
		"?_pragma=query_only(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := open(dsn, path)
	if err != nil {
		return nil, err
	}
	// Readers never contend with writers here, a small pool is enough.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	return db, nil
}

func open(dsn, label string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", label, err)
	}

	// Verify the connection is alive and PRAGMAs were applied.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", label, err)
	}
	return db, nil
}

// QuoteIdent quotes name for use as a SQL identifier.
// Column names come from the dataset header and may contain anything.
func QuoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	out = append(out, '"')
	return string(out)
}
